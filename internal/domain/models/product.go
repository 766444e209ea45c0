package models

// Product представляет позицию каталога
type Product struct {
	Name       string `yaml:"name" json:"name" validate:"required"`
	Price      int64  `yaml:"price" json:"price" validate:"gte=0"`
	InviteLink string `yaml:"invite_link" json:"-" validate:"required"`
}
