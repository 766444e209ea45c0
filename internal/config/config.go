package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/linemk/qris-shop/internal/domain/models"
)

const (
	StorageFile     = "file"
	StoragePostgres = "postgres"

	// код отмены в меню каталога, продукт с таким кодом недопустим
	cancelCode = "0"
)

var ErrCancelCodeProduct = errors.New(`product code "0" is reserved for cancel`)

type Config struct {
	Env        string                    `yaml:"env" env-default:"development"` // environment
	BotToken   string                    `yaml:"-" env:"BOT_TOKEN" validate:"required"`
	HTTPServer HTTPServerConfig          `yaml:"http_server"`
	JWT        JWTConfig                 `yaml:"jwt"`
	Feed       FeedConfig                `yaml:"feed"`
	Payments   PaymentsConfig            `yaml:"payments"`
	Products   map[string]models.Product `yaml:"products" validate:"min=1,dive"`
	Orders     OrdersConfig              `yaml:"orders"`
	Storage    StorageConfig             `yaml:"storage"`
	Database   DatabaseConfig            `yaml:"database" validate:"-"`
	Kafka      KafkaConfig               `yaml:"kafka"`
	Migrations MigrationsConfig          `yaml:"migrations"`
}

// HTTPServerConfig структура http сервера
type HTTPServerConfig struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// JWTConfig настройка jwt
type JWTConfig struct {
	Secret   string `yaml:"-" env:"JWT_SECRET" validate:"required"`
	TokenTTL int    `yaml:"token_ttl" env-default:"60" validate:"gt=0"` // минуты
}

// FeedConfig доступ к фиду мутаций
type FeedConfig struct {
	URL          string        `yaml:"url" validate:"required,url"`
	AuthUsername string        `yaml:"auth_username" validate:"required"`
	AuthToken    string        `yaml:"-" env:"FEED_AUTH_TOKEN" validate:"required"`
	Timeout      time.Duration `yaml:"timeout" env-default:"15s" validate:"gt=0"`
	VerifySSL    *bool         `yaml:"verify_ssl"`
	PollInterval time.Duration `yaml:"poll_interval" env-default:"20s" validate:"gt=0"`
}

// VerifyTLS по умолчанию сертификат проверяется
func (f FeedConfig) VerifyTLS() bool {
	return f.VerifySSL == nil || *f.VerifySSL
}

// PaymentsConfig политика выставления счёта
type PaymentsConfig struct {
	UniqueDigits     int    `yaml:"unique_digits" env-default:"3" validate:"gte=1,lte=6"`
	OrderPrefix      string `yaml:"order_prefix" env-default:"OK" validate:"required"`
	PaymentWindowMin int    `yaml:"payment_window_min" env-default:"15" validate:"gt=0"`
	QRISInfo         string `yaml:"qris_info"`
	QRISImageURL     string `yaml:"qris_image_url" validate:"omitempty,url"`
}

func (p PaymentsConfig) PaymentWindow() time.Duration {
	return time.Duration(p.PaymentWindowMin) * time.Minute
}

type OrdersConfig struct {
	ListLimit   int     `yaml:"list_limit" env-default:"10" validate:"gt=0"`
	CreateRate  float64 `yaml:"create_rate" env-default:"0.2" validate:"gt=0"` // заказов в секунду на покупателя
	CreateBurst int     `yaml:"create_burst" env-default:"3" validate:"gt=0"`
}

type StorageConfig struct {
	Driver string `yaml:"driver" env-default:"file" validate:"oneof=file postgres"`
	Path   string `yaml:"path" env-default:"orders_state.json"`
}

// DatabaseConfig структура по работе с БД, нужна только для driver: postgres
type DatabaseConfig struct {
	Host     string `yaml:"host" env-default:"localhost" validate:"required"`
	Port     int    `yaml:"port" env-default:"5432" validate:"gt=0"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"-" env:"DB_PASSWORD" validate:"required"`
	Name     string `yaml:"name" validate:"required"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// KafkaConfig без брокеров оплаты только логируются
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic" env-default:"orders.paid"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type MigrationsConfig struct {
	Path  string `yaml:"path" env-default:"./migrations"`
	Table string `yaml:"table" env-default:"migrations"`
}

// MustLoad - если не загружаем - паникуем
func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		log.Fatal("CONFIG_PATH not exists")
	}
	return MustLoadByPath(configPath)
}

// fetchConfigPath берёт путь из флага -config или из CONFIG_PATH.
// Остальные флаги команды должны быть объявлены до вызова.
func fetchConfigPath() string {
	var path string

	if flag.Lookup("config") == nil {
		flag.StringVar(&path, "config", "", "path to config file")
	}
	if !flag.Parsed() {
		flag.Parse()
	}
	if f := flag.Lookup("config"); f != nil && path == "" {
		path = f.Value.String()
	}

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	return path
}

func MustLoadByPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file not found: " + configPath)
	}

	cfg, err := LoadByPath(configPath)
	if err != nil {
		log.Fatalf("can't load config file %s: %v", configPath, err)
	}

	return cfg
}

// LoadByPath читает YAML + env и проверяет обязательные параметры
func LoadByPath(configPath string) (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	validate := validator.New()

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Storage.Driver == StoragePostgres {
		if err := validate.Struct(c.Database); err != nil {
			return fmt.Errorf("invalid database config: %w", err)
		}
	}
	if _, ok := c.Products[cancelCode]; ok {
		return ErrCancelCodeProduct
	}
	return nil
}
