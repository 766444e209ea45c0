package models

// Transaction - нормализованная запись из фида мутаций банка.
// Не сохраняется. Amount == nil означает, что сумму распознать не удалось,
// и такая запись никогда не может оплатить заказ.
type Transaction struct {
	Amount *int64         `json:"amount"`
	Note   string         `json:"note"`
	Ref    string         `json:"ref,omitempty"`
	Time   string         `json:"time,omitempty"`
	Raw    map[string]any `json:"raw,omitempty"`
}
