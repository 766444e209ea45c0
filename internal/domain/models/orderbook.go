package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrDuplicateOrderID = errors.New("order id already exists")

// OrderBook - весь набор заказов, ключ - order_id.
// Порядок вставки сохраняется и переживает сохранение/загрузку документа:
// от него зависит, какой из заказов с одинаковой суммой будет оплачен первым.
type OrderBook struct {
	orders map[string]*Order
	ids    []string
}

func NewOrderBook() *OrderBook {
	return &OrderBook{orders: make(map[string]*Order)}
}

// Add добавляет заказ в конец
func (b *OrderBook) Add(o *Order) error {
	if _, ok := b.orders[o.OrderID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateOrderID, o.OrderID)
	}
	b.put(o.OrderID, o)
	return nil
}

func (b *OrderBook) Get(id string) (*Order, bool) {
	o, ok := b.orders[id]
	return o, ok
}

// Orders возвращает заказы в порядке вставки
func (b *OrderBook) Orders() []*Order {
	res := make([]*Order, 0, len(b.ids))
	for _, id := range b.ids {
		res = append(res, b.orders[id])
	}
	return res
}

func (b *OrderBook) Len() int {
	return len(b.ids)
}

// Clone делает глубокую копию, изменения копии не видны в оригинале
func (b *OrderBook) Clone() *OrderBook {
	c := &OrderBook{
		orders: make(map[string]*Order, len(b.orders)),
		ids:    make([]string, len(b.ids)),
	}
	copy(c.ids, b.ids)
	for id, o := range b.orders {
		cp := *o
		c.orders[id] = &cp
	}
	return c
}

func (b *OrderBook) put(id string, o *Order) {
	if b.orders == nil {
		b.orders = make(map[string]*Order)
	}
	if _, ok := b.orders[id]; !ok {
		b.ids = append(b.ids, id)
	}
	b.orders[id] = o
}

// MarshalJSON пишет документ {"orders": {...}} с ключами в порядке вставки
func (b *OrderBook) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"orders":{`)
	for i, id := range b.ids {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(b.orders[id])
		if err != nil {
			return nil, fmt.Errorf("marshal order %s: %w", id, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteString(`}}`)
	return buf.Bytes(), nil
}

// UnmarshalJSON читает объект orders потоково, чтобы не потерять порядок ключей
func (b *OrderBook) UnmarshalJSON(data []byte) error {
	var doc struct {
		Orders json.RawMessage `json:"orders"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	b.orders = make(map[string]*Order)
	b.ids = nil
	if len(doc.Orders) == 0 || string(doc.Orders) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(doc.Orders))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("orders: expected object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("orders: unexpected key %v", tok)
		}
		o := &Order{}
		if err := dec.Decode(o); err != nil {
			return fmt.Errorf("orders[%s]: %w", key, err)
		}
		if o.OrderID == "" {
			o.OrderID = key
		}
		b.put(key, o)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
