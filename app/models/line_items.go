package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// LineItem is a product snapshot frozen into an order.
type LineItem struct {
	ProductID string          `json:"id"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// LineItems is stored as a JSON array.
type LineItems []LineItem

// storedLineItem accepts both the current keys and the camelCase keys
// written by older storefront builds.
type storedLineItem struct {
	ID           string           `json:"id"`
	ProductID    string           `json:"productId"`
	Name         string           `json:"name"`
	ProductName  string           `json:"productName"`
	Image        string           `json:"image"`
	ProductImage string           `json:"productImage"`
	Price        decimal.Decimal  `json:"price"`
	Quantity     int              `json:"quantity"`
	Size         string           `json:"size"`
	SelectedSize string           `json:"selectedSize"`
	Color        string           `json:"color"`
	SelectedClr  string           `json:"selectedColor"`
	Subtotal     *decimal.Decimal `json:"subtotal"`
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// NormalizeLineItems decodes a stored items column in either format.
// A missing subtotal is recomputed as price times quantity.
func NormalizeLineItems(raw []byte) (LineItems, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return LineItems{}, nil
	}
	var stored []storedLineItem
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("models: decode line items: %w", err)
	}

	out := make(LineItems, 0, len(stored))
	for _, s := range stored {
		item := LineItem{
			ProductID: firstNonEmpty(s.ID, s.ProductID),
			Name:      firstNonEmpty(s.Name, s.ProductName),
			Image:     firstNonEmpty(s.Image, s.ProductImage),
			Price:     s.Price,
			Quantity:  s.Quantity,
			Size:      firstNonEmpty(s.Size, s.SelectedSize),
			Color:     firstNonEmpty(s.Color, s.SelectedClr),
		}
		if s.Subtotal != nil && !s.Subtotal.IsZero() {
			item.Subtotal = *s.Subtotal
		} else {
			item.Subtotal = item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		}
		out = append(out, item)
	}
	return out, nil
}

func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]LineItem(l))
	return string(b), err
}

func (l *LineItems) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = LineItems{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("models: cannot scan %T into LineItems", src)
	}
	items, err := NormalizeLineItems(raw)
	if err != nil {
		return err
	}
	*l = items
	return nil
}

func (LineItems) GormDataType() string { return "text" }

// Subtotal sums the line subtotals.
func (l LineItems) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range l {
		sum = sum.Add(it.Subtotal)
	}
	return sum
}

// Count sums quantities.
func (l LineItems) Count() int {
	n := 0
	for _, it := range l {
		n += it.Quantity
	}
	return n
}
