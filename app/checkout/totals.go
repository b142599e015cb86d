package checkout

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bytekstore/bytek/app/shipping"
)

// ErrShippingUnknown blocks submission when no price exists for the
// selected wilaya and mode.
var ErrShippingUnknown = errors.New("checkout: shipping cost unknown")

// Totals is the priced checkout. When ShippingKnown is false ShippingCost
// and Total are not meaningful and are serialised as null.
type Totals struct {
	Subtotal      decimal.Decimal
	ShippingCost  decimal.Decimal
	Total         decimal.Decimal
	ShippingKnown bool
	Quote         shipping.Quote
}

// Compute adds the quoted shipping to subtotal.
func Compute(subtotal decimal.Decimal, q shipping.Quote) Totals {
	t := Totals{Subtotal: subtotal, ShippingKnown: q.Known, Quote: q}
	if q.Known {
		t.ShippingCost = q.Cost
		t.Total = subtotal.Add(q.Cost)
	}
	return t
}

// Final returns the totals to freeze into an order, or ErrShippingUnknown.
func (t Totals) Final() (Totals, error) {
	if !t.ShippingKnown {
		return Totals{}, ErrShippingUnknown
	}
	return t, nil
}

func (t Totals) MarshalJSON() ([]byte, error) {
	out := struct {
		Subtotal      decimal.Decimal  `json:"subtotal"`
		ShippingCost  *decimal.Decimal `json:"shipping_cost"`
		Total         *decimal.Decimal `json:"total"`
		ShippingKnown bool             `json:"shipping_known"`
		Source        shipping.Source  `json:"shipping_source"`
	}{Subtotal: t.Subtotal, ShippingKnown: t.ShippingKnown, Source: t.Quote.Source}
	if t.ShippingKnown {
		out.ShippingCost, out.Total = &t.ShippingCost, &t.Total
	}
	return json.Marshal(out)
}

// NewOrderNumber returns ORD-<unix millis>-<4 hex digits>.
func NewOrderNumber(now time.Time) string {
	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		binary.BigEndian.PutUint16(b[:], uint16(now.UnixNano()))
	}
	return fmt.Sprintf("ORD-%d-%04X", now.UnixMilli(), binary.BigEndian.Uint16(b[:]))
}
