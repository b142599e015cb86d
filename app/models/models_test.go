package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLineItems_LegacyKeys(t *testing.T) {
	raw := `[{"productId":"p1","productName":"G502","productImage":"/img/g502.png",
		"price":5000,"quantity":2,"selectedSize":"One Size","selectedColor":"Black"}]`

	items, err := NormalizeLineItems([]byte(raw))
	require.NoError(t, err)
	require.Len(t, items, 1)

	it := items[0]
	assert.Equal(t, "p1", it.ProductID)
	assert.Equal(t, "G502", it.Name)
	assert.Equal(t, "/img/g502.png", it.Image)
	assert.Equal(t, "One Size", it.Size)
	assert.Equal(t, "Black", it.Color)
	assert.True(t, it.Subtotal.Equal(decimal.NewFromInt(10000)), "subtotal recomputed")
}

func TestNormalizeLineItems_CurrentKeysWin(t *testing.T) {
	raw := `[{"id":"new","productId":"old","name":"K70","price":"12000.50","quantity":1,
		"size":"TKL","color":"White","subtotal":12000.5}]`

	items, err := NormalizeLineItems([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "new", items[0].ProductID)
	assert.Equal(t, "TKL", items[0].Size)
	assert.True(t, items[0].Subtotal.Equal(decimal.RequireFromString("12000.5")))
}

func TestNormalizeLineItems_Empty(t *testing.T) {
	for _, raw := range []string{"", "null", "[]"} {
		items, err := NormalizeLineItems([]byte(raw))
		require.NoError(t, err)
		assert.Empty(t, items)
	}
	_, err := NormalizeLineItems([]byte("{oops"))
	assert.Error(t, err)
}

func TestLineItems_ScanValue(t *testing.T) {
	in := LineItems{{ProductID: "p1", Name: "Pad", Price: decimal.NewFromInt(1500), Quantity: 3,
		Size: DefaultSize, Color: DefaultColor, Subtotal: decimal.NewFromInt(4500)}}
	v, err := in.Value()
	require.NoError(t, err)

	var out LineItems
	require.NoError(t, out.Scan(v))
	require.Len(t, out, 1)
	assert.Equal(t, 3, out.Count())
	assert.True(t, out.Subtotal().Equal(decimal.NewFromInt(4500)))
}

func TestStringList(t *testing.T) {
	var l StringList
	require.NoError(t, l.Scan(`["rgb","wireless"]`))
	assert.True(t, l.Contains("rgb"))
	assert.False(t, l.Contains("wired"))

	v, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestProduct_Stock(t *testing.T) {
	p := Product{
		Price: decimal.NewFromInt(100),
		Variants: []ProductVariant{
			{Size: "M", Color: "Black", Stock: 2},
			{Size: "L", Color: "Black", Stock: 0},
		},
	}
	assert.Equal(t, 2, p.TotalStock())
	assert.True(t, p.InStock())

	v, ok := p.Variant("L", "Black")
	require.True(t, ok)
	assert.Zero(t, v.Stock)

	assert.False(t, p.OnSale())
	p.CompareAtPrice = decimal.NewNullDecimal(decimal.NewFromInt(150))
	assert.True(t, p.OnSale())
}

func TestOrderStatus_Valid(t *testing.T) {
	for _, s := range OrderStatuses {
		assert.True(t, s.Valid())
	}
	assert.False(t, OrderStatus("lost").Valid())
	assert.True(t, StatusComingSoon.Valid())
}
