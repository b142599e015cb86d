package notifications

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytekstore/bytek/app/models"
)

func sampleOrder() models.Order {
	email, tracking, notes := "yacine@example.dz", "EC-77/1", "Ring <twice>"
	o := models.Order{
		OrderNumber:     "ORD-1741615200000-A1B2",
		CustomerName:    "Yacine",
		CustomerPhone:   "0770112233",
		CustomerEmail:   &email,
		CustomerAddress: "Rue Larbi Ben M'hidi",
		City:            "Constantine",
		RegionID:        25,
		RegionName:      "Constantine",
		FulfillmentMode: "pickup",
		Items: models.LineItems{
			{ProductID: "p1", Name: "Apex Pro", Price: decimal.NewFromInt(25000), Quantity: 1, Size: "One Size", Color: "Black", Subtotal: decimal.NewFromInt(25000)},
			{ProductID: "p2", Name: "QcK", Price: decimal.NewFromInt(1200), Quantity: 2, Subtotal: decimal.NewFromInt(2400)},
		},
		Subtotal:       decimal.NewFromInt(27400),
		ShippingCost:   decimal.NewFromInt(450),
		Total:          decimal.NewFromInt(27850),
		TrackingNumber: &tracking,
		Notes:          &notes,
	}
	o.CreatedAt = time.Date(2026, 3, 10, 14, 5, 0, 0, time.UTC)
	return o
}

func TestRender_Customer(t *testing.T) {
	n, err := New("https://bytek.dz/", "https://suivi.ecotrack.dz/?tracking=")
	require.NoError(t, err)

	m, err := n.Render(sampleOrder(), RoleCustomer)
	require.NoError(t, err)

	assert.Equal(t, "✅ Order Confirmation: ORD-1741615200000-A1B2", m.Subject)
	assert.Contains(t, m.Body, "Order Items (3)")
	assert.Contains(t, m.Body, "27,850 DZD")
	assert.Contains(t, m.Body, "https://suivi.ecotrack.dz/?tracking=EC-77%2F1")
	assert.Contains(t, m.Body, "https://bytek.dz/track?order=ORD-1741615200000-A1B2")
	assert.Contains(t, m.Text, "- Apex Pro (One Size / Black) (Qty: 1) - 25,000 DZD")
	assert.Contains(t, m.Text, "Shipping (Stop desk): 450 DZD")
	assert.Contains(t, m.Text, "Order placed: March 10, 2026 at 14:05 UTC")
	assert.NotContains(t, m.Body, "0770112233", "customers don't get the contact block")
}

func TestRender_Admin(t *testing.T) {
	n, err := New("https://bytek.dz", "")
	require.NoError(t, err)

	o := sampleOrder()
	m, err := n.Render(o, RoleAdmin)
	require.NoError(t, err)

	assert.Equal(t, "🛒 New Order: ORD-1741615200000-A1B2", m.Subject)
	assert.Contains(t, m.Body, "0770112233")
	assert.Contains(t, m.Body, "mailto:yacine@example.dz")
	assert.Contains(t, m.Body, "Ring &lt;twice&gt;", "html is escaped")
	assert.Contains(t, m.Text, "Notes: Ring <twice>")
	assert.Contains(t, m.Text, "Wilaya: 25 - Constantine")

	again, err := n.Render(o, RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, m, again, "rendering is deterministic")

	o.CustomerEmail, o.Notes = nil, nil
	m, err = n.Render(o, RoleAdmin)
	require.NoError(t, err)
	assert.NotContains(t, m.Text, "Email:")
	assert.NotContains(t, m.Text, "Notes:")
}

func TestRender_UnknownRole(t *testing.T) {
	n, err := New("https://bytek.dz", "")
	require.NoError(t, err)
	_, err = n.Render(sampleOrder(), Role("courier"))
	assert.Error(t, err)
}

func TestRenderLowStock(t *testing.T) {
	n, err := New("https://bytek.dz", "")
	require.NoError(t, err)

	m, err := n.RenderLowStock([]LowStockItem{{Name: "Viper", Category: "mice", Stock: 0}}, 5, time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "⚠️ Low stock: 1 products", m.Subject)
	assert.Contains(t, m.Text, "- Viper [mice]: 0")
	assert.Contains(t, m.Body, "https://bytek.dz/admin/products")
}

func TestMoney(t *testing.T) {
	cases := map[string]string{
		"0":         "0 DZD",
		"950":       "950 DZD",
		"1200":      "1,200 DZD",
		"27850":     "27,850 DZD",
		"1234567.5": "1,234,567.50 DZD",
		"-4000":     "-4,000 DZD",
		"100000.00": "100,000 DZD",
	}
	for in, want := range cases {
		assert.Equal(t, want, Money(decimal.RequireFromString(in)), in)
	}
}
