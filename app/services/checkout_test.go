package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytekstore/bytek/app/cart"
	"github.com/bytekstore/bytek/app/checkout"
	"github.com/bytekstore/bytek/app/models"
	"github.com/bytekstore/bytek/app/repositories"
	"github.com/bytekstore/bytek/app/shipping"
)

func validInput(token string) checkout.Input {
	return checkout.Input{
		FullName:  "Amine Benali",
		Phone:     "0555 12 34 56",
		Email:     "amine@example.dz",
		Address:   "12 Rue Didouche Mourad",
		City:      "Alger Centre",
		RegionID:  16,
		Mode:      shipping.Pickup,
		Notes:     "  call before  ",
		FormToken: token,
	}
}

func TestCartService_StockCap(t *testing.T) {
	ctx := context.Background()
	s := newShop(t, StockUntracked)
	p := s.product(t, "Pad", 1500, true, 3)

	v, err := s.carts.Add(ctx, "sess", p.ID, "", "", 2)
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.Equal(t, models.DefaultColor, v.Items[0].Color, "first option is picked")

	_, err = s.carts.Add(ctx, "sess", p.ID, "", "", 2)
	var stockErr *StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 1, stockErr.Available)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = s.carts.SetQuantity(ctx, "sess", p.ID, models.DefaultSize, models.DefaultColor, 4)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	v, err = s.carts.SetQuantity(ctx, "sess", p.ID, models.DefaultSize, models.DefaultColor, 0)
	require.NoError(t, err)
	assert.Empty(t, v.Items)

	untracked := s.product(t, "Keyboard", 9000, false, 0)
	_, err = s.carts.Add(ctx, "sess", untracked.ID, "", "", 50)
	assert.NoError(t, err)

	_, err = s.carts.Add(ctx, "sess", untracked.ID, "XXL", "Rainbow", 1)
	require.ErrorAs(t, err, &stockErr)
	assert.Zero(t, stockErr.Available, "untracked products still only sell their own options")
	_, err = s.carts.Add(ctx, "sess", untracked.ID, models.DefaultSize, "Rainbow", 1)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = s.carts.Add(ctx, "sess", "missing", "", "", 1)
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)
}

// unreachableStore fails every read, like a redis that times out.
type unreachableStore struct{ *cart.MemoryStore }

func (unreachableStore) Load(context.Context, string) ([]byte, error) {
	return nil, errors.New("redis: i/o timeout")
}

func TestCartService_StoreDownKeepsCart(t *testing.T) {
	ctx := context.Background()
	s := newShop(t, StockUntracked)
	p := s.product(t, "Pad", 1500, false, 0)

	mem := cart.NewMemoryStore()
	require.NoError(t, mem.Save(ctx, "sess", []byte(`{"version":1,"lines":[{"product":{"id":"`+p.ID+`","price":"1500"},"quantity":2,"size":"One Size","color":"Default"}]}`)))
	before, err := mem.Load(ctx, "sess")
	require.NoError(t, err)

	carts := NewCartService(cart.NewLocker(unreachableStore{mem}), s.products, s.catalog)
	_, err = carts.Add(ctx, "sess", p.ID, "", "", 1)
	assert.ErrorIs(t, err, cart.ErrUnavailable)
	_, err = carts.View(ctx, "sess")
	assert.ErrorIs(t, err, cart.ErrUnavailable)
	assert.ErrorIs(t, carts.Clear(ctx, "sess"), cart.ErrUnavailable)

	after, err := mem.Load(ctx, "sess")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCartService_ViewReprices(t *testing.T) {
	ctx := context.Background()
	s := newShop(t, StockUntracked)
	p := s.product(t, "Headset", 8000, false, 0)
	gone := s.product(t, "Old", 100, false, 0)

	_, err := s.carts.Add(ctx, "sess", p.ID, "", "", 2)
	require.NoError(t, err)
	_, err = s.carts.Add(ctx, "sess", gone.ID, "", "", 1)
	require.NoError(t, err)

	p.Price = decimal.NewFromInt(7000)
	require.NoError(t, s.products.Update(ctx, &p, nil))
	_, err = s.catalog.BulkStatus(ctx, []string{gone.ID}, models.StatusArchived)
	require.NoError(t, err)

	v, err := s.carts.View(ctx, "sess")
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.True(t, v.Subtotal.Equal(decimal.NewFromInt(14000)))
	assert.Equal(t, 2, v.TotalItems)
}

func TestCheckoutService_Place(t *testing.T) {
	ctx := context.Background()
	s := newShop(t, StockUntracked)
	p := s.product(t, "Viper", 6000, true, 10, "Black")

	placed := make(chan models.Order, 1)
	s.bus.Listen(EventOrderPlaced, func(_ context.Context, payload any) {
		placed <- payload.(models.Order)
	})

	_, err := s.carts.Add(ctx, "sess", p.ID, "", "Black", 2)
	require.NoError(t, err)

	form, err := s.checkout.Session("sess")
	require.NoError(t, err)
	assert.EqualValues(t, 5000, form.MinDwellMs)
	assert.Equal(t, checkout.HoneypotField, form.HoneypotField)

	quote, err := s.checkout.Quote(ctx, "sess", 16, shipping.Pickup)
	require.NoError(t, err)
	require.True(t, quote.Totals.ShippingKnown)

	s.clock.Advance(6 * time.Second)
	o, err := s.checkout.Place(ctx, "sess", validInput(form.Token))
	require.NoError(t, err)

	assert.Regexp(t, `^ORD-\d{13}-[0-9A-F]{4}$`, o.OrderNumber)
	assert.Equal(t, "0555123456", o.CustomerPhone)
	assert.Equal(t, "call before", *o.Notes)
	assert.Equal(t, "Alger", o.RegionName)
	assert.Equal(t, string(shipping.Pickup), o.FulfillmentMode)
	assert.Equal(t, models.OrderPending, o.Status)
	assert.Equal(t, models.PaymentCOD, o.PaymentMethod)
	require.Len(t, o.Items, 1)
	assert.True(t, o.Subtotal.Equal(decimal.NewFromInt(12000)))
	assert.True(t, o.Total.Equal(o.Subtotal.Add(o.ShippingCost)))
	assert.True(t, o.Total.Equal(quote.Totals.Total), "placed total matches the quote")

	select {
	case got := <-placed:
		assert.Equal(t, o.OrderNumber, got.OrderNumber)
	case <-time.After(2 * time.Second):
		t.Fatal("order.placed not fired")
	}

	v, err := s.carts.View(ctx, "sess")
	require.NoError(t, err)
	assert.Empty(t, v.Items, "cart cleared after commit")

	stored, err := s.orders.FindByNumber(ctx, o.OrderNumber)
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(o.Total))

	reloaded, err := s.products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, reloaded.TotalStock(), "untracked policy leaves stock alone")

	_, err = s.checkout.Place(ctx, "sess", validInput(form.Token))
	assert.ErrorIs(t, err, ErrCartEmpty)
}

func TestCheckoutService_Rejections(t *testing.T) {
	ctx := context.Background()
	s := newShop(t, StockUntracked)
	p := s.product(t, "Pad", 1000, false, 0)
	_, err := s.carts.Add(ctx, "sess", p.ID, "", "", 1)
	require.NoError(t, err)
	form, err := s.checkout.Session("sess")
	require.NoError(t, err)

	in := validInput(form.Token)
	in.Website = "http://spam"
	_, err = s.checkout.Place(ctx, "sess", in)
	var rej *checkout.Rejection
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, checkout.ReasonHoneypot, rej.Reason)

	s.clock.Advance(2 * time.Second)
	_, err = s.checkout.Place(ctx, "sess", validInput(form.Token))
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, checkout.DwellMessage, rej.Message)

	s.clock.Advance(10 * time.Second)
	_, err = s.checkout.Place(ctx, "other-session", validInput(form.Token))
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, checkout.ReasonToken, rej.Reason)

	bad := validInput(form.Token)
	bad.Phone = "0455123456"
	bad.FullName = " "
	_, err = s.checkout.Place(ctx, "sess", bad)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "phone")
	assert.Contains(t, verr.Fields, "fullName")

	list, _, err := s.orders.List(ctx, repositories.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, list, "nothing persisted on rejection")

	v, err := s.carts.View(ctx, "sess")
	require.NoError(t, err)
	assert.Len(t, v.Items, 1, "cart kept on rejection")
}

func TestCheckoutService_ReservePolicy(t *testing.T) {
	ctx := context.Background()
	s := newShop(t, StockReserve)
	p := s.product(t, "SSD", 12000, true, 2)

	for _, sess := range []string{"a", "b"} {
		_, err := s.carts.Add(ctx, sess, p.ID, "", "", 2)
		require.NoError(t, err)
	}

	formA, err := s.checkout.Session("a")
	require.NoError(t, err)
	formB, err := s.checkout.Session("b")
	require.NoError(t, err)
	s.clock.Advance(time.Minute)

	_, err = s.checkout.Place(ctx, "a", validInput(formA.Token))
	require.NoError(t, err)

	_, err = s.checkout.Place(ctx, "b", validInput(formB.Token))
	assert.True(t, errors.Is(err, repositories.ErrOutOfStock))

	reloaded, err := s.products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, reloaded.TotalStock())

	list, _, err := s.orders.List(ctx, repositories.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1, "the losing checkout wrote nothing")
}

func TestOrderService_UpdateAndTrack(t *testing.T) {
	ctx := context.Background()
	s := newShop(t, StockUntracked)
	p := s.product(t, "Mouse", 5000, false, 0)
	_, err := s.carts.Add(ctx, "sess", p.ID, "", "", 1)
	require.NoError(t, err)
	form, err := s.checkout.Session("sess")
	require.NoError(t, err)
	s.clock.Advance(time.Minute)
	o, err := s.checkout.Place(ctx, "sess", validInput(form.Token))
	require.NoError(t, err)

	updates := make(chan models.Order, 1)
	s.bus.Listen(EventOrderUpdated, func(_ context.Context, payload any) { updates <- payload.(models.Order) })

	status, tracking, eta := "shipped", "ECO 123/45", "2026-03-14"
	got, err := s.order.Update(ctx, o.ID, OrderUpdate{Status: &status, TrackingNumber: &tracking, EstimatedDelivery: &eta})
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, got.Status)
	assert.Equal(t, "ECO 123/45", got.Tracking())
	require.NotNil(t, got.EstimatedDelivery)
	assert.Equal(t, 14, got.EstimatedDelivery.Day())

	select {
	case u := <-updates:
		assert.Equal(t, models.OrderShipped, u.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("order.updated not fired")
	}

	back := "pending"
	got, err = s.order.Update(ctx, o.ID, OrderUpdate{Status: &back})
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, got.Status, "any status may follow any other")

	bogus := "lost"
	_, err = s.order.Update(ctx, o.ID, OrderUpdate{Status: &bogus})
	assert.Error(t, err)

	view, err := s.order.Track(ctx, "  "+o.OrderNumber+" ")
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, view.OrderNumber)
	assert.Equal(t, "https://suivi.ecotrack.dz/?tracking=ECO+123%2F45", view.TrackingURL)

	lower := "ord" + o.OrderNumber[3:]
	_, err = s.order.Track(ctx, lower)
	assert.NoError(t, err, "lookup is case-insensitive")

	_, err = s.order.Track(ctx, "ORD-0-0000")
	assert.ErrorIs(t, err, repositories.ErrOrderNotFound)
	_, err = s.order.Track(ctx, "   ")
	assert.ErrorIs(t, err, repositories.ErrOrderNotFound)

	empty := ""
	got, err = s.order.Update(ctx, o.ID, OrderUpdate{TrackingNumber: &empty})
	require.NoError(t, err)
	assert.Nil(t, got.TrackingNumber)

	require.NoError(t, s.order.Delete(ctx, o.ID))
	assert.ErrorIs(t, s.order.Delete(ctx, o.ID), repositories.ErrOrderNotFound)
}

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	mk := func(status models.OrderStatus, total int64, ago time.Duration) models.Order {
		o := models.Order{Status: status, Total: decimal.NewFromInt(total)}
		o.CreatedAt = now.Add(-ago)
		return o
	}
	orders := []models.Order{
		mk(models.OrderPending, 1000, time.Hour),
		mk(models.OrderDelivered, 5000, 2*time.Hour),
		mk(models.OrderCancelled, 9000, 3*time.Hour),
		mk(models.OrderConfirmed, 2000, 48*time.Hour),
		mk(models.OrderDelivered, 3000, 72*time.Hour),
		mk(models.OrderShipped, 4000, 24*40*time.Hour),
	}

	d := Summarize(orders, now)
	assert.Equal(t, 6, d.TotalOrders)
	assert.Equal(t, 1, d.PendingOrders)
	assert.Equal(t, 1, d.ConfirmedOrders)
	assert.Equal(t, 2, d.DeliveredOrders)
	assert.True(t, d.Revenue.Equal(decimal.NewFromInt(8000)))
	assert.Len(t, d.RecentOrders, 5)

	require.Len(t, d.Daily, 30)
	last := d.Daily[29]
	assert.Equal(t, "2026-03-10", last.Date)
	assert.True(t, last.Revenue.Equal(decimal.NewFromInt(6000)), "cancelled excluded")
	assert.Equal(t, 2, last.Orders)

	sum := decimal.Zero
	for _, day := range d.Daily {
		sum = sum.Add(day.Revenue)
	}
	assert.True(t, sum.Equal(decimal.NewFromInt(11000)), "40-day-old order is outside the chart")
}

func TestDashboardService_LowStockThreshold(t *testing.T) {
	ctx := context.Background()
	s := newShop(t, StockUntracked)
	s.product(t, "Viper", 7000, true, 8)
	s.product(t, "QcK", 1500, true, 3)
	s.product(t, "Untracked", 900, false, 0)

	d, err := NewDashboardService(s.orders, s.products, 0).Summary(ctx)
	require.NoError(t, err)
	require.Len(t, d.LowStock, 1, "zero falls back to the default threshold")
	assert.Equal(t, "QcK", d.LowStock[0].Name)

	d, err = NewDashboardService(s.orders, s.products, 10).Summary(ctx)
	require.NoError(t, err)
	require.Len(t, d.LowStock, 2)
	assert.Equal(t, "QcK", d.LowStock[0].Name, "lowest stock first")
	assert.Equal(t, "Viper", d.LowStock[1].Name)
}
