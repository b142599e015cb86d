package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/bytekstore/bytek/app/cart"
	"github.com/bytekstore/bytek/app/checkout"
	"github.com/bytekstore/bytek/app/models"
	"github.com/bytekstore/bytek/app/repositories"
	"github.com/bytekstore/bytek/app/shipping"
	"github.com/bytekstore/bytek/pkg/event"
	"github.com/bytekstore/bytek/pkg/logger"
	"github.com/bytekstore/bytek/pkg/metrics"
)

// Stock policies selected by STOCK_POLICY.
const (
	StockUntracked = "untracked"
	StockReserve   = "reserve"
)

// Events fired on the bus. The payload is the models.Order.
const (
	EventOrderPlaced  = "order.placed"
	EventOrderUpdated = "order.updated"
)

var ErrCartEmpty = errors.New("your cart is empty")

// ValidationError carries every invalid checkout field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return checkout.InvalidMessage }

// FormSession is handed to the checkout page when it opens.
type FormSession struct {
	Token         string    `json:"form_token"`
	IssuedAt      time.Time `json:"issued_at"`
	MinDwellMs    int64     `json:"min_dwell_ms"`
	HoneypotField string    `json:"honeypot_field"`
}

// QuoteView is the live checkout summary.
type QuoteView struct {
	Cart   CartView        `json:"cart"`
	Totals checkout.Totals `json:"totals"`
}

type CheckoutService struct {
	gate        *checkout.Gate
	carts       *CartService
	shipping    *ShippingService
	orders      *repositories.OrderRepository
	products    *repositories.ProductRepository
	events      *event.Bus
	stockPolicy string
	now         func() time.Time
}

func NewCheckoutService(
	gate *checkout.Gate,
	carts *CartService,
	shipping *ShippingService,
	orders *repositories.OrderRepository,
	products *repositories.ProductRepository,
	events *event.Bus,
	stockPolicy string,
) *CheckoutService {
	if stockPolicy != StockReserve {
		stockPolicy = StockUntracked
	}
	return &CheckoutService{
		gate:        gate,
		carts:       carts,
		shipping:    shipping,
		orders:      orders,
		products:    products,
		events:      events,
		stockPolicy: stockPolicy,
		now:         time.Now,
	}
}

// WithClock replaces the clock used to stamp orders.
func (s *CheckoutService) WithClock(now func() time.Time) *CheckoutService {
	s.now = now
	return s
}

// Session issues a form token bound to the visitor.
func (s *CheckoutService) Session(sessionID string) (FormSession, error) {
	tok, issued, err := s.gate.Issue(sessionID)
	if err != nil {
		return FormSession{}, err
	}
	return FormSession{
		Token:         tok,
		IssuedAt:      issued,
		MinDwellMs:    s.gate.MinDwell().Milliseconds(),
		HoneypotField: checkout.HoneypotField,
	}, nil
}

// Quote prices the current cart for a wilaya and mode. Unknown shipping is
// reported through Totals, not as an error.
func (s *CheckoutService) Quote(ctx context.Context, sessionID string, regionID int, mode shipping.FulfillmentMode) (QuoteView, error) {
	view, err := s.carts.View(ctx, sessionID)
	if err != nil {
		return QuoteView{}, err
	}
	q, err := s.shipping.Quote(ctx, regionID, mode)
	if err != nil {
		return QuoteView{}, err
	}
	return QuoteView{Cart: view, Totals: checkout.Compute(view.Subtotal, q)}, nil
}

func reject(reason string, err error) error {
	metrics.CheckoutRejections.WithLabelValues(reason).Inc()
	return err
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Place runs the gate and the field checks, prices the cart against the
// catalog and the rate table, then stores the order. The cart is cleared
// only after the order is committed.
func (s *CheckoutService) Place(ctx context.Context, sessionID string, in checkout.Input) (models.Order, error) {
	if err := s.gate.Check(in.FormToken, sessionID, in.Website); err != nil {
		var rej *checkout.Rejection
		if errors.As(err, &rej) {
			logger.WithCtx(ctx).Warn("checkout: rejected", "reason", rej.Reason)
			return models.Order{}, reject(rej.Reason, err)
		}
		return models.Order{}, err
	}
	if fields := checkout.Validate(in); len(fields) > 0 {
		return models.Order{}, reject("validation", &ValidationError{Fields: fields})
	}
	mode := in.Mode
	if mode == "" {
		mode = shipping.Home
	}

	var order models.Order
	err := s.carts.withCart(ctx, sessionID, func(c *cart.Cart) error {
		lines := c.Lines()
		if len(lines) == 0 {
			return ErrCartEmpty
		}

		table, err := s.shipping.RateTable(ctx)
		if err != nil {
			return err
		}
		quote := table.Resolve(in.RegionID, mode)
		metrics.ShippingQuotes.WithLabelValues(string(quote.Source)).Inc()
		totals, err := checkout.Compute(c.Subtotal(), quote).Final()
		if err != nil {
			return reject("shipping_unknown", err)
		}

		region, _ := shipping.FindRegion(in.RegionID)
		order = models.Order{
			OrderNumber:     checkout.NewOrderNumber(s.now()),
			CustomerName:    strings.TrimSpace(in.FullName),
			CustomerPhone:   checkout.NormalizePhone(in.Phone),
			CustomerEmail:   optional(in.Email),
			CustomerAddress: strings.TrimSpace(in.Address),
			City:            strings.TrimSpace(in.City),
			RegionID:        region.ID,
			RegionName:      region.Name,
			FulfillmentMode: string(mode),
			Items:           lineItems(lines),
			Subtotal:        totals.Subtotal,
			ShippingCost:    totals.ShippingCost,
			Total:           totals.Total,
			Status:          models.OrderPending,
			PaymentMethod:   models.PaymentCOD,
			PaymentStatus:   models.PaymentPending,
			Notes:           optional(in.Notes),
		}

		if err := s.persist(ctx, &order); err != nil {
			return err
		}
		if err := c.Clear(ctx); err != nil {
			logger.WithCtx(ctx).Warn("checkout: cart not cleared", "order", order.OrderNumber, "error", err)
		}
		return nil
	})
	if err != nil {
		return models.Order{}, err
	}

	metrics.OrdersPlaced.WithLabelValues(order.FulfillmentMode).Inc()
	logger.WithCtx(ctx).Info("order placed",
		"order", order.OrderNumber,
		"total", order.Total.String(),
		"wilaya", order.RegionID,
		"mode", order.FulfillmentMode,
	)
	s.events.FireAsync(ctx, EventOrderPlaced, order)
	return order, nil
}

func lineItems(lines []cart.Line) models.LineItems {
	items := make(models.LineItems, 0, len(lines))
	for _, l := range lines {
		items = append(items, models.LineItem{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Image:     l.Product.Image,
			Price:     l.Product.Price,
			Quantity:  l.Quantity,
			Size:      l.Size,
			Color:     l.Color,
			Subtotal:  l.Subtotal(),
		})
	}
	return items
}

// persist inserts the order. Under the reserve policy tracked variants are
// decremented in the same transaction and the order is refused if any of
// them ran out.
func (s *CheckoutService) persist(ctx context.Context, order *models.Order) error {
	if s.stockPolicy != StockReserve {
		return s.orders.Create(ctx, nil, order)
	}

	ids := make([]string, 0, len(order.Items))
	for _, it := range order.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.products.FindMany(ctx, ids)
	if err != nil {
		return err
	}

	return s.orders.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, it := range order.Items {
			if p, ok := products[it.ProductID]; ok && !p.TrackInventory {
				continue
			}
			if err := s.products.DecrementStock(ctx, tx, it.ProductID, it.Size, it.Color, it.Quantity); err != nil {
				if errors.Is(err, repositories.ErrOutOfStock) {
					return reject("out_of_stock", fmt.Errorf("%s (%s / %s): %w", it.Name, it.Size, it.Color, err))
				}
				return err
			}
		}
		return s.orders.Create(ctx, tx, order)
	})
}
