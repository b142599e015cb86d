package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bytekstore/bytek/app/models"
	"github.com/bytekstore/bytek/app/repositories"
	"github.com/bytekstore/bytek/pkg/event"
	"github.com/bytekstore/bytek/pkg/logger"
	"github.com/bytekstore/bytek/pkg/orm"
)

// OrderUpdate is the admin edit form. Nil fields are left alone; an empty
// tracking number or delivery date clears it.
type OrderUpdate struct {
	Status            *string `json:"status"             validate:"nullable,in=pending confirmed processing shipped delivered cancelled"`
	TrackingNumber    *string `json:"tracking_number"    validate:"nullable,max=120"`
	EstimatedDelivery *string `json:"estimated_delivery" validate:"nullable,regex=^\\d{4}-\\d{2}-\\d{2}"`
}

// TrackingView is what a customer sees when looking an order up.
type TrackingView struct {
	OrderNumber       string             `json:"order_number"`
	Status            models.OrderStatus `json:"status"`
	CustomerName      string             `json:"customer_name"`
	RegionName        string             `json:"wilaya_name"`
	FulfillmentMode   string             `json:"shipping_type"`
	Items             models.LineItems   `json:"items"`
	Subtotal          decimal.Decimal    `json:"subtotal"`
	ShippingCost      decimal.Decimal    `json:"shipping_cost"`
	Total             decimal.Decimal    `json:"total"`
	TrackingNumber    *string            `json:"tracking_number"`
	TrackingURL       string             `json:"tracking_url,omitempty"`
	EstimatedDelivery *time.Time         `json:"estimated_delivery"`
	CreatedAt         time.Time          `json:"created_at"`
}

type OrderService struct {
	orders      *repositories.OrderRepository
	events      *event.Bus
	trackingURL string
}

func NewOrderService(orders *repositories.OrderRepository, events *event.Bus, trackingURL string) *OrderService {
	return &OrderService{orders: orders, events: events, trackingURL: trackingURL}
}

func (s *OrderService) List(ctx context.Context, f repositories.OrderFilter) ([]models.Order, orm.Page, error) {
	return s.orders.List(ctx, f)
}

func (s *OrderService) Get(ctx context.Context, id string) (models.Order, error) {
	return s.orders.FindByID(ctx, id)
}

// Update applies the admin's changes. Any status may follow any other.
func (s *OrderService) Update(ctx context.Context, id string, in OrderUpdate) (models.Order, error) {
	fields := map[string]any{}
	if in.Status != nil {
		st := models.OrderStatus(*in.Status)
		if !st.Valid() {
			return models.Order{}, &ValidationError{Fields: map[string]string{"status": fmt.Sprintf("Unknown order status %q.", *in.Status)}}
		}
		fields["status"] = st
	}
	if in.TrackingNumber != nil {
		fields["tracking_number"] = optional(*in.TrackingNumber)
	}
	if in.EstimatedDelivery != nil {
		var eta *time.Time
		if raw := strings.TrimSpace(*in.EstimatedDelivery); raw != "" {
			t, err := parseDate(raw)
			if err != nil {
				return models.Order{}, &ValidationError{Fields: map[string]string{"estimated_delivery": err.Error()}}
			}
			eta = &t
		}
		fields["estimated_delivery"] = eta
	}
	if len(fields) == 0 {
		return s.orders.FindByID(ctx, id)
	}

	if err := s.orders.Update(ctx, id, fields); err != nil {
		return models.Order{}, err
	}
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return o, err
	}
	logger.WithCtx(ctx).Info("order updated", "order", o.OrderNumber, "status", o.Status)
	s.events.FireAsync(ctx, EventOrderUpdated, o)
	return o, nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid estimated delivery date %q", raw)
	}
	return t, nil
}

func (s *OrderService) Delete(ctx context.Context, id string) error {
	return s.orders.Delete(ctx, id)
}

// NormalizeOrderNumber trims and upper-cases a typed order number.
func NormalizeOrderNumber(n string) string {
	return strings.ToUpper(strings.TrimSpace(n))
}

// Track finds an order by its public number. Unknown numbers return
// repositories.ErrOrderNotFound.
func (s *OrderService) Track(ctx context.Context, number string) (TrackingView, error) {
	number = NormalizeOrderNumber(number)
	if number == "" {
		return TrackingView{}, repositories.ErrOrderNotFound
	}
	o, err := s.orders.FindByNumber(ctx, number)
	if err != nil {
		return TrackingView{}, err
	}
	return TrackingView{
		OrderNumber:       o.OrderNumber,
		Status:            o.Status,
		CustomerName:      o.CustomerName,
		RegionName:        o.RegionName,
		FulfillmentMode:   o.FulfillmentMode,
		Items:             o.Items,
		Subtotal:          o.Subtotal,
		ShippingCost:      o.ShippingCost,
		Total:             o.Total,
		TrackingNumber:    o.TrackingNumber,
		TrackingURL:       CarrierLink(s.trackingURL, o.Tracking()),
		EstimatedDelivery: o.EstimatedDelivery,
		CreatedAt:         o.CreatedAt,
	}, nil
}

// CarrierLink returns the carrier's tracking page for number, or "".
func CarrierLink(base, number string) string {
	if number == "" || base == "" {
		return ""
	}
	return base + url.QueryEscape(number)
}
