package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is set by admins. Any status may follow any other.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists the statuses in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderPending, OrderConfirmed, OrderProcessing,
	OrderShipped, OrderDelivered, OrderCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

const (
	PaymentCOD     = "cod"
	PaymentPending = "pending"
)

// Order is a placed cash-on-delivery order. Items and money fields are
// frozen at submission.
type Order struct {
	Base
	OrderNumber       string          `gorm:"size:40;uniqueIndex;not null" json:"order_number"`
	CustomerName      string          `gorm:"size:255;not null" json:"customer_name"`
	CustomerPhone     string          `gorm:"size:32;not null;index" json:"customer_phone"`
	CustomerEmail     *string         `gorm:"size:255" json:"customer_email"`
	CustomerAddress   string          `gorm:"type:text;not null" json:"customer_address"`
	City              string          `gorm:"size:120" json:"city"`
	RegionID          int             `gorm:"not null;index" json:"wilaya_id"`
	RegionName        string          `gorm:"size:120" json:"wilaya_name"`
	FulfillmentMode   string          `gorm:"size:20;not null" json:"shipping_type"`
	Items             LineItems       `json:"items"`
	Subtotal          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	ShippingCost      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"shipping_cost"`
	Total             decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	Status            OrderStatus     `gorm:"size:20;not null;index;default:pending" json:"status"`
	PaymentMethod     string          `gorm:"size:20;not null;default:cod" json:"payment_method"`
	PaymentStatus     string          `gorm:"size:20;not null;default:pending" json:"payment_status"`
	TrackingNumber    *string         `gorm:"size:120" json:"tracking_number"`
	EstimatedDelivery *time.Time      `json:"estimated_delivery"`
	Notes             *string         `gorm:"type:text" json:"notes"`
}

// Email returns the customer email or "".
func (o *Order) Email() string {
	if o.CustomerEmail == nil {
		return ""
	}
	return *o.CustomerEmail
}

// Tracking returns the tracking number or "".
func (o *Order) Tracking() string {
	if o.TrackingNumber == nil {
		return ""
	}
	return *o.TrackingNumber
}
