package models

import "github.com/shopspring/decimal"

// ShippingRate overrides a wilaya's catalog prices.
type ShippingRate struct {
	Base
	RegionID         int             `gorm:"uniqueIndex;not null" json:"wilaya_id"`
	RegionName       string          `gorm:"size:120" json:"wilaya_name"`
	HomeDeliveryCost decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"home_delivery_cost"`
	PickupDeskCost   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"stop_desk_cost"`
	Active           bool            `gorm:"not null" json:"active"`
}
