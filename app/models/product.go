package models

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Product categories.
const (
	CategoryMice      = "mice"
	CategoryKeyboards = "keyboards"
	CategoryMousepads = "mousepads"
	CategoryHeadsets  = "headsets"
	CategorySSDs      = "ssds"
	CategoryCPU       = "cpu"
)

// Categories lists every category in display order.
var Categories = []string{
	CategoryMice, CategoryKeyboards, CategoryMousepads,
	CategoryHeadsets, CategorySSDs, CategoryCPU,
}

// ProductStatus controls storefront visibility.
type ProductStatus string

const (
	StatusAvailable  ProductStatus = "available"
	StatusComingSoon ProductStatus = "coming_soon"
	StatusArchived   ProductStatus = "archived"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusComingSoon, StatusArchived:
		return true
	}
	return false
}

// Default variant labels for products sold without options.
const (
	DefaultSize  = "One Size"
	DefaultColor = "Default"
)

// Product is a catalog entry. Stock lives on its variants.
type Product struct {
	Base
	Name           string              `gorm:"size:255;not null;index" json:"name"`
	Description    string              `gorm:"type:text" json:"description"`
	Price          decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"price"`
	CompareAtPrice decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"compare_at_price"`
	Image          string              `gorm:"size:1024" json:"image"`
	Images         StringList          `json:"images"`
	Category       string              `gorm:"size:32;index;not null" json:"category"`
	Status         ProductStatus       `gorm:"size:20;index;not null;default:available" json:"status"`
	Rating         float64             `gorm:"not null;default:0" json:"rating"`
	Reviews        int                 `gorm:"not null;default:0" json:"reviews"`
	SKU            string              `gorm:"size:100;index" json:"sku"`
	Sizes          StringList          `json:"sizes"`
	Colors         StringList          `json:"colors"`
	Tags           StringList          `json:"tags"`
	Featured       bool                `gorm:"not null;index" json:"featured"`
	TrackInventory bool                `gorm:"not null" json:"track_inventory"`
	Variants       []ProductVariant    `gorm:"constraint:OnDelete:CASCADE" json:"variants"`
}

// ProductVariant is the stock count for one (size, color) pair.
type ProductVariant struct {
	Base
	ProductID string `gorm:"size:36;not null;uniqueIndex:idx_variant_key" json:"product_id"`
	Size      string `gorm:"size:100;not null;uniqueIndex:idx_variant_key" json:"size"`
	Color     string `gorm:"size:100;not null;uniqueIndex:idx_variant_key" json:"color"`
	Stock     int    `gorm:"not null;default:0" json:"stock"`
}

// TotalStock sums stock over all variants.
func (p *Product) TotalStock() int {
	n := 0
	for _, v := range p.Variants {
		n += v.Stock
	}
	return n
}

// Variant finds the (size, color) variant.
func (p *Product) Variant(size, color string) (ProductVariant, bool) {
	for _, v := range p.Variants {
		if v.Size == size && v.Color == color {
			return v, true
		}
	}
	return ProductVariant{}, false
}

// Offers reports whether (size, color) is an option of the product: a
// listed size and color, or an existing variant.
func (p *Product) Offers(size, color string) bool {
	if _, ok := p.Variant(size, color); ok {
		return true
	}
	return slices.Contains(p.Sizes, size) && slices.Contains(p.Colors, color)
}

// InStock reports whether any variant has stock.
func (p *Product) InStock() bool { return p.TotalStock() > 0 }

// OnSale reports whether a higher compare-at price is set.
func (p *Product) OnSale() bool {
	return p.CompareAtPrice.Valid && p.CompareAtPrice.Decimal.GreaterThan(p.Price)
}
