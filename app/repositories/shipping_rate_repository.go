package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bytekstore/bytek/app/models"
	"github.com/bytekstore/bytek/app/shipping"
)

// ShippingRateRepository stores per-wilaya price overrides.
type ShippingRateRepository struct {
	db *gorm.DB
}

func NewShippingRateRepository(db *gorm.DB) *ShippingRateRepository {
	return &ShippingRateRepository{db: db}
}

// All returns every stored override, active or not.
func (r *ShippingRateRepository) All(ctx context.Context) ([]models.ShippingRate, error) {
	var rates []models.ShippingRate
	err := r.db.WithContext(ctx).Order("region_id ASC").Find(&rates).Error
	return rates, err
}

// Active loads the active overrides as resolver input.
func (r *ShippingRateRepository) Active(ctx context.Context) ([]shipping.Override, error) {
	var rates []models.ShippingRate
	if err := r.db.WithContext(ctx).Where("active = ?", true).Find(&rates).Error; err != nil {
		return nil, fmt.Errorf("load shipping rates: %w", err)
	}
	out := make([]shipping.Override, 0, len(rates))
	for _, rt := range rates {
		out = append(out, shipping.Override{
			RegionID:     rt.RegionID,
			HomeDelivery: rt.HomeDeliveryCost,
			PickupDesk:   rt.PickupDeskCost,
			Active:       rt.Active,
		})
	}
	return out, nil
}

// Upsert inserts or updates one row per region id.
func (r *ShippingRateRepository) Upsert(ctx context.Context, rates []models.ShippingRate) error {
	if len(rates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "region_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"region_name", "home_delivery_cost", "pickup_desk_cost", "active", "updated_at"}),
	}).Create(&rates).Error
}
