package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bytekstore/bytek/app/models"
	"github.com/bytekstore/bytek/app/repositories"
	"github.com/bytekstore/bytek/app/shipping"
	"github.com/bytekstore/bytek/pkg/collection"
	"github.com/bytekstore/bytek/pkg/metrics"
)

// RateRow is one wilaya as the admin rate editor sees it.
type RateRow struct {
	RegionID         int             `json:"wilaya_id"`
	RegionName       string          `json:"wilaya_name"`
	HomeDeliveryCost decimal.Decimal `json:"home_delivery_cost"`
	PickupDeskCost   decimal.Decimal `json:"stop_desk_cost"`
	Active           bool            `json:"active"`
	Overridden       bool            `json:"overridden"`
}

// RateInput is one row of a bulk rate save. A nil Active means true.
type RateInput struct {
	RegionID         int             `json:"wilaya_id"`
	HomeDeliveryCost decimal.Decimal `json:"home_delivery_cost"`
	PickupDeskCost   decimal.Decimal `json:"stop_desk_cost"`
	Active           *bool           `json:"active"`
}

var ErrInvalidRate = errors.New("invalid shipping rate")

type ShippingService struct {
	rates *repositories.ShippingRateRepository
}

func NewShippingService(rates *repositories.ShippingRateRepository) *ShippingService {
	return &ShippingService{rates: rates}
}

// Regions returns the static wilaya catalog.
func (s *ShippingService) Regions() []shipping.Region {
	return shipping.Regions()
}

// RateTable loads the active overrides. Callers build one per request.
func (s *ShippingService) RateTable(ctx context.Context) (*shipping.RateTable, error) {
	overrides, err := s.rates.Active(ctx)
	if err != nil {
		return nil, err
	}
	return shipping.NewRateTable(overrides), nil
}

// Quote resolves one price and counts where it came from.
func (s *ShippingService) Quote(ctx context.Context, regionID int, mode shipping.FulfillmentMode) (shipping.Quote, error) {
	table, err := s.RateTable(ctx)
	if err != nil {
		return shipping.Quote{}, err
	}
	q := table.Resolve(regionID, mode)
	metrics.ShippingQuotes.WithLabelValues(string(q.Source)).Inc()
	return q, nil
}

// PublicRates lists every wilaya at the price checkout will charge.
// Inactive overrides fall back to the catalog defaults.
func (s *ShippingService) PublicRates(ctx context.Context) ([]RateRow, error) {
	table, err := s.RateTable(ctx)
	if err != nil {
		return nil, err
	}
	regions := shipping.Regions()
	rows := make([]RateRow, 0, len(regions))
	for _, reg := range regions {
		rows = append(rows, RateRow{
			RegionID:         reg.ID,
			RegionName:       reg.Name,
			HomeDeliveryCost: table.Resolve(reg.ID, shipping.Home).Cost,
			PickupDeskCost:   table.Resolve(reg.ID, shipping.Pickup).Cost,
			Active:           true,
			Overridden:       table.Has(reg.ID),
		})
	}
	return rows, nil
}

// AdminRates merges the catalog with stored overrides, one row per wilaya.
func (s *ShippingService) AdminRates(ctx context.Context) ([]RateRow, error) {
	stored, err := s.rates.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load shipping rates: %w", err)
	}
	byRegion := collection.KeyBy(stored, func(r models.ShippingRate) int { return r.RegionID })

	regions := shipping.Regions()
	rows := make([]RateRow, 0, len(regions))
	for _, reg := range regions {
		row := RateRow{
			RegionID:         reg.ID,
			RegionName:       reg.Name,
			HomeDeliveryCost: reg.HomeDeliveryDefault,
			PickupDeskCost:   reg.PickupDeskDefault,
			Active:           true,
		}
		if o, ok := byRegion[reg.ID]; ok {
			row.HomeDeliveryCost = o.HomeDeliveryCost
			row.PickupDeskCost = o.PickupDeskCost
			row.Active = o.Active
			row.Overridden = true
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// SaveRates upserts every row. The whole batch is refused if any row names
// an unknown wilaya or carries a negative price.
func (s *ShippingService) SaveRates(ctx context.Context, in []RateInput) (int, error) {
	rows := make([]models.ShippingRate, 0, len(in))
	for _, r := range in {
		reg, ok := shipping.FindRegion(r.RegionID)
		if !ok {
			return 0, fmt.Errorf("%w: unknown wilaya %d", ErrInvalidRate, r.RegionID)
		}
		if r.HomeDeliveryCost.IsNegative() || r.PickupDeskCost.IsNegative() {
			return 0, fmt.Errorf("%w: negative price for %s", ErrInvalidRate, reg.Name)
		}
		active := true
		if r.Active != nil {
			active = *r.Active
		}
		rows = append(rows, models.ShippingRate{
			RegionID:         reg.ID,
			RegionName:       reg.Name,
			HomeDeliveryCost: r.HomeDeliveryCost,
			PickupDeskCost:   r.PickupDeskCost,
			Active:           active,
		})
	}
	if err := s.rates.Upsert(ctx, rows); err != nil {
		return 0, fmt.Errorf("save shipping rates: %w", err)
	}
	return len(rows), nil
}
