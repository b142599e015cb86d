package services

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytekstore/bytek/app/models"
	"github.com/bytekstore/bytek/app/repositories"
	"github.com/bytekstore/bytek/app/shipping"
)

func TestVariantMatrix(t *testing.T) {
	v := VariantMatrix(nil, nil, 10, true)
	require.Len(t, v, 1)
	assert.Equal(t, models.DefaultSize, v[0].Size)
	assert.Equal(t, models.DefaultColor, v[0].Color)
	assert.Equal(t, 10, v[0].Stock)

	v = VariantMatrix([]string{"S", "M"}, []string{"Black", "White", "Red"}, 10, true)
	require.Len(t, v, 6)
	for _, x := range v {
		assert.Equal(t, 1, x.Stock, "floor(10/6)")
	}

	v = VariantMatrix([]string{"S", "M"}, nil, 0, true)
	assert.Equal(t, 1, v[0].Stock, "at least one per variant")

	v = VariantMatrix(nil, []string{"Black"}, 3, false)
	assert.Equal(t, 999, v[0].Stock)
}

func TestProductService_CreateUpdateAvailable(t *testing.T) {
	ctx := context.Background()
	s := newShop(t, StockUntracked)

	p := s.product(t, "Viper", 7000, true, 8, "Black", "White")
	assert.Equal(t, models.StringList{models.DefaultSize}, p.Sizes)
	assert.Equal(t, models.StatusAvailable, p.Status)
	assert.Equal(t, 4, s.catalog.Available(p, models.DefaultSize, "Black"))
	assert.Zero(t, s.catalog.Available(p, models.DefaultSize, "Pink"))

	updated, err := s.catalog.Update(ctx, p.ID, ProductInput{
		Name:           "Viper V2",
		Price:          decimal.NewFromInt(7500),
		Category:       models.CategoryMice,
		Colors:         []string{"Black"},
		TrackInventory: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Viper V2", updated.Name)
	require.Len(t, updated.Variants, 1, "colors changed so the matrix is rebuilt")
	assert.Equal(t, 8, updated.TotalStock())

	updated, err = s.catalog.Update(ctx, p.ID, ProductInput{
		Name:           "Viper V2",
		Price:          decimal.NewFromInt(7500),
		Category:       models.CategoryMice,
		Colors:         []string{"Black"},
		TrackInventory: true,
		Variants:       []VariantInput{{Size: models.DefaultSize, Color: "Black", Stock: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.TotalStock())

	n, err := s.catalog.BulkStatus(ctx, []string{p.ID}, models.StatusComingSoon)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	got, err := s.catalog.Get(ctx, p.ID, false)
	require.NoError(t, err)
	assert.Zero(t, s.catalog.Available(got, models.DefaultSize, "Black"), "coming soon cannot be bought")

	_, err = s.catalog.BulkStatus(ctx, []string{p.ID}, "gone")
	assert.Error(t, err)

	_, err = s.catalog.BulkStatus(ctx, []string{p.ID}, models.StatusArchived)
	require.NoError(t, err)
	_, err = s.catalog.Get(ctx, p.ID, false)
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)
	_, err = s.catalog.Get(ctx, p.ID, true)
	assert.NoError(t, err, "admins still see archived products")

	list, _, err := s.catalog.Catalog(ctx, repositories.ProductFilter{Status: models.StatusArchived})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestProductService_UploadImage(t *testing.T) {
	ctx := context.Background()
	s := newShop(t, StockUntracked)

	url, err := s.catalog.UploadImage(ctx, "mouse.PNG", "image/png", 4, strings.NewReader("\x89PNG"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://cdn.test/products/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	_, err = s.catalog.UploadImage(ctx, "notes.txt", "text/plain", 4, strings.NewReader("hi"))
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = s.catalog.UploadImage(ctx, "big.jpg", "image/jpeg", MaxImageBytes+1, strings.NewReader(""))
	assert.ErrorIs(t, err, ErrImageTooBig)
}

func TestShippingService_AdminRatesAndSave(t *testing.T) {
	ctx := context.Background()
	s := newShop(t, StockUntracked)

	rows, err := s.shipping.AdminRates(ctx)
	require.NoError(t, err)
	require.Len(t, rows, len(shipping.Regions()))
	for _, r := range rows {
		assert.True(t, r.Active)
		assert.False(t, r.Overridden)
	}

	off := false
	n, err := s.shipping.SaveRates(ctx, []RateInput{
		{RegionID: 16, HomeDeliveryCost: decimal.NewFromInt(650), PickupDeskCost: decimal.NewFromInt(300)},
		{RegionID: 31, HomeDeliveryCost: decimal.NewFromInt(900), PickupDeskCost: decimal.NewFromInt(500), Active: &off},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err = s.shipping.AdminRates(ctx)
	require.NoError(t, err)
	byID := map[int]RateRow{}
	for _, r := range rows {
		byID[r.RegionID] = r
	}
	assert.True(t, byID[16].Overridden)
	assert.True(t, byID[16].HomeDeliveryCost.Equal(decimal.NewFromInt(650)))
	assert.False(t, byID[31].Active)

	q, err := s.shipping.Quote(ctx, 16, shipping.Home)
	require.NoError(t, err)
	assert.Equal(t, shipping.SourceOverride, q.Source)

	q, err = s.shipping.Quote(ctx, 31, shipping.Pickup)
	require.NoError(t, err)
	assert.Equal(t, shipping.SourceDefault, q.Source, "inactive override falls back")

	public, err := s.shipping.PublicRates(ctx)
	require.NoError(t, err)
	oran, _ := shipping.FindRegion(31)
	for _, r := range public {
		switch r.RegionID {
		case 16:
			assert.True(t, r.Overridden)
			assert.True(t, r.PickupDeskCost.Equal(decimal.NewFromInt(300)))
		case 31:
			assert.False(t, r.Overridden)
			assert.True(t, r.HomeDeliveryCost.Equal(oran.HomeDeliveryDefault))
		}
	}

	q, err = s.shipping.Quote(ctx, 99, shipping.Home)
	require.NoError(t, err)
	assert.False(t, q.Known)

	_, err = s.shipping.SaveRates(ctx, []RateInput{{RegionID: 99}})
	assert.ErrorIs(t, err, ErrInvalidRate)
	_, err = s.shipping.SaveRates(ctx, []RateInput{{RegionID: 1, HomeDeliveryCost: decimal.NewFromInt(-1)}})
	assert.ErrorIs(t, err, ErrInvalidRate)
}
