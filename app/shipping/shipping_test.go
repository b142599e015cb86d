package shipping

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegions_Catalog(t *testing.T) {
	all := Regions()
	require.Len(t, all, 69)
	for i, r := range all {
		assert.Equal(t, i+1, r.ID)
		assert.NotEmpty(t, r.Name)
		assert.True(t, r.HomeDeliveryDefault.IsPositive())
		assert.True(t, r.PickupDeskDefault.IsPositive())
	}

	all[0].Name = "mutated"
	r, ok := FindRegion(1)
	require.True(t, ok)
	assert.Equal(t, "Adrar", r.Name, "callers get a copy")

	_, ok = FindRegion(70)
	assert.False(t, ok)
}

func TestResolve_OverrideWins(t *testing.T) {
	tbl := NewRateTable([]Override{
		{RegionID: 16, HomeDelivery: decimal.NewFromInt(800), PickupDesk: decimal.NewFromInt(300), Active: true},
	})

	q := tbl.Resolve(16, Home)
	assert.True(t, q.Known)
	assert.Equal(t, SourceOverride, q.Source)
	assert.True(t, q.Cost.Equal(decimal.NewFromInt(800)))

	q = tbl.Resolve(16, Pickup)
	assert.True(t, q.Cost.Equal(decimal.NewFromInt(300)))
}

func TestResolve_InactiveOverrideFallsThrough(t *testing.T) {
	tbl := NewRateTable([]Override{
		{RegionID: 16, HomeDelivery: decimal.NewFromInt(9999), PickupDesk: decimal.NewFromInt(9999), Active: false},
	})
	alger, _ := FindRegion(16)

	q := tbl.Resolve(16, Home)
	assert.Equal(t, SourceDefault, q.Source)
	assert.True(t, q.Cost.Equal(alger.HomeDeliveryDefault))
	assert.False(t, tbl.Has(16))
}

func TestResolve_Unknown(t *testing.T) {
	var tbl *RateTable

	for _, id := range []int{0, 70, -3} {
		q := tbl.Resolve(id, Home)
		assert.False(t, q.Known, "region %d", id)
		assert.Equal(t, SourceUnknown, q.Source)
	}

	q := tbl.Resolve(31, Pickup)
	assert.True(t, q.Known, "nil table still uses catalog defaults")
}

func TestParseMode(t *testing.T) {
	cases := map[string]FulfillmentMode{
		"home": Home, "homeDelivery": Home, "pickup": Pickup, "stopDesk": Pickup,
	}
	for in, want := range cases {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMode("drone")
	assert.Error(t, err)

	var body struct {
		Mode FulfillmentMode `json:"mode"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"mode":"stopDesk"}`), &body))
	assert.Equal(t, Pickup, body.Mode)
}
