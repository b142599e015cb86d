package shipping

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FulfillmentMode is how the parcel reaches the customer.
type FulfillmentMode string

const (
	Home   FulfillmentMode = "home"
	Pickup FulfillmentMode = "pickup"
)

// ParseMode accepts the canonical names and the storefront's older
// homeDelivery/stopDesk spellings.
func ParseMode(s string) (FulfillmentMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "home", "homedelivery", "home_delivery":
		return Home, nil
	case "pickup", "stopdesk", "stop_desk", "desk":
		return Pickup, nil
	default:
		return "", fmt.Errorf("shipping: unknown fulfillment mode %q", s)
	}
}

func (m *FulfillmentMode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*m = ""
		return nil
	}
	parsed, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Override is an admin-set price pair for one region.
type Override struct {
	RegionID     int
	HomeDelivery decimal.Decimal
	PickupDesk   decimal.Decimal
	Active       bool
}

// Source says where a quote came from.
type Source string

const (
	SourceOverride Source = "override"
	SourceDefault  Source = "default"
	SourceUnknown  Source = "unknown"
)

// Quote is a resolved shipping price. When Known is false Cost is
// meaningless and must not be shown or summed.
type Quote struct {
	RegionID int             `json:"region_id"`
	Mode     FulfillmentMode `json:"mode"`
	Cost     decimal.Decimal `json:"cost"`
	Known    bool            `json:"known"`
	Source   Source          `json:"source"`
}

// RateTable holds the active overrides for one checkout session.
type RateTable struct {
	overrides map[int]Override
}

// NewRateTable keeps only active overrides; inactive ones fall through to
// the catalog defaults.
func NewRateTable(list []Override) *RateTable {
	t := &RateTable{overrides: make(map[int]Override, len(list))}
	for _, o := range list {
		if o.Active {
			t.overrides[o.RegionID] = o
		}
	}
	return t
}

// Resolve prices regionID for mode: active override, then catalog default,
// else unknown. A zero regionID is unknown.
func (t *RateTable) Resolve(regionID int, mode FulfillmentMode) Quote {
	if mode == "" {
		mode = Home
	}
	q := Quote{RegionID: regionID, Mode: mode, Source: SourceUnknown}
	if regionID == 0 {
		return q
	}

	if t != nil {
		if o, ok := t.overrides[regionID]; ok {
			q.Cost, q.Known, q.Source = o.HomeDelivery, true, SourceOverride
			if mode == Pickup {
				q.Cost = o.PickupDesk
			}
			return q
		}
	}

	if r, ok := FindRegion(regionID); ok {
		q.Cost, q.Known, q.Source = r.Cost(mode), true, SourceDefault
	}
	return q
}

// Has reports whether regionID has an active override.
func (t *RateTable) Has(regionID int) bool {
	if t == nil {
		return false
	}
	_, ok := t.overrides[regionID]
	return ok
}
