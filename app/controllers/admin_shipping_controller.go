package controllers

import (
	"github.com/bytekstore/bytek/app/services"
	"github.com/bytekstore/bytek/pkg/ctx"
)

type AdminShippingController struct {
	shipping *services.ShippingService
}

func NewAdminShippingController(shipping *services.ShippingService) *AdminShippingController {
	return &AdminShippingController{shipping: shipping}
}

// Index returns all 69 wilayas with the admin's overrides merged in.
func (h *AdminShippingController) Index(c *ctx.Context) {
	rows, err := h.shipping.AdminRates(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(rows)
}

type saveRatesInput struct {
	Rates []services.RateInput `json:"rates" validate:"required"`
}

// Save upserts the submitted rows by wilaya id.
func (h *AdminShippingController) Save(c *ctx.Context) {
	var in saveRatesInput
	if !c.BindJSON(&in) {
		return
	}

	n, err := h.shipping.SaveRates(c.Context(), in.Rates)
	if err != nil {
		fail(c, err)
		return
	}
	rows, err := h.shipping.AdminRates(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(map[string]any{"saved": n, "rates": rows})
}
