package controllers

import (
	"github.com/bytekstore/bytek/app/services"
	"github.com/bytekstore/bytek/pkg/ctx"
)

type TrackController struct {
	orders *services.OrderService
}

func NewTrackController(orders *services.OrderService) *TrackController {
	return &TrackController{orders: orders}
}

// Show looks an order up by its number. The storefront links here from the
// confirmation mail as /track?order=ORD-..., so the query form works too.
func (h *TrackController) Show(c *ctx.Context) {
	number := c.Param("number")
	if number == "" {
		number = c.Query("order")
	}

	view, err := h.orders.Track(c.Context(), number)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(view)
}
