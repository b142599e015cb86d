package controllers

import (
	"github.com/bytekstore/bytek/app/checkout"
	"github.com/bytekstore/bytek/app/services"
	"github.com/bytekstore/bytek/pkg/bind"
	"github.com/bytekstore/bytek/pkg/ctx"
)

type CheckoutController struct {
	checkout *services.CheckoutService
}

func NewCheckoutController(svc *services.CheckoutService) *CheckoutController {
	return &CheckoutController{checkout: svc}
}

// Session issues the signed form token the checkout page must send back.
// The dwell clock starts here.
func (h *CheckoutController) Session(c *ctx.Context) {
	fs, err := h.checkout.Session(c.SessionID())
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(fs)
}

// Quote prices the cart for a wilaya. Totals are null while the shipping
// cost is unknown.
//
//	GET /api/checkout/quote?wilaya_id=16&mode=home
func (h *CheckoutController) Quote(c *ctx.Context) {
	mode, ok := modeParam(c)
	if !ok {
		return
	}
	q, err := h.checkout.Quote(c.Context(), c.SessionID(), c.QueryInt("wilaya_id", 0), mode)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(q)
}

// Place turns the visitor's cart into a pending cash-on-delivery order.
func (h *CheckoutController) Place(c *ctx.Context) {
	var in checkout.Input
	if _, err := bind.JSON(c.W, c.R, &in); err != nil {
		c.ValidationErrorWithMessage(checkout.InvalidMessage, map[string]string{"body": err.Error()})
		return
	}

	order, err := h.checkout.Place(c.Context(), c.SessionID(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(order)
}
