package controllers

import (
	"github.com/bytekstore/bytek/app/services"
	"github.com/bytekstore/bytek/pkg/ctx"
)

type CartController struct {
	carts *services.CartService
}

func NewCartController(carts *services.CartService) *CartController {
	return &CartController{carts: carts}
}

type cartLineInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Size      string `json:"size"       validate:"max=100"`
	Color     string `json:"color"      validate:"max=100"`
	Quantity  int    `json:"quantity"   validate:"gte=0"`
}

func (h *CartController) Show(c *ctx.Context) {
	view, err := h.carts.View(c.Context(), c.SessionID())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(view)
}

// Add puts a variant in the visitor's cart. Quantity defaults to 1.
func (h *CartController) Add(c *ctx.Context) {
	var in cartLineInput
	if !c.BindJSON(&in) {
		return
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}

	view, err := h.carts.Add(c.Context(), c.SessionID(), in.ProductID, in.Size, in.Color, in.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(view)
}

// Update sets a line's quantity; zero removes it.
func (h *CartController) Update(c *ctx.Context) {
	var in cartLineInput
	if !c.BindJSON(&in) {
		return
	}

	view, err := h.carts.SetQuantity(c.Context(), c.SessionID(), in.ProductID, in.Size, in.Color, in.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(view)
}

// Remove drops one line, identified by query parameters.
//
//	DELETE /api/cart/items?product_id=...&size=XL&color=Black
func (h *CartController) Remove(c *ctx.Context) {
	productID := c.Query("product_id")
	if productID == "" {
		c.ValidationError(map[string]string{"product_id": "The product_id field is required."})
		return
	}

	view, err := h.carts.Remove(c.Context(), c.SessionID(), productID, c.Query("size"), c.Query("color"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(view)
}

func (h *CartController) Clear(c *ctx.Context) {
	if err := h.carts.Clear(c.Context(), c.SessionID()); err != nil {
		fail(c, err)
		return
	}
	c.Message("Cart cleared")
}
