package controllers

import (
	"errors"
	"net/http"

	"github.com/bytekstore/bytek/app/cart"
	"github.com/bytekstore/bytek/app/checkout"
	"github.com/bytekstore/bytek/app/repositories"
	"github.com/bytekstore/bytek/app/services"
	"github.com/bytekstore/bytek/pkg/ctx"
	"github.com/bytekstore/bytek/pkg/logger"
)

const (
	msgOrderNotFound   = "Order not found. Please check your order number and try again."
	msgProductNotFound = "Product not found"
	msgShippingUnknown = "Shipping is not available for the selected wilaya"
	msgCartUnavailable = "Your cart is temporarily unavailable. Please try again."
)

// fail maps a service error onto the response envelope. Anything it doesn't
// recognise is logged and hidden behind a 500.
func fail(c *ctx.Context, err error) {
	var (
		invalid *services.ValidationError
		rej     *checkout.Rejection
		stock   *services.StockError
	)
	switch {
	case errors.As(err, &invalid):
		c.ValidationErrorWithMessage(checkout.InvalidMessage, invalid.Fields)
	case errors.As(err, &rej):
		c.BadRequest(rej.Message)
	case errors.As(err, &stock):
		c.Conflict(stock.Error())
	case errors.Is(err, repositories.ErrOutOfStock):
		c.Conflict(err.Error())
	case errors.Is(err, checkout.ErrShippingUnknown):
		c.Error(http.StatusUnprocessableEntity, msgShippingUnknown)
	case errors.Is(err, services.ErrCartEmpty):
		c.Error(http.StatusUnprocessableEntity, "Your cart is empty")
	case errors.Is(err, cart.ErrUnavailable):
		logger.WithCtx(c.R.Context()).Error("cart store failure", "error", err)
		c.Error(http.StatusServiceUnavailable, msgCartUnavailable)
	case errors.Is(err, cart.ErrInvalidQuantity):
		c.BadRequest("Quantity must be at least 1")
	case errors.Is(err, repositories.ErrProductNotFound):
		c.NotFound(msgProductNotFound)
	case errors.Is(err, repositories.ErrOrderNotFound):
		c.NotFound(msgOrderNotFound)
	case errors.Is(err, repositories.ErrUserNotFound):
		c.NotFound("User not found")
	case errors.Is(err, services.ErrInvalidImage), errors.Is(err, services.ErrInvalidRate):
		c.BadRequest(err.Error())
	case errors.Is(err, services.ErrImageTooBig):
		c.Error(http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		c.Error(http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, services.ErrNotAdmin):
		c.Error(http.StatusForbidden, "Admin access required")
	case errors.Is(err, services.ErrEmailTaken):
		c.Conflict(err.Error())
	default:
		c.ServerError(err)
	}
}
