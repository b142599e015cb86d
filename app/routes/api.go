package routes

import (
	"net/http"

	"github.com/bytekstore/bytek/app/controllers"
	"github.com/bytekstore/bytek/pkg/ctx"
	"github.com/bytekstore/bytek/pkg/middleware"
	"github.com/bytekstore/bytek/pkg/rbac"
	"github.com/bytekstore/bytek/pkg/router"
)

// Controllers is everything the API routes dispatch to. A zero value is
// enough to list the routes.
type Controllers struct {
	Auth          *controllers.AuthController
	Catalog       *controllers.CatalogController
	Cart          *controllers.CartController
	Checkout      *controllers.CheckoutController
	Track         *controllers.TrackController
	AdminProducts *controllers.AdminProductController
	AdminOrders   *controllers.AdminOrderController
	AdminShipping *controllers.AdminShippingController
	Dashboard     *controllers.DashboardController

	// OrderFeed upgrades admins to the live order websocket. OrderStream
	// serves the same events over Server-Sent Events.
	OrderFeed   http.HandlerFunc
	OrderStream http.HandlerFunc
}

func RegisterAPI(r *router.Router, c *Controllers) {
	api := r.Group("/api")

	// Storefront
	api.Get("/products", "products.index", ctx.Wrap(c.Catalog.Index))
	api.Get("/products/featured", "products.featured", ctx.Wrap(c.Catalog.Featured))
	api.Get("/products/{id}", "products.show", ctx.Wrap(c.Catalog.Show))
	api.Get("/wilayas", "shipping.regions", ctx.Wrap(c.Catalog.Regions))
	api.Get("/shipping/quote", "shipping.quote", ctx.Wrap(c.Catalog.ShippingQuote))

	api.Get("/cart", "cart.show", ctx.Wrap(c.Cart.Show))
	api.Delete("/cart", "cart.clear", ctx.Wrap(c.Cart.Clear))
	api.Post("/cart/items", "cart.add", ctx.Wrap(c.Cart.Add))
	api.Patch("/cart/items", "cart.update", ctx.Wrap(c.Cart.Update))
	api.Delete("/cart/items", "cart.remove", ctx.Wrap(c.Cart.Remove))

	api.Post("/checkout/session", "checkout.session", ctx.Wrap(c.Checkout.Session))
	api.Get("/checkout/quote", "checkout.quote", ctx.Wrap(c.Checkout.Quote))
	api.Post("/checkout", "checkout.place", ctx.Wrap(c.Checkout.Place))

	api.Get("/track", "orders.track.query", ctx.Wrap(c.Track.Show))
	api.Get("/track/{number}", "orders.track", ctx.Wrap(c.Track.Show))

	api.Post("/auth/login", "auth.login", ctx.Wrap(c.Auth.Login))

	// Back office
	admin := api.Group("/admin", middleware.Auth, rbac.HasRole(rbac.RoleAdmin))
	admin.Get("/me", "auth.me", ctx.Wrap(c.Auth.Me))
	admin.Get("/dashboard", "admin.dashboard", ctx.Wrap(c.Dashboard.Show))

	admin.Get("/products", "admin.products.index", ctx.Wrap(c.AdminProducts.Index))
	admin.Post("/products", "admin.products.store", ctx.Wrap(c.AdminProducts.Store))
	admin.Get("/products/low-stock", "admin.products.low_stock", ctx.Wrap(c.AdminProducts.LowStock))
	admin.Post("/products/bulk-status", "admin.products.bulk_status", ctx.Wrap(c.AdminProducts.BulkStatus))
	admin.Post("/products/images", "admin.products.upload", ctx.Wrap(c.AdminProducts.Upload))
	admin.Get("/products/{id}", "admin.products.show", ctx.Wrap(c.AdminProducts.Show))
	admin.Put("/products/{id}", "admin.products.update", ctx.Wrap(c.AdminProducts.Update))
	admin.Delete("/products/{id}", "admin.products.destroy", ctx.Wrap(c.AdminProducts.Destroy))

	admin.Get("/orders", "admin.orders.index", ctx.Wrap(c.AdminOrders.Index))
	admin.Get("/orders/{id}", "admin.orders.show", ctx.Wrap(c.AdminOrders.Show))
	admin.Patch("/orders/{id}", "admin.orders.update", ctx.Wrap(c.AdminOrders.Update))
	admin.Delete("/orders/{id}", "admin.orders.destroy", ctx.Wrap(c.AdminOrders.Destroy))

	admin.Get("/shipping-rates", "admin.shipping.index", ctx.Wrap(c.AdminShipping.Index))
	admin.Put("/shipping-rates", "admin.shipping.save", ctx.Wrap(c.AdminShipping.Save))

	admin.Get("/ws/orders", "admin.orders.feed", orNotFound(c.OrderFeed))
	admin.Get("/events/orders", "admin.orders.stream", orNotFound(c.OrderStream))
}

func orNotFound(h http.HandlerFunc) http.HandlerFunc {
	if h == nil {
		return http.NotFound
	}
	return h
}
