package controllers

import (
	"github.com/shopspring/decimal"

	"github.com/bytekstore/bytek/app/repositories"
	"github.com/bytekstore/bytek/app/services"
	"github.com/bytekstore/bytek/app/shipping"
	"github.com/bytekstore/bytek/pkg/ctx"
)

// CatalogController serves the public storefront reads.
type CatalogController struct {
	products *services.ProductService
	shipping *services.ShippingService
}

func NewCatalogController(products *services.ProductService, shipping *services.ShippingService) *CatalogController {
	return &CatalogController{products: products, shipping: shipping}
}

// productFilter reads the listing query shared by the shop and the back office.
func productFilter(c *ctx.Context) repositories.ProductFilter {
	return repositories.ProductFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		MinPrice: queryDecimal(c, "min_price"),
		MaxPrice: queryDecimal(c, "max_price"),
		Stock:    c.Query("stock"),
		Sort:     c.Query("sort"),
		Page:     c.QueryInt("page", 1),
		PerPage:  c.QueryInt("per_page", 24),
	}
}

func queryDecimal(c *ctx.Context, key string) *decimal.Decimal {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	return &d
}

// Index lists visible products.
//
//	GET /api/products?category=mice&search=pro&min_price=1000&stock=in&sort=price-asc
func (h *CatalogController) Index(c *ctx.Context) {
	items, page, err := h.products.Catalog(c.Context(), productFilter(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.Paginated(items, page)
}

func (h *CatalogController) Featured(c *ctx.Context) {
	items, err := h.products.Featured(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(items)
}

func (h *CatalogController) Show(c *ctx.Context) {
	p, err := h.products.Get(c.Context(), c.Param("id"), false)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(p)
}

// Regions lists the wilayas with the prices customers will be charged.
func (h *CatalogController) Regions(c *ctx.Context) {
	rows, err := h.shipping.PublicRates(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(rows)
}

// ShippingQuote prices one wilaya and mode without touching the cart.
//
//	GET /api/shipping/quote?wilaya_id=16&mode=pickup
func (h *CatalogController) ShippingQuote(c *ctx.Context) {
	mode, ok := modeParam(c)
	if !ok {
		return
	}
	q, err := h.shipping.Quote(c.Context(), c.QueryInt("wilaya_id", 0), mode)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(q)
}

// modeParam reads ?mode=, defaulting to home delivery. It answers 400 on an
// unknown mode.
func modeParam(c *ctx.Context) (shipping.FulfillmentMode, bool) {
	raw := c.Query("mode")
	if raw == "" {
		return shipping.Home, true
	}
	mode, err := shipping.ParseMode(raw)
	if err != nil {
		c.BadRequest("Unknown shipping type")
		return "", false
	}
	return mode, true
}
