package controllers

import (
	"github.com/bytekstore/bytek/app/models"
	"github.com/bytekstore/bytek/app/repositories"
	"github.com/bytekstore/bytek/app/services"
	"github.com/bytekstore/bytek/pkg/ctx"
)

type AdminOrderController struct {
	orders *services.OrderService
}

func NewAdminOrderController(orders *services.OrderService) *AdminOrderController {
	return &AdminOrderController{orders: orders}
}

// Index lists orders newest first.
//
//	GET /api/admin/orders?status=pending&search=0770&page=2
func (h *AdminOrderController) Index(c *ctx.Context) {
	items, page, err := h.orders.List(c.Context(), repositories.OrderFilter{
		Status:  models.OrderStatus(c.Query("status")),
		Search:  c.Query("search"),
		Page:    c.QueryInt("page", 1),
		PerPage: c.QueryInt("per_page", 20),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.Paginated(items, page)
}

func (h *AdminOrderController) Show(c *ctx.Context) {
	o, err := h.orders.Get(c.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(o)
}

// Update changes status, tracking number or estimated delivery.
func (h *AdminOrderController) Update(c *ctx.Context) {
	var in services.OrderUpdate
	if !c.BindJSON(&in) {
		return
	}

	o, err := h.orders.Update(c.Context(), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(o)
}

func (h *AdminOrderController) Destroy(c *ctx.Context) {
	if err := h.orders.Delete(c.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Message("Order deleted")
}
