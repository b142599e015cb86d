package controllers

import (
	"github.com/bytekstore/bytek/app/services"
	"github.com/bytekstore/bytek/pkg/ctx"
)

type DashboardController struct {
	dashboard *services.DashboardService
}

func NewDashboardController(dashboard *services.DashboardService) *DashboardController {
	return &DashboardController{dashboard: dashboard}
}

func (h *DashboardController) Show(c *ctx.Context) {
	d, err := h.dashboard.Summary(c.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(d)
}
