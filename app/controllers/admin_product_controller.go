package controllers

import (
	"errors"
	"net/http"

	"github.com/bytekstore/bytek/app/models"
	"github.com/bytekstore/bytek/app/services"
	"github.com/bytekstore/bytek/pkg/ctx"
)

// AdminProductController manages the catalog from the back office.
type AdminProductController struct {
	products *services.ProductService
	lowStock int
}

func NewAdminProductController(products *services.ProductService, lowStock int) *AdminProductController {
	if lowStock <= 0 {
		lowStock = services.DefaultLowStockThreshold
	}
	return &AdminProductController{products: products, lowStock: lowStock}
}

// Index lists every product, archived ones included.
func (h *AdminProductController) Index(c *ctx.Context) {
	f := productFilter(c)
	f.Status = models.ProductStatus(c.Query("status"))

	items, page, err := h.products.AdminList(c.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	c.Paginated(items, page)
}

func (h *AdminProductController) Show(c *ctx.Context) {
	p, err := h.products.Get(c.Context(), c.Param("id"), true)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(p)
}

func (h *AdminProductController) Store(c *ctx.Context) {
	var in services.ProductInput
	if !c.BindJSON(&in) {
		return
	}

	p, err := h.products.Create(c.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(p)
}

func (h *AdminProductController) Update(c *ctx.Context) {
	var in services.ProductInput
	if !c.BindJSON(&in) {
		return
	}

	p, err := h.products.Update(c.Context(), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(p)
}

func (h *AdminProductController) Destroy(c *ctx.Context) {
	if err := h.products.Delete(c.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Message("Product deleted")
}

type bulkStatusInput struct {
	IDs    []string `json:"ids"    validate:"required,dive_required"`
	Status string   `json:"status" validate:"required,in=available coming_soon archived"`
}

// BulkStatus moves many products to one status, e.g. archiving a range.
func (h *AdminProductController) BulkStatus(c *ctx.Context) {
	var in bulkStatusInput
	if !c.BindJSON(&in) {
		return
	}

	n, err := h.products.BulkStatus(c.Context(), in.IDs, models.ProductStatus(in.Status))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(map[string]int64{"updated": n})
}

// Upload stores the multipart "image" field and returns its public URL.
func (h *AdminProductController) Upload(c *ctx.Context) {
	c.R.Body = http.MaxBytesReader(c.W, c.R.Body, services.MaxImageBytes+1<<20)
	file, header, err := c.R.FormFile("image")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			fail(c, services.ErrImageTooBig)
			return
		}
		c.BadRequest("An image file is required")
		return
	}
	defer file.Close()

	url, err := h.products.UploadImage(c.Context(), header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		fail(c, err)
		return
	}
	c.Created(map[string]string{"url": url})
}

// LowStock lists tracked products at or under the dashboard threshold.
func (h *AdminProductController) LowStock(c *ctx.Context) {
	items, err := h.products.LowStock(c.Context(), c.QueryInt("threshold", h.lowStock))
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(items)
}
