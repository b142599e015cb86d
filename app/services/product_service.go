package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bytekstore/bytek/app/models"
	"github.com/bytekstore/bytek/app/repositories"
	"github.com/bytekstore/bytek/pkg/cache"
	"github.com/bytekstore/bytek/pkg/logger"
	"github.com/bytekstore/bytek/pkg/orm"
	"github.com/bytekstore/bytek/pkg/storage"
)

// MaxImageBytes caps a product image upload.
const MaxImageBytes = 5 << 20

// untrackedStock is the per-variant count given to products that don't
// track inventory.
const untrackedStock = 999

var (
	ErrInvalidImage = errors.New("only image uploads are accepted")
	ErrImageTooBig  = errors.New("image must be 5MB or smaller")
)

// VariantInput sets the stock of one (size, color) pair.
type VariantInput struct {
	Size  string `json:"size"  validate:"required,max=100"`
	Color string `json:"color" validate:"required,max=100"`
	Stock int    `json:"stock" validate:"gte=0"`
}

// ProductInput is the admin product form.
type ProductInput struct {
	Name           string           `json:"name"             validate:"required,max=255"`
	Description    string           `json:"description"      validate:"max=5000"`
	Price          decimal.Decimal  `json:"price"            validate:"required,gte=0"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price" validate:"nullable,gte=0"`
	Image          string           `json:"image"            validate:"max=1024"`
	Images         []string         `json:"images"           validate:"dive_required"`
	Category       string           `json:"category"         validate:"required,in=mice keyboards mousepads headsets ssds cpu"`
	Status         string           `json:"status"           validate:"nullable,in=available coming_soon archived"`
	Rating         float64          `json:"rating"           validate:"gte=0,lte=5"`
	Reviews        int              `json:"reviews"          validate:"gte=0"`
	SKU            string           `json:"sku"              validate:"max=100"`
	Sizes          []string         `json:"sizes"            validate:"dive_required"`
	Colors         []string         `json:"colors"           validate:"dive_required"`
	Tags           []string         `json:"tags"`
	Featured       bool             `json:"featured"`
	TrackInventory bool             `json:"track_inventory"`
	// Stock is the total spread over the variant matrix on create.
	Stock int `json:"stock" validate:"gte=0"`
	// Variants, when set on update, replaces the stock matrix.
	Variants []VariantInput `json:"variants"`
}

type ProductService struct {
	products *repositories.ProductRepository
	disk     storage.Disk
}

func NewProductService(products *repositories.ProductRepository, disk storage.Disk) *ProductService {
	return &ProductService{products: products, disk: disk}
}

// Catalog lists products for the storefront. Archived products never show.
func (s *ProductService) Catalog(ctx context.Context, f repositories.ProductFilter) ([]models.Product, orm.Page, error) {
	f.IncludeArchived = false
	if f.Status == models.StatusArchived {
		f.Status = ""
	}
	return s.products.List(ctx, f)
}

// AdminList lists products including archived ones.
func (s *ProductService) AdminList(ctx context.Context, f repositories.ProductFilter) ([]models.Product, orm.Page, error) {
	f.IncludeArchived = true
	return s.products.List(ctx, f)
}

// featuredKey caches the home page rail; any catalog write drops it.
const featuredKey = "bytek:products:featured"

// Featured returns up to 12 featured products.
func (s *ProductService) Featured(ctx context.Context) ([]models.Product, error) {
	return cache.Remember(ctx, featuredKey, 5*time.Minute, func() ([]models.Product, error) {
		return s.products.Featured(ctx, 12)
	})
}

func (s *ProductService) forgetFeatured(ctx context.Context) {
	if err := cache.Del(ctx, featuredKey); err != nil {
		logger.WithCtx(ctx).Warn("catalog: featured cache not cleared", "error", err)
	}
}

// Get returns one product. Archived products are hidden unless admin is set.
func (s *ProductService) Get(ctx context.Context, id string, admin bool) (models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return p, err
	}
	if !admin && p.Status == models.StatusArchived {
		return models.Product{}, repositories.ErrProductNotFound
	}
	return p, nil
}

// Available is the stock a shopper may put in the cart for one variant.
// Products that don't track inventory are always available in the options
// they offer.
func (s *ProductService) Available(p models.Product, size, color string) int {
	if p.Status != models.StatusAvailable || !p.Offers(size, color) {
		return 0
	}
	if !p.TrackInventory {
		return untrackedStock
	}
	v, ok := p.Variant(size, color)
	if !ok {
		return 0
	}
	return v.Stock
}

// VariantMatrix builds one variant per (size, color). Tracked products
// spread total evenly, at least one unit each; untracked products get 999.
func VariantMatrix(sizes, colors []string, total int, tracked bool) []models.ProductVariant {
	if len(sizes) == 0 {
		sizes = []string{models.DefaultSize}
	}
	if len(colors) == 0 {
		colors = []string{models.DefaultColor}
	}

	per := untrackedStock
	if tracked {
		per = max(1, total/(len(sizes)*len(colors)))
	}

	out := make([]models.ProductVariant, 0, len(sizes)*len(colors))
	for _, size := range sizes {
		for _, color := range colors {
			out = append(out, models.ProductVariant{Size: size, Color: color, Stock: per})
		}
	}
	return out
}

func (in ProductInput) apply(p *models.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Price = in.Price
	p.CompareAtPrice = decimal.NullDecimal{}
	if in.CompareAtPrice != nil {
		p.CompareAtPrice = decimal.NewNullDecimal(*in.CompareAtPrice)
	}
	p.Image = in.Image
	p.Images = models.StringList(in.Images)
	p.Category = in.Category
	if in.Status != "" {
		p.Status = models.ProductStatus(in.Status)
	}
	if p.Status == "" {
		p.Status = models.StatusAvailable
	}
	p.Rating = in.Rating
	p.Reviews = in.Reviews
	p.SKU = in.SKU
	p.Sizes = models.StringList(in.Sizes)
	if len(p.Sizes) == 0 {
		p.Sizes = models.StringList{models.DefaultSize}
	}
	p.Colors = models.StringList(in.Colors)
	if len(p.Colors) == 0 {
		p.Colors = models.StringList{models.DefaultColor}
	}
	p.Tags = models.StringList(in.Tags)
	p.Featured = in.Featured
	p.TrackInventory = in.TrackInventory
	if p.Image == "" && len(p.Images) > 0 {
		p.Image = p.Images[0]
	}
}

// Create stores a new product and its variant matrix.
func (s *ProductService) Create(ctx context.Context, in ProductInput) (models.Product, error) {
	var p models.Product
	in.apply(&p)
	p.Variants = VariantMatrix(p.Sizes, p.Colors, in.Stock, p.TrackInventory)

	if err := s.products.Create(ctx, &p); err != nil {
		return models.Product{}, fmt.Errorf("create product: %w", err)
	}
	s.forgetFeatured(ctx)
	logger.WithCtx(ctx).Info("product created", "product_id", p.ID, "variants", len(p.Variants))
	return p, nil
}

// Update overwrites the product's fields. The stock matrix is replaced
// when variants are given or when the size or color options changed.
func (s *ProductService) Update(ctx context.Context, id string, in ProductInput) (models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return p, err
	}
	oldSizes, oldColors := p.Sizes, p.Colors
	in.apply(&p)

	var variants []models.ProductVariant
	switch {
	case len(in.Variants) > 0:
		variants = make([]models.ProductVariant, 0, len(in.Variants))
		for _, v := range in.Variants {
			variants = append(variants, models.ProductVariant{Size: v.Size, Color: v.Color, Stock: v.Stock})
		}
	case !sameList(oldSizes, p.Sizes) || !sameList(oldColors, p.Colors):
		total := in.Stock
		if total == 0 {
			total = p.TotalStock()
		}
		variants = VariantMatrix(p.Sizes, p.Colors, total, p.TrackInventory)
	}

	p.Variants = nil
	if err := s.products.Update(ctx, &p, variants); err != nil {
		return models.Product{}, fmt.Errorf("update product: %w", err)
	}
	s.forgetFeatured(ctx)
	return s.products.FindByID(ctx, id)
}

func sameList(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.forgetFeatured(ctx)
	return nil
}

// BulkStatus sets status on every listed product.
func (s *ProductService) BulkStatus(ctx context.Context, ids []string, status models.ProductStatus) (int64, error) {
	if !status.Valid() {
		return 0, fmt.Errorf("invalid product status %q", status)
	}
	n, err := s.products.SetStatus(ctx, ids, status)
	if err == nil {
		s.forgetFeatured(ctx)
	}
	return n, err
}

// LowStock lists tracked products at or under threshold.
func (s *ProductService) LowStock(ctx context.Context, threshold int) ([]models.Product, error) {
	return s.products.LowStock(ctx, threshold)
}

// UploadImage stores an image under products/ and returns its public URL
// exactly as the disk reports it.
func (s *ProductService) UploadImage(ctx context.Context, filename, contentType string, size int64, r io.Reader) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return "", ErrInvalidImage
	}
	if size > MaxImageBytes {
		return "", ErrImageTooBig
	}

	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	key := fmt.Sprintf("products/%d-%s%s", time.Now().UnixMilli(), uuid.NewString()[:8], ext)

	if err := s.disk.Put(ctx, key, io.LimitReader(r, MaxImageBytes+1), mediaType); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return s.disk.URL(key), nil
}
