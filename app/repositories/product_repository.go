package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bytekstore/bytek/app/models"
	"github.com/bytekstore/bytek/pkg/collection"
	"github.com/bytekstore/bytek/pkg/orm"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOutOfStock      = errors.New("not enough stock for the selected variant")
)

// Sort keys accepted by the catalog.
const (
	SortNameAsc    = "name-asc"
	SortNameDesc   = "name-desc"
	SortPriceAsc   = "price-asc"
	SortPriceDesc  = "price-desc"
	SortRatingDesc = "rating-desc"
)

var sortColumns = map[string]string{
	SortNameAsc:    "name ASC",
	SortNameDesc:   "name DESC",
	SortPriceAsc:   "price ASC",
	SortPriceDesc:  "price DESC",
	SortRatingDesc: "rating DESC",
}

// ProductFilter narrows a catalog listing. Zero values mean "any".
type ProductFilter struct {
	Category        string
	Search          string
	MinPrice        *decimal.Decimal
	MaxPrice        *decimal.Decimal
	Stock           string // "in", "out" or ""
	Status          models.ProductStatus
	Featured        bool
	IncludeArchived bool
	Sort            string
	Page            int
	PerPage         int
}

const stockSum = "(SELECT COALESCE(SUM(v.stock), 0) FROM product_variants v WHERE v.product_id = products.id)"

// ProductRepository handles database operations for products and their
// variant stock.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) scoped(ctx context.Context, f ProductFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Product{})

	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	} else if !f.IncludeArchived {
		q = q.Where("status <> ?", models.StatusArchived)
	}
	if f.Search != "" {
		like := orm.Like(f.Search)
		q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(tags) LIKE ?", like, like, like)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	switch f.Stock {
	case "in":
		q = q.Where(stockSum + " > 0")
	case "out":
		q = q.Where(stockSum + " = 0")
	}
	if f.Featured {
		q = q.Where("featured = ?", true)
	}
	return q
}

// SortClause maps a sort key to ORDER BY, defaulting to rating.
func SortClause(key string) string {
	if col, ok := sortColumns[key]; ok {
		return col
	}
	return sortColumns[SortRatingDesc]
}

// List returns one page of products with their variants.
func (r *ProductRepository) List(ctx context.Context, f ProductFilter) ([]models.Product, orm.Page, error) {
	var products []models.Product
	q := r.scoped(ctx, f).Order(SortClause(f.Sort)).Order("created_at DESC")
	page, err := orm.Paginate(ctx, q, f.Page, f.PerPage, &products)
	if err != nil {
		return nil, orm.Page{}, fmt.Errorf("list products: %w", err)
	}
	if err := r.attachVariants(ctx, products); err != nil {
		return nil, orm.Page{}, err
	}
	return products, page, nil
}

// attachVariants loads variants for a page in one query.
func (r *ProductRepository) attachVariants(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	var variants []models.ProductVariant
	if err := r.db.WithContext(ctx).Where("product_id IN ?", ids).Order("size, color").Find(&variants).Error; err != nil {
		return fmt.Errorf("load variants: %w", err)
	}
	byProduct := make(map[string][]models.ProductVariant, len(products))
	for _, v := range variants {
		byProduct[v.ProductID] = append(byProduct[v.ProductID], v)
	}
	for i := range products {
		products[i].Variants = byProduct[products[i].ID]
	}
	return nil
}

// All returns every product matching f without paging.
func (r *ProductRepository) All(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	var products []models.Product
	err := r.scoped(ctx, f).Preload("Variants").Order(SortClause(f.Sort)).Order("created_at DESC").Find(&products).Error
	return products, err
}

// Featured returns up to limit featured, non-archived products.
func (r *ProductRepository) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.scoped(ctx, ProductFilter{Featured: true}).
		Preload("Variants").Order("rating DESC").Limit(limit).Find(&products).Error
	return products, err
}

// FindByID loads one product with variants.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).Preload("Variants").Where("id = ?", id).First(&p).Error
	if orm.NotFound(err) {
		return p, ErrProductNotFound
	}
	return p, err
}

// FindMany loads the given ids, keyed by id. Missing ids are absent.
func (r *ProductRepository) FindMany(ctx context.Context, ids []string) (map[string]models.Product, error) {
	out := make(map[string]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var products []models.Product
	if err := r.db.WithContext(ctx).Preload("Variants").Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return collection.KeyBy(products, func(p models.Product) string { return p.ID }), nil
}

// Create inserts p and its variants.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// Update saves p's columns and replaces its variant matrix when variants
// is non-nil. Last write wins.
func (r *ProductRepository) Update(ctx context.Context, p *models.Product, variants []models.ProductVariant) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Variants", "CreatedAt").Save(p).Error; err != nil {
			return err
		}
		if variants == nil {
			return nil
		}
		if err := tx.Where("product_id = ?", p.ID).Delete(&models.ProductVariant{}).Error; err != nil {
			return err
		}
		for i := range variants {
			variants[i].ID = ""
			variants[i].ProductID = p.ID
		}
		if len(variants) > 0 {
			if err := tx.Create(&variants).Error; err != nil {
				return err
			}
		}
		p.Variants = variants
		return nil
	})
}

// Delete removes a product and its variants.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductVariant{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Product{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrProductNotFound
		}
		return nil
	})
}

// SetStatus changes status on every listed product and returns how many
// rows changed.
func (r *ProductRepository) SetStatus(ctx context.Context, ids []string, status models.ProductStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id IN ?", ids).Update("status", status)
	return res.RowsAffected, res.Error
}

// LowStock returns tracked, non-archived products whose total stock is at
// most threshold, lowest first.
func (r *ProductRepository) LowStock(ctx context.Context, threshold int) ([]models.Product, error) {
	var products []models.Product
	err := r.scoped(ctx, ProductFilter{}).
		Where("track_inventory = ?", true).
		Where(stockSum+" <= ?", threshold).
		Preload("Variants").
		Order(stockSum + " ASC").
		Find(&products).Error
	return products, err
}

// Count returns the number of non-archived products.
func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.scoped(ctx, ProductFilter{}).Count(&n).Error
	return n, err
}

// DecrementStock takes qty units from one variant only if that many are
// left. Run it inside the order transaction. The guard lives in the UPDATE
// so concurrent checkouts cannot both take the last unit.
func (r *ProductRepository) DecrementStock(ctx context.Context, tx *gorm.DB, productID, size, color string, qty int) error {
	if tx == nil {
		tx = r.db
	}
	res := tx.WithContext(ctx).Model(&models.ProductVariant{}).
		Where("product_id = ? AND size = ? AND color = ? AND stock >= ?", productID, size, color, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("decrement stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrOutOfStock
	}
	return nil
}
