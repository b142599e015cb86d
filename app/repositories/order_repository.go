package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/bytekstore/bytek/app/models"
	"github.com/bytekstore/bytek/pkg/orm"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderFilter narrows the admin order list.
type OrderFilter struct {
	Status  models.OrderStatus
	Search  string // order number, customer name or phone
	Page    int
	PerPage int
}

// OrderRepository handles database operations for orders.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// DB exposes the handle so services can open the order transaction.
func (r *OrderRepository) DB() *gorm.DB { return r.db }

// Create inserts o using tx, or the repository's handle when tx is nil.
func (r *OrderRepository) Create(ctx context.Context, tx *gorm.DB, o *models.Order) error {
	if tx == nil {
		tx = r.db
	}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&o).Error
	if orm.NotFound(err) {
		return o, ErrOrderNotFound
	}
	return o, err
}

// FindByNumber looks up an order by its public number.
func (r *OrderRepository) FindByNumber(ctx context.Context, number string) (models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).Where("order_number = ?", number).First(&o).Error
	if orm.NotFound(err) {
		return o, ErrOrderNotFound
	}
	return o, err
}

// List returns orders newest first.
func (r *OrderRepository) List(ctx context.Context, f OrderFilter) ([]models.Order, orm.Page, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Search != "" {
		like := orm.Like(f.Search)
		q = q.Where("LOWER(order_number) LIKE ? OR LOWER(customer_name) LIKE ? OR customer_phone LIKE ?", like, like, like)
	}

	var orders []models.Order
	page, err := orm.Paginate(ctx, q.Order("created_at DESC"), f.Page, f.PerPage, &orders)
	if err != nil {
		return nil, orm.Page{}, fmt.Errorf("list orders: %w", err)
	}
	return orders, page, nil
}

// Recent returns the latest limit orders.
func (r *OrderRepository) Recent(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&orders).Error
	return orders, err
}

// Update writes the given columns on one order.
func (r *OrderRepository) Update(ctx context.Context, id string, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update order: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Order{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}
