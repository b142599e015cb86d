package services

import (
	"context"
	"fmt"

	"github.com/bytekstore/bytek/pkg/logger"
)

// StockDigest mails the admin the products running low.
type StockDigest struct {
	products  *ProductService
	notify    *NotificationService
	threshold int
}

func NewStockDigest(products *ProductService, notify *NotificationService, threshold int) *StockDigest {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	return &StockDigest{products: products, notify: notify, threshold: threshold}
}

// Run sends one digest. It returns how many products were listed.
func (d *StockDigest) Run(ctx context.Context) (int, error) {
	low, err := d.products.LowStock(ctx, d.threshold)
	if err != nil {
		return 0, fmt.Errorf("low stock digest: %w", err)
	}
	if err := d.notify.SendLowStock(ctx, low, d.threshold); err != nil {
		return 0, err
	}
	return len(low), nil
}

// Task adapts Run to the scheduler.
func (d *StockDigest) Task(ctx context.Context) {
	n, err := d.Run(ctx)
	if err != nil {
		logger.WithCtx(ctx).Error("low stock digest failed", "error", err)
		return
	}
	logger.WithCtx(ctx).Info("low stock digest", "products", n)
}
