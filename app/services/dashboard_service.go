package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bytekstore/bytek/app/models"
	"github.com/bytekstore/bytek/app/repositories"
	"github.com/bytekstore/bytek/pkg/collection"
)

const (
	dashboardWindow = 100
	recentOrders    = 5
	chartDays       = 30
)

// DefaultLowStockThreshold is the total stock at or below which a product
// is flagged when LOW_STOCK_THRESHOLD is unset.
const DefaultLowStockThreshold = 5

type DailyRevenue struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

type LowStockItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Stock    int    `json:"stock"`
}

type Dashboard struct {
	TotalOrders     int             `json:"total_orders"`
	PendingOrders   int             `json:"pending_orders"`
	ConfirmedOrders int             `json:"confirmed_orders"`
	DeliveredOrders int             `json:"delivered_orders"`
	Revenue         decimal.Decimal `json:"revenue"`
	ProductCount    int64           `json:"product_count"`
	LowStock        []LowStockItem  `json:"low_stock"`
	RecentOrders    []models.Order  `json:"recent_orders"`
	Daily           []DailyRevenue  `json:"daily_revenue"`
}

type DashboardService struct {
	orders   *repositories.OrderRepository
	products *repositories.ProductRepository
	lowStock int
	now      func() time.Time
}

func NewDashboardService(orders *repositories.OrderRepository, products *repositories.ProductRepository, lowStock int) *DashboardService {
	if lowStock <= 0 {
		lowStock = DefaultLowStockThreshold
	}
	return &DashboardService{orders: orders, products: products, lowStock: lowStock, now: time.Now}
}

// Summary computes the admin landing page from the latest 100 orders.
func (s *DashboardService) Summary(ctx context.Context) (Dashboard, error) {
	orders, err := s.orders.Recent(ctx, dashboardWindow)
	if err != nil {
		return Dashboard{}, fmt.Errorf("dashboard orders: %w", err)
	}
	count, err := s.products.Count(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("dashboard products: %w", err)
	}
	low, err := s.products.LowStock(ctx, s.lowStock)
	if err != nil {
		return Dashboard{}, fmt.Errorf("dashboard low stock: %w", err)
	}

	d := Summarize(orders, s.now())
	d.ProductCount = count
	d.LowStock = collection.Map(low, func(p models.Product) LowStockItem {
		return LowStockItem{ID: p.ID, Name: p.Name, Category: p.Category, Stock: p.TotalStock()}
	})
	return d, nil
}

// Summarize derives the order figures. orders must be newest first.
// Revenue counts delivered orders; the chart counts everything not
// cancelled.
func Summarize(orders []models.Order, now time.Time) Dashboard {
	d := Dashboard{TotalOrders: len(orders), Revenue: decimal.Zero}

	days := make([]DailyRevenue, chartDays)
	index := make(map[string]int, chartDays)
	today := now.UTC().Truncate(24 * time.Hour)
	for i := range days {
		date := today.AddDate(0, 0, i-(chartDays-1)).Format(time.DateOnly)
		days[i] = DailyRevenue{Date: date, Revenue: decimal.Zero}
		index[date] = i
	}

	for _, o := range orders {
		switch o.Status {
		case models.OrderPending:
			d.PendingOrders++
		case models.OrderConfirmed:
			d.ConfirmedOrders++
		case models.OrderDelivered:
			d.DeliveredOrders++
			d.Revenue = d.Revenue.Add(o.Total)
		}
		if o.Status == models.OrderCancelled {
			continue
		}
		if i, ok := index[o.CreatedAt.UTC().Format(time.DateOnly)]; ok {
			days[i].Revenue = days[i].Revenue.Add(o.Total)
			days[i].Orders++
		}
	}

	d.RecentOrders = orders[:min(recentOrders, len(orders))]
	d.Daily = days
	return d
}
