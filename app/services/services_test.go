package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bytekstore/bytek/app/cart"
	"github.com/bytekstore/bytek/app/checkout"
	"github.com/bytekstore/bytek/app/models"
	"github.com/bytekstore/bytek/app/repositories"
	"github.com/bytekstore/bytek/pkg/event"
	"github.com/bytekstore/bytek/pkg/mail"
	"github.com/bytekstore/bytek/pkg/storage"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.ProductVariant{},
		&models.Order{}, &models.ShippingRate{}, &models.User{}))
	return db
}

// clock is a settable time source shared by the gate and the services.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// shop wires every service over one database, the way the kernel does.
type shop struct {
	db       *gorm.DB
	clock    *clock
	bus      *event.Bus
	products *repositories.ProductRepository
	orders   *repositories.OrderRepository
	catalog  *ProductService
	shipping *ShippingService
	carts    *CartService
	checkout *CheckoutService
	order    *OrderService
}

func newShop(t *testing.T, stockPolicy string) *shop {
	t.Helper()
	db := testDB(t)
	s := &shop{
		db:       db,
		clock:    &clock{now: time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)},
		bus:      event.NewBus(),
		products: repositories.NewProductRepository(db),
		orders:   repositories.NewOrderRepository(db),
	}
	s.catalog = NewProductService(s.products, storage.NewLocalDisk(t.TempDir(), "http://cdn.test"))
	s.shipping = NewShippingService(repositories.NewShippingRateRepository(db))
	s.carts = NewCartService(cart.NewLocker(cart.NewMemoryStore()), s.products, s.catalog)
	gate := checkout.NewGate("test-secret", 5*time.Second).WithClock(s.clock.Now)
	s.checkout = NewCheckoutService(gate, s.carts, s.shipping, s.orders, s.products, s.bus, stockPolicy)
	s.checkout.now = s.clock.Now
	s.order = NewOrderService(s.orders, s.bus, "https://suivi.ecotrack.dz/?tracking=")
	return s
}

func (s *shop) product(t *testing.T, name string, price int64, tracked bool, stock int, colors ...string) models.Product {
	t.Helper()
	p, err := s.catalog.Create(context.Background(), ProductInput{
		Name:           name,
		Price:          decimal.NewFromInt(price),
		Category:       models.CategoryMice,
		Colors:         colors,
		TrackInventory: tracked,
		Stock:          stock,
	})
	require.NoError(t, err)
	return p
}

// recordingMailer keeps every message it is asked to send.
type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) Sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}
