package kernel_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bytekstore/bytek/app/cart"
	"github.com/bytekstore/bytek/app/checkout"
	"github.com/bytekstore/bytek/app/models"
	"github.com/bytekstore/bytek/app/services"
	"github.com/bytekstore/bytek/internal/kernel"
	"github.com/bytekstore/bytek/pkg/mail"
	"github.com/bytekstore/bytek/pkg/migration"
	"github.com/bytekstore/bytek/pkg/queue"
	"github.com/bytekstore/bytek/pkg/session"
	"github.com/bytekstore/bytek/pkg/storage"
	"github.com/bytekstore/bytek/pkg/testkit"

	_ "github.com/bytekstore/bytek/database/migrations"
)

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

type harness struct {
	t     *testing.T
	k     *kernel.Kernel
	h     http.Handler
	clock *clock
	disk  *storage.LocalDisk
}

func newHarness(t *testing.T) *harness {
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

	_, err = migration.New(db, nil).Run()
	require.NoError(t, err)

	c := &clock{now: time.Date(2026, 5, 2, 9, 30, 0, 0, time.UTC)}
	disk := storage.NewLocalDisk(t.TempDir(), "http://cdn.test")
	k, err := kernel.New(db, kernel.Options{
		CartStore:         cart.NewMemoryStore(),
		QueueDriver:       queue.NewMemoryDriver(),
		Failures:          queue.NewMemoryFailureStore(),
		Disk:              disk,
		Mailer:            mail.LogMailer{},
		MailFrom:          "ByteK Store <orders@bytekstore.com>",
		AppURL:            "http://shop.test",
		TrackingURL:       "https://suivi.ecotrack.dz/?tracking=",
		AdminEmail:        "admin@bytekstore.com",
		FormSecret:        "kernel-test-secret",
		MinDwell:          5 * time.Second,
		StockPolicy:       services.StockReserve,
		LowStockThreshold: 5,
		RateLimit:         1000,
		Now:               c.Now,
	})
	require.NoError(t, err)

	h, err := k.Handler()
	require.NoError(t, err)
	return &harness{t: t, k: k, h: h, clock: c, disk: disk}
}

type reply struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

func (h *harness) do(method, path, visitor string, body any) (int, reply) {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if visitor != "" {
		req.Header.Set(session.Header, visitor)
	}
	rec := httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)

	var r reply
	if rec.Body.Len() > 0 {
		require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &r), rec.Body.String())
	}
	return rec.Code, r
}

func (h *harness) product(price int64, stock int) models.Product {
	h.t.Helper()
	p, err := h.k.Products.Create(context.Background(), services.ProductInput{
		Name:           "Pulsar X2",
		Price:          decimal.NewFromInt(price),
		Category:       models.CategoryMice,
		TrackInventory: true,
		Stock:          stock,
	})
	require.NoError(h.t, err)
	return p
}

// startCheckout puts qty of p in the visitor's cart and returns a fresh
// form token.
func (h *harness) startCheckout(visitor string, p models.Product, qty int) string {
	h.t.Helper()
	code, _ := h.do(http.MethodPost, "/api/cart/items", visitor, map[string]any{"product_id": p.ID, "quantity": qty})
	require.Equal(h.t, http.StatusOK, code)

	code, r := h.do(http.MethodPost, "/api/checkout/session", visitor, nil)
	require.Equal(h.t, http.StatusCreated, code)
	var fs services.FormSession
	require.NoError(h.t, json.Unmarshal(r.Data, &fs))
	return fs.Token
}

func order(token string) checkout.Input {
	return checkout.Input{
		FullName:  "Yacine Benali",
		Phone:     "0551 23 45 67",
		Address:   "12 Rue Didouche Mourad",
		City:      "Alger Centre",
		RegionID:  16,
		Mode:      "home",
		FormToken: token,
	}
}

func TestCheckoutEndToEnd(t *testing.T) {
	h := newHarness(t)
	p := h.product(5000, 10)
	active := true
	_, err := h.k.Shipping.SaveRates(context.Background(), []services.RateInput{{
		RegionID: 16, HomeDeliveryCost: decimal.NewFromInt(800), PickupDeskCost: decimal.NewFromInt(400), Active: &active,
	}})
	require.NoError(t, err)

	visitor := "6f1c2a9e-3b7d-4c1e-9a57-0d2f4b8e1c33"
	token := h.startCheckout(visitor, p, 2)

	code, r := h.do(http.MethodGet, "/api/checkout/quote?wilaya_id=16&mode=home", visitor, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(r.Data), `"shipping_cost":"800"`)

	h.clock.Advance(6 * time.Second)
	code, r = h.do(http.MethodPost, "/api/checkout", visitor, order(token))
	require.Equal(t, http.StatusCreated, code, r.Message)

	var placed models.Order
	require.NoError(t, json.Unmarshal(r.Data, &placed))
	assert.True(t, placed.Total.Equal(decimal.NewFromInt(10800)), placed.Total.String())
	assert.Equal(t, models.OrderPending, placed.Status)
	assert.Equal(t, "0551234567", placed.CustomerPhone)

	code, r = h.do(http.MethodGet, "/api/cart", visitor, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(r.Data), `"total_items":0`)

	code, r = h.do(http.MethodGet, "/api/track/"+placed.OrderNumber, "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(r.Data), placed.OrderNumber)
}

func TestCheckoutRejectsBots(t *testing.T) {
	h := newHarness(t)
	p := h.product(3000, 10)

	visitor := "0b7f9d2e-1a3c-4e5f-8a6b-7c8d9e0f1a2b"
	token := h.startCheckout(visitor, p, 1)

	h.clock.Advance(2 * time.Second)
	code, r := h.do(http.MethodPost, "/api/checkout", visitor, order(token))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, checkout.DwellMessage, r.Message)

	h.clock.Advance(10 * time.Second)
	in := order(token)
	in.Website = "http://spam.example"
	code, r = h.do(http.MethodPost, "/api/checkout", visitor, in)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, checkout.GenericMessage, r.Message)

	var n int64
	h.k.DB.Model(&models.Order{}).Count(&n)
	assert.Zero(t, n)
}

func TestAdminRequiresToken(t *testing.T) {
	h := newHarness(t)

	code, _ := h.do(http.MethodGet, "/api/admin/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	_, err := h.k.Auth.CreateAdmin(context.Background(), "Admin", "admin@bytekstore.com", "s3cret-pass")
	require.NoError(t, err)

	code, r := h.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "admin@bytekstore.com", "password": "s3cret-pass",
	})
	require.Equal(t, http.StatusOK, code, r.Message)
	var login services.LoginResult
	require.NoError(t, json.Unmarshal(r.Data, &login))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec := httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_orders":0`)
}

func TestHealthAndGraphQL(t *testing.T) {
	h := newHarness(t)
	h.product(4200, 3)

	code, _ := h.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)

	req := httptest.NewRequest(http.MethodPost, "/graphql",
		strings.NewReader(`{"query":"{ products { name price inStock } }"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Pulsar X2"`)
	assert.Contains(t, rec.Body.String(), `"price":"4200"`)
}

func TestStorageServesOnlyProductFiles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// a cart written to the public disk must still not be reachable
	visitor := "11111111-2222-3333-4444-555555555555"
	c, err := cart.Open(ctx, cart.NewDiskStore(h.disk), visitor)
	require.NoError(t, err)
	require.NoError(t, c.Add(ctx, cart.Product{ID: "p1", Name: "Pulsar X2", Price: decimal.NewFromInt(100)}, 1, "One Size", "Black"))
	require.NoError(t, h.disk.Put(ctx, "products/mouse.png", strings.NewReader("png"), "image/png"))

	for _, path := range []string{"/storage/", "/storage/carts/", "/storage/carts/" + visitor + ".json", "/storage/products/"} {
		rec := httptest.NewRecorder()
		h.h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.NotEqual(t, http.StatusOK, rec.Code, path)
		assert.NotContains(t, rec.Body.String(), visitor, path)
	}

	rec := httptest.NewRecorder()
	h.h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/storage/products/mouse.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIScenarios(t *testing.T) {
	h := newHarness(t)
	testkit.RunDir(t, h.h, "testdata")
}
