// Package kernel wires the store: backing services, domain services,
// event listeners and the HTTP handler.
//
//	k, err := kernel.Boot(ctx)
//	h, err := k.Handler()
//	k.Start(ctx)
//	server.Run(ctx, h, server.Options{Port: config.AppPort()})
package kernel

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/bytekstore/bytek/app/cart"
	"github.com/bytekstore/bytek/app/checkout"
	"github.com/bytekstore/bytek/app/controllers"
	"github.com/bytekstore/bytek/app/graph"
	"github.com/bytekstore/bytek/app/notifications"
	"github.com/bytekstore/bytek/app/repositories"
	"github.com/bytekstore/bytek/app/routes"
	"github.com/bytekstore/bytek/app/services"
	"github.com/bytekstore/bytek/config"
	"github.com/bytekstore/bytek/pkg/cache"
	"github.com/bytekstore/bytek/pkg/database"
	"github.com/bytekstore/bytek/pkg/event"
	"github.com/bytekstore/bytek/pkg/graphql"
	"github.com/bytekstore/bytek/pkg/logger"
	"github.com/bytekstore/bytek/pkg/mail"
	"github.com/bytekstore/bytek/pkg/metrics"
	"github.com/bytekstore/bytek/pkg/middleware"
	"github.com/bytekstore/bytek/pkg/notification"
	"github.com/bytekstore/bytek/pkg/queue"
	"github.com/bytekstore/bytek/pkg/reqid"
	"github.com/bytekstore/bytek/pkg/response"
	"github.com/bytekstore/bytek/pkg/router"
	"github.com/bytekstore/bytek/pkg/session"
	"github.com/bytekstore/bytek/pkg/sse"
	"github.com/bytekstore/bytek/pkg/storage"
	"github.com/bytekstore/bytek/pkg/workerpool"
	"github.com/bytekstore/bytek/pkg/ws"
)

// Options are the knobs New needs. OptionsFromConfig reads them from the
// environment; tests build them by hand.
type Options struct {
	CartStore   cart.Store
	QueueDriver queue.Driver
	Failures    queue.FailureStore
	Disk        storage.Disk
	Mailer      mail.Mailer

	MailFrom          string
	AppURL            string
	TrackingURL       string
	AdminEmail        string
	FormSecret        string
	MinDwell          time.Duration
	StockPolicy       string
	LowStockThreshold int
	CORSOrigins       string
	SecureCookies     bool
	RateLimit         int

	// InlineWorkers runs queue workers inside the web process. Required
	// with the memory queue driver, which another process cannot read.
	InlineWorkers int

	// Now overrides the checkout and form-token clock.
	Now func() time.Time
}

// OptionsFromConfig resolves drivers from config. Redis-backed drivers
// need cache.Connect to have succeeded; otherwise they fall back to
// local ones.
func OptionsFromConfig(db *gorm.DB) Options {
	o := Options{
		Failures:          queue.NewDBFailureStore(db),
		Disk:              storage.Default(),
		Mailer:            mail.FromConfig(),
		MailFrom:          config.MailFrom(),
		AppURL:            config.AppURL(),
		TrackingURL:       config.TrackingURL(),
		AdminEmail:        config.AdminEmail(),
		FormSecret:        config.JWTSecret(),
		MinDwell:          config.CheckoutMinDwell(),
		StockPolicy:       config.StockPolicy(),
		LowStockThreshold: config.LowStockThreshold(),
		CORSOrigins:       config.Get("CORS_ORIGINS", ""),
		SecureCookies:     config.AppEnv() == "production",
		RateLimit:         200,
	}

	o.CartStore = cart.NewDiskStore(storage.NewLocalDisk(config.CartDir(), ""))
	if config.CartStore() == "redis" {
		if cache.Available() {
			o.CartStore = cart.NewRedisStore(cache.RDB, config.CartTTL())
		} else {
			logger.Warn("kernel: CART_STORE=redis but redis is down, using disk carts")
		}
	}

	o.QueueDriver = queue.NewMemoryDriver()
	o.InlineWorkers = 2
	if config.QueueDriver() == "redis" {
		if cache.Available() {
			o.QueueDriver = queue.NewRedisDriver(cache.RDB)
			o.InlineWorkers = 0
		} else {
			logger.Warn("kernel: QUEUE_DRIVER=redis but redis is down, using in-process queue")
		}
	}
	return o
}

// Kernel holds the wired application.
type Kernel struct {
	DB      *gorm.DB
	Events  *event.Bus
	Queue   *queue.Manager
	Hub     *ws.Hub
	Stream  *sse.Broker
	options Options

	Auth      *services.AuthService
	Products  *services.ProductService
	Shipping  *services.ShippingService
	Carts     *services.CartService
	Checkout  *services.CheckoutService
	Orders    *services.OrderService
	Dashboard *services.DashboardService
	Notify    *services.NotificationService
	Digest    *services.StockDigest
}

// Boot loads config, connects the database, Redis and storage, then wires
// the application.
func Boot(ctx context.Context) (*Kernel, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger.AttachMongo()

	if err := database.Connect(); err != nil {
		return nil, err
	}
	if config.CartStore() == "redis" || config.QueueDriver() == "redis" || config.Get("REDIS_ADDR", "") != "" {
		if err := cache.Connect(ctx); err != nil {
			logger.Warn("kernel: redis unavailable", "error", err)
		}
	}
	storage.Connect()

	return New(database.DB, OptionsFromConfig(database.DB))
}

// New wires every service over db.
func New(db *gorm.DB, o Options) (*Kernel, error) {
	notifier, err := notifications.New(o.AppURL, o.TrackingURL)
	if err != nil {
		return nil, fmt.Errorf("notifications: %w", err)
	}
	if o.Failures == nil {
		o.Failures = queue.NewMemoryFailureStore()
	}
	if o.Mailer == nil {
		o.Mailer = mail.LogMailer{}
	}

	k := &Kernel{
		DB:      db,
		Events:  event.NewBus(event.WithPool(workerpool.New(8))),
		Stream:  sse.NewBroker(),
		options: o,
	}
	k.Queue = queue.New(o.QueueDriver,
		queue.WithFailureStore(o.Failures),
		queue.WithHook(func(typeName string, err error) {
			status := "done"
			if err != nil {
				status = "failed"
			}
			metrics.QueueJobs.WithLabelValues(typeName, status).Inc()
		}),
	)
	cors := middleware.CORSFromList(o.CORSOrigins)
	k.Hub = ws.NewHub(func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || cors.Allows(origin)
	})

	products := repositories.NewProductRepository(db)
	orders := repositories.NewOrderRepository(db)
	users := repositories.NewUserRepository(db)
	rates := repositories.NewShippingRateRepository(db)

	gate := checkout.NewGate(o.FormSecret, o.MinDwell)
	if o.Now != nil {
		gate.WithClock(o.Now)
	}

	k.Auth = services.NewAuthService(users)
	k.Products = services.NewProductService(products, o.Disk)
	k.Shipping = services.NewShippingService(rates)
	k.Carts = services.NewCartService(cart.NewLocker(o.CartStore), products, k.Products)
	k.Checkout = services.NewCheckoutService(gate, k.Carts, k.Shipping, orders, products, k.Events, o.StockPolicy)
	if o.Now != nil {
		k.Checkout.WithClock(o.Now)
	}
	k.Orders = services.NewOrderService(orders, k.Events, o.TrackingURL)
	k.Dashboard = services.NewDashboardService(orders, products, o.LowStockThreshold)
	k.Notify = services.NewNotificationService(notifier, notification.NewSender(o.Mailer, o.MailFrom),
		orders, users, k.Queue, o.AdminEmail)
	k.Digest = services.NewStockDigest(k.Products, k.Notify, o.LowStockThreshold)

	k.listen()
	return k, nil
}

// listen attaches the event listeners. Mail goes through the queue; both
// admin feeds get every order event.
func (k *Kernel) listen() {
	k.Events.Listen(services.EventOrderPlaced, k.Notify.OnOrderPlaced)
	for _, name := range []string{services.EventOrderPlaced, services.EventOrderUpdated} {
		k.Events.Listen(name, func(_ context.Context, payload any) {
			k.Hub.Publish(name, payload)
			k.Stream.Publish(name, payload)
		})
	}
}

// Start runs the websocket hub and, when configured, in-process queue
// workers. Both stop with ctx.
func (k *Kernel) Start(ctx context.Context) {
	go k.Hub.Run(ctx)
	if k.options.InlineWorkers > 0 {
		k.Queue.Start(ctx, k.options.InlineWorkers)
	}
}

// Controllers builds the HTTP controllers.
func (k *Kernel) Controllers() *routes.Controllers {
	return &routes.Controllers{
		Auth:          controllers.NewAuthController(k.Auth),
		Catalog:       controllers.NewCatalogController(k.Products, k.Shipping),
		Cart:          controllers.NewCartController(k.Carts),
		Checkout:      controllers.NewCheckoutController(k.Checkout),
		Track:         controllers.NewTrackController(k.Orders),
		AdminProducts: controllers.NewAdminProductController(k.Products, k.options.LowStockThreshold),
		AdminOrders:   controllers.NewAdminOrderController(k.Orders),
		AdminShipping: controllers.NewAdminShippingController(k.Shipping),
		Dashboard:     controllers.NewDashboardController(k.Dashboard),
		OrderFeed:     k.Hub.Serve,
		OrderStream:   k.Stream.Serve,
	}
}

// publicPrefixes are the storage folders served under /storage.
var publicPrefixes = []string{"products/"}

// Handler builds the router with the global middleware stack.
func (k *Kernel) Handler() (http.Handler, error) {
	schema, err := graph.NewSchema(k.Products, k.Shipping)
	if err != nil {
		return nil, fmt.Errorf("graphql schema: %w", err)
	}

	r := router.New()
	Middleware(r, k.options)

	r.Handle("/metrics", "metrics", metrics.Handler())
	r.Get("/healthz", "health", k.health)
	r.Handle("/graphql", "graphql", graphql.Handler(schema))
	if ld, ok := k.options.Disk.(*storage.LocalDisk); ok {
		r.Handle("/storage/*", "storage", http.StripPrefix("/storage/", ld.PublicHandler(publicPrefixes...)))
	}

	routes.RegisterAPI(r, k.Controllers())
	return r.Handler(), nil
}

// Middleware installs the global stack, outermost first: metrics for
// total latency, recovery, request id before anything logs, the request
// logger, the visitor session, CORS, then the rate limiter.
func Middleware(r *router.Router, o Options) {
	sess := session.DefaultOptions()
	sess.Secure = o.SecureCookies
	limit := o.RateLimit
	if limit <= 0 {
		limit = 200
	}

	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(session.Middleware(sess))
	r.Use(middleware.CORS(middleware.CORSFromList(o.CORSOrigins)))
	r.Use(middleware.RateLimit(limit, time.Minute))
}

func (k *Kernel) health(w http.ResponseWriter, r *http.Request) {
	if err := k.Ping(r.Context()); err != nil {
		response.Error(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	response.Success(w, map[string]string{"status": "ok"})
}

// Ping checks the database. The gRPC health service polls it too.
func (k *Kernel) Ping(ctx context.Context) error {
	sqlDB, err := k.DB.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// Close waits for in-flight event listeners, then releases process-wide
// connections.
func (k *Kernel) Close() {
	k.Events.Close()
	if cache.RDB != nil {
		_ = cache.RDB.Close()
	}
	if err := database.Close(); err != nil {
		logger.Warn("kernel: close database", "error", err)
	}
	logger.Close()
}
