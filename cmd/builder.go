package cmd

import (
	"context"
	"fmt"
	"net/http"

	"ecommerce/api"
	apidiscount "ecommerce/api/discount"
	"ecommerce/api/health"
	apiinventory "ecommerce/api/inventory"
	"ecommerce/api/middleware"
	apiorder "ecommerce/api/order"
	appdiscount "ecommerce/application/discount"
	appinventory "ecommerce/application/inventory"
	apporder "ecommerce/application/order"
	"ecommerce/config"
	"ecommerce/domain/catalog"
	"ecommerce/domain/customer"
	"ecommerce/domain/discount"
	"ecommerce/domain/inventory"
	"ecommerce/domain/order"
	"ecommerce/domain/productreturn"
	"ecommerce/domain/shared"
	"ecommerce/infrastructure/idempotency"
	"ecommerce/infrastructure/notification"
	"ecommerce/infrastructure/observability"
	"ecommerce/infrastructure/outbox"
	"ecommerce/infrastructure/payment/vnpay"
	"ecommerce/infrastructure/persistence/mocks"
	"ecommerce/infrastructure/persistence/mysql"
	"ecommerce/infrastructure/persistence/retry"
	"ecommerce/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// outboxStore is what both outbox implementations provide: the write side
// used inside transactions and the relay side used by the worker.
type outboxStore interface {
	shared.OutboxRepository
	outbox.Store
}

// Infra holds the persistence layer chosen by database.type.
type Infra struct {
	DB         *gorm.DB // nil in mock mode
	Orders     order.Repository
	Returns    productreturn.Repository
	Stocks     inventory.Repository
	Discounts  discount.Repository
	Carts      customer.CartProvider
	Addresses  customer.AddressProvider
	Catalog    catalog.ProductCatalog
	Outbox     outboxStore
	UoWFactory shared.UnitOfWorkFactory
}

// AppBuilder wires configuration into repositories, services and controllers.
type AppBuilder struct {
	cfg     *config.Config
	metrics *observability.Metrics
}

func NewBuilder(cfg *config.Config) *AppBuilder {
	return &AppBuilder{cfg: cfg}
}

// WithMetrics enables Prometheus collectors for the services built afterwards.
func (b *AppBuilder) WithMetrics(m *observability.Metrics) *AppBuilder {
	b.metrics = m
	return b
}

// Infra opens the database (mysql) or creates the in-memory store (mock).
func (b *AppBuilder) Infra() (*Infra, error) {
	switch b.cfg.Database.Type {
	case "mysql":
		return b.mysqlInfra()
	case "mock", "":
		return b.mockInfra(), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %q", b.cfg.Database.Type)
	}
}

func (b *AppBuilder) mysqlInfra() (*Infra, error) {
	logger.Info("Using MySQL/GORM persistence layer")

	db, err := mysql.FromAppConfig(b.cfg.Database).Connect()
	if err != nil {
		return nil, err
	}
	if err := mysql.Ping(context.Background(), db); err != nil {
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	outboxRepo := mysql.NewOutboxRepository(db)
	return &Infra{
		DB:         db,
		Orders:     mysql.NewOrderRepository(db),
		Returns:    mysql.NewReturnRepository(db),
		Stocks:     mysql.NewStockRepository(db),
		Discounts:  mysql.NewDiscountRepository(db),
		Carts:      mysql.NewCartRepository(db),
		Addresses:  mysql.NewAddressRepository(db),
		Catalog:    mysql.NewProductRepository(db),
		Outbox:     outboxRepo,
		UoWFactory: mysql.NewUnitOfWorkFactory(db, retry.FromAppConfig(b.cfg)),
	}, nil
}

func (b *AppBuilder) mockInfra() *Infra {
	logger.Warn("Using in-memory persistence layer; data is lost on exit")

	store := mocks.NewStore()
	return &Infra{
		Orders:     mocks.NewOrderRepository(store),
		Returns:    mocks.NewReturnRepository(store),
		Stocks:     mocks.NewStockRepository(store),
		Discounts:  mocks.NewDiscountRepository(store),
		Carts:      mocks.NewCartProvider(store),
		Addresses:  mocks.NewAddressProvider(store),
		Catalog:    mocks.NewProductCatalog(store),
		Outbox:     mocks.NewOutboxRepository(store),
		UoWFactory: mocks.NewUnitOfWorkFactory(store),
	}
}

// Ledger builds the stock ledger on top of infra.
func (b *AppBuilder) Ledger(infra *Infra) *appinventory.Ledger {
	ledger := appinventory.NewLedger(infra.Stocks, infra.UoWFactory)
	if b.metrics != nil {
		ledger.WithMetrics(b.metrics)
	}
	return ledger
}

// Build creates the HTTP application.
func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	logger.Info("Starting application",
		zap.String("app", b.cfg.App.Name),
		zap.String("version", b.cfg.App.Version),
		zap.String("env", b.cfg.App.Env))

	infra, err := b.Infra()
	if err != nil {
		return nil, err
	}

	gateway, err := vnpay.NewGateway(vnpay.FromAppConfig(b.cfg.Payment))
	if err != nil {
		return nil, fmt.Errorf("failed to create payment gateway: %w", err)
	}

	store, rdb, err := b.idempotencyStore(ctx)
	if err != nil {
		return nil, err
	}

	ledger := b.Ledger(infra)
	validator := appdiscount.NewValidator(infra.Discounts)

	deps := apporder.Dependencies{
		Orders:      infra.Orders,
		Returns:     infra.Returns,
		Carts:       infra.Carts,
		Addresses:   infra.Addresses,
		Catalog:     infra.Catalog,
		Ledger:      ledger,
		Discounts:   validator,
		Gateway:     gateway,
		Notifier:    notification.NewOutboxNotifier(infra.Outbox),
		UoWFactory:  infra.UoWFactory,
		ShippingFee: shared.NewMoney(b.cfg.Order.ShippingFee),
	}
	if b.metrics != nil {
		deps.Metrics = b.metrics
	}
	orderService := apporder.NewApplicationService(deps)

	checks := map[string]health.Pinger{}
	if infra.DB != nil {
		db := infra.DB
		checks["database"] = health.PingFunc(func(ctx context.Context) error { return mysql.Ping(ctx, db) })
	}
	if rdb != nil {
		checks["redis"] = health.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	auth := middleware.Auth(b.cfg.Auth.JWTSecret, b.cfg.Auth.Issuer)
	router := api.NewRouter(b.cfg, api.Controllers{
		Health:    health.NewController(b.cfg, checks),
		Order:     apiorder.NewController(orderService, auth, store),
		Discount:  apidiscount.NewController(validator, auth),
		Inventory: apiinventory.NewController(ledger, auth),
	}, b.metrics, observability.NewTracer(b.cfg.Tracing.ServiceName))
	router.SetupRoutes()

	server := &http.Server{
		Addr:         ":" + b.cfg.Server.Port,
		Handler:      router.GetEngine(),
		ReadTimeout:  b.cfg.Server.ReadTimeout,
		WriteTimeout: b.cfg.Server.WriteTimeout,
	}

	return &App{
		config: b.cfg,
		router: router,
		server: server,
		db:     infra.DB,
		redis:  rdb,
	}, nil
}

// idempotencyStore uses redis when enabled, otherwise an in-process map that
// only protects a single instance.
func (b *AppBuilder) idempotencyStore(ctx context.Context) (idempotency.Store, *redis.Client, error) {
	ttl := b.cfg.Redis.IdempotencyTTL
	if !b.cfg.Redis.Enabled {
		return idempotency.NewMemoryStore(ttl), nil, nil
	}
	rdb, err := idempotency.NewRedisClient(ctx, b.cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("Idempotency keys stored in redis", zap.String("addr", b.cfg.Redis.Addr))
	return idempotency.NewRedisStore(rdb, ttl), rdb, nil
}
