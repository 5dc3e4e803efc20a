package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	_ "github.com/jhoicas/stockledger-api/docs"
	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/application/sales"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/cache"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/memory"
	"github.com/jhoicas/stockledger-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/stockledger-api/internal/interfaces/http"
	"github.com/jhoicas/stockledger-api/pkg/config"
	"github.com/jhoicas/stockledger-api/pkg/logger"
	"github.com/jhoicas/stockledger-api/pkg/telemetry"
)

// @title        Stock Ledger API
// @version      1.0
// @description  Ledger de stock por producto y depósito, y confirmación de ventas.
// @BasePath     /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.App.StoreDriver).
		Msg("iniciando aplicación")
	if cfg.JWT.Secret == "" {
		log.Warn().Msg("JWT_SECRET vacío: toda petición a /api será rechazada")
	}

	ctx := context.Background()
	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar OpenTelemetry")
	}

	deps, closeStore := buildStore(ctx, cfg, log)
	defer closeStore()

	var criticalCache inventory.CriticalCache
	if cfg.Redis.Enabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = client.Close() }()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("Redis no responde; la caché de críticos reintentará en cada lectura")
		}
		criticalCache = cache.NewCriticalCache(client, cfg.Redis.CriticalTTL)
	}

	engine := inventory.NewStockEngine(
		deps.txRunner, deps.stockRepo, deps.movRepo, deps.productRepo, deps.depositRepo,
		criticalCache, log,
	)
	lifecycleUC := sales.NewLifecycleUseCase(deps.salesTxRunner, engine, deps.saleRepo, deps.productRepo, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Named("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Stock Ledger API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.App.StoreDriver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Engine:      engine,
		Sales:       lifecycleUC,
		DepositRepo: deps.depositRepo,
		JWTSecret:   cfg.JWT.Secret,
		JWTIssuer:   cfg.JWT.Issuer,
		Log:         log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado de OpenTelemetry")
	}

	log.Info().Msg("aplicación detenida")
}

type storeDeps struct {
	txRunner      inventory.TxRunner
	salesTxRunner sales.SalesTxRunner
	stockRepo     repository.StockItemRepository
	movRepo       repository.MovementRepository
	saleRepo      repository.SaleRepository
	productRepo   repository.ProductRepository
	depositRepo   repository.DepositRepository
}

// buildStore elige PostgreSQL o el almacenamiento en memoria según STORE_DRIVER.
func buildStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (storeDeps, func()) {
	if cfg.App.StoreDriver == config.StoreDriverMemory {
		store := memory.NewStore()
		for _, p := range memory.DemoCatalog() {
			store.SeedProduct(p)
		}
		log.Warn().Msg("usando almacenamiento en memoria: los datos se pierden al reiniciar")
		return storeDeps{
			txRunner:      store,
			salesTxRunner: store,
			stockRepo:     store.StockItems(),
			movRepo:       store.Movements(),
			saleRepo:      store.Sales(),
			productRepo:   store.Products(),
			depositRepo:   store.Deposits(),
		}, func() {}
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	txRunner := postgres.NewTxRunner(pool)
	return storeDeps{
		txRunner:      txRunner,
		salesTxRunner: txRunner,
		stockRepo:     postgres.NewStockItemRepository(pool),
		movRepo:       postgres.NewMovementRepository(pool),
		saleRepo:      postgres.NewSaleRepository(pool),
		productRepo:   postgres.NewProductRepository(pool),
		depositRepo:   postgres.NewDepositRepository(pool),
	}, pool.Close
}
