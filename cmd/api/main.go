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

	"github.com/jhoicas/pharma-ledger/internal/application/auth"
	"github.com/jhoicas/pharma-ledger/internal/application/inventory"
	"github.com/jhoicas/pharma-ledger/internal/application/reconcile"
	"github.com/jhoicas/pharma-ledger/internal/application/usecase"
	"github.com/jhoicas/pharma-ledger/internal/infrastructure/backend"
	httpRouter "github.com/jhoicas/pharma-ledger/internal/interfaces/http"
	"github.com/jhoicas/pharma-ledger/pkg/config"
	"github.com/jhoicas/pharma-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: "api",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.App.StoreDriver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, err := backend.Open(ctx, *cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacenamiento")
	}
	defer store.Close()

	productUC := usecase.NewProductUseCase(store.Products)
	supplierUC := usecase.NewSupplierUseCase(store.Suppliers)
	receiptUC := inventory.NewReceiptUseCase(store.TxRunner)
	allocationUC := inventory.NewAllocationUseCase(store.TxRunner, store.Products, store.Batches)
	authUC := auth.NewAuthUseCase(store.Users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	// Reconciliación: las tareas siempre quedan registradas para dispararlas por HTTP;
	// el ciclo periódico solo arranca si RECONCILE_ENABLED.
	scheduler := reconcile.NewScheduler(log.Component("scheduler"))
	scheduler.Register(reconcile.CounterJob(
		reconcile.NewCounterReconciler(store.TxRunner, store.Batches, log.Component("stock_counter")),
		cfg.Reconcile.StockInterval,
	))
	scheduler.Register(reconcile.CatalogJob(
		reconcile.NewCatalogFolder(store.TxRunner, store.Products, store.LegacyCatalog, log.Component("catalog_fold")),
		cfg.Reconcile.CatalogInterval,
	))
	if cfg.Reconcile.Enabled {
		scheduler.Start(ctx)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Pharma Ledger API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": store.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:     authUC,
		ProductUC:  productUC,
		SupplierUC: supplierUC,
		Receipts:   receiptUC,
		Allocation: allocationUC,
		Jobs:       scheduler,
		JWTSecret:  cfg.JWT.Secret,
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
	scheduler.Stop()

	log.Info().Msg("aplicación detenida")
}
