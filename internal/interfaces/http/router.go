package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pharma-ledger/internal/application/auth"
	"github.com/jhoicas/pharma-ledger/internal/application/inventory"
	"github.com/jhoicas/pharma-ledger/internal/application/usecase"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC     *auth.AuthUseCase
	ProductUC  *usecase.ProductUseCase
	SupplierUC *usecase.SupplierUseCase
	Receipts   *inventory.ReceiptUseCase
	Allocation *inventory.AllocationUseCase
	Jobs       jobTrigger
	JWTSecret  string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Operadores (solo admin)
	protected.Post("/users", RequireRole(entity.RoleAdmin), authHandler.Register)

	ledgerHandler := NewLedgerHandler(deps.Receipts, deps.Allocation)
	protected.Post("/receipts", RequireRole(entity.RoleAdmin, entity.RoleBodeguero), ledgerHandler.CreateReceipt)
	protected.Post("/allocations", RequireRole(entity.RoleAdmin, entity.RoleBodeguero, entity.RoleVendedor), ledgerHandler.Consume)

	// Catálogo: lectura para todos, escritura admin/bodeguero
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, deps.Jobs)
	products.Get("/", productHandler.List)
	products.Post("/", RequireRole(entity.RoleAdmin, entity.RoleBodeguero), productHandler.Create)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", RequireRole(entity.RoleAdmin, entity.RoleBodeguero), productHandler.Update)
	products.Get("/:id/batches", ledgerHandler.ListBatches)
	products.Get("/:id/availability", ledgerHandler.Availability)

	suppliers := protected.Group("/suppliers")
	supplierHandler := NewSupplierHandler(deps.SupplierUC)
	suppliers.Get("/", supplierHandler.List)
	suppliers.Post("/", RequireRole(entity.RoleAdmin), supplierHandler.Create)
	suppliers.Get("/:id", supplierHandler.GetByID)

	// Reconciliación a demanda
	reconcileHandler := NewReconcileHandler(deps.Jobs)
	protected.Post("/catalog/sync", RequireRole(entity.RoleAdmin, entity.RoleBodeguero), reconcileHandler.CatalogSync)
	protected.Post("/reconcile/stock", RequireRole(entity.RoleAdmin), reconcileHandler.StockReconcile)
}
