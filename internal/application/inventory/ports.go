package inventory

import (
	"context"

	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

// Repos agrupa los repositorios atados a una misma transacción.
type Repos struct {
	Products  repository.ProductRepository
	Batches   repository.BatchRepository
	Receipts  repository.ReceiptRepository
	Suppliers repository.SupplierRepository
	Users     repository.UserRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el ledger de lotes.
type TxRunner interface {
	// Run abre una transacción sin bloquear productos (recepciones sintetizadas, proveedores, operadores).
	Run(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error
	// RunForProducts bloquea los productos indicados (orden ascendente de ID, sin interbloqueos) durante
	// toda la transacción. Es la unidad de trabajo serializada por producto: toda mutación de lotes o del
	// contador de stock pasa por aquí.
	RunForProducts(ctx context.Context, productIDs []string, fn func(ctx context.Context, repos Repos) error) error
}
