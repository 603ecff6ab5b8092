package repository

import (
	"context"

	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

// BatchRepository define el puerto de persistencia para lotes.
// Las mutaciones deben ejecutarse dentro de la unidad de trabajo serializada por producto (ledger.TxRunner).
type BatchRepository interface {
	Create(ctx context.Context, batch *entity.Batch) error
	GetByID(ctx context.Context, id string) (*entity.Batch, error)
	// ListByProduct devuelve los lotes del producto en orden FEFO (vencimiento, cantidad recibida).
	ListByProduct(ctx context.Context, productID string) ([]*entity.Batch, error)
	CountByProduct(ctx context.Context, productID string) (int, error)
	// AdjustRemaining es la única mutación primitiva de cantidad; rechaza resultados fuera de [0, recibido].
	AdjustRemaining(ctx context.Context, batchID string, delta int64) error
	// ListProductIDs devuelve los productos que tienen al menos un lote.
	ListProductIDs(ctx context.Context) ([]string, error)
	ListByOrigin(ctx context.Context, origin entity.BatchOrigin) ([]*entity.Batch, error)
	CountByOrigin(ctx context.Context, origin entity.BatchOrigin) (int, error)
	CountByReceipt(ctx context.Context, receiptID string) (int, error)
	ListAll(ctx context.Context) ([]*entity.Batch, error)
	Delete(ctx context.Context, id string) error
}
