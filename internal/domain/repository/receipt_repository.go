package repository

import (
	"context"

	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

// ReceiptRepository define el puerto de persistencia para recepciones (con sus líneas).
type ReceiptRepository interface {
	Create(ctx context.Context, receipt *entity.Receipt) error
	GetByID(ctx context.Context, id string) (*entity.Receipt, error)
	ListByOrigin(ctx context.Context, origin entity.BatchOrigin) ([]*entity.Receipt, error)
	ListAll(ctx context.Context) ([]*entity.Receipt, error)
	Delete(ctx context.Context, id string) error
}
