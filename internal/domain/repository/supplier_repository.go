package repository

import (
	"context"

	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

// SupplierRepository define el puerto de persistencia para Supplier.
type SupplierRepository interface {
	Create(ctx context.Context, supplier *entity.Supplier) error
	GetByID(ctx context.Context, id string) (*entity.Supplier, error)
	GetByCode(ctx context.Context, code string) (*entity.Supplier, error)
	ListAll(ctx context.Context) ([]*entity.Supplier, error)
}
