package repository

import (
	"context"

	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// GetByID devuelve (nil, nil) si no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// Update modifica solo campos descriptivos; el stock se maneja vía UpdateStock.
	Update(ctx context.Context, product *entity.Product) error
	// UpdateStock escribe el contador desnormalizado y el flag derivado. Reservado al ledger.
	UpdateStock(ctx context.Context, productID string, quantity int64, inStock bool) error
	ListWithStock(ctx context.Context) ([]*entity.Product, error)
	ListAll(ctx context.Context) ([]*entity.Product, error)
	Delete(ctx context.Context, id string) error
}
