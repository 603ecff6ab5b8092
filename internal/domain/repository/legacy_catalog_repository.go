package repository

import (
	"context"

	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

// LegacyCatalogRepository lee el catálogo plano heredado. Solo lectura para el ledger.
type LegacyCatalogRepository interface {
	ListAll(ctx context.Context) ([]*entity.LegacyCatalogItem, error)
}
