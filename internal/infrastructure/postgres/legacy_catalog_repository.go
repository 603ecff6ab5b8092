package postgres

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

var _ repository.LegacyCatalogRepository = (*LegacyCatalogRepo)(nil)

// LegacyCatalogRepo lectura del catálogo plano heredado.
type LegacyCatalogRepo struct {
	q Querier
}

// NewLegacyCatalogRepository construye el adaptador.
func NewLegacyCatalogRepository(q Querier) *LegacyCatalogRepo {
	return &LegacyCatalogRepo{q: q}
}

// ListAll todos los registros heredados ordenados por ID.
func (r *LegacyCatalogRepo) ListAll(ctx context.Context) ([]*entity.LegacyCatalogItem, error) {
	var out []*entity.LegacyCatalogItem
	err := pgxscan.Select(ctx, r.q, &out, `
		SELECT id, name, description, manufacturer, category, price, requires_prescription,
		       stock, lot_number, expiration_date, updated_at
		FROM legacy_catalog_items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list legacy catalog: %w", err)
	}
	return out, nil
}
