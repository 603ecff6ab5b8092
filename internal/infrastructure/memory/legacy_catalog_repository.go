package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

var _ repository.LegacyCatalogRepository = (*LegacyCatalogRepo)(nil)

// LegacyCatalogRepo catálogo plano heredado en memoria.
type LegacyCatalogRepo struct {
	s *Store
}

// Put inserta o reemplaza un registro heredado (lo usa el colaborador del catálogo y los tests).
func (r *LegacyCatalogRepo) Put(item *entity.LegacyCatalogItem) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.legacy[item.ID] = *item
}

// Remove elimina un registro heredado.
func (r *LegacyCatalogRepo) Remove(id string) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.legacy, id)
}

// ListAll todos los registros heredados ordenados por ID.
func (r *LegacyCatalogRepo) ListAll(_ context.Context) ([]*entity.LegacyCatalogItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.LegacyCatalogItem, 0, len(r.s.legacy))
	for _, it := range r.s.legacy {
		it := it
		out = append(out, &it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
