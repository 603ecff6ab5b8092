package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

var _ repository.SupplierRepository = (*SupplierRepo)(nil)

// SupplierRepo implementación en memoria de SupplierRepository.
type SupplierRepo struct {
	s *Store
	j *journal
}

// Create persiste un proveedor; el código es único.
func (r *SupplierRepo) Create(_ context.Context, supplier *entity.Supplier) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sp := range r.s.suppliers {
		if sp.ID == supplier.ID || (supplier.Code != "" && sp.Code == supplier.Code) {
			return domain.ErrDuplicate
		}
	}
	r.s.suppliers[supplier.ID] = *supplier
	id := supplier.ID
	r.j.record(func() { delete(r.s.suppliers, id) })
	return nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *SupplierRepo) GetByID(_ context.Context, id string) (*entity.Supplier, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sp, ok := r.s.suppliers[id]
	if !ok {
		return nil, nil
	}
	return &sp, nil
}

// GetByCode devuelve (nil, nil) si no existe.
func (r *SupplierRepo) GetByCode(_ context.Context, code string) (*entity.Supplier, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, sp := range r.s.suppliers {
		if sp.Code == code {
			sp := sp
			return &sp, nil
		}
	}
	return nil, nil
}

// ListAll todos los proveedores por código.
func (r *SupplierRepo) ListAll(_ context.Context) ([]*entity.Supplier, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Supplier, 0, len(r.s.suppliers))
	for _, sp := range r.s.suppliers {
		sp := sp
		out = append(out, &sp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
