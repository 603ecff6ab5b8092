package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación en memoria de ProductRepository.
type ProductRepo struct {
	s *Store
	j *journal
}

// Create persiste un producto nuevo.
func (r *ProductRepo) Create(_ context.Context, product *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[product.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.products[product.ID] = *product
	id := product.ID
	r.j.record(func() { delete(r.s.products, id) })
	return nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// Update modifica campos descriptivos; no toca el stock.
func (r *ProductRepo) Update(_ context.Context, product *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.s.products[product.ID]
	if !ok {
		return fmt.Errorf("update product %s: %w", product.ID, domain.ErrNotFound)
	}
	next := *product
	next.StockQuantity = prev.StockQuantity
	next.InStock = prev.InStock
	next.CreatedAt = prev.CreatedAt
	r.s.products[product.ID] = next
	r.j.record(func() { r.s.products[prev.ID] = prev })
	return nil
}

// UpdateStock escribe el contador desnormalizado y el flag derivado.
func (r *ProductRepo) UpdateStock(_ context.Context, productID string, quantity int64, inStock bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.s.products[productID]
	if !ok {
		return fmt.Errorf("update product stock %s: %w", productID, domain.ErrNotFound)
	}
	next := prev
	next.StockQuantity = quantity
	next.InStock = inStock
	next.UpdatedAt = time.Now()
	r.s.products[productID] = next
	r.j.record(func() { r.s.products[prev.ID] = prev })
	return nil
}

// ListWithStock productos con contador positivo, ordenados por ID.
func (r *ProductRepo) ListWithStock(ctx context.Context) ([]*entity.Product, error) {
	all, _ := r.ListAll(ctx)
	out := all[:0]
	for _, p := range all {
		if p.StockQuantity > 0 {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListAll todos los productos ordenados por ID.
func (r *ProductRepo) ListAll(_ context.Context) ([]*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Delete elimina un producto por ID.
func (r *ProductRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.s.products[id]
	if !ok {
		return nil
	}
	delete(r.s.products, id)
	r.j.record(func() { r.s.products[prev.ID] = prev })
	return nil
}
