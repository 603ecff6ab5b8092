package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/ledger"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

// BatchRepo implementación en memoria de BatchRepository.
type BatchRepo struct {
	s *Store
	j *journal
}

// Create persiste un lote. El número de lote es único por producto.
func (r *BatchRepo) Create(_ context.Context, batch *entity.Batch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.batches[batch.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, b := range r.s.batches {
		if b.ProductID == batch.ProductID && b.BatchNumber == batch.BatchNumber {
			return domain.ErrDuplicate
		}
	}
	r.s.batches[batch.ID] = *batch
	id := batch.ID
	r.j.record(func() { delete(r.s.batches, id) })
	return nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *BatchRepo) GetByID(_ context.Context, id string) (*entity.Batch, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.batches[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

// ListByProduct lotes del producto en orden FEFO.
func (r *BatchRepo) ListByProduct(_ context.Context, productID string) ([]*entity.Batch, error) {
	out := r.filter(func(b *entity.Batch) bool { return b.ProductID == productID })
	ledger.SortFEFO(out)
	return out, nil
}

// CountByProduct número de lotes del producto.
func (r *BatchRepo) CountByProduct(ctx context.Context, productID string) (int, error) {
	list, _ := r.ListByProduct(ctx, productID)
	return len(list), nil
}

// AdjustRemaining aplica delta al saldo; rechaza resultados fuera de [0, recibido].
func (r *BatchRepo) AdjustRemaining(_ context.Context, batchID string, delta int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.s.batches[batchID]
	if !ok {
		return fmt.Errorf("adjust remaining %s: %w", batchID, domain.ErrNotFound)
	}
	next := prev
	next.RemainingQuantity += delta
	if next.RemainingQuantity < 0 || next.RemainingQuantity > next.ReceivedQuantity {
		return fmt.Errorf("adjust remaining %s: saldo %d fuera de rango: %w", batchID, next.RemainingQuantity, domain.ErrConflict)
	}
	next.UpdatedAt = time.Now()
	r.s.batches[batchID] = next
	r.j.record(func() { r.s.batches[prev.ID] = prev })
	return nil
}

// ListProductIDs productos con al menos un lote, ordenados.
func (r *BatchRepo) ListProductIDs(_ context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, b := range r.s.batches {
		if !seen[b.ProductID] {
			seen[b.ProductID] = true
			out = append(out, b.ProductID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ListByOrigin lotes con la procedencia indicada, ordenados por producto.
func (r *BatchRepo) ListByOrigin(_ context.Context, origin entity.BatchOrigin) ([]*entity.Batch, error) {
	out := r.filter(func(b *entity.Batch) bool { return b.Origin == origin })
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// CountByOrigin número de lotes con la procedencia indicada.
func (r *BatchRepo) CountByOrigin(ctx context.Context, origin entity.BatchOrigin) (int, error) {
	list, _ := r.ListByOrigin(ctx, origin)
	return len(list), nil
}

// CountByReceipt número de lotes que referencian la recepción.
func (r *BatchRepo) CountByReceipt(_ context.Context, receiptID string) (int, error) {
	return len(r.filter(func(b *entity.Batch) bool { return b.ReceiptID == receiptID })), nil
}

// ListAll todos los lotes ordenados por producto y FEFO.
func (r *BatchRepo) ListAll(_ context.Context) ([]*entity.Batch, error) {
	out := r.filter(func(*entity.Batch) bool { return true })
	sort.SliceStable(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

// Delete elimina un lote por ID.
func (r *BatchRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.s.batches[id]
	if !ok {
		return fmt.Errorf("delete batch %s: %w", id, domain.ErrNotFound)
	}
	delete(r.s.batches, id)
	r.j.record(func() { r.s.batches[prev.ID] = prev })
	return nil
}

func (r *BatchRepo) filter(keep func(*entity.Batch) bool) []*entity.Batch {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Batch, 0)
	for _, b := range r.s.batches {
		b := b
		if keep(&b) {
			out = append(out, &b)
		}
	}
	ledger.SortFEFO(out)
	return out
}
