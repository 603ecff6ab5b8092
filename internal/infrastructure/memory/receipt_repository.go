package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

var _ repository.ReceiptRepository = (*ReceiptRepo)(nil)

// ReceiptRepo implementación en memoria de ReceiptRepository.
type ReceiptRepo struct {
	s *Store
	j *journal
}

func cloneReceipt(r entity.Receipt) entity.Receipt {
	r.Items = append([]entity.ReceiptItem(nil), r.Items...)
	return r
}

// Create persiste la recepción con sus líneas.
func (r *ReceiptRepo) Create(_ context.Context, receipt *entity.Receipt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.receipts[receipt.ID]; ok {
		return domain.ErrDuplicate
	}
	r.s.receipts[receipt.ID] = cloneReceipt(*receipt)
	id := receipt.ID
	r.j.record(func() { delete(r.s.receipts, id) })
	return nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *ReceiptRepo) GetByID(_ context.Context, id string) (*entity.Receipt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rc, ok := r.s.receipts[id]
	if !ok {
		return nil, nil
	}
	rc = cloneReceipt(rc)
	return &rc, nil
}

// ListByOrigin recepciones con la procedencia indicada.
func (r *ReceiptRepo) ListByOrigin(_ context.Context, origin entity.BatchOrigin) ([]*entity.Receipt, error) {
	return r.filter(func(rc *entity.Receipt) bool { return rc.Origin == origin }), nil
}

// ListAll todas las recepciones por fecha.
func (r *ReceiptRepo) ListAll(_ context.Context) ([]*entity.Receipt, error) {
	return r.filter(func(*entity.Receipt) bool { return true }), nil
}

// Delete elimina una recepción por ID.
func (r *ReceiptRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.s.receipts[id]
	if !ok {
		return fmt.Errorf("delete receipt %s: %w", id, domain.ErrNotFound)
	}
	delete(r.s.receipts, id)
	r.j.record(func() { r.s.receipts[prev.ID] = prev })
	return nil
}

func (r *ReceiptRepo) filter(keep func(*entity.Receipt) bool) []*entity.Receipt {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.Receipt, 0)
	for _, rc := range r.s.receipts {
		rc := cloneReceipt(rc)
		if keep(&rc) {
			out = append(out, &rc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReceivedAt.Equal(out[j].ReceivedAt) {
			return out[i].ReceivedAt.Before(out[j].ReceivedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
