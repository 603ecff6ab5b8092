// Package ledger contiene la lógica pura del ledger de lotes (servicios de dominio sin I/O).
package ledger

import (
	"sort"
	"time"

	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

// Deduction es la cantidad a descontar de un lote concreto.
type Deduction struct {
	BatchID     string
	BatchNumber string
	Quantity    int64
	Expiration  time.Time
}

// SortFEFO ordena in situ: vencimiento ascendente; a igual vencimiento, primero el lote con menor
// cantidad recibida (se agotan los lotes pequeños); luego por ID para que el orden sea estable.
func SortFEFO(batches []*entity.Batch) {
	sort.SliceStable(batches, func(i, j int) bool {
		a, b := batches[i], batches[j]
		if !a.ExpirationDate.Equal(b.ExpirationDate) {
			return a.ExpirationDate.Before(b.ExpirationDate)
		}
		if a.ReceivedQuantity != b.ReceivedQuantity {
			return a.ReceivedQuantity < b.ReceivedQuantity
		}
		return a.ID < b.ID
	})
}

// Eligible filtra los lotes con saldo y no vencidos a la fecha now, ya ordenados FEFO.
// No modifica el slice de entrada.
func Eligible(batches []*entity.Batch, now time.Time) []*entity.Batch {
	out := make([]*entity.Batch, 0, len(batches))
	for _, b := range batches {
		if b.RemainingQuantity <= 0 || b.IsExpiredAt(now) {
			continue
		}
		out = append(out, b)
	}
	SortFEFO(out)
	return out
}

// PlanFEFO calcula los descuentos necesarios para cubrir quantity sin tocar los lotes.
// Si los lotes elegibles no alcanzan devuelve *domain.InsufficientStockError y ningún plan:
// los descuentos parciales calculados durante el recorrido se descartan.
func PlanFEFO(productID string, batches []*entity.Batch, quantity int64, now time.Time) ([]Deduction, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	eligible := Eligible(batches, now)
	pending := quantity
	plan := make([]Deduction, 0, len(eligible))
	for _, b := range eligible {
		if pending == 0 {
			break
		}
		take := b.RemainingQuantity
		if take > pending {
			take = pending
		}
		plan = append(plan, Deduction{
			BatchID:     b.ID,
			BatchNumber: b.BatchNumber,
			Quantity:    take,
			Expiration:  b.ExpirationDate,
		})
		pending -= take
	}
	if pending > 0 {
		return nil, &domain.InsufficientStockError{
			ProductID: productID,
			Requested: quantity,
			Available: quantity - pending,
		}
	}
	return plan, nil
}

// SumRemaining suma el saldo de todos los lotes (vencidos incluidos): es el valor que debe
// coincidir con Product.StockQuantity.
func SumRemaining(batches []*entity.Batch) int64 {
	var total int64
	for _, b := range batches {
		total += b.RemainingQuantity
	}
	return total
}

// Availability resume lo vendible de un producto: saldo no vencido y el próximo vencimiento.
func Availability(batches []*entity.Batch, now time.Time) (int64, *time.Time) {
	eligible := Eligible(batches, now)
	if len(eligible) == 0 {
		return 0, nil
	}
	next := eligible[0].ExpirationDate
	return SumRemaining(eligible), &next
}
