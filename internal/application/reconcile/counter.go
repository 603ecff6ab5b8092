// Package reconcile mantiene el contador desnormalizado alineado con el ledger y pliega el catálogo
// heredado en el canónico. Ambas tareas corren en segundo plano bajo el Scheduler.
package reconcile

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/pharma-ledger/internal/application/inventory"
	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/ledger"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

// Drift un contador que no coincidía con la suma de saldos del ledger.
type Drift struct {
	ProductID string
	Counter   int64
	LedgerSum int64
}

// CounterReport resultado de una pasada de verificación.
type CounterReport struct {
	Checked   int
	Corrected int
	Failed    int
	Drifts    []Drift
}

// CounterReconciler recalcula sum(remaining) por producto y, si difiere, sobrescribe el contador.
// El ledger siempre es la fuente de verdad; la corrección nunca falla la tarea completa.
type CounterReconciler struct {
	txRunner  inventory.TxRunner
	batchRepo repository.BatchRepository
	log       zerolog.Logger
}

// NewCounterReconciler construye el verificador.
func NewCounterReconciler(txRunner inventory.TxRunner, batchRepo repository.BatchRepository, log zerolog.Logger) *CounterReconciler {
	return &CounterReconciler{
		txRunner:  txRunner,
		batchRepo: batchRepo,
		log:       log,
	}
}

// Run verifica todos los productos con al menos un lote. Solo devuelve error si no puede listarlos.
func (r *CounterReconciler) Run(ctx context.Context) (*CounterReport, error) {
	ids, err := r.batchRepo.ListProductIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar productos con lotes: %w", err)
	}
	report := &CounterReport{}
	for _, id := range ids {
		drift, err := r.ReconcileProduct(ctx, id)
		report.Checked++
		if err != nil {
			report.Failed++
			r.log.Error().Err(err).Str("product_id", id).Msg("reconciliación de producto fallida")
			continue
		}
		if drift != nil {
			report.Corrected++
			report.Drifts = append(report.Drifts, *drift)
		}
	}
	r.log.Info().
		Int("checked", report.Checked).
		Int("corrected", report.Corrected).
		Int("failed", report.Failed).
		Msg("verificación contador/ledger completada")
	return report, nil
}

// ReconcileProduct verifica un producto dentro de su unidad de trabajo serializada.
// Devuelve el desvío corregido o nil si el contador ya era correcto.
func (r *CounterReconciler) ReconcileProduct(ctx context.Context, productID string) (*Drift, error) {
	var drift *Drift
	err := r.txRunner.RunForProducts(ctx, []string{productID}, func(ctx context.Context, repos inventory.Repos) error {
		product, err := repos.Products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			r.log.Warn().Str("product_id", productID).Msg("lotes huérfanos: el producto no existe")
			return nil
		}
		batches, err := repos.Batches.ListByProduct(ctx, productID)
		if err != nil {
			return err
		}
		if len(batches) == 0 {
			return nil
		}
		sum := ledger.SumRemaining(batches)
		if sum == product.StockQuantity && product.InStock == (sum > 0) {
			return nil
		}
		if err := repos.Products.UpdateStock(ctx, productID, sum, sum > 0); err != nil {
			return err
		}
		drift = &Drift{ProductID: productID, Counter: product.StockQuantity, LedgerSum: sum}
		r.log.Warn().
			Err(domain.ErrInvariantViolation).
			Str("product_id", productID).
			Int64("counter", product.StockQuantity).
			Int64("ledger_sum", sum).
			Msg("contador de stock corregido desde el ledger")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return drift, nil
}
