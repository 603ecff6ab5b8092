package migration

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/pharma-ledger/internal/application/inventory"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

// RollbackOptions modos del rollback.
type RollbackOptions struct {
	// KeepStock deja el contador intacto y solo recalcula InStock con los lotes no heredados.
	KeepStock bool
	// DeleteReceipts elimina las recepciones heredadas que ya no referencian ningún lote.
	DeleteReceipts bool
}

// Rollback elimina los lotes de origen legacy_migration, producto por producto.
type Rollback struct {
	txRunner    inventory.TxRunner
	batchRepo   repository.BatchRepository
	receiptRepo repository.ReceiptRepository
	log         zerolog.Logger
	now         func() time.Time
}

// NewRollback construye la herramienta de rollback.
func NewRollback(txRunner inventory.TxRunner, batchRepo repository.BatchRepository, receiptRepo repository.ReceiptRepository, log zerolog.Logger) *Rollback {
	return &Rollback{
		txRunner:    txRunner,
		batchRepo:   batchRepo,
		receiptRepo: receiptRepo,
		log:         log,
		now:         time.Now,
	}
}

// Run revierte la migración. Solo devuelve error si no puede listar los lotes heredados.
//
// En modo restauración el contador queda en sum(lotes no heredados) + saldo heredado eliminado, es decir,
// el conteo físico que representaban los lotes heredados vuelve al contador plano.
func (r *Rollback) Run(ctx context.Context, opts RollbackOptions) (*RollbackSummary, error) {
	sum := &RollbackSummary{StartedAt: r.now(), Mode: ModeRestore, Failures: []Failure{}}
	if opts.KeepStock {
		sum.Mode = ModeKeepStock
	}

	legacy, err := r.batchRepo.ListByOrigin(ctx, entity.OriginLegacyMigration)
	if err != nil {
		return sum, fmt.Errorf("listar lotes heredados: %w", err)
	}
	seen := make(map[string]struct{})
	productIDs := make([]string, 0)
	for _, b := range legacy {
		if _, ok := seen[b.ProductID]; ok {
			continue
		}
		seen[b.ProductID] = struct{}{}
		productIDs = append(productIDs, b.ProductID)
	}
	sort.Strings(productIDs)
	sum.Products = len(productIDs)
	r.log.Info().Int("products", len(productIDs)).Int("legacy_batches", len(legacy)).Str("mode", sum.Mode).Msg("iniciando rollback de lotes heredados")

	for _, id := range productIDs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		deleted, restored, err := r.rollbackProduct(ctx, id, opts.KeepStock)
		if err != nil {
			sum.Failures = append(sum.Failures, Failure{ProductID: id, Message: err.Error()})
			r.log.Error().Err(err).Str("product_id", id).Msg("fallo al revertir producto")
			continue
		}
		sum.RolledBack++
		sum.BatchesDeleted += deleted
		sum.RestoredUnits += restored
		r.log.Info().Str("product_id", id).Int("batches_deleted", deleted).Int64("legacy_units", restored).Msg("producto revertido")
	}

	if opts.DeleteReceipts {
		sum.ReceiptsDeleted = r.deleteReceipts(ctx, sum)
	}

	stragglers, err := r.batchRepo.CountByOrigin(ctx, entity.OriginLegacyMigration)
	if err != nil {
		sum.Failures = append(sum.Failures, Failure{Message: "verificación final: " + err.Error()})
	} else {
		sum.Stragglers = stragglers
	}
	if sum.Stragglers > 0 {
		r.log.Warn().Int("stragglers", sum.Stragglers).Msg("verificación final: quedan lotes heredados")
	}

	sum.FinishedAt = r.now()
	r.log.Info().
		Int("rolled_back", sum.RolledBack).
		Int("batches_deleted", sum.BatchesDeleted).
		Int("receipts_deleted", sum.ReceiptsDeleted).
		Int("failures", len(sum.Failures)).
		Msg("rollback finalizado")
	return sum, nil
}

func (r *Rollback) rollbackProduct(ctx context.Context, productID string, keepStock bool) (int, int64, error) {
	var deleted int
	var legacyRemaining int64
	err := r.txRunner.RunForProducts(ctx, []string{productID}, func(ctx context.Context, repos inventory.Repos) error {
		deleted, legacyRemaining = 0, 0
		batches, err := repos.Batches.ListByProduct(ctx, productID)
		if err != nil {
			return err
		}
		var kept int64
		for _, b := range batches {
			if !b.IsLegacy() {
				kept += b.RemainingQuantity
				continue
			}
			legacyRemaining += b.RemainingQuantity
			if err := repos.Batches.Delete(ctx, b.ID); err != nil {
				return fmt.Errorf("eliminar lote %s: %w", b.ID, err)
			}
			deleted++
		}

		p, err := repos.Products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if p == nil {
			r.log.Warn().Str("product_id", productID).Msg("lotes heredados de un producto inexistente eliminados")
			return nil
		}
		if keepStock {
			if p.StockQuantity > 0 && kept == 0 {
				r.log.Warn().
					Str("product_id", productID).
					Int64("stock_quantity", p.StockQuantity).
					Msg("stock conservado sin lotes que lo respalden: in_stock=false")
			}
			return repos.Products.UpdateStock(ctx, productID, p.StockQuantity, kept > 0)
		}
		stock := kept + legacyRemaining
		return repos.Products.UpdateStock(ctx, productID, stock, stock > 0)
	})
	if err != nil {
		return 0, 0, err
	}
	return deleted, legacyRemaining, nil
}

func (r *Rollback) deleteReceipts(ctx context.Context, sum *RollbackSummary) int {
	receipts, err := r.receiptRepo.ListByOrigin(ctx, entity.OriginLegacyMigration)
	if err != nil {
		sum.Failures = append(sum.Failures, Failure{Message: "listar recepciones heredadas: " + err.Error()})
		return 0
	}
	deleted := 0
	for _, rc := range receipts {
		err := r.txRunner.Run(ctx, func(ctx context.Context, repos inventory.Repos) error {
			n, err := repos.Batches.CountByReceipt(ctx, rc.ID)
			if err != nil {
				return err
			}
			if n > 0 {
				r.log.Warn().Str("receipt_id", rc.ID).Int("batches", n).Msg("recepción heredada aún referenciada; se conserva")
				return nil
			}
			if err := repos.Receipts.Delete(ctx, rc.ID); err != nil {
				return err
			}
			deleted++
			return nil
		})
		if err != nil {
			sum.Failures = append(sum.Failures, Failure{Message: fmt.Sprintf("eliminar recepción %s: %v", rc.ID, err)})
		}
	}
	return deleted
}
