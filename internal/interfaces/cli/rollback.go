package cli

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/jhoicas/pharma-ledger/internal/application/migration"
	"github.com/jhoicas/pharma-ledger/internal/infrastructure/backend"
)

// RollbackFlags opciones de rollback_batches.
type RollbackFlags struct {
	KeepStock      bool
	DeleteReceipts bool
	SummaryPath    string
}

// ParseRollbackFlags interpreta los argumentos (sin el nombre del binario).
func ParseRollbackFlags(args []string) (RollbackFlags, error) {
	var f RollbackFlags
	fs := pflag.NewFlagSet("rollback_batches", pflag.ContinueOnError)
	fs.BoolVar(&f.KeepStock, "keep-stock", false, "no restaurar el contador; solo recalcular in_stock")
	fs.BoolVar(&f.DeleteReceipts, "delete-receipts", false, "eliminar las recepciones heredadas sin lotes")
	fs.StringVar(&f.SummaryPath, "summary", "", "ruta del archivo JSON con el resumen")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	return f, nil
}

// RunRollback elimina los lotes heredados y devuelve el código de salida.
func RunRollback(ctx context.Context, b *backend.Backend, f RollbackFlags, log zerolog.Logger, out io.Writer) int {
	r := migration.NewRollback(b.TxRunner, b.Batches, b.Receipts, log)
	sum, err := r.Run(ctx, migration.RollbackOptions{KeepStock: f.KeepStock, DeleteReceipts: f.DeleteReceipts})
	if err != nil {
		log.Error().Err(err).Msg("rollback abortado")
		if sum == nil {
			sum = &migration.RollbackSummary{Failures: []migration.Failure{}}
		}
		sum.Fatal = err.Error()
		sum.FinishedAt = time.Now()
		if err := writeSummary(out, f.SummaryPath, sum); err != nil {
			log.Error().Err(err).Msg("resumen de rollback")
		}
		return ExitFatal
	}
	if err := writeSummary(out, f.SummaryPath, sum); err != nil {
		log.Error().Err(err).Msg("resumen de rollback")
		return ExitFatal
	}
	ev := log.Info()
	if !sum.OK() {
		ev = log.Warn()
	}
	ev.Str("mode", sum.Mode).
		Int("products", sum.Products).
		Int("rolled_back", sum.RolledBack).
		Int("batches_deleted", sum.BatchesDeleted).
		Int("failures", len(sum.Failures)).
		Int("stragglers", sum.Stragglers).
		Msg("rollback finalizado")
	if !sum.OK() {
		return ExitPartial
	}
	return ExitOK
}
