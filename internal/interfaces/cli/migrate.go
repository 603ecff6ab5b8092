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

// MigrateFlags opciones de migrate_batches.
type MigrateFlags struct {
	DryRun      bool
	SummaryPath string
}

// ParseMigrateFlags interpreta los argumentos (sin el nombre del binario).
func ParseMigrateFlags(args []string) (MigrateFlags, error) {
	var f MigrateFlags
	fs := pflag.NewFlagSet("migrate_batches", pflag.ContinueOnError)
	fs.BoolVar(&f.DryRun, "dry-run", false, "reporta qué se migraría sin escribir")
	fs.StringVar(&f.SummaryPath, "summary", "", "ruta del archivo JSON con el resumen")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	return f, nil
}

// RunMigrate convierte el stock plano en lotes heredados y devuelve el código de salida.
func RunMigrate(ctx context.Context, b *backend.Backend, f MigrateFlags, log zerolog.Logger, out io.Writer) int {
	m := migration.NewMigrator(b.TxRunner, b.Products, b.Batches, log)
	sum, err := m.Run(ctx, migration.Options{DryRun: f.DryRun})
	if err != nil {
		log.Error().Err(err).Msg("migración abortada")
		if sum == nil {
			sum = &migration.MigrationSummary{DryRun: f.DryRun, Failures: []migration.Failure{}, Mismatches: []migration.Mismatch{}}
		}
		sum.Fatal = err.Error()
		sum.FinishedAt = time.Now()
		if err := writeSummary(out, f.SummaryPath, sum); err != nil {
			log.Error().Err(err).Msg("resumen de migración")
		}
		return ExitFatal
	}
	if err := writeSummary(out, f.SummaryPath, sum); err != nil {
		log.Error().Err(err).Msg("resumen de migración")
		return ExitFatal
	}
	ev := log.Info()
	if !sum.OK() {
		ev = log.Warn()
	}
	ev.Bool("dry_run", sum.DryRun).
		Int("eligible", sum.Eligible).
		Int("migrated", sum.Migrated).
		Int("skipped", sum.Skipped).
		Int("failures", len(sum.Failures)).
		Int("mismatches", len(sum.Mismatches)).
		Msg("migración finalizada")
	if !sum.OK() {
		return ExitPartial
	}
	return ExitOK
}
