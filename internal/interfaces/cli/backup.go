package cli

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/jhoicas/pharma-ledger/internal/application/backup"
	"github.com/jhoicas/pharma-ledger/internal/infrastructure/backend"
)

// BackupFlags opciones de backup_ledger.
type BackupFlags struct {
	OutDir string
}

// ParseBackupFlags interpreta los argumentos. baseDir es BACKUP_DIR; sin --out se usa <baseDir>/<timestamp>.
func ParseBackupFlags(args []string, baseDir string, now time.Time) (BackupFlags, error) {
	var f BackupFlags
	fs := pflag.NewFlagSet("backup_ledger", pflag.ContinueOnError)
	fs.StringVar(&f.OutDir, "out", "", "directorio de salida (por defecto <BACKUP_DIR>/<timestamp>)")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	if f.OutDir == "" {
		f.OutDir = backup.DefaultDir(baseDir, now.UTC())
	}
	return f, nil
}

// RunBackup exporta la instantánea del ledger y escribe el manifiesto en out.
func RunBackup(ctx context.Context, b *backend.Backend, f BackupFlags, log zerolog.Logger, out io.Writer) int {
	exp, err := backup.NewExporter(b.BackupSources(), log)
	if err != nil {
		log.Error().Err(err).Msg("inicializar exportador")
		return ExitFatal
	}
	manifest, err := exp.Export(ctx, f.OutDir)
	if err != nil {
		log.Error().Err(err).Str("dir", f.OutDir).Msg("respaldo fallido")
		return ExitFatal
	}
	if err := writeSummary(out, "", manifest); err != nil {
		log.Error().Err(err).Msg("manifiesto")
		return ExitFatal
	}
	log.Info().Str("dir", manifest.Directory).Int("records", manifest.Records()).Msg("respaldo completado")
	return ExitOK
}
