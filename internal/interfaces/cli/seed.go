package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/jhoicas/pharma-ledger/internal/infrastructure/legacycsv"
)

// SeedFlags opciones de seed_legacy_catalog.
type SeedFlags struct {
	Input   string
	Charset string
	OutPath string
	Apply   bool
}

// ParseSeedFlags interpreta los argumentos; el primer posicional es el CSV de entrada.
func ParseSeedFlags(args []string) (SeedFlags, error) {
	var f SeedFlags
	fs := pflag.NewFlagSet("seed_legacy_catalog", pflag.ContinueOnError)
	fs.StringVar(&f.Charset, "charset", legacycsv.CharsetUTF8, "codificación del CSV (utf-8 | iso-8859-1)")
	fs.StringVar(&f.OutPath, "out", "", "archivo SQL de salida (por defecto stdout)")
	fs.BoolVar(&f.Apply, "apply", false, "ejecutar el script contra la base configurada")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	if fs.NArg() != 1 {
		return f, errors.New("uso: seed_legacy_catalog [flags] <catalogo.csv>")
	}
	f.Input = fs.Arg(0)
	return f, nil
}

// RunSeed genera el script de legacy_catalog_items. Si exec no es nil, además lo ejecuta.
func RunSeed(ctx context.Context, f SeedFlags, exec func(ctx context.Context, sql string) error, log zerolog.Logger, out io.Writer) int {
	in, err := os.Open(f.Input)
	if err != nil {
		log.Error().Err(err).Msg("abrir CSV")
		return ExitFatal
	}
	defer in.Close()

	items, err := legacycsv.Parse(in, f.Charset)
	if err != nil {
		log.Error().Err(err).Str("file", f.Input).Msg("leer catálogo heredado")
		return ExitFatal
	}
	var buf bytes.Buffer
	if err := legacycsv.WriteSQL(&buf, items, f.Input); err != nil {
		log.Error().Err(err).Msg("generar SQL")
		return ExitFatal
	}

	if f.OutPath != "" {
		if err := os.WriteFile(f.OutPath, buf.Bytes(), 0o644); err != nil {
			log.Error().Err(err).Str("out", f.OutPath).Msg("escribir SQL")
			return ExitFatal
		}
	} else if out != nil {
		if _, err := out.Write(buf.Bytes()); err != nil {
			log.Error().Err(err).Msg("escribir SQL")
			return ExitFatal
		}
	}

	if exec != nil {
		if err := exec(ctx, buf.String()); err != nil {
			log.Error().Err(fmt.Errorf("aplicar script: %w", err)).Msg("siembra fallida")
			return ExitFatal
		}
	}
	log.Info().Int("items", len(items)).Bool("applied", exec != nil).Msg("catálogo heredado generado")
	return ExitOK
}
