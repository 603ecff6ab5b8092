// seed_legacy_catalog genera el script SQL que puebla legacy_catalog_items a partir de la exportación
// CSV del sistema plano (UTF-8 o ISO-8859-1).
//
// Uso: go run ./cmd/seed_legacy_catalog [--charset iso-8859-1] [--out seed.sql] [--apply] catalogo.csv
// Sin --out el script se escribe en stdout. Con --apply además se ejecuta contra DB_*/DATABASE_URL.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jhoicas/pharma-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/pharma-ledger/internal/interfaces/cli"
	"github.com/jhoicas/pharma-ledger/pkg/config"
	"github.com/jhoicas/pharma-ledger/pkg/logger"
)

func main() {
	flags, err := cli.ParseSeedFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(cli.ExitFatal)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(cli.ExitFatal)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "seed_legacy_catalog", Out: os.Stderr})
	ctx := context.Background()

	var exec func(ctx context.Context, sql string) error
	if flags.Apply {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Error().Err(err).Msg("conexión a PostgreSQL")
			os.Exit(cli.ExitFatal)
		}
		defer pool.Close()
		if err := postgres.ApplySchema(ctx, pool); err != nil {
			log.Error().Err(err).Msg("aplicar esquema")
			os.Exit(cli.ExitFatal)
		}
		exec = func(ctx context.Context, sql string) error {
			_, err := pool.Exec(ctx, sql)
			return err
		}
	}
	code := cli.RunSeed(ctx, flags, exec, log.Component("seed_legacy_catalog"), os.Stdout)
	if code != cli.ExitOK {
		os.Exit(code)
	}
}
