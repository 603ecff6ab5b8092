// migrate_batches convierte el stock plano de los productos sin lotes en lotes heredados.
//
// Uso: go run ./cmd/migrate_batches [--dry-run] [--summary ruta.json]
// Salida: 0 sin fallos, 1 error fatal, 2 fallos por producto o desajustes en la verificación.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/pharma-ledger/internal/infrastructure/backend"
	"github.com/jhoicas/pharma-ledger/internal/interfaces/cli"
	"github.com/jhoicas/pharma-ledger/pkg/config"
	"github.com/jhoicas/pharma-ledger/pkg/logger"
)

func main() {
	flags, err := cli.ParseMigrateFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "flags: %v\n", err)
		os.Exit(cli.ExitFatal)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(cli.ExitFatal)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "migrate_batches", Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, *cfg)
	if err != nil {
		log.Error().Err(err).Msg("abrir almacenamiento")
		os.Exit(cli.ExitFatal)
	}
	code := cli.RunMigrate(ctx, store, flags, log.Component("migrate_batches"), os.Stdout)
	store.Close()
	os.Exit(code)
}
