// rollback_batches elimina los lotes creados por migrate_batches.
//
// Uso: go run ./cmd/rollback_batches [--keep-stock] [--delete-receipts] [--summary ruta.json]
// Salida: 0 sin fallos, 1 error fatal, 2 fallos por producto o lotes heredados rezagados.
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
	flags, err := cli.ParseRollbackFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "flags: %v\n", err)
		os.Exit(cli.ExitFatal)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(cli.ExitFatal)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "rollback_batches", Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, *cfg)
	if err != nil {
		log.Error().Err(err).Msg("abrir almacenamiento")
		os.Exit(cli.ExitFatal)
	}
	code := cli.RunRollback(ctx, store, flags, log.Component("rollback_batches"), os.Stdout)
	store.Close()
	os.Exit(code)
}
