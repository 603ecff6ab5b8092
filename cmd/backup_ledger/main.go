// backup_ledger exporta productos, lotes, recepciones, proveedores y catálogo heredado a JSON y JSON+zstd.
//
// Uso: go run ./cmd/backup_ledger [--out directorio]
// Por defecto escribe en <BACKUP_DIR>/<timestamp>.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jhoicas/pharma-ledger/internal/infrastructure/backend"
	"github.com/jhoicas/pharma-ledger/internal/interfaces/cli"
	"github.com/jhoicas/pharma-ledger/pkg/config"
	"github.com/jhoicas/pharma-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(cli.ExitFatal)
	}
	flags, err := cli.ParseBackupFlags(os.Args[1:], cfg.Backup.Dir, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "flags: %v\n", err)
		os.Exit(cli.ExitFatal)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "backup_ledger", Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, *cfg)
	if err != nil {
		log.Error().Err(err).Msg("abrir almacenamiento")
		os.Exit(cli.ExitFatal)
	}
	code := cli.RunBackup(ctx, store, flags, log.Component("backup_ledger"), os.Stdout)
	store.Close()
	os.Exit(code)
}
