// Package backend abre el almacenamiento del ledger según STORE_DRIVER y expone sus repositorios.
package backend

import (
	"context"
	"fmt"

	"github.com/jhoicas/pharma-ledger/internal/application/backup"
	"github.com/jhoicas/pharma-ledger/internal/application/inventory"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
	"github.com/jhoicas/pharma-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/pharma-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/pharma-ledger/pkg/config"
)

// Backend agrupa el TxRunner y los repositorios de lectura fuera de transacción.
type Backend struct {
	Driver        string
	TxRunner      inventory.TxRunner
	Products      repository.ProductRepository
	Batches       repository.BatchRepository
	Receipts      repository.ReceiptRepository
	Suppliers     repository.SupplierRepository
	Users         repository.UserRepository
	LegacyCatalog repository.LegacyCatalogRepository

	close func()
}

// Open conecta con el driver configurado. En postgres aplica el esquema embebido antes de devolver.
func Open(ctx context.Context, cfg config.Config) (*Backend, error) {
	switch cfg.App.StoreDriver {
	case config.StoreDriverMemory:
		return FromMemory(memory.NewStore()), nil
	case config.StoreDriverPostgres, "":
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		if err := postgres.ApplySchema(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("aplicar esquema: %w", err)
		}
		return &Backend{
			Driver:        config.StoreDriverPostgres,
			TxRunner:      postgres.NewTxRunner(pool),
			Products:      postgres.NewProductRepository(pool),
			Batches:       postgres.NewBatchRepository(pool),
			Receipts:      postgres.NewReceiptRepository(pool),
			Suppliers:     postgres.NewSupplierRepository(pool),
			Users:         postgres.NewUserRepository(pool),
			LegacyCatalog: postgres.NewLegacyCatalogRepository(pool),
			close:         pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("store driver desconocido: %q", cfg.App.StoreDriver)
}

// FromMemory envuelve un store en memoria (desarrollo y pruebas).
func FromMemory(s *memory.Store) *Backend {
	return &Backend{
		Driver:        config.StoreDriverMemory,
		TxRunner:      s,
		Products:      s.Products(),
		Batches:       s.Batches(),
		Receipts:      s.Receipts(),
		Suppliers:     s.Suppliers(),
		Users:         s.Users(),
		LegacyCatalog: s.LegacyCatalog(),
		close:         func() {},
	}
}

// BackupSources repositorios que exporta backup_ledger.
func (b *Backend) BackupSources() backup.Sources {
	return backup.Sources{
		Products:      b.Products,
		Batches:       b.Batches,
		Receipts:      b.Receipts,
		Suppliers:     b.Suppliers,
		LegacyCatalog: b.LegacyCatalog,
	}
}

// Close libera el pool (no-op en memoria).
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}
