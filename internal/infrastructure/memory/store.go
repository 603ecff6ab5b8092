// Package memory implementa los puertos del ledger en memoria (tests y entorno de desarrollo).
// Las transacciones usan un diario de deshacer: si la función falla, cada mutación se revierte.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/pharma-ledger/internal/application/inventory"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

var _ inventory.TxRunner = (*Store)(nil)

// Store guarda todas las tablas del ledger en mapas protegidos por un RWMutex.
// Los bloqueos por producto (locks) serializan las unidades de trabajo sobre el mismo producto.
type Store struct {
	mu        sync.RWMutex
	products  map[string]entity.Product
	batches   map[string]entity.Batch
	receipts  map[string]entity.Receipt
	suppliers map[string]entity.Supplier
	users     map[string]entity.User
	legacy    map[string]entity.LegacyCatalogItem

	locks *keyedMutex
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		products:  make(map[string]entity.Product),
		batches:   make(map[string]entity.Batch),
		receipts:  make(map[string]entity.Receipt),
		suppliers: make(map[string]entity.Supplier),
		users:     make(map[string]entity.User),
		legacy:    make(map[string]entity.LegacyCatalogItem),
		locks:     newKeyedMutex(),
	}
}

// Repos devuelve repositorios fuera de transacción (escrituras inmediatas, sin deshacer).
func (s *Store) Repos() inventory.Repos { return s.repos(nil) }

// Products repositorio de productos fuera de transacción.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// Batches repositorio de lotes fuera de transacción.
func (s *Store) Batches() *BatchRepo { return &BatchRepo{s: s} }

// Receipts repositorio de recepciones fuera de transacción.
func (s *Store) Receipts() *ReceiptRepo { return &ReceiptRepo{s: s} }

// Suppliers repositorio de proveedores fuera de transacción.
func (s *Store) Suppliers() *SupplierRepo { return &SupplierRepo{s: s} }

// Users repositorio de operadores fuera de transacción.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// LegacyCatalog repositorio del catálogo plano heredado.
func (s *Store) LegacyCatalog() *LegacyCatalogRepo { return &LegacyCatalogRepo{s: s} }

func (s *Store) repos(j *journal) inventory.Repos {
	return inventory.Repos{
		Products:  &ProductRepo{s: s, j: j},
		Batches:   &BatchRepo{s: s, j: j},
		Receipts:  &ReceiptRepo{s: s, j: j},
		Suppliers: &SupplierRepo{s: s, j: j},
		Users:     &UserRepo{s: s, j: j},
	}
}

// Run ejecuta fn como una transacción sin bloqueo de producto.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, repos inventory.Repos) error) error {
	return s.RunForProducts(ctx, nil, fn)
}

// RunForProducts bloquea los productos en orden ascendente, ejecuta fn y revierte si falla.
func (s *Store) RunForProducts(ctx context.Context, productIDs []string, fn func(ctx context.Context, repos inventory.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.locks.lockAll(productIDs)
	defer unlock()

	j := &journal{}
	if err := fn(ctx, s.repos(j)); err != nil {
		s.mu.Lock()
		j.rollback()
		s.mu.Unlock()
		return err
	}
	return nil
}

// journal acumula funciones de deshacer; se aplican en orden inverso bajo s.mu.
type journal struct {
	undo []func()
}

func (j *journal) record(f func()) {
	if j == nil {
		return
	}
	j.undo = append(j.undo, f)
}

func (j *journal) rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

// keyedMutex un mutex por clave; lockAll adquiere en orden para evitar interbloqueos.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

func (k *keyedMutex) lockAll(keys []string) func() {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	held := make([]*sync.Mutex, 0, len(sorted))
	for i, key := range sorted {
		if i > 0 && sorted[i-1] == key {
			continue
		}
		m := k.get(key)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
