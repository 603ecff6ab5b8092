package postgres

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/pharma-ledger/internal/application/inventory"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

var tracer = otel.Tracer("pharma-ledger/tx")

// DefaultStatementTimeout protege contra consultas que bloquean la tx indefinidamente.
const DefaultStatementTimeout = 30 * time.Second

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool             *pgxpool.Pool
	statementTimeout time.Duration
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool, statementTimeout: DefaultStatementTimeout}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, repos inventory.Repos) error) error {
	return r.RunForProducts(ctx, nil, fn)
}

// RunForProducts bloquea las filas de los productos (SELECT ... FOR UPDATE en orden de ID) antes de ejecutar fn.
// Dos unidades de trabajo sobre el mismo producto se serializan; el orden fijo evita interbloqueos.
func (r *TxRunner) RunForProducts(ctx context.Context, productIDs []string, fn func(ctx context.Context, repos inventory.Repos) error) (err error) {
	ids := uniqueSorted(productIDs)
	ctx, span := tracer.Start(ctx, "ledger.transaction",
		trace.WithAttributes(attribute.Int("ledger.locked_products", len(ids))))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	if r.statementTimeout > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", r.statementTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("set statement_timeout: %w", err)
		}
	}
	if len(ids) > 0 {
		rows, err := tx.Query(ctx, `SELECT id FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
		if err != nil {
			return fmt.Errorf("lock products: %w", err)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("lock products: %w", err)
		}
	}

	if err := fn(ctx, reposFor(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// reposFor construye los repositorios del ledger sobre un Querier (pool o tx).
func reposFor(q Querier) inventory.Repos {
	return inventory.Repos{
		Products:  NewProductRepository(q),
		Batches:   NewBatchRepository(q),
		Receipts:  NewReceiptRepository(q),
		Suppliers: NewSupplierRepository(q),
		Users:     NewUserRepository(q),
	}
}

func uniqueSorted(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	n := 0
	for i, id := range out {
		if i > 0 && out[n-1] == id {
			continue
		}
		out[n] = id
		n++
	}
	return out[:n]
}
