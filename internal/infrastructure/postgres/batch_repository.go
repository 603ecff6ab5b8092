package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

var _ repository.BatchRepository = (*BatchRepo)(nil)

const batchesTable = "batches"

var batchColumns = []string{
	"id", "product_id", "batch_number", "received_quantity", "remaining_quantity",
	"expiration_date", "manufacturing_date", "unit_cost", "origin", "receipt_id",
	"created_at", "updated_at",
}

// fefoOrder orden de consumo: vencimiento, luego el lote más pequeño, luego ID.
var fefoOrder = []string{"expiration_date ASC", "received_quantity ASC", "id ASC"}

type batchRow struct {
	ID                string          `db:"id"`
	ProductID         string          `db:"product_id"`
	BatchNumber       string          `db:"batch_number"`
	ReceivedQuantity  int64           `db:"received_quantity"`
	RemainingQuantity int64           `db:"remaining_quantity"`
	ExpirationDate    time.Time       `db:"expiration_date"`
	ManufacturingDate *time.Time      `db:"manufacturing_date"`
	UnitCost          decimal.Decimal `db:"unit_cost"`
	Origin            string          `db:"origin"`
	ReceiptID         string          `db:"receipt_id"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
}

func (r batchRow) toEntity() *entity.Batch {
	return &entity.Batch{
		ID: r.ID, ProductID: r.ProductID, BatchNumber: r.BatchNumber,
		ReceivedQuantity: r.ReceivedQuantity, RemainingQuantity: r.RemainingQuantity,
		ExpirationDate: r.ExpirationDate, ManufacturingDate: r.ManufacturingDate,
		UnitCost: r.UnitCost, Origin: entity.BatchOrigin(r.Origin), ReceiptID: r.ReceiptID,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

// BatchRepo implementación del puerto BatchRepository sobre PostgreSQL.
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

// Create persiste un lote. Número de lote repetido dentro del producto → ErrDuplicate.
func (r *BatchRepo) Create(ctx context.Context, b *entity.Batch) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}
	sql, args, err := psql.Insert(batchesTable).Columns(batchColumns...).Values(
		b.ID, b.ProductID, b.BatchNumber, b.ReceivedQuantity, b.RemainingQuantity,
		b.ExpirationDate, b.ManufacturingDate, b.UnitCost, string(b.Origin), b.ReceiptID,
		b.CreatedAt, b.UpdatedAt,
	).ToSql()
	if err != nil {
		return fmt.Errorf("build insert batch: %w", err)
	}
	if _, err := r.q.Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("lote %s del producto %s: %w", b.BatchNumber, b.ProductID, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// GetByID obtiene un lote. Devuelve (nil, nil) si no existe.
func (r *BatchRepo) GetByID(ctx context.Context, id string) (*entity.Batch, error) {
	out, err := r.selectWhere(ctx, squirrel.Eq{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get batch: %w", err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// ListByProduct lotes del producto en orden FEFO.
func (r *BatchRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.Batch, error) {
	out, err := r.selectWhere(ctx, squirrel.Eq{"product_id": productID})
	if err != nil {
		return nil, fmt.Errorf("list batches by product: %w", err)
	}
	return out, nil
}

// CountByProduct número de lotes del producto (incluidos los agotados).
func (r *BatchRepo) CountByProduct(ctx context.Context, productID string) (int, error) {
	return r.count(ctx, squirrel.Eq{"product_id": productID})
}

// AdjustRemaining aplica delta al saldo del lote si el resultado queda en [0, recibido].
func (r *BatchRepo) AdjustRemaining(ctx context.Context, batchID string, delta int64) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE batches
		SET remaining_quantity = remaining_quantity + $2, updated_at = now()
		WHERE id = $1
		  AND remaining_quantity + $2 >= 0
		  AND remaining_quantity + $2 <= received_quantity`,
		batchID, delta)
	if err != nil {
		return fmt.Errorf("adjust batch remaining: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	b, err := r.GetByID(ctx, batchID)
	if err != nil {
		return err
	}
	if b == nil {
		return fmt.Errorf("lote %s: %w", batchID, domain.ErrNotFound)
	}
	return fmt.Errorf("lote %s: saldo %d con delta %d fuera de [0, %d]: %w",
		batchID, b.RemainingQuantity, delta, b.ReceivedQuantity, domain.ErrConflict)
}

// ListProductIDs productos con al menos un lote.
func (r *BatchRepo) ListProductIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := pgxscan.Select(ctx, r.q, &ids, `SELECT DISTINCT product_id FROM batches ORDER BY product_id`); err != nil {
		return nil, fmt.Errorf("list batch products: %w", err)
	}
	return ids, nil
}

// ListByOrigin lotes de un origen.
func (r *BatchRepo) ListByOrigin(ctx context.Context, origin entity.BatchOrigin) ([]*entity.Batch, error) {
	out, err := r.selectWhere(ctx, squirrel.Eq{"origin": string(origin)})
	if err != nil {
		return nil, fmt.Errorf("list batches by origin: %w", err)
	}
	return out, nil
}

// CountByOrigin número de lotes de un origen.
func (r *BatchRepo) CountByOrigin(ctx context.Context, origin entity.BatchOrigin) (int, error) {
	return r.count(ctx, squirrel.Eq{"origin": string(origin)})
}

// CountByReceipt número de lotes que referencian la recepción.
func (r *BatchRepo) CountByReceipt(ctx context.Context, receiptID string) (int, error) {
	return r.count(ctx, squirrel.Eq{"receipt_id": receiptID})
}

// ListAll todos los lotes.
func (r *BatchRepo) ListAll(ctx context.Context) ([]*entity.Batch, error) {
	out, err := r.selectWhere(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return out, nil
}

// Delete elimina un lote.
func (r *BatchRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM batches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *BatchRepo) selectWhere(ctx context.Context, pred squirrel.Sqlizer) ([]*entity.Batch, error) {
	q := psql.Select(batchColumns...).From(batchesTable).OrderBy("product_id").OrderBy(fefoOrder...)
	if pred != nil {
		q = q.Where(pred)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	var rows []batchRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, err
	}
	out := make([]*entity.Batch, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

func (r *BatchRepo) count(ctx context.Context, pred squirrel.Sqlizer) (int, error) {
	sql, args, err := psql.Select("COUNT(*)").From(batchesTable).Where(pred).ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.q.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count batches: %w", err)
	}
	return n, nil
}
