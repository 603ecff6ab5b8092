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

var _ repository.ReceiptRepository = (*ReceiptRepo)(nil)

var receiptColumns = []string{
	"id", "supplier_id", "total_quantity", "total_amount", "status", "origin",
	"received_by", "received_at", "notes", "created_at",
}

var receiptItemColumns = []string{
	"receipt_id", "line_no", "product_id", "batch_id", "batch_number", "quantity", "unit_cost", "line_total",
}

type receiptRow struct {
	ID            string          `db:"id"`
	SupplierID    string          `db:"supplier_id"`
	TotalQuantity int64           `db:"total_quantity"`
	TotalAmount   decimal.Decimal `db:"total_amount"`
	Status        string          `db:"status"`
	Origin        string          `db:"origin"`
	ReceivedBy    string          `db:"received_by"`
	ReceivedAt    time.Time       `db:"received_at"`
	Notes         string          `db:"notes"`
	CreatedAt     time.Time       `db:"created_at"`
}

type receiptItemRow struct {
	ReceiptID   string          `db:"receipt_id"`
	LineNo      int             `db:"line_no"`
	ProductID   string          `db:"product_id"`
	BatchID     string          `db:"batch_id"`
	BatchNumber string          `db:"batch_number"`
	Quantity    int64           `db:"quantity"`
	UnitCost    decimal.Decimal `db:"unit_cost"`
	LineTotal   decimal.Decimal `db:"line_total"`
}

// ReceiptRepo implementación del puerto ReceiptRepository (cabecera + líneas).
type ReceiptRepo struct {
	q Querier
}

// NewReceiptRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReceiptRepository(q Querier) *ReceiptRepo {
	return &ReceiptRepo{q: q}
}

// Create persiste la cabecera y sus líneas. Debe llamarse dentro de una tx.
func (r *ReceiptRepo) Create(ctx context.Context, rc *entity.Receipt) error {
	if rc.CreatedAt.IsZero() {
		rc.CreatedAt = time.Now()
	}
	sql, args, err := psql.Insert("receipts").Columns(receiptColumns...).Values(
		rc.ID, rc.SupplierID, rc.TotalQuantity, rc.TotalAmount, rc.Status, string(rc.Origin),
		rc.ReceivedBy, rc.ReceivedAt, rc.Notes, rc.CreatedAt,
	).ToSql()
	if err != nil {
		return fmt.Errorf("build insert receipt: %w", err)
	}
	if _, err := r.q.Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert receipt: %w", err)
	}
	if len(rc.Items) == 0 {
		return nil
	}

	ins := psql.Insert("receipt_items").Columns(receiptItemColumns...)
	for i, it := range rc.Items {
		ins = ins.Values(rc.ID, i, it.ProductID, it.BatchID, it.BatchNumber, it.Quantity, it.UnitCost, it.LineTotal)
	}
	sql, args, err = ins.ToSql()
	if err != nil {
		return fmt.Errorf("build insert receipt items: %w", err)
	}
	if _, err := r.q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert receipt items: %w", err)
	}
	return nil
}

// GetByID obtiene una recepción con sus líneas. Devuelve (nil, nil) si no existe.
func (r *ReceiptRepo) GetByID(ctx context.Context, id string) (*entity.Receipt, error) {
	out, err := r.selectWhere(ctx, squirrel.Eq{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// ListByOrigin recepciones de un origen.
func (r *ReceiptRepo) ListByOrigin(ctx context.Context, origin entity.BatchOrigin) ([]*entity.Receipt, error) {
	out, err := r.selectWhere(ctx, squirrel.Eq{"origin": string(origin)})
	if err != nil {
		return nil, fmt.Errorf("list receipts by origin: %w", err)
	}
	return out, nil
}

// ListAll todas las recepciones.
func (r *ReceiptRepo) ListAll(ctx context.Context) ([]*entity.Receipt, error) {
	out, err := r.selectWhere(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	return out, nil
}

// Delete elimina la recepción (las líneas caen por ON DELETE CASCADE).
func (r *ReceiptRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM receipts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete receipt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ReceiptRepo) selectWhere(ctx context.Context, pred squirrel.Sqlizer) ([]*entity.Receipt, error) {
	q := psql.Select(receiptColumns...).From("receipts").OrderBy("received_at", "id")
	if pred != nil {
		q = q.Where(pred)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	var rows []receiptRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	var items []receiptItemRow
	if err := pgxscan.Select(ctx, r.q, &items,
		`SELECT `+columnList(receiptItemColumns)+` FROM receipt_items WHERE receipt_id = ANY($1) ORDER BY receipt_id, line_no`,
		ids); err != nil {
		return nil, fmt.Errorf("list receipt items: %w", err)
	}
	byReceipt := make(map[string][]entity.ReceiptItem, len(rows))
	for _, it := range items {
		byReceipt[it.ReceiptID] = append(byReceipt[it.ReceiptID], entity.ReceiptItem{
			ProductID: it.ProductID, BatchID: it.BatchID, BatchNumber: it.BatchNumber,
			Quantity: it.Quantity, UnitCost: it.UnitCost, LineTotal: it.LineTotal,
		})
	}

	out := make([]*entity.Receipt, 0, len(rows))
	for _, row := range rows {
		out = append(out, &entity.Receipt{
			ID: row.ID, SupplierID: row.SupplierID, Items: byReceipt[row.ID],
			TotalQuantity: row.TotalQuantity, TotalAmount: row.TotalAmount,
			Status: row.Status, Origin: entity.BatchOrigin(row.Origin),
			ReceivedBy: row.ReceivedBy, ReceivedAt: row.ReceivedAt, Notes: row.Notes, CreatedAt: row.CreatedAt,
		})
	}
	return out, nil
}
