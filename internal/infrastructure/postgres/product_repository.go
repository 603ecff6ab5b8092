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

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productsTable = "products"

var productColumns = []string{
	"id", "name", "description", "manufacturer", "category", "price", "requires_prescription",
	"lot_number", "expiration_date", "stock_quantity", "in_stock", "source", "legacy_key",
	"legacy_synced_at", "created_at", "updated_at",
}

type productRow struct {
	ID                   string          `db:"id"`
	Name                 string          `db:"name"`
	Description          string          `db:"description"`
	Manufacturer         string          `db:"manufacturer"`
	Category             string          `db:"category"`
	Price                decimal.Decimal `db:"price"`
	RequiresPrescription bool            `db:"requires_prescription"`
	LotNumber            string          `db:"lot_number"`
	ExpirationDate       *time.Time      `db:"expiration_date"`
	StockQuantity        int64           `db:"stock_quantity"`
	InStock              bool            `db:"in_stock"`
	Source               string          `db:"source"`
	LegacyKey            string          `db:"legacy_key"`
	LegacySyncedAt       *time.Time      `db:"legacy_synced_at"`
	CreatedAt            time.Time       `db:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at"`
}

func (r productRow) toEntity() *entity.Product {
	return &entity.Product{
		ID: r.ID, Name: r.Name, Description: r.Description, Manufacturer: r.Manufacturer,
		Category: r.Category, Price: r.Price, RequiresPrescription: r.RequiresPrescription,
		LotNumber: r.LotNumber, ExpirationDate: r.ExpirationDate, StockQuantity: r.StockQuantity,
		InStock: r.InStock, Source: r.Source, LegacyKey: r.LegacyKey, LegacySyncedAt: r.LegacySyncedAt,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	if p.Source == "" {
		p.Source = entity.ProductSourceCanonical
	}
	sql, args, err := psql.Insert(productsTable).Columns(productColumns...).Values(
		p.ID, p.Name, p.Description, p.Manufacturer, p.Category, p.Price, p.RequiresPrescription,
		p.LotNumber, p.ExpirationDate, p.StockQuantity, p.InStock, p.Source, p.LegacyKey,
		p.LegacySyncedAt, p.CreatedAt, p.UpdatedAt,
	).ToSql()
	if err != nil {
		return fmt.Errorf("build insert product: %w", err)
	}
	if _, err := r.q.Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID. Devuelve (nil, nil) si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	rows, err := r.selectWhere(ctx, squirrel.Eq{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Update modifica los campos descriptivos. El contador se escribe solo vía UpdateStock.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	sql, args, err := psql.Update(productsTable).SetMap(map[string]any{
		"name":                  p.Name,
		"description":           p.Description,
		"manufacturer":          p.Manufacturer,
		"category":              p.Category,
		"price":                 p.Price,
		"requires_prescription": p.RequiresPrescription,
		"lot_number":            p.LotNumber,
		"expiration_date":       p.ExpirationDate,
		"source":                p.Source,
		"legacy_key":            p.LegacyKey,
		"legacy_synced_at":      p.LegacySyncedAt,
		"updated_at":            p.UpdatedAt,
	}).Where(squirrel.Eq{"id": p.ID}).ToSql()
	if err != nil {
		return fmt.Errorf("build update product: %w", err)
	}
	tag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update product %s: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}

// UpdateStock escribe el contador desnormalizado y el flag derivado.
func (r *ProductRepo) UpdateStock(ctx context.Context, productID string, quantity int64, inStock bool) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE products SET stock_quantity = $2, in_stock = $3, updated_at = now() WHERE id = $1`,
		productID, quantity, inStock)
	if err != nil {
		return fmt.Errorf("update product stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update product stock %s: %w", productID, domain.ErrNotFound)
	}
	return nil
}

// ListWithStock productos con contador positivo, ordenados por ID.
func (r *ProductRepo) ListWithStock(ctx context.Context) ([]*entity.Product, error) {
	out, err := r.selectWhere(ctx, squirrel.Gt{"stock_quantity": 0})
	if err != nil {
		return nil, fmt.Errorf("list products with stock: %w", err)
	}
	return out, nil
}

// ListAll todos los productos ordenados por ID.
func (r *ProductRepo) ListAll(ctx context.Context) ([]*entity.Product, error) {
	out, err := r.selectWhere(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

// Delete elimina un producto por ID.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProductRepo) selectWhere(ctx context.Context, pred squirrel.Sqlizer) ([]*entity.Product, error) {
	q := psql.Select(productColumns...).From(productsTable).OrderBy("id")
	if pred != nil {
		q = q.Where(pred)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	var rows []productRow
	if err := pgxscan.Select(ctx, r.q, &rows, sql, args...); err != nil {
		return nil, err
	}
	out := make([]*entity.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}
