package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

var _ repository.SupplierRepository = (*SupplierRepo)(nil)

// SupplierRepo implementación del puerto SupplierRepository.
type SupplierRepo struct {
	q Querier
}

// NewSupplierRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSupplierRepository(q Querier) *SupplierRepo {
	return &SupplierRepo{q: q}
}

// Create persiste un proveedor. Código repetido → ErrDuplicate.
func (r *SupplierRepo) Create(ctx context.Context, s *entity.Supplier) error {
	query := `
		INSERT INTO suppliers (id, code, name, system, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, s.ID, s.Code, s.Name, s.System, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert supplier: %w", err)
	}
	return nil
}

// GetByID obtiene un proveedor por ID.
func (r *SupplierRepo) GetByID(ctx context.Context, id string) (*entity.Supplier, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

// GetByCode obtiene un proveedor por código.
func (r *SupplierRepo) GetByCode(ctx context.Context, code string) (*entity.Supplier, error) {
	return r.findOne(ctx, `WHERE code = $1`, code)
}

// ListAll todos los proveedores ordenados por código.
func (r *SupplierRepo) ListAll(ctx context.Context) ([]*entity.Supplier, error) {
	rows, err := r.q.Query(ctx, `SELECT id, code, name, system, created_at, updated_at FROM suppliers ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list suppliers: %w", err)
	}
	defer rows.Close()
	var list []*entity.Supplier
	for rows.Next() {
		var s entity.Supplier
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.System, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

func (r *SupplierRepo) findOne(ctx context.Context, where string, arg any) (*entity.Supplier, error) {
	var s entity.Supplier
	err := r.q.QueryRow(ctx, `SELECT id, code, name, system, created_at, updated_at FROM suppliers `+where, arg).Scan(
		&s.ID, &s.Code, &s.Name, &s.System, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get supplier: %w", err)
	}
	return &s, nil
}
