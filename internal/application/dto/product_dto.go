package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto. El stock nace en 0 y solo lo mueve el ledger.
type CreateProductRequest struct {
	Name                 string          `json:"name" validate:"required,min=1,max=255"`
	Description          string          `json:"description"`
	Manufacturer         string          `json:"manufacturer"`
	Category             string          `json:"category"`
	Price                decimal.Decimal `json:"price"`
	RequiresPrescription bool            `json:"requires_prescription"`
}

// UpdateProductRequest entrada para actualizar un producto (sin stock).
type UpdateProductRequest struct {
	Name                 *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description          *string          `json:"description"`
	Manufacturer         *string          `json:"manufacturer"`
	Category             *string          `json:"category"`
	Price                *decimal.Decimal `json:"price"`
	RequiresPrescription *bool            `json:"requires_prescription"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	Description          string          `json:"description"`
	Manufacturer         string          `json:"manufacturer"`
	Category             string          `json:"category"`
	Price                decimal.Decimal `json:"price"`
	RequiresPrescription bool            `json:"requires_prescription"`
	StockQuantity        int64           `json:"stock_quantity"`
	InStock              bool            `json:"in_stock"`
	Source               string          `json:"source"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
