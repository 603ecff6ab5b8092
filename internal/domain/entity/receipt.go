package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una recepción (Import).
const (
	ReceiptStatusCompleted = "completed"
	ReceiptStatusLegacy    = "legacy" // recepción sintetizada por la migración
)

// ReceiptItem es una línea recibida; genera exactamente un lote.
type ReceiptItem struct {
	ProductID   string
	BatchID     string
	BatchNumber string
	Quantity    int64
	UnitCost    decimal.Decimal
	LineTotal   decimal.Decimal
}

// Receipt agrupa los lotes creados en un único evento de recepción.
// Inmutable una vez completada: los totales se fijan al crearla.
type Receipt struct {
	ID            string
	SupplierID    string
	Items         []ReceiptItem
	TotalQuantity int64
	TotalAmount   decimal.Decimal
	Status        string
	Origin        BatchOrigin
	ReceivedBy    string // UserID del operador
	ReceivedAt    time.Time
	Notes         string
	CreatedAt     time.Time
}

// IsLegacy indica si la recepción fue sintetizada por la migración.
func (r *Receipt) IsLegacy() bool { return r.Origin == OriginLegacyMigration }
