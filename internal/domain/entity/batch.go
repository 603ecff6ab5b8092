package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchOrigin indica cómo nació un lote (o la recepción que lo creó).
type BatchOrigin string

const (
	OriginReceipt         BatchOrigin = "receipt"          // recepción ordinaria de proveedor
	OriginLegacyMigration BatchOrigin = "legacy_migration" // sintetizado por la migración del stock plano
)

// Valid indica si el origen es uno de los conocidos.
func (o BatchOrigin) Valid() bool {
	return o == OriginReceipt || o == OriginLegacyMigration
}

// Batch representa un lote físico de un producto con un único vencimiento.
// ReceivedQuantity es inmutable; RemainingQuantity solo decrece (salvo herramientas de corrección).
type Batch struct {
	ID                string
	ProductID         string
	BatchNumber       string // legible, único por producto
	ReceivedQuantity  int64
	RemainingQuantity int64
	ExpirationDate    time.Time
	ManufacturingDate *time.Time
	UnitCost          decimal.Decimal
	Origin            BatchOrigin
	ReceiptID         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsLegacy indica si el lote fue sintetizado por la migración.
func (b *Batch) IsLegacy() bool { return b.Origin == OriginLegacyMigration }

// IsExpiredAt indica si el lote venció antes del día de ref. Un lote que vence hoy sigue vendible.
// El día se toma en UTC, igual que las fechas de vencimiento almacenadas.
func (b *Batch) IsExpiredAt(ref time.Time) bool {
	y, m, d := ref.UTC().Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return b.ExpirationDate.Before(startOfDay)
}
