package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Origen del registro canónico de producto.
const (
	ProductSourceCanonical = "canonical"      // creado directamente en el catálogo canónico
	ProductSourceLegacy    = "legacy_catalog" // plegado desde el catálogo plano heredado
)

// Product representa un medicamento o SKU del catálogo.
// StockQuantity es un contador desnormalizado: solo el ledger (asignación, reconciliación,
// migración/rollback) lo escribe. InStock se deriva de él.
type Product struct {
	ID                   string
	Name                 string
	Description          string
	Manufacturer         string
	Category             string
	Price                decimal.Decimal
	RequiresPrescription bool
	LotNumber            string     // lote heredado del sistema plano (opcional)
	ExpirationDate       *time.Time // vencimiento heredado del sistema plano (opcional)
	StockQuantity        int64
	InStock              bool
	Source               string     // ver constantes ProductSource*
	LegacyKey            string     // clave natural normalizada del registro heredado de origen
	LegacySyncedAt       *time.Time // UpdatedAt del registro heredado cuyo stock se plegó por última vez
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// LegacyStockDue indica si el stock del registro heredado aún no se plegó en este producto.
// Un registro sin cambios desde el último plegado no vuelve a tocar el contador.
func (p *Product) LegacyStockDue(item *LegacyCatalogItem) bool {
	return p.LegacySyncedAt == nil || item.UpdatedAt.After(*p.LegacySyncedAt)
}

// SetStock actualiza el contador y recalcula InStock.
func (p *Product) SetStock(qty int64, now time.Time) {
	p.StockQuantity = qty
	p.InStock = qty > 0
	p.UpdatedAt = now
}
