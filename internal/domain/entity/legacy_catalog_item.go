package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LegacyCatalogItem es un registro del catálogo plano heredado (misma entidad semántica que
// Product, distinto almacenamiento). La reconciliación lo pliega en el catálogo canónico por nombre.
type LegacyCatalogItem struct {
	ID                   string
	Name                 string
	Description          string
	Manufacturer         string
	Category             string
	Price                decimal.Decimal
	RequiresPrescription bool
	Stock                int64
	LotNumber            string
	ExpirationDate       *time.Time
	UpdatedAt            time.Time
}
