package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptItemRequest una línea de POST /api/receipts.
type ReceiptItemRequest struct {
	ProductID         string          `json:"product_id"`
	Quantity          int64           `json:"quantity"`
	ExpirationDate    *time.Time      `json:"expiration_date"`
	ManufacturingDate *time.Time      `json:"manufacturing_date,omitempty"`
	BatchNumber       string          `json:"batch_number,omitempty"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
}

// CreateReceiptRequest body para POST /api/receipts.
type CreateReceiptRequest struct {
	SupplierID string               `json:"supplier_id"`
	Notes      string               `json:"notes,omitempty"`
	Items      []ReceiptItemRequest `json:"items"`
}

// ReceiptItemResponse línea de una recepción creada.
type ReceiptItemResponse struct {
	ProductID   string          `json:"product_id"`
	BatchID     string          `json:"batch_id"`
	BatchNumber string          `json:"batch_number"`
	Quantity    int64           `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// ReceiptResponse salida de una recepción.
type ReceiptResponse struct {
	ID            string                `json:"id"`
	SupplierID    string                `json:"supplier_id"`
	Status        string                `json:"status"`
	Origin        string                `json:"origin"`
	TotalQuantity int64                 `json:"total_quantity"`
	TotalAmount   decimal.Decimal       `json:"total_amount"`
	ReceivedBy    string                `json:"received_by"`
	ReceivedAt    time.Time             `json:"received_at"`
	Items         []ReceiptItemResponse `json:"items"`
}

// BatchResponse salida de un lote.
type BatchResponse struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	BatchNumber       string          `json:"batch_number"`
	ReceivedQuantity  int64           `json:"received_quantity"`
	RemainingQuantity int64           `json:"remaining_quantity"`
	ExpirationDate    time.Time       `json:"expiration_date"`
	ManufacturingDate *time.Time      `json:"manufacturing_date,omitempty"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	Origin            string          `json:"origin"`
	ReceiptID         string          `json:"receipt_id"`
}

// ConsumeRequest body para POST /api/allocations.
type ConsumeRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

// DeductionDTO descuento aplicado a un lote.
type DeductionDTO struct {
	BatchID     string    `json:"batch_id"`
	BatchNumber string    `json:"batch_number"`
	Quantity    int64     `json:"quantity"`
	Expiration  time.Time `json:"expiration_date"`
}

// AllocationResponse salida de un consumo FEFO exitoso.
type AllocationResponse struct {
	Success    bool           `json:"success"`
	ProductID  string         `json:"product_id"`
	Quantity   int64          `json:"quantity"`
	StockAfter int64          `json:"stock_after"`
	Deductions []DeductionDTO `json:"batch_deductions"`
}

// AvailabilityResponse disponibilidad para el catálogo.
type AvailabilityResponse struct {
	ProductID  string     `json:"product_id"`
	Available  int64      `json:"available"`
	NextExpiry *time.Time `json:"next_expiry"`
}

// FoldResponse resultado del plegado del catálogo heredado.
type FoldResponse struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
}

// StockDriftDTO un contador corregido por la reconciliación.
type StockDriftDTO struct {
	ProductID string `json:"product_id"`
	Counter   int64  `json:"counter"`
	LedgerSum int64  `json:"ledger_sum"`
}

// StockReconcileResponse resultado de la verificación contador/ledger.
type StockReconcileResponse struct {
	Checked   int             `json:"checked"`
	Corrected int             `json:"corrected"`
	Failed    int             `json:"failed"`
	Drifts    []StockDriftDTO `json:"drifts"`
}
