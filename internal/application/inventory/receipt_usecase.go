package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

// ReceiptUseCase registra recepciones de proveedor: una Receipt y un lote por línea, todo o nada.
type ReceiptUseCase struct {
	txRunner TxRunner
	now      func() time.Time
}

// NewReceiptUseCase construye el caso de uso.
func NewReceiptUseCase(txRunner TxRunner) *ReceiptUseCase {
	return &ReceiptUseCase{txRunner: txRunner, now: time.Now}
}

// WithClock reemplaza el reloj usado para fechas de recepción.
func (uc *ReceiptUseCase) WithClock(now func() time.Time) *ReceiptUseCase {
	uc.now = now
	return uc
}

// ReceiptLineInput una línea recibida. BatchNumber vacío se genera automáticamente.
type ReceiptLineInput struct {
	ProductID         string
	Quantity          int64
	ExpirationDate    time.Time
	ManufacturingDate *time.Time
	BatchNumber       string
	UnitCost          decimal.Decimal
}

// ReceiptInput entrada de CreateReceipt.
type ReceiptInput struct {
	SupplierID string
	ReceivedBy string
	Notes      string
	Items      []ReceiptLineInput
}

// ReceiptResult recepción creada y sus lotes.
type ReceiptResult struct {
	Receipt *entity.Receipt
	Batches []*entity.Batch
}

// CreateReceipt valida todas las líneas antes de crear nada. Ante cualquier línea inválida devuelve
// *domain.ReceiptValidationError con todas las líneas rechazadas y no persiste ningún lote.
// Los productos involucrados quedan bloqueados durante toda la transacción.
func (uc *ReceiptUseCase) CreateReceipt(ctx context.Context, in ReceiptInput) (*ReceiptResult, error) {
	verr := &domain.ReceiptValidationError{}
	if in.SupplierID == "" {
		verr.Add(-1, "supplier_id", "requerido")
	}
	if len(in.Items) == 0 {
		verr.Add(-1, "items", "la recepción no tiene líneas")
	}
	if verr.HasErrors() {
		return nil, verr
	}
	in.Items = append([]ReceiptLineInput(nil), in.Items...)

	productIDs := make([]string, 0, len(in.Items))
	seenProduct := make(map[string]bool)
	for _, it := range in.Items {
		if it.ProductID != "" && !seenProduct[it.ProductID] {
			seenProduct[it.ProductID] = true
			productIDs = append(productIDs, it.ProductID)
		}
	}
	sort.Strings(productIDs)

	var result *ReceiptResult
	err := uc.txRunner.RunForProducts(ctx, productIDs, func(ctx context.Context, repos Repos) error {
		now := uc.now()

		supplier, err := repos.Suppliers.GetByID(ctx, in.SupplierID)
		if err != nil {
			return err
		}
		if supplier == nil {
			verr.Add(-1, "supplier_id", "proveedor no encontrado")
		}

		products := make(map[string]*entity.Product, len(productIDs))
		existingNumbers := make(map[string]map[string]bool, len(productIDs))
		batchCount := make(map[string]int, len(productIDs))
		for _, id := range productIDs {
			p, err := repos.Products.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if p == nil {
				continue
			}
			products[id] = p
			batches, err := repos.Batches.ListByProduct(ctx, id)
			if err != nil {
				return err
			}
			batchCount[id] = len(batches)
			numbers := make(map[string]bool, len(batches))
			for _, b := range batches {
				numbers[b.BatchNumber] = true
			}
			existingNumbers[id] = numbers
		}

		// Validación completa antes de cualquier escritura.
		for i := range in.Items {
			it := &in.Items[i]
			p := products[it.ProductID]
			switch {
			case it.ProductID == "":
				verr.Add(i, "product_id", "requerido")
			case p == nil:
				verr.Add(i, "product_id", "producto no encontrado")
			case batchCount[it.ProductID] == 0 && p.StockQuantity > 0:
				verr.Add(i, "product_id", "el producto tiene stock plano sin migrar a lotes")
			}
			if it.Quantity <= 0 {
				verr.Add(i, "quantity", "debe ser mayor que cero")
			}
			if it.ExpirationDate.IsZero() {
				verr.Add(i, "expiration_date", "requerida")
			}
			if it.ManufacturingDate != nil && !it.ExpirationDate.IsZero() && it.ManufacturingDate.After(it.ExpirationDate) {
				verr.Add(i, "manufacturing_date", "posterior al vencimiento")
			}
			if it.UnitCost.IsNegative() {
				verr.Add(i, "unit_cost", "no puede ser negativo")
			}
			if it.ProductID == "" || p == nil {
				continue
			}
			if it.BatchNumber == "" {
				it.BatchNumber = nextBatchNumber(existingNumbers[it.ProductID], now)
			}
			if existingNumbers[it.ProductID][it.BatchNumber] {
				verr.Add(i, "batch_number", "el lote "+it.BatchNumber+" ya existe para el producto")
				continue
			}
			existingNumbers[it.ProductID][it.BatchNumber] = true
		}
		if verr.HasErrors() {
			return verr
		}

		receipt := &entity.Receipt{
			ID:          uuid.New().String(),
			SupplierID:  in.SupplierID,
			Status:      entity.ReceiptStatusCompleted,
			Origin:      entity.OriginReceipt,
			ReceivedBy:  in.ReceivedBy,
			ReceivedAt:  now,
			Notes:       in.Notes,
			CreatedAt:   now,
			TotalAmount: decimal.Zero,
		}
		batches := make([]*entity.Batch, 0, len(in.Items))
		received := make(map[string]int64, len(productIDs))
		for _, it := range in.Items {
			b := &entity.Batch{
				ID:                uuid.New().String(),
				ProductID:         it.ProductID,
				BatchNumber:       it.BatchNumber,
				ReceivedQuantity:  it.Quantity,
				RemainingQuantity: it.Quantity,
				ExpirationDate:    it.ExpirationDate,
				ManufacturingDate: it.ManufacturingDate,
				UnitCost:          it.UnitCost,
				Origin:            entity.OriginReceipt,
				ReceiptID:         receipt.ID,
				CreatedAt:         now,
				UpdatedAt:         now,
			}
			lineTotal := it.UnitCost.Mul(decimal.NewFromInt(it.Quantity))
			receipt.Items = append(receipt.Items, entity.ReceiptItem{
				ProductID:   it.ProductID,
				BatchID:     b.ID,
				BatchNumber: b.BatchNumber,
				Quantity:    it.Quantity,
				UnitCost:    it.UnitCost,
				LineTotal:   lineTotal,
			})
			receipt.TotalQuantity += it.Quantity
			receipt.TotalAmount = receipt.TotalAmount.Add(lineTotal)
			received[it.ProductID] += it.Quantity
			batches = append(batches, b)
		}

		if err := repos.Receipts.Create(ctx, receipt); err != nil {
			return err
		}
		for _, b := range batches {
			if err := repos.Batches.Create(ctx, b); err != nil {
				return err
			}
		}
		for _, id := range productIDs {
			stock := products[id].StockQuantity + received[id]
			if err := repos.Products.UpdateStock(ctx, id, stock, stock > 0); err != nil {
				return err
			}
		}
		result = &ReceiptResult{Receipt: receipt, Batches: batches}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// nextBatchNumber genera <YYYYMMDD>-<n> con el primer n libre para el producto.
func nextBatchNumber(existing map[string]bool, now time.Time) string {
	prefix := now.Format("20060102")
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s-%d", prefix, n)
		if !existing[candidate] {
			return candidate
		}
	}
}
