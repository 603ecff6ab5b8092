package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/ledger"
	"github.com/jhoicas/pharma-ledger/internal/domain/repository"
)

// AllocationUseCase consume stock por lotes en orden FEFO (First-Expired-First-Out).
type AllocationUseCase struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	batchRepo   repository.BatchRepository
	now         func() time.Time
}

// NewAllocationUseCase construye el caso de uso. productRepo y batchRepo se usan solo para lecturas
// fuera de transacción (disponibilidad y listados).
func NewAllocationUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	batchRepo repository.BatchRepository,
) *AllocationUseCase {
	return &AllocationUseCase{
		txRunner:    txRunner,
		productRepo: productRepo,
		batchRepo:   batchRepo,
		now:         time.Now,
	}
}

// WithClock reemplaza el reloj (fecha de corte para vencimientos).
func (uc *AllocationUseCase) WithClock(now func() time.Time) *AllocationUseCase {
	uc.now = now
	return uc
}

// AllocationResult detalle de un consumo exitoso.
type AllocationResult struct {
	ProductID  string
	Quantity   int64
	Deductions []ledger.Deduction
	StockAfter int64
}

// Availability vista de disponibilidad para el catálogo (solo lectura).
type Availability struct {
	ProductID  string
	Available  int64
	NextExpiry *time.Time
}

// Consume bloquea el producto, planifica FEFO y aplica los descuentos junto con el nuevo contador en la
// misma transacción. Si el plan no se puede cubrir devuelve *domain.InsufficientStockError y ningún
// lote cambia.
func (uc *AllocationUseCase) Consume(ctx context.Context, productID string, quantity int64) (*AllocationResult, error) {
	if productID == "" || quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	var result *AllocationResult
	err := uc.txRunner.RunForProducts(ctx, []string{productID}, func(ctx context.Context, repos Repos) error {
		product, err := repos.Products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		batches, err := repos.Batches.ListByProduct(ctx, productID)
		if err != nil {
			return err
		}
		plan, err := ledger.PlanFEFO(productID, batches, quantity, uc.now())
		if err != nil {
			return err
		}
		for _, d := range plan {
			if err := repos.Batches.AdjustRemaining(ctx, d.BatchID, -d.Quantity); err != nil {
				return err
			}
		}
		stock := product.StockQuantity - quantity
		if stock < 0 {
			// contador desalineado: el ledger manda
			stock = ledger.SumRemaining(batches) - quantity
		}
		if err := repos.Products.UpdateStock(ctx, productID, stock, stock > 0); err != nil {
			return err
		}
		result = &AllocationResult{
			ProductID:  productID,
			Quantity:   quantity,
			Deductions: plan,
			StockAfter: stock,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetAvailability devuelve el saldo vendible (no vencido) y el próximo vencimiento. Un producto sin lotes
// todavía no migrado muestra su contador plano y sin vencimiento.
func (uc *AllocationUseCase) GetAvailability(ctx context.Context, productID string) (*Availability, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	batches, err := uc.batchRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(batches) == 0 {
		return &Availability{ProductID: productID, Available: product.StockQuantity}, nil
	}
	available, next := ledger.Availability(batches, uc.now())
	return &Availability{ProductID: productID, Available: available, NextExpiry: next}, nil
}

// GetBatchesForProduct lista los lotes del producto en orden FEFO.
func (uc *AllocationUseCase) GetBatchesForProduct(ctx context.Context, productID string) ([]*entity.Batch, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	batches, err := uc.batchRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	ledger.SortFEFO(batches)
	return batches, nil
}
