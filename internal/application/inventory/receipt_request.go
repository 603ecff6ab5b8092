package inventory

import (
	"context"

	"github.com/jhoicas/pharma-ledger/internal/application/dto"
)

// CreateReceiptFromRequest adapta el request HTTP al caso de uso CreateReceipt(ctx, ReceiptInput).
// userID es el operador autenticado que recibe la mercancía.
func (uc *ReceiptUseCase) CreateReceiptFromRequest(ctx context.Context, userID string, in dto.CreateReceiptRequest) (*ReceiptResult, error) {
	input := ReceiptInput{
		SupplierID: in.SupplierID,
		ReceivedBy: userID,
		Notes:      in.Notes,
		Items:      make([]ReceiptLineInput, 0, len(in.Items)),
	}
	for _, it := range in.Items {
		line := ReceiptLineInput{
			ProductID:         it.ProductID,
			Quantity:          it.Quantity,
			ManufacturingDate: it.ManufacturingDate,
			BatchNumber:       it.BatchNumber,
			UnitCost:          it.UnitCost,
		}
		if it.ExpirationDate != nil {
			line.ExpirationDate = *it.ExpirationDate
		}
		input.Items = append(input.Items, line)
	}
	return uc.CreateReceipt(ctx, input)
}
