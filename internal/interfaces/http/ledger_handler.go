package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/application/inventory"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

// LedgerHandler expone recepciones, consumo FEFO y consultas de lotes.
type LedgerHandler struct {
	receipts   *inventory.ReceiptUseCase
	allocation *inventory.AllocationUseCase
}

// NewLedgerHandler construye el handler del ledger.
func NewLedgerHandler(receipts *inventory.ReceiptUseCase, allocation *inventory.AllocationUseCase) *LedgerHandler {
	return &LedgerHandler{receipts: receipts, allocation: allocation}
}

// CreateReceipt godoc
// @Summary      Registrar recepción de proveedor
// @Description  Crea una recepción y un lote por línea. Si alguna línea es inválida no se crea nada.
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateReceiptRequest  true  "proveedor e ítems"
// @Success      201   {object}  dto.ReceiptResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/receipts [post]
func (h *LedgerHandler) CreateReceipt(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "usuario no identificado"})
	}
	var in dto.CreateReceiptRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.receipts.CreateReceiptFromRequest(c.UserContext(), userID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toReceiptResponse(res.Receipt))
}

// ListBatches godoc
// @Summary      Lotes de un producto en orden FEFO
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {array}   dto.BatchResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/batches [get]
func (h *LedgerHandler) ListBatches(c *fiber.Ctx) error {
	batches, err := h.allocation.GetBatchesForProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.BatchResponse, 0, len(batches))
	for _, b := range batches {
		out = append(out, toBatchResponse(b))
	}
	return c.JSON(out)
}

// Availability godoc
// @Summary      Disponibilidad vendible de un producto
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.AvailabilityResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/availability [get]
func (h *LedgerHandler) Availability(c *fiber.Ctx) error {
	av, err := h.allocation.GetAvailability(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.AvailabilityResponse{
		ProductID:  av.ProductID,
		Available:  av.Available,
		NextExpiry: av.NextExpiry,
	})
}

// Consume godoc
// @Summary      Consumir stock (FEFO)
// @Description  Descuenta la cantidad de los lotes no vencidos que vencen primero.
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ConsumeRequest  true  "producto y cantidad"
// @Success      200   {object}  dto.AllocationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/allocations [post]
func (h *LedgerHandler) Consume(c *fiber.Ctx) error {
	var in dto.ConsumeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.ProductID == "" || in.Quantity <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id y quantity > 0 son requeridos"})
	}
	res, err := h.allocation.Consume(c.UserContext(), in.ProductID, in.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.AllocationResponse{
		Success:    true,
		ProductID:  res.ProductID,
		Quantity:   res.Quantity,
		StockAfter: res.StockAfter,
		Deductions: make([]dto.DeductionDTO, 0, len(res.Deductions)),
	}
	for _, d := range res.Deductions {
		out.Deductions = append(out.Deductions, dto.DeductionDTO{
			BatchID:     d.BatchID,
			BatchNumber: d.BatchNumber,
			Quantity:    d.Quantity,
			Expiration:  d.Expiration,
		})
	}
	return c.JSON(out)
}

func toReceiptResponse(r *entity.Receipt) dto.ReceiptResponse {
	out := dto.ReceiptResponse{
		ID:            r.ID,
		SupplierID:    r.SupplierID,
		Status:        r.Status,
		Origin:        string(r.Origin),
		TotalQuantity: r.TotalQuantity,
		TotalAmount:   r.TotalAmount,
		ReceivedBy:    r.ReceivedBy,
		ReceivedAt:    r.ReceivedAt,
		Items:         make([]dto.ReceiptItemResponse, 0, len(r.Items)),
	}
	for _, it := range r.Items {
		out.Items = append(out.Items, dto.ReceiptItemResponse{
			ProductID:   it.ProductID,
			BatchID:     it.BatchID,
			BatchNumber: it.BatchNumber,
			Quantity:    it.Quantity,
			UnitCost:    it.UnitCost,
			LineTotal:   it.LineTotal,
		})
	}
	return out
}

func toBatchResponse(b *entity.Batch) dto.BatchResponse {
	return dto.BatchResponse{
		ID:                b.ID,
		ProductID:         b.ProductID,
		BatchNumber:       b.BatchNumber,
		ReceivedQuantity:  b.ReceivedQuantity,
		RemainingQuantity: b.RemainingQuantity,
		ExpirationDate:    b.ExpirationDate,
		ManufacturingDate: b.ManufacturingDate,
		UnitCost:          b.UnitCost,
		Origin:            string(b.Origin),
		ReceiptID:         b.ReceiptID,
	}
}
