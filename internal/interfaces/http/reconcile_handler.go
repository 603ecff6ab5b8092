package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pharma-ledger/internal/application/dto"
	"github.com/jhoicas/pharma-ledger/internal/application/reconcile"
)

// jobTrigger dispara una tarea de fondo por nombre (lo implementa *reconcile.Scheduler).
type jobTrigger interface {
	Trigger(ctx context.Context, name string) (any, error)
}

// ReconcileHandler dispara a demanda las tareas de reconciliación.
type ReconcileHandler struct {
	jobs jobTrigger
}

// NewReconcileHandler construye el handler.
func NewReconcileHandler(jobs jobTrigger) *ReconcileHandler {
	return &ReconcileHandler{jobs: jobs}
}

// CatalogSync godoc
// @Summary      Plegar catálogo heredado
// @Description  Ejecuta de inmediato el plegado del catálogo heredado sobre el canónico.
// @Tags         reconcile
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.FoldResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/catalog/sync [post]
func (h *ReconcileHandler) CatalogSync(c *fiber.Ctx) error {
	out, err := h.jobs.Trigger(c.UserContext(), reconcile.JobCatalogFold)
	if err != nil {
		return writeError(c, err)
	}
	res, ok := out.(*reconcile.FoldResult)
	if !ok || res == nil {
		return c.JSON(dto.FoldResponse{})
	}
	return c.JSON(dto.FoldResponse{Created: res.Created, Updated: res.Updated, Deleted: res.Deleted})
}

// StockReconcile godoc
// @Summary      Verificar contadores contra el ledger
// @Description  Recalcula la suma de saldos por producto y corrige los contadores desalineados.
// @Tags         reconcile
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StockReconcileResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/reconcile/stock [post]
func (h *ReconcileHandler) StockReconcile(c *fiber.Ctx) error {
	out, err := h.jobs.Trigger(c.UserContext(), reconcile.JobStockCounter)
	if err != nil {
		return writeError(c, err)
	}
	resp := dto.StockReconcileResponse{Drifts: []dto.StockDriftDTO{}}
	rep, ok := out.(*reconcile.CounterReport)
	if !ok || rep == nil {
		return c.JSON(resp)
	}
	resp.Checked, resp.Corrected, resp.Failed = rep.Checked, rep.Corrected, rep.Failed
	for _, d := range rep.Drifts {
		resp.Drifts = append(resp.Drifts, dto.StockDriftDTO{ProductID: d.ProductID, Counter: d.Counter, LedgerSum: d.LedgerSum})
	}
	return c.JSON(resp)
}
