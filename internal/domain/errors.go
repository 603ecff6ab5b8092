package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio del ledger (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrInvariantViolation = errors.New("contador de stock desalineado con el ledger")
)

// InsufficientStockError detalla una asignación FEFO imposible de cubrir.
// errors.Is(err, ErrInsufficientStock) sigue funcionando.
type InsufficientStockError struct {
	ProductID string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s: solicitado %d, disponible %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// LineError describe por qué una línea de recepción fue rechazada.
type LineError struct {
	Index  int    `json:"index"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ReceiptValidationError agrupa todas las líneas inválidas de una recepción.
// La recepción completa se rechaza; no se persiste ningún lote.
type ReceiptValidationError struct {
	Lines []LineError
}

func (e *ReceiptValidationError) Error() string {
	parts := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		if l.Index < 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", l.Field, l.Reason))
			continue
		}
		parts = append(parts, fmt.Sprintf("línea %d %s: %s", l.Index, l.Field, l.Reason))
	}
	return "recepción inválida: " + strings.Join(parts, "; ")
}

func (e *ReceiptValidationError) Unwrap() error { return ErrInvalidInput }

// Add registra una línea inválida. Index -1 indica un error de cabecera.
func (e *ReceiptValidationError) Add(index int, field, reason string) {
	e.Lines = append(e.Lines, LineError{Index: index, Field: field, Reason: reason})
}

// HasErrors indica si se registró al menos una línea inválida.
func (e *ReceiptValidationError) HasErrors() bool { return len(e.Lines) > 0 }
