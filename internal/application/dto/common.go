package dto

import "github.com/jhoicas/pharma-ledger/internal/domain"

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string             `json:"code"`
	Message string             `json:"message"`
	Details []domain.LineError `json:"details,omitempty"`
}

// PageResponse metadatos de paginación.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}
