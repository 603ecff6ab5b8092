package entity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

func TestBatch_IsExpiredAt(t *testing.T) {
	cot := time.FixedZone("COT", -5*3600)
	b := &entity.Batch{ExpirationDate: time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC)}

	tests := []struct {
		name string
		ref  time.Time
		want bool
	}{
		{"día anterior", time.Date(2025, 8, 30, 23, 0, 0, 0, time.UTC), false},
		{"vence hoy", time.Date(2025, 8, 31, 23, 59, 0, 0, time.UTC), false},
		{"día siguiente", time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), true},
		{"vence hoy con ref en hora local", time.Date(2025, 8, 31, 10, 0, 0, 0, cot), false},
		{"ref local ya es el día siguiente en UTC", time.Date(2025, 8, 31, 20, 0, 0, 0, cot), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.IsExpiredAt(tt.ref))
		})
	}
}

func TestBatch_IsExpiredAt_MismoInstanteMismaRespuesta(t *testing.T) {
	b := &entity.Batch{ExpirationDate: time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC)}
	instant := time.Date(2025, 9, 1, 1, 0, 0, 0, time.UTC)

	for _, loc := range []*time.Location{time.UTC, time.FixedZone("COT", -5*3600), time.FixedZone("CET", 3600)} {
		assert.True(t, b.IsExpiredAt(instant.In(loc)), loc.String())
	}
}
