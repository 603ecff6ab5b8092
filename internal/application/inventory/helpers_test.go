package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/infrastructure/memory"
)

var testNow = time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func putProduct(t *testing.T, s *memory.Store, id string, stock int64) {
	t.Helper()
	require.NoError(t, s.Products().Create(context.Background(), &entity.Product{
		ID: id, Name: "Producto " + id, StockQuantity: stock, InStock: stock > 0, Source: entity.ProductSourceCanonical,
	}))
}

func putBatch(t *testing.T, s *memory.Store, id, productID, expiry string, remaining int64) {
	t.Helper()
	require.NoError(t, s.Batches().Create(context.Background(), &entity.Batch{
		ID: id, ProductID: productID, BatchNumber: id,
		ReceivedQuantity: remaining, RemainingQuantity: remaining,
		ExpirationDate: date(expiry), Origin: entity.OriginReceipt, ReceiptID: "R0",
	}))
}

func remaining(t *testing.T, s *memory.Store, batchID string) int64 {
	t.Helper()
	b, err := s.Batches().GetByID(context.Background(), batchID)
	require.NoError(t, err)
	require.NotNil(t, b)
	return b.RemainingQuantity
}

func stock(t *testing.T, s *memory.Store, productID string) int64 {
	t.Helper()
	p, err := s.Products().GetByID(context.Background(), productID)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.StockQuantity
}
