package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharma-ledger/internal/application/inventory"
	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/infrastructure/memory"
)

func newAllocation(s *memory.Store) *inventory.AllocationUseCase {
	return inventory.NewAllocationUseCase(s, s.Products(), s.Batches()).WithClock(clock)
}

// Escenario B: B1(vence 2025-01-01, 10) y B2(vence 2025-06-01, 20); consumir 15.
func TestConsume_DescuentaEnOrdenFEFO(t *testing.T) {
	s := memory.NewStore()
	putProduct(t, s, "P", 30)
	putBatch(t, s, "B2", "P", "2025-06-01", 20)
	putBatch(t, s, "B1", "P", "2025-01-01", 10)

	res, err := newAllocation(s).Consume(context.Background(), "P", 15)
	require.NoError(t, err)

	require.Len(t, res.Deductions, 2)
	assert.Equal(t, "B1", res.Deductions[0].BatchID)
	assert.Equal(t, int64(10), res.Deductions[0].Quantity)
	assert.Equal(t, "B2", res.Deductions[1].BatchID)
	assert.Equal(t, int64(5), res.Deductions[1].Quantity)

	assert.Equal(t, int64(0), remaining(t, s, "B1"))
	assert.Equal(t, int64(5), remaining(t, s, "B2"))
	assert.Equal(t, int64(15), stock(t, s, "P"))
	assert.Equal(t, int64(15), res.StockAfter)
}

// Escenario C: mismas existencias, consumir 40 -> InsufficientStock sin mutaciones.
func TestConsume_StockInsuficienteNoMutaNada(t *testing.T) {
	s := memory.NewStore()
	putProduct(t, s, "P", 30)
	putBatch(t, s, "B1", "P", "2025-01-01", 10)
	putBatch(t, s, "B2", "P", "2025-06-01", 20)

	res, err := newAllocation(s).Consume(context.Background(), "P", 40)
	assert.Nil(t, res)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var insufficient *domain.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, int64(30), insufficient.Available)

	assert.Equal(t, int64(10), remaining(t, s, "B1"))
	assert.Equal(t, int64(20), remaining(t, s, "B2"))
	assert.Equal(t, int64(30), stock(t, s, "P"))
}

func TestConsume_EntradasInvalidas(t *testing.T) {
	s := memory.NewStore()
	uc := newAllocation(s)

	_, err := uc.Consume(context.Background(), "P", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.Consume(context.Background(), "", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.Consume(context.Background(), "NOPE", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConsume_ProductoSinMigrarNoTieneLotes(t *testing.T) {
	s := memory.NewStore()
	putProduct(t, s, "P", 50)

	_, err := newAllocation(s).Consume(context.Background(), "P", 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(50), stock(t, s, "P"))
}

func TestConsume_ConcurrenteNuncaSobrevende(t *testing.T) {
	s := memory.NewStore()
	putProduct(t, s, "P", 25)
	putBatch(t, s, "B1", "P", "2025-01-01", 10)
	putBatch(t, s, "B2", "P", "2025-06-01", 15)
	putProduct(t, s, "Q", 5)
	putBatch(t, s, "Q1", "Q", "2025-06-01", 5)
	uc := newAllocation(s)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "P"
			if i%8 == 0 {
				id = "Q"
			}
			if _, err := uc.Consume(context.Background(), id, 1); err == nil && id == "P" {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 25, success, "solo se pueden asignar 25 unidades de P")
	assert.Equal(t, int64(0), stock(t, s, "P"))
	assert.Equal(t, int64(0), remaining(t, s, "B1")+remaining(t, s, "B2"))
	assert.Equal(t, int64(0), stock(t, s, "Q"))
}

func TestGetAvailability(t *testing.T) {
	s := memory.NewStore()
	putProduct(t, s, "P", 35)
	putBatch(t, s, "OLD", "P", "2024-11-01", 5)
	putBatch(t, s, "B1", "P", "2025-01-01", 10)
	putBatch(t, s, "B2", "P", "2025-06-01", 20)
	putProduct(t, s, "LEGACY", 7)
	uc := newAllocation(s)

	av, err := uc.GetAvailability(context.Background(), "P")
	require.NoError(t, err)
	assert.Equal(t, int64(30), av.Available, "el lote vencido no es vendible")
	require.NotNil(t, av.NextExpiry)
	assert.Equal(t, date("2025-01-01"), *av.NextExpiry)

	av, err = uc.GetAvailability(context.Background(), "LEGACY")
	require.NoError(t, err)
	assert.Equal(t, int64(7), av.Available)
	assert.Nil(t, av.NextExpiry)

	_, err = uc.GetAvailability(context.Background(), "NOPE")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetBatchesForProduct_OrdenFEFO(t *testing.T) {
	s := memory.NewStore()
	putProduct(t, s, "P", 30)
	putBatch(t, s, "B2", "P", "2025-06-01", 20)
	putBatch(t, s, "B1", "P", "2025-01-01", 10)

	batches, err := newAllocation(s).GetBatchesForProduct(context.Background(), "P")
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, "B1", batches[0].ID)
	assert.Equal(t, "B2", batches[1].ID)
}
