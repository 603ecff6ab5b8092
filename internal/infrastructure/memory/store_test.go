package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharma-ledger/internal/application/inventory"
	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/infrastructure/memory"
)

func seed(t *testing.T, s *memory.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Products().Create(ctx, &entity.Product{ID: "P", Name: "Amoxicilina", StockQuantity: 10, InStock: true}))
	require.NoError(t, s.Batches().Create(ctx, &entity.Batch{
		ID: "B1", ProductID: "P", BatchNumber: "L1", ReceivedQuantity: 10, RemainingQuantity: 10,
		ExpirationDate: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), Origin: entity.OriginReceipt,
	}))
}

func TestRunForProducts_RevierteTodoSiFalla(t *testing.T) {
	s := memory.NewStore()
	seed(t, s)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.RunForProducts(ctx, []string{"P"}, func(ctx context.Context, repos inventory.Repos) error {
		require.NoError(t, repos.Batches.AdjustRemaining(ctx, "B1", -4))
		require.NoError(t, repos.Products.UpdateStock(ctx, "P", 6, true))
		require.NoError(t, repos.Batches.Create(ctx, &entity.Batch{ID: "B2", ProductID: "P", BatchNumber: "L2", ReceivedQuantity: 1, RemainingQuantity: 1}))
		require.NoError(t, repos.Batches.Delete(ctx, "B1"))
		return boom
	})
	require.ErrorIs(t, err, boom)

	b1, err := s.Batches().GetByID(ctx, "B1")
	require.NoError(t, err)
	require.NotNil(t, b1, "el lote borrado debe restaurarse")
	assert.Equal(t, int64(10), b1.RemainingQuantity)

	b2, _ := s.Batches().GetByID(ctx, "B2")
	assert.Nil(t, b2, "el lote creado debe desaparecer")

	p, _ := s.Products().GetByID(ctx, "P")
	assert.Equal(t, int64(10), p.StockQuantity)
}

func TestAdjustRemaining_RechazaSaldoFueraDeRango(t *testing.T) {
	s := memory.NewStore()
	seed(t, s)
	ctx := context.Background()

	assert.ErrorIs(t, s.Batches().AdjustRemaining(ctx, "B1", -11), domain.ErrConflict)
	assert.ErrorIs(t, s.Batches().AdjustRemaining(ctx, "B1", 1), domain.ErrConflict)
	assert.ErrorIs(t, s.Batches().AdjustRemaining(ctx, "NOPE", -1), domain.ErrNotFound)
}

func TestCreateBatch_NumeroDeLoteUnicoPorProducto(t *testing.T) {
	s := memory.NewStore()
	seed(t, s)
	err := s.Batches().Create(context.Background(), &entity.Batch{ID: "B9", ProductID: "P", BatchNumber: "L1"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestRunForProducts_SerializaPorProducto(t *testing.T) {
	s := memory.NewStore()
	seed(t, s)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.RunForProducts(ctx, []string{"P"}, func(ctx context.Context, repos inventory.Repos) error {
				p, err := repos.Products.GetByID(ctx, "P")
				if err != nil {
					return err
				}
				// lectura-modificación-escritura: sin el bloqueo por producto se perderían decrementos
				time.Sleep(time.Millisecond)
				if err := repos.Batches.AdjustRemaining(ctx, "B1", -1); err != nil {
					return err
				}
				return repos.Products.UpdateStock(ctx, "P", p.StockQuantity-1, p.StockQuantity-1 > 0)
			})
		}()
	}
	wg.Wait()

	p, _ := s.Products().GetByID(ctx, "P")
	b, _ := s.Batches().GetByID(ctx, "B1")
	assert.Equal(t, int64(0), p.StockQuantity)
	assert.Equal(t, int64(0), b.RemainingQuantity)
	assert.False(t, p.InStock)
}

func TestRunForProducts_ContextoCancelado(t *testing.T) {
	s := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := s.RunForProducts(ctx, []string{"P"}, func(context.Context, inventory.Repos) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
