package ledger_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharma-ledger/internal/domain"
	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
	"github.com/jhoicas/pharma-ledger/internal/domain/ledger"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func batch(id string, expiry string, received, remaining int64) *entity.Batch {
	return &entity.Batch{
		ID:                id,
		ProductID:         "P",
		BatchNumber:       id,
		ReceivedQuantity:  received,
		RemainingQuantity: remaining,
		ExpirationDate:    day(expiry),
		Origin:            entity.OriginReceipt,
	}
}

var refNow = day("2024-12-01")

func TestPlanFEFO_ConsumeLoteMasProximoAVencerPrimero(t *testing.T) {
	b1 := batch("B1", "2025-01-01", 10, 10)
	b2 := batch("B2", "2025-06-01", 20, 20)

	plan, err := ledger.PlanFEFO("P", []*entity.Batch{b2, b1}, 15, refNow)
	require.NoError(t, err)

	require.Len(t, plan, 2)
	assert.Equal(t, "B1", plan[0].BatchID)
	assert.Equal(t, int64(10), plan[0].Quantity)
	assert.Equal(t, "B2", plan[1].BatchID)
	assert.Equal(t, int64(5), plan[1].Quantity)

	// el plan no muta los lotes
	assert.Equal(t, int64(10), b1.RemainingQuantity)
	assert.Equal(t, int64(20), b2.RemainingQuantity)
}

func TestPlanFEFO_StockInsuficienteNoDevuelvePlan(t *testing.T) {
	b1 := batch("B1", "2025-01-01", 10, 10)
	b2 := batch("B2", "2025-06-01", 20, 20)

	plan, err := ledger.PlanFEFO("P", []*entity.Batch{b1, b2}, 40, refNow)
	assert.Nil(t, plan)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	var insufficient *domain.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, int64(40), insufficient.Requested)
	assert.Equal(t, int64(30), insufficient.Available)
}

func TestPlanFEFO_EmpateDeVencimientoPrefiereLoteMasPequeno(t *testing.T) {
	big := batch("BIG", "2025-03-01", 100, 100)
	small := batch("SMALL", "2025-03-01", 5, 5)

	plan, err := ledger.PlanFEFO("P", []*entity.Batch{big, small}, 7, refNow)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, "SMALL", plan[0].BatchID)
	assert.Equal(t, int64(5), plan[0].Quantity)
	assert.Equal(t, "BIG", plan[1].BatchID)
	assert.Equal(t, int64(2), plan[1].Quantity)
}

func TestPlanFEFO_IgnoraLotesVencidosYAgotados(t *testing.T) {
	expired := batch("OLD", "2024-11-30", 50, 50)
	empty := batch("EMPTY", "2024-12-15", 10, 0)
	today := batch("TODAY", "2024-12-01", 10, 10)
	later := batch("LATER", "2025-02-01", 10, 10)

	plan, err := ledger.PlanFEFO("P", []*entity.Batch{expired, empty, later, today}, 12, refNow)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, "TODAY", plan[0].BatchID, "un lote que vence hoy sigue vendible")
	assert.Equal(t, "LATER", plan[1].BatchID)

	_, err = ledger.PlanFEFO("P", []*entity.Batch{expired}, 1, refNow)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock, "los lotes vencidos no cuentan como disponibles")
}

func TestPlanFEFO_CantidadNoPositiva(t *testing.T) {
	_, err := ledger.PlanFEFO("P", []*entity.Batch{batch("B1", "2025-01-01", 1, 1)}, 0, refNow)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPlanFEFO_AgotaElLoteAnteriorAntesDeTocarElSiguiente(t *testing.T) {
	batches := []*entity.Batch{
		batch("C", "2025-09-01", 7, 7),
		batch("A", "2025-01-01", 3, 3),
		batch("D", "2025-12-01", 11, 11),
		batch("B", "2025-05-01", 5, 5),
	}
	for qty := int64(1); qty <= 26; qty++ {
		plan, err := ledger.PlanFEFO("P", batches, qty, refNow)
		require.NoError(t, err)
		var total int64
		for i, d := range plan {
			total += d.Quantity
			if i < len(plan)-1 {
				full := map[string]int64{"A": 3, "B": 5, "C": 7, "D": 11}[d.BatchID]
				assert.Equal(t, full, d.Quantity, "todo lote salvo el último del plan debe agotarse (qty=%d)", qty)
			}
			if i > 0 {
				assert.True(t, plan[i-1].Expiration.Before(d.Expiration))
			}
		}
		assert.Equal(t, qty, total)
	}
}

func TestAvailability_SumaNoVencidoYProximoVencimiento(t *testing.T) {
	batches := []*entity.Batch{
		batch("OLD", "2024-10-01", 5, 5),
		batch("B2", "2025-06-01", 20, 20),
		batch("B1", "2025-01-01", 10, 4),
	}
	available, next := ledger.Availability(batches, refNow)
	assert.Equal(t, int64(24), available)
	require.NotNil(t, next)
	assert.Equal(t, day("2025-01-01"), *next)

	assert.Equal(t, int64(29), ledger.SumRemaining(batches))

	available, next = ledger.Availability(nil, refNow)
	assert.Zero(t, available)
	assert.Nil(t, next)
}
