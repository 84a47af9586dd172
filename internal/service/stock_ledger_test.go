package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"backoffice/internal/dto"
	"backoffice/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestApplyDelta_ZeroIsNoop(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedProduct(t, "SKU-ZERO", 4, 0)

	mv, err := env.ledger.ApplyDelta(context.Background(), nil, p.ID, 0, model.MovementAdjust, MovementRef{})
	require.NoError(t, err)
	assert.Nil(t, mv)
	assert.Equal(t, 4, env.stockOf(t, p.ID))
	assert.Empty(t, env.movementsOf(t, p.ID))
}

func TestLedger_StockMatchesSignedMovementSum(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.seedProduct(t, "SKU-SEQ", 10, 0)

	steps := []struct {
		typ   model.MovementType
		delta int
	}{
		{model.MovementIn, 5},
		{model.MovementOut, -3},
		{model.MovementAdjust, -1},
		{model.MovementAdjust, 4},
		{model.MovementOut, -2},
	}
	sum := 0
	for _, s := range steps {
		_, err := env.ledger.ApplyDelta(ctx, nil, p.ID, s.delta, s.typ, MovementRef{Type: "Test"})
		require.NoError(t, err)
		sum += s.delta
	}

	assert.Equal(t, 10+sum, env.stockOf(t, p.ID))

	rec, err := env.ledger.Reconcile(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, sum, rec.LedgerNet)
	assert.Equal(t, 10, rec.Opening())

	rows := env.movementsOf(t, p.ID)
	require.Len(t, rows, len(steps))
	for _, m := range rows {
		assert.Positive(t, m.Qty)
		assert.Equal(t, m.StockAfter-m.StockBefore, m.SignedQty())
	}
}

func TestDecreaseStock_InsufficientLeavesStateUnchanged(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedProduct(t, "SKU-LOW", 2, 0)

	_, err := env.ledger.DecreaseStock(context.Background(), nil, p.ID, 3, MovementRef{Type: RefInvoice})

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, p.ID, insufficient.ProductID)
	assert.Equal(t, 2, insufficient.Current)
	assert.Equal(t, -3, insufficient.Requested)
	assert.Equal(t, 2, env.stockOf(t, p.ID))
	assert.Empty(t, env.movementsOf(t, p.ID))
}

func TestApplyDelta_ProductNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ledger.IncreaseStock(context.Background(), nil, uuid.New(), 1, MovementRef{})
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplyDelta_MovementFields(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedProduct(t, "SKU-REF", 1, 0)
	ref := uuid.New()

	mv, err := env.ledger.IncreaseStock(context.Background(), nil, p.ID, 4, MovementRef{Type: "  ", ID: &ref, Note: "count"})
	require.NoError(t, err)

	assert.Equal(t, model.MovementIn, mv.Type)
	assert.Equal(t, 4, mv.Qty)
	assert.Equal(t, 1, mv.StockBefore)
	assert.Equal(t, 5, mv.StockAfter)
	assert.Equal(t, RefManual, mv.ReferenceType)
	require.NotNil(t, mv.ReferenceID)
	assert.Equal(t, ref, *mv.ReferenceID)
	assert.Equal(t, "count", mv.Note)
}

func TestApplyDelta_DirectionMustMatchType(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.seedProduct(t, "SKU-DIR", 5, 0)

	var verr *ValidationError
	_, err := env.ledger.ApplyDelta(ctx, nil, p.ID, -1, model.MovementIn, MovementRef{})
	assert.ErrorAs(t, err, &verr)
	_, err = env.ledger.ApplyDelta(ctx, nil, p.ID, 1, model.MovementOut, MovementRef{})
	assert.ErrorAs(t, err, &verr)
	_, err = env.ledger.IncreaseStock(ctx, nil, p.ID, -2, MovementRef{})
	assert.ErrorAs(t, err, &verr)
	_, err = env.ledger.ApplyDelta(ctx, nil, p.ID, 1, model.MovementType("Transfer"), MovementRef{})
	assert.ErrorAs(t, err, &verr)

	assert.Equal(t, 5, env.stockOf(t, p.ID))
}

func TestApplyDelta_JoinsCallerTransaction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.seedProduct(t, "SKU-TX", 5, 0)
	boom := errors.New("later step failed")

	err := runTx(ctx, env.db, func(tx *gorm.DB) error {
		if _, err := env.ledger.DecreaseStock(ctx, tx, p.ID, 2, MovementRef{}); err != nil {
			return err
		}
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 5, env.stockOf(t, p.ID))
	assert.Empty(t, env.movementsOf(t, p.ID))
}

func TestDecreaseStock_ConcurrentCallersNeverOversell(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedProduct(t, "SKU-RACE", 5, 0)

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		ok, rejected int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.ledger.DecreaseStock(context.Background(), nil, p.ID, 1, MovementRef{})
			mu.Lock()
			defer mu.Unlock()
			var insufficient *InsufficientStockError
			switch {
			case err == nil:
				ok++
			case errors.As(err, &insufficient):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, 5, rejected)
	assert.Equal(t, 0, env.stockOf(t, p.ID))
	assert.Len(t, env.movementsOf(t, p.ID), 5)
}

func TestDecreaseStock_NotifiesAtReorderLevel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.seedProduct(t, "SKU-REORDER", 6, 3)

	_, err := env.ledger.DecreaseStock(ctx, nil, p.ID, 2, MovementRef{})
	require.NoError(t, err)
	assert.Empty(t, env.notifier.notified())

	_, err = env.ledger.DecreaseStock(ctx, nil, p.ID, 1, MovementRef{})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{p.ID}, env.notifier.notified())

	low, err := env.ledger.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "SKU-REORDER", low[0].SKU)
	assert.Equal(t, 3, low[0].StockOnHand)
}

func TestMovements_FilterByProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.seedProduct(t, "SKU-A", 5, 0)
	b := env.seedProduct(t, "SKU-B", 5, 0)

	_, err := env.ledger.DecreaseStock(ctx, nil, a.ID, 1, MovementRef{Type: RefInvoice})
	require.NoError(t, err)
	_, err = env.ledger.AdjustStock(ctx, nil, b.ID, -2, MovementRef{Note: "damaged"})
	require.NoError(t, err)

	list, err := env.ledger.Movements(ctx, dto.StockMovementFilter{ProductID: b.ID.String(), Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), list.Total)
	assert.Equal(t, "Adjust", list.Data[0].Type)
	assert.Equal(t, 2, list.Data[0].Qty)
	assert.Equal(t, "Product SKU-B", list.Data[0].Product)

	_, err = env.ledger.Movements(ctx, dto.StockMovementFilter{ProductID: "nope"})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}
