package worker

import (
	"context"
	"encoding/json"
	"testing"

	"backoffice/internal/config"
	"backoffice/internal/infra"
	"backoffice/internal/model"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProductRepo(t *testing.T) repository.ProductRepository {
	t.Helper()
	db, err := infra.NewDatabase("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, infra.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return repository.NewProductRepository(db)
}

func seed(t *testing.T, repo repository.ProductRepository, sku string, stock, reorder int) *model.Product {
	t.Helper()
	p := &model.Product{
		SKU:          sku,
		Name:         "Product " + sku,
		CostPrice:    decimal.NewFromInt(5),
		SalePrice:    decimal.NewFromInt(9),
		StockOnHand:  stock,
		ReorderLevel: reorder,
		Active:       true,
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

// unreachableMailer points at a closed local port so every send fails fast.
func unreachableMailer() *infra.Mailer {
	return infra.NewMailer(&config.Config{
		SMTPHost:     "127.0.0.1",
		SMTPPort:     1,
		AlertEmail:   "stock@example.com",
		BusinessName: "Test",
	})
}

func TestDispatcherWithoutRedisProcessesInline(t *testing.T) {
	repo := newProductRepo(t)
	low := seed(t, repo, "LOW", 1, 5)

	d := NewDispatcher(nil, NewLowStockWorker(repo, infra.NewMailer(&config.Config{}), nil))
	assert.NoError(t, d.NotifyLowStock(context.Background(), []uuid.UUID{low.ID}))
	assert.NoError(t, d.NotifyLowStock(context.Background(), nil))
}

func TestLowStockWorkerSkipsRecoveredProducts(t *testing.T) {
	repo := newProductRepo(t)
	ok := seed(t, repo, "OK", 50, 5)

	// the mailer would fail, so a nil error proves nothing was sent
	w := NewLowStockWorker(repo, unreachableMailer(), nil)
	assert.NoError(t, w.Process(context.Background(), LowStockPayload{ProductIDs: []uuid.UUID{ok.ID}}))
}

func TestLowStockWorkerTripsBreaker(t *testing.T) {
	repo := newProductRepo(t)
	low := seed(t, repo, "LOW", 0, 3)
	breaker := infra.NewCircuitBreaker("smtp", infra.BreakerConfig{MaxFailures: 2})
	w := NewLowStockWorker(repo, unreachableMailer(), breaker)
	payload := LowStockPayload{ProductIDs: []uuid.UUID{low.ID}}

	for i := 0; i < 2; i++ {
		err := w.Process(context.Background(), payload)
		require.Error(t, err)
		assert.NotErrorIs(t, err, infra.ErrBreakerOpen)
	}
	assert.Equal(t, infra.BreakerOpen, breaker.State())
	assert.ErrorIs(t, w.Process(context.Background(), payload), infra.ErrBreakerOpen)
}

func TestPoolHandleRejectsUnknownJobs(t *testing.T) {
	p := NewPool(nil, nil)
	err := p.handle(context.Background(), Job{Type: "mystery", Payload: json.RawMessage(`{}`)})
	assert.ErrorContains(t, err, "unknown job type")

	err = p.handle(context.Background(), Job{Type: JobLowStock, Payload: json.RawMessage(`not json`)})
	assert.ErrorContains(t, err, "decode low_stock payload")
}
