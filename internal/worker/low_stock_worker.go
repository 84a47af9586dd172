package worker

import (
	"context"
	"fmt"

	"backoffice/internal/infra"
	"backoffice/internal/repository"

	"github.com/rs/zerolog/log"
)

// LowStockWorker mails the reorder list for products still at or below
// their reorder level when the job runs.
type LowStockWorker struct {
	products repository.ProductRepository
	mailer   *infra.Mailer
	breaker  *infra.CircuitBreaker
}

func NewLowStockWorker(products repository.ProductRepository, mailer *infra.Mailer, breaker *infra.CircuitBreaker) *LowStockWorker {
	return &LowStockWorker{products: products, mailer: mailer, breaker: breaker}
}

func (w *LowStockWorker) Process(ctx context.Context, payload LowStockPayload) error {
	products, err := w.products.ListLowStockByIDs(ctx, payload.ProductIDs)
	if err != nil {
		return fmt.Errorf("load low stock products: %w", err)
	}
	if len(products) == 0 {
		return nil
	}

	lines := make([]infra.LowStockLine, 0, len(products))
	for _, p := range products {
		lines = append(lines, infra.LowStockLine{
			SKU:          p.SKU,
			Name:         p.Name,
			StockOnHand:  p.StockOnHand,
			ReorderLevel: p.ReorderLevel,
		})
	}

	if !w.mailer.Enabled() {
		log.Warn().
			Int("products", len(lines)).
			Str("alert", infra.LowStockBody(lines)).
			Msg("low stock alert not mailed: smtp not configured")
		return nil
	}

	send := func() error { return w.mailer.SendLowStockAlert(lines) }
	if w.breaker != nil {
		err = w.breaker.Do(send)
	} else {
		err = send()
	}
	if err != nil {
		return fmt.Errorf("send low stock alert: %w", err)
	}
	log.Info().Int("products", len(lines)).Msg("low stock alert sent")
	return nil
}
