package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backoffice/internal/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueLowStock = "jobs:low_stock"

	JobLowStock = "low_stock"

	// maxJobAttempts is how many times a job is tried before it goes to the DLQ.
	maxJobAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// LowStockPayload carries the products whose stock fell to or below the
// reorder level. The worker re-reads them, so stale ids are harmless.
type LowStockPayload struct {
	ProductIDs []uuid.UUID `json:"product_ids"`
}

// Dispatcher enqueues async jobs into Redis lists; the worker pool dequeues
// them via BRPOP. Without Redis the alert is handled inline.
type Dispatcher struct {
	rdb    *redis.Client
	alerts *LowStockWorker
}

func NewDispatcher(rdb *redis.Client, alerts *LowStockWorker) *Dispatcher {
	return &Dispatcher{rdb: rdb, alerts: alerts}
}

// NotifyLowStock queues a reorder alert for the given products.
func (d *Dispatcher) NotifyLowStock(ctx context.Context, productIDs []uuid.UUID) error {
	if len(productIDs) == 0 {
		return nil
	}
	if d.rdb == nil {
		return d.alerts.Process(ctx, LowStockPayload{ProductIDs: productIDs})
	}
	return d.enqueue(ctx, QueueLowStock, JobLowStock, LowStockPayload{ProductIDs: productIDs})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Pool consumes the job queues with a fixed number of goroutines.
type Pool struct {
	rdb    *redis.Client
	alerts *LowStockWorker
}

func NewPool(rdb *redis.Client, alerts *LowStockWorker) *Pool {
	return &Pool{rdb: rdb, alerts: alerts}
}

// Start launches numWorkers goroutines. Each blocks on BRPOP, so idle
// workers cost nothing. It is a no-op without Redis.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	if p.rdb == nil {
		log.Info().Msg("worker pool disabled: no redis configured")
		return
	}
	for i := 0; i < numWorkers; i++ {
		go p.run(ctx, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) run(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, QueueLowStock).Result()
			if err != nil || len(result) < 2 {
				continue
			}
			p.processJob(ctx, result[0], []byte(result[1]))
		}
	}
}

func (p *Pool) processJob(ctx context.Context, queue string, raw []byte) {
	var job Job
	if err := json.Unmarshal(raw, &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		metrics.QueueJobs.WithLabelValues("unknown", "invalid").Inc()
		return
	}
	job.Attempts++

	err := p.handle(ctx, job)
	if err == nil {
		metrics.QueueJobs.WithLabelValues(job.Type, "ok").Inc()
		return
	}

	if job.Attempts >= maxJobAttempts {
		metrics.QueueJobs.WithLabelValues(job.Type, "dead").Inc()
		SendToDLQ(ctx, p.rdb, queue, job.Type, job.Payload, err.Error(), job.Attempts)
		return
	}

	metrics.QueueJobs.WithLabelValues(job.Type, "retry").Inc()
	log.Warn().Err(err).Str("type", job.Type).Int("attempt", job.Attempts).Msg("job failed, requeueing")
	encoded, mErr := json.Marshal(job)
	if mErr != nil {
		log.Error().Err(mErr).Msg("failed to re-encode job")
		return
	}
	if pErr := p.rdb.LPush(ctx, queue, encoded).Err(); pErr != nil {
		log.Error().Err(pErr).Str("queue", queue).Msg("failed to requeue job")
	}
}

func (p *Pool) handle(ctx context.Context, job Job) error {
	switch job.Type {
	case JobLowStock:
		var payload LowStockPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("decode %s payload: %w", job.Type, err)
		}
		return p.alerts.Process(ctx, payload)
	default:
		return fmt.Errorf("unknown job type %q", job.Type)
	}
}
