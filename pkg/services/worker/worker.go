package worker

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"payrelay/pkg/adapters"
	"payrelay/pkg/models"
	"payrelay/pkg/services/gateway"
)

const (
	emptyQueueBackoff = 200 * time.Millisecond

	// Bounded jittered backoff for hard store errors, so a connectivity
	// outage does not turn the pool into a tight retry loop.
	errorBackoffBase   = 100 * time.Millisecond
	errorBackoffSpread = 400 * time.Millisecond
)

// Repository is the slice of the payment repository the pool needs.
type Repository interface {
	Enqueue(ctx context.Context, raw []byte) error
	Dequeue(ctx context.Context) ([]byte, error)
	Add(ctx context.Context, payment models.PaymentRequest, processor models.Processor) error
}

// Dispatcher submits one payment to the upstream processor.
type Dispatcher interface {
	Process(ctx context.Context, payment *models.PaymentRequest) error
}

// Pool drains the pending queue with a fixed number of workers. Each worker
// loops dequeue, dispatch, record-on-success / requeue-on-failure until the
// process shuts down. Delivery is at-least-once: no transaction spans the
// upstream call and the ledger write.
type Pool struct {
	workers   int
	repo      Repository
	gateway   Dispatcher
	archiver  adapters.Archiver  // optional
	publisher adapters.Publisher // optional
	log       *slog.Logger
}

func NewPool(workers int, repo Repository, gw Dispatcher, log *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		workers: workers,
		repo:    repo,
		gateway: gw,
		log:     log,
	}
}

// WithArchiver forwards recorded payments to an audit archiver.
func (p *Pool) WithArchiver(archiver adapters.Archiver) *Pool {
	p.archiver = archiver
	return p
}

// WithPublisher emits a processed-payment event for each recorded payment.
func (p *Pool) WithPublisher(publisher adapters.Publisher) *Pool {
	p.publisher = publisher
	return p
}

// Run blocks until ctx is done and every worker has exited.
func (p *Pool) Run(ctx context.Context) {
	wg := &sync.WaitGroup{}
	wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func(id int) {
			defer wg.Done()
			p.worker(ctx, id)
		}(i + 1)
	}
	wg.Wait()
}

func (p *Pool) worker(ctx context.Context, id int) {
	p.log.Debug("worker started", "worker", id)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		raw, err := p.repo.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, models.ErrQueueEmpty) {
				time.Sleep(emptyQueueBackoff)
				continue
			}
			p.log.Error("failed to dequeue payment", "worker", id, "err", err)
			time.Sleep(errorBackoff())
			continue
		}

		var payment models.PaymentRequest
		if err := json.Unmarshal(raw, &payment); err != nil {
			// Requeueing an unparseable payload would loop forever.
			p.log.Error("dropping malformed payment", "worker", id, "err", err)
			continue
		}

		if err := p.gateway.Process(ctx, &payment); err != nil {
			if errors.Is(err, gateway.ErrProcessorUnavailable) {
				p.log.Debug("processor unavailable, requeueing payment",
					"worker", id, "correlation_id", payment.CorrelationID)
			} else {
				p.log.Error("failed to process payment",
					"worker", id, "correlation_id", payment.CorrelationID, "err", err)
			}

			// The original bytes go back, not the re-stamped payment: the
			// next attempt re-stamps requestedAt itself.
			if err := p.repo.Enqueue(ctx, raw); err != nil {
				p.log.Error("failed to requeue payment",
					"worker", id, "correlation_id", payment.CorrelationID, "err", err)
			}
			continue
		}

		if err := p.repo.Add(ctx, payment, models.ProcessorDefault); err != nil {
			p.log.Error("failed to record payment",
				"worker", id, "correlation_id", payment.CorrelationID, "err", err)
			continue
		}

		p.notify(payment, models.ProcessorDefault)
	}
}

// notify feeds the optional audit and event sinks. Best effort: failures are
// logged and never affect the dispatch outcome.
func (p *Pool) notify(payment models.PaymentRequest, processor models.Processor) {
	if p.archiver != nil {
		p.archiver.Record(payment, processor)
	}

	if p.publisher != nil {
		body, err := json.Marshal(payment)
		if err != nil {
			return
		}
		if err := p.publisher.PublishMessage("payment.processed", "payments", body); err != nil {
			p.log.Error("failed to publish payment event",
				"correlation_id", payment.CorrelationID, "err", err)
		}
	}
}

func errorBackoff() time.Duration {
	return errorBackoffBase + time.Duration(rand.Int63n(int64(errorBackoffSpread)))
}
