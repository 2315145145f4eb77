package repository

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"payrelay/pkg/adapters"
	"payrelay/pkg/models"
)

const (
	QueueKey       = "queue:payments"
	DefaultSetKey  = "payments:default"
	FallbackSetKey = "payments:fallback"
)

// Score bounds for unbounded summary ranges.
const (
	minScore = math.MinInt32
	maxScore = math.MaxInt32
)

// PaymentRepository implements the queue and ledger operations over the
// shared store. Queue entries are the raw bytes received at intake; ledger
// entries are serialized payments scored by requestedAt in whole seconds.
type PaymentRepository struct {
	store adapters.Store
	log   *slog.Logger
}

func NewPaymentRepository(store adapters.Store, log *slog.Logger) *PaymentRepository {
	return &PaymentRepository{
		store: store,
		log:   log,
	}
}

// Enqueue pushes the raw payment bytes onto the pending queue.
func (r *PaymentRepository) Enqueue(ctx context.Context, raw []byte) error {
	return r.store.PushQueue(ctx, QueueKey, raw)
}

// Dequeue pops the oldest pending payment. Returns models.ErrQueueEmpty when
// nothing is available, which callers must treat as backoff, not failure.
func (r *PaymentRepository) Dequeue(ctx context.Context) ([]byte, error) {
	return r.store.PopQueue(ctx, QueueKey)
}

// Add records a successfully dispatched payment into the processor's ledger,
// scored by its requestedAt truncated to whole seconds.
func (r *PaymentRepository) Add(ctx context.Context, payment models.PaymentRequest, processor models.Processor) error {
	raw, err := json.Marshal(payment)
	if err != nil {
		return fmt.Errorf("marshal payment: %w", err)
	}

	key := DefaultSetKey
	if processor == models.ProcessorFallback {
		key = FallbackSetKey
	}

	return r.store.AddSorted(ctx, key, string(raw), float64(payment.RequestedAt.Unix()))
}

// GetSummary aggregates both ledgers over [from, to). Empty bounds mean
// unbounded on that side; a present "to" is made exclusive by querying up to
// parsed(to)-1, since the underlying range scan is inclusive. The two ledger
// scans run concurrently and a failed scan degrades to a zero summary for
// that processor instead of failing the whole call.
func (r *PaymentRepository) GetSummary(ctx context.Context, from, to string) (*models.PaymentsSummaryResponse, error) {
	var fromUnix int64 = minScore
	var toUnix int64 = maxScore

	if from != "" {
		parsed, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return nil, fmt.Errorf("parse 'from' timestamp %q: %w", from, err)
		}
		fromUnix = parsed.Unix()
	}

	if to != "" {
		parsed, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return nil, fmt.Errorf("parse 'to' timestamp %q: %w", to, err)
		}
		toUnix = parsed.Unix() - 1
	}

	var defaultSummary, fallbackSummary models.PaymentsSummary

	wg := &sync.WaitGroup{}
	wg.Add(2)
	go func() {
		defer wg.Done()
		defaultSummary = r.summarize(ctx, DefaultSetKey, fromUnix, toUnix)
	}()
	go func() {
		defer wg.Done()
		fallbackSummary = r.summarize(ctx, FallbackSetKey, fromUnix, toUnix)
	}()
	wg.Wait()

	return &models.PaymentsSummaryResponse{
		Default:  defaultSummary,
		Fallback: fallbackSummary,
	}, nil
}

func (r *PaymentRepository) summarize(ctx context.Context, key string, from, to int64) models.PaymentsSummary {
	summary := models.PaymentsSummary{
		TotalAmount: decimal.Zero,
	}

	members, err := r.store.RangeByScore(ctx, key, from, to)
	if err != nil {
		r.log.Error("failed to scan ledger, degrading to zero summary", "ledger", key, "err", err)
		return summary
	}

	for _, member := range members {
		var payment models.PaymentRequest
		if err := json.Unmarshal([]byte(member), &payment); err != nil {
			r.log.Error("skipping unreadable ledger entry", "ledger", key, "err", err)
			continue
		}
		summary.TotalRequests++
		summary.TotalAmount = summary.TotalAmount.Add(payment.Amount)
	}

	summary.TotalAmount = summary.TotalAmount.Round(2)
	return summary
}

// Purge deletes both ledgers and the queue. The deletions are separate calls;
// a crash mid-purge can leave partial state, acceptable for a reset utility.
func (r *PaymentRepository) Purge(ctx context.Context) error {
	for _, key := range []string{DefaultSetKey, FallbackSetKey, QueueKey} {
		if err := r.store.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// MonitorQueue periodically logs the pending queue depth until ctx is done.
func (r *PaymentRepository) MonitorQueue(ctx context.Context, interval time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}

		length, err := r.store.QueueLen(ctx, QueueKey)
		if err != nil {
			r.log.Error("failed to get queue length", "err", err)
			continue
		}
		r.log.Info("queue depth", "length", length)
	}
}
