package adapters

import (
	"context"

	"payrelay/pkg/models"
)

// Store is the contract over the shared data store: a FIFO queue plus
// time-scored sets. infra/redis provides the production implementation.
type Store interface {
	PushQueue(ctx context.Context, key string, raw []byte) error // push raw bytes onto the queue's "in" end
	PopQueue(ctx context.Context, key string) ([]byte, error)    // pop the oldest item; models.ErrQueueEmpty when none
	AddSorted(ctx context.Context, key, member string, score float64) error
	RangeByScore(ctx context.Context, key string, min, max int64) ([]string, error) // inclusive bounds
	QueueLen(ctx context.Context, key string) (int64, error)
	Delete(ctx context.Context, key string) error
}

// Archiver receives successfully dispatched payments for offline storage.
type Archiver interface {
	Record(payment models.PaymentRequest, processor models.Processor)
}

// Publisher emits processed-payment events to a broker.
type Publisher interface {
	PublishMessage(routingKey string, exchange string, body []byte) error
}
