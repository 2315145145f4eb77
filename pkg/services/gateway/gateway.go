package gateway

import (
	"context"
	"errors"
	"log/slog"

	"github.com/valyala/fasthttp"

	"payrelay/pkg/models"
	"payrelay/pkg/services/health"
	"payrelay/pkg/services/request"
)

// ErrProcessorUnavailable covers every dispatch failure: transport errors,
// non-success responses and the admission-control short-circuit. The worker
// pool needs no finer distinction; it requeues either way.
var ErrProcessorUnavailable = errors.New("payment processor is unavailable")

// A known minResponseTime above this is treated as too slow to attempt.
const maxHealthyResponseTime = 100

// Gateway submits one payment to the upstream processor, consulting the
// shared health snapshot before spending a network call on it.
type Gateway struct {
	requester request.RequestService
	status    *health.Status
	log       *slog.Logger
}

func NewGateway(requester request.RequestService, status *health.Status, log *slog.Logger) *Gateway {
	return &Gateway{
		requester: requester,
		status:    status,
		log:       log,
	}
}

// Process stamps the payment with a fresh requestedAt and dispatches it.
// A 422 from the upstream means the payment already exists there and is
// treated as success.
func (g *Gateway) Process(ctx context.Context, payment *models.PaymentRequest) error {
	payment.StampRequestedAt()

	status := g.status.Get()
	if status.Failing || status.MinResponseTime > maxHealthyResponseTime {
		g.log.Debug("skipping dispatch, processor unhealthy",
			"failing", status.Failing, "min_response_time", status.MinResponseTime)
		return ErrProcessorUnavailable
	}

	resp, err := g.requester.Post(ctx, "/payments", payment, nil)
	if err != nil {
		g.log.Debug("dispatch failed", "correlation_id", payment.CorrelationID, "err", err)
		return ErrProcessorUnavailable
	}

	if resp.StatusCode == fasthttp.StatusUnprocessableEntity {
		g.log.Debug("payment already exists upstream", "correlation_id", payment.CorrelationID)
		return nil
	}

	if resp.StatusCode/100 != 2 {
		g.log.Debug("dispatch rejected", "correlation_id", payment.CorrelationID, "status", resp.StatusCode)
		return ErrProcessorUnavailable
	}

	return nil
}
