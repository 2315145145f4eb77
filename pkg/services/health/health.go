package health

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/valyala/fasthttp"

	"payrelay/pkg/models"
	"payrelay/pkg/services/request"
)

// Status is the shared health snapshot of the upstream processor: written by
// the monitor, read by the gateway and the health endpoint. Reader-writer
// synchronization so concurrent readers never serialize on each other.
type Status struct {
	mu      sync.RWMutex
	current models.HealthStatus
}

func NewStatus() *Status {
	return &Status{}
}

func (s *Status) Get() models.HealthStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Status) Set(status models.HealthStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = status
}

// Monitor probes the upstream's health endpoint on a fixed interval and
// keeps the shared Status current.
type Monitor struct {
	status    *Status
	requester request.RequestService
	interval  time.Duration
	log       *slog.Logger
}

func NewMonitor(status *Status, requester request.RequestService, interval time.Duration, log *slog.Logger) *Monitor {
	return &Monitor{
		status:    status,
		requester: requester,
		interval:  interval,
		log:       log,
	}
}

// Run probes until ctx is done. The sleep between ticks is fixed regardless
// of how long the previous probe took.
func (m *Monitor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.interval):
		}
		m.probe(ctx)
	}
}

// probe refreshes the snapshot from one health check. A timed-out probe is
// "no new information" and leaves the snapshot alone; an explicit error or
// non-success response fails closed.
func (m *Monitor) probe(ctx context.Context) {
	var status models.HealthStatus
	resp, err := m.requester.Get(ctx, "/payments/service-health", &status)
	if err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) {
			m.log.Debug("health probe timed out, keeping previous snapshot")
			return
		}
		m.log.Debug("health probe failed", "err", err)
		m.status.Set(models.HealthStatus{Failing: true})
		return
	}

	if resp.StatusCode/100 != 2 {
		m.log.Debug("health probe returned non-success", "status", resp.StatusCode)
		m.status.Set(models.HealthStatus{Failing: true})
		return
	}

	m.status.Set(status)
}
