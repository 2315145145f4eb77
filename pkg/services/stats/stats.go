package stats

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jamiealquiza/tachymeter"
)

// DispatchStats meters outcomes and latency of upstream dispatch attempts.
type DispatchStats struct {
	Success atomic.Int32
	Fail    atomic.Int32
	Meter   *tachymeter.Tachymeter
}

func NewDispatchStats(window int) *DispatchStats {
	return &DispatchStats{
		Meter: tachymeter.New(&tachymeter.Config{Size: window}),
	}
}

// Observe matches the request service's after-request hook.
func (s *DispatchStats) Observe(success bool, took time.Duration) {
	if success {
		s.Success.Add(1)
	} else {
		s.Fail.Add(1)
	}
	s.Meter.AddTime(took)
}

// Report logs a summary on a fixed interval until ctx is done.
func (s *DispatchStats) Report(ctx context.Context, interval time.Duration, log *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}

		metrics := s.Meter.Calc()
		log.Info("dispatch stats",
			"success", s.Success.Load(),
			"fail", s.Fail.Load(),
			"p50", metrics.Time.P50,
			"p99", metrics.Time.P99,
		)
	}
}
