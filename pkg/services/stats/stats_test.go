package stats

import (
	"testing"
	"time"
)

func TestDispatchStats_Observe(t *testing.T) {
	s := NewDispatchStats(100)

	s.Observe(true, 10*time.Millisecond)
	s.Observe(true, 20*time.Millisecond)
	s.Observe(false, 30*time.Millisecond)

	if got := s.Success.Load(); got != 2 {
		t.Errorf("Expected 2 successes, got %d", got)
	}
	if got := s.Fail.Load(); got != 1 {
		t.Errorf("Expected 1 failure, got %d", got)
	}

	metrics := s.Meter.Calc()
	if metrics.Count != 3 {
		t.Errorf("Expected 3 samples, got %d", metrics.Count)
	}
}
