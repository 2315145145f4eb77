package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/valyala/fasthttp"

	"payrelay/pkg/models"
	"payrelay/pkg/services/request"
)

type fakeProbe struct {
	statusCode int
	health     models.HealthStatus
	err        error
}

func (f *fakeProbe) Get(ctx context.Context, uri string, response any) (request.Response, error) {
	if f.err != nil {
		return request.Response{}, f.err
	}
	if f.statusCode/100 == 2 && response != nil {
		*response.(*models.HealthStatus) = f.health
	}
	return request.Response{StatusCode: f.statusCode}, nil
}

func (f *fakeProbe) Post(ctx context.Context, uri string, body any, response any) (request.Response, error) {
	return request.Response{}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMonitor_SuccessOverwritesSnapshot(t *testing.T) {
	status := NewStatus()
	probe := &fakeProbe{statusCode: 200, health: models.HealthStatus{Failing: false, MinResponseTime: 42}}
	m := NewMonitor(status, probe, time.Second, testLogger())

	m.probe(context.Background())

	got := status.Get()
	if got.Failing || got.MinResponseTime != 42 {
		t.Errorf("Expected {false 42}, got %+v", got)
	}
}

func TestMonitor_NonSuccessFailsClosed(t *testing.T) {
	status := NewStatus()
	status.Set(models.HealthStatus{Failing: false, MinResponseTime: 42})
	probe := &fakeProbe{statusCode: 503}
	m := NewMonitor(status, probe, time.Second, testLogger())

	m.probe(context.Background())

	got := status.Get()
	if !got.Failing || got.MinResponseTime != 0 {
		t.Errorf("Expected fail-closed snapshot, got %+v", got)
	}
}

func TestMonitor_TransportErrorFailsClosed(t *testing.T) {
	status := NewStatus()
	status.Set(models.HealthStatus{Failing: false, MinResponseTime: 42})
	probe := &fakeProbe{err: errors.New("connection refused")}
	m := NewMonitor(status, probe, time.Second, testLogger())

	m.probe(context.Background())

	if got := status.Get(); !got.Failing {
		t.Errorf("Expected fail-closed snapshot, got %+v", got)
	}
}

func TestMonitor_TimeoutKeepsPreviousSnapshot(t *testing.T) {
	status := NewStatus()
	previous := models.HealthStatus{Failing: false, MinResponseTime: 42}
	status.Set(previous)
	probe := &fakeProbe{err: fasthttp.ErrTimeout}
	m := NewMonitor(status, probe, time.Second, testLogger())

	m.probe(context.Background())

	if got := status.Get(); got != previous {
		t.Errorf("Expected snapshot unchanged on timeout, got %+v", got)
	}
}

func TestStatus_InitialSnapshot(t *testing.T) {
	got := NewStatus().Get()
	if got.Failing || got.MinResponseTime != 0 {
		t.Errorf("Expected zero-value snapshot at startup, got %+v", got)
	}
}
