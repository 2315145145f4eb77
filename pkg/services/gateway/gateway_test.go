package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"payrelay/pkg/models"
	"payrelay/pkg/services/health"
	"payrelay/pkg/services/request"
)

type fakeRequester struct {
	posts      int
	lastURI    string
	statusCode int
	err        error
}

func (f *fakeRequester) Post(ctx context.Context, uri string, body any, response any) (request.Response, error) {
	f.posts++
	f.lastURI = uri
	if f.err != nil {
		return request.Response{}, f.err
	}
	return request.Response{StatusCode: f.statusCode}, nil
}

func (f *fakeRequester) Get(ctx context.Context, uri string, response any) (request.Response, error) {
	return request.Response{}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPayment() *models.PaymentRequest {
	return &models.PaymentRequest{
		CorrelationID: "abc",
		Amount:        decimal.NewFromFloat(19.90),
	}
}

func TestGateway_AdmissionGateFailing(t *testing.T) {
	requester := &fakeRequester{statusCode: 200}
	status := health.NewStatus()
	status.Set(models.HealthStatus{Failing: true})
	gw := NewGateway(requester, status, testLogger())

	err := gw.Process(context.Background(), testPayment())
	if !errors.Is(err, ErrProcessorUnavailable) {
		t.Fatalf("Expected ErrProcessorUnavailable, got %v", err)
	}
	if requester.posts != 0 {
		t.Errorf("Expected no network call, got %d", requester.posts)
	}
}

func TestGateway_AdmissionGateSlowProcessor(t *testing.T) {
	requester := &fakeRequester{statusCode: 200}
	status := health.NewStatus()
	status.Set(models.HealthStatus{Failing: false, MinResponseTime: 150})
	gw := NewGateway(requester, status, testLogger())

	err := gw.Process(context.Background(), testPayment())
	if !errors.Is(err, ErrProcessorUnavailable) {
		t.Fatalf("Expected ErrProcessorUnavailable, got %v", err)
	}
	if requester.posts != 0 {
		t.Errorf("Expected no network call, got %d", requester.posts)
	}
}

func TestGateway_AdmissionGateBoundary(t *testing.T) {
	// A minResponseTime of exactly 100 is still acceptable.
	requester := &fakeRequester{statusCode: 200}
	status := health.NewStatus()
	status.Set(models.HealthStatus{Failing: false, MinResponseTime: 100})
	gw := NewGateway(requester, status, testLogger())

	if err := gw.Process(context.Background(), testPayment()); err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if requester.posts != 1 {
		t.Errorf("Expected one network call, got %d", requester.posts)
	}
}

func TestGateway_Success(t *testing.T) {
	requester := &fakeRequester{statusCode: 200}
	gw := NewGateway(requester, health.NewStatus(), testLogger())

	if err := gw.Process(context.Background(), testPayment()); err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if requester.lastURI != "/payments" {
		t.Errorf("Expected POST to /payments, got %s", requester.lastURI)
	}
}

func TestGateway_DuplicateIsSuccess(t *testing.T) {
	requester := &fakeRequester{statusCode: 422}
	gw := NewGateway(requester, health.NewStatus(), testLogger())

	if err := gw.Process(context.Background(), testPayment()); err != nil {
		t.Fatalf("Expected 422 to be treated as success, got %v", err)
	}
}

func TestGateway_RejectionIsUnavailable(t *testing.T) {
	requester := &fakeRequester{statusCode: 500}
	gw := NewGateway(requester, health.NewStatus(), testLogger())

	err := gw.Process(context.Background(), testPayment())
	if !errors.Is(err, ErrProcessorUnavailable) {
		t.Fatalf("Expected ErrProcessorUnavailable, got %v", err)
	}
}

func TestGateway_TransportErrorIsUnavailable(t *testing.T) {
	requester := &fakeRequester{err: errors.New("connection refused")}
	gw := NewGateway(requester, health.NewStatus(), testLogger())

	err := gw.Process(context.Background(), testPayment())
	if !errors.Is(err, ErrProcessorUnavailable) {
		t.Fatalf("Expected ErrProcessorUnavailable, got %v", err)
	}
}

func TestGateway_StampsRequestedAtOnEveryAttempt(t *testing.T) {
	requester := &fakeRequester{statusCode: 200}
	gw := NewGateway(requester, health.NewStatus(), testLogger())

	payment := testPayment()
	payment.RequestedAt = time.Unix(0, 0)

	before := time.Now().UTC()
	if err := gw.Process(context.Background(), payment); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if payment.RequestedAt.Before(before) {
		t.Errorf("Expected requestedAt to be re-stamped, got %s", payment.RequestedAt)
	}
	if payment.RequestedAt.Location() != time.UTC {
		t.Errorf("Expected UTC timestamp, got %s", payment.RequestedAt.Location())
	}
}
