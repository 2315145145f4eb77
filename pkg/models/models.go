package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Processor identifies which upstream processor handled a payment.
type Processor int

const (
	ProcessorDefault Processor = iota
	ProcessorFallback
)

func (p Processor) String() string {
	if p == ProcessorFallback {
		return "fallback"
	}
	return "default"
}

type PaymentRequest struct {
	CorrelationID string          `json:"correlationId"`
	Amount        decimal.Decimal `json:"amount"`
	RequestedAt   time.Time       `json:"requestedAt"`
}

// StampRequestedAt sets RequestedAt to the current time. Called on every
// dispatch attempt, so a retried payment carries its retry time.
func (p *PaymentRequest) StampRequestedAt() {
	p.RequestedAt = time.Now().UTC()
}

type HealthStatus struct {
	Failing         bool `json:"failing"`
	MinResponseTime int  `json:"minResponseTime"`
}

type PaymentsSummary struct {
	TotalRequests int             `json:"totalRequests"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
}

type PaymentsSummaryResponse struct {
	Default  PaymentsSummary `json:"default"`
	Fallback PaymentsSummary `json:"fallback"`
}
