package handler

import (
	"context"
	"log/slog"

	"payrelay/pkg/models"
)

// PaymentStore is the slice of the repository the HTTP surface uses.
type PaymentStore interface {
	Enqueue(ctx context.Context, raw []byte) error
	GetSummary(ctx context.Context, from, to string) (*models.PaymentsSummaryResponse, error)
	Purge(ctx context.Context) error
}

type PaymentHandler struct {
	repo PaymentStore
	log  *slog.Logger
}

func NewPaymentHandler(repo PaymentStore, log *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		repo: repo,
		log:  log,
	}
}

// HandlePaymentIntake queues the raw request body for asynchronous dispatch.
// The body is stored verbatim; requestedAt is stamped at dispatch, not here.
func (h *PaymentHandler) HandlePaymentIntake(ctx context.Context, raw []byte) error {
	return h.repo.Enqueue(ctx, raw)
}

// HandleSummary answers an aggregate query over [from, to).
func (h *PaymentHandler) HandleSummary(ctx context.Context, from, to string) (*models.PaymentsSummaryResponse, error) {
	return h.repo.GetSummary(ctx, from, to)
}

// HandlePurge wipes the queue and both ledgers.
func (h *PaymentHandler) HandlePurge(ctx context.Context) error {
	if err := h.repo.Purge(ctx); err != nil {
		h.log.Error("failed to purge payments", "err", err)
		return err
	}
	return nil
}
