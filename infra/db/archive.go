package db

// Optional Postgres audit trail of dispatched payments, for offline analysis.
// Inserts are buffered and flushed in bulk; losing a batch on crash is
// acceptable, the ledger in the shared store stays the system of record.

import (
	"context"
	"database/sql"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"payrelay/pkg/models"
)

const (
	flushBatchSize = 500
	flushInterval  = time.Second
)

type archiveRow struct {
	correlationID string
	amount        decimal.Decimal
	processor     string
	requestedAt   time.Time
}

type PaymentArchiver struct {
	db  *sql.DB
	log *slog.Logger

	mu      sync.Mutex
	pending []archiveRow
}

func NewPaymentArchiver(ctx context.Context, connString string, log *slog.Logger) (*PaymentArchiver, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		log.Error("failed to connect to the archive database", "err", err)
		return nil, err
	}

	database := stdlib.OpenDBFromPool(pool)

	sqlStmt := `
 CREATE TABLE IF NOT EXISTS payments_archive (
		correlation_id UUID PRIMARY KEY,
		amount DECIMAL(10, 2) NOT NULL DEFAULT 0.00,
		processor TEXT NOT NULL,
		requested_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
 );`

	if _, err := database.ExecContext(ctx, sqlStmt); err != nil {
		log.Error("failed to create archive table", "err", err)
		return nil, err
	}

	a := &PaymentArchiver{
		db:  database,
		log: log,
	}

	go a.flushLoop(ctx)

	return a, nil
}

// Record buffers one dispatched payment for the next bulk insert.
func (a *PaymentArchiver) Record(payment models.PaymentRequest, processor models.Processor) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pending = append(a.pending, archiveRow{
		correlationID: payment.CorrelationID,
		amount:        payment.Amount,
		processor:     processor.String(),
		requestedAt:   payment.RequestedAt,
	})

	if len(a.pending) >= flushBatchSize {
		a.flushLocked(context.Background())
	}
}

func (a *PaymentArchiver) flushLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(flushInterval):
		}

		a.mu.Lock()
		if len(a.pending) > 0 {
			a.flushLocked(ctx)
		}
		a.mu.Unlock()
	}
}

// flushLocked bulk-inserts the pending rows. Caller holds the mutex. The
// batch is dropped either way: the archive is best effort.
func (a *PaymentArchiver) flushLocked(ctx context.Context) {
	argsNum := 1
	query := "INSERT INTO payments_archive (correlation_id, amount, processor, requested_at) VALUES "
	params := make([]interface{}, 0, len(a.pending)*4)
	for i, row := range a.pending {
		if i > 0 {
			query += ", "
		}
		query += "($" + strconv.Itoa(argsNum) + ", $" + strconv.Itoa(argsNum+1) + ", $" + strconv.Itoa(argsNum+2) + ", $" + strconv.Itoa(argsNum+3) + ")"
		argsNum += 4
		params = append(params, row.correlationID, row.amount, row.processor, row.requestedAt)
	}
	query += " ON CONFLICT (correlation_id) DO NOTHING"

	if _, err := a.db.ExecContext(ctx, query, params...); err != nil {
		a.log.Error("failed to insert archive batch", "rows", len(a.pending), "err", err)
	}
	a.pending = a.pending[:0]
}
