package telemetry

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
)

// Outcome labels
const (
	OutcomeOK         = "ok"
	OutcomeError      = "error"
	OutcomeReconciled = "reconciled"
	OutcomeUnmatched  = "unmatched"
	OutcomeSkipped    = "skipped"
	OutcomeFailed     = "failed"
)

// LedgerMetrics records imputation, reconciliation and statement import activity.
// A nil *LedgerMetrics is valid and records nothing.
type LedgerMetrics struct {
	imputations     *Counter
	imputedAmount   *Histogram
	reconciliations *Counter
	sweepDuration   *Histogram
	statementRows   *Counter
}

// NewLedgerMetrics creates the ledger instruments on the given meter
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	imputations, err := NewCounter(meter, "sistemita.imputations", "Imputation operations by outcome", "{operation}")
	if err != nil {
		return nil, err
	}
	imputedAmount, err := NewHistogram(meter, "sistemita.imputation.applied", "Amount moved from credit notes to invoices", "ARS")
	if err != nil {
		return nil, err
	}
	reconciliations, err := NewCounter(meter, "sistemita.reconciliations", "Bank movements processed by outcome and kind", "{movement}")
	if err != nil {
		return nil, err
	}
	sweepDuration, err := NewHistogram(meter, "sistemita.reconciliation.duration", "Duration of a reconciliation sweep", "s", DurationBuckets...)
	if err != nil {
		return nil, err
	}
	statementRows, err := NewCounter(meter, "sistemita.statement.rows", "Statement rows imported by result", "{row}")
	if err != nil {
		return nil, err
	}
	return &LedgerMetrics{
		imputations:     imputations,
		imputedAmount:   imputedAmount,
		reconciliations: reconciliations,
		sweepDuration:   sweepDuration,
		statementRows:   statementRows,
	}, nil
}

// RecordImputation records one allocator call
func (m *LedgerMetrics) RecordImputation(ctx context.Context, operation string, applied decimal.Decimal, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.imputations.Inc(ctx, AttrOperation.String(operation), AttrOutcome.String(outcome))
	if err == nil {
		m.imputedAmount.Record(ctx, applied.Abs().InexactFloat64(), AttrOperation.String(operation))
	}
}

// RecordReconciliation records the outcome of one movement. kind is empty when nothing matched.
func (m *LedgerMetrics) RecordReconciliation(ctx context.Context, outcome, kind string) {
	if m == nil {
		return
	}
	m.reconciliations.Inc(ctx, AttrOutcome.String(outcome), AttrKind.String(kind))
}

// RecordSweep records the duration of a reconciliation sweep
func (m *LedgerMetrics) RecordSweep(ctx context.Context, d time.Duration) {
	if m == nil {
		return
	}
	m.sweepDuration.RecordDuration(ctx, d)
}

// RecordStatementRows records imported statement rows
func (m *LedgerMetrics) RecordStatementRows(ctx context.Context, result string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.statementRows.Add(ctx, int64(n), AttrResult.String(result))
}
