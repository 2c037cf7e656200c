package event

import (
	"context"

	"github.com/sistemita/backend/internal/domain/banking"
	"github.com/sistemita/backend/internal/domain/invoicing"
	"github.com/sistemita/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LedgerLogHandler writes one structured log line per ledger event, giving
// an audit trail of imputations and reconciled movements
type LedgerLogHandler struct {
	logger *zap.Logger
}

// NewLedgerLogHandler creates a LedgerLogHandler
func NewLedgerLogHandler(logger *zap.Logger) *LedgerLogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerLogHandler{logger: logger.Named("ledger")}
}

// EventTypes lists the ledger events
func (h *LedgerLogHandler) EventTypes() []string {
	return []string{
		invoicing.EventTypeInvoiceRegistered,
		invoicing.EventTypeImputationApplied,
		invoicing.EventTypeImputationUpdated,
		invoicing.EventTypeImputationReversed,
		banking.EventTypeMovementReconciled,
	}
}

// Handle logs ev
func (h *LedgerLogHandler) Handle(_ context.Context, ev shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_id", ev.EventID().String()),
		zap.String("event_type", ev.EventType()),
		zap.String("aggregate_type", ev.AggregateType()),
		zap.String("aggregate_id", ev.AggregateID().String()),
	}

	switch e := ev.(type) {
	case *invoicing.InvoiceRegisteredEvent:
		fields = append(fields,
			zap.String("side", string(e.Side)),
			zap.String("type", string(e.Type)),
			zap.String("number", e.Number),
			zap.String("total", e.Total.StringFixed(2)))
	case *invoicing.ImputationAppliedEvent:
		fields = append(fields,
			zap.String("credit_note_id", e.CreditNoteID.String()),
			zap.Int("invoices", len(e.InvoiceIDs)),
			zap.String("applied", e.Applied.StringFixed(2)),
			zap.String("remaining", e.Remaining.StringFixed(2)))
	case *invoicing.ImputationUpdatedEvent:
		fields = append(fields,
			zap.Int("invoices", len(e.InvoiceIDs)),
			zap.String("applied", e.Applied.StringFixed(2)),
			zap.String("remaining", e.Remaining.StringFixed(2)))
	case *invoicing.ImputationReversedEvent:
		fields = append(fields,
			zap.String("credit_note_id", e.CreditNoteID.String()),
			zap.String("returned", e.Returned.StringFixed(2)))
	case *banking.MovementReconciledEvent:
		fields = append(fields,
			zap.String("movement_id", e.MovementID.String()),
			zap.String("kind", string(e.Kind)),
			zap.String("code", e.Code),
			zap.String("amount", e.Amount.StringFixed(2)))
	}

	h.logger.Info("Ledger event", fields...)
	return nil
}

var _ shared.EventHandler = (*LedgerLogHandler)(nil)
