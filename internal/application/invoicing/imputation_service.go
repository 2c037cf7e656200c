package invoicing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sistemita/backend/internal/domain/invoicing"
	"github.com/sistemita/backend/internal/domain/shared"
	"github.com/sistemita/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Imputation operation names used for metrics
const (
	OperationCreate  = "create"
	OperationUpdate  = "update"
	OperationReverse = "reverse"
)

// ImputationService applies credit notes to invoices. Every operation
// validates its inputs, runs the allocator and persists the credit note,
// the touched invoices and the imputation in one transaction.
type ImputationService struct {
	txScope        TransactionScope
	allocator      *invoicing.CreditNoteAllocator
	eventPublisher shared.EventPublisher
	metrics        *telemetry.LedgerMetrics
	logger         *zap.Logger
	now            func() time.Time
}

// NewImputationService creates a new ImputationService
func NewImputationService(txScope TransactionScope, logger *zap.Logger) *ImputationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImputationService{
		txScope:   txScope,
		allocator: invoicing.NewCreditNoteAllocator(),
		logger:    logger,
		now:       time.Now,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *ImputationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the ledger metrics recorder
func (s *ImputationService) SetMetrics(metrics *telemetry.LedgerMetrics) {
	s.metrics = metrics
}

// Create applies a credit note to the given invoices in request order
func (s *ImputationService) Create(ctx context.Context, req CreateImputationRequest) (*ImputationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "imputation", "create",
		telemetry.SpanAttrCreditNoteID, req.CreditNoteID.String(),
		telemetry.SpanAttrInvoiceCount, len(req.InvoiceIDs))
	defer span.End()

	if len(req.InvoiceIDs) == 0 {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "At least one invoice is required")
	}
	if err := checkDistinct(req.InvoiceIDs); err != nil {
		return nil, err
	}

	date := req.Date
	if date.IsZero() {
		date = s.now()
	}

	var (
		imp        *invoicing.Imputation
		creditNote *invoicing.Invoice
		result     *invoicing.AllocationResult
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		cn, err := loadCreditNote(ctx, repos, req.CreditNoteID)
		if err != nil {
			return err
		}
		if req.Side != "" && invoicing.Side(req.Side) != cn.Side {
			return shared.NewValidationError(shared.CodeOwnerMismatch, "Credit note side does not match the request")
		}
		if req.OwnerID != nil && *req.OwnerID != cn.OwnerID {
			return shared.NewValidationError(shared.CodeOwnerMismatch, "Credit note owner does not match the request")
		}

		switch existing, err := repos.ImputationRepo().FindByCreditNote(ctx, cn.ID); {
		case err == nil:
			return shared.NewValidationError(shared.CodeCreditNoteInUse,
				fmt.Sprintf("Credit note %s is already imputed by %s", cn.Number, existing.ID))
		case !shared.IsNotFound(err):
			return fmt.Errorf("find imputation by credit note: %w", err)
		}

		if !cn.Total.IsPositive() {
			return shared.NewValidationError(shared.CodeInvalidAmount,
				fmt.Sprintf("Credit note %s has no remaining balance", cn.Number))
		}

		invoices, err := loadInvoices(ctx, repos, req.InvoiceIDs)
		if err != nil {
			return err
		}
		for _, inv := range invoices {
			if err := checkTarget(cn, inv, false); err != nil {
				return err
			}
		}

		imp = invoicing.NewImputation(date, cn)
		result, err = s.allocator.Allocate(imp, cn, invoices)
		if err != nil {
			return err
		}
		if err := saveBalances(ctx, repos, cn, result.Touched); err != nil {
			return err
		}
		if err := repos.ImputationRepo().Save(ctx, imp); err != nil {
			return fmt.Errorf("save imputation: %w", err)
		}
		creditNote = cn
		return nil
	})
	if err != nil {
		s.fail(ctx, span, OperationCreate, err, zap.String("credit_note_id", req.CreditNoteID.String()))
		return nil, err
	}

	s.metrics.RecordImputation(ctx, OperationCreate, result.Applied, nil)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrImputationID, imp.ID.String(),
		telemetry.SpanAttrAmount, result.Applied.String())
	s.logger.Info("Credit note imputed",
		zap.String("imputation_id", imp.ID.String()),
		zap.String("credit_note_id", creditNote.ID.String()),
		zap.String("applied", result.Applied.StringFixed(2)),
		zap.String("remaining", result.Remaining.StringFixed(2)))
	s.publish(ctx, imp)

	resp := ToImputationResponse(imp, creditNote)
	return &resp, nil
}

// GetByID retrieves an imputation with its lines and the credit note balance
func (s *ImputationService) GetByID(ctx context.Context, id uuid.UUID) (*ImputationResponse, error) {
	var resp ImputationResponse
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		imp, err := repos.ImputationRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		cn, err := repos.InvoiceRepo().FindByID(ctx, imp.CreditNoteID)
		if err != nil {
			return err
		}
		resp = ToImputationResponse(imp, cn)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Update adds, replaces or removes invoices of an existing imputation
func (s *ImputationService) Update(ctx context.Context, id uuid.UUID, req UpdateImputationRequest) (*ImputationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "imputation", "update",
		telemetry.SpanAttrImputationID, id.String(),
		"action_count", len(req.Actions))
	defer span.End()

	if len(req.Actions) == 0 {
		return nil, shared.NewValidationError(shared.CodeInvalidInput, "At least one change is required")
	}

	var (
		imp        *invoicing.Imputation
		creditNote *invoicing.Invoice
		result     *invoicing.AllocationResult
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		imp, err = repos.ImputationRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		cn, err := loadCreditNote(ctx, repos, imp.CreditNoteID)
		if err != nil {
			return err
		}

		changes, err := buildChanges(ctx, repos, imp, cn, req.Actions)
		if err != nil {
			return err
		}

		result, err = s.allocator.Update(imp, cn, changes)
		if err != nil {
			return err
		}
		if err := saveBalances(ctx, repos, cn, result.Touched); err != nil {
			return err
		}
		if err := repos.ImputationRepo().SaveWithLock(ctx, imp); err != nil {
			return fmt.Errorf("save imputation: %w", err)
		}
		creditNote = cn
		return nil
	})
	if err != nil {
		s.fail(ctx, span, OperationUpdate, err, zap.String("imputation_id", id.String()))
		return nil, err
	}

	s.metrics.RecordImputation(ctx, OperationUpdate, result.Applied, nil)
	s.logger.Info("Imputation updated",
		zap.String("imputation_id", imp.ID.String()),
		zap.Int("changes", len(req.Actions)),
		zap.String("applied", result.Applied.StringFixed(2)),
		zap.String("remaining", result.Remaining.StringFixed(2)))
	s.publish(ctx, imp)

	resp := ToImputationResponse(imp, creditNote)
	return &resp, nil
}

// Reverse undoes an imputation: every applied amount returns to its invoice
// and to the credit note, and the imputation is deleted
func (s *ImputationService) Reverse(ctx context.Context, id uuid.UUID) (*ReversalResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "imputation", "reverse", telemetry.SpanAttrImputationID, id.String())
	defer span.End()

	var (
		imp      *invoicing.Imputation
		resp     ReversalResponse
		returned decimal.Decimal
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		imp, err = repos.ImputationRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		cn, err := loadCreditNote(ctx, repos, imp.CreditNoteID)
		if err != nil {
			return err
		}
		invoices, err := repos.InvoiceRepo().FindByIDs(ctx, imp.InvoiceIDs())
		if err != nil {
			return fmt.Errorf("load imputed invoices: %w", err)
		}

		result, err := s.allocator.Reverse(imp, cn, invoices)
		if err != nil {
			return err
		}
		if err := saveBalances(ctx, repos, cn, result.Touched); err != nil {
			return err
		}
		if err := repos.ImputationRepo().Delete(ctx, imp.ID); err != nil {
			return fmt.Errorf("delete imputation: %w", err)
		}

		returned = result.Applied.Neg()
		restored := make([]uuid.UUID, len(result.Touched))
		for i, inv := range result.Touched {
			restored[i] = inv.ID
		}
		resp = ReversalResponse{
			ImputationID:        imp.ID,
			CreditNoteID:        cn.ID,
			Returned:            returned,
			CreditNoteRemaining: cn.Total,
			RestoredInvoices:    restored,
		}
		return nil
	})
	if err != nil {
		s.fail(ctx, span, OperationReverse, err, zap.String("imputation_id", id.String()))
		return nil, err
	}

	s.metrics.RecordImputation(ctx, OperationReverse, returned, nil)
	s.logger.Info("Imputation reversed",
		zap.String("imputation_id", id.String()),
		zap.String("returned", returned.StringFixed(2)))
	s.publish(ctx, imp)
	return &resp, nil
}

func (s *ImputationService) fail(ctx context.Context, span trace.Span, op string, err error, fields ...zap.Field) {
	telemetry.RecordError(span, err)
	s.metrics.RecordImputation(ctx, op, decimal.Zero, err)
	if shared.IsValidation(err) || shared.IsNotFound(err) {
		s.logger.Info("Imputation rejected", append(fields, zap.String("operation", op), zap.Error(err))...)
		return
	}
	s.logger.Error("Imputation failed", append(fields, zap.String("operation", op), zap.Error(err))...)
}

func (s *ImputationService) publish(ctx context.Context, imp *invoicing.Imputation) {
	if s.eventPublisher == nil {
		imp.ClearDomainEvents()
		return
	}
	for _, event := range imp.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("Failed to publish imputation event",
				zap.String("event_type", event.EventType()),
				zap.String("imputation_id", imp.ID.String()),
				zap.Error(err))
		}
	}
	imp.ClearDomainEvents()
}

func loadCreditNote(ctx context.Context, repos TransactionalRepositories, id uuid.UUID) (*invoicing.Invoice, error) {
	cn, err := repos.InvoiceRepo().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !cn.IsCreditNote() {
		return nil, shared.NewValidationError(shared.CodeNotCreditNote,
			fmt.Sprintf("Invoice %s is not a credit note", cn.Number))
	}
	return cn, nil
}

// loadInvoices returns the invoices in the order of ids
func loadInvoices(ctx context.Context, repos TransactionalRepositories, ids []uuid.UUID) ([]*invoicing.Invoice, error) {
	found, err := repos.InvoiceRepo().FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load invoices: %w", err)
	}
	byID := make(map[uuid.UUID]*invoicing.Invoice, len(found))
	for _, inv := range found {
		byID[inv.ID] = inv
	}
	ordered := make([]*invoicing.Invoice, 0, len(ids))
	for _, id := range ids {
		inv, ok := byID[id]
		if !ok {
			return nil, shared.NewNotFoundError(fmt.Sprintf("Invoice %s not found", id))
		}
		ordered = append(ordered, inv)
	}
	return ordered, nil
}

// checkTarget verifies that inv can receive the credit note. A reopened
// invoice gets its line amount back before it is applied again, so it is
// not rejected as paid.
func checkTarget(cn, inv *invoicing.Invoice, reopened bool) error {
	if inv.IsCreditNote() {
		return shared.NewValidationError(shared.CodeInvalidInput,
			fmt.Sprintf("Invoice %s is a credit note and cannot be imputed", inv.Number))
	}
	if inv.Side != cn.Side || inv.OwnerID != cn.OwnerID {
		return shared.NewValidationError(shared.CodeOwnerMismatch,
			fmt.Sprintf("Invoice %s does not belong to the credit note owner", inv.Number))
	}
	if inv.Currency != cn.Currency {
		return shared.NewValidationError(shared.CodeInvalidCurrency,
			fmt.Sprintf("Invoice %s is in %s, credit note is in %s", inv.Number, inv.Currency, cn.Currency))
	}
	if !reopened && !inv.IsOutstanding() {
		return shared.NewValidationError(shared.CodeInvoiceAlreadyPaid,
			fmt.Sprintf("Invoice %s is already paid", inv.Number))
	}
	return nil
}

func checkDistinct(ids []uuid.UUID) error {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return shared.NewValidationError(shared.CodeDuplicateInvoice,
				fmt.Sprintf("Invoice %s is listed more than once", id))
		}
		seen[id] = struct{}{}
	}
	return nil
}

// buildChanges resolves the invoices referenced by the requested actions.
// Invoices entering the imputation are validated as targets, in action
// order: an invoice detached by an earlier action counts as reopened.
func buildChanges(ctx context.Context, repos TransactionalRepositories, imp *invoicing.Imputation, cn *invoicing.Invoice, actions []ImputationChangeRequest) ([]invoicing.ImputationChange, error) {
	ids := make([]uuid.UUID, 0, len(actions)*2)
	for _, a := range actions {
		ids = append(ids, a.InvoiceID)
		if a.ReplacementID != nil {
			ids = append(ids, *a.ReplacementID)
		}
	}
	found, err := repos.InvoiceRepo().FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load invoices: %w", err)
	}
	byID := make(map[uuid.UUID]*invoicing.Invoice, len(found))
	for _, inv := range found {
		byID[inv.ID] = inv
	}
	lookup := func(id uuid.UUID) (*invoicing.Invoice, error) {
		inv, ok := byID[id]
		if !ok {
			return nil, shared.NewNotFoundError(fmt.Sprintf("Invoice %s not found", id))
		}
		return inv, nil
	}

	reopened := make(map[uuid.UUID]bool)
	release := func(inv *invoicing.Invoice) {
		if line, ok := imp.Line(inv.ID); ok && line.Amount.IsPositive() {
			reopened[inv.ID] = true
		}
	}

	changes := make([]invoicing.ImputationChange, 0, len(actions))
	for _, a := range actions {
		action := invoicing.ChangeAction(a.Action)
		if !action.IsValid() {
			return nil, shared.NewValidationError(shared.CodeInvalidInput, "Unknown change action: "+a.Action)
		}
		inv, err := lookup(a.InvoiceID)
		if err != nil {
			return nil, err
		}
		ch := invoicing.ImputationChange{Action: action, Invoice: inv}

		switch action {
		case invoicing.ChangeAdd:
			if err := checkTarget(cn, inv, reopened[inv.ID]); err != nil {
				return nil, err
			}
		case invoicing.ChangeDelete:
			release(inv)
		case invoicing.ChangeUpdate:
			if a.ReplacementID == nil {
				return nil, shared.NewValidationError(shared.CodeInvalidInput,
					fmt.Sprintf("Update of invoice %s needs a replacement", inv.Number))
			}
			replacement, err := lookup(*a.ReplacementID)
			if err != nil {
				return nil, err
			}
			release(inv)
			if err := checkTarget(cn, replacement, reopened[replacement.ID]); err != nil {
				return nil, err
			}
			ch.Replacement = replacement
		}
		changes = append(changes, ch)
	}
	return changes, nil
}

// saveBalances persists the credit note and every touched invoice with a version check
func saveBalances(ctx context.Context, repos TransactionalRepositories, cn *invoicing.Invoice, touched []*invoicing.Invoice) error {
	if err := repos.InvoiceRepo().SaveWithLock(ctx, cn); err != nil {
		return fmt.Errorf("save credit note %s: %w", cn.Number, err)
	}
	for _, inv := range touched {
		if err := repos.InvoiceRepo().SaveWithLock(ctx, inv); err != nil {
			return fmt.Errorf("save invoice %s: %w", inv.Number, err)
		}
	}
	return nil
}
