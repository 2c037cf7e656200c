package banking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sistemita/backend/internal/domain/banking"
	"github.com/sistemita/backend/internal/domain/shared"
	"github.com/sistemita/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Movement outcomes of a reconciliation run
const (
	OutcomeReconciled = telemetry.OutcomeReconciled
	OutcomeUnmatched  = telemetry.OutcomeUnmatched
	OutcomeSkipped    = telemetry.OutcomeSkipped
	OutcomeFailed     = telemetry.OutcomeFailed
)

// errAlreadyReconciled marks a movement that already has a settlement
var errAlreadyReconciled = errors.New("movement already reconciled")

// ReconciliationConfig tunes the sweep
type ReconciliationConfig struct {
	// BatchSize is the page size used to walk the unreconciled movements.
	// Every run still visits all of them. 0 loads them in a single page.
	BatchSize int
	// StopOnError aborts the run at the first failed movement
	StopOnError bool
}

// MovementOutcome is what happened to one movement during a run
type MovementOutcome struct {
	MovementID   uuid.UUID       `json:"movement_id"`
	Date         time.Time       `json:"date"`
	Code         string          `json:"code"`
	Amount       decimal.Decimal `json:"amount"`
	Outcome      string          `json:"outcome"`
	Matcher      string          `json:"matcher,omitempty"`
	Kind         string          `json:"kind,omitempty"`
	SettlementID *uuid.UUID      `json:"settlement_id,omitempty"`
	Reason       string          `json:"reason,omitempty"`
}

// RunReport summarizes a reconciliation run
type RunReport struct {
	StartedAt  time.Time         `json:"started_at"`
	Duration   time.Duration     `json:"duration"`
	Processed  int               `json:"processed"`
	Reconciled int               `json:"reconciled"`
	Unmatched  int               `json:"unmatched"`
	Skipped    int               `json:"skipped"`
	Failed     int               `json:"failed"`
	ByKind     map[string]int    `json:"by_kind"`
	Outcomes   []MovementOutcome `json:"outcomes"`
	Aborted    bool              `json:"aborted,omitempty"`
}

func (r *RunReport) add(o MovementOutcome) {
	r.Processed++
	switch o.Outcome {
	case OutcomeReconciled:
		r.Reconciled++
		r.ByKind[o.Kind]++
	case OutcomeUnmatched:
		r.Unmatched++
	case OutcomeSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
	r.Outcomes = append(r.Outcomes, o)
}

// ReconciliationService settles unreconciled bank movements through the
// matcher registry, one transaction per movement
type ReconciliationService struct {
	txScope        TransactionScope
	registry       *banking.MatcherRegistry
	config         ReconciliationConfig
	eventPublisher shared.EventPublisher
	metrics        *telemetry.LedgerMetrics
	logger         *zap.Logger
}

// NewReconciliationService creates a new ReconciliationService.
// A nil registry means banking.DefaultMatcherRegistry().
func NewReconciliationService(
	txScope TransactionScope,
	registry *banking.MatcherRegistry,
	config ReconciliationConfig,
	logger *zap.Logger,
) *ReconciliationService {
	if registry == nil {
		registry = banking.DefaultMatcherRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationService{
		txScope:  txScope,
		registry: registry,
		config:   config,
		logger:   logger,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *ReconciliationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the ledger metrics recorder
func (s *ReconciliationService) SetMetrics(metrics *telemetry.LedgerMetrics) {
	s.metrics = metrics
}

// Run sweeps every unreconciled movement in date and statement order.
// A movement that fails never blocks the next one unless StopOnError is set.
func (s *ReconciliationService) Run(ctx context.Context) (*RunReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "run")
	defer span.End()

	report := &RunReport{
		StartedAt: time.Now(),
		ByKind:    make(map[string]int),
		Outcomes:  make([]MovementOutcome, 0),
	}

	s.logger.Info("Reconciliation started", zap.Int("page_size", s.config.BatchSize))

	var cursor *banking.MovementCursor
	for !report.Aborted {
		page, err := s.nextPage(ctx, cursor)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("list unreconciled movements: %w", err)
		}
		s.logger.Debug("Reconciliation page loaded", zap.Int("movements", len(page)))

		for _, m := range page {
			if err := ctx.Err(); err != nil {
				report.Aborted = true
				break
			}
			outcome := s.reconcile(ctx, m)
			report.add(outcome)
			if outcome.Outcome == OutcomeFailed && s.config.StopOnError {
				report.Aborted = true
				break
			}
		}

		if s.config.BatchSize <= 0 || len(page) < s.config.BatchSize {
			break
		}
		next := page[len(page)-1].Cursor()
		cursor = &next
	}

	report.Duration = time.Since(report.StartedAt)
	s.metrics.RecordSweep(ctx, report.Duration)
	telemetry.SetAttributes(span,
		"processed", report.Processed,
		"reconciled", report.Reconciled,
		"failed", report.Failed)
	s.logger.Info("Reconciliation finished",
		zap.Int("processed", report.Processed),
		zap.Int("reconciled", report.Reconciled),
		zap.Int("unmatched", report.Unmatched),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Duration("duration", report.Duration))
	return report, nil
}

// nextPage loads the unreconciled movements past cursor
func (s *ReconciliationService) nextPage(ctx context.Context, cursor *banking.MovementCursor) ([]*banking.BankMovement, error) {
	var page []*banking.BankMovement
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		page, err = repos.Movements().FindUnreconciled(ctx, cursor, s.config.BatchSize)
		return err
	})
	return page, err
}

// ReconcileOne settles a single movement. A movement that already has a
// settlement is reported as skipped.
func (s *ReconciliationService) ReconcileOne(ctx context.Context, movementID uuid.UUID) (*MovementOutcome, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "reconcile_one", telemetry.SpanAttrMovementID, movementID.String())
	defer span.End()

	var m *banking.BankMovement
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		m, err = repos.Movements().FindByID(ctx, movementID)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	outcome := s.reconcile(ctx, m)
	return &outcome, nil
}

// ListUnreconciled returns movements still waiting for a settlement
func (s *ReconciliationService) ListUnreconciled(ctx context.Context, limit int) ([]*banking.BankMovement, int64, error) {
	var (
		movements []*banking.BankMovement
		total     int64
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		if movements, err = repos.Movements().FindUnreconciled(ctx, nil, limit); err != nil {
			return err
		}
		total, err = repos.Movements().CountUnreconciled(ctx)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

// reconcile classifies and settles one movement inside its own transaction
func (s *ReconciliationService) reconcile(ctx context.Context, m *banking.BankMovement) MovementOutcome {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "settle",
		telemetry.SpanAttrMovementID, m.ID.String(),
		telemetry.SpanAttrMovementCode, m.Code)
	defer span.End()

	outcome := MovementOutcome{
		MovementID: m.ID,
		Date:       m.Date,
		Code:       m.Code,
		Amount:     m.Amount,
	}
	log := s.logger.With(zap.String("movement_id", m.ID.String()), zap.String("code", m.Code))

	var (
		matched    banking.Matcher
		settlement *banking.Settlement
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		switch _, err := repos.Settlements().FindByMovement(ctx, m.ID); {
		case err == nil:
			return errAlreadyReconciled
		case !shared.IsNotFound(err):
			return fmt.Errorf("find settlement: %w", err)
		}

		var err error
		matched, err = s.registry.Classify(ctx, m, repos)
		if err != nil || matched == nil {
			return err
		}
		settlement, err = matched.Settle(ctx, m, repos)
		if err != nil {
			return fmt.Errorf("matcher %s: %w", matched.Name(), err)
		}
		return repos.Settlements().Save(ctx, settlement)
	})
	if matched != nil {
		outcome.Matcher = matched.Name()
		telemetry.SetAttributes(span, telemetry.SpanAttrMatcher, matched.Name())
	}

	switch {
	case err == nil && matched == nil:
		outcome.Outcome = OutcomeUnmatched
		log.Debug("No matcher for movement")
	case err == nil:
		outcome.Outcome = OutcomeReconciled
		outcome.Kind = string(settlement.Kind)
		outcome.SettlementID = &settlement.ID
		log.Info("Movement reconciled",
			zap.String("matcher", outcome.Matcher),
			zap.String("settlement_id", settlement.ID.String()),
			zap.String("amount", settlement.Amount.StringFixed(2)))
		s.publish(ctx, settlement)
	case errors.Is(err, errAlreadyReconciled), errors.Is(err, shared.ErrAlreadyExists):
		outcome.Outcome = OutcomeSkipped
		outcome.Reason = errAlreadyReconciled.Error()
	case shared.IsNotFound(err), shared.IsValidation(err):
		outcome.Outcome = OutcomeSkipped
		outcome.Reason = err.Error()
		log.Info("Movement left unreconciled", zap.String("matcher", outcome.Matcher), zap.Error(err))
	default:
		outcome.Outcome = OutcomeFailed
		outcome.Reason = err.Error()
		telemetry.RecordError(span, err)
		log.Error("Failed to reconcile movement", zap.String("matcher", outcome.Matcher), zap.Error(err))
	}

	s.metrics.RecordReconciliation(ctx, outcome.Outcome, outcome.Kind)
	return outcome
}

func (s *ReconciliationService) publish(ctx context.Context, settlement *banking.Settlement) {
	if s.eventPublisher == nil {
		settlement.ClearDomainEvents()
		return
	}
	for _, event := range settlement.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("Failed to publish settlement event",
				zap.String("event_type", event.EventType()),
				zap.String("settlement_id", settlement.ID.String()),
				zap.Error(err))
		}
	}
	settlement.ClearDomainEvents()
}
