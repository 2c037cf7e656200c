package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	bankingapp "github.com/sistemita/backend/internal/application/banking"
	"go.uber.org/zap"
)

// tickInterval is how often the loop checks the schedule
const tickInterval = 1 * time.Minute

// Runner runs one reconciliation sweep
type Runner interface {
	Run(ctx context.Context) (*bankingapp.RunReport, error)
}

// ReconciliationSchedulerConfig holds the daily sweep settings
type ReconciliationSchedulerConfig struct {
	Schedule Schedule
	// JobTimeout bounds a single sweep, zero means no limit
	JobTimeout time.Duration
}

// Status is a snapshot of the scheduler state
type Status struct {
	Running    bool                  `json:"running"`
	Schedule   string                `json:"schedule"`
	InProgress bool                  `json:"in_progress"`
	LastRunAt  *time.Time            `json:"last_run_at,omitempty"`
	NextRunAt  *time.Time            `json:"next_run_at,omitempty"`
	LastReport *bankingapp.RunReport `json:"last_report,omitempty"`
	LastError  string                `json:"last_error,omitempty"`
}

// ReconciliationScheduler runs the bank reconciliation sweep once a day
type ReconciliationScheduler struct {
	config ReconciliationSchedulerConfig
	runner Runner
	logger *zap.Logger
	now    func() time.Time

	cancel     context.CancelFunc
	wg         sync.WaitGroup
	mu         sync.Mutex
	isRunning  bool
	inProgress atomic.Bool

	lastRunAt  *time.Time
	nextRunAt  *time.Time
	lastReport *bankingapp.RunReport
	lastError  string
}

// NewReconciliationScheduler creates a scheduler for runner
func NewReconciliationScheduler(config ReconciliationSchedulerConfig, runner Runner, logger *zap.Logger) *ReconciliationScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationScheduler{
		config: config,
		runner: runner,
		logger: logger,
		now:    time.Now,
	}
}

// Start starts the schedule loop
func (s *ReconciliationScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	next := s.config.Schedule.Next(s.now())
	s.nextRunAt = &next
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Reconciliation scheduler started",
		zap.String("schedule", s.config.Schedule.String()),
		zap.Time("next_run_at", next),
	)
	return nil
}

// Stop cancels the loop and waits for a sweep in progress to finish
func (s *ReconciliationScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Reconciliation scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Reconciliation scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *ReconciliationScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if s.due(now) {
				_ = s.runOnce(ctx)
			}
		}
	}
}

// due reports whether now is the scheduled minute and no run started in it yet
func (s *ReconciliationScheduler) due(now time.Time) bool {
	if !s.config.Schedule.Matches(now) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunAt == nil || now.Sub(*s.lastRunAt) >= tickInterval
}

// runOnce runs a sweep unless one is already in progress
func (s *ReconciliationScheduler) runOnce(ctx context.Context) error {
	if !s.inProgress.CompareAndSwap(false, true) {
		s.logger.Warn("Skipping reconciliation run, previous run still in progress")
		return ErrRunInProgress
	}
	defer s.inProgress.Store(false)

	started := s.now()
	s.mu.Lock()
	s.lastRunAt = &started
	s.mu.Unlock()

	if s.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.JobTimeout)
		defer cancel()
	}

	report, err := s.runner.Run(ctx)

	next := s.config.Schedule.Next(s.now())
	s.mu.Lock()
	s.nextRunAt = &next
	if report != nil {
		s.lastReport = report
	}
	s.lastError = ""
	if err != nil {
		s.lastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Scheduled reconciliation failed", zap.Error(err))
		return err
	}
	s.logger.Info("Scheduled reconciliation finished",
		zap.Int("processed", report.Processed),
		zap.Int("reconciled", report.Reconciled),
		zap.Int("unmatched", report.Unmatched),
		zap.Int("failed", report.Failed),
		zap.Time("next_run_at", next),
	)
	return nil
}

// TriggerManualRun starts a sweep outside the schedule.
// The run is detached from the caller's context so it outlives an HTTP request.
func (s *ReconciliationScheduler) TriggerManualRun() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return ErrSchedulerNotRunning
	}
	if s.inProgress.Load() {
		return ErrRunInProgress
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.runOnce(context.Background())
	}()
	return nil
}

// Status returns the current scheduler state
func (s *ReconciliationScheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Status{
		Running:    s.isRunning,
		Schedule:   s.config.Schedule.String(),
		InProgress: s.inProgress.Load(),
		LastRunAt:  s.lastRunAt,
		NextRunAt:  s.nextRunAt,
		LastReport: s.lastReport,
		LastError:  s.lastError,
	}
}
