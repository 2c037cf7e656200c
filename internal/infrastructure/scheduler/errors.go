package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when triggering a run on a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrRunInProgress is returned when a sweep is already running
	ErrRunInProgress = errors.New("reconciliation run already in progress")

	// ErrInvalidSchedule is returned for schedule expressions that cannot be parsed
	ErrInvalidSchedule = errors.New("invalid schedule expression")
)
