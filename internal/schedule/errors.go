package schedule

import "errors"

// Errors returned by the scheduler.
var (
	// ErrAlreadyRunning is returned by Start on a running scheduler.
	ErrAlreadyRunning = errors.New("scheduler already running")

	// ErrNotRunning is returned by Wait when the scheduler is stopped.
	ErrNotRunning = errors.New("scheduler not running")
)
