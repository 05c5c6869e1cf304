package collector

import (
	"fmt"
	"time"
)

// SourceUnavailableError means the status file was missing or unreadable
// at poll time. Soft: recorded in the poll outcome, never fatal.
type SourceUnavailableError struct {
	Path string
	Err  error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("status source %s unavailable: %v", e.Path, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// StaleDataError means the status file's data is older than the configured
// threshold. Soft: the poll still reconciles whatever was parsed.
type StaleDataError struct {
	Age       time.Duration
	Threshold time.Duration
}

func (e *StaleDataError) Error() string {
	return fmt.Sprintf("status data is stale (%.0fs old, threshold %.0fs)",
		e.Age.Seconds(), e.Threshold.Seconds())
}

// PersistenceError means an incident or metadata write failed during
// reconciliation. Hard at the executor boundary: remaining uncommitted
// writes of the cycle are abandoned; already-committed per-entity writes
// stay (cycle-level atomicity is not guaranteed).
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// RecoveryError means the supervisor could not rebuild its trigger
// mechanism after crossing the failure threshold. Fatal: not auto-retried,
// surfaced as critical health, requires an external restart.
type RecoveryError struct {
	Err error
}

func (e *RecoveryError) Error() string {
	return fmt.Sprintf("failed to rebuild poll trigger: %v", e.Err)
}

func (e *RecoveryError) Unwrap() error {
	return e.Err
}
