package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// SupervisorState is the supervisor's lifecycle state
type SupervisorState string

const (
	StateStopped    SupervisorState = "stopped"
	StateRunning    SupervisorState = "running"
	StateRecovering SupervisorState = "recovering"
)

// HealthLevel summarizes supervisor health for operators
type HealthLevel string

const (
	HealthHealthy  HealthLevel = "healthy"
	HealthDegraded HealthLevel = "degraded"
	HealthCritical HealthLevel = "critical"
)

// HealthStatus is a read-only snapshot of the supervisor's counters.
// Callers get a copy; the live state is only ever mutated by the
// supervisor itself.
type HealthStatus struct {
	State                  SupervisorState `json:"state"`
	IsRunning              bool            `json:"is_running"`
	TriggerAlive           bool            `json:"trigger_alive"`
	ConsecutiveFailures    int             `json:"consecutive_failures"`
	MaxConsecutiveFailures int             `json:"max_consecutive_failures"`
	RecoveryAttempts       int             `json:"recovery_attempts"`
	Health                 HealthLevel     `json:"health"`
}

// PollRunner is the slice of PollExecutor the supervisor depends on
type PollRunner interface {
	ExecuteOnce(ctx context.Context) *PollOutcome
}

// ErrPollInProgress is returned when a manual poll is requested while
// another poll holds the single execution slot
var ErrPollInProgress = errors.New("a poll is already in progress")

// ErrNotRunning is returned when a manual poll is requested while the
// supervisor is stopped or recovering
var ErrNotRunning = errors.New("poller is not running")

// Supervisor owns the periodic poll trigger and heals it. Polls run
// strictly one at a time; a trigger fire that lands while a poll is
// executing is dropped, not queued. After maxFailures consecutive failed
// cycles the trigger mechanism is discarded and rebuilt from scratch.
// If that rebuild itself fails the supervisor stays in Recovering with
// critical health and leaves the restart to an external process manager.
type Supervisor struct {
	executor PollRunner
	interval time.Duration

	mu                  sync.Mutex
	state               SupervisorState
	scheduler           gocron.Scheduler
	consecutiveFailures int
	maxFailures         int
	recoveryAttempts    int
	recoveryErr         error

	// newTrigger builds and starts a fresh trigger mechanism; replaced
	// in tests
	newTrigger func() (gocron.Scheduler, error)

	ticks  chan struct{}
	stopCh chan struct{}
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc

	pollMu chan struct{} // 1-slot semaphore: the single poll slot
}

// NewSupervisor creates a supervisor polling at the given interval
func NewSupervisor(executor PollRunner, interval time.Duration, maxConsecutiveFailures int) *Supervisor {
	if maxConsecutiveFailures <= 0 {
		maxConsecutiveFailures = 3
	}
	s := &Supervisor{
		executor:    executor,
		interval:    interval,
		state:       StateStopped,
		maxFailures: maxConsecutiveFailures,
		ticks:       make(chan struct{}),
		pollMu:      make(chan struct{}, 1),
	}
	s.newTrigger = s.buildTrigger
	return s
}

// buildTrigger constructs and starts a gocron scheduler that fires
// immediately and then at every poll interval
func (s *Supervisor) buildTrigger() (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(s.fireTick),
		gocron.WithName("status-poll"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to create poll job: %w", err)
	}

	sched.Start()
	return sched, nil
}

// fireTick hands the trigger fire to the supervisor loop. Non-blocking:
// if the loop is still busy with the previous poll the fire is dropped.
func (s *Supervisor) fireTick() {
	select {
	case s.ticks <- struct{}{}:
	default:
		log.Printf("Supervisor: poll still in progress, skipping scheduled trigger")
	}
}

// Start transitions Stopped/Recovering to Running and installs the
// periodic trigger
func (s *Supervisor) Start() error {
	s.mu.Lock()
	if s.state == StateRunning {
		s.mu.Unlock()
		log.Printf("Supervisor: already running")
		return nil
	}

	sched, err := s.newTrigger()
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to start poll trigger: %w", err)
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	s.scheduler = sched
	s.state = StateRunning
	s.recoveryErr = nil
	s.mu.Unlock()

	go s.run()
	log.Printf("Supervisor started with poll interval %s", s.interval)
	return nil
}

// run is the supervisor loop: it serializes poll execution and outcome
// handling on one goroutine, away from the trigger's own goroutines
func (s *Supervisor) run() {
	defer close(s.done)
	for {
		select {
		case <-s.stopCh:
			return
		case <-s.ticks:
			if outcome, err := s.pollOnce(s.ctx); err == nil {
				s.handleOutcome(outcome)
			}
		}
	}
}

// pollOnce executes one cycle while holding the single poll slot
func (s *Supervisor) pollOnce(ctx context.Context) (*PollOutcome, error) {
	select {
	case s.pollMu <- struct{}{}:
	default:
		return nil, ErrPollInProgress
	}
	defer func() { <-s.pollMu }()

	return s.executor.ExecuteOnce(ctx), nil
}

// handleOutcome updates the failure counter and performs recovery when
// the threshold is crossed
func (s *Supervisor) handleOutcome(outcome *PollOutcome) {
	s.mu.Lock()

	if !outcome.Failed() {
		s.consecutiveFailures = 0
		s.mu.Unlock()
		return
	}

	s.consecutiveFailures++
	log.Printf("Supervisor: poll failed (%d/%d consecutive failures)",
		s.consecutiveFailures, s.maxFailures)

	if s.consecutiveFailures < s.maxFailures || s.state != StateRunning {
		s.mu.Unlock()
		return
	}

	// Threshold crossed: discard the trigger mechanism and rebuild it.
	// The swap is a critical section; no fire may be seen by both the
	// old and the new scheduler.
	s.state = StateRecovering
	s.recoveryAttempts++
	old := s.scheduler
	s.scheduler = nil
	attempt := s.recoveryAttempts
	s.mu.Unlock()

	log.Printf("Supervisor: failure threshold reached, rebuilding poll trigger (recovery #%d)", attempt)

	if old != nil {
		if err := old.Shutdown(); err != nil {
			log.Printf("Supervisor: error shutting down old trigger: %v", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecovering {
		// Stop() won the race; leave the rebuilt world to a later Start()
		return
	}

	sched, err := s.newTrigger()
	if err != nil {
		s.recoveryErr = &RecoveryError{Err: err}
		log.Printf("Supervisor: FATAL: %v; external restart required", s.recoveryErr)
		return
	}

	s.scheduler = sched
	s.consecutiveFailures = 0
	s.state = StateRunning
	log.Printf("Supervisor: recovery #%d complete, trigger rebuilt", attempt)
}

// Stop halts the trigger and waits for any in-flight poll to finish.
// No poll executes after Stop returns.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		log.Printf("Supervisor: not running")
		return nil
	}

	sched := s.scheduler
	s.scheduler = nil
	s.state = StateStopped
	cancel := s.cancel
	stopCh := s.stopCh
	done := s.done
	s.mu.Unlock()

	// Unwedge a poll stuck in its source-read timeout path
	if cancel != nil {
		cancel()
	}
	if sched != nil {
		if err := sched.Shutdown(); err != nil {
			log.Printf("Supervisor: error shutting down trigger: %v", err)
		}
	}
	if stopCh != nil {
		close(stopCh)
		<-done
	}

	// Await a manual poll that may still hold the slot
	s.pollMu <- struct{}{}
	<-s.pollMu

	log.Printf("Supervisor stopped")
	return nil
}

// TriggerManualPoll runs one poll cycle outside the normal timer. It is
// subject to the same single-slot rule: if any poll is already running
// the request is rejected, never run concurrently. The slot is claimed
// under mu, in the same critical section as the state check, so a
// concurrent Stop either sees the claimed slot and waits for this poll,
// or flips the state first and this request is rejected.
func (s *Supervisor) TriggerManualPoll() (*PollOutcome, error) {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return nil, ErrNotRunning
	}
	select {
	case s.pollMu <- struct{}{}:
	default:
		s.mu.Unlock()
		return nil, ErrPollInProgress
	}
	ctx := s.ctx
	s.mu.Unlock()
	defer func() { <-s.pollMu }()

	outcome := s.executor.ExecuteOnce(ctx)
	s.handleOutcome(outcome)
	return outcome, nil
}

// HealthStatus returns a snapshot of the supervisor's health
func (s *Supervisor) HealthStatus() HealthStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := HealthStatus{
		State:                  s.state,
		IsRunning:              s.state == StateRunning,
		TriggerAlive:           s.scheduler != nil,
		ConsecutiveFailures:    s.consecutiveFailures,
		MaxConsecutiveFailures: s.maxFailures,
		RecoveryAttempts:       s.recoveryAttempts,
	}

	switch {
	case !h.IsRunning, s.recoveryErr != nil, s.consecutiveFailures >= s.maxFailures:
		h.Health = HealthCritical
	case s.consecutiveFailures > 0:
		h.Health = HealthDegraded
	default:
		h.Health = HealthHealthy
	}
	return h
}

// RecoveryError returns the fatal recovery failure, if one occurred
func (s *Supervisor) RecoveryError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recoveryErr
}
