package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/statusboardhq/statusboard/internal/database"
	"github.com/statusboardhq/statusboard/internal/nagios"
)

// Source supplies raw snapshot bytes. Read honors ctx so a wedged read
// cannot occupy the poll slot forever.
type Source interface {
	Read(ctx context.Context) (data []byte, mtime time.Time, err error)
	Path() string
}

// FileSource reads the monitoring daemon's status file from disk. The
// daemon rewrites the file in place, so reads can race a rewrite; a
// truncated read surfaces later as a parse error, which is the intended
// soft-failure path.
type FileSource struct {
	path    string
	timeout time.Duration
}

// NewFileSource creates a file source with an upper-bound read timeout
func NewFileSource(path string, timeout time.Duration) *FileSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &FileSource{path: path, timeout: timeout}
}

// Path returns the file path this source reads
func (s *FileSource) Path() string {
	return s.path
}

type fileReadResult struct {
	data  []byte
	mtime time.Time
	err   error
}

// Read loads the status file, bounded by the source timeout and ctx
func (s *FileSource) Read(ctx context.Context) ([]byte, time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ch := make(chan fileReadResult, 1)
	go func() {
		info, err := os.Stat(s.path)
		if err != nil {
			ch <- fileReadResult{err: err}
			return
		}
		data, err := os.ReadFile(s.path)
		ch <- fileReadResult{data: data, mtime: info.ModTime(), err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			// Missing file, permission denied and plain read errors all
			// mean the same thing to the poll: no snapshot this cycle.
			return nil, time.Time{}, &SourceUnavailableError{Path: s.path, Err: res.err}
		}
		return res.data, res.mtime, nil
	case <-ctx.Done():
		return nil, time.Time{}, &SourceUnavailableError{Path: s.path, Err: ctx.Err()}
	}
}

// PollOutcome is the result of one ingestion cycle. Soft failures land in
// Errors; a hard failure is converted to an outcome with a single error
// entry before it can reach the scheduler.
type PollOutcome struct {
	Timestamp         time.Time `json:"timestamp"`
	HostsSeen         int       `json:"hosts_processed"`
	ServicesSeen      int       `json:"services_processed"`
	Created           int       `json:"incidents_created"`
	Updated           int       `json:"incidents_updated"`
	Closed            int       `json:"incidents_closed"`
	CommentsProcessed int       `json:"comments_processed"`
	Errors            []string  `json:"errors"`

	ingested bool // source was read and parsed
	hard     bool
	mtime    time.Time
}

// Failed reports whether the cycle recorded any error
func (o *PollOutcome) Failed() bool {
	return len(o.Errors) > 0
}

// Kind classifies the outcome for poll metadata
func (o *PollOutcome) Kind() database.PollOutcomeKind {
	switch {
	case o.hard:
		return database.PollOutcomeHardError
	case len(o.Errors) > 0:
		return database.PollOutcomeSoftError
	default:
		return database.PollOutcomeSuccess
	}
}

// PollMetadata is the process-wide record of the last poll attempt
type PollMetadata struct {
	LastAttempt time.Time
	LastSuccess time.Time
	LastOutcome database.PollOutcomeKind
}

// PollExecutor performs one ingestion cycle: read the source, parse it,
// reconcile incidents, persist poll metadata. It never lets a fault
// escape; the supervisor only ever sees a PollOutcome.
type PollExecutor struct {
	db             *gorm.DB
	source         Source
	filter         nagios.Filter
	staleThreshold time.Duration
	now            func() time.Time

	mu       sync.Mutex
	meta     PollMetadata
	snapshot *nagios.StatusFile // last successfully parsed snapshot

	observer func(*PollOutcome) // optional, notified after each cycle
	notifier IncidentNotifier   // optional, forwarded to the tracker
}

// NewPollExecutor creates an executor for the given source and filter
func NewPollExecutor(db *gorm.DB, source Source, filter nagios.Filter, staleThreshold time.Duration) *PollExecutor {
	return &PollExecutor{
		db:             db,
		source:         source,
		filter:         filter,
		staleThreshold: staleThreshold,
		now:            time.Now,
	}
}

// SetObserver registers a callback invoked with every completed outcome.
// Must be set before polling starts.
func (e *PollExecutor) SetObserver(fn func(*PollOutcome)) {
	e.observer = fn
}

// SetNotifier registers an incident lifecycle receiver. Must be set
// before polling starts.
func (e *PollExecutor) SetNotifier(n IncidentNotifier) {
	e.notifier = n
}

// ExecuteOnce runs a single poll cycle and classifies the result
func (e *PollExecutor) ExecuteOnce(ctx context.Context) *PollOutcome {
	started := e.now()
	outcome := e.executeCycle(ctx, started)

	e.recordMetadata(started, outcome)

	if outcome.Failed() {
		log.Printf("Poll finished with %d error(s): %v", len(outcome.Errors), outcome.Errors)
	} else {
		log.Printf("Poll complete: %d hosts, %d services, %d created, %d updated, %d closed",
			outcome.HostsSeen, outcome.ServicesSeen, outcome.Created, outcome.Updated, outcome.Closed)
	}

	if e.observer != nil {
		e.observer(outcome)
	}
	return outcome
}

// executeCycle is the fault boundary: panics from parse/reconcile/persist
// are converted into a synthetic hard-failure outcome here
func (e *PollExecutor) executeCycle(ctx context.Context, started time.Time) (outcome *PollOutcome) {
	outcome = &PollOutcome{Timestamp: started}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("Poll cycle fault: %v", r)
			outcome = &PollOutcome{
				Timestamp: started,
				Errors:    []string{fmt.Sprintf("unexpected fault during poll: %v", r)},
				hard:      true,
			}
		}
	}()

	data, mtime, err := e.source.Read(ctx)
	if err != nil {
		outcome.Errors = append(outcome.Errors, err.Error())
		return outcome
	}

	status, err := nagios.Parse(data)
	if err != nil {
		outcome.Errors = append(outcome.Errors, err.Error())
		return outcome
	}
	outcome.ingested = true
	outcome.mtime = mtime

	e.mu.Lock()
	e.snapshot = status
	e.mu.Unlock()

	// Freshness of the file itself, from its mtime. Stale data is still
	// reconciled; the warning just rides along in the outcome.
	if e.staleThreshold > 0 && !mtime.IsZero() {
		if age := started.Sub(mtime); age > e.staleThreshold {
			staleErr := &StaleDataError{Age: age, Threshold: e.staleThreshold}
			log.Printf("Warning: %v", staleErr)
			outcome.Errors = append(outcome.Errors, staleErr.Error())
		}
	}

	tracker := NewIncidentTracker(e.db)
	tracker.now = func() time.Time { return e.now() }
	if e.notifier != nil {
		tracker.SetNotifier(e.notifier)
	}

	if len(status.FilterHosts(e.filter)) == 0 && len(status.FilterServices(e.filter)) == 0 {
		outcome.Errors = append(outcome.Errors, "no hosts or services matched the configured filter")
		return outcome
	}

	result, rerr := tracker.Reconcile(status, e.filter)
	outcome.HostsSeen = result.Hosts
	outcome.ServicesSeen = result.Services
	outcome.Created = result.Created
	outcome.Updated = result.Updated
	outcome.Closed = result.Closed
	if rerr != nil {
		return e.abortCycle(outcome, rerr)
	}

	for _, c := range status.Comments {
		stored, err := tracker.ProcessComment(c)
		if err != nil {
			return e.abortCycle(outcome, err)
		}
		if stored {
			outcome.CommentsProcessed++
		}
	}

	return outcome
}

// abortCycle stops the cycle on a persistence failure. Writes already
// committed for earlier entities are kept.
func (e *PollExecutor) abortCycle(outcome *PollOutcome, err error) *PollOutcome {
	log.Printf("Aborting poll cycle: %v", err)
	outcome.Errors = append(outcome.Errors, err.Error())
	var perr *PersistenceError
	if errors.As(err, &perr) {
		outcome.hard = true
	}
	return outcome
}

// recordMetadata updates the in-memory poll metadata and appends the
// durable poll_metadata row. Attempt time is always recorded; success
// time only when the source was read and parsed.
func (e *PollExecutor) recordMetadata(started time.Time, outcome *PollOutcome) {
	e.mu.Lock()
	e.meta.LastAttempt = started
	e.meta.LastOutcome = outcome.Kind()
	if outcome.ingested {
		e.meta.LastSuccess = started
	}
	e.mu.Unlock()

	record := &database.PollRecord{
		PolledAt:         started,
		Succeeded:        outcome.ingested,
		Outcome:          outcome.Kind(),
		RecordsProcessed: outcome.HostsSeen + outcome.ServicesSeen,
	}
	if !outcome.mtime.IsZero() {
		mt := outcome.mtime
		record.StatusFileMtime = &mt
	}
	if err := e.db.Create(record).Error; err != nil {
		// Metadata is advisory; losing a row must not fail the cycle
		log.Printf("Warning: failed to persist poll metadata: %v", err)
	}
}

// Snapshot returns the last successfully parsed status snapshot, or nil
// before the first successful poll. Callers must treat it as read-only.
func (e *PollExecutor) Snapshot() *nagios.StatusFile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot
}

// Filter returns the visibility filter this executor reconciles with
func (e *PollExecutor) Filter() nagios.Filter {
	return e.filter
}

// Metadata returns a copy of the current poll metadata
func (e *PollExecutor) Metadata() PollMetadata {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.meta
}

// StalenessInfo reports data freshness based on the last successful poll
func (e *PollExecutor) StalenessInfo() StalenessInfo {
	meta := e.Metadata()
	return Staleness(e.now(), meta.LastSuccess, e.staleThreshold)
}
