package collector

import (
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/statusboardhq/statusboard/internal/database"
	"github.com/statusboardhq/statusboard/internal/nagios"
	"github.com/statusboardhq/statusboard/internal/utils"
)

// Action describes what reconciliation did for one entity
type Action int

const (
	ActionNone Action = iota
	ActionCreated
	ActionUpdated
	ActionClosed
)

// ReconcileResult aggregates incident changes from one poll cycle.
// Hosts and Services count the entities actually processed, so an
// aborted cycle reports how far it got.
type ReconcileResult struct {
	Hosts    int
	Services int
	Created  int
	Updated  int
	Closed   int
}

// IncidentNotifier receives incident lifecycle events. Implementations
// must not block for long; they run inside the poll cycle.
type IncidentNotifier interface {
	IncidentOpened(incident *database.Incident)
	IncidentClosed(incident *database.Incident)
}

// IncidentTracker reconciles observed host/service state against the
// persisted open incidents. Each entity is evaluated independently; there
// is no ordering dependency between a host and its services. An entity
// that is present in the incident table but absent from the snapshot is
// deliberately left untouched, so a filter change never fakes a recovery.
type IncidentTracker struct {
	db       *gorm.DB
	now      func() time.Time
	notifier IncidentNotifier
}

// NewIncidentTracker creates a tracker bound to a database handle
func NewIncidentTracker(db *gorm.DB) *IncidentTracker {
	return &IncidentTracker{db: db, now: time.Now}
}

// SetNotifier registers a lifecycle event receiver. Notification failures
// are the receiver's problem; reconciliation never depends on them.
func (t *IncidentTracker) SetNotifier(n IncidentNotifier) {
	t.notifier = n
}

// ProcessHost reconciles one observed host state. Returns the affected
// incident (nil for a healthy host with no open incident) and the action
// taken. Write failures come back as *PersistenceError.
func (t *IncidentTracker) ProcessHost(h nagios.HostStatus) (*database.Incident, Action, error) {
	open, err := database.FindOpenHostIncident(t.db, h.HostName)
	if err != nil {
		return nil, ActionNone, &PersistenceError{Op: "host incident lookup", Err: err}
	}

	return t.reconcileEntity(open, entityObservation{
		incidentType: database.IncidentTypeHost,
		hostName:     h.HostName,
		state:        nagios.HostStateName(h.CurrentState),
		problem:      nagios.IsHostProblem(h.CurrentState),
		pluginOutput: h.PluginOutput,
		lastCheck:    h.LastCheck,
	})
}

// ProcessService reconciles one observed service state
func (t *IncidentTracker) ProcessService(s nagios.ServiceStatus) (*database.Incident, Action, error) {
	open, err := database.FindOpenServiceIncident(t.db, s.HostName, s.ServiceDescription)
	if err != nil {
		return nil, ActionNone, &PersistenceError{Op: "service incident lookup", Err: err}
	}

	return t.reconcileEntity(open, entityObservation{
		incidentType:       database.IncidentTypeService,
		hostName:           s.HostName,
		serviceDescription: s.ServiceDescription,
		state:              nagios.ServiceStateName(s.CurrentState),
		problem:            nagios.IsServiceProblem(s.CurrentState),
		pluginOutput:       s.PluginOutput,
		lastCheck:          s.LastCheck,
	})
}

// entityObservation is the state-machine input shared by hosts and services
type entityObservation struct {
	incidentType       database.IncidentType
	hostName           string
	serviceDescription string
	state              string
	problem            bool
	pluginOutput       string
	lastCheck          time.Time
}

func (t *IncidentTracker) reconcileEntity(open *database.Incident, obs entityObservation) (*database.Incident, Action, error) {
	// Check output comes from arbitrary plugins; clean it before it
	// touches the database or the logs
	obs.pluginOutput = utils.SanitizePluginOutput(obs.pluginOutput)

	var lastCheck *time.Time
	if !obs.lastCheck.IsZero() {
		lc := obs.lastCheck
		lastCheck = &lc
	}

	switch {
	case open == nil && !obs.problem:
		return nil, ActionNone, nil

	case open == nil && obs.problem:
		incident := &database.Incident{
			IncidentType:       obs.incidentType,
			HostName:           obs.hostName,
			ServiceDescription: obs.serviceDescription,
			State:              obs.state,
			PluginOutput:       obs.pluginOutput,
			LastCheck:          lastCheck,
			StartedAt:          t.now(),
		}
		if err := t.db.Create(incident).Error; err != nil {
			return nil, ActionNone, &PersistenceError{Op: "incident create", Err: err}
		}
		log.Printf("Opened %s incident for %s: %s", obs.incidentType, incident.EntityKey(), obs.state)
		if t.notifier != nil {
			t.notifier.IncidentOpened(incident)
		}
		return incident, ActionCreated, nil

	case obs.problem:
		// Same or a different problem state: refresh in place, never
		// touch started_at
		updates := map[string]interface{}{
			"state":         obs.state,
			"plugin_output": obs.pluginOutput,
			"last_check":    lastCheck,
		}
		if err := t.db.Model(open).Updates(updates).Error; err != nil {
			return nil, ActionNone, &PersistenceError{Op: "incident update", Err: err}
		}
		open.State = obs.state
		open.PluginOutput = obs.pluginOutput
		open.LastCheck = lastCheck
		return open, ActionUpdated, nil

	default:
		ended := t.now()
		updates := map[string]interface{}{
			"state":         obs.state,
			"plugin_output": obs.pluginOutput,
			"last_check":    lastCheck,
			"ended_at":      ended,
		}
		if err := t.db.Model(open).Updates(updates).Error; err != nil {
			return nil, ActionNone, &PersistenceError{Op: "incident close", Err: err}
		}
		open.State = obs.state
		open.PluginOutput = obs.pluginOutput
		open.LastCheck = lastCheck
		open.EndedAt = &ended
		log.Printf("Closed incident for %s after %s", open.EntityKey(), ended.Sub(open.StartedAt).Round(time.Second))
		if t.notifier != nil {
			t.notifier.IncidentClosed(open)
		}
		return open, ActionClosed, nil
	}
}

// Reconcile runs the per-entity state machine over a whole snapshot.
// A persistence failure aborts the remaining writes of the cycle and is
// returned alongside the partial result; committed writes stay committed.
func (t *IncidentTracker) Reconcile(status *nagios.StatusFile, filter nagios.Filter) (ReconcileResult, error) {
	var result ReconcileResult

	for _, h := range status.FilterHosts(filter) {
		_, action, err := t.ProcessHost(h)
		if err != nil {
			return result, err
		}
		result.Hosts++
		result.count(action)
	}

	for _, s := range status.FilterServices(filter) {
		_, action, err := t.ProcessService(s)
		if err != nil {
			return result, err
		}
		result.Services++
		result.count(action)
	}

	return result, nil
}

func (r *ReconcileResult) count(action Action) {
	switch action {
	case ActionCreated:
		r.Created++
	case ActionUpdated:
		r.Updated++
	case ActionClosed:
		r.Closed++
	}
}

// ProcessComment ingests one comment from the state file, deduplicating
// on (host, service, entry time, author) and linking it to the matching
// open incident when one exists. Returns true when a new row was stored.
func (t *IncidentTracker) ProcessComment(c nagios.Comment) (bool, error) {
	var count int64
	err := t.db.Model(&database.NagiosComment{}).
		Where("host_name = ? AND service_description = ? AND entry_time = ? AND author = ?",
			c.HostName, c.ServiceDescription, c.EntryTime, c.Author).
		Count(&count).Error
	if err != nil {
		return false, &PersistenceError{Op: "comment lookup", Err: err}
	}
	if count > 0 {
		return false, nil
	}

	var incidentID *uint
	if c.ServiceDescription != "" {
		open, err := database.FindOpenServiceIncident(t.db, c.HostName, c.ServiceDescription)
		if err != nil {
			return false, &PersistenceError{Op: "comment incident lookup", Err: err}
		}
		if open != nil {
			incidentID = &open.ID
		}
	} else {
		open, err := database.FindOpenHostIncident(t.db, c.HostName)
		if err != nil {
			return false, &PersistenceError{Op: "comment incident lookup", Err: err}
		}
		if open != nil {
			incidentID = &open.ID
		}
	}

	comment := &database.NagiosComment{
		IncidentID:         incidentID,
		EntryTime:          c.EntryTime,
		Author:             c.Author,
		CommentData:        utils.SanitizeCommentText(c.CommentData),
		HostName:           c.HostName,
		ServiceDescription: c.ServiceDescription,
	}
	if err := t.db.Create(comment).Error; err != nil {
		return false, &PersistenceError{Op: "comment create", Err: err}
	}
	return true, nil
}
