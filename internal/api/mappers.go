package api

import (
	"time"

	"github.com/statusboardhq/statusboard/internal/database"
	"github.com/statusboardhq/statusboard/internal/nagios"
)

// IncidentToListItem converts a database Incident to a compact list
// representation. Duration counts up to now while the incident is open.
func IncidentToListItem(i database.Incident, now time.Time) IncidentListItem {
	end := now
	if i.EndedAt != nil {
		end = *i.EndedAt
	}

	return IncidentListItem{
		ID:                 i.ID,
		UUID:               i.UUID,
		IncidentType:       i.IncidentType,
		HostName:           i.HostName,
		ServiceDescription: i.ServiceDescription,
		State:              i.State,
		Acknowledged:       i.Acknowledged,
		IsActive:           i.IsActive(),
		StartedAt:          i.StartedAt,
		EndedAt:            i.EndedAt,
		DurationSeconds:    end.Sub(i.StartedAt).Seconds(),
	}
}

// IncidentsToListItems converts a slice of database Incidents to list items.
func IncidentsToListItems(incidents []database.Incident, now time.Time) []IncidentListItem {
	items := make([]IncidentListItem, len(incidents))
	for i, inc := range incidents {
		items[i] = IncidentToListItem(inc, now)
	}
	return items
}

// HostToSummary converts a parsed host status to its API representation.
func HostToSummary(h nagios.HostStatus) HostSummary {
	s := HostSummary{
		HostName:     h.HostName,
		State:        nagios.HostStateName(h.CurrentState),
		IsProblem:    nagios.IsHostProblem(h.CurrentState),
		PluginOutput: h.PluginOutput,
	}
	if !h.LastCheck.IsZero() {
		lc := h.LastCheck
		s.LastCheck = &lc
	}
	return s
}

// ServiceToSummary converts a parsed service status to its API representation.
func ServiceToSummary(svc nagios.ServiceStatus) ServiceSummary {
	s := ServiceSummary{
		HostName:           svc.HostName,
		ServiceDescription: svc.ServiceDescription,
		State:              nagios.ServiceStateName(svc.CurrentState),
		IsProblem:          nagios.IsServiceProblem(svc.CurrentState),
		PluginOutput:       svc.PluginOutput,
	}
	if !svc.LastCheck.IsZero() {
		lc := svc.LastCheck
		s.LastCheck = &lc
	}
	return s
}
