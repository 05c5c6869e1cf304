package api

import (
	"testing"
	"time"

	"github.com/statusboardhq/statusboard/internal/database"
	"github.com/statusboardhq/statusboard/internal/nagios"
)

func TestIncidentToListItemOpen(t *testing.T) {
	started := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	now := started.Add(30 * time.Minute)

	item := IncidentToListItem(database.Incident{
		ID:           7,
		UUID:         "abc-123",
		IncidentType: database.IncidentTypeHost,
		HostName:     "web01",
		State:        "DOWN",
		StartedAt:    started,
	}, now)

	if !item.IsActive {
		t.Error("open incident should be active")
	}
	if item.EndedAt != nil {
		t.Error("open incident has no end time")
	}
	if item.DurationSeconds != 1800 {
		t.Errorf("open incident duration should count to now, got %v", item.DurationSeconds)
	}
}

func TestIncidentToListItemClosed(t *testing.T) {
	started := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	ended := started.Add(10 * time.Minute)
	now := started.Add(time.Hour)

	item := IncidentToListItem(database.Incident{
		UUID:               "def-456",
		IncidentType:       database.IncidentTypeService,
		HostName:           "web01",
		ServiceDescription: "HTTP",
		State:              "OK",
		StartedAt:          started,
		EndedAt:            &ended,
	}, now)

	if item.IsActive {
		t.Error("closed incident should not be active")
	}
	if item.DurationSeconds != 600 {
		t.Errorf("closed incident duration should stop at ended_at, got %v", item.DurationSeconds)
	}
}

func TestIncidentsToListItems(t *testing.T) {
	now := time.Now()
	items := IncidentsToListItems([]database.Incident{
		{UUID: "a", HostName: "h1", StartedAt: now},
		{UUID: "b", HostName: "h2", StartedAt: now},
	}, now)

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].UUID != "a" || items[1].UUID != "b" {
		t.Error("item order should match input order")
	}

	if empty := IncidentsToListItems(nil, now); len(empty) != 0 {
		t.Errorf("nil input should yield empty output, got %v", empty)
	}
}

func TestHostToSummary(t *testing.T) {
	check := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	s := HostToSummary(nagios.HostStatus{
		HostName:     "db01",
		CurrentState: nagios.HostDown,
		PluginOutput: "CRITICAL - Host Unreachable",
		LastCheck:    check,
	})

	if s.State != "DOWN" || !s.IsProblem {
		t.Errorf("unexpected summary: %+v", s)
	}
	if s.LastCheck == nil || !s.LastCheck.Equal(check) {
		t.Errorf("last check not mapped: %v", s.LastCheck)
	}

	noCheck := HostToSummary(nagios.HostStatus{HostName: "new01", CurrentState: nagios.HostUp})
	if noCheck.LastCheck != nil {
		t.Error("zero last check should map to nil")
	}
	if noCheck.IsProblem {
		t.Error("UP host is not a problem")
	}
}

func TestServiceToSummary(t *testing.T) {
	s := ServiceToSummary(nagios.ServiceStatus{
		HostName:           "web01",
		ServiceDescription: "HTTPS",
		CurrentState:       nagios.ServiceWarning,
		PluginOutput:       "certificate expires soon",
	})

	if s.State != "WARNING" || !s.IsProblem {
		t.Errorf("unexpected summary: %+v", s)
	}
	if s.ServiceDescription != "HTTPS" {
		t.Errorf("service description not mapped: %s", s.ServiceDescription)
	}
}
