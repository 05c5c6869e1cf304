// Package testhelpers data builders for incident rows.
package testhelpers

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/statusboardhq/statusboard/internal/database"
)

// IncidentBuilder builds Incident rows for testing
type IncidentBuilder struct {
	incident database.Incident
}

// NewIncidentBuilder creates a builder with a default open host incident
func NewIncidentBuilder() *IncidentBuilder {
	return &IncidentBuilder{
		incident: database.Incident{
			IncidentType: database.IncidentTypeHost,
			HostName:     "test-host",
			State:        "DOWN",
			PluginOutput: "CRITICAL - Host Unreachable",
			StartedAt:    time.Now().Add(-time.Hour),
		},
	}
}

// ForHost sets the host name
func (b *IncidentBuilder) ForHost(host string) *IncidentBuilder {
	b.incident.HostName = host
	return b
}

// ForService makes it a service incident
func (b *IncidentBuilder) ForService(host, service string) *IncidentBuilder {
	b.incident.IncidentType = database.IncidentTypeService
	b.incident.HostName = host
	b.incident.ServiceDescription = service
	return b
}

// WithState sets the recorded state name
func (b *IncidentBuilder) WithState(state string) *IncidentBuilder {
	b.incident.State = state
	return b
}

// StartedAt sets the start time
func (b *IncidentBuilder) StartedAt(t time.Time) *IncidentBuilder {
	b.incident.StartedAt = t
	return b
}

// Closed marks the incident as ended at the given time
func (b *IncidentBuilder) Closed(endedAt time.Time) *IncidentBuilder {
	b.incident.EndedAt = &endedAt
	return b
}

// Acknowledged sets the acknowledged flag
func (b *IncidentBuilder) Acknowledged() *IncidentBuilder {
	b.incident.Acknowledged = true
	return b
}

// Build returns the incident without persisting it
func (b *IncidentBuilder) Build() database.Incident {
	return b.incident
}

// Create persists the incident and returns it
func (b *IncidentBuilder) Create(t *testing.T, db *gorm.DB) *database.Incident {
	t.Helper()
	incident := b.incident
	if err := db.Create(&incident).Error; err != nil {
		t.Fatalf("failed to create test incident: %v", err)
	}
	return &incident
}
