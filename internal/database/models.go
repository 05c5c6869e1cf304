package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IncidentType distinguishes host-level from service-level incidents
type IncidentType string

const (
	IncidentTypeHost    IncidentType = "host"
	IncidentTypeService IncidentType = "service"
)

// Incident is the persisted record of a problem-state interval for one
// monitored entity. At most one open incident (EndedAt == nil) exists per
// entity key at any time; the tracker owns creation, updates and closing.
// Acknowledged and PostIncidentReviewURL are operator-written fields and
// must never touch StartedAt/EndedAt.
type Incident struct {
	ID                    uint         `gorm:"primaryKey" json:"id"`
	UUID                  string       `gorm:"uniqueIndex;size:36;not null" json:"uuid"`
	IncidentType          IncidentType `gorm:"type:varchar(10);not null;index" json:"incident_type"`
	HostName              string       `gorm:"type:varchar(255);not null;index" json:"host_name"`
	ServiceDescription    string       `gorm:"type:varchar(255);index" json:"service_description,omitempty"` // empty for host incidents
	State                 string       `gorm:"type:varchar(20);not null" json:"state"`
	PluginOutput          string       `gorm:"type:text" json:"plugin_output"`
	LastCheck             *time.Time   `json:"last_check,omitempty"`
	StartedAt             time.Time    `gorm:"not null;index" json:"started_at"`
	EndedAt               *time.Time   `gorm:"index" json:"ended_at,omitempty"`
	Acknowledged          bool         `gorm:"default:false" json:"acknowledged"`
	PostIncidentReviewURL string       `gorm:"type:varchar(512)" json:"post_incident_review_url,omitempty"`
	CreatedAt             time.Time    `json:"created_at"`
	UpdatedAt             time.Time    `json:"updated_at"`

	// Relationships
	Comments       []Comment       `gorm:"foreignKey:IncidentID" json:"comments,omitempty"`
	NagiosComments []NagiosComment `gorm:"foreignKey:IncidentID" json:"nagios_comments,omitempty"`
}

// BeforeCreate hook to assign a UUID and default start time
func (i *Incident) BeforeCreate(tx *gorm.DB) error {
	if i.UUID == "" {
		i.UUID = uuid.NewString()
	}
	if i.StartedAt.IsZero() {
		i.StartedAt = time.Now()
	}
	return nil
}

// IsActive returns true while the incident is still open
func (i *Incident) IsActive() bool {
	return i.EndedAt == nil
}

// EntityKey returns the reconciliation join key for this incident
func (i *Incident) EntityKey() string {
	if i.IncidentType == IncidentTypeService {
		return fmt.Sprintf("service/%s/%s", i.HostName, i.ServiceDescription)
	}
	return "host/" + i.HostName
}

// Comment is a user-written comment attached to an incident
type Comment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	IncidentID  uint      `gorm:"not null;index" json:"incident_id"`
	Author      string    `gorm:"type:varchar(255);not null" json:"author"`
	CommentText string    `gorm:"type:text;not null" json:"comment_text"`
	CreatedAt   time.Time `json:"created_at"`
}

// NagiosComment is a comment ingested from the monitoring daemon's state
// file, optionally linked to the incident that was open when it was made
type NagiosComment struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	IncidentID         *uint     `gorm:"index" json:"incident_id,omitempty"`
	EntryTime          time.Time `gorm:"not null;uniqueIndex:idx_nagios_comment_dedupe" json:"entry_time"`
	Author             string    `gorm:"type:varchar(255);uniqueIndex:idx_nagios_comment_dedupe" json:"author"`
	CommentData        string    `gorm:"type:text" json:"comment_data"`
	HostName           string    `gorm:"type:varchar(255);not null;index;uniqueIndex:idx_nagios_comment_dedupe" json:"host_name"`
	ServiceDescription string    `gorm:"type:varchar(255);uniqueIndex:idx_nagios_comment_dedupe" json:"service_description,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// PollOutcomeKind classifies how a poll cycle ended
type PollOutcomeKind string

const (
	PollOutcomeSuccess   PollOutcomeKind = "success"
	PollOutcomeSoftError PollOutcomeKind = "soft_error"
	PollOutcomeHardError PollOutcomeKind = "hard_error"
)

// PollRecord is one row of poll metadata, appended per ingestion cycle
type PollRecord struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	PolledAt         time.Time       `gorm:"not null;index" json:"polled_at"`
	Succeeded        bool            `json:"succeeded"`
	Outcome          PollOutcomeKind `gorm:"type:varchar(20);not null" json:"outcome"`
	StatusFileMtime  *time.Time      `json:"status_file_mtime,omitempty"`
	RecordsProcessed int             `json:"records_processed"`
	CreatedAt        time.Time       `json:"created_at"`
}

// TableName overrides for explicit table naming
func (Incident) TableName() string {
	return "incidents"
}

func (Comment) TableName() string {
	return "comments"
}

func (NagiosComment) TableName() string {
	return "nagios_comments"
}

func (PollRecord) TableName() string {
	return "poll_metadata"
}
