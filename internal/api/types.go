package api

import (
	"time"

	"github.com/statusboardhq/statusboard/internal/collector"
	"github.com/statusboardhq/statusboard/internal/database"
)

// ========== Auth Types ==========

// LoginRequest is the request body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
	Password string `json:"password" validate:"required,min=1"`
}

// LoginResponse is the response body for POST /auth/login.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ========== Incident Types ==========

// CreateCommentRequest is the request body for POST /api/incidents/:uuid/comments.
type CreateCommentRequest struct {
	Author  string `json:"author" validate:"required,min=1,max=255"`
	Comment string `json:"comment" validate:"required,min=1,max=4096"`
}

// UpdateReviewURLRequest is the request body for PATCH /api/incidents/:uuid/review-url.
type UpdateReviewURLRequest struct {
	URL string `json:"url" validate:"omitempty,url,max=512"`
}

// UpdateAcknowledgedRequest is the request body for PATCH /api/incidents/:uuid/acknowledge.
type UpdateAcknowledgedRequest struct {
	Acknowledged bool `json:"acknowledged"`
}

// ========== Status Types ==========

// HostSummary is one host row in the public status response.
type HostSummary struct {
	HostName     string     `json:"host_name"`
	State        string     `json:"state"`
	IsProblem    bool       `json:"is_problem"`
	PluginOutput string     `json:"plugin_output"`
	LastCheck    *time.Time `json:"last_check,omitempty"`
}

// ServiceSummary is one service row in the public status response.
type ServiceSummary struct {
	HostName           string     `json:"host_name"`
	ServiceDescription string     `json:"service_description"`
	State              string     `json:"state"`
	IsProblem          bool       `json:"is_problem"`
	PluginOutput       string     `json:"plugin_output"`
	LastCheck          *time.Time `json:"last_check,omitempty"`
}

// StatusSummary is the overall status page rollup.
type StatusSummary struct {
	OverallState     string                  `json:"overall_state"`
	HostsTotal       int                     `json:"hosts_total"`
	HostsDown        int                     `json:"hosts_down"`
	ServicesTotal    int                     `json:"services_total"`
	ServicesWarning  int                     `json:"services_warning"`
	ServicesCritical int                     `json:"services_critical"`
	ActiveIncidents  int64                   `json:"active_incidents"`
	Staleness        collector.StalenessInfo `json:"data_freshness"`
	Hosts            []HostSummary           `json:"hosts"`
	Services         []ServiceSummary        `json:"services"`
}

// ========== Pagination Types ==========

// PaginationMeta contains pagination metadata for list responses.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// PaginatedResponse wraps a list response with pagination metadata.
type PaginatedResponse struct {
	Data       interface{}    `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// ========== Mapper Output Types ==========

// IncidentListItem is a compact representation of an incident for list views.
// It omits plugin output and the comment relations to reduce response size.
type IncidentListItem struct {
	ID                 uint                  `json:"id"`
	UUID               string                `json:"uuid"`
	IncidentType       database.IncidentType `json:"incident_type"`
	HostName           string                `json:"host_name"`
	ServiceDescription string                `json:"service_description,omitempty"`
	State              string                `json:"state"`
	Acknowledged       bool                  `json:"acknowledged"`
	IsActive           bool                  `json:"is_active"`
	StartedAt          time.Time             `json:"started_at"`
	EndedAt            *time.Time            `json:"ended_at,omitempty"`
	DurationSeconds    float64               `json:"duration_seconds"`
}
