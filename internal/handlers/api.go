package handlers

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/statusboardhq/statusboard/internal/api"
	"github.com/statusboardhq/statusboard/internal/collector"
	"github.com/statusboardhq/statusboard/internal/database"
	"github.com/statusboardhq/statusboard/internal/middleware"
	"github.com/statusboardhq/statusboard/internal/nagios"
	"github.com/statusboardhq/statusboard/internal/utils"
)

// APIHandler serves the public status API and the incident endpoints
type APIHandler struct {
	supervisor *collector.Supervisor
	executor   *collector.PollExecutor
	wsHub      *StatusWSHandler
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(supervisor *collector.Supervisor, executor *collector.PollExecutor, wsHub *StatusWSHandler) *APIHandler {
	return &APIHandler{
		supervisor: supervisor,
		executor:   executor,
		wsHub:      wsHub,
	}
}

// SetupRoutes sets up all API routes
func (h *APIHandler) SetupRoutes(mux *http.ServeMux) {
	// Public status endpoints
	mux.HandleFunc("GET /api/status", h.handleStatus)
	mux.HandleFunc("GET /api/hosts", h.handleHosts)
	mux.HandleFunc("GET /api/services", h.handleServices)
	mux.HandleFunc("GET /api/program", h.handleProgram)

	// Incidents
	mux.HandleFunc("GET /api/incidents", h.handleListIncidents)
	mux.HandleFunc("GET /api/incidents/{uuid}", h.handleGetIncident)
	mux.HandleFunc("POST /api/incidents/{uuid}/comments", h.handleCreateComment)
	mux.HandleFunc("DELETE /api/incidents/{uuid}/comments/{id}", h.handleDeleteComment)
	mux.HandleFunc("PATCH /api/incidents/{uuid}/review-url", h.handleUpdateReviewURL)
	mux.HandleFunc("PATCH /api/incidents/{uuid}/acknowledge", h.handleAcknowledge)

	// Manual poll (admin)
	mux.HandleFunc("POST /api/poll", h.handleManualPoll)

	// Live status push
	if h.wsHub != nil {
		mux.HandleFunc("/api/status/ws", h.wsHub.HandleWS)
	}
}

// visibleSnapshot returns the filtered view of the last parsed snapshot,
// or nil before the first successful poll
func (h *APIHandler) visibleSnapshot() ([]nagios.HostStatus, []nagios.ServiceStatus, *nagios.StatusFile) {
	snapshot := h.executor.Snapshot()
	if snapshot == nil {
		return nil, nil, nil
	}
	filter := h.executor.Filter()
	return snapshot.FilterHosts(filter), snapshot.FilterServices(filter), snapshot
}

// handleStatus handles GET /api/status
func (h *APIHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	db := database.GetDB()

	hosts, services, snapshot := h.visibleSnapshot()
	if snapshot == nil {
		api.RespondErrorWithCode(w, http.StatusServiceUnavailable, "no_data",
			"No monitoring data has been ingested yet")
		return
	}

	summary := api.StatusSummary{
		OverallState: "operational",
		Staleness:    h.executor.StalenessInfo(),
	}

	for _, host := range hosts {
		summary.HostsTotal++
		if nagios.IsHostProblem(host.CurrentState) {
			summary.HostsDown++
		}
		summary.Hosts = append(summary.Hosts, api.HostToSummary(host))
	}
	for _, svc := range services {
		summary.ServicesTotal++
		switch svc.CurrentState {
		case nagios.ServiceWarning:
			summary.ServicesWarning++
		case nagios.ServiceCritical, nagios.ServiceUnknown:
			summary.ServicesCritical++
		}
		summary.Services = append(summary.Services, api.ServiceToSummary(svc))
	}

	switch {
	case summary.HostsDown > 0 || summary.ServicesCritical > 0:
		summary.OverallState = "major_outage"
	case summary.ServicesWarning > 0:
		summary.OverallState = "degraded"
	}

	active, err := database.CountActiveIncidents(db)
	if err != nil {
		log.Printf("APIHandler: failed to count active incidents: %v", err)
	} else {
		summary.ActiveIncidents = active
	}

	api.RespondJSON(w, http.StatusOK, summary)
}

// handleHosts handles GET /api/hosts
func (h *APIHandler) handleHosts(w http.ResponseWriter, r *http.Request) {
	hosts, _, snapshot := h.visibleSnapshot()
	if snapshot == nil {
		api.RespondErrorWithCode(w, http.StatusServiceUnavailable, "no_data",
			"No monitoring data has been ingested yet")
		return
	}

	out := make([]api.HostSummary, 0, len(hosts))
	for _, host := range hosts {
		out = append(out, api.HostToSummary(host))
	}
	api.RespondJSON(w, http.StatusOK, out)
}

// handleServices handles GET /api/services
func (h *APIHandler) handleServices(w http.ResponseWriter, r *http.Request) {
	_, services, snapshot := h.visibleSnapshot()
	if snapshot == nil {
		api.RespondErrorWithCode(w, http.StatusServiceUnavailable, "no_data",
			"No monitoring data has been ingested yet")
		return
	}

	// Optional host filter, e.g. /api/services?host=web01
	hostName := r.URL.Query().Get("host")

	out := make([]api.ServiceSummary, 0, len(services))
	for _, svc := range services {
		if hostName != "" && svc.HostName != hostName {
			continue
		}
		out = append(out, api.ServiceToSummary(svc))
	}
	api.RespondJSON(w, http.StatusOK, out)
}

// handleProgram handles GET /api/program, exposing the monitoring daemon's
// own state
func (h *APIHandler) handleProgram(w http.ResponseWriter, r *http.Request) {
	_, _, snapshot := h.visibleSnapshot()
	if snapshot == nil || snapshot.Program == nil {
		api.RespondErrorWithCode(w, http.StatusServiceUnavailable, "no_data",
			"No daemon status has been ingested yet")
		return
	}

	p := snapshot.Program
	resp := map[string]interface{}{
		"daemon_mode":           p.DaemonMode == 1,
		"notifications_enabled": p.EnableNotifications == 1,
	}
	if !p.LastCommandCheck.IsZero() {
		resp["last_command_check"] = p.LastCommandCheck
	}
	api.RespondJSON(w, http.StatusOK, resp)
}

// handleListIncidents handles GET /api/incidents.
// Query parameters: days (history window, default 7), active=true, plus
// the standard page/per_page pair.
func (h *APIHandler) handleListIncidents(w http.ResponseWriter, r *http.Request) {
	db := database.GetDB()
	now := time.Now()

	if r.URL.Query().Get("active") == "true" {
		incidents, err := database.ActiveIncidents(db)
		if err != nil {
			api.RespondError(w, http.StatusInternalServerError, "Failed to load incidents")
			return
		}
		api.RespondJSON(w, http.StatusOK, api.IncidentsToListItems(incidents, now))
		return
	}

	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			days = n
		}
	}
	cutoff := now.AddDate(0, 0, -days)

	p := api.ParsePagination(r)

	query := db.Model(&database.Incident{}).
		Where("started_at >= ? OR ended_at IS NULL", cutoff)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		api.RespondError(w, http.StatusInternalServerError, "Failed to count incidents")
		return
	}

	var incidents []database.Incident
	err := query.Order("started_at DESC").
		Offset(p.Offset()).Limit(p.PerPage).
		Find(&incidents).Error
	if err != nil {
		api.RespondError(w, http.StatusInternalServerError, "Failed to load incidents")
		return
	}

	api.RespondJSON(w, http.StatusOK, api.PaginatedResponse{
		Data: api.IncidentsToListItems(incidents, now),
		Pagination: api.PaginationMeta{
			Page:       p.Page,
			PerPage:    p.PerPage,
			Total:      total,
			TotalPages: p.TotalPages(total),
		},
	})
}

// handleGetIncident handles GET /api/incidents/{uuid}
func (h *APIHandler) handleGetIncident(w http.ResponseWriter, r *http.Request) {
	incident := h.incidentFromPath(w, r)
	if incident == nil {
		return
	}
	api.RespondJSON(w, http.StatusOK, incident)
}

// handleCreateComment handles POST /api/incidents/{uuid}/comments
func (h *APIHandler) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	incident := h.incidentFromPath(w, r)
	if incident == nil {
		return
	}

	var req api.CreateCommentRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if fieldErrors := api.Validate(req); fieldErrors != nil {
		api.RespondValidationError(w, fieldErrors)
		return
	}

	comment := &database.Comment{
		IncidentID:  incident.ID,
		Author:      strings.TrimSpace(req.Author),
		CommentText: utils.SanitizeCommentText(req.Comment),
	}
	if err := database.GetDB().Create(comment).Error; err != nil {
		log.Printf("APIHandler: failed to create comment on %s: %v", incident.UUID, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to save comment")
		return
	}

	api.RespondJSON(w, http.StatusCreated, comment)
}

// handleDeleteComment handles DELETE /api/incidents/{uuid}/comments/{id}
func (h *APIHandler) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	incident := h.incidentFromPath(w, r)
	if incident == nil {
		return
	}

	commentID, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		api.RespondError(w, http.StatusBadRequest, "Invalid comment identifier")
		return
	}

	deleted, err := database.DeleteComment(database.GetDB(), incident.ID, uint(commentID))
	if err != nil {
		log.Printf("APIHandler: failed to delete comment %d on %s: %v", commentID, incident.UUID, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to delete comment")
		return
	}
	if !deleted {
		api.RespondError(w, http.StatusNotFound, "Comment not found")
		return
	}

	user := middleware.GetUserFromContext(r.Context())
	log.Printf("APIHandler: comment %d on %s deleted by %s", commentID, incident.UUID, user)
	w.WriteHeader(http.StatusNoContent)
}

// handleUpdateReviewURL handles PATCH /api/incidents/{uuid}/review-url.
// Setting an empty URL clears the link.
func (h *APIHandler) handleUpdateReviewURL(w http.ResponseWriter, r *http.Request) {
	incident := h.incidentFromPath(w, r)
	if incident == nil {
		return
	}

	var req api.UpdateReviewURLRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if fieldErrors := api.Validate(req); fieldErrors != nil {
		api.RespondValidationError(w, fieldErrors)
		return
	}

	if err := database.SetPostIncidentReviewURL(database.GetDB(), incident.ID, req.URL); err != nil {
		api.RespondError(w, http.StatusInternalServerError, "Failed to update review URL")
		return
	}

	incident.PostIncidentReviewURL = req.URL
	api.RespondJSON(w, http.StatusOK, incident)
}

// handleAcknowledge handles PATCH /api/incidents/{uuid}/acknowledge
func (h *APIHandler) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	incident := h.incidentFromPath(w, r)
	if incident == nil {
		return
	}

	var req api.UpdateAcknowledgedRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := database.SetAcknowledged(database.GetDB(), incident.ID, req.Acknowledged); err != nil {
		api.RespondError(w, http.StatusInternalServerError, "Failed to update incident")
		return
	}

	user := middleware.GetUserFromContext(r.Context())
	log.Printf("APIHandler: incident %s acknowledged=%v by %s", incident.UUID, req.Acknowledged, user)

	incident.Acknowledged = req.Acknowledged
	api.RespondJSON(w, http.StatusOK, incident)
}

// handleManualPoll handles POST /api/poll, forcing one cycle outside the
// normal schedule. A poll already in flight is a conflict, not a queue.
func (h *APIHandler) handleManualPoll(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.supervisor.TriggerManualPoll()
	switch err {
	case nil:
		api.RespondJSON(w, http.StatusOK, outcome)
	case collector.ErrPollInProgress:
		api.RespondErrorWithCode(w, http.StatusConflict, "poll_in_progress", err.Error())
	case collector.ErrNotRunning:
		api.RespondErrorWithCode(w, http.StatusServiceUnavailable, "poller_not_running", err.Error())
	default:
		api.RespondError(w, http.StatusInternalServerError, "Poll failed")
	}
}

// incidentFromPath resolves {uuid} to an incident, writing the error
// response itself when the incident cannot be served
func (h *APIHandler) incidentFromPath(w http.ResponseWriter, r *http.Request) *database.Incident {
	uuid := r.PathValue("uuid")
	if uuid == "" {
		api.RespondError(w, http.StatusBadRequest, "Missing incident identifier")
		return nil
	}

	incident, err := database.FindIncidentByUUID(database.GetDB(), uuid)
	if err != nil {
		log.Printf("APIHandler: failed to load incident %s: %v", uuid, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to load incident")
		return nil
	}
	if incident == nil {
		api.RespondError(w, http.StatusNotFound, "Incident not found")
		return nil
	}
	return incident
}
