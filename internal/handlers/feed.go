package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/statusboardhq/statusboard/internal/api"
	"github.com/statusboardhq/statusboard/internal/database"
	"github.com/statusboardhq/statusboard/internal/rss"
)

// FeedHandler serves RSS feeds of incident history
type FeedHandler struct {
	generator *rss.Generator
}

// NewFeedHandler creates a new feed handler
func NewFeedHandler(generator *rss.Generator) *FeedHandler {
	return &FeedHandler{generator: generator}
}

// SetupRoutes sets up the feed routes
func (h *FeedHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /rss", h.handleGlobalFeed)
	mux.HandleFunc("GET /rss/hosts/{host}", h.handleHostFeed)
	mux.HandleFunc("GET /rss/hosts/{host}/services/{service}", h.handleServiceFeed)
}

// feedWindowHours parses the optional hours query parameter (default one week)
func feedWindowHours(r *http.Request) int {
	hours := 7 * 24
	if v := r.URL.Query().Get("hours"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			hours = n
		}
	}
	return hours
}

// handleGlobalFeed handles GET /rss
func (h *FeedHandler) handleGlobalFeed(w http.ResponseWriter, r *http.Request) {
	incidents, err := database.RecentIncidents(database.GetDB(), feedWindowHours(r))
	if err != nil {
		log.Printf("FeedHandler: failed to load incidents: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to load incidents")
		return
	}
	h.writeFeed(w, "All monitored hosts and services", incidents)
}

// handleHostFeed handles GET /rss/hosts/{host}
func (h *FeedHandler) handleHostFeed(w http.ResponseWriter, r *http.Request) {
	host := r.PathValue("host")
	incidents, err := database.IncidentsForHost(database.GetDB(), host, feedWindowHours(r))
	if err != nil {
		log.Printf("FeedHandler: failed to load incidents for %s: %v", host, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to load incidents")
		return
	}
	h.writeFeed(w, "Incidents for host "+host, incidents)
}

// handleServiceFeed handles GET /rss/hosts/{host}/services/{service}
func (h *FeedHandler) handleServiceFeed(w http.ResponseWriter, r *http.Request) {
	host := r.PathValue("host")
	service := r.PathValue("service")
	incidents, err := database.IncidentsForService(database.GetDB(), host, service, feedWindowHours(r))
	if err != nil {
		log.Printf("FeedHandler: failed to load incidents for %s/%s: %v", host, service, err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to load incidents")
		return
	}
	h.writeFeed(w, "Incidents for "+host+"/"+service, incidents)
}

func (h *FeedHandler) writeFeed(w http.ResponseWriter, description string, incidents []database.Incident) {
	out, err := h.generator.Render(description, incidents, time.Now())
	if err != nil {
		log.Printf("FeedHandler: %v", err)
		api.RespondError(w, http.StatusInternalServerError, "Failed to render feed")
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		log.Printf("FeedHandler: failed to write feed: %v", err)
	}
}
