package handlers

import (
	"net/http"

	"github.com/statusboardhq/statusboard/internal/api"
	"github.com/statusboardhq/statusboard/internal/collector"
)

// HTTPHandler handles the health endpoint
type HTTPHandler struct {
	supervisor *collector.Supervisor
	executor   *collector.PollExecutor
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(supervisor *collector.Supervisor, executor *collector.PollExecutor) *HTTPHandler {
	return &HTTPHandler{
		supervisor: supervisor,
		executor:   executor,
	}
}

// SetupRoutes configures the health route
func (h *HTTPHandler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handleHealth)
}

// healthResponse is the health check body
type healthResponse struct {
	Status    string                  `json:"status"`
	Poller    collector.HealthStatus  `json:"poller"`
	Freshness collector.StalenessInfo `json:"data_freshness"`
}

// handleHealth reports supervisor health and data freshness. The HTTP
// status follows the poller: 200 while healthy or degraded, 503 once the
// poller is critical, so load balancers and uptime checks see it too.
func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := h.supervisor.HealthStatus()

	resp := healthResponse{
		Status:    string(health.Health),
		Poller:    health,
		Freshness: h.executor.StalenessInfo(),
	}

	status := http.StatusOK
	if health.Health == collector.HealthCritical {
		status = http.StatusServiceUnavailable
	}
	api.RespondJSON(w, status, resp)
}
