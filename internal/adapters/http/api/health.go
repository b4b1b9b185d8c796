package api

import (
	"net/http"
	"time"
)

const serviceName = "relocator"

// StatsProvider reports runtime information about the service.
type StatsProvider interface {
	GetStats() map[string]any
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	stats StatsProvider
	now   func() time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(stats StatsProvider) *HealthHandler {
	return &HealthHandler{stats: stats, now: time.Now}
}

type healthResponse struct {
	Status    string         `json:"status"`
	Service   string         `json:"service"`
	Timestamp time.Time      `json:"timestamp"`
	Runtime   map[string]any `json:"runtime,omitempty"`
}

// HandleHealth handles GET /healthz requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok", Service: serviceName, Timestamp: h.now().UTC()}
	if h.stats != nil {
		resp.Runtime = h.stats.GetStats()
	}
	writeJSON(w, http.StatusOK, resp)
}
