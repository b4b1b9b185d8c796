package api

import "net/http"

// StatsHandler serves aggregate lead statistics.
type StatsHandler struct {
	deps Dependencies
	errs *errorWriter
}

// HandleStats handles GET /api/stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.deps.Stats(r.Context())
	if err != nil {
		h.errs.write(w, r, Wrap("api.stats", err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}
