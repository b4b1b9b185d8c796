package api

import (
	"net/http"

	"github.com/okian/relocator/internal/domain/model"
)

// RegionsHandler serves the region catalog.
type RegionsHandler struct {
	deps Dependencies
	errs *errorWriter
}

type regionsResponse struct {
	Regions []model.Region `json:"regions"`
	Count   int            `json:"count"`
}

// HandleList handles GET /api/regions requests.
func (h *RegionsHandler) HandleList(w http.ResponseWriter, _ *http.Request) {
	regions := h.deps.Catalog().All()
	writeJSON(w, http.StatusOK, regionsResponse{Regions: regions, Count: len(regions)})
}

// HandleGet handles GET /api/regions/{id} requests.
func (h *RegionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	region, ok := h.deps.Catalog().Lookup(id)
	if !ok {
		h.errs.write(w, r, WrapKind("api.region", ErrNotFound, errRegion(id)))
		return
	}
	writeJSON(w, http.StatusOK, region)
}

type errRegion string

func (e errRegion) Error() string { return "unknown region " + string(e) }
