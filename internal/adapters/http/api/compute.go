package api

import (
	"net/http"

	"github.com/okian/relocator/internal/domain/gate"
)

// ComputeHandler runs the estimator and matcher and withholds their
// results in gated sessions.
type ComputeHandler struct {
	deps Dependencies
	errs *errorWriter
}

type gatedResponse struct {
	SessionID string      `json:"session_id"`
	State     gate.State  `json:"state"`
	Teaser    gate.Teaser `json:"teaser"`
}

func gated(s *gate.Session) gatedResponse {
	return gatedResponse{SessionID: s.ID, State: s.State, Teaser: s.Teaser()}
}

// HandleEstimate handles POST /api/estimate requests.
func (h *ComputeHandler) HandleEstimate(w http.ResponseWriter, r *http.Request) {
	const op = "api.estimate"
	var req calculatorForm
	if err := decodeJSON(r, &req); err != nil {
		h.errs.write(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	s, err := h.deps.Estimate(r.Context(), req.form())
	if err != nil {
		h.errs.write(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, gated(s))
}

// HandleMatch handles POST /api/match requests.
func (h *ComputeHandler) HandleMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.match"
	var req quizForm
	if err := decodeJSON(r, &req); err != nil {
		h.errs.write(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	s, err := h.deps.Match(r.Context(), req.answers())
	if err != nil {
		h.errs.write(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, gated(s))
}
