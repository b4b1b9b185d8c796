package api

import (
	"net/http"
	"time"

	"github.com/okian/relocator/internal/domain/gate"
	"github.com/okian/relocator/internal/domain/model"
)

// SessionsHandler exposes gated sessions and releases them.
type SessionsHandler struct {
	deps Dependencies
	errs *errorWriter
}

type sessionResponse struct {
	SessionID  string                   `json:"session_id"`
	Source     model.Source             `json:"source"`
	State      gate.State               `json:"state"`
	Teaser     gate.Teaser              `json:"teaser"`
	CreatedAt  time.Time                `json:"created_at"`
	ReleasedAt *time.Time               `json:"released_at,omitempty"`
	Calculator *model.CalculatorPayload `json:"calculator,omitempty"`
	Quiz       *model.QuizPayload       `json:"quiz,omitempty"`
}

// view exposes the payload only once the session has been released.
func view(s *gate.Session) sessionResponse {
	resp := sessionResponse{
		SessionID:  s.ID,
		Source:     s.Source,
		State:      s.State,
		Teaser:     s.Teaser(),
		CreatedAt:  s.CreatedAt,
		ReleasedAt: s.ReleasedAt,
	}
	if s.State == gate.StateReleased {
		resp.Calculator, resp.Quiz = s.Calculator, s.Quiz
	}
	return resp
}

type leadAck struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type releaseResponse struct {
	sessionResponse
	Lead leadAck `json:"lead"`
}

// HandleGet handles GET /api/sessions/{id} requests.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	s, err := h.deps.Session(r.Context(), r.PathValue("id"))
	if err != nil {
		h.errs.write(w, r, Wrap("api.session", err))
		return
	}
	writeJSON(w, http.StatusOK, view(s))
}

// HandleRelease handles POST /api/sessions/{id}/release requests.
func (h *SessionsHandler) HandleRelease(w http.ResponseWriter, r *http.Request) {
	const op = "api.session_release"
	var req contactForm
	if err := decodeJSON(r, &req); err != nil {
		h.errs.write(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	s, rec, err := h.deps.Release(r.Context(), r.PathValue("id"), req.contact())
	if err != nil {
		h.errs.write(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, releaseResponse{
		sessionResponse: view(s),
		Lead:            leadAck{ID: rec.ID, CreatedAt: rec.CreatedAt},
	})
}
