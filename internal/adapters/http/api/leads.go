package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/relocator/internal/domain/model"
)

// LeadsHandler captures leads directly and serves the lead list.
type LeadsHandler struct {
	deps Dependencies
	errs *errorWriter
}

type leadCreated struct {
	Status string  `json:"status"`
	Lead   leadAck `json:"lead"`
}

type leadsResponse struct {
	Leads []model.LeadRecord `json:"leads"`
	Count int                `json:"count"`
}

type leadDetail struct {
	Lead   model.LeadRecord `json:"lead"`
	Emails []model.EmailLog `json:"emails"`
}

func created(w http.ResponseWriter, rec model.LeadRecord) {
	writeJSON(w, http.StatusCreated, leadCreated{Status: "success", Lead: leadAck{ID: rec.ID, CreatedAt: rec.CreatedAt}})
}

// HandleCalculator handles POST /api/leads/calculator requests. The
// estimate is recomputed from the raw form; clients cannot submit results.
func (h *LeadsHandler) HandleCalculator(w http.ResponseWriter, r *http.Request) {
	const op = "api.lead_calculator"
	var req calculatorLeadRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errs.write(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	rec, err := h.deps.SubmitCalculator(r.Context(), req.contact(), req.form())
	if err != nil {
		h.errs.write(w, r, Wrap(op, err))
		return
	}
	created(w, rec)
}

// HandleQuiz handles POST /api/leads/quiz requests.
func (h *LeadsHandler) HandleQuiz(w http.ResponseWriter, r *http.Request) {
	const op = "api.lead_quiz"
	var req quizLeadRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errs.write(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	rec, err := h.deps.SubmitQuiz(r.Context(), req.contact(), req.answers())
	if err != nil {
		h.errs.write(w, r, Wrap(op, err))
		return
	}
	created(w, rec)
}

// HandleNewsletter handles POST /api/leads/newsletter requests.
func (h *LeadsHandler) HandleNewsletter(w http.ResponseWriter, r *http.Request) {
	const op = "api.lead_newsletter"
	var req contactForm
	if err := decodeJSON(r, &req); err != nil {
		h.errs.write(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	rec, err := h.deps.SubmitNewsletter(r.Context(), req.contact())
	if err != nil {
		h.errs.write(w, r, Wrap(op, err))
		return
	}
	created(w, rec)
}

// HandleList handles GET /api/leads?source=&limit= requests.
func (h *LeadsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.leads"
	q := r.URL.Query()

	source := model.Source(q.Get("source"))
	if source != "" && !source.Valid() {
		h.errs.write(w, r, WrapKind(op, ErrBadRequest, fmt.Errorf("unknown source %q", source)))
		return
	}
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.errs.write(w, r, WrapKind(op, ErrBadRequest, errors.New("limit must be a positive integer")))
			return
		}
		limit = n
	}

	leads, err := h.deps.Leads(r.Context(), source, limit)
	if err != nil {
		h.errs.write(w, r, Wrap(op, err))
		return
	}
	if leads == nil {
		leads = []model.LeadRecord{}
	}
	writeJSON(w, http.StatusOK, leadsResponse{Leads: leads, Count: len(leads)})
}

// HandleGet handles GET /api/leads/{id} requests.
func (h *LeadsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	rec, emails, err := h.deps.Lead(r.Context(), r.PathValue("id"))
	if err != nil {
		h.errs.write(w, r, Wrap("api.lead", err))
		return
	}
	if emails == nil {
		emails = []model.EmailLog{}
	}
	writeJSON(w, http.StatusOK, leadDetail{Lead: rec, Emails: emails})
}
