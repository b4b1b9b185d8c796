// Package api exposes the relocation engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/okian/relocator/internal/domain/catalog"
	"github.com/okian/relocator/internal/domain/estimate"
	"github.com/okian/relocator/internal/domain/gate"
	"github.com/okian/relocator/internal/domain/model"
	"github.com/okian/relocator/pkg/logger"
	"github.com/okian/relocator/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 64 << 10

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	Catalog() *catalog.Catalog

	Estimate(ctx context.Context, f estimate.Form) (*gate.Session, error)
	Match(ctx context.Context, answers []model.QuizAnswer) (*gate.Session, error)
	Session(ctx context.Context, id string) (*gate.Session, error)
	Release(ctx context.Context, id string, c gate.Contact) (*gate.Session, model.LeadRecord, error)

	SubmitCalculator(ctx context.Context, c gate.Contact, f estimate.Form) (model.LeadRecord, error)
	SubmitQuiz(ctx context.Context, c gate.Contact, answers []model.QuizAnswer) (model.LeadRecord, error)
	SubmitNewsletter(ctx context.Context, c gate.Contact) (model.LeadRecord, error)

	Leads(ctx context.Context, source model.Source, limit int) ([]model.LeadRecord, error)
	Lead(ctx context.Context, id string) (model.LeadRecord, []model.EmailLog, error)
	Stats(ctx context.Context) (model.LeadStats, error)

	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	health   *HealthHandler
	regions  *RegionsHandler
	compute  *ComputeHandler
	sessions *SessionsHandler
	leads    *LeadsHandler
	stats    *StatsHandler
	limiter  *ClientLimiter
	logger   logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLeadRateLimit limits lead-submitting routes per client.
func WithLeadRateLimit(l *ClientLimiter) Option {
	return func(s *Server) {
		s.limiter = l
	}
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	e := &errorWriter{logger: s.logger}
	s.health = NewHealthHandler(deps)
	s.regions = &RegionsHandler{deps: deps, errs: e}
	s.compute = &ComputeHandler{deps: deps, errs: e}
	s.sessions = &SessionsHandler{deps: deps, errs: e}
	s.leads = &LeadsHandler{deps: deps, errs: e}
	s.stats = &StatsHandler{deps: deps, errs: e}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	limited := func(h http.HandlerFunc, endpoint string) http.HandlerFunc {
		return MetricsMiddleware(RateLimit(s.limiter, endpoint, h), endpoint)
	}

	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.health.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	mux.HandleFunc("GET /api/regions", MetricsMiddleware(s.regions.HandleList, "regions"))
	mux.HandleFunc("GET /api/regions/{id}", MetricsMiddleware(s.regions.HandleGet, "region"))

	mux.HandleFunc("POST /api/estimate", MetricsMiddleware(s.compute.HandleEstimate, "estimate"))
	mux.HandleFunc("POST /api/match", MetricsMiddleware(s.compute.HandleMatch, "match"))

	mux.HandleFunc("GET /api/sessions/{id}", MetricsMiddleware(s.sessions.HandleGet, "session"))
	mux.HandleFunc("POST /api/sessions/{id}/release", limited(s.sessions.HandleRelease, "session_release"))

	mux.HandleFunc("POST /api/leads/calculator", limited(s.leads.HandleCalculator, "lead_calculator"))
	mux.HandleFunc("POST /api/leads/quiz", limited(s.leads.HandleQuiz, "lead_quiz"))
	mux.HandleFunc("POST /api/leads/newsletter", limited(s.leads.HandleNewsletter, "lead_newsletter"))
	mux.HandleFunc("GET /api/leads", MetricsMiddleware(s.leads.HandleList, "leads"))
	mux.HandleFunc("GET /api/leads/{id}", MetricsMiddleware(s.leads.HandleGet, "lead"))

	mux.HandleFunc("GET /api/stats", MetricsMiddleware(s.stats.HandleStats, "stats"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// errorWriter classifies errors into responses and logs server-side ones.
type errorWriter struct {
	logger logger.Logger
}

func (e *errorWriter) write(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		e.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.Int("status", status),
			logger.Error(err),
		)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: publicMessage(status, err)})
}

// decodeJSON reads a bounded JSON body into v. An empty body leaves v at
// its zero value.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return err
	}
	return nil
}
