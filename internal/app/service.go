// Package service wires the relocation engine: catalog, estimator, matcher
// and result gate on the domain side; lead store, session store and the
// email queue on the adapter side.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/relocator/internal/adapters/mail"
	"github.com/okian/relocator/internal/adapters/mq/queue"
	"github.com/okian/relocator/internal/adapters/mq/worker"
	"github.com/okian/relocator/internal/adapters/repository"
	"github.com/okian/relocator/internal/adapters/sessions"
	"github.com/okian/relocator/internal/domain/catalog"
	"github.com/okian/relocator/internal/domain/estimate"
	"github.com/okian/relocator/internal/domain/gate"
	"github.com/okian/relocator/internal/domain/matching"
	"github.com/okian/relocator/internal/domain/model"
	"github.com/okian/relocator/pkg/logger"
	"github.com/okian/relocator/pkg/metrics"
)

// Service is the application facade used by the HTTP layer.
type Service struct {
	mu sync.RWMutex

	catalog   *catalog.Holder
	watchPath string
	stopWatch func()
	estimator *estimate.Estimator
	matcher   *matching.Matcher

	leads    repository.Store
	sessions sessions.Store
	sender   mail.Sender
	mailOpts []mail.Option
	queue    *queue.InMemoryQueue
	pool     *worker.Pool
	gate     *gate.Gate

	queueSize     int
	workerCount   int
	maxLeadsLimit int

	started bool
	logger  logger.Logger
}

// New creates a Service. Adapters not supplied through options are created
// in memory on Start.
func New(opts ...Option) *Service {
	s := &Service{
		catalog:       catalog.NewHolder(catalog.Builtin()),
		estimator:     estimate.New(),
		matcher:       matching.New(),
		queueSize:     10_000,
		workerCount:   4,
		maxLeadsLimit: 500,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens missing adapters, starts the catalog watch when configured
// and then the email workers. When Start fails nothing is left running;
// the adapters stay open until Close.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting relocation service...")

	if s.leads == nil {
		s.leads = repository.NewMemoryStore()
	}
	if s.sessions == nil {
		s.sessions = sessions.NewMemoryStore()
	}
	if s.sender == nil {
		s.sender = mail.NewLogSender(s.logger.Named("mail"))
	}

	metrics.UpdateCatalogRegions(s.catalog.Load().Len())
	if s.watchPath != "" {
		stop, err := s.catalog.Watch(s.watchPath, s.onCatalogReload)
		if err != nil {
			return fmt.Errorf("start catalog watch: %w", err)
		}
		s.stopWatch = stop
	}

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	mailer := mail.NewMailer(s.sender, s.mailOpts...)
	s.pool = worker.NewPool(s.workerCount, s.queue, mailer, s.leads, worker.WithLogger(s.logger))
	s.pool.Start(context.WithoutCancel(ctx))

	emitter := &leadEmitter{store: s.leads, queue: s.queue, logger: s.logger, now: time.Now}
	s.gate = gate.New(emitter, gate.WithLogger(s.logger.Named("gate")))

	s.started = true
	s.logger.Info(ctx, "relocation service started",
		logger.Int("regions", s.catalog.Load().Len()),
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.String("mailProvider", s.sender.Name()),
	)
	return nil
}

func (s *Service) onCatalogReload(c *catalog.Catalog, err error) {
	ctx := context.Background()
	if err != nil {
		metrics.RecordCatalogReload("error")
		s.logger.Error(ctx, "catalog reload failed, keeping previous catalog", logger.Error(err))
		return
	}
	metrics.RecordCatalogReload("success")
	metrics.UpdateCatalogRegions(c.Len())
	s.logger.Info(ctx, "catalog reloaded", logger.Int("regions", c.Len()))
}

// Stop drains queued emails until ctx is done, then closes the stores.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping relocation service...")

	if s.stopWatch != nil {
		s.stopWatch()
		s.stopWatch = nil
	}
	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, s.closeAdapters())

	s.started = false
	s.logger.Info(ctx, "relocation service stopped")
	return errors.Join(errs...)
}

// Close releases the lead and session stores of a service that is not
// running, such as one whose Start failed. A running service is left to Stop.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	return s.closeAdapters()
}

func (s *Service) closeAdapters() error {
	var errs []error
	if s.sessions != nil {
		if err := s.sessions.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close session store: %w", err))
		}
	}
	if s.leads != nil {
		if err := s.leads.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close lead store: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Catalog returns the current catalog snapshot.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog.Load()
}

// Estimator exposes the estimator so callers can coerce raw forms.
func (s *Service) Estimator() *estimate.Estimator {
	return s.estimator
}

// Calculate runs the estimator on a raw form without creating a session.
func (s *Service) Calculate(f estimate.Form) (model.CalculatorInput, model.CalculatorResult) {
	start := time.Now()
	in := s.estimator.Coerce(f)
	res := s.estimator.Estimate(s.catalog.Load(), in)
	metrics.RecordComputeLatency("estimate", float64(time.Since(start).Microseconds())/1000)
	metrics.RecordEstimate(string(res.MoveTier), res.BreakEvenNotional)
	return in, res
}

// Rank runs the matcher without creating a session.
func (s *Service) Rank(answers []model.QuizAnswer) []model.MatchResult {
	start := time.Now()
	matches := s.matcher.Match(s.catalog.Load(), answers)
	metrics.RecordComputeLatency("match", float64(time.Since(start).Microseconds())/1000)
	metrics.RecordMatch()
	return matches
}

// Estimate computes a budget and withholds it in a new gated session.
func (s *Service) Estimate(ctx context.Context, f estimate.Form) (*gate.Session, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	in, res := s.Calculate(f)
	return s.hold(ctx, gate.NewCalculatorSession(in, res))
}

// Match ranks regions for answers and withholds them in a new gated session.
func (s *Service) Match(ctx context.Context, answers []model.QuizAnswer) (*gate.Session, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.hold(ctx, gate.NewQuizSession(answers, s.Rank(answers)))
}

func (s *Service) hold(ctx context.Context, sess *gate.Session) (*gate.Session, error) {
	if err := sess.Hold(); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	metrics.RecordSessionCreated(string(sess.Source))
	return sess, nil
}

// Session returns a stored session.
func (s *Service) Session(ctx context.Context, id string) (*gate.Session, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.sessions.Load(ctx, id)
}

// Release hands the session's result to contact c and emits one lead.
// The updated session is stored only when the release succeeds. Once the
// lead is emitted the release is acknowledged even if storing the session
// fails; that failure is logged and the stored copy stays gated.
func (s *Service) Release(ctx context.Context, id string, c gate.Contact) (*gate.Session, model.LeadRecord, error) {
	sess, err := s.Session(ctx, id)
	if err != nil {
		return nil, model.LeadRecord{}, err
	}
	rec, err := s.gate.Release(ctx, sess, c)
	if err != nil {
		observeGateError(err)
		return nil, model.LeadRecord{}, err
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.logger.Error(ctx, "failed to store released session",
			logger.String("session_id", sess.ID),
			logger.String("lead_id", rec.ID),
			logger.Error(err))
	}
	metrics.RecordSessionReleased(string(sess.Source))
	return sess, rec, nil
}

// SubmitCalculator recomputes the estimate from the raw form and submits it
// as a lead in one step.
func (s *Service) SubmitCalculator(ctx context.Context, c gate.Contact, f estimate.Form) (model.LeadRecord, error) {
	if err := s.ready(); err != nil {
		return model.LeadRecord{}, err
	}
	in, res := s.Calculate(f)
	return s.submit(ctx, c, gate.Payload{
		Source:     model.SourceCalculator,
		Calculator: &model.CalculatorPayload{Input: in, Result: res},
	})
}

// SubmitQuiz re-ranks answers and submits them as a lead in one step.
func (s *Service) SubmitQuiz(ctx context.Context, c gate.Contact, answers []model.QuizAnswer) (model.LeadRecord, error) {
	if err := s.ready(); err != nil {
		return model.LeadRecord{}, err
	}
	return s.submit(ctx, c, gate.Payload{
		Source: model.SourceQuiz,
		Quiz:   &model.QuizPayload{Answers: answers, Matches: s.Rank(answers)},
	})
}

// SubmitNewsletter records a newsletter sign-up.
func (s *Service) SubmitNewsletter(ctx context.Context, c gate.Contact) (model.LeadRecord, error) {
	if err := s.ready(); err != nil {
		return model.LeadRecord{}, err
	}
	return s.submit(ctx, c, gate.Payload{Source: model.SourceNewsletter})
}

func (s *Service) submit(ctx context.Context, c gate.Contact, p gate.Payload) (model.LeadRecord, error) {
	rec, err := s.gate.Submit(ctx, c, p)
	if err != nil {
		observeGateError(err)
	}
	return rec, err
}

func observeGateError(err error) {
	switch {
	case errors.Is(err, gate.ErrValidation):
		metrics.RecordValidationFailure()
	case errors.Is(err, gate.ErrUpstream):
		metrics.RecordUpstreamFailure()
	}
}

// Leads lists leads newest first. A zero limit selects the store default;
// limits above the configured maximum are clamped.
func (s *Service) Leads(ctx context.Context, source model.Source, limit int) ([]model.LeadRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	if limit > s.maxLeadsLimit {
		limit = s.maxLeadsLimit
	}
	return s.leads.ListLeads(ctx, repository.Filter{Source: source, Limit: limit})
}

// Lead returns one lead with its email log.
func (s *Service) Lead(ctx context.Context, id string) (model.LeadRecord, []model.EmailLog, error) {
	if err := s.ready(); err != nil {
		return model.LeadRecord{}, nil, err
	}
	rec, err := s.leads.GetLead(ctx, id)
	if err != nil {
		return model.LeadRecord{}, nil, err
	}
	emails, err := s.leads.EmailsForLead(ctx, id)
	if err != nil {
		return model.LeadRecord{}, nil, err
	}
	return rec, emails, nil
}

// Stats aggregates lead and email totals.
func (s *Service) Stats(ctx context.Context) (model.LeadStats, error) {
	if err := s.ready(); err != nil {
		return model.LeadStats{}, err
	}
	return s.leads.Stats(ctx)
}

// GetStats returns runtime information for health reporting.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"regions":     s.catalog.Load().Len(),
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
	}
	if s.started {
		stats["queueLength"] = s.queue.Len()
		stats["emailsProcessed"] = s.pool.Processed()
		stats["mailProvider"] = s.sender.Name()
	}
	return stats
}
