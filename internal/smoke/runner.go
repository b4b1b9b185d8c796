package smoke

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/relocator/internal/domain/catalog"
	"github.com/okian/relocator/internal/domain/model"
	"github.com/okian/relocator/pkg/logger"
)

// ErrVerification is returned when at least one check failed.
var ErrVerification = errors.New("smoke verification failed")

const (
	directoryPermission = 0o750
	reportPermission    = 0o600
)

type regionsResponse struct {
	Regions []model.Region `json:"regions"`
}

type gatedResponse struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
}

type releaseResponse struct {
	State      string                   `json:"state"`
	Calculator *model.CalculatorPayload `json:"calculator"`
	Quiz       *model.QuizPayload       `json:"quiz"`
	Lead       struct {
		ID string `json:"id"`
	} `json:"lead"`
}

type contact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// runner holds the state shared by the scenarios of one run.
type runner struct {
	cfg    *Config
	client *client
	cat    *catalog.Catalog
	log    logger.Logger

	mu     sync.Mutex
	report *Report
}

// Run executes cfg.Scenarios journeys against cfg.BaseURL. The report is
// returned even when verification fails.
func Run(ctx context.Context, cfg *Config) (*Report, error) {
	r := &runner{
		cfg:    cfg,
		client: newClient(cfg),
		log:    cfg.Logger,
		report: &Report{Seed: cfg.Seed, Succeeded: map[Kind]int{}, Failures: []string{}, StartTime: time.Now()},
	}
	if r.log == nil {
		r.log = logger.Nop()
	}
	r.log.Info(ctx, "starting relocator smoke run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("scenarios", cfg.Scenarios),
		logger.Int("workers", cfg.Workers),
		logger.Any("seed", cfg.Seed))

	if err := r.client.get(ctx, "/healthz", http.StatusOK, nil); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	var regions regionsResponse
	if err := r.client.get(ctx, "/api/regions", http.StatusOK, &regions); err != nil {
		return nil, fmt.Errorf("fetch regions: %w", err)
	}
	cat, err := catalog.New(regions.Regions)
	if err != nil {
		return nil, fmt.Errorf("server catalog: %w", err)
	}
	r.cat = cat

	if err := r.client.get(ctx, "/api/stats", http.StatusOK, &r.report.Before); err != nil {
		return nil, fmt.Errorf("fetch stats: %w", err)
	}

	r.report.Scenarios = Generate(cfg.Seed, cfg.Scenarios, regions.Regions)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Workers, 1))
	for i, s := range r.report.Scenarios {
		g.Go(func() error {
			if err := r.run(gctx, s); err != nil {
				r.fail("scenario %d (%s): %v", i, s.Kind, err)
				return nil
			}
			r.mu.Lock()
			r.report.Succeeded[s.Kind]++
			r.mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := r.client.get(ctx, "/api/stats", http.StatusOK, &r.report.After); err != nil {
		return r.report, fmt.Errorf("fetch stats: %w", err)
	}
	r.verifyStats()

	r.report.Retries = int(r.client.retries.Load())
	r.report.Duration = time.Since(r.report.StartTime)
	if cfg.OutputFile != "" {
		if err := saveReport(cfg.OutputFile, r.report); err != nil {
			r.log.Warn(ctx, "failed to save report", logger.Error(err))
		}
	}

	r.log.Info(ctx, "smoke run finished",
		logger.Int("leads", r.report.Leads()),
		logger.Int("failures", len(r.report.Failures)),
		logger.Int("retries", r.report.Retries),
		logger.Duration("duration", r.report.Duration))

	if len(r.report.Failures) > 0 {
		return r.report, fmt.Errorf("%w: %d failures, first: %s", ErrVerification, len(r.report.Failures), r.report.Failures[0])
	}
	return r.report, nil
}

func (r *runner) run(ctx context.Context, s Scenario) error {
	who := contact{Email: s.Email, Name: s.Name}
	switch s.Kind {
	case KindEstimate:
		rel, err := r.gatedFlow(ctx, "/api/estimate", s.Form, who)
		if err != nil {
			return err
		}
		return r.verifyEstimate(s, rel)
	case KindMatch:
		rel, err := r.gatedFlow(ctx, "/api/match", map[string]any{"answers": s.Answers}, who)
		if err != nil {
			return err
		}
		return r.verifyMatch(s, rel)
	case KindNewsletter:
		return r.client.post(ctx, "/api/leads/newsletter", who, http.StatusCreated, nil)
	}
	return fmt.Errorf("unknown scenario kind %q", s.Kind)
}

// gatedFlow computes, checks the result is withheld, then releases it.
func (r *runner) gatedFlow(ctx context.Context, path string, body any, who contact) (*releaseResponse, error) {
	var gated gatedResponse
	if err := r.client.post(ctx, path, body, http.StatusCreated, &gated); err != nil {
		return nil, err
	}
	if gated.State != "gated" {
		return nil, fmt.Errorf("new session is %q, want gated", gated.State)
	}

	var before releaseResponse
	if err := r.client.get(ctx, "/api/sessions/"+gated.SessionID, http.StatusOK, &before); err != nil {
		return nil, err
	}
	if before.Calculator != nil || before.Quiz != nil {
		return nil, errors.New("gated session exposes its result")
	}

	var rel releaseResponse
	if err := r.client.post(ctx, "/api/sessions/"+gated.SessionID+"/release", who, http.StatusOK, &rel); err != nil {
		return nil, err
	}
	if rel.State != "released" || rel.Lead.ID == "" {
		return nil, fmt.Errorf("release returned state %q and lead %q", rel.State, rel.Lead.ID)
	}
	return &rel, nil
}

func (r *runner) fail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.mu.Lock()
	r.report.Failures = append(r.report.Failures, msg)
	r.mu.Unlock()
	r.log.Warn(context.Background(), "smoke check failed", logger.String("reason", msg))
}

func saveReport(path string, report *Report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), reportPermission)
}
