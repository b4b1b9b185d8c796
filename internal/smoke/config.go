// Package smoke drives a running relocator instance through its public
// HTTP API and checks the released results against a local engine.
package smoke

import (
	"time"

	"github.com/okian/relocator/internal/domain/estimate"
	"github.com/okian/relocator/internal/domain/matching"
	"github.com/okian/relocator/internal/domain/model"
	"github.com/okian/relocator/pkg/logger"
)

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Scenarios  int           // Number of scenarios to run
	Workers    int           // Concurrent scenarios
	Timeout    time.Duration // Per-request timeout
	Seed       uint64        // Seed of the scenario generator
	MaxRetries int           // Retries of a rate limited request
	Backoff    time.Duration // Wait when a 429 carries no Retry-After
	OutputFile string        // Report file, skipped when empty

	// Estimator and Matcher recompute released results locally. They must
	// be configured like the server's.
	Estimator *estimate.Estimator
	Matcher   *matching.Matcher
	Logger    logger.Logger
}

// Kind selects the API flow a scenario exercises.
type Kind string

// Scenario kinds.
const (
	KindEstimate   Kind = "estimate"
	KindMatch      Kind = "match"
	KindNewsletter Kind = "newsletter"
)

// Form is a calculator form as a browser would post it.
type Form struct {
	HouseholdSize     string `json:"household_size"`
	OriginHousingCost string `json:"origin_housing_cost"`
	MoveTier          string `json:"move_tier"`
	TargetRegionID    string `json:"target_region_id"`
}

// Scenario is one visitor journey.
type Scenario struct {
	Kind    Kind               `json:"kind"`
	Email   string             `json:"email"`
	Name    string             `json:"name,omitempty"`
	Form    *Form              `json:"form,omitempty"`
	Answers []model.QuizAnswer `json:"answers,omitempty"`
}

// Report summarizes a run.
type Report struct {
	Seed      uint64          `json:"seed"`
	Scenarios []Scenario      `json:"scenarios"`
	Succeeded map[Kind]int    `json:"succeeded"`
	Failures  []string        `json:"failures"`
	Retries   int             `json:"retries"`
	Before    model.LeadStats `json:"stats_before"`
	After     model.LeadStats `json:"stats_after"`
	StartTime time.Time       `json:"start_time"`
	Duration  time.Duration   `json:"duration"`
}

// Leads is the number of leads the run created.
func (r *Report) Leads() int {
	n := 0
	for _, c := range r.Succeeded {
		n += c
	}
	return n
}
