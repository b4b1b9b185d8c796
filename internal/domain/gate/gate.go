// Package gate withholds computed results until the user supplies a contact
// address, then hands exactly one lead per release to the lead store.
package gate

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/okian/relocator/internal/domain/model"
	"github.com/okian/relocator/pkg/logger"
)

const maxEmailLength = 254

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Emitter accepts leads. It is the only side effect of the gate.
type Emitter interface {
	CreateLead(ctx context.Context, lead model.Lead) (model.LeadRecord, error)
}

// Contact identifies who a result is released to.
type Contact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Payload is the computed result attached to a lead. Newsletter leads carry
// neither part.
type Payload struct {
	Source     model.Source
	Calculator *model.CalculatorPayload
	Quiz       *model.QuizPayload
}

// Gate validates contacts and forwards leads. It keeps no state of its own.
type Gate struct {
	emitter Emitter
	logger  logger.Logger
	now     func() time.Time
}

// New creates a Gate emitting to e.
func New(e Emitter, opts ...Option) *Gate {
	g := &Gate{emitter: e, logger: logger.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Release validates c, emits the session's lead and marks the session
// released. A session may be released more than once; each call emits.
// On failure the session is left unchanged.
func (g *Gate) Release(ctx context.Context, s *Session, c Contact) (model.LeadRecord, error) {
	if s.State == StateComputed {
		return model.LeadRecord{}, fmt.Errorf("%w: session %s is not gated", ErrInvalidTransition, s.ID)
	}
	rec, err := g.Submit(ctx, c, s.Payload())
	if err != nil {
		return model.LeadRecord{}, err
	}
	released := g.now().UTC()
	s.State = StateReleased
	s.ReleasedAt = &released
	s.Releases++
	return rec, nil
}

// Submit validates c and emits one lead carrying p. It returns the store's
// acknowledgement uninterpreted. Store failures are wrapped in ErrUpstream
// and never retried.
func (g *Gate) Submit(ctx context.Context, c Contact, p Payload) (model.LeadRecord, error) {
	lead, err := BuildLead(c, p)
	if err != nil {
		g.logger.Debug(ctx, "lead rejected", logger.String("source", string(p.Source)), logger.Error(err))
		return model.LeadRecord{}, err
	}
	rec, err := g.emitter.CreateLead(ctx, lead)
	if err != nil {
		g.logger.Warn(ctx, "lead emission failed", logger.String("source", string(p.Source)), logger.Error(err))
		return model.LeadRecord{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	g.logger.Info(ctx, "lead emitted", logger.String("lead_id", rec.ID), logger.String("source", string(p.Source)))
	return rec, nil
}

// BuildLead validates c and p and assembles the lead envelope without
// emitting it.
func BuildLead(c Contact, p Payload) (model.Lead, error) {
	email, err := NormalizeEmail(c.Email)
	if err != nil {
		return model.Lead{}, err
	}
	if !p.Source.Valid() {
		return model.Lead{}, &ValidationError{Field: "source", Reason: fmt.Sprintf("unknown source %q", p.Source)}
	}
	switch p.Source {
	case model.SourceCalculator:
		if p.Calculator == nil {
			return model.Lead{}, &ValidationError{Field: "payload", Reason: "calculator result required"}
		}
	case model.SourceQuiz:
		if p.Quiz == nil {
			return model.Lead{}, &ValidationError{Field: "payload", Reason: "quiz result required"}
		}
	}

	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = email[:strings.IndexByte(email, '@')]
	}
	return model.Lead{
		Email:      email,
		Name:       name,
		Source:     p.Source,
		Calculator: p.Calculator,
		Quiz:       p.Quiz,
	}, nil
}

// NormalizeEmail trims raw and checks it looks like an address. Only the
// syntax is checked, never deliverability.
func NormalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", &ValidationError{Field: "email", Reason: "required"}
	}
	if len(email) > maxEmailLength || !emailPattern.MatchString(email) {
		return "", &ValidationError{Field: "email", Reason: "not a valid email address"}
	}
	return email, nil
}
