package gate

import (
	"time"

	"github.com/google/uuid"
	"github.com/okian/relocator/internal/domain/model"
)

// Session holds one computed result until a contact releases it. Sessions
// are plain values so adapters can persist them as JSON.
type Session struct {
	ID         string                   `json:"id"`
	Source     model.Source             `json:"source"`
	State      State                    `json:"state"`
	Calculator *model.CalculatorPayload `json:"calculator,omitempty"`
	Quiz       *model.QuizPayload       `json:"quiz,omitempty"`
	CreatedAt  time.Time                `json:"created_at"`
	ReleasedAt *time.Time               `json:"released_at,omitempty"`
	Releases   int                      `json:"releases"`
}

// NewCalculatorSession wraps a computed estimate.
func NewCalculatorSession(in model.CalculatorInput, res model.CalculatorResult) *Session {
	return &Session{
		ID:         uuid.NewString(),
		Source:     model.SourceCalculator,
		State:      StateComputed,
		Calculator: &model.CalculatorPayload{Input: in, Result: res},
		CreatedAt:  time.Now().UTC(),
	}
}

// NewQuizSession wraps a computed match set.
func NewQuizSession(answers []model.QuizAnswer, matches []model.MatchResult) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Source:    model.SourceQuiz,
		State:     StateComputed,
		Quiz:      &model.QuizPayload{Answers: answers, Matches: matches},
		CreatedAt: time.Now().UTC(),
	}
}

// Hold withholds the result. Only a computed session can be held.
func (s *Session) Hold() error {
	if s.State != StateComputed {
		return ErrInvalidTransition
	}
	s.State = StateGated
	return nil
}

// Payload returns the withheld result as a lead payload.
func (s *Session) Payload() Payload {
	return Payload{Source: s.Source, Calculator: s.Calculator, Quiz: s.Quiz}
}

// Teaser is what a gated session exposes before release: enough to
// motivate the user, never the numbers themselves.
type Teaser struct {
	Source      model.Source `json:"source"`
	RegionNames []string     `json:"region_names"`
	Notional    bool         `json:"notional_break_even,omitempty"`
}

// Teaser returns the pre-release view of s.
func (s *Session) Teaser() Teaser {
	t := Teaser{Source: s.Source, RegionNames: []string{}}
	switch {
	case s.Calculator != nil:
		t.RegionNames = append(t.RegionNames, s.Calculator.Result.RegionName)
		t.Notional = s.Calculator.Result.BreakEvenNotional
	case s.Quiz != nil:
		for _, m := range s.Quiz.Matches {
			t.RegionNames = append(t.RegionNames, m.RegionName)
		}
	}
	return t
}
