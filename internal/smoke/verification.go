package smoke

import (
	"errors"
	"fmt"
	"slices"

	"github.com/okian/relocator/internal/domain/estimate"
	"github.com/okian/relocator/internal/domain/model"
)

var kindSource = map[Kind]model.Source{
	KindEstimate:   model.SourceCalculator,
	KindMatch:      model.SourceQuiz,
	KindNewsletter: model.SourceNewsletter,
}

// verifyEstimate recomputes a released estimate from the submitted form.
func (r *runner) verifyEstimate(s Scenario, rel *releaseResponse) error {
	if rel.Calculator == nil {
		return errors.New("released estimate has no calculator payload")
	}
	if r.cfg.Estimator == nil {
		return nil
	}
	in := r.cfg.Estimator.Coerce(estimate.Form(*s.Form))
	if in != rel.Calculator.Input {
		return fmt.Errorf("input coerced to %+v, server has %+v", in, rel.Calculator.Input)
	}
	if res := r.cfg.Estimator.Estimate(r.cat, in); res != rel.Calculator.Result {
		return fmt.Errorf("estimate is %+v, server has %+v", res, rel.Calculator.Result)
	}
	return nil
}

// verifyMatch re-ranks the submitted answers.
func (r *runner) verifyMatch(s Scenario, rel *releaseResponse) error {
	if rel.Quiz == nil {
		return errors.New("released match has no quiz payload")
	}
	if r.cfg.Matcher == nil {
		return nil
	}
	if local := r.cfg.Matcher.Match(r.cat, s.Answers); !slices.Equal(local, rel.Quiz.Matches) {
		return fmt.Errorf("ranking is %v, server has %v", local, rel.Quiz.Matches)
	}
	return nil
}

// verifyStats checks the lead counters moved by what this run created.
// Concurrent traffic from other clients shows up as a failure.
func (r *runner) verifyStats() {
	rep := r.report
	if got := rep.After.TotalLeads - rep.Before.TotalLeads; got != rep.Leads() {
		r.fail("total leads grew by %d, created %d", got, rep.Leads())
	}
	for kind, src := range kindSource {
		if got := rep.After.BySource[src] - rep.Before.BySource[src]; got != rep.Succeeded[kind] {
			r.fail("%s leads grew by %d, created %d", src, got, rep.Succeeded[kind])
		}
	}
}
