// Package matching ranks catalog regions against quiz answers.
//
// Every answer is folded through a fixed per-question rule; regions are
// ordered by accumulated score with ties kept in catalog order. The
// resulting percentage is a display value against a fixed ceiling, not a
// probability.
package matching

import (
	"math"
	"sort"
	"strings"

	"github.com/okian/relocator/internal/domain/catalog"
	"github.com/okian/relocator/internal/domain/model"
)

const (
	defaultLimit    = 3
	defaultMaxScore = 50
)

// Matcher scores regions. It is stateless and safe for concurrent use.
type Matcher struct {
	limit    int
	maxScore float64
}

// New creates a Matcher returning the top three regions, normalized
// against a 50 point ceiling.
func New(opts ...Option) *Matcher {
	m := &Matcher{limit: defaultLimit, maxScore: defaultMaxScore}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type scored struct {
	region *model.Region
	score  float64
}

// Match returns at most limit regions ranked by score. Unknown questions or
// choices contribute nothing; an empty answer set yields catalog order.
func (m *Matcher) Match(c *catalog.Catalog, answers []model.QuizAnswer) []model.MatchResult {
	normalized := normalize(answers)

	ranked := make([]scored, 0, c.Len())
	c.Each(func(_ int, r *model.Region) {
		ranked = append(ranked, scored{region: r, score: accumulate(r, normalized)})
	})
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	n := min(m.limit, len(ranked))
	out := make([]model.MatchResult, 0, n)
	for i := 0; i < n; i++ {
		s := ranked[i]
		out = append(out, model.MatchResult{
			Rank:         i + 1,
			RegionID:     s.region.ID,
			RegionName:   s.region.Name,
			Description:  s.region.Description,
			MatchScore:   s.score,
			MatchPercent: m.percent(s.score),
		})
	}
	return out
}

// accumulate folds answers over r. Choices must already be normalized.
func accumulate(r *model.Region, answers []model.QuizAnswer) float64 {
	total := 0.0
	for _, a := range answers {
		if fn, ok := rules[a.QuestionID]; ok {
			total += fn(r, a.Choice)
		}
	}
	return total
}

func (m *Matcher) percent(score float64) int {
	p := math.Round(score / m.maxScore * 100)
	return int(math.Max(0, math.Min(100, p)))
}

func normalize(answers []model.QuizAnswer) []model.QuizAnswer {
	out := make([]model.QuizAnswer, len(answers))
	for i, a := range answers {
		out[i] = model.QuizAnswer{QuestionID: a.QuestionID, Choice: strings.ToLower(strings.TrimSpace(a.Choice))}
	}
	return out
}
