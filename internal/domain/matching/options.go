package matching

// Option applies a configuration option to the Matcher.
type Option func(*Matcher)

// WithLimit sets how many ranked regions Match returns.
func WithLimit(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.limit = n
		}
	}
}

// WithMaxScore sets the theoretical maximum score used to derive
// MatchPercent.
func WithMaxScore(ceiling float64) Option {
	return func(m *Matcher) {
		if ceiling > 0 {
			m.maxScore = ceiling
		}
	}
}
