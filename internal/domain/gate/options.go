package gate

import (
	"time"

	"github.com/okian/relocator/pkg/logger"
)

// Option applies a configuration option to the Gate.
type Option func(*Gate)

// WithLogger sets the gate logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithClock overrides the time source used for release timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}
