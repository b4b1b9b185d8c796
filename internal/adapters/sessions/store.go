// Package sessions keeps gated result sessions between the compute request
// and the release request.
package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/okian/relocator/internal/domain/gate"
	"github.com/rotisserie/eris"
)

// Store drivers accepted by Open.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Default limits.
const (
	DefaultTTL      = 24 * time.Hour
	DefaultCapacity = 50000
)

// Store persists sessions with a time to live. Saved sessions are copies:
// mutating a session after Save does not change the stored value.
type Store interface {
	// Save inserts or replaces s and restarts its TTL.
	Save(ctx context.Context, s *gate.Session) error
	// Load returns ErrNotFound for unknown or expired ids.
	Load(ctx context.Context, id string) (*gate.Session, error)
	Close() error
}

// RedisConfig holds connection settings for the redis driver.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Open creates the Store named by driver.
func Open(ctx context.Context, driver string, rc RedisConfig, opts ...Option) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverMemory:
		return NewMemoryStore(opts...), nil
	case DriverRedis:
		return NewRedisStore(ctx, rc, opts...)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
}

func encode(s *gate.Session) ([]byte, error) {
	if s == nil || s.ID == "" {
		return nil, ErrInvalidID
	}
	b, err := json.Marshal(s)
	return b, eris.Wrapf(err, "encode session %s", s.ID)
}

func decode(b []byte) (*gate.Session, error) {
	var s gate.Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, eris.Wrap(err, "decode session")
	}
	return &s, nil
}
