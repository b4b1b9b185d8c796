package sessions

import "time"

// Option applies a configuration option to a session Store.
type Option func(*options)

type options struct {
	ttl      time.Duration
	capacity int
	prefix   string
	now      func() time.Time
}

func applyOptions(opts []Option) options {
	o := options{ttl: DefaultTTL, capacity: DefaultCapacity, prefix: "relocator:session:", now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithTTL sets how long a session survives after its last save.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithCapacity bounds the memory store. When full, the oldest session is
// evicted. A value <= 0 removes the bound.
func WithCapacity(n int) Option {
	return func(o *options) { o.capacity = n }
}

// WithKeyPrefix sets the redis key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.prefix = prefix
		}
	}
}

// WithClock overrides the memory store's time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
