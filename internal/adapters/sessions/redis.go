package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/relocator/internal/domain/gate"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// RedisStore keeps sessions in redis with native key expiry, so several
// API replicas can share them.
type RedisStore struct {
	client *redis.Client
	opts   options
}

// NewRedisStore connects to redis and pings it.
func NewRedisStore(ctx context.Context, rc RedisConfig, opts ...Option) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         rc.Addr,
		Password:     rc.Password,
		DB:           rc.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, eris.Wrapf(err, "redis: ping %s", rc.Addr)
	}
	return NewRedisStoreWithClient(client, opts...), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, opts ...Option) *RedisStore {
	return &RedisStore{client: client, opts: applyOptions(opts)}
}

func (r *RedisStore) key(id string) string {
	return r.opts.prefix + id
}

func (r *RedisStore) Save(ctx context.Context, s *gate.Session) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(s.ID), data, r.opts.ttl).Err(); err != nil {
		return eris.Wrapf(err, "redis: save session %s", s.ID)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context, id string) (*gate.Session, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "redis: load session %s", id)
	}
	return decode(data)
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
