package smoke

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// ErrStatus is returned for responses with an unexpected status code.
var ErrStatus = errors.New("unexpected status")

// client wraps http.Client with JSON helpers and 429 retries.
type client struct {
	http       *http.Client
	baseURL    string
	maxRetries int
	backoff    time.Duration
	retries    atomic.Int64
}

func newClient(cfg *Config) *client {
	return &client{
		http:       &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
	}
}

func (c *client) get(ctx context.Context, path string, want int, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, want, out)
}

func (c *client) post(ctx context.Context, path string, body any, want int, out any) error {
	return c.do(ctx, http.MethodPost, path, body, want, out)
}

func (c *client) do(ctx context.Context, method, path string, body any, want int, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
	}

	for attempt := 0; ; attempt++ {
		status, data, retryAfter, err := c.roundTrip(ctx, method, path, payload)
		if err != nil {
			return err
		}
		if status == http.StatusTooManyRequests && attempt < c.maxRetries {
			c.retries.Add(1)
			if err := sleep(ctx, retryAfter); err != nil {
				return err
			}
			continue
		}
		if status != want {
			return fmt.Errorf("%w: %s %s: got %d want %d: %s", ErrStatus, method, path, status, want, bytes.TrimSpace(data))
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
		return nil
	}
}

func (c *client) roundTrip(ctx context.Context, method, path string, payload []byte) (int, []byte, time.Duration, error) {
	var body io.Reader = http.NoBody
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, 0, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, 0, fmt.Errorf("read %s %s: %w", method, path, err)
	}

	wait := c.backoff
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs >= 0 {
		wait = time.Duration(secs) * time.Second
	}
	return resp.StatusCode, data, wait, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
