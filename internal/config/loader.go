package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables consulted before any other key.
const (
	EnvPrefix  = "RELOCATOR_"
	EnvConfig  = EnvPrefix + "CONFIG"
	EnvDotFile = EnvPrefix + "ENV_FILE"
)

// Load builds a Config by layering, from low to high precedence:
//  1. defaults (New)
//  2. a .env file (RELOCATOR_ENV_FILE, default ".env") when present; it
//     never overrides variables already set in the process
//  3. a YAML file when RELOCATOR_CONFIG is set
//  4. RELOCATOR_* environment variables
func Load(_ context.Context) (*Config, error) {
	dotenv := os.Getenv(EnvDotFile)
	if dotenv == "" {
		dotenv = ".env"
	}
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, dotenv, err)
	}

	k := koanf.New(".")
	if path := os.Getenv(EnvConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// RELOCATOR_LEAD_STORE -> lead_store. Keys are flat, so the delimiter
	// never splits anything. List keys take comma separated values.
	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if key == "cors_origins" {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	switch {
	case c.Addr == "":
		return invalid("addr must not be empty")
	case !oneOf(c.LogFormat, "text", "json"):
		return invalid("log_format %q must be text or json", c.LogFormat)
	case !oneOf(c.LeadStore, "memory", "sqlite", "postgres"):
		return invalid("lead_store %q must be memory, sqlite or postgres", c.LeadStore)
	case c.LeadStore != "memory" && c.LeadStoreDSN == "":
		return invalid("lead_store_dsn is required for %s", c.LeadStore)
	case !oneOf(c.SessionStore, "memory", "redis"):
		return invalid("session_store %q must be memory or redis", c.SessionStore)
	case c.SessionStore == "redis" && c.RedisAddr == "":
		return invalid("redis_addr is required for the redis session store")
	case c.SessionTTL <= 0:
		return invalid("session_ttl must be positive")
	case !oneOf(strings.ToLower(c.MailProvider), "", "log", "smtp", "ses"):
		return invalid("mail_provider %q must be log, smtp or ses", c.MailProvider)
	case c.MailQueueSize < 1 || c.MailWorkerCount < 1:
		return invalid("mail_queue_size and mail_worker_count must be positive")
	case c.MaxLeadsLimit < 1:
		return invalid("max_leads_limit must be positive")
	case c.LeadRatePerSecond <= 0 || c.LeadBurst < 1:
		return invalid("lead_rate_per_second and lead_burst must be positive")
	case c.BreakEvenFallback <= 0:
		return invalid("break_even_fallback must be positive")
	case c.HouseholdSurcharge < 0 || c.PerPersonAllowance < 0 || c.CostOfLivingFactor < 0:
		return invalid("estimator constants must not be negative")
	case !oneOf(c.DefaultMoveTier, "minimal", "partial", "full"):
		return invalid("default_move_tier %q is not a move tier", c.DefaultMoveTier)
	}
	prev := 0.0
	for _, tier := range []string{"minimal", "partial", "full"} {
		cost, ok := c.MoveTierCosts[tier]
		if !ok || cost <= 0 {
			return invalid("move_tier_costs.%s must be set and positive", tier)
		}
		if cost <= prev {
			return invalid("move_tier_costs must increase from minimal to full, %s is %v", tier, cost)
		}
		prev = cost
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
