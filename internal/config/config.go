// Package config defines service configuration and its defaults.
//
// Keys are flat so every one of them can be set from the environment with
// the RELOCATOR_ prefix, e.g. RELOCATOR_LEAD_STORE=sqlite.
package config

import "time"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`
	// ShutdownTimeout bounds graceful shutdown of the server and mail workers.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CatalogPath points at a YAML region catalog. Empty uses the built-in one.
	CatalogPath string `koanf:"catalog_path"`
	// CatalogWatch reloads the catalog when the file changes.
	CatalogWatch bool `koanf:"catalog_watch"`

	HouseholdSurcharge float64            `koanf:"household_surcharge"`
	PerPersonAllowance float64            `koanf:"per_person_allowance"`
	CostOfLivingFactor float64            `koanf:"cost_of_living_factor"`
	BreakEvenFallback  float64            `koanf:"break_even_fallback"`
	MoveTierCosts      map[string]float64 `koanf:"move_tier_costs"`
	DefaultMoveTier    string             `koanf:"default_move_tier"`

	// LeadStore selects the lead store driver: memory, sqlite or postgres.
	LeadStore    string `koanf:"lead_store"`
	LeadStoreDSN string `koanf:"lead_store_dsn"`
	// MaxLeadsLimit caps GET /api/leads?limit.
	MaxLeadsLimit int `koanf:"max_leads_limit"`

	// SessionStore selects where gated sessions live: memory or redis.
	SessionStore    string        `koanf:"session_store"`
	SessionTTL      time.Duration `koanf:"session_ttl"`
	SessionCapacity int           `koanf:"session_capacity"`
	RedisAddr       string        `koanf:"redis_addr"`
	RedisPassword   string        `koanf:"redis_password"`
	RedisDB         int           `koanf:"redis_db"`

	// MailProvider selects the email sender: log, smtp or ses.
	MailProvider    string `koanf:"mail_provider"`
	MailFrom        string `koanf:"mail_from"`
	MailBrand       string `koanf:"mail_brand"`
	SMTPHost        string `koanf:"smtp_host"`
	SMTPPort        int    `koanf:"smtp_port"`
	SMTPUser        string `koanf:"smtp_user"`
	SMTPPass        string `koanf:"smtp_pass"`
	SESRegion       string `koanf:"ses_region"`
	MailQueueSize   int    `koanf:"mail_queue_size"`
	MailWorkerCount int    `koanf:"mail_worker_count"`

	CORSOrigins       []string `koanf:"cors_origins"`
	LeadRatePerSecond float64  `koanf:"lead_rate_per_second"`
	LeadBurst         int      `koanf:"lead_burst"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":8080",
		ShutdownTimeout: 15 * time.Second,

		HouseholdSurcharge: 0.3,
		PerPersonAllowance: 400,
		CostOfLivingFactor: 0.32,
		BreakEvenFallback:  200,
		MoveTierCosts: map[string]float64{
			"minimal": 2000,
			"partial": 5000,
			"full":    10000,
		},
		DefaultMoveTier: "partial",

		LeadStore:     "memory",
		MaxLeadsLimit: 500,

		SessionStore:    "memory",
		SessionTTL:      24 * time.Hour,
		SessionCapacity: 50_000,
		RedisAddr:       "localhost:6379",

		MailProvider:    "log",
		MailFrom:        "hello@relocator.local",
		MailBrand:       "Relocator",
		SMTPPort:        587,
		SESRegion:       "eu-west-3",
		MailQueueSize:   10_000,
		MailWorkerCount: 4,

		CORSOrigins:       []string{"*"},
		LeadRatePerSecond: 5,
		LeadBurst:         10,
	}
}
