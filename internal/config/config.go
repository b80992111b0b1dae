// Package config loads service configuration from environment variables and an
// optional YAML policy file. Shared by the API server and cmd/fieldops.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/goccy/go-yaml"

	"github.com/fieldline/ops-backend/internal/assignment"
	"github.com/fieldline/ops-backend/internal/compliance"
	"github.com/fieldline/ops-backend/internal/geo"
	"github.com/fieldline/ops-backend/internal/location"
)

var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL must be set")
	ErrInvalidPolicy      = errors.New("invalid policy")
)

// Config is populated from environment variables.
type Config struct {
	// Database
	DatabaseURL   string
	SlowQueryTime time.Duration

	// API server
	Port             string
	CORSAllowOrigins []string

	// Location used to decide which calendar day is "today"
	Timezone *time.Location

	// Shared secret signing calendar sync webhooks
	CalendarWebhookSecret string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Engine tunables, defaults overridden by POLICY_FILE
	Policy Policy
}

// Policy is the set of resolver and scanner tunables.
type Policy struct {
	DefaultRadiusMeters   float64       `yaml:"default_radius_meters"`
	CandidateDisplayLimit int           `yaml:"candidate_display_limit"`
	StartWindowDays       float64       `yaml:"start_window_days"`
	ExpiryWindowDays      float64       `yaml:"expiry_window_days"`
	LocationTimeout       time.Duration `yaml:"location_timeout"`
}

// DefaultPolicy mirrors the compiled-in engine defaults.
func DefaultPolicy() Policy {
	return Policy{
		DefaultRadiusMeters:   geo.DefaultRadiusMeters,
		CandidateDisplayLimit: assignment.DefaultDisplayLimit,
		StartWindowDays:       compliance.DefaultPolicy.StartWindowDays,
		ExpiryWindowDays:      compliance.DefaultPolicy.ExpiryWindowDays,
		LocationTimeout:       location.DefaultTimeout,
	}
}

// Load reads configuration from the environment. DATABASE_URL is only checked
// by RequireDatabase so commands without a database can still load config.
//
// Environment variables:
//   - DATABASE_URL: Postgres DSN
//   - PORT: HTTP port (default: 5050)
//   - CORS_ALLOW_ORIGINS: comma-separated origin allow-list
//   - RATE_LIMIT_ENABLED / RATE_LIMIT_REQUESTS / RATE_LIMIT_WINDOW (seconds)
//   - DB_SLOW_QUERY_MS: slow query log threshold (default: 100)
//   - FIELD_TIMEZONE: IANA zone for schedule days (default: UTC)
//   - CALENDAR_WEBHOOK_SECRET: HMAC secret of the calendar sync webhook
//   - POLICY_FILE: optional YAML file overriding engine tunables
func Load() (*Config, error) {
	tz, err := time.LoadLocation(envOr("FIELD_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("FIELD_TIMEZONE: %w", err)
	}

	cfg := &Config{
		DatabaseURL:   envOr("DATABASE_URL", ""),
		SlowQueryTime: time.Duration(envInt("DB_SLOW_QUERY_MS", 100)) * time.Millisecond,

		Port:     envOr("PORT", "5050"),
		Timezone: tz,

		CalendarWebhookSecret: envOr("CALENDAR_WEBHOOK_SECRET", ""),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:5174",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		Policy: DefaultPolicy(),
	}

	if path := envOr("POLICY_FILE", ""); path != "" {
		p, err := LoadPolicyFile(path, cfg.Policy)
		if err != nil {
			return nil, err
		}
		cfg.Policy = p
	}

	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	if cfg.RateLimitEnabled && (cfg.RateLimitRequests <= 0 || cfg.RateLimitWindow <= 0) {
		return nil, fmt.Errorf("rate limit requires positive RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW")
	}
	return cfg, nil
}

// RequireDatabase returns ErrMissingDatabaseURL when no DSN is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	return nil
}

// LoadPolicyFile overlays the YAML file at path onto base. Keys absent from the
// file keep their base value.
func LoadPolicyFile(path string, base Policy) (Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read policy file: %w", err)
	}
	return ParsePolicy(raw, base)
}

// ParsePolicy overlays YAML policy data onto base.
func ParsePolicy(raw []byte, base Policy) (Policy, error) {
	p := base
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return base, fmt.Errorf("parse policy: %w", err)
	}
	return p, nil
}

// Validate rejects non-positive tunables.
func (p Policy) Validate() error {
	switch {
	case p.DefaultRadiusMeters <= 0:
		return fmt.Errorf("%w: default_radius_meters must be positive", ErrInvalidPolicy)
	case p.CandidateDisplayLimit <= 0:
		return fmt.Errorf("%w: candidate_display_limit must be positive", ErrInvalidPolicy)
	case p.StartWindowDays <= 0:
		return fmt.Errorf("%w: start_window_days must be positive", ErrInvalidPolicy)
	case p.ExpiryWindowDays <= 0:
		return fmt.Errorf("%w: expiry_window_days must be positive", ErrInvalidPolicy)
	case p.LocationTimeout <= 0:
		return fmt.Errorf("%w: location_timeout must be positive", ErrInvalidPolicy)
	}
	return nil
}

// Assignment returns the assignment policy.
func (p Policy) Assignment() assignment.Policy {
	return assignment.Policy{DisplayLimit: p.CandidateDisplayLimit}
}

// Compliance returns the scanner policy.
func (p Policy) Compliance() compliance.Policy {
	return compliance.Policy{StartWindowDays: p.StartWindowDays, ExpiryWindowDays: p.ExpiryWindowDays}
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
