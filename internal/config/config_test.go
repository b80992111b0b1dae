package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("POLICY_FILE", "")
	t.Setenv("CORS_ALLOW_ORIGINS", "")
	t.Setenv("FIELD_TIMEZONE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.UTC, cfg.Timezone)

	assert.Equal(t, "5050", cfg.Port)
	assert.Equal(t, DefaultPolicy(), cfg.Policy)
	assert.Equal(t, 120.0, cfg.Policy.DefaultRadiusMeters)
	assert.Equal(t, 3, cfg.Policy.CandidateDisplayLimit)
	assert.Equal(t, 10*time.Second, cfg.Policy.LocationTimeout)
	assert.ErrorIs(t, cfg.RequireDatabase(), ErrMissingDatabaseURL)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/fieldops")
	t.Setenv("PORT", "8080")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://ops.example.com, ,https://crew.example.com")
	t.Setenv("RATE_LIMIT_REQUESTS", "10")
	t.Setenv("RATE_LIMIT_WINDOW", "5")
	t.Setenv("POLICY_FILE", "")
	t.Setenv("FIELD_TIMEZONE", "America/Indiana/Indianapolis")
	t.Setenv("CALENDAR_WEBHOOK_SECRET", "whsec")

	cfg, err := Load()
	require.NoError(t, err)

	assert.NoError(t, cfg.RequireDatabase())
	assert.Equal(t, "America/Indiana/Indianapolis", cfg.Timezone.String())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"https://ops.example.com", "https://crew.example.com"}, cfg.CORSAllowOrigins)
	assert.Equal(t, 10, cfg.RateLimitRequests)
	assert.Equal(t, 5*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, "whsec", cfg.CalendarWebhookSecret)
}

func TestLoad_PolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_radius_meters: 200\nstart_window_days: 3\n"), 0o600))
	t.Setenv("POLICY_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 200.0, cfg.Policy.DefaultRadiusMeters)
	assert.Equal(t, 3.0, cfg.Policy.StartWindowDays)
	assert.Equal(t, 14.0, cfg.Policy.ExpiryWindowDays)
	assert.Equal(t, 3.0, cfg.Policy.Compliance().StartWindowDays)
}

func TestLoad_MissingPolicyFile(t *testing.T) {
	t.Setenv("POLICY_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy([]byte("candidate_display_limit: 5\nlocation_timeout: 4s\n"), DefaultPolicy())
	require.NoError(t, err)

	assert.Equal(t, 5, p.Assignment().DisplayLimit)
	assert.Equal(t, 4*time.Second, p.LocationTimeout)
	assert.Equal(t, 120.0, p.DefaultRadiusMeters)
}

func TestPolicyValidate(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())

	p := DefaultPolicy()
	p.DefaultRadiusMeters = -1
	assert.ErrorIs(t, p.Validate(), ErrInvalidPolicy)

	p = DefaultPolicy()
	p.CandidateDisplayLimit = 0
	assert.ErrorIs(t, p.Validate(), ErrInvalidPolicy)

	p = DefaultPolicy()
	p.LocationTimeout = 0
	assert.ErrorIs(t, p.Validate(), ErrInvalidPolicy)
}

func TestLoad_BadTimezone(t *testing.T) {
	t.Setenv("FIELD_TIMEZONE", "Mars/Olympus_Mons")

	_, err := Load()
	assert.Error(t, err)
}
