package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ongkir/fare-service/internal/estimator"
	"github.com/ongkir/fare-service/internal/providers"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "logging:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, estimator.Defaults(), cfg.Estimator)
	assert.Equal(t, ZoneSourceBuiltin, cfg.Zones.Source)
	assert.False(t, cfg.Geocoder.Enabled)
	assert.Equal(t, "id", cfg.Geocoder.CountryCodes)
	assert.False(t, cfg.Geocoder.Viewbox.IsZero())
	assert.Equal(t, 5*time.Minute, cfg.Cache.SweepInterval)
	assert.Empty(t, cfg.Providers)
	assert.Same(t, cfg, Get())
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	t.Setenv("FARE_SERVICE_SERVER_PORT", "8081")
	t.Setenv("INTERNAL_API_KEY", "from-env")
	t.Setenv("FARE_SERVICE_ESTIMATOR_ATTEMPT_TIMEOUT", "14s")

	path := writeConfig(t, `
server:
  port: 9000
estimator:
  batch_concurrency: 3
  emergency_zone: Depok
  retry:
    max_retries: 1
providers:
  - name: gosend
    base_url: https://quotes.example.test
    schema_version: gosend/v1
    services: [gosend-instant, gosend-sameday]
    breaker:
      failure_threshold: 3
      timeout: 45s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port, "environment beats the file")
	assert.Equal(t, "from-env", cfg.Internal.APIKey)
	assert.Equal(t, 14*time.Second, cfg.Estimator.AttemptTimeout)
	assert.Equal(t, 3, cfg.Estimator.BatchConcurrency)
	assert.Equal(t, "Depok", cfg.Estimator.EmergencyZone)
	assert.Equal(t, 1, cfg.Estimator.Retry.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Estimator.Retry.InitialBackoff, "unset keys keep defaults")

	require.Len(t, cfg.Providers, 1)
	assert.Equal(t, providers.Config{
		Name:          "gosend",
		BaseURL:       "https://quotes.example.test",
		SchemaVersion: "gosend/v1",
		Services:      []string{"gosend-instant", "gosend-sameday"},
		Breaker:       providers.BreakerConfig{FailureThreshold: 3, Timeout: 45 * time.Second},
	}, cfg.Providers[0])
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FARE_SERVICE_LOGGING_FORMAT=console\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		_ = os.Unsetenv("FARE_SERVICE_LOGGING_FORMAT")
	})

	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestValidate(t *testing.T) {
	base := func(t *testing.T) *Config {
		cfg, err := Load(writeConfig(t, ""))
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"zero rate limit", func(c *Config) { c.RateLimit.RequestsPerSecond = 0 }, "rate_limit"},
		{"attempt timeout out of range", func(c *Config) { c.Estimator.AttemptTimeout = time.Second }, "estimator"},
		{"file source without path", func(c *Config) { c.Zones.Source = ZoneSourceFile }, "zones.path"},
		{"postgres source without url", func(c *Config) { c.Zones.Source = ZoneSourcePostgres; c.Database.URL = "" }, "database.url"},
		{"unknown source", func(c *Config) { c.Zones.Source = "s3" }, "zones.source"},
		{"provider without url", func(c *Config) { c.Providers = []providers.Config{{Name: "paxel"}} }, "providers[0].base_url"},
		{"duplicate provider", func(c *Config) {
			c.Providers = []providers.Config{{Name: "paxel", BaseURL: "http://a"}, {Name: "paxel", BaseURL: "http://b"}}
		}, "providers[1].name"},
		{"zero sweep interval", func(c *Config) { c.Cache.SweepInterval = 0 }, "cache.sweep_interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	assert.NoError(t, base(t).Validate())
}
