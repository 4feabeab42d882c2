package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/ongkir/fare-service/internal/database"
	"github.com/ongkir/fare-service/internal/estimator"
	"github.com/ongkir/fare-service/internal/geocoder"
	"github.com/ongkir/fare-service/internal/middleware"
	"github.com/ongkir/fare-service/internal/providers"
	"github.com/ongkir/fare-service/internal/routing"
	"github.com/ongkir/fare-service/internal/telemetry"
)

// EnvPrefix prefixes every environment override, e.g.
// FARE_SERVICE_SERVER_PORT.
const EnvPrefix = "FARE_SERVICE"

// Zone table sources.
const (
	ZoneSourceBuiltin  = "builtin"
	ZoneSourceFile     = "file"
	ZoneSourcePostgres = "postgres"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidationError names the offending key.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// Config holds the application configuration
type Config struct {
	Server    ServerConfig                 `mapstructure:"server"`
	Database  DatabaseConfig               `mapstructure:"database"`
	RateLimit middleware.RateLimiterConfig `mapstructure:"rate_limit"`
	Internal  InternalConfig               `mapstructure:"internal"`
	Logging   LoggingConfig                `mapstructure:"logging"`
	Telemetry telemetry.Config             `mapstructure:"telemetry"`
	Estimator estimator.Config             `mapstructure:"estimator"`
	Geocoder  GeocoderConfig               `mapstructure:"geocoder"`
	Routing   routing.Config               `mapstructure:"routing"`
	Providers []providers.Config           `mapstructure:"providers"`
	Zones     ZonesConfig                  `mapstructure:"zones"`
	Cache     CacheConfig                  `mapstructure:"cache"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database connection configuration. The database is
// only used by the postgres zone source.
type DatabaseConfig = database.Config

// InternalConfig guards the /internal routes
type InternalConfig struct {
	APIKey            string  `mapstructure:"api_key"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// GeocoderConfig enables the Nominatim lookup in front of zone matching
type GeocoderConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	geocoder.Config `mapstructure:",squash"`
}

// ZonesConfig selects where the zone table comes from
type ZonesConfig struct {
	Source string `mapstructure:"source"`
	Path   string `mapstructure:"path"`

	// Words ignored as partial keyword evidence; empty by default
	FragmentStopwords []string `mapstructure:"fragment_stopwords"`
}

// CacheConfig controls the expired-entry sweeper
type CacheConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := loadEnvFile(); err != nil {
		// .env is optional
		log.Debug().Err(err).Msg(".env file not loaded")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind env keys for nested config
	bindEnvVars(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = &cfg
	return &cfg, nil
}

// loadEnvFile loads the first .env found. Variables already set in the
// environment win.
func loadEnvFile() error {
	for _, dir := range []string{".", "./config"} {
		envFile := filepath.Join(dir, ".env")
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("parse %s: %w", envFile, err)
		}
		return nil
	}
	return fmt.Errorf("no .env file found")
}

// bindEnvVars binds the conventional unprefixed variables
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("database.url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")
	_ = v.BindEnv("server.host", EnvPrefix+"_SERVER_HOST", "HOST")
	_ = v.BindEnv("logging.level", EnvPrefix+"_LOGGING_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("internal.api_key", EnvPrefix+"_INTERNAL_API_KEY", "INTERNAL_API_KEY")
	_ = v.BindEnv("routing.google_api_key", EnvPrefix+"_ROUTING_GOOGLE_API_KEY", "GOOGLE_MAPS_API_KEY")
	_ = v.BindEnv("telemetry.endpoint", EnvPrefix+"_TELEMETRY_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	_ = v.BindEnv("telemetry.service_name", EnvPrefix+"_TELEMETRY_SERVICE_NAME", "OTEL_SERVICE_NAME")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	// Database defaults
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 1)
	v.SetDefault("database.max_conn_lifetime", 1*time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)
	v.SetDefault("database.health_check_period", time.Minute)

	// Inbound rate limit defaults
	rl := middleware.DefaultRateLimiterConfig()
	v.SetDefault("rate_limit.requests_per_second", rl.RequestsPerSecond)
	v.SetDefault("rate_limit.burst_size", rl.BurstSize)
	v.SetDefault("rate_limit.idle_timeout", rl.IdleTimeout)

	v.SetDefault("internal.api_key", "")
	v.SetDefault("internal.requests_per_second", 50)
	v.SetDefault("internal.burst_size", 100)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.service_name", telemetry.DefaultServiceName)
	v.SetDefault("telemetry.sample_ratio", 1.0)
	v.SetDefault("telemetry.export_interval", time.Minute)

	// Engine defaults
	est := estimator.Defaults()
	v.SetDefault("estimator.origin.lat", est.Origin.Lat)
	v.SetDefault("estimator.origin.lng", est.Origin.Lng)
	v.SetDefault("estimator.retry.max_retries", est.Retry.MaxRetries)
	v.SetDefault("estimator.retry.initial_backoff", est.Retry.InitialBackoff)
	v.SetDefault("estimator.retry.max_backoff", est.Retry.MaxBackoff)
	v.SetDefault("estimator.attempt_timeout", est.AttemptTimeout)
	v.SetDefault("estimator.routing_enabled", est.RoutingEnabled)
	v.SetDefault("estimator.quote_ttl", est.QuoteTTL)
	v.SetDefault("estimator.batch_concurrency", est.BatchConcurrency)
	v.SetDefault("estimator.emergency_zone", est.EmergencyZone)

	geo := geocoder.DefaultConfig()
	v.SetDefault("geocoder.enabled", false)
	v.SetDefault("geocoder.base_url", geo.BaseURL)
	v.SetDefault("geocoder.country_codes", geo.CountryCodes)
	v.SetDefault("geocoder.limit", geo.Limit)
	v.SetDefault("geocoder.viewbox.min_lat", geo.Viewbox.MinLat)
	v.SetDefault("geocoder.viewbox.min_lng", geo.Viewbox.MinLng)
	v.SetDefault("geocoder.viewbox.max_lat", geo.Viewbox.MaxLat)
	v.SetDefault("geocoder.viewbox.max_lng", geo.Viewbox.MaxLng)
	v.SetDefault("geocoder.timeout", geo.Timeout)
	v.SetDefault("geocoder.cache_ttl", geo.CacheTTL)
	v.SetDefault("geocoder.user_agent", "fare-service/1.0")

	rt := routing.DefaultConfig()
	v.SetDefault("routing.enabled", rt.Enabled)
	v.SetDefault("routing.osrm_base_url", rt.OSRMBaseURL)
	v.SetDefault("routing.osrm_profile", rt.OSRMProfile)
	v.SetDefault("routing.google_api_key", "")
	v.SetDefault("routing.timeout", rt.Timeout)

	v.SetDefault("zones.source", ZoneSourceBuiltin)
	v.SetDefault("zones.path", "")
	v.SetDefault("zones.fragment_stopwords", []string{})

	v.SetDefault("cache.sweep_interval", 5*time.Minute)
}

// Validate checks the loaded configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return &ValidationError{Field: "server.port", Reason: fmt.Sprintf("must be within [1, 65535], got %d", c.Server.Port)}
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return &ValidationError{Field: "logging.format", Reason: fmt.Sprintf("must be json or console, got %q", c.Logging.Format)}
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.BurstSize < 1 {
		return &ValidationError{Field: "rate_limit", Reason: "requests_per_second and burst_size must be positive"}
	}
	if c.Internal.RequestsPerSecond <= 0 || c.Internal.BurstSize < 1 {
		return &ValidationError{Field: "internal", Reason: "requests_per_second and burst_size must be positive"}
	}
	if err := c.Estimator.Validate(); err != nil {
		return &ValidationError{Field: "estimator", Reason: err.Error()}
	}
	if c.Routing.Timeout <= 0 || c.Routing.Timeout > routing.MaxTimeout {
		return &ValidationError{Field: "routing.timeout", Reason: fmt.Sprintf("must be within (0, %s]", routing.MaxTimeout)}
	}
	if c.Geocoder.Enabled && c.Geocoder.BaseURL == "" {
		return &ValidationError{Field: "geocoder.base_url", Reason: "required when the geocoder is enabled"}
	}

	switch c.Zones.Source {
	case ZoneSourceBuiltin:
	case ZoneSourceFile:
		if c.Zones.Path == "" {
			return &ValidationError{Field: "zones.path", Reason: "required for the file source"}
		}
	case ZoneSourcePostgres:
		if c.Database.URL == "" {
			return &ValidationError{Field: "database.url", Reason: "required for the postgres zone source"}
		}
	default:
		return &ValidationError{Field: "zones.source", Reason: fmt.Sprintf("unknown source %q", c.Zones.Source)}
	}

	seen := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		field := fmt.Sprintf("providers[%d]", i)
		if p.Name == "" {
			return &ValidationError{Field: field + ".name", Reason: "required"}
		}
		if seen[p.Name] {
			return &ValidationError{Field: field + ".name", Reason: fmt.Sprintf("duplicate provider %q", p.Name)}
		}
		seen[p.Name] = true
		if p.BaseURL == "" {
			return &ValidationError{Field: field + ".base_url", Reason: "required"}
		}
	}

	if c.Cache.SweepInterval <= 0 {
		return &ValidationError{Field: "cache.sweep_interval", Reason: "must be positive"}
	}
	return nil
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// GetDatabaseURL returns the database URL from config or environment
func GetDatabaseURL() string {
	if cfg := Get(); cfg != nil && cfg.Database.URL != "" {
		return cfg.Database.URL
	}
	return os.Getenv("DATABASE_URL")
}
