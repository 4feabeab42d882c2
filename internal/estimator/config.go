package estimator

import (
	"errors"
	"fmt"
	"time"

	"github.com/ongkir/fare-service/internal/cache"
	"github.com/ongkir/fare-service/internal/geo"
	"github.com/ongkir/fare-service/internal/http/ratelimit"
	"github.com/ongkir/fare-service/internal/zones"
)

// Attempt timeout bounds for live provider calls.
const (
	MinAttemptTimeout = 10 * time.Second
	MaxAttemptTimeout = 15 * time.Second
)

// ErrInvalidConfig is wrapped by every Config.Validate failure.
var ErrInvalidConfig = errors.New("invalid estimator config")

// Config holds the configuration for the fare engine.
type Config struct {
	// Dispatch point every distance is measured from
	Origin geo.Coordinate `mapstructure:"origin"`

	// Live provider attempts
	Retry          ratelimit.Config `mapstructure:"retry"`
	AttemptTimeout time.Duration    `mapstructure:"attempt_timeout"`

	// Road distance via the routing providers instead of straight-line estimates
	RoutingEnabled bool `mapstructure:"routing_enabled"`

	// How long a computed quote stays authoritative
	QuoteTTL time.Duration `mapstructure:"quote_ttl"`

	BatchConcurrency int `mapstructure:"batch_concurrency"`

	// Zone used by the emergency fallback; empty selects the zone nearest to Origin
	EmergencyZone string `mapstructure:"emergency_zone"`
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		Origin:           zones.DefaultOrigin,
		Retry:            ratelimit.DefaultConfig(),
		AttemptTimeout:   12 * time.Second,
		RoutingEnabled:   false,
		QuoteTTL:         cache.DefaultTTL,
		BatchConcurrency: 2,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if !c.Origin.Valid() || c.Origin.IsZero() {
		return fmt.Errorf("%w: origin %s is not a valid coordinate", ErrInvalidConfig, c.Origin)
	}
	if c.Retry.MaxRetries < 0 || c.Retry.MaxRetries > 5 {
		return fmt.Errorf("%w: retry.max_retries must be within [0, 5], got %d", ErrInvalidConfig, c.Retry.MaxRetries)
	}
	if c.Retry.InitialBackoff <= 0 {
		return fmt.Errorf("%w: retry.initial_backoff must be positive", ErrInvalidConfig)
	}
	if c.AttemptTimeout < MinAttemptTimeout || c.AttemptTimeout > MaxAttemptTimeout {
		return fmt.Errorf("%w: attempt_timeout must be within [%s, %s], got %s",
			ErrInvalidConfig, MinAttemptTimeout, MaxAttemptTimeout, c.AttemptTimeout)
	}
	if c.QuoteTTL <= 0 {
		return fmt.Errorf("%w: quote_ttl must be positive", ErrInvalidConfig)
	}
	if c.BatchConcurrency < 1 {
		return fmt.Errorf("%w: batch_concurrency must be at least 1", ErrInvalidConfig)
	}
	return nil
}
