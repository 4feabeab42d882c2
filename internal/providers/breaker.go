package providers

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned while a provider's breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerConfig holds configuration for a provider circuit breaker
type BreakerConfig struct {
	MaxRequests           uint32        `mapstructure:"max_requests" json:"maxRequests"`
	Interval              time.Duration `mapstructure:"interval" json:"interval"`
	Timeout               time.Duration `mapstructure:"timeout" json:"timeout"`
	FailureThreshold      uint32        `mapstructure:"failure_threshold" json:"failureThreshold"`
	FailureRatioThreshold float64       `mapstructure:"failure_ratio_threshold" json:"failureRatioThreshold"`
	MinRequestsToTrip     uint32        `mapstructure:"min_requests_to_trip" json:"minRequestsToTrip"`
}

// DefaultBreakerConfig returns the default breaker configuration
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:           1,
		Interval:              time.Minute,
		Timeout:               30 * time.Second,
		FailureThreshold:      5,
		FailureRatioThreshold: 0.6,
		MinRequestsToTrip:     10,
	}
}

// newBreaker builds a gobreaker for a provider. Malformed responses count as
// failures; context cancellation by the caller does not.
func newBreaker(name string, cfg BreakerConfig, logger zerolog.Logger, onChange func(name string, to gobreaker.State)) *gobreaker.CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if cfg.FailureThreshold > 0 && counts.ConsecutiveFailures >= cfg.FailureThreshold {
				return true
			}
			if cfg.MinRequestsToTrip > 0 && counts.Requests >= cfg.MinRequestsToTrip {
				ratio := float64(counts.TotalFailures) / float64(counts.Requests)
				return ratio >= cfg.FailureRatioThreshold
			}
			return false
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errCallerCancelled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
			if onChange != nil {
				onChange(name, to)
			}
		},
	}
	return gobreaker.NewCircuitBreaker(settings)
}

// errCallerCancelled tags failures caused by the caller's own context.
var errCallerCancelled = errors.New("cancelled by caller")
