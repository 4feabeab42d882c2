// Package routing measures road distance between two coordinates.
package routing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ongkir/fare-service/internal/geo"
)

// ErrUnavailable is returned when no routing source produced a distance.
// Callers fall back to the straight-line estimate.
var ErrUnavailable = errors.New("road distance unavailable")

// MaxTimeout is the longest a single routing call may take.
const MaxTimeout = 15 * time.Second

// Source is one way of obtaining a road distance
type Source interface {
	Name() string
	RoadKm(ctx context.Context, from, to geo.Coordinate) (float64, error)
}

// Config configures the router
type Config struct {
	Enabled      bool          `mapstructure:"enabled" json:"enabled"`
	OSRMBaseURL  string        `mapstructure:"osrm_base_url" json:"osrmBaseUrl"`
	OSRMProfile  string        `mapstructure:"osrm_profile" json:"osrmProfile"`
	GoogleAPIKey string        `mapstructure:"google_api_key" json:"-"`
	Timeout      time.Duration `mapstructure:"timeout" json:"timeout"`
}

// DefaultConfig returns the default routing configuration
func DefaultConfig() Config {
	return Config{
		Enabled:     false,
		OSRMBaseURL: "https://router.project-osrm.org",
		OSRMProfile: "driving",
		Timeout:     10 * time.Second,
	}
}

// Router tries each source once, in order.
type Router struct {
	sources []Source
	timeout time.Duration
	logger  zerolog.Logger
}

// NewRouter creates a router over the given sources
func NewRouter(timeout time.Duration, sources ...Source) *Router {
	if timeout <= 0 || timeout > MaxTimeout {
		timeout = DefaultConfig().Timeout
	}
	return &Router{
		sources: sources,
		timeout: timeout,
		logger:  log.With().Str("component", "routing").Logger(),
	}
}

// FromConfig builds the OSRM source and, when an API key is set, the Google
// Directions source behind it.
func FromConfig(cfg Config) (*Router, error) {
	sources := []Source{NewOSRM(cfg.OSRMBaseURL, cfg.OSRMProfile, cfg.Timeout)}
	if cfg.GoogleAPIKey != "" {
		g, err := NewGoogle(cfg.GoogleAPIKey)
		if err != nil {
			return nil, err
		}
		sources = append(sources, g)
	}
	return NewRouter(cfg.Timeout, sources...), nil
}

// Sources returns the configured source names in order
func (r *Router) Sources() []string {
	names := make([]string, len(r.sources))
	for i, s := range r.sources {
		names[i] = s.Name()
	}
	return names
}

// RoadKm returns the road distance in km rounded to 2 decimals.
func (r *Router) RoadKm(ctx context.Context, from, to geo.Coordinate) (float64, error) {
	if r == nil || len(r.sources) == 0 {
		return 0, ErrUnavailable
	}

	var errs []error
	for _, src := range r.sources {
		km, err := r.attempt(ctx, src, from, to)
		if err == nil {
			return km, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		r.logger.Debug().Err(err).Str("source", src.Name()).Msg("Routing source failed")
		errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
	}
	return 0, fmt.Errorf("%w: %w", ErrUnavailable, errors.Join(errs...))
}

func (r *Router) attempt(ctx context.Context, src Source, from, to geo.Coordinate) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	km, err := src.RoadKm(ctx, from, to)
	if err != nil {
		return 0, err
	}
	if km <= 0 {
		return 0, fmt.Errorf("non-positive distance %.3f", km)
	}
	return geo.Round2(km), nil
}
