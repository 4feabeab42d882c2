// Package providers fetches live prices from courier partner APIs.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/ongkir/fare-service/internal/geo"
	apphttp "github.com/ongkir/fare-service/internal/http"
)

var (
	// ErrProviderTimeout is returned when a provider did not answer in time.
	ErrProviderTimeout = errors.New("provider timeout")
	// ErrProviderUnreachable covers transport failures and error statuses.
	ErrProviderUnreachable = errors.New("provider unreachable")
)

// Config configures one provider
type Config struct {
	Name          string        `mapstructure:"name" json:"name"`
	BaseURL       string        `mapstructure:"base_url" json:"baseUrl"`
	APIKey        string        `mapstructure:"api_key" json:"-"`
	SchemaVersion string        `mapstructure:"schema_version" json:"schemaVersion"`
	Services      []string      `mapstructure:"services" json:"services"`
	Breaker       BreakerConfig `mapstructure:"breaker" json:"breaker"`
}

// Request is the body sent to a provider quote endpoint.
type Request struct {
	Origin      geo.Coordinate `json:"origin"`
	Destination geo.Coordinate `json:"destination"`
	Address     string         `json:"destination_address,omitempty"`
	Service     string         `json:"service"`
	WeightKg    float64        `json:"weight_kg"`
}

// Provider calls one courier partner through a circuit breaker.
type Provider struct {
	name     string
	url      string
	services map[string]bool
	parser   Parser
	client   *apphttp.Client
	breaker  *gobreaker.CircuitBreaker
	logger   zerolog.Logger
}

// Option configures a Provider
type Option func(*providerOptions)

type providerOptions struct {
	client   *apphttp.Client
	onChange func(name string, to gobreaker.State)
}

// WithClient replaces the HTTP client
func WithClient(c *apphttp.Client) Option {
	return func(o *providerOptions) { o.client = c }
}

// WithStateChange registers a breaker state callback (used for metrics).
func WithStateChange(fn func(name string, to gobreaker.State)) Option {
	return func(o *providerOptions) { o.onChange = fn }
}

// New creates a provider. An unknown schema version is a configuration error.
func New(cfg Config, opts ...Option) (*Provider, error) {
	if cfg.Name == "" {
		return nil, errors.New("provider name is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("provider %s: base_url is required", cfg.Name)
	}
	parser, err := ParserFor(cfg.SchemaVersion)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", cfg.Name, err)
	}
	if cfg.Breaker == (BreakerConfig{}) {
		cfg.Breaker = DefaultBreakerConfig()
	}

	o := providerOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.client == nil {
		clientOpts := []apphttp.Option{}
		if cfg.APIKey != "" {
			clientOpts = append(clientOpts, apphttp.WithHeader("Authorization", "Bearer "+cfg.APIKey))
		}
		o.client = apphttp.NewClient(clientOpts...)
	}

	logger := log.With().Str("component", "providers").Str("provider", cfg.Name).Logger()
	services := make(map[string]bool, len(cfg.Services))
	for _, s := range cfg.Services {
		services[s] = true
	}

	return &Provider{
		name:     cfg.Name,
		url:      strings.TrimRight(cfg.BaseURL, "/") + "/v1/quotes",
		services: services,
		parser:   parser,
		client:   o.client,
		breaker:  newBreaker(cfg.Name, cfg.Breaker, logger, o.onChange),
		logger:   logger,
	}, nil
}

// Name returns the provider name
func (p *Provider) Name() string { return p.name }

// SchemaVersion returns the configured parser version
func (p *Provider) SchemaVersion() string { return p.parser.Version() }

// Serves reports whether the provider prices service.
func (p *Provider) Serves(service string) bool { return p.services[service] }

// Open reports whether the breaker is currently rejecting calls.
func (p *Provider) Open() bool { return p.breaker.State() == gobreaker.StateOpen }

// State returns the breaker state name
func (p *Provider) State() string { return p.breaker.State().String() }

// Quote performs one attempt. The caller owns retries and the per-attempt
// deadline on ctx.
func (p *Provider) Quote(ctx context.Context, req Request) (Quote, error) {
	out, err := p.breaker.Execute(func() (interface{}, error) {
		body, err := p.client.PostRaw(ctx, p.url, req)
		if err != nil {
			return nil, p.classify(ctx, err)
		}
		q, err := p.parser.Parse(body)
		if err != nil {
			return nil, err
		}
		return q, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Quote{}, fmt.Errorf("%s: %w", p.name, ErrCircuitOpen)
		}
		p.logger.Debug().Err(err).Str("service", req.Service).Msg("Provider quote failed")
		return Quote{}, err
	}
	return out.(Quote), nil
}

func (p *Provider) classify(ctx context.Context, err error) error {
	if parent := ctx.Err(); parent != nil {
		if errors.Is(parent, context.DeadlineExceeded) {
			return fmt.Errorf("%s: %w: %v", p.name, ErrProviderTimeout, err)
		}
		return fmt.Errorf("%s: %w: %w", p.name, errCallerCancelled, parent)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%s: %w: %v", p.name, ErrProviderTimeout, err)
	}
	var de *apphttp.DecodeError
	if errors.As(err, &de) {
		return fmt.Errorf("%s: %w: %v", p.name, ErrMalformedResponse, err)
	}
	return fmt.Errorf("%s: %w: %w", p.name, ErrProviderUnreachable, err)
}

// Retryable reports whether another attempt could succeed. Malformed
// responses, open breakers and client-side 4xx statuses are final.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrMalformedResponse), errors.Is(err, ErrCircuitOpen), errors.Is(err, errCallerCancelled):
		return false
	case errors.Is(err, ErrProviderTimeout):
		return true
	}
	var se *apphttp.StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return errors.Is(err, ErrProviderUnreachable)
}

// IsTimeout reports whether err is a provider timeout
func IsTimeout(err error) bool {
	return errors.Is(err, ErrProviderTimeout)
}
