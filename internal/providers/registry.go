package providers

import (
	"fmt"

	"github.com/sony/gobreaker"
)

// Registry holds the configured providers in priority order.
type Registry struct {
	providers []*Provider
}

// NewRegistry builds providers from configuration. Any invalid entry fails
// the whole registry.
func NewRegistry(cfgs []Config, opts ...Option) (*Registry, error) {
	r := &Registry{}
	seen := make(map[string]bool, len(cfgs))
	for _, cfg := range cfgs {
		if seen[cfg.Name] {
			return nil, fmt.Errorf("provider %s: duplicate name", cfg.Name)
		}
		seen[cfg.Name] = true

		p, err := New(cfg, opts...)
		if err != nil {
			return nil, err
		}
		r.providers = append(r.providers, p)
	}
	return r, nil
}

// For returns the first provider that prices service, or nil.
func (r *Registry) For(service string) *Provider {
	if r == nil {
		return nil
	}
	for _, p := range r.providers {
		if p.Serves(service) {
			return p
		}
	}
	return nil
}

// Len returns the number of providers
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.providers)
}

// Status is a provider's breaker snapshot.
type Status struct {
	Name          string `json:"name"`
	SchemaVersion string `json:"schemaVersion"`
	State         string `json:"state"`
	Requests      uint32 `json:"requests"`
	TotalFailures uint32 `json:"totalFailures"`
}

// Status returns breaker snapshots for every provider.
func (r *Registry) Status() []Status {
	if r == nil {
		return nil
	}
	out := make([]Status, 0, len(r.providers))
	for _, p := range r.providers {
		counts := p.breaker.Counts()
		out = append(out, Status{
			Name:          p.name,
			SchemaVersion: p.SchemaVersion(),
			State:         p.breaker.State().String(),
			Requests:      counts.Requests,
			TotalFailures: counts.TotalFailures,
		})
	}
	return out
}

// StateValue maps a breaker state to a gauge value (0 closed, 1 half-open, 2 open).
func StateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return 0
}
