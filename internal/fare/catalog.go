// Package fare prices a delivery from distance, weight and time of day.
package fare

import (
	"fmt"
	"math"
	"sort"

	"github.com/ongkir/fare-service/internal/geo"
)

// Service identifiers.
const (
	GosendInstant = "gosend-instant"
	GosendSameday = "gosend-sameday"
	GrabInstant   = "grab-instant"
	GrabSameday   = "grab-sameday"
	Paxel         = "paxel"
)

// Family selects the formula shape.
type Family string

const (
	// FamilyInstant sums per-km tier contributions, floored at a minimum fare.
	FamilyInstant Family = "instant"
	// FamilySameday looks the distance up in a flat step table.
	FamilySameday Family = "sameday"
)

// Tier is one per-km band of an instant formula. UpToKm 0 means unbounded.
type Tier struct {
	UpToKm float64 `json:"upToKm" yaml:"up_to_km"`
	PerKm  float64 `json:"perKm" yaml:"per_km"`
}

// Step is one flat price up to a distance.
type Step struct {
	UpToKm float64 `json:"upToKm" yaml:"up_to_km"`
	Price  float64 `json:"price" yaml:"price"`
}

// Service is a courier product and its pricing rules.
type Service struct {
	ID       string             `json:"id"`
	Provider string             `json:"provider"`
	Family   Family             `json:"family"`
	Profile  geo.VehicleProfile `json:"profile"`
	MaxKm    float64            `json:"maxKm"`
	Window   string             `json:"window"`

	Tiers   []Tier  `json:"tiers,omitempty"`
	MinFare float64 `json:"minFare"`
	Steps   []Step  `json:"steps,omitempty"`

	FreeWeightKg   float64 `json:"freeWeightKg"`
	PerKgSurcharge float64 `json:"perKgSurcharge"`
	PeakPercent    float64 `json:"peakPercent"`

	// Plausible price band for live quotes.
	SaneMin float64 `json:"saneMin"`
	SaneMax float64 `json:"saneMax"`
}

// Plausible reports whether price is inside the service's sane band.
func (s Service) Plausible(price float64) bool {
	return price >= s.SaneMin && price <= s.SaneMax
}

func (s Service) validate() error {
	if s.ID == "" {
		return fmt.Errorf("service id is required")
	}
	if s.MaxKm <= 0 {
		return fmt.Errorf("service %s: max distance must be positive", s.ID)
	}
	switch s.Family {
	case FamilyInstant:
		if len(s.Tiers) == 0 {
			return fmt.Errorf("service %s: instant formula needs tiers", s.ID)
		}
	case FamilySameday:
		if len(s.Steps) == 0 {
			return fmt.Errorf("service %s: same-day formula needs steps", s.ID)
		}
		if !sort.SliceIsSorted(s.Steps, func(i, j int) bool { return s.Steps[i].UpToKm < s.Steps[j].UpToKm }) {
			return fmt.Errorf("service %s: steps must be ordered by distance", s.ID)
		}
	default:
		return fmt.Errorf("service %s: unknown family %q", s.ID, s.Family)
	}
	if s.FreeWeightKg < 0 || s.PerKgSurcharge < 0 || s.PeakPercent < 0 {
		return fmt.Errorf("service %s: negative surcharge settings", s.ID)
	}
	return nil
}

// Catalog is the ordered set of supported services.
type Catalog struct {
	services []Service
	byID     map[string]int
}

// NewCatalog validates services and builds a catalog.
func NewCatalog(services []Service) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]int, len(services))}
	for _, s := range services {
		if err := s.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, fmt.Errorf("service %s: duplicate id", s.ID)
		}
		c.byID[s.ID] = len(c.services)
		c.services = append(c.services, s)
	}
	if len(c.services) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}
	return c, nil
}

// Get returns the service with id.
func (c *Catalog) Get(id string) (Service, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Service{}, false
	}
	return c.services[i], true
}

// Services returns the services in catalog order.
func (c *Catalog) Services() []Service {
	return append([]Service(nil), c.services...)
}

// IDs returns the service identifiers in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.services))
	for i, s := range c.services {
		ids[i] = s.ID
	}
	return ids
}

// Broadest returns the service with the largest ceiling (first listed wins).
func (c *Catalog) Broadest() Service {
	best := c.services[0]
	for _, s := range c.services[1:] {
		if s.MaxKm > best.MaxKm {
			best = s
		}
	}
	return best
}

// Alternative suggests a service that still reaches km, preferring the
// broadest ceiling. It returns "" when nothing reaches.
func (c *Catalog) Alternative(excluding string, km float64) string {
	best, bestMax := "", math.Inf(-1)
	for _, s := range c.services {
		if s.ID == excluding || km > s.MaxKm {
			continue
		}
		if s.MaxKm > bestMax {
			best, bestMax = s.ID, s.MaxKm
		}
	}
	return best
}

// DefaultServices is the built-in Jabodetabek price list.
func DefaultServices() []Service {
	return []Service{
		{
			ID:             GosendInstant,
			Provider:       "gosend",
			Family:         FamilyInstant,
			Profile:        geo.ProfileMotorcycle,
			MaxKm:          40,
			Window:         "1-3 hours",
			Tiers:          []Tier{{UpToKm: 5, PerKm: 2500}, {UpToKm: 15, PerKm: 2000}, {PerKm: 1800}},
			MinFare:        12000,
			FreeWeightKg:   2,
			PerKgSurcharge: 10000,
			PeakPercent:    10,
			SaneMin:        8000,
			SaneMax:        250000,
		},
		{
			ID:             GosendSameday,
			Provider:       "gosend",
			Family:         FamilySameday,
			Profile:        geo.ProfileGeneric,
			MaxKm:          40,
			Window:         "6-8 hours",
			Steps:          []Step{{UpToKm: 15, Price: 15000}, {UpToKm: 25, Price: 20000}, {UpToKm: 40, Price: 25000}},
			MinFare:        15000,
			FreeWeightKg:   3,
			PerKgSurcharge: 5000,
			PeakPercent:    5,
			SaneMin:        8000,
			SaneMax:        150000,
		},
		{
			ID:             GrabInstant,
			Provider:       "grab",
			Family:         FamilyInstant,
			Profile:        geo.ProfileMotorcycle,
			MaxKm:          30,
			Window:         "1-3 hours",
			Tiers:          []Tier{{UpToKm: 5, PerKm: 2600}, {UpToKm: 15, PerKm: 2100}, {PerKm: 1900}},
			MinFare:        12500,
			FreeWeightKg:   2,
			PerKgSurcharge: 10000,
			PeakPercent:    10,
			SaneMin:        8000,
			SaneMax:        250000,
		},
		{
			ID:             GrabSameday,
			Provider:       "grab",
			Family:         FamilySameday,
			Profile:        geo.ProfileGeneric,
			MaxKm:          35,
			Window:         "6-8 hours",
			Steps:          []Step{{UpToKm: 15, Price: 14000}, {UpToKm: 25, Price: 19000}, {UpToKm: 35, Price: 24000}},
			MinFare:        14000,
			FreeWeightKg:   3,
			PerKgSurcharge: 5000,
			PeakPercent:    5,
			SaneMin:        8000,
			SaneMax:        150000,
		},
		{
			ID:             Paxel,
			Provider:       "paxel",
			Family:         FamilySameday,
			Profile:        geo.ProfileGeneric,
			MaxKm:          50,
			Window:         "8-12 hours",
			Steps:          []Step{{UpToKm: 10, Price: 12000}, {UpToKm: 25, Price: 18000}, {UpToKm: 50, Price: 26000}},
			MinFare:        12000,
			FreeWeightKg:   3,
			PerKgSurcharge: 5000,
			PeakPercent:    5,
			SaneMin:        8000,
			SaneMax:        150000,
		},
	}
}

// MustDefaultCatalog returns a catalog over DefaultServices.
func MustDefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultServices())
	if err != nil {
		panic(err)
	}
	return c
}
