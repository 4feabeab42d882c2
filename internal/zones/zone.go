// Package zones holds the delivery zone table and the keyword-scoring
// resolver that maps a free-text address to exactly one zone.
package zones

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ongkir/fare-service/internal/geo"
)

// DistanceClass buckets a zone by how far it is from the origin.
type DistanceClass string

const (
	Near   DistanceClass = "near"
	Medium DistanceClass = "medium"
	Far    DistanceClass = "far"
)

// Valid reports whether c is a known class
func (c DistanceClass) Valid() bool {
	switch c {
	case Near, Medium, Far:
		return true
	}
	return false
}

// ZoneRate overrides the distance formula for one service in one zone.
// A positive Base is a flat rate. A zero Base with a positive MinFare keeps
// the distance formula but floors it.
type ZoneRate struct {
	Base    int64 `json:"base" yaml:"base"`
	MinFare int64 `json:"minFare,omitempty" yaml:"min_fare,omitempty"`
}

// DeliveryZone is a named geographic bucket matched by keyword scoring.
type DeliveryZone struct {
	Name             string              `json:"name" yaml:"name"`
	CityKeywords     []string            `json:"cityKeywords" yaml:"city_keywords"`
	DistrictKeywords []string            `json:"districtKeywords" yaml:"district_keywords"`
	PostalPrefixes   []string            `json:"postalPrefixes,omitempty" yaml:"postal_prefixes,omitempty"`
	Centroid         geo.Coordinate      `json:"centroid" yaml:"centroid"`
	Rates            map[string]ZoneRate `json:"rates,omitempty" yaml:"rates,omitempty"`
	DistanceClass    DistanceClass       `json:"distanceClass" yaml:"distance_class"`
}

// Rate returns the zone's rate override for service, if any.
func (z DeliveryZone) Rate(service string) (ZoneRate, bool) {
	r, ok := z.Rates[service]
	return r, ok
}

// Clone returns a deep copy so callers can never mutate a resolver's table.
func (z DeliveryZone) Clone() DeliveryZone {
	out := z
	out.CityKeywords = append([]string(nil), z.CityKeywords...)
	out.DistrictKeywords = append([]string(nil), z.DistrictKeywords...)
	out.PostalPrefixes = append([]string(nil), z.PostalPrefixes...)
	if z.Rates != nil {
		out.Rates = make(map[string]ZoneRate, len(z.Rates))
		for k, v := range z.Rates {
			out.Rates[k] = v
		}
	}
	return out
}

// Match is the outcome of resolving an address.
type Match struct {
	Zone    DeliveryZone
	Score   int
	Matched bool
}

// Validate checks a zone table. The last zone is the remote default and must
// be classed far.
func Validate(table []DeliveryZone) error {
	if len(table) < 1 {
		return errors.New("zone table is empty")
	}
	seen := make(map[string]bool, len(table))
	for i, z := range table {
		name := strings.TrimSpace(z.Name)
		if name == "" {
			return fmt.Errorf("zone %d: name is required", i)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return fmt.Errorf("zone %q: duplicate name", name)
		}
		seen[key] = true
		if !z.DistanceClass.Valid() {
			return fmt.Errorf("zone %q: invalid distance class %q", name, z.DistanceClass)
		}
		if !z.Centroid.Valid() {
			return fmt.Errorf("zone %q: invalid centroid", name)
		}
		for svc, r := range z.Rates {
			if r.Base < 0 || r.MinFare < 0 {
				return fmt.Errorf("zone %q: negative rate for %s", name, svc)
			}
		}
	}
	if last := table[len(table)-1]; last.DistanceClass != Far {
		return fmt.Errorf("zone %q: the last (remote) zone must be classed %q", last.Name, Far)
	}
	return nil
}
