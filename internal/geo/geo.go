// Package geo holds the coordinate type and the closed-form distance helpers
// shared by the geocoder, the router and the zone fallback.
package geo

import (
	"fmt"
	"math"
)

const earthRadiusKm = 6371.0

// Coordinate is an immutable latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat" mapstructure:"lat" yaml:"lat"`
	Lng float64 `json:"lng" mapstructure:"lng" yaml:"lng"`
}

// Valid reports whether the coordinate lies inside the WGS84 range.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// IsZero reports whether the coordinate is the zero value.
func (c Coordinate) IsZero() bool {
	return c.Lat == 0 && c.Lng == 0
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}

// StraightLineKm returns the great-circle distance between a and b in
// kilometers, rounded to two decimals. It is symmetric in its arguments.
func StraightLineKm(a, b Coordinate) float64 {
	return Round2(haversineKm(a, b))
}

func haversineKm(a, b Coordinate) float64 {
	// Order the points so that floating point error is identical for (a,b) and (b,a).
	if b.Lat < a.Lat || (b.Lat == a.Lat && b.Lng < a.Lng) {
		a, b = b, a
	}
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// BoundingBox is a lat/lng rectangle. It is used as the geocoder viewbox.
type BoundingBox struct {
	MinLat float64 `mapstructure:"min_lat"`
	MinLng float64 `mapstructure:"min_lng"`
	MaxLat float64 `mapstructure:"max_lat"`
	MaxLng float64 `mapstructure:"max_lng"`
}

// Contains reports whether c is inside the box (edges inclusive).
func (b BoundingBox) Contains(c Coordinate) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat && c.Lng >= b.MinLng && c.Lng <= b.MaxLng
}

// Viewbox renders the box in the "left,top,right,bottom" order used by
// Nominatim.
func (b BoundingBox) Viewbox() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.MinLng, b.MaxLat, b.MaxLng, b.MinLat)
}

// IsZero reports whether the box is unset.
func (b BoundingBox) IsZero() bool {
	return b == BoundingBox{}
}
