package estimator

import (
	"math"

	"github.com/ongkir/fare-service/internal/fare"
	"github.com/ongkir/fare-service/internal/geo"
	"github.com/ongkir/fare-service/internal/zones"
)

// Confidence levels per stage.
const (
	LiveConfidence      = 0.8
	ZoneMinConfidence   = 0.4
	ZoneMaxConfidence   = 0.9
	EmergencyConfidence = 0.3
)

var classConfidence = map[zones.DistanceClass]float64{
	zones.Near:   0.85,
	zones.Medium: 0.75,
	zones.Far:    0.6,
}

// zoneConfidence scales with keyword match strength and drops for farther zones.
func zoneConfidence(m zones.Match) float64 {
	if !m.Matched {
		return ZoneMinConfidence
	}
	c, ok := classConfidence[m.Zone.DistanceClass]
	if !ok {
		c = classConfidence[zones.Far]
	}
	switch {
	case m.Score >= zones.CityScore+zones.DistrictScore:
		c += 0.05
	case m.Score < zones.DistrictScore:
		// fragments or a postal code alone
		c -= 0.15
	case m.Score < zones.CityScore:
		c -= 0.05
	}
	return clamp(c, ZoneMinConfidence, ZoneMaxConfidence)
}

// liveConfidence adjusts the live baseline by plausibility and never drops
// below floor, the zone confidence for the same address.
func liveConfidence(svc fare.Service, price, weightKg, floor float64) float64 {
	c := LiveConfidence
	if svc.Plausible(price) {
		c += 0.1
	} else {
		c -= 0.2
	}
	if weightKg <= 0 {
		c -= 0.1
	} else {
		c += 0.05
	}
	c = clamp(c, LiveConfidence-0.2, LiveConfidence+0.2)
	return math.Max(c, floor)
}

func clamp(v, lo, hi float64) float64 {
	return geo.Round2(math.Min(math.Max(v, lo), hi))
}
