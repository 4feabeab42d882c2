package fare

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ongkir/fare-service/internal/geo"
	"github.com/ongkir/fare-service/internal/zones"
)

var (
	// ErrServiceUnsupported is returned for an unknown service identifier.
	ErrServiceUnsupported = errors.New("service not supported")
	// ErrDistanceExceedsLimit matches every DistanceLimitError.
	ErrDistanceExceedsLimit = errors.New("distance exceeds service limit")
	// ErrInvalidDistance is returned for negative or non-finite distances.
	ErrInvalidDistance = errors.New("invalid distance")
)

// DistanceLimitError marks a service as unavailable for a destination.
type DistanceLimitError struct {
	Service     string
	DistanceKm  float64
	LimitKm     float64
	Alternative string
}

func (e *DistanceLimitError) Error() string {
	msg := fmt.Sprintf("%s is unavailable for %.2f km (limit %.0f km)", e.Service, e.DistanceKm, e.LimitKm)
	if e.Alternative != "" {
		msg += fmt.Sprintf("; try %s", e.Alternative)
	}
	return msg
}

// Is lets errors.Is match ErrDistanceExceedsLimit.
func (e *DistanceLimitError) Is(target error) bool {
	return target == ErrDistanceExceedsLimit
}

// Breakdown splits Cost into its parts. The parts always sum to Cost: the
// surcharges are rounded on their own and Base takes the rounding remainder.
type Breakdown struct {
	Base            int64 `json:"base"`
	WeightSurcharge int64 `json:"weightSurcharge"`
	PeakSurcharge   int64 `json:"peakSurcharge"`
}

// Result is a computed fare.
type Result struct {
	Service    string    `json:"service"`
	Cost       int64     `json:"cost"`
	Breakdown  Breakdown `json:"breakdown"`
	DistanceKm float64   `json:"distanceKm"`
	WeightKg   float64   `json:"weightKg"`
	Peak       bool      `json:"peak"`
	FlatRate   bool      `json:"flatRate"`
	Window     string    `json:"window"`
}

// PeakWindow is the local hour range [StartHour, EndHour) with a surcharge.
type PeakWindow struct {
	StartHour int            `json:"startHour"`
	EndHour   int            `json:"endHour"`
	Location  *time.Location `json:"-"`
}

// Jakarta is Western Indonesian Time (UTC+7, no DST).
var Jakarta = time.FixedZone("WIB", 7*60*60)

// DefaultPeakWindow is 16:00-19:00 Jakarta time.
func DefaultPeakWindow() PeakWindow {
	return PeakWindow{StartHour: 16, EndHour: 19, Location: Jakarta}
}

// Contains reports whether t falls inside the window.
func (p PeakWindow) Contains(t time.Time) bool {
	loc := p.Location
	if loc == nil {
		loc = Jakarta
	}
	h := t.In(loc).Hour()
	if p.StartHour <= p.EndHour {
		return h >= p.StartHour && h < p.EndHour
	}
	// Window wraps midnight.
	return h >= p.StartHour || h < p.EndHour
}

// Calculator prices services from the catalog.
type Calculator struct {
	catalog *Catalog
	peak    PeakWindow
}

// NewCalculator creates a calculator
func NewCalculator(catalog *Catalog, peak PeakWindow) *Calculator {
	return &Calculator{catalog: catalog, peak: peak}
}

// Catalog returns the service catalog
func (c *Calculator) Catalog() *Catalog {
	return c.catalog
}

// PeakWindow returns the configured peak window
func (c *Calculator) PeakWindow() PeakWindow {
	return c.peak
}

// Quote prices service by its distance formula.
func (c *Calculator) Quote(service string, distanceKm, weightKg float64, now time.Time) (Result, error) {
	return c.quote(service, nil, distanceKm, weightKg, now)
}

// QuoteZone prices service for a destination in zone. A zone rate for the
// service replaces (flat Base) or floors (MinFare) the distance formula.
func (c *Calculator) QuoteZone(service string, zone zones.DeliveryZone, distanceKm, weightKg float64, now time.Time) (Result, error) {
	if rate, ok := zone.Rate(service); ok {
		return c.quote(service, &rate, distanceKm, weightKg, now)
	}
	return c.quote(service, nil, distanceKm, weightKg, now)
}

// Minimum returns the cheapest fare for service: the zone's flat rate when it
// has one, otherwise the service minimum. Weight and peak surcharges still
// apply.
func (c *Calculator) Minimum(service string, zone zones.DeliveryZone, weightKg float64, now time.Time) (Result, error) {
	svc, ok := c.catalog.Get(service)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrServiceUnsupported, service)
	}
	base := svc.MinFare
	flat := false
	if rate, ok := zone.Rate(service); ok {
		if rate.Base > 0 {
			base, flat = float64(rate.Base), true
		} else if float64(rate.MinFare) > base {
			base = float64(rate.MinFare)
		}
	}
	return c.finish(svc, base, flat, 0, weightKg, now), nil
}

func (c *Calculator) quote(service string, rate *zones.ZoneRate, distanceKm, weightKg float64, now time.Time) (Result, error) {
	svc, ok := c.catalog.Get(service)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrServiceUnsupported, service)
	}
	if distanceKm < 0 || math.IsNaN(distanceKm) || math.IsInf(distanceKm, 0) {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidDistance, distanceKm)
	}
	distanceKm = geo.Round2(distanceKm)

	if distanceKm > svc.MaxKm {
		return Result{}, c.limitError(svc, distanceKm, svc.MaxKm)
	}

	var base float64
	flat := false
	switch {
	case rate != nil && rate.Base > 0:
		base, flat = float64(rate.Base), true
	default:
		b, ok := formulaBase(svc, distanceKm)
		if !ok {
			return Result{}, c.limitError(svc, distanceKm, svc.Steps[len(svc.Steps)-1].UpToKm)
		}
		base = b
		if rate != nil && float64(rate.MinFare) > base {
			base = float64(rate.MinFare)
		}
	}

	return c.finish(svc, base, flat, distanceKm, weightKg, now), nil
}

func (c *Calculator) limitError(svc Service, km, limit float64) error {
	return &DistanceLimitError{
		Service:     svc.ID,
		DistanceKm:  km,
		LimitKm:     limit,
		Alternative: c.catalog.Alternative(svc.ID, km),
	}
}

// finish adds surcharges and rounds once.
func (c *Calculator) finish(svc Service, base float64, flat bool, distanceKm, weightKg float64, now time.Time) Result {
	if weightKg < 0 || math.IsNaN(weightKg) {
		weightKg = 0
	}
	weight := weightSurcharge(svc, weightKg)

	peak := 0.0
	isPeak := c.peak.Contains(now)
	if isPeak {
		peak = base * svc.PeakPercent / 100
	}

	cost := int64(math.Round(base + weight + peak))
	weightPart := int64(math.Round(weight))
	peakPart := int64(math.Round(peak))

	return Result{
		Service: svc.ID,
		Cost:    cost,
		Breakdown: Breakdown{
			Base:            cost - weightPart - peakPart,
			WeightSurcharge: weightPart,
			PeakSurcharge:   peakPart,
		},
		DistanceKm: distanceKm,
		WeightKg:   geo.Round2(weightKg),
		Peak:       isPeak,
		FlatRate:   flat,
		Window:     svc.Window,
	}
}

// formulaBase evaluates the service's distance formula. ok is false when a
// step table has no step reaching distanceKm.
func formulaBase(svc Service, distanceKm float64) (float64, bool) {
	switch svc.Family {
	case FamilyInstant:
		base, prev := 0.0, 0.0
		for _, t := range svc.Tiers {
			upper := t.UpToKm
			if upper <= 0 {
				upper = math.Inf(1)
			}
			if seg := math.Min(distanceKm, upper) - prev; seg > 0 {
				base += seg * t.PerKm
			}
			if distanceKm <= upper {
				break
			}
			prev = upper
		}
		return math.Max(base, svc.MinFare), true
	case FamilySameday:
		for _, s := range svc.Steps {
			if distanceKm <= s.UpToKm {
				return s.Price, true
			}
		}
		return 0, false
	}
	return 0, false
}

// weightSurcharge charges every started kilogram above the free threshold.
func weightSurcharge(svc Service, weightKg float64) float64 {
	excess := geo.Round2(weightKg - svc.FreeWeightKg)
	if excess <= 0 {
		return 0
	}
	return math.Ceil(excess) * svc.PerKgSurcharge
}
