package estimator

import (
	"errors"
	"strings"
	"time"

	"github.com/ongkir/fare-service/internal/fare"
	"github.com/ongkir/fare-service/internal/geo"
)

var (
	// ErrAddressTooShort rejects addresses shorter than three characters.
	ErrAddressTooShort = errors.New("address is too short")
	// ErrAddressUnresolvable is recorded on quotes whose address matched no zone.
	ErrAddressUnresolvable = errors.New("address could not be resolved")
	// ErrSuperseded is returned by a Session call that a newer call replaced.
	ErrSuperseded = errors.New("estimate superseded by a newer request")
)

// MinAddressLength is the shortest address the engine accepts.
const MinAddressLength = 3

// Stage identifies where a quote came from.
type Stage string

const (
	StageCache     Stage = "cache"
	StageLive      Stage = "live"
	StageZone      Stage = "zone"
	StageEmergency Stage = "emergency"
)

// Request is one fare estimate request.
type Request struct {
	Address string          `json:"address" jsonschema:"required,minLength=3"`
	Service string          `json:"service" jsonschema:"required,enum=gosend-instant,enum=gosend-sameday,enum=grab-instant,enum=grab-sameday,enum=paxel"`
	Items   []fare.CartItem `json:"items,omitempty"`
	// WeightKg overrides the weight derived from Items when positive.
	WeightKg float64 `json:"weightKg,omitempty" jsonschema:"minimum=0"`
	// Now is the pricing time; zero means the engine clock.
	Now time.Time `json:"-"`
}

// Weight returns the billable weight in kilograms.
func (r Request) Weight() float64 {
	if r.WeightKg > 0 {
		return geo.Round2(r.WeightKg)
	}
	return fare.CartWeightKg(r.Items)
}

// FareQuote is the engine output. Quotes are values; the engine never hands
// out a quote it still references.
type FareQuote struct {
	Cost            int64          `json:"cost"`
	FormattedCost   string         `json:"formattedCost"`
	Service         string         `json:"service"`
	ZoneName        string         `json:"zoneName"`
	DistanceKm      float64        `json:"distanceKm"`
	WeightKg        float64        `json:"weightKg"`
	EstimatedWindow string         `json:"estimatedWindow"`
	IsLive          bool           `json:"isLive"`
	Confidence      float64        `json:"confidence"`
	Breakdown       fare.Breakdown `json:"breakdown"`
	ValidationError *string        `json:"validationError"`
	Stage           Stage          `json:"stage"`
	Available       bool           `json:"available"`
	Alternative     string         `json:"alternative,omitempty"`
}

func (q FareQuote) clone() FareQuote {
	if q.ValidationError != nil {
		msg := *q.ValidationError
		q.ValidationError = &msg
	}
	return q
}

func (q *FareQuote) setValidation(msg string) {
	q.ValidationError = &msg
}

// BatchRequest prices one address for several services.
type BatchRequest struct {
	Address string `json:"address" jsonschema:"required,minLength=3"`
	// Services defaults to every catalog service when empty.
	Services []string        `json:"services,omitempty"`
	Items    []fare.CartItem `json:"items,omitempty"`
	WeightKg float64         `json:"weightKg,omitempty" jsonschema:"minimum=0"`
	Now      time.Time       `json:"-"`
}

// BatchResult is the outcome for one service of a batch.
type BatchResult struct {
	Service string     `json:"service"`
	Quote   *FareQuote `json:"quote,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// ServiceInfo describes a service for the order form.
type ServiceInfo struct {
	ID           string  `json:"id"`
	Provider     string  `json:"provider"`
	Family       string  `json:"family"`
	MaxKm        float64 `json:"maxKm"`
	Window       string  `json:"window"`
	FreeWeightKg float64 `json:"freeWeightKg"`
}

// PeakInfo is the surcharge window in local time.
type PeakInfo struct {
	StartHour int    `json:"startHour"`
	EndHour   int    `json:"endHour"`
	TimeZone  string `json:"timeZone"`
}

// Constants are the fixed values the order form shows.
type Constants struct {
	Origin        geo.Coordinate `json:"origin"`
	Currency      string         `json:"currency"`
	Locale        string         `json:"locale"`
	PeakWindow    PeakInfo       `json:"peakWindow"`
	Services      []ServiceInfo  `json:"services"`
	EmergencyZone string         `json:"emergencyZone"`
}

func normalizeAddress(address string) string {
	return strings.Join(strings.Fields(address), " ")
}

func addressTooShort(address string) bool {
	return len([]rune(normalizeAddress(address))) < MinAddressLength
}
