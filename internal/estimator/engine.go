// Package estimator produces fare quotes for the order form. Each estimate
// tries the cache, then a live provider, then the zone table, then a minimal
// emergency fare, and always ends with exactly one quote.
package estimator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ongkir/fare-service/internal/cache"
	"github.com/ongkir/fare-service/internal/fare"
	"github.com/ongkir/fare-service/internal/geo"
	"github.com/ongkir/fare-service/internal/http/ratelimit"
	"github.com/ongkir/fare-service/internal/providers"
	"github.com/ongkir/fare-service/internal/zones"
)

const zoneCacheProvider = "zone"

// Geocoder resolves a free-text address.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (geo.Coordinate, error)
}

// Router returns road distances.
type Router interface {
	RoadKm(ctx context.Context, from, to geo.Coordinate) (float64, error)
}

// Provider is a live courier price source.
type Provider interface {
	Name() string
	Open() bool
	Quote(ctx context.Context, req providers.Request) (providers.Quote, error)
}

// Engine is the fare estimation engine. It is safe for concurrent use.
type Engine struct {
	cfg         Config
	resolver    *zones.Resolver
	calc        *fare.Calculator
	cache       *cache.Cache
	geocoder    Geocoder
	router      Router
	providerFor func(service string) Provider
	emergency   zones.DeliveryZone
	now         func() time.Time
	metrics     *MetricsRecorder
	tracer      trace.Tracer
	logger      zerolog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithResolver replaces the default zone table.
func WithResolver(r *zones.Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// WithCalculator replaces the default service catalog and peak window.
func WithCalculator(c *fare.Calculator) Option {
	return func(e *Engine) { e.calc = c }
}

// WithCache shares a cache with other components.
func WithCache(c *cache.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithGeocoder enables the live stage's address lookup.
func WithGeocoder(g Geocoder) Option {
	return func(e *Engine) { e.geocoder = g }
}

// WithRouter sets the road distance source used when routing is enabled.
func WithRouter(r Router) Option {
	return func(e *Engine) { e.router = r }
}

// WithProviders sets the live price providers.
func WithProviders(reg *providers.Registry) Option {
	return func(e *Engine) {
		e.providerFor = func(service string) Provider {
			if p := reg.For(service); p != nil {
				return p
			}
			return nil
		}
	}
}

// WithClock replaces time.Now for requests without an explicit time.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithMetrics shares a metrics recorder.
func WithMetrics(m *MetricsRecorder) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an engine. Without options it prices from the built-in zone
// table and catalog and never touches the network.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:         cfg,
		providerFor: func(string) Provider { return nil },
		now:         time.Now,
		metrics:     NewMetricsRecorder(),
		tracer:      otel.Tracer("github.com/ongkir/fare-service/internal/estimator"),
		logger:      log.With().Str("component", "estimator").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.resolver == nil {
		e.resolver = zones.MustDefault()
	}
	if e.calc == nil {
		e.calc = fare.NewCalculator(fare.MustDefaultCatalog(), fare.DefaultPeakWindow())
	}
	if e.cache == nil {
		e.cache = cache.New(cfg.QuoteTTL)
	}

	if cfg.EmergencyZone != "" {
		z, ok := e.resolver.Lookup(cfg.EmergencyZone)
		if !ok {
			return nil, fmt.Errorf("%w: emergency_zone %q is not in the zone table", ErrInvalidConfig, cfg.EmergencyZone)
		}
		e.emergency = z
	} else {
		e.emergency = e.resolver.Nearest(cfg.Origin)
	}

	return e, nil
}

// estimate carries one request through the stages.
type estimate struct {
	address string
	service fare.Service
	weight  float64
	now     time.Time

	coord       geo.Coordinate
	geocoded    bool
	distanceKm  float64
	hasDistance bool
}

// Estimate returns a quote for req. Only ErrAddressTooShort and
// fare.ErrServiceUnsupported are returned as errors; every other failure
// becomes a lower-confidence quote.
func (e *Engine) Estimate(ctx context.Context, req Request) (FareQuote, error) {
	start := time.Now()

	address := normalizeAddress(req.Address)
	if addressTooShort(address) {
		return FareQuote{}, fmt.Errorf("%w: %q", ErrAddressTooShort, address)
	}
	svc, ok := e.calc.Catalog().Get(req.Service)
	if !ok {
		return FareQuote{}, fmt.Errorf("%w: %s", fare.ErrServiceUnsupported, req.Service)
	}

	ctx, span := e.tracer.Start(ctx, "estimator.Estimate",
		trace.WithAttributes(attribute.String("fare.service", svc.ID)))
	defer span.End()

	st := &estimate{
		address: address,
		service: svc,
		weight:  req.Weight(),
		now:     req.Now,
	}
	if st.now.IsZero() {
		st.now = e.now()
	}

	q := e.run(ctx, st)

	span.SetAttributes(
		attribute.String("fare.stage", string(q.Stage)),
		attribute.Float64("fare.confidence", q.Confidence),
		attribute.Int64("fare.cost", q.Cost),
	)
	e.metrics.RecordEstimate(q.Stage, svc.ID, time.Since(start), q.Confidence)
	return q, nil
}

func (e *Engine) run(ctx context.Context, st *estimate) FareQuote {
	provider := e.providerFor(st.service.ID)
	zoneKey := cache.Key(zoneCacheProvider, st.address, st.service.ID)
	liveKey := ""
	if provider != nil {
		liveKey = cache.Key(provider.Name(), st.address, st.service.ID)
	}

	if q, ok := e.cached(st, liveKey, zoneKey); ok {
		return q
	}

	if q, ok := e.live(ctx, st, provider); ok {
		e.cache.Set(liveKey, q, e.cfg.QuoteTTL)
		return q.clone()
	}

	q, err := e.zone(ctx, st)
	if err == nil {
		e.cache.Set(zoneKey, q, e.cfg.QuoteTTL)
		return q.clone()
	}

	e.logger.Warn().Err(err).
		Str("service", st.service.ID).
		Str("address", st.address).
		Msg("Zone fallback failed, using emergency fare")
	return e.emergencyQuote(st, err)
}

// cached returns the first unexpired quote for the same weight.
func (e *Engine) cached(st *estimate, keys ...string) (FareQuote, bool) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		v, ok := e.cache.Get(key)
		if !ok {
			continue
		}
		q, ok := v.(FareQuote)
		if !ok || q.WeightKg != st.weight {
			continue
		}
		e.metrics.RecordCacheHit(st.service.ID)
		q = q.clone()
		q.IsLive = false
		q.Stage = StageCache
		return q, true
	}
	e.metrics.RecordCacheMiss(st.service.ID)
	return FareQuote{}, false
}

func (e *Engine) live(ctx context.Context, st *estimate, p Provider) (FareQuote, bool) {
	if p == nil || e.geocoder == nil {
		return FareQuote{}, false
	}
	if p.Open() {
		e.logger.Debug().Str("provider", p.Name()).Msg("Circuit open, skipping live quote")
		return FareQuote{}, false
	}

	ctx, span := e.tracer.Start(ctx, "estimator.live",
		trace.WithAttributes(attribute.String("fare.provider", p.Name())))
	defer span.End()

	coord, err := e.geocoder.Resolve(ctx, st.address)
	if err != nil {
		e.logger.Debug().Err(err).Str("address", st.address).Msg("Geocoding failed, using zone table")
		span.SetStatus(codes.Error, "geocode failed")
		return FareQuote{}, false
	}
	st.coord, st.geocoded = coord, true
	st.distanceKm, st.hasDistance = e.distanceKm(ctx, st.service, coord), true

	if st.distanceKm > st.service.MaxKm {
		e.logger.Debug().
			Float64("distance_km", st.distanceKm).
			Str("service", st.service.ID).
			Msg("Destination beyond service limit, skipping live quote")
		return FareQuote{}, false
	}

	quote, err := e.quoteWithRetry(ctx, p, providers.Request{
		Origin:      e.cfg.Origin,
		Destination: coord,
		Address:     st.address,
		Service:     st.service.ID,
		WeightKg:    st.weight,
	})
	if err != nil {
		e.logger.Warn().Err(err).Str("provider", p.Name()).Str("service", st.service.ID).Msg("Live quote failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "live quote failed")
		return FareQuote{}, false
	}

	match := e.resolver.Resolve(st.address)
	cost := int64(math.Round(quote.Price))
	window := quote.ETA
	if window == "" {
		window = st.service.Window
	}
	return FareQuote{
		Cost:            cost,
		FormattedCost:   fare.FormatCurrency(cost),
		Service:         st.service.ID,
		ZoneName:        match.Zone.Name,
		DistanceKm:      st.distanceKm,
		WeightKg:        st.weight,
		EstimatedWindow: window,
		IsLive:          true,
		Confidence:      liveConfidence(st.service, quote.Price, st.weight, zoneConfidence(match)),
		Breakdown:       fare.Breakdown{Base: cost},
		Stage:           StageLive,
		Available:       true,
	}, true
}

// quoteWithRetry makes up to 1+MaxRetries attempts, each under its own
// deadline. Final errors stop the loop early.
func (e *Engine) quoteWithRetry(ctx context.Context, p Provider, req providers.Request) (providers.Quote, error) {
	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= e.cfg.Retry.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := ratelimit.Sleep(ctx, ratelimit.CalculateBackoff(attempt-1, e.cfg.Retry)); err != nil {
				lastErr = err
				break
			}
		}

		attempts++
		attemptCtx, cancel := context.WithTimeout(ctx, e.cfg.AttemptTimeout)
		q, err := p.Quote(attemptCtx, req)
		cancel()
		if err == nil {
			e.metrics.RecordProviderAttempt(p.Name(), "success")
			return q, nil
		}

		lastErr = err
		if !providers.Retryable(err) {
			e.metrics.RecordProviderAttempt(p.Name(), "final")
			break
		}
		e.metrics.RecordProviderAttempt(p.Name(), "retryable")
		e.logger.Debug().Err(err).Int("attempt", attempt+1).Str("provider", p.Name()).Msg("Provider attempt failed")
	}
	return providers.Quote{}, &ratelimit.RetryError{Target: p.Name(), Attempts: attempts, LastError: lastErr}
}

// zone prices from the zone table. Panics are converted to errors so the
// caller can fall through to the emergency fare.
func (e *Engine) zone(ctx context.Context, st *estimate) (q FareQuote, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("zone fallback panicked: %v", r)
		}
	}()

	ctx, span := e.tracer.Start(ctx, "estimator.zone")
	defer span.End()

	match := e.resolver.Resolve(st.address)
	span.SetAttributes(
		attribute.String("fare.zone", match.Zone.Name),
		attribute.Int("fare.zone_score", match.Score),
	)

	dest := match.Zone.Centroid
	if st.geocoded {
		dest = st.coord
	}
	if !dest.Valid() || dest.IsZero() {
		return FareQuote{}, fmt.Errorf("zone %s: no usable destination coordinate", match.Zone.Name)
	}

	km := st.distanceKm
	if !st.geocoded || !st.hasDistance {
		km = e.distanceKm(ctx, st.service, dest)
	}

	q = FareQuote{
		Service:         st.service.ID,
		ZoneName:        match.Zone.Name,
		DistanceKm:      km,
		WeightKg:        st.weight,
		EstimatedWindow: st.service.Window,
		Confidence:      zoneConfidence(match),
		Stage:           StageZone,
		Available:       true,
	}

	res, err := e.calc.QuoteZone(st.service.ID, match.Zone, km, st.weight, st.now)
	var limitErr *fare.DistanceLimitError
	switch {
	case errors.As(err, &limitErr):
		e.metrics.RecordUnavailable(st.service.ID)
		q.Available = false
		q.Alternative = limitErr.Alternative
		q.FormattedCost = fare.FormatCurrency(0)
		q.setValidation(limitErr.Error())
		return q, nil
	case err != nil:
		return FareQuote{}, err
	}

	q.Cost = res.Cost
	q.FormattedCost = fare.FormatCurrency(res.Cost)
	q.Breakdown = res.Breakdown
	q.DistanceKm = res.DistanceKm
	if !match.Matched {
		q.setValidation(fmt.Sprintf("%v: priced with %s rates", ErrAddressUnresolvable, match.Zone.Name))
	}
	return q, nil
}

// emergencyQuote never fails: it prices the designated zone's minimal fare.
func (e *Engine) emergencyQuote(st *estimate, cause error) FareQuote {
	q := FareQuote{
		Service:         st.service.ID,
		ZoneName:        e.emergency.Name,
		WeightKg:        st.weight,
		EstimatedWindow: st.service.Window,
		Confidence:      EmergencyConfidence,
		Stage:           StageEmergency,
		Available:       true,
	}
	if res, err := e.calc.Minimum(st.service.ID, e.emergency, st.weight, st.now); err == nil {
		q.Cost = res.Cost
		q.Breakdown = res.Breakdown
	} else {
		q.Cost = int64(math.Round(st.service.MinFare))
		q.Breakdown = fare.Breakdown{Base: q.Cost}
	}
	q.FormattedCost = fare.FormatCurrency(q.Cost)
	q.setValidation(fmt.Sprintf("estimated with minimal %s rates: %v", e.emergency.Name, cause))
	return q
}

// distanceKm prefers the road distance and falls back to the adjusted
// straight-line distance.
func (e *Engine) distanceKm(ctx context.Context, svc fare.Service, dest geo.Coordinate) float64 {
	if e.cfg.RoutingEnabled && e.router != nil {
		km, err := e.router.RoadKm(ctx, e.cfg.Origin, dest)
		if err == nil {
			return km
		}
		e.logger.Debug().Err(err).Msg("Road distance unavailable, using straight-line estimate")
	}
	return geo.EstimatedRoadKm(svc.Profile, geo.StraightLineKm(e.cfg.Origin, dest))
}

// IsDeliverable reports whether address is long enough and falls inside a
// served zone. It never touches the network.
func (e *Engine) IsDeliverable(address string) bool {
	if addressTooShort(address) {
		return false
	}
	m := e.resolver.Resolve(normalizeAddress(address))
	return m.Matched && !e.resolver.IsRemote(m.Zone.Name)
}

// Resolve returns the zone match for address.
func (e *Engine) Resolve(address string) zones.Match {
	return e.resolver.Resolve(normalizeAddress(address))
}

// Zones returns the zone table in configuration order.
func (e *Engine) Zones() []zones.DeliveryZone {
	return e.resolver.Zones()
}

// Cache returns the quote cache
func (e *Engine) Cache() *cache.Cache {
	return e.cache
}

// Metrics returns the engine's metrics recorder
func (e *Engine) Metrics() *MetricsRecorder {
	return e.metrics
}

// Constants returns the fixed values the order form displays.
func (e *Engine) Constants() Constants {
	peak := e.calc.PeakWindow()
	tz := fare.Jakarta.String()
	if peak.Location != nil {
		tz = peak.Location.String()
	}

	services := e.calc.Catalog().Services()
	infos := make([]ServiceInfo, len(services))
	for i, s := range services {
		infos[i] = ServiceInfo{
			ID:           s.ID,
			Provider:     s.Provider,
			Family:       string(s.Family),
			MaxKm:        s.MaxKm,
			Window:       s.Window,
			FreeWeightKg: s.FreeWeightKg,
		}
	}

	return Constants{
		Origin:        e.cfg.Origin,
		Currency:      fare.CurrencyCode,
		Locale:        fare.Locale.String(),
		PeakWindow:    PeakInfo{StartHour: peak.StartHour, EndHour: peak.EndHour, TimeZone: tz},
		Services:      infos,
		EmergencyZone: e.emergency.Name,
	}
}
