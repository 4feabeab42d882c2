package estimator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ongkir/fare-service/internal/fare"
	"github.com/ongkir/fare-service/internal/geo"
	"github.com/ongkir/fare-service/internal/geocoder"
	"github.com/ongkir/fare-service/internal/providers"
)

var (
	offPeak   = time.Date(2026, 3, 2, 10, 0, 0, 0, fare.Jakarta)
	depokAddr = "Jl. Margonda Raya No. 100, Depok"
	depokHome = geo.Coordinate{Lat: -6.3701, Lng: 106.8321}
)

func testConfig() Config {
	cfg := Defaults()
	cfg.Retry.InitialBackoff = 5 * time.Millisecond
	cfg.Retry.MaxBackoff = 20 * time.Millisecond
	return cfg
}

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return offPeak })}, opts...)
	e, err := New(testConfig(), opts...)
	require.NoError(t, err)
	return e
}

type fakeGeocoder struct {
	coord geo.Coordinate
	err   error
	calls atomic.Int32
}

func (f *fakeGeocoder) Resolve(ctx context.Context, address string) (geo.Coordinate, error) {
	f.calls.Add(1)
	return f.coord, f.err
}

type fakeRouter struct {
	km  float64
	err error
}

func (f fakeRouter) RoadKm(ctx context.Context, from, to geo.Coordinate) (float64, error) {
	return f.km, f.err
}

type panicRouter struct{}

func (panicRouter) RoadKm(ctx context.Context, from, to geo.Coordinate) (float64, error) {
	panic("routing table corrupted")
}

// providerServer serves gosend/v1 quotes; respond receives the 1-based call number.
func providerServer(t *testing.T, breaker providers.BreakerConfig, respond func(n int32, w http.ResponseWriter)) (*providers.Registry, *atomic.Int32) {
	t.Helper()
	calls := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(calls.Add(1), w)
	}))
	t.Cleanup(server.Close)

	reg, err := providers.NewRegistry([]providers.Config{{
		Name:          "gosend",
		BaseURL:       server.URL,
		SchemaVersion: "gosend/v1",
		Services:      []string{fare.GosendInstant},
		Breaker:       breaker,
	}})
	require.NoError(t, err)
	return reg, calls
}

func okQuote(n int32, w http.ResponseWriter) {
	_, _ = w.Write([]byte(`{"data":{"total_price":27500,"eta":"45-90 min"}}`))
}

func failing(status int) func(int32, http.ResponseWriter) {
	return func(n int32, w http.ResponseWriter) { w.WriteHeader(status) }
}

func TestScenarioAZoneFallbackWithoutNetwork(t *testing.T) {
	e := newEngine(t)

	q, err := e.Estimate(context.Background(), Request{Address: depokAddr, Service: fare.GosendInstant, WeightKg: 1})
	require.NoError(t, err)

	assert.Equal(t, int64(28000), q.Cost)
	assert.Equal(t, "Rp 28.000", q.FormattedCost)
	assert.Equal(t, "Depok", q.ZoneName)
	assert.False(t, q.IsLive)
	assert.Equal(t, StageZone, q.Stage)
	assert.True(t, q.Available)
	assert.Nil(t, q.ValidationError)
	assert.GreaterOrEqual(t, q.Confidence, 0.5)
	assert.LessOrEqual(t, q.Confidence, 0.9)
	assert.Equal(t, "1-3 hours", q.EstimatedWindow)
}

func TestScenarioCUnresolvableAddress(t *testing.T) {
	e := newEngine(t)

	q, err := e.Estimate(context.Background(), Request{Address: "zzz-unknown-9999", Service: fare.GosendInstant})
	require.NoError(t, err)
	assert.LessOrEqual(t, q.Confidence, 0.4)
	require.NotNil(t, q.ValidationError)
	assert.Contains(t, *q.ValidationError, ErrAddressUnresolvable.Error())
	assert.Positive(t, q.Cost)
}

func TestCallerVisibleErrors(t *testing.T) {
	e := newEngine(t)

	_, err := e.Estimate(context.Background(), Request{Address: "  a ", Service: fare.GosendInstant})
	assert.ErrorIs(t, err, ErrAddressTooShort)

	_, err = e.Estimate(context.Background(), Request{Address: depokAddr, Service: "jne-reg"})
	assert.ErrorIs(t, err, fare.ErrServiceUnsupported)
}

func TestIdempotentWithinTTL(t *testing.T) {
	e := newEngine(t)
	req := Request{Address: depokAddr, Service: fare.GosendSameday, Items: []fare.CartItem{{SizeClass: "l", Quantity: 2}}}

	first, err := e.Estimate(context.Background(), req)
	require.NoError(t, err)
	second, err := e.Estimate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Cost, second.Cost)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, StageZone, first.Stage)
	assert.Equal(t, StageCache, second.Stage)
	assert.False(t, second.IsLive)

	// cosmetic address variants share the slot
	third, err := e.Estimate(context.Background(), Request{Address: "  jl. margonda raya no. 100,   DEPOK ", Service: req.Service, Items: req.Items})
	require.NoError(t, err)
	assert.Equal(t, StageCache, third.Stage)
}

func TestCacheEntryForDifferentWeightIsMiss(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	q, err := e.Estimate(ctx, Request{Address: depokAddr, Service: fare.GosendInstant, WeightKg: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(28000), q.Cost)

	q, err = e.Estimate(ctx, Request{Address: depokAddr, Service: fare.GosendInstant, WeightKg: 5})
	require.NoError(t, err)
	assert.Equal(t, StageZone, q.Stage)
	assert.Equal(t, int64(28000+3*10000), q.Cost)
	assert.Equal(t, int64(30000), q.Breakdown.WeightSurcharge)

	q, err = e.Estimate(ctx, Request{Address: depokAddr, Service: fare.GosendInstant, WeightKg: 5})
	require.NoError(t, err)
	assert.Equal(t, StageCache, q.Stage)
}

func TestReturnedQuotesAreCopies(t *testing.T) {
	e := newEngine(t)
	req := Request{Address: "zzz-unknown-9999", Service: fare.Paxel}

	q, err := e.Estimate(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, q.ValidationError)
	*q.ValidationError = "mutated"

	again, err := e.Estimate(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", *again.ValidationError)
}

func TestLiveQuote(t *testing.T) {
	reg, calls := providerServer(t, providers.DefaultBreakerConfig(), okQuote)
	gc := &fakeGeocoder{coord: depokHome}
	e := newEngine(t, WithProviders(reg), WithGeocoder(gc))

	q, err := e.Estimate(context.Background(), Request{Address: depokAddr, Service: fare.GosendInstant, WeightKg: 1})
	require.NoError(t, err)
	assert.True(t, q.IsLive)
	assert.Equal(t, StageLive, q.Stage)
	assert.Equal(t, int64(27500), q.Cost)
	assert.Equal(t, "45-90 min", q.EstimatedWindow)
	assert.Equal(t, "Depok", q.ZoneName)
	assert.InDelta(t, 0.95, q.Confidence, 1e-9)
	assert.Equal(t, int32(1), calls.Load())

	// the cached copy is authoritative, but no longer live
	cached, err := e.Estimate(context.Background(), Request{Address: depokAddr, Service: fare.GosendInstant, WeightKg: 1})
	require.NoError(t, err)
	assert.False(t, cached.IsLive)
	assert.Equal(t, StageCache, cached.Stage)
	assert.Equal(t, q.Cost, cached.Cost)
	assert.Equal(t, q.Confidence, cached.Confidence)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(1), gc.calls.Load())
}

func TestLiveRetriesTransientFailures(t *testing.T) {
	reg, calls := providerServer(t, providers.DefaultBreakerConfig(), func(n int32, w http.ResponseWriter) {
		if n < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		okQuote(n, w)
	})
	e := newEngine(t, WithProviders(reg), WithGeocoder(&fakeGeocoder{coord: depokHome}))

	q, err := e.Estimate(context.Background(), Request{Address: depokAddr, Service: fare.GosendInstant, WeightKg: 1})
	require.NoError(t, err)
	assert.True(t, q.IsLive)
	assert.Equal(t, int32(3), calls.Load())
}

func TestLiveExhaustedFallsBackToZone(t *testing.T) {
	reg, calls := providerServer(t, providers.DefaultBreakerConfig(), failing(http.StatusServiceUnavailable))
	e := newEngine(t, WithProviders(reg), WithGeocoder(&fakeGeocoder{coord: depokHome}))

	q, err := e.Estimate(context.Background(), Request{Address: depokAddr, Service: fare.GosendInstant, WeightKg: 1})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load(), "one attempt plus two retries")
	assert.False(t, q.IsLive)
	assert.Equal(t, StageZone, q.Stage)
	assert.Equal(t, int64(28000), q.Cost)
	// geocoded coordinate, not the zone centroid
	assert.Equal(t, geo.EstimatedRoadKm(geo.ProfileMotorcycle, geo.StraightLineKm(testConfig().Origin, depokHome)), q.DistanceKm)
}

func TestFinalProviderErrorsAreNotRetried(t *testing.T) {
	tests := []struct {
		name    string
		respond func(int32, http.ResponseWriter)
	}{
		{"malformed", func(n int32, w http.ResponseWriter) { _, _ = w.Write([]byte(`{"data":{}}`)) }},
		{"sub-rupiah price", func(n int32, w http.ResponseWriter) { _, _ = w.Write([]byte(`{"data":{"total_price":0.4}}`)) }},
		{"bad request", failing(http.StatusBadRequest)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, calls := providerServer(t, providers.DefaultBreakerConfig(), tt.respond)
			e := newEngine(t, WithProviders(reg), WithGeocoder(&fakeGeocoder{coord: depokHome}))

			q, err := e.Estimate(context.Background(), Request{Address: depokAddr, Service: fare.GosendInstant, WeightKg: 1})
			require.NoError(t, err)
			assert.Equal(t, int32(1), calls.Load())
			assert.Equal(t, StageZone, q.Stage)
			assert.Equal(t, int64(28000), q.Cost)
			assert.Nil(t, q.ValidationError)
		})
	}
}

func TestOpenBreakerSkipsLiveStage(t *testing.T) {
	breaker := providers.BreakerConfig{MaxRequests: 1, Timeout: time.Minute, FailureThreshold: 1}
	reg, calls := providerServer(t, breaker, failing(http.StatusInternalServerError))
	gc := &fakeGeocoder{coord: depokHome}
	e := newEngine(t, WithProviders(reg), WithGeocoder(gc))
	req := Request{Address: depokAddr, Service: fare.GosendInstant, WeightKg: 1}

	_, err := e.Estimate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "the retry hits the open breaker")

	e.Cache().Flush()
	q, err := e.Estimate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, StageZone, q.Stage)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(1), gc.calls.Load(), "no geocoding while the breaker is open")
}

func TestGeocodeNotFoundUsesZoneCentroid(t *testing.T) {
	reg, calls := providerServer(t, providers.DefaultBreakerConfig(), okQuote)
	e := newEngine(t, WithProviders(reg), WithGeocoder(&fakeGeocoder{err: geocoder.ErrNotFound}))

	q, err := e.Estimate(context.Background(), Request{Address: depokAddr, Service: fare.GosendInstant, WeightKg: 1})
	require.NoError(t, err)
	assert.Zero(t, calls.Load())
	assert.Equal(t, StageZone, q.Stage)
	depok, ok := e.resolver.Lookup("Depok")
	require.True(t, ok)
	assert.Equal(t, geo.EstimatedRoadKm(geo.ProfileMotorcycle, geo.StraightLineKm(testConfig().Origin, depok.Centroid)), q.DistanceKm)
}

func TestDistanceBeyondLimitIsUnavailable(t *testing.T) {
	e := newEngine(t)

	q, err := e.Estimate(context.Background(), Request{Address: "Sentul City, Kabupaten Bogor", Service: fare.GrabInstant})
	require.NoError(t, err)
	assert.False(t, q.Available)
	assert.Zero(t, q.Cost)
	assert.Equal(t, "Bogor", q.ZoneName)
	require.NotNil(t, q.ValidationError)
	assert.Contains(t, *q.ValidationError, "grab-instant is unavailable")
	assert.Positive(t, q.Confidence)
}

func TestRoadDistanceWhenRoutingEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.RoutingEnabled = true
	e, err := New(cfg, WithClock(func() time.Time { return offPeak }), WithRouter(fakeRouter{km: 12.5}))
	require.NoError(t, err)

	q, err := e.Estimate(context.Background(), Request{Address: "Jl. Kemang Raya 12, Jakarta Selatan", Service: fare.GosendInstant, WeightKg: 1})
	require.NoError(t, err)
	assert.Equal(t, 12.5, q.DistanceKm)
	assert.Equal(t, int64(5*2500+7.5*2000), q.Cost)

	// a failing router degrades to the straight-line estimate
	e, err = New(cfg, WithClock(func() time.Time { return offPeak }), WithRouter(fakeRouter{err: errors.New("down")}))
	require.NoError(t, err)
	q, err = e.Estimate(context.Background(), Request{Address: depokAddr, Service: fare.GosendInstant, WeightKg: 1})
	require.NoError(t, err)
	assert.Equal(t, StageZone, q.Stage)
	assert.Equal(t, int64(28000), q.Cost)
}

func TestPanicInZoneStageUsesEmergencyFare(t *testing.T) {
	cfg := testConfig()
	cfg.RoutingEnabled = true
	e, err := New(cfg, WithClock(func() time.Time { return offPeak }), WithRouter(panicRouter{}))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		q, err := e.Estimate(context.Background(), Request{Address: depokAddr, Service: fare.GosendInstant, WeightKg: 1})
		require.NoError(t, err)
		assert.Equal(t, StageEmergency, q.Stage, "emergency quotes are not cached")
		assert.Equal(t, EmergencyConfidence, q.Confidence)
		assert.Equal(t, "Jakarta Selatan", q.ZoneName)
		assert.Equal(t, int64(12000), q.Cost)
		require.NotNil(t, q.ValidationError)
		assert.Contains(t, *q.ValidationError, "routing table corrupted")
	}
}

func TestEmergencyZoneFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.EmergencyZone = "depok"
	e, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, "Depok", e.Constants().EmergencyZone)

	cfg.EmergencyZone = "Atlantis"
	_, err = New(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfidenceIsMonotonic(t *testing.T) {
	e := newEngine(t)
	svc, _ := e.calc.Catalog().Get(fare.GosendInstant)

	addresses := []string{
		depokAddr, "Menteng, Jakarta Pusat", "Sentul City, Kabupaten Bogor",
		"Ruko 12 blok C, 16424", "zzz-unknown-9999", "Kelapa Gading, Jakut", "Jakarta",
	}
	for _, addr := range addresses {
		zone := zoneConfidence(e.Resolve(addr))
		assert.GreaterOrEqual(t, zone, ZoneMinConfidence, addr)
		assert.LessOrEqual(t, zone, ZoneMaxConfidence, addr)
		assert.Greater(t, zone, EmergencyConfidence, addr)

		for _, price := range []float64{1, 27500, 1e9} {
			for _, weight := range []float64{0, 1} {
				live := liveConfidence(svc, price, weight, zone)
				assert.GreaterOrEqual(t, live, zone, addr)
				assert.LessOrEqual(t, live, 1.0)
			}
		}
	}
}

func TestIsDeliverable(t *testing.T) {
	e := newEngine(t)
	assert.True(t, e.IsDeliverable(depokAddr))
	assert.True(t, e.IsDeliverable("Menteng, Jakarta Pusat"))
	assert.False(t, e.IsDeliverable("zzz-unknown-9999"))
	assert.False(t, e.IsDeliverable("Kota Surabaya"))
	assert.False(t, e.IsDeliverable(" ab "))
}

func TestConstants(t *testing.T) {
	c := newEngine(t).Constants()
	assert.Equal(t, testConfig().Origin, c.Origin)
	assert.Equal(t, "IDR", c.Currency)
	assert.Equal(t, "id", c.Locale)
	assert.Equal(t, 16, c.PeakWindow.StartHour)
	assert.Equal(t, 19, c.PeakWindow.EndHour)
	assert.Equal(t, "Jakarta Selatan", c.EmergencyZone)
	require.Len(t, c.Services, 5)
	assert.Equal(t, fare.GosendInstant, c.Services[0].ID)
	assert.Equal(t, 40.0, c.Services[0].MaxKm)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"timeout below range", func(c *Config) { c.AttemptTimeout = 9 * time.Second }},
		{"timeout above range", func(c *Config) { c.AttemptTimeout = 16 * time.Second }},
		{"negative retries", func(c *Config) { c.Retry.MaxRetries = -1 }},
		{"no backoff", func(c *Config) { c.Retry.InitialBackoff = 0 }},
		{"no ttl", func(c *Config) { c.QuoteTTL = 0 }},
		{"no batch workers", func(c *Config) { c.BatchConcurrency = 0 }},
		{"bad origin", func(c *Config) { c.Origin = geo.Coordinate{Lat: 120} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	assert.NoError(t, Defaults().Validate())
	cfg := Defaults()
	cfg.AttemptTimeout = 15 * time.Second
	assert.NoError(t, cfg.Validate())
}
