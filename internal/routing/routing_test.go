package routing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"

	"github.com/ongkir/fare-service/internal/geo"
)

var (
	kemang  = geo.Coordinate{Lat: -6.2615, Lng: 106.8106}
	margond = geo.Coordinate{Lat: -6.3701, Lng: 106.8321}
)

type stubSource struct {
	name  string
	km    float64
	err   error
	calls atomic.Int32
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) RoadKm(ctx context.Context, from, to geo.Coordinate) (float64, error) {
	s.calls.Add(1)
	return s.km, s.err
}

func TestOSRMRoadKm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/route/v1/driving/106.810600,-6.261500;106.832100,-6.370100", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("overview"))
		_, _ = io.WriteString(w, `{"code":"Ok","routes":[{"distance":15234.7,"duration":1800}]}`)
	}))
	defer srv.Close()

	km, err := NewOSRM(srv.URL, "driving", time.Second).RoadKm(context.Background(), kemang, margond)
	require.NoError(t, err)
	assert.InDelta(t, 15.2347, km, 1e-9)
}

func TestOSRMNoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"code":"NoRoute","message":"Impossible route","routes":[]}`)
	}))
	defer srv.Close()

	_, err := NewOSRM(srv.URL, "", time.Second).RoadKm(context.Background(), kemang, margond)
	require.Error(t, err)
}

func TestGoogleRoadKm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":"OK","routes":[{"legs":[
			{"distance":{"value":16400,"text":"16,4 km"},"duration":{"value":2100,"text":"35 mnt"}}
		]}]}`)
	}))
	defer srv.Close()

	g, err := NewGoogle("test-key", maps.WithBaseURL(srv.URL))
	require.NoError(t, err)

	km, err := g.RoadKm(context.Background(), kemang, margond)
	require.NoError(t, err)
	assert.InDelta(t, 16.4, km, 1e-9)
}

func TestRouterUsesFirstSuccessfulSource(t *testing.T) {
	primary := &stubSource{name: "osrm", km: 12.345}
	alternate := &stubSource{name: "google", km: 99}

	km, err := NewRouter(time.Second, primary, alternate).RoadKm(context.Background(), kemang, margond)
	require.NoError(t, err)
	assert.Equal(t, 12.35, km)
	assert.Equal(t, int32(0), alternate.calls.Load())
}

func TestRouterFallsBackOnceToAlternate(t *testing.T) {
	primary := &stubSource{name: "osrm", err: errors.New("connection refused")}
	alternate := &stubSource{name: "google", km: 16.4}

	km, err := NewRouter(time.Second, primary, alternate).RoadKm(context.Background(), kemang, margond)
	require.NoError(t, err)
	assert.Equal(t, 16.4, km)
	assert.Equal(t, int32(1), primary.calls.Load())
	assert.Equal(t, int32(1), alternate.calls.Load())
}

func TestRouterUnavailable(t *testing.T) {
	primary := &stubSource{name: "osrm", err: errors.New("boom")}
	alternate := &stubSource{name: "google", km: 0}

	_, err := NewRouter(time.Second, primary, alternate).RoadKm(context.Background(), kemang, margond)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(1), primary.calls.Load())
	assert.Equal(t, int32(1), alternate.calls.Load())
}

func TestRouterWithoutSources(t *testing.T) {
	_, err := NewRouter(0).RoadKm(context.Background(), kemang, margond)
	assert.ErrorIs(t, err, ErrUnavailable)

	var nilRouter *Router
	_, err = nilRouter.RoadKm(context.Background(), kemang, margond)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRouterTimeoutIsBounded(t *testing.T) {
	assert.Equal(t, 10*time.Second, NewRouter(time.Minute).timeout)
	assert.Equal(t, 5*time.Second, NewRouter(5*time.Second).timeout)
}

func TestFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	r, err := FromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"osrm"}, r.Sources())

	cfg.GoogleAPIKey = "AIza-test"
	r, err = FromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"osrm", "google"}, r.Sources())
}
