package estimator

import (
	"context"
	"sync"
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

func TestEstimateBatch(t *testing.T) {
	e := newEngine(t)

	results, err := e.EstimateBatch(context.Background(), BatchRequest{Address: depokAddr, WeightKg: 1})
	require.NoError(t, err)
	require.Len(t, results, 5)

	for i, id := range e.calc.Catalog().IDs() {
		assert.Equal(t, id, results[i].Service)
		require.NotNil(t, results[i].Quote, id)
		assert.Empty(t, results[i].Error)
	}
	assert.Equal(t, int64(28000), results[0].Quote.Cost)
	assert.Equal(t, int64(27000), results[2].Quote.Cost)
}

func TestEstimateBatchKeepsFailuresLocal(t *testing.T) {
	e := newEngine(t)

	results, err := e.EstimateBatch(context.Background(), BatchRequest{
		Address:  depokAddr,
		Services: []string{fare.Paxel, "jne-reg", fare.GosendInstant},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.NotNil(t, results[0].Quote)
	assert.Nil(t, results[1].Quote)
	assert.Contains(t, results[1].Error, "service not supported")
	assert.NotNil(t, results[2].Quote)

	_, err = e.EstimateBatch(context.Background(), BatchRequest{Address: "x"})
	assert.ErrorIs(t, err, ErrAddressTooShort)
}

// concurrencyGeocoder records how many lookups overlap.
type concurrencyGeocoder struct {
	mu      sync.Mutex
	current int
	peak    int
}

func (g *concurrencyGeocoder) Resolve(ctx context.Context, address string) (geo.Coordinate, error) {
	g.mu.Lock()
	g.current++
	if g.current > g.peak {
		g.peak = g.current
	}
	g.mu.Unlock()

	time.Sleep(20 * time.Millisecond)

	g.mu.Lock()
	g.current--
	g.mu.Unlock()
	return geo.Coordinate{}, geocoder.ErrNotFound
}

func TestEstimateBatchConcurrencyIsBounded(t *testing.T) {
	var cfgs []providers.Config
	for _, id := range fare.MustDefaultCatalog().IDs() {
		cfgs = append(cfgs, providers.Config{Name: id, BaseURL: "http://127.0.0.1:1", SchemaVersion: "generic/v1", Services: []string{id}})
	}
	reg, err := providers.NewRegistry(cfgs)
	require.NoError(t, err)

	g := &concurrencyGeocoder{}
	e := newEngine(t, WithProviders(reg), WithGeocoder(g))

	results, err := e.EstimateBatch(context.Background(), BatchRequest{Address: depokAddr})
	require.NoError(t, err)
	require.Len(t, results, 5)
	assert.LessOrEqual(t, g.peak, 2)
	assert.Positive(t, g.peak)
}

// blockingGeocoder holds the first lookup until its context ends.
type blockingGeocoder struct {
	calls   atomic.Int32
	entered chan struct{}
}

func (g *blockingGeocoder) Resolve(ctx context.Context, address string) (geo.Coordinate, error) {
	if g.calls.Add(1) == 1 {
		close(g.entered)
		<-ctx.Done()
		return geo.Coordinate{}, ctx.Err()
	}
	return geo.Coordinate{}, geocoder.ErrNotFound
}

func TestSessionSupersedesInFlightEstimate(t *testing.T) {
	reg, err := providers.NewRegistry([]providers.Config{{
		Name: "gosend", BaseURL: "http://127.0.0.1:1", SchemaVersion: "gosend/v1", Services: []string{fare.GosendInstant},
	}})
	require.NoError(t, err)

	g := &blockingGeocoder{entered: make(chan struct{})}
	e := newEngine(t, WithProviders(reg), WithGeocoder(g))
	s := e.NewSession()

	firstErr := make(chan error, 1)
	go func() {
		_, err := s.Estimate(context.Background(), Request{Address: "Jl. Margonda", Service: fare.GosendInstant})
		firstErr <- err
	}()

	select {
	case <-g.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first estimate never reached the geocoder")
	}

	q, err := s.Estimate(context.Background(), Request{Address: depokAddr, Service: fare.GosendInstant, WeightKg: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(28000), q.Cost)

	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("superseded estimate did not return")
	}
}

func TestSessionCancel(t *testing.T) {
	e := newEngine(t)
	s := e.NewSession()

	q, err := s.Estimate(context.Background(), Request{Address: depokAddr, Service: fare.Paxel})
	require.NoError(t, err)
	assert.Positive(t, q.Cost)

	s.Cancel()
	_, err = s.Estimate(context.Background(), Request{Address: depokAddr, Service: fare.Paxel})
	assert.NoError(t, err, "a new estimate after Cancel is not superseded")
}
