package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests move time without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache(ttl time.Duration) (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	c := New(ttl)
	c.now = clock.Now
	return c, clock
}

func TestSetThenGet(t *testing.T) {
	c, _ := newTestCache(time.Hour)

	c.Set("gosend:jl. margonda raya:gosend-instant", 15000, time.Minute)

	v, ok := c.Get("gosend:jl. margonda raya:gosend-instant")
	require.True(t, ok)
	assert.Equal(t, 15000, v)
}

func TestGetAfterTTLIsMissAndRemoved(t *testing.T) {
	c, clock := newTestCache(time.Hour)

	c.Set("k", "v", 10*time.Minute)
	clock.Advance(10 * time.Minute)

	_, ok := c.Get("k")
	assert.True(t, ok, "entry exactly at its TTL is still valid")

	clock.Advance(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entry must be deleted by the read")
}

func TestStaleUnreadEntryRemainsUntilSweep(t *testing.T) {
	c, clock := newTestCache(time.Hour)

	c.Set("stale", 1, time.Minute)
	c.Set("fresh", 2, time.Hour)
	clock.Advance(2 * time.Minute)

	assert.Equal(t, 2, c.Len(), "nothing removed before a read or sweep")

	removed := c.Sweep()
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, c.Len())

	_, ok := c.Get("fresh")
	assert.True(t, ok)
}

func TestDefaultTTL(t *testing.T) {
	c, clock := newTestCache(0)

	c.Set("k", "v", 0)
	clock.Advance(DefaultTTL)
	_, ok := c.Get("k")
	assert.True(t, ok)

	clock.Advance(time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestLookupReturnsEntryMetadata(t *testing.T) {
	c, clock := newTestCache(time.Hour)
	c.Set("k", "v", time.Minute)

	entry, ok := c.Lookup("k")
	require.True(t, ok)
	assert.Equal(t, "k", entry.Key)
	assert.Equal(t, clock.Now(), entry.StoredAt)
	assert.Equal(t, time.Minute, entry.TTL)
}

func TestFlush(t *testing.T) {
	c, _ := newTestCache(time.Hour)
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Flush()
	assert.Equal(t, 0, c.Len())
}

func TestKey(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		address  string
		service  []string
		want     string
	}{
		{"with service", "gosend", "Jl. Margonda Raya 100, Depok", []string{"gosend-instant"}, "gosend:jl. margonda raya 100, depok:gosend-instant"},
		{"no service", "nominatim", "  Jl.  Margonda   Raya ", nil, "nominatim:jl. margonda raya"},
		{"empty service ignored", "zone", "Depok", []string{""}, "zone:depok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.provider, tt.address, tt.service...))
		})
	}
}

func TestKeyCosmeticVariantsShareSlot(t *testing.T) {
	a := Key("zone", "Jl. Margonda Raya, DEPOK", "paxel")
	b := Key("zone", "  jl. margonda   raya, depok  ", "paxel")
	assert.Equal(t, a, b)
}

func TestSweeperRunOnce(t *testing.T) {
	c, clock := newTestCache(time.Hour)
	c.Set("a", 1, time.Second)
	clock.Advance(time.Minute)

	var reported int
	s := NewSweeper(c, nil, time.Hour)
	s.OnSweep(func(removed int) { reported = removed })

	assert.Equal(t, 1, s.RunOnce())
	assert.Equal(t, 1, reported)
}

func TestSweeperStops(t *testing.T) {
	c, _ := newTestCache(time.Hour)
	s := NewSweeper(c, nil, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	s.Stop()
	s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
