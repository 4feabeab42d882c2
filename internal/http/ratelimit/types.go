package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Config holds retry configuration for outbound provider calls
type Config struct {
	MaxRetries     int           `mapstructure:"max_retries" json:"maxRetries"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff" json:"initialBackoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff" json:"maxBackoff"`
}

// DefaultConfig returns the default retry configuration
func DefaultConfig() Config {
	return Config{
		MaxRetries:     2,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     4 * time.Second,
	}
}

// Spacer enforces a minimum spacing between consecutive requests.
// Callers are served one at a time; the spacing is measured from the moment
// the previous holder released, so two requests never overlap and never
// start closer than the configured interval.
type Spacer struct {
	interval time.Duration
	sem      *semaphore.Weighted

	mu      sync.Mutex
	lastEnd time.Time
	now     func() time.Time
}

// NewSpacer creates a spacer with the given minimum interval
func NewSpacer(interval time.Duration) *Spacer {
	return &Spacer{
		interval: interval,
		sem:      semaphore.NewWeighted(1),
		now:      time.Now,
	}
}

// Interval returns the configured minimum spacing
func (s *Spacer) Interval() time.Duration {
	return s.interval
}

// Acquire blocks until the caller may issue its request. The returned
// release function must be called once the request has completed.
func (s *Spacer) Acquire(ctx context.Context) (func(), error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	s.mu.Lock()
	wait := s.lastEnd.Add(s.interval).Sub(s.now())
	s.mu.Unlock()

	if wait > 0 {
		if err := Sleep(ctx, wait); err != nil {
			s.sem.Release(1)
			return nil, err
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.lastEnd = s.now()
			s.mu.Unlock()
			s.sem.Release(1)
		})
	}, nil
}

// Reset forgets the last request time.
// Useful for testing or after long pauses
func (s *Spacer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastEnd = time.Time{}
}
