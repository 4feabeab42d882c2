package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper periodically removes expired cache entries
type Sweeper struct {
	cache    *Cache
	logger   *zerolog.Logger
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
	onSweep  func(removed int)
}

// NewSweeper creates a new sweeper for the cache
func NewSweeper(c *Cache, logger *zerolog.Logger, interval time.Duration) *Sweeper {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Sweeper{
		cache:    c,
		logger:   logger,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// OnSweep registers a callback invoked after each sweep (used for metrics).
func (s *Sweeper) OnSweep(fn func(removed int)) {
	s.onSweep = fn
}

// Start begins the periodic sweep and blocks until stopped
func (s *Sweeper) Start(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.interval).
		Msg("Starting cache sweeper")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Cache sweeper stopping (context cancelled)")
			return
		case <-s.stopChan:
			s.logger.Info().Msg("Cache sweeper stopping (stop signal)")
			return
		case <-ticker.C:
			s.RunOnce()
		}
	}
}

// RunOnce performs a single sweep
func (s *Sweeper) RunOnce() int {
	removed := s.cache.Sweep()
	if removed > 0 {
		s.logger.Debug().
			Int("removed", removed).
			Int("remaining", s.cache.Len()).
			Msg("Swept expired cache entries")
	}
	if s.onSweep != nil {
		s.onSweep(removed)
	}
	return removed
}

// Stop signals the sweeper to stop
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}
