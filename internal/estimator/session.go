package estimator

import (
	"context"
	"sync"
)

// Session serialises estimates for one order form. Starting an estimate
// cancels the one in flight, and a superseded estimate returns ErrSuperseded
// instead of its quote.
type Session struct {
	engine *Engine

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// NewSession creates a session bound to the engine.
func (e *Engine) NewSession() *Session {
	return &Session{engine: e}
}

// Estimate runs req, superseding any earlier call still in flight.
func (s *Session) Estimate(ctx context.Context, req Request) (FareQuote, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	s.seq++
	seq := s.seq
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()

	q, err := s.engine.Estimate(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return FareQuote{}, ErrSuperseded
	}
	s.cancel = nil
	return q, err
}

// Cancel abandons the estimate in flight, if any.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
