package ratelimit

import (
	"context"
	"math"
	"strconv"
	"time"
)

// RetryError represents an error when all retry attempts are exhausted
type RetryError struct {
	Target    string
	Attempts  int
	LastError error
}

func (e *RetryError) Error() string {
	msg := "request to " + e.Target + " failed after " + strconv.Itoa(e.Attempts) + " attempts"
	if e.LastError != nil {
		msg += ": " + e.LastError.Error()
	}
	return msg
}

func (e *RetryError) Unwrap() error {
	return e.LastError
}

// IsRetryableStatus checks if an HTTP status code is retryable
// Retryable: 408, 429, 5xx
func IsRetryableStatus(status int) bool {
	return status == 408 || status == 429 || (status >= 500 && status < 600)
}

// CalculateBackoff returns initialBackoff * 2^attempt, capped at MaxBackoff.
func CalculateBackoff(attempt int, config Config) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := float64(config.InitialBackoff) * math.Pow(2.0, float64(attempt))
	if config.MaxBackoff > 0 {
		delay = math.Min(delay, float64(config.MaxBackoff))
	}
	return time.Duration(delay)
}

// Sleep blocks for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
