// Package database owns the process-wide pgx pool used by the Postgres zone
// source and reported by the health endpoint.
package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotConnected is returned when the pool has not been opened.
var ErrNotConnected = errors.New("database not connected")

// Config holds the pool settings. The database is only needed by the postgres
// zone source.
type Config struct {
	URL               string        `mapstructure:"url"`
	MaxConnections    int           `mapstructure:"max_connections"`
	MinConnections    int           `mapstructure:"min_connections"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// PoolStats is the part of pgxpool.Stat the health endpoint reports.
type PoolStats struct {
	TotalConns    int32 `json:"totalConns"`
	IdleConns     int32 `json:"idleConns"`
	AcquiredConns int32 `json:"acquiredConns"`
	MaxConns      int32 `json:"maxConns"`
}

// pool is guarded by mu for its whole lifecycle, including the dial in
// Connect, so Connect and Close never interleave.
var (
	mu   sync.RWMutex
	pool *pgxpool.Pool
)

func (c Config) poolConfig() (*pgxpool.Config, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("database url not set")
	}
	pc, err := pgxpool.ParseConfig(c.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if c.MaxConnections > 0 {
		pc.MaxConns = int32(c.MaxConnections)
	}
	if c.MinConnections > 0 {
		pc.MinConns = int32(c.MinConnections)
	}
	if pc.MinConns > pc.MaxConns {
		return nil, fmt.Errorf("min_connections %d exceeds max_connections %d", pc.MinConns, pc.MaxConns)
	}
	if c.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = c.MaxConnLifetime
	}
	if c.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = c.MaxConnIdleTime
	}
	pc.HealthCheckPeriod = time.Minute
	if c.HealthCheckPeriod > 0 {
		pc.HealthCheckPeriod = c.HealthCheckPeriod
	}
	return pc, nil
}

// Connect opens the pool and pings it. A second call while connected is a
// no-op; after a failure or Close it dials again.
func Connect(ctx context.Context, cfg Config) error {
	pc, err := cfg.poolConfig()
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	if pool != nil {
		return nil
	}

	p, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return fmt.Errorf("create connection pool: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return fmt.Errorf("connect to database: %w", err)
	}
	pool = p
	return nil
}

// Close closes the pool. It is safe to call when not connected.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if pool != nil {
		pool.Close()
		pool = nil
	}
}

// Pool returns the shared pool, or nil before Connect.
func Pool() *pgxpool.Pool {
	mu.RLock()
	defer mu.RUnlock()
	return pool
}

// Status pings the pool.
func Status(ctx context.Context) error {
	p := Pool()
	if p == nil {
		return ErrNotConnected
	}
	return p.Ping(ctx)
}

// Stats reports pool usage; ok is false when not connected.
func Stats() (PoolStats, bool) {
	p := Pool()
	if p == nil {
		return PoolStats{}, false
	}
	s := p.Stat()
	return PoolStats{
		TotalConns:    s.TotalConns(),
		IdleConns:     s.IdleConns(),
		AcquiredConns: s.AcquiredConns(),
		MaxConns:      s.MaxConns(),
	}, true
}
