// Package app assembles the fare engine from configuration for the server and
// the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/ongkir/fare-service/config"
	"github.com/ongkir/fare-service/internal/cache"
	"github.com/ongkir/fare-service/internal/database"
	"github.com/ongkir/fare-service/internal/estimator"
	"github.com/ongkir/fare-service/internal/geocoder"
	"github.com/ongkir/fare-service/internal/providers"
	"github.com/ongkir/fare-service/internal/routing"
	"github.com/ongkir/fare-service/internal/zones"
)

// Components are the pieces the binaries wire into handlers and commands.
type Components struct {
	Engine   *estimator.Engine
	Registry *providers.Registry
	Cache    *cache.Cache
	Metrics  *estimator.MetricsRecorder
}

// ConnectDatabase opens the shared pool when the config names a database.
func ConnectDatabase(ctx context.Context, cfg *config.Config) error {
	dbCfg := cfg.Database
	if dbCfg.URL == "" {
		dbCfg.URL = config.GetDatabaseURL()
	}
	return database.Connect(ctx, dbCfg)
}

// LoadZones returns the zone table from the configured source. The postgres
// source is seeded with the built-in table the first time it is empty and
// expects ConnectDatabase to have succeeded.
func LoadZones(ctx context.Context, cfg *config.Config) ([]zones.DeliveryZone, error) {
	switch cfg.Zones.Source {
	case config.ZoneSourceFile:
		table, err := zones.LoadFile(cfg.Zones.Path)
		if err != nil {
			return nil, fmt.Errorf("load zone file: %w", err)
		}
		return table, nil

	case config.ZoneSourcePostgres:
		pool := database.Pool()
		if pool == nil {
			return nil, fmt.Errorf("postgres zone source: database not connected")
		}
		store := zones.NewStore(pool)
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
		table, err := store.Load(ctx)
		if err != nil {
			return nil, err
		}
		if len(table) == 0 {
			table = zones.DefaultZones()
			if err := store.Save(ctx, table); err != nil {
				return nil, fmt.Errorf("seed zone table: %w", err)
			}
			log.Info().Int("zones", len(table)).Msg("Seeded empty zone table with defaults")
		}
		return table, nil

	default:
		return zones.DefaultZones(), nil
	}
}

// Build creates the engine and everything it depends on.
func Build(ctx context.Context, cfg *config.Config) (*Components, error) {
	table, err := LoadZones(ctx, cfg)
	if err != nil {
		return nil, err
	}
	resolver, err := zones.NewResolver(table, zones.WithFragmentStopwords(cfg.Zones.FragmentStopwords...))
	if err != nil {
		return nil, fmt.Errorf("invalid zone table: %w", err)
	}

	metrics := estimator.NewMetricsRecorder()
	quotes := cache.New(cfg.Estimator.QuoteTTL)

	logger := log.With().Str("component", "providers").Logger()
	registry, err := providers.NewRegistry(cfg.Providers,
		providers.WithStateChange(func(name string, to gobreaker.State) {
			metrics.RecordBreakerState(name, providers.StateValue(to))
			logger.Warn().Str("provider", name).Str("state", to.String()).Msg("Provider breaker changed state")
		}))
	if err != nil {
		return nil, fmt.Errorf("invalid provider config: %w", err)
	}
	for _, s := range registry.Status() {
		metrics.RecordBreakerState(s.Name, 0)
	}

	estCfg := cfg.Estimator
	estCfg.RoutingEnabled = estCfg.RoutingEnabled || cfg.Routing.Enabled

	opts := []estimator.Option{
		estimator.WithResolver(resolver),
		estimator.WithCache(quotes),
		estimator.WithMetrics(metrics),
		estimator.WithProviders(registry),
	}
	if cfg.Geocoder.Enabled {
		opts = append(opts, estimator.WithGeocoder(geocoder.New(cfg.Geocoder.Config, geocoder.WithCache(quotes))))
	}
	if estCfg.RoutingEnabled {
		router, err := routing.FromConfig(cfg.Routing)
		if err != nil {
			return nil, fmt.Errorf("invalid routing config: %w", err)
		}
		opts = append(opts, estimator.WithRouter(router))
	}

	engine, err := estimator.New(estCfg, opts...)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("zones", len(table)).
		Int("providers", registry.Len()).
		Bool("geocoder", cfg.Geocoder.Enabled).
		Bool("routing", estCfg.RoutingEnabled).
		Msg("Fare engine ready")

	return &Components{
		Engine:   engine,
		Registry: registry,
		Cache:    quotes,
		Metrics:  metrics,
	}, nil
}
