// @title Fare Service API
// @version 1.0
// @description Same-city courier fare estimation with live, zone and emergency pricing.
// @BasePath /
// @securityDefinitions.apikey InternalAPIKey
// @in header
// @name X-Internal-API-Key
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/ongkir/fare-service/config"
	_ "github.com/ongkir/fare-service/docs"
	"github.com/ongkir/fare-service/internal/app"
	"github.com/ongkir/fare-service/internal/cache"
	"github.com/ongkir/fare-service/internal/database"
	"github.com/ongkir/fare-service/internal/handlers"
	"github.com/ongkir/fare-service/internal/middleware"
	"github.com/ongkir/fare-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load(os.Getenv("FARE_SERVICE_CONFIG"))
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting fare service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize telemetry")
	}

	if cfg.Zones.Source == config.ZoneSourcePostgres {
		if err := app.ConnectDatabase(ctx, cfg); err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer database.Close()
		logger.Info().Msg("Database connected")
	}

	components, err := app.Build(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build fare engine")
	}

	sweeperLogger := logger.With().Str("component", "cache_sweeper").Logger()
	sweeper := cache.NewSweeper(components.Cache, &sweeperLogger, cfg.Cache.SweepInterval)
	sweeper.OnSweep(func(removed int) {
		components.Metrics.RecordSweep(removed, components.Cache.Len())
	})
	go sweeper.Start(ctx)

	handlers.InitEstimator(components.Engine, components.Registry, sweeper)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID(logger))
	router.Use(middleware.RequestLogger(logger))

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/v1")
	v1.Use(middleware.RateLimitMiddleware(ctx, cfg.RateLimit))
	{
		v1.POST("/estimate", handlers.Estimate)
		v1.POST("/estimate/batch", handlers.EstimateBatch)
		v1.GET("/deliverable", handlers.Deliverable)
		v1.GET("/zones", handlers.ListZones)
		v1.GET("/constants", handlers.GetConstants)
	}

	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware(cfg.Internal.APIKey))
	internal.Use(middleware.ServiceRateLimitMiddleware(cfg.Internal.RequestsPerSecond, cfg.Internal.BurstSize))
	{
		internal.GET("/health", handlers.HealthCheck)
		internal.POST("/cache/sweep", handlers.SweepCache)
		internal.DELETE("/cache", handlers.FlushCache)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()

	logger.Info().Msg("Shutting down server...")
	sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Telemetry shutdown failed")
	}

	logger.Info().Msg("Server exited")
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "fare-service").Logger()
	// Package loggers derive from the global one.
	log.Logger = logger
	zerolog.SetGlobalLevel(level)
	return &logger
}
