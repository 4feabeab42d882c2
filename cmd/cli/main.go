package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ongkir/fare-service/config"
	"github.com/ongkir/fare-service/internal/app"
	"github.com/ongkir/fare-service/internal/database"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *zerolog.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fare-service",
	Short: "Fare Service CLI - courier fare estimation and zone table tools",
	Long: `A CLI tool for quoting same-city courier fares from the terminal and for
maintaining the delivery zone table: checking keyword overlaps, exporting the
table, and importing zone rates from an XLSX rate card.`,
	PersistentPreRunE: persistentPreRun,
	PersistentPostRun: func(cmd *cobra.Command, args []string) { database.Close() },
	SilenceUsage:      true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml or ./config.yaml)")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		// Config is optional for some commands, don't fail here
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
	}
}

// persistentPreRun runs before each command and initializes dependencies
func persistentPreRun(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}

	logger = initLogger()
	return nil
}

func initLogger() *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	if cfg != nil && cfg.Logging.Level != "" {
		if parsedLevel, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			level = parsedLevel
		}
	}

	// Logs go to stderr so command output stays pipeable
	var output io.Writer
	if cfg != nil && cfg.Logging.Format == "json" {
		output = os.Stderr
	} else {
		noColor := false
		if cfg != nil {
			noColor = cfg.Logging.NoColor
		}
		output = zerolog.ConsoleWriter{Out: os.Stderr, NoColor: noColor}
	}

	l := zerolog.New(output).Level(level).With().Timestamp().Logger()
	log.Logger = l
	return &l
}

// requireConfig returns the loaded config or an error naming the command.
func requireConfig(cmd *cobra.Command) (*config.Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required for %s command but not loaded", cmd.Name())
	}
	return cfg, nil
}

// initDatabase connects when the zone table lives in Postgres or force is set.
func initDatabase(ctx context.Context, c *config.Config, force bool) error {
	if !force && c.Zones.Source != config.ZoneSourcePostgres {
		return nil
	}
	if err := app.ConnectDatabase(ctx, c); err != nil {
		return fmt.Errorf("database initialization failed: %w", err)
	}
	logger.Info().Msg("Database connected")
	return nil
}

// buildEngine assembles the engine the same way the server does.
func buildEngine(cmd *cobra.Command) (*app.Components, error) {
	c, err := requireConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := initDatabase(cmd.Context(), c, false); err != nil {
		return nil, err
	}
	return app.Build(cmd.Context(), c)
}

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
