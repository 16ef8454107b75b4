package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/nyc-collision-analytics/internal/adapter/csvfile"
	"github.com/couchcryptid/nyc-collision-analytics/internal/config"
	"github.com/couchcryptid/nyc-collision-analytics/internal/observability"
)

var (
	cfgFile   string
	inputPath string
	outputDir string
	fromCache bool
)

// newMetrics registers with the default registry; tests swap it for a
// private one so commands can run more than once per process.
var newMetrics = observability.NewMetrics

var rootCmd = &cobra.Command{
	Use:   "collisions",
	Short: "Clean NYC collision data and build the analysis reports",
	Long: `collisions reads the city's motor vehicle collision export, drops records
that cannot be placed inside the five boroughs, caches the cleaned set by year
and answers the fixed question catalog as JSON, GeoJSON and a text summary.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $CONFIG_PATH or ./"+config.DefaultConfigFile+")")
	rootCmd.PersistentFlags().StringVar(&inputPath, "input", "", "raw collision CSV (overrides input_path)")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output", "", "report directory (overrides output_dir)")
	rootCmd.PersistentFlags().BoolVar(&fromCache, "from-cache", false, "read the cleaned cache instead of the raw CSV")
}

// loadConfig reads the layered config and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.InputPath = inputPath
	}
	if flags.Changed("output") {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("from-cache") {
		cfg.UseCache = fromCache
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup loads config and builds the logger and metrics every command uses.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, *observability.Metrics, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return nil, nil, nil, err
	}
	return cfg, observability.NewLogger(cfg), newMetrics(), nil
}

func newCache(cfg *config.Config, logger *slog.Logger) *csvfile.Cache {
	return csvfile.NewCache(cfg.CacheDir, csvfile.CacheOptions{
		SaveYears:   cfg.SaveYears,
		SaveCleaned: cfg.SaveCleaned,
	}, logger)
}
