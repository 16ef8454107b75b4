package main

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/nyc-collision-analytics/internal/adapter/csvfile"
	"github.com/couchcryptid/nyc-collision-analytics/internal/adapter/export"
	"github.com/couchcryptid/nyc-collision-analytics/internal/adapter/kafka"
	"github.com/couchcryptid/nyc-collision-analytics/internal/aggregate"
	"github.com/couchcryptid/nyc-collision-analytics/internal/config"
	"github.com/couchcryptid/nyc-collision-analytics/internal/observability"
	"github.com/couchcryptid/nyc-collision-analytics/internal/pipeline"
	"github.com/couchcryptid/nyc-collision-analytics/internal/report"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Clean the input and build every report",
	Long: `Loads the raw export (or the cleaned cache with --from-cache), cleans it,
refreshes the cache files and writes the report catalog to the output
directory. When kafka_enabled is set the same report is published to the
configured topic.`,
	RunE: runReports,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runReports(cmd *cobra.Command, _ []string) error {
	cfg, logger, metrics, err := setup(cmd)
	if err != nil {
		return err
	}

	sinks := []pipeline.Sink{export.NewWriter(cfg.OutputDir, logger)}
	if cfg.KafkaEnabled {
		publisher := kafka.NewPublisher(cfg, logger)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		sinks = append(sinks, publisher)
		logger.Info("kafka sink enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}

	catalog := report.NewCatalog(
		aggregate.New(cfg.Years(), cfg.PrintSteps, logger),
		report.Options{GridSize: cfg.GridSize, CurvePoints: cfg.CurvePoints},
		logger, metrics,
	)
	p := newPipeline(cfg, catalog, sinks, logger, metrics)

	rep, err := p.Run(cmd.Context())
	if err != nil {
		logger.Error("run failed", "error", err)
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s of %s records kept, %s artifacts written to %s\n",
		humanize.Comma(int64(rep.Stats.Kept)), humanize.Comma(int64(rep.Stats.Input)),
		humanize.Comma(int64(len(rep.Artifacts))), cfg.OutputDir)
	return nil
}

// newPipeline picks the source and cache for cfg. Reading from the cache
// never rewrites it.
func newPipeline(cfg *config.Config, b pipeline.Builder, sinks []pipeline.Sink, logger *slog.Logger, metrics *observability.Metrics) *pipeline.Pipeline {
	cache := newCache(cfg, logger)
	opts := pipeline.Options{Input: cfg.InputPath, Years: cfg.Years(), MetricsPath: cfg.MetricsPath}

	if cfg.UseCache {
		opts.Input = cache.Dir()
		return pipeline.New(cache, nil, b, sinks, opts, logger, metrics)
	}
	return pipeline.New(csvfile.NewReader(cfg.InputPath, logger), cache, b, sinks, opts, logger, metrics)
}
