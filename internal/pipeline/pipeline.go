package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/nyc-collision-analytics/internal/domain"
	"github.com/couchcryptid/nyc-collision-analytics/internal/observability"
	"github.com/couchcryptid/nyc-collision-analytics/internal/report"
)

// Source loads every collision record of a run.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]domain.Collision, error)
}

// Cache persists the cleaned dataset. It returns the number of files written.
type Cache interface {
	Save(ctx context.Context, ds *domain.Dataset) (int, error)
}

// Builder turns a dataset into report artifacts.
type Builder interface {
	Build(ctx context.Context, ds *domain.Dataset) ([]report.Artifact, error)
}

// Sink publishes a finished report.
type Sink interface {
	Name() string
	Publish(ctx context.Context, rep *report.Report) error
}

// Options configures a Pipeline.
type Options struct {
	Input       string           // recorded in RunInfo
	Years       domain.YearRange // analysed range
	MetricsPath string           // textfile written after each run; empty disables
}

// Pipeline runs load, clean, cache, build and publish once per call.
type Pipeline struct {
	source  Source
	cache   Cache
	builder Builder
	sinks   []Sink
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Pipeline. cache may be nil to skip saving.
func New(src Source, cache Cache, b Builder, sinks []Sink, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:  src,
		cache:   cache,
		builder: b,
		sinks:   sinks,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// Prepare loads and cleans the input and saves the cache.
func (p *Pipeline) Prepare(ctx context.Context) (*domain.Dataset, error) {
	var records []domain.Collision
	err := p.stage(ctx, "load", func() error {
		var err error
		records, err = p.source.Load(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", p.source.Name(), err)
	}

	var ds *domain.Dataset
	err = p.stage(ctx, "clean", func() error {
		ds = domain.NewDataset(records, p.opts.Years)
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.recordClean(ds.Stats)
	p.logger.Info("cleaning complete",
		"source", p.source.Name(),
		"input", ds.Stats.Input,
		"kept", ds.Stats.Kept,
		"no_location", ds.Stats.NoLocation,
		"out_of_bounds", ds.Stats.OutOfBounds,
		"anomalies_fixed", ds.Stats.AnomaliesFixed,
	)

	if p.cache == nil {
		return ds, nil
	}
	err = p.stage(ctx, "cache", func() error {
		n, err := p.cache.Save(ctx, ds)
		p.metrics.CacheFilesWritten.Add(float64(n))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("save cache: %w", err)
	}
	return ds, nil
}

// Run executes a full pass and returns the published report. Every sink
// is attempted; the run fails if any of them failed.
func (p *Pipeline) Run(ctx context.Context) (*report.Report, error) {
	defer p.flushMetrics()
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	run := domain.NewRunInfo(p.opts.Input, p.opts.Years)
	logger := p.logger.With("run_id", run.ID)
	logger.Info("pipeline started", "input", run.Input, "years", run.Years.String())

	ds, err := p.Prepare(ctx)
	if err != nil {
		return nil, err
	}

	var arts []report.Artifact
	err = p.stage(ctx, "build", func() error {
		var err error
		arts, err = p.builder.Build(ctx, ds)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}
	rep := &report.Report{Run: run, Stats: ds.Stats, Artifacts: arts}

	err = p.stage(ctx, "publish", func() error {
		var errs []error
		for _, s := range p.sinks {
			if err := s.Publish(ctx, rep); err != nil {
				logger.Error("publish failed", "sink", s.Name(), "error", err)
				errs = append(errs, fmt.Errorf("sink %s: %w", s.Name(), err))
				continue
			}
			p.metrics.ReportsPublished.WithLabelValues(s.Name()).Inc()
		}
		return errors.Join(errs...)
	})
	if err != nil {
		return rep, err
	}

	finished := domain.Now()
	p.metrics.LastRunTimestamp.Set(float64(finished.Unix()))
	logger.Info("pipeline finished", "artifacts", len(arts), "sinks", len(p.sinks),
		"elapsed", finished.Sub(run.GeneratedAt))
	return rep, nil
}

// stage times fn under the stage label. It refuses to start once ctx is
// done.
func (p *Pipeline) stage(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := fn()
	p.metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	p.logger.Debug("stage finished", "stage", name, "duration", time.Since(start), "ok", err == nil)
	return err
}

func (p *Pipeline) recordClean(st domain.CleanStats) {
	p.metrics.RecordsRead.Add(float64(st.Input))
	p.metrics.RecordsCleaned.Add(float64(st.Kept))
	p.metrics.RecordsDropped.WithLabelValues(string(domain.VerdictNoLocation)).Add(float64(st.NoLocation))
	p.metrics.RecordsDropped.WithLabelValues(string(domain.VerdictOutOfBounds)).Add(float64(st.OutOfBounds))
	p.metrics.AnomaliesCorrected.Add(float64(st.AnomaliesFixed))
}

func (p *Pipeline) flushMetrics() {
	if p.opts.MetricsPath == "" {
		return
	}
	if err := p.metrics.WriteTextfile(p.opts.MetricsPath); err != nil {
		p.logger.Warn("write metrics textfile failed", "path", p.opts.MetricsPath, "error", err)
	}
}
