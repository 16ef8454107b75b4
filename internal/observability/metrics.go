package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "collisions"

// Metrics holds the Prometheus counters, histograms, and gauges for a batch run.
type Metrics struct {
	RecordsRead        prometheus.Counter
	RecordsCleaned     prometheus.Counter
	RecordsDropped     *prometheus.CounterVec // labels: reason={no_location,out_of_bounds}
	AnomaliesCorrected prometheus.Counter
	PipelineRunning    prometheus.Gauge

	// Report metrics.
	ArtifactsBuilt   *prometheus.CounterVec // labels: kind
	DensityFailures  *prometheus.CounterVec // labels: reason
	ReportsPublished *prometheus.CounterVec // labels: sink

	CacheFilesWritten prometheus.Counter
	StageDuration     *prometheus.HistogramVec // labels: stage
	LastRunTimestamp  prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return newMetrics(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	reg := prometheus.NewRegistry()
	return newMetrics(reg, reg)
}

func newMetrics(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	m := &Metrics{
		RecordsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_read_total",
			Help:      "Collision records parsed from the source.",
		}),
		RecordsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_cleaned_total",
			Help:      "Records that survived geographic validation.",
		}),
		RecordsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Records excluded during cleaning, by reason.",
		}, []string{"reason"}),
		AnomaliesCorrected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anomalies_corrected_total",
			Help:      "Records rewritten by the known-anomaly correction.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		ArtifactsBuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_built_total",
			Help:      "Report artifacts built, by kind.",
		}, []string{"kind"}),
		DensityFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "density_failures_total",
			Help:      "Density estimates skipped because of degenerate input, by reason.",
		}, []string{"reason"}),
		ReportsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_published_total",
			Help:      "Artifacts handed to a sink, by sink.",
		}, []string{"sink"}),
		CacheFilesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_files_written_total",
			Help:      "Year partition and cleaned-set files written.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}, []string{"stage"}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last successful run finished.",
		}),
		gatherer: g,
	}

	reg.MustRegister(
		m.RecordsRead,
		m.RecordsCleaned,
		m.RecordsDropped,
		m.AnomaliesCorrected,
		m.PipelineRunning,
		m.ArtifactsBuilt,
		m.DensityFailures,
		m.ReportsPublished,
		m.CacheFilesWritten,
		m.StageDuration,
		m.LastRunTimestamp,
	)

	return m
}

// WriteTextfile writes every registered metric to path in the text
// exposition format, for the node-exporter textfile collector. A batch job
// has no scrape endpoint to serve them from.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.gatherer)
}
