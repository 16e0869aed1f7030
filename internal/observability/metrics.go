package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for tracker runs.
type Metrics struct {
	RunsTotal   prometheus.Counter
	RunFailures prometheus.Counter
	RunDuration prometheus.Histogram
	LastRunTime prometheus.Gauge

	// Source fetch metrics.
	SourceFetchDuration *prometheus.HistogramVec // labels: source={population,observations}
	SourceFetchRetries  *prometheus.CounterVec   // labels: source
	InvalidCells        prometheus.Counter

	// Computation metrics.
	RecordsNormalized      prometheus.Counter
	RecordsRejected        *prometheus.CounterVec // labels: reason={invalid_date,missing_region,duplicate,other}
	RegionsComputed        prometheus.Gauge
	RegionsWithOnset       prometheus.Gauge
	SnapshotRegionsSkipped prometheus.Counter

	// Sink metrics.
	MessagesPublished prometheus.Counter
	ReportCache       *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all tracker metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_tracker",
			Name:      "runs_total",
			Help:      "Total tracker runs started.",
		}),
		RunFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_tracker",
			Name:      "run_failures_total",
			Help:      "Total runs that failed before producing a report.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "covid_tracker",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-compute-render run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		LastRunTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covid_tracker",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		SourceFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "covid_tracker",
			Name:      "source_fetch_duration_seconds",
			Help:      "Source fetch duration in seconds, including retries.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		SourceFetchRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covid_tracker",
			Name:      "source_fetch_retries_total",
			Help:      "Source fetch retries by source.",
		}, []string{"source"}),
		InvalidCells: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_tracker",
			Name:      "source_invalid_cells_total",
			Help:      "Non-numeric count cells read as absent values.",
		}),
		RecordsNormalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_tracker",
			Name:      "records_normalized_total",
			Help:      "Observations kept after normalization.",
		}),
		RecordsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covid_tracker",
			Name:      "records_rejected_total",
			Help:      "Observations dropped during normalization by reason.",
		}, []string{"reason"}),
		RegionsComputed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covid_tracker",
			Name:      "regions_computed",
			Help:      "Regions in the last computed report.",
		}),
		RegionsWithOnset: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "covid_tracker",
			Name:      "regions_with_onset",
			Help:      "Regions past the 100-case threshold in the last report.",
		}),
		SnapshotRegionsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_tracker",
			Name:      "snapshot_regions_skipped_total",
			Help:      "Regions left out of a comparison snapshot for lack of data.",
		}),
		MessagesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "covid_tracker",
			Name:      "messages_published_total",
			Help:      "Messages written to the Kafka sink topic.",
		}),
		ReportCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "covid_tracker",
			Name:      "report_cache_total",
			Help:      "Rendered report cache lookups by result.",
		}, []string{"result"}),
	}

	prometheus.MustRegister(
		m.RunsTotal,
		m.RunFailures,
		m.RunDuration,
		m.LastRunTime,
		m.SourceFetchDuration,
		m.SourceFetchRetries,
		m.InvalidCells,
		m.RecordsNormalized,
		m.RecordsRejected,
		m.RegionsComputed,
		m.RegionsWithOnset,
		m.SnapshotRegionsSkipped,
		m.MessagesPublished,
		m.ReportCache,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RunsTotal:              prometheus.NewCounter(prometheus.CounterOpts{Namespace: "covid_tracker", Name: "runs_total"}),
		RunFailures:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "covid_tracker", Name: "run_failures_total"}),
		RunDuration:            prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "covid_tracker", Name: "run_duration_seconds"}),
		LastRunTime:            prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "covid_tracker", Name: "last_run_timestamp_seconds"}),
		SourceFetchDuration:    prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "covid_tracker", Name: "source_fetch_duration_seconds"}, []string{"source"}),
		SourceFetchRetries:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "covid_tracker", Name: "source_fetch_retries_total"}, []string{"source"}),
		InvalidCells:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "covid_tracker", Name: "source_invalid_cells_total"}),
		RecordsNormalized:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "covid_tracker", Name: "records_normalized_total"}),
		RecordsRejected:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "covid_tracker", Name: "records_rejected_total"}, []string{"reason"}),
		RegionsComputed:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "covid_tracker", Name: "regions_computed"}),
		RegionsWithOnset:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "covid_tracker", Name: "regions_with_onset"}),
		SnapshotRegionsSkipped: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "covid_tracker", Name: "snapshot_regions_skipped_total"}),
		MessagesPublished:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "covid_tracker", Name: "messages_published_total"}),
		ReportCache:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "covid_tracker", Name: "report_cache_total"}, []string{"result"}),
	}
}
