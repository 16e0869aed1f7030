package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/covid-state-tracker/internal/domain"
	"github.com/couchcryptid/covid-state-tracker/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/google/uuid"
)

// PopulationSource returns census population estimates.
type PopulationSource interface {
	FetchPopulation(ctx context.Context) ([]domain.PopulationRecord, error)
}

// ObservationSource returns daily cumulative observations for every region.
type ObservationSource interface {
	FetchObservations(ctx context.Context) ([]domain.RawObservation, error)
}

// Loader delivers a finished report to one destination (files, Kafka).
type Loader interface {
	Load(ctx context.Context, report *Report) error
}

// Report is the immutable outcome of one run.
type Report struct {
	RunID       uuid.UUID              `json:"run_id"`
	GeneratedAt time.Time              `json:"generated_at"`
	Results     *domain.Results        `json:"results"`
	Snapshot    domain.ComparisonTable `json:"snapshot"`
	Records     int                    `json:"records"`
	Rejected    int                    `json:"rejected"`
	Duplicates  int                    `json:"duplicates"`
}

const (
	defaultBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Options selects what a run computes and how it retries sources.
type Options struct {
	X, Y           domain.MetricKind
	XLabel, YLabel string
	Regions        []string

	// Strict fails the run when any selected region lacks data for X or Y.
	Strict             bool
	PopulationAdjusted bool
	Workers            int

	MaxAttempts  int
	RetryBackoff time.Duration

	// StateCodes maps census identifiers to region codes. Nil uses
	// domain.DefaultStateCodes.
	StateCodes map[int]string
}

// Pipeline orchestrates the fetch-compute-load run.
type Pipeline struct {
	population   PopulationSource
	observations ObservationSource
	loaders      []Loader
	opts         Options
	logger       *slog.Logger
	metrics      *observability.Metrics
	latest       atomic.Pointer[Report]
}

// New creates a Pipeline with the given stages and observability.
func New(pop PopulationSource, obs ObservationSource, loaders []Loader, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = defaultBackoff
	}
	if opts.StateCodes == nil {
		opts.StateCodes = domain.DefaultStateCodes()
	}
	return &Pipeline{
		population:   pop,
		observations: obs,
		loaders:      loaders,
		opts:         opts,
		logger:       logger,
		metrics:      metrics,
	}
}

// CheckReadiness returns nil once a run has produced a report.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.latest.Load() == nil {
		return errors.New("no report has been produced yet")
	}
	return nil
}

// Latest returns the most recent report, or nil before the first run.
func (p *Pipeline) Latest() *Report {
	return p.latest.Load()
}

// Run fetches both sources, computes every metric and the comparison
// snapshot, then hands the report to each loader. The report is published to
// Latest before loading, so a loader failure still leaves it servable.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	runID := uuid.New()
	logger := p.logger.With("run_id", runID.String())
	logger.Info("run started", "x", p.opts.X, "y", p.opts.Y, "workers", p.opts.Workers)
	p.metrics.RunsTotal.Inc()

	popRecords, err := fetchWithRetry(ctx, p, "population", p.population.FetchPopulation)
	if err != nil {
		return nil, p.fail(logger, err)
	}
	rawObs, err := fetchWithRetry(ctx, p, "observations", p.observations.FetchObservations)
	if err != nil {
		return nil, p.fail(logger, err)
	}

	report, err := p.compute(logger, popRecords, rawObs)
	if err != nil {
		return nil, p.fail(logger, err)
	}
	report.RunID = runID
	p.latest.Store(report)

	var errs []error
	for _, l := range p.loaders {
		if err := l.Load(ctx, report); err != nil {
			logger.Error("load report failed", "error", err)
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return report, p.fail(logger, fmt.Errorf("load report: %w", err))
	}

	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.metrics.LastRunTime.SetToCurrentTime()
	logger.Info("run complete",
		"regions", len(report.Results.Regions),
		"rows", len(report.Snapshot.Rows),
		"duration", time.Since(start),
	)
	return report, nil
}

func (p *Pipeline) fail(logger *slog.Logger, err error) error {
	p.metrics.RunFailures.Inc()
	logger.Error("run failed", "error", err)
	return err
}

// fetchWithRetry calls fetch up to MaxAttempts times with exponential backoff.
func fetchWithRetry[T any](ctx context.Context, p *Pipeline, source string, fetch func(context.Context) (T, error)) (T, error) {
	backoff := p.opts.RetryBackoff
	var zero T
	for attempt := 1; ; attempt++ {
		v, err := fetch(ctx)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return zero, fmt.Errorf("fetch %s: %w", source, ctx.Err())
		}
		if attempt >= p.opts.MaxAttempts {
			return zero, fmt.Errorf("fetch %s after %d attempts: %w", source, attempt, err)
		}
		p.logger.Warn("source fetch failed, retrying",
			"source", source,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)
		p.metrics.SourceFetchRetries.WithLabelValues(source).Inc()
		if !backoffOrStop(ctx, &backoff) {
			return zero, fmt.Errorf("fetch %s: %w", source, ctx.Err())
		}
	}
}

// backoffOrStop sleeps with the current backoff and advances it. Returns
// false if the context ended first.
func backoffOrStop(ctx context.Context, backoff *time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !retry.SleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = retry.NextBackoff(*backoff, maxBackoff)
	return true
}
