package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/covid-state-tracker/internal/domain"
)

// compute builds the registry, normalizes observations, runs the metric
// engine and takes the comparison snapshot.
func (p *Pipeline) compute(logger *slog.Logger, popRecords []domain.PopulationRecord, rawObs []domain.RawObservation) (*Report, error) {
	registry, err := domain.BuildRegistry(popRecords, p.opts.StateCodes)
	if err != nil {
		return nil, err
	}
	logger.Info("registry built", "regions", registry.Len())

	norm := domain.Normalize(rawObs)
	p.recordRejects(logger, norm)

	engine := domain.NewEngine(registry,
		domain.WithPopulationAdjusted(p.opts.PopulationAdjusted),
		domain.WithParallelism(p.opts.Workers),
	)
	results := engine.ComputeAll(norm.Series)
	p.metrics.RegionsComputed.Set(float64(len(results.Regions)))
	p.metrics.RegionsWithOnset.Set(float64(results.WithOnset()))

	table, err := results.Snapshot(p.opts.X, p.opts.Y, p.opts.XLabel, p.opts.YLabel, p.opts.Regions)
	if err != nil {
		if p.opts.Strict || !errors.Is(err, domain.ErrEmptySeries) {
			return nil, fmt.Errorf("take snapshot: %w", err)
		}
		p.metrics.SnapshotRegionsSkipped.Add(float64(len(table.Skipped)))
		logger.Warn("regions skipped from snapshot", "regions", table.Skipped, "error", err)
	}
	logTable(logger, table)

	return &Report{
		GeneratedAt: results.ComputedAt,
		Results:     results,
		Snapshot:    table,
		Records:     norm.Records(),
		Rejected:    len(norm.Rejected),
		Duplicates:  norm.Duplicates,
	}, nil
}

func (p *Pipeline) recordRejects(logger *slog.Logger, norm domain.NormalizeResult) {
	p.metrics.RecordsNormalized.Add(float64(norm.Records()))
	for _, rej := range norm.Rejected {
		p.metrics.RecordsRejected.WithLabelValues(rejectReason(rej.Err)).Inc()
		logger.Warn("observation rejected",
			"index", rej.Index,
			"region", rej.Region,
			"date", rej.Date,
			"error", rej.Err,
		)
	}
	if norm.Duplicates > 0 {
		p.metrics.RecordsRejected.WithLabelValues("duplicate").Add(float64(norm.Duplicates))
		logger.Warn("duplicate observations replaced", "count", norm.Duplicates)
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidDateEncoding):
		return "invalid_date"
	case errors.Is(err, domain.ErrMissingRegion):
		return "missing_region"
	default:
		return "other"
	}
}

// logTable prints the comparison table one row per line.
func logTable(logger *slog.Logger, table domain.ComparisonTable) {
	logger.Info("comparison snapshot", "title", table.Title(), "rows", len(table.Rows))
	for _, row := range table.Rows {
		logger.Info("comparison row",
			"region", row.Region,
			table.XLabel, row.X,
			table.YLabel, row.Y,
			"days_since_onset", row.DaysSinceOnset,
			"urgency", row.Urgency,
		)
	}
}
