package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownRegionIdentifier is returned when a population record carries
	// a numeric identifier missing from the code map.
	ErrUnknownRegionIdentifier = errors.New("unknown region identifier")
	ErrInvalidPopulation       = errors.New("invalid population")
	ErrDuplicateRegion         = errors.New("duplicate region")

	// ErrInvalidDateEncoding marks an observation whose YYYYMMDD integer is not
	// a calendar date. It rejects the record, not the whole normalization.
	ErrInvalidDateEncoding = errors.New("invalid date encoding")
	ErrMissingRegion       = errors.New("missing region code")

	// ErrEmptySeries is matched by EmptySeriesError.
	ErrEmptySeries   = errors.New("empty series")
	ErrUnknownRegion = errors.New("unknown region")
	ErrUnknownMetric = errors.New("unknown metric")
)

// EmptySeriesError reports a region with no defined value for a metric.
type EmptySeriesError struct {
	Region string
	Metric MetricKind
}

func (e *EmptySeriesError) Error() string {
	return fmt.Sprintf("region %s: no defined %s values: %s", e.Region, e.Metric, ErrEmptySeries)
}

func (e *EmptySeriesError) Is(target error) bool {
	return target == ErrEmptySeries
}
