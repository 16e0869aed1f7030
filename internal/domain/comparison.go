package domain

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// MinMarkerSize is the marker area used for regions at day 0.
const MinMarkerSize = 16.0

// Urgency buckets days-since-onset for color coding.
type Urgency int

const (
	UrgencyJustCrossed Urgency = iota
	UrgencyVeryRecent
	UrgencyRecent
	UrgencyMature
	UrgencyMostMature
)

var urgencyNames = [...]struct{ name, color string }{
	UrgencyJustCrossed: {"just crossed / unknown", "green"},
	UrgencyVeryRecent:  {"very recent", "greenyellow"},
	UrgencyRecent:      {"recent", "yellow"},
	UrgencyMature:      {"mature", "orange"},
	UrgencyMostMature:  {"most mature", "red"},
}

// Urgencies lists the buckets from least to most mature.
func Urgencies() []Urgency {
	return []Urgency{UrgencyJustCrossed, UrgencyVeryRecent, UrgencyRecent, UrgencyMature, UrgencyMostMature}
}

// UrgencyFor maps days since onset to its bucket:
// >=21 most mature, 14-20 mature, 7-13 recent, 1-6 very recent, else just crossed.
func UrgencyFor(days int) Urgency {
	switch {
	case days >= 21:
		return UrgencyMostMature
	case days >= 14:
		return UrgencyMature
	case days >= 7:
		return UrgencyRecent
	case days >= 1:
		return UrgencyVeryRecent
	default:
		return UrgencyJustCrossed
	}
}

func (u Urgency) String() string {
	if u < 0 || int(u) >= len(urgencyNames) {
		return urgencyNames[UrgencyJustCrossed].name
	}
	return urgencyNames[u].name
}

// Color is the CSS color name used for the bucket.
func (u Urgency) Color() string {
	if u < 0 || int(u) >= len(urgencyNames) {
		return urgencyNames[UrgencyJustCrossed].color
	}
	return urgencyNames[u].color
}

func (u Urgency) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

func (u *Urgency) UnmarshalText(text []byte) error {
	for _, b := range Urgencies() {
		if b.String() == string(text) {
			*u = b
			return nil
		}
	}
	return fmt.Errorf("unknown urgency %q", text)
}

// MarkerSize grows with the square of days since onset, floored at
// MinMarkerSize.
func MarkerSize(days int) float64 {
	return max(float64(days*days), MinMarkerSize)
}

// ComparisonRow is one region's latest pair of metric values.
type ComparisonRow struct {
	Region         string      `json:"region"`
	X              float64     `json:"x"`
	Y              float64     `json:"y"`
	XDate          time.Time   `json:"x_date"`
	YDate          time.Time   `json:"y_date"`
	DaysSinceOnset int         `json:"days_since_onset"`
	Onset          OnsetStatus `json:"onset"`
	Urgency        Urgency     `json:"urgency"`
	MarkerSize     float64     `json:"marker_size"`
}

// ComparisonTable is the cross-region snapshot handed to renderers.
type ComparisonTable struct {
	XMetric MetricKind      `json:"x_metric"`
	YMetric MetricKind      `json:"y_metric"`
	XLabel  string          `json:"x_label"`
	YLabel  string          `json:"y_label"`
	AsOf    time.Time       `json:"as_of"`
	Rows    []ComparisonRow `json:"rows"`
	Skipped []string        `json:"skipped,omitempty"`
}

// Title is the chart title, e.g. "testing vs positive rate as of 2020-04-01".
func (t ComparisonTable) Title() string {
	return fmt.Sprintf("%s vs %s as of %s", t.XLabel, t.YLabel, t.AsOf.Format(time.DateOnly))
}

// Records renders the table with a header row.
func (t ComparisonTable) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, []string{"region", t.XLabel, t.YLabel, "Days since 100th Case", "urgency"})
	for _, r := range t.Rows {
		out = append(out, []string{
			r.Region,
			strconv.FormatFloat(r.X, 'g', -1, 64),
			strconv.FormatFloat(r.Y, 'g', -1, 64),
			strconv.Itoa(r.DaysSinceOnset),
			r.Urgency.String(),
		})
	}
	return out
}

// Snapshot pairs the last defined x and y values of each region with its
// days since onset. regions defaults to every computed region; a code listed
// more than once yields a single row at its first position.
//
// A region lacking any defined x or y value is left out of Rows, listed in
// Skipped, and reported as an *EmptySeriesError in the joined error, so the
// caller can either log and keep the partial table or reject it.
func (r *Results) Snapshot(x, y MetricKind, labelX, labelY string, regions []string) (ComparisonTable, error) {
	if !x.valid() {
		return ComparisonTable{}, fmt.Errorf("snapshot: %w: %s", ErrUnknownMetric, x)
	}
	if !y.valid() {
		return ComparisonTable{}, fmt.Errorf("snapshot: %w: %s", ErrUnknownMetric, y)
	}
	if labelX == "" {
		labelX = x.Label()
	}
	if labelY == "" {
		labelY = y.Label()
	}
	if len(regions) == 0 {
		regions = r.Regions
	}

	table := ComparisonTable{
		XMetric: x,
		YMetric: y,
		XLabel:  labelX,
		YLabel:  labelY,
		AsOf:    r.ComputedAt,
		Rows:    make([]ComparisonRow, 0, len(regions)),
	}

	var errs []error
	seen := make(map[string]bool, len(regions))
	for _, code := range regions {
		if seen[code] {
			continue
		}
		seen[code] = true
		outbreak, ok := r.Outbreaks[code]
		if !ok {
			return ComparisonTable{}, fmt.Errorf("snapshot: %w: %s", ErrUnknownRegion, code)
		}
		xp, okX := r.Series(x, code).Last()
		if !okX {
			errs = append(errs, &EmptySeriesError{Region: code, Metric: x})
			table.Skipped = append(table.Skipped, code)
			continue
		}
		yp, okY := r.Series(y, code).Last()
		if !okY {
			errs = append(errs, &EmptySeriesError{Region: code, Metric: y})
			table.Skipped = append(table.Skipped, code)
			continue
		}
		table.Rows = append(table.Rows, ComparisonRow{
			Region:         code,
			X:              xp.Value.V,
			Y:              yp.Value.V,
			XDate:          xp.Date,
			YDate:          yp.Date,
			DaysSinceOnset: outbreak.DaysSince,
			Onset:          outbreak.Status,
			Urgency:        UrgencyFor(outbreak.DaysSince),
			MarkerSize:     MarkerSize(outbreak.DaysSince),
		})
	}

	return table, errors.Join(errs...)
}
