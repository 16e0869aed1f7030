package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// RawObservation is one row of the daily state CSV before date conversion.
// Counts are cumulative to date; blank source cells are absent Values.
type RawObservation struct {
	Region   string
	Date     int // YYYYMMDD
	Positive Value
	Death    Value
	Total    Value
}

// Observation is a RawObservation keyed by calendar date.
type Observation struct {
	Date     time.Time
	Positive Value
	Death    Value
	Total    Value
}

// Series is one region's observations in strictly increasing date order.
type Series []Observation

// RejectedRecord describes a raw observation dropped during normalization.
type RejectedRecord struct {
	Index  int
	Region string
	Date   int
	Err    error
}

// NormalizeResult holds the per-region series plus what was dropped.
type NormalizeResult struct {
	Series     map[string]Series
	Rejected   []RejectedRecord
	Duplicates int
}

// Records returns the number of observations kept across all regions.
func (r NormalizeResult) Records() int {
	n := 0
	for _, s := range r.Series {
		n += len(s)
	}
	return n
}

// ParseDate converts an 8-digit YYYYMMDD integer to a UTC calendar date.
func ParseDate(v int) (time.Time, error) {
	if v < 10000101 || v > 99991231 {
		return time.Time{}, fmt.Errorf("%w: %d", ErrInvalidDateEncoding, v)
	}
	year, month, day := v/10000, (v/100)%100, v%100
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range parts (e.g. Feb 30), so compare back.
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %d", ErrInvalidDateEncoding, v)
	}
	return t, nil
}

// Normalize groups raw observations by region and sorts each group by date.
// Malformed records are rejected individually. When a (region, date) pair
// repeats, the later record in input order replaces the earlier one.
func Normalize(raw []RawObservation) NormalizeResult {
	res := NormalizeResult{Series: make(map[string]Series)}
	positions := make(map[string]map[time.Time]int)

	for i, rec := range raw {
		region := strings.ToUpper(strings.TrimSpace(rec.Region))
		if region == "" {
			res.Rejected = append(res.Rejected, RejectedRecord{Index: i, Date: rec.Date, Err: ErrMissingRegion})
			continue
		}
		date, err := ParseDate(rec.Date)
		if err != nil {
			res.Rejected = append(res.Rejected, RejectedRecord{Index: i, Region: region, Date: rec.Date, Err: err})
			continue
		}

		obs := Observation{Date: date, Positive: rec.Positive, Death: rec.Death, Total: rec.Total}
		seen, ok := positions[region]
		if !ok {
			seen = make(map[time.Time]int)
			positions[region] = seen
		}
		if j, dup := seen[date]; dup {
			res.Series[region][j] = obs
			res.Duplicates++
			continue
		}
		seen[date] = len(res.Series[region])
		res.Series[region] = append(res.Series[region], obs)
	}

	for _, s := range res.Series {
		slices.SortFunc(s, func(a, b Observation) int { return a.Date.Compare(b.Date) })
	}
	return res
}

func (s Series) positives() []Value {
	return s.column(func(o Observation) Value { return o.Positive })
}

func (s Series) deaths() []Value {
	return s.column(func(o Observation) Value { return o.Death })
}

func (s Series) totals() []Value {
	return s.column(func(o Observation) Value { return o.Total })
}

func (s Series) column(pick func(Observation) Value) []Value {
	out := make([]Value, len(s))
	for i, o := range s {
		out[i] = pick(o)
	}
	return out
}
