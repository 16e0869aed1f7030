package domain

import (
	"fmt"
	"strings"
	"time"
)

// MetricKind names one of the derived per-region series.
type MetricKind int

const (
	TestRate MetricKind = iota
	GrowthRate
	PositivityRate
	DeathRate
)

var metricNames = map[MetricKind][2]string{
	TestRate:       {"testing", "testing"},
	GrowthRate:     {"growth", "growth rate"},
	PositivityRate: {"positivity", "positive rate"},
	DeathRate:      {"death", "death rate"},
}

// MetricKinds lists every kind in declaration order.
func MetricKinds() []MetricKind {
	return []MetricKind{TestRate, GrowthRate, PositivityRate, DeathRate}
}

func (k MetricKind) String() string {
	if n, ok := metricNames[k]; ok {
		return n[0]
	}
	return fmt.Sprintf("metric(%d)", int(k))
}

// Label is the default axis label for the kind.
func (k MetricKind) Label() string {
	if n, ok := metricNames[k]; ok {
		return n[1]
	}
	return k.String()
}

func (k MetricKind) valid() bool {
	_, ok := metricNames[k]
	return ok
}

func (k MetricKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *MetricKind) UnmarshalText(text []byte) error {
	parsed, err := ParseMetricKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseMetricKind accepts a kind name ("testing", "growth", "positivity",
// "death") or its label, case-insensitively.
func ParseMetricKind(s string) (MetricKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range MetricKinds() {
		if s == k.String() || s == k.Label() {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}

// Point is one dated metric value.
type Point struct {
	Date  time.Time `json:"date"`
	Value Value     `json:"value"`
}

// MetricSeries is a region's metric in ascending date order.
type MetricSeries []Point

// Last returns the most recent point with a defined value.
func (s MetricSeries) Last() (Point, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Value.Valid {
			return s[i], true
		}
	}
	return Point{}, false
}

// Defined counts the points with a value.
func (s MetricSeries) Defined() int {
	n := 0
	for _, p := range s {
		if p.Value.Valid {
			n++
		}
	}
	return n
}

func newMetricSeries(s Series, values []Value) MetricSeries {
	out := make(MetricSeries, len(s))
	for i, obs := range s {
		out[i] = Point{Date: obs.Date, Value: values[i]}
	}
	return out
}
