package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUrgencyFor(t *testing.T) {
	tests := []struct {
		days  int
		want  Urgency
		name  string
		color string
	}{
		{0, UrgencyJustCrossed, "just crossed / unknown", "green"},
		{1, UrgencyVeryRecent, "very recent", "greenyellow"},
		{6, UrgencyVeryRecent, "very recent", "greenyellow"},
		{7, UrgencyRecent, "recent", "yellow"},
		{13, UrgencyRecent, "recent", "yellow"},
		{14, UrgencyMature, "mature", "orange"},
		{20, UrgencyMature, "mature", "orange"},
		{21, UrgencyMostMature, "most mature", "red"},
		{90, UrgencyMostMature, "most mature", "red"},
	}

	for _, tt := range tests {
		got := UrgencyFor(tt.days)
		assert.Equal(t, tt.want, got, "days=%d", tt.days)
		assert.Equal(t, tt.name, got.String())
		assert.Equal(t, tt.color, got.Color())
	}
}

func TestMarkerSize(t *testing.T) {
	assert.Equal(t, MinMarkerSize, MarkerSize(0))
	assert.Equal(t, MinMarkerSize, MarkerSize(2))
	assert.Equal(t, 100.0, MarkerSize(10))
	assert.Less(t, MarkerSize(20), MarkerSize(21))
}

func TestParseMetricKind(t *testing.T) {
	for _, kind := range MetricKinds() {
		got, err := ParseMetricKind(kind.String())
		require.NoError(t, err)
		assert.Equal(t, kind, got)

		got, err = ParseMetricKind(kind.Label())
		require.NoError(t, err)
		assert.Equal(t, kind, got)
	}

	got, err := ParseMetricKind(" Positive Rate ")
	require.NoError(t, err)
	assert.Equal(t, PositivityRate, got)

	_, err = ParseMetricKind("hospitalized")
	assert.ErrorIs(t, err, ErrUnknownMetric)
}

func snapshotFixture(t *testing.T) *Results {
	t.Helper()
	freezeClock(t, time.Date(2020, time.March, 25, 9, 0, 0, 0, time.UTC))
	reg := testRegistry(t, map[int]int64{6: 1_000_000, 36: 1_000_000, 53: 1_000_000})

	series := map[string]Series{
		"CA": dailySeries([]float64{100, 110, 121, 133}, nil, []float64{1000, 2000, 3000, 4000}),
		"WA": dailySeries([]float64{10, 20, 30, 40, 50}, nil, []float64{100, 200, 300, 400, 500}),
		"NY": dailySeries([]float64{5, 6, 7}, nil, []float64{10, 20, 30}),
	}
	return NewEngine(reg).ComputeAll(series)
}

func TestSnapshot(t *testing.T) {
	res := snapshotFixture(t)

	table, err := res.Snapshot(TestRate, GrowthRate, "", "", []string{"CA", "WA"})
	require.NoError(t, err)

	assert.Equal(t, "testing", table.XLabel)
	assert.Equal(t, "growth rate", table.YLabel)
	assert.Equal(t, "testing vs growth rate as of 2020-03-25", table.Title())
	require.Len(t, table.Rows, 2)

	ca := table.Rows[0]
	assert.Equal(t, "CA", ca.Region)
	assert.Equal(t, 4000.0, ca.X)
	assert.InDelta(t, 0.1, ca.Y, 1e-3)
	assert.Equal(t, 24, ca.DaysSinceOnset)
	assert.Equal(t, OnsetReached, ca.Onset)
	assert.Equal(t, UrgencyMostMature, ca.Urgency)
	assert.Equal(t, 576.0, ca.MarkerSize)
	assert.Equal(t, testStart.AddDate(0, 0, 3), ca.XDate)

	wa := table.Rows[1]
	assert.Equal(t, OnsetNotReached, wa.Onset)
	assert.Zero(t, wa.DaysSinceOnset)
	assert.Equal(t, UrgencyJustCrossed, wa.Urgency)
	assert.Equal(t, MinMarkerSize, wa.MarkerSize)
}

func TestSnapshot_EmptySeries(t *testing.T) {
	res := snapshotFixture(t)

	table, err := res.Snapshot(TestRate, PositivityRate, "testing", "positive rate", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptySeries)

	var empty *EmptySeriesError
	require.True(t, errors.As(err, &empty))
	assert.Equal(t, "NY", empty.Region)
	assert.Equal(t, PositivityRate, empty.Metric)

	assert.Equal(t, []string{"NY"}, table.Skipped)
	for _, row := range table.Rows {
		assert.NotEqual(t, "NY", row.Region, "empty series must not appear as zero")
	}
	assert.Len(t, table.Rows, 2)
}

func TestSnapshot_RepeatedRegions(t *testing.T) {
	res := snapshotFixture(t)

	table, err := res.Snapshot(TestRate, GrowthRate, "", "", []string{"CA", "WA", "CA"})
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "CA", table.Rows[0].Region)
	assert.Equal(t, "WA", table.Rows[1].Region)

	table, err = res.Snapshot(TestRate, PositivityRate, "", "", []string{"NY", "NY"})
	require.ErrorIs(t, err, ErrEmptySeries)
	assert.Equal(t, []string{"NY"}, table.Skipped)
}

func TestSnapshot_UnknownRegionAndMetric(t *testing.T) {
	res := snapshotFixture(t)

	_, err := res.Snapshot(TestRate, GrowthRate, "", "", []string{"ZZ"})
	assert.ErrorIs(t, err, ErrUnknownRegion)

	_, err = res.Snapshot(MetricKind(42), GrowthRate, "", "", nil)
	assert.ErrorIs(t, err, ErrUnknownMetric)
}

func TestComparisonTable_RecordsAndJSON(t *testing.T) {
	res := snapshotFixture(t)
	table, err := res.Snapshot(TestRate, GrowthRate, "tests per million", "daily growth", []string{"CA"})
	require.NoError(t, err)

	recs := table.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"region", "tests per million", "daily growth", "Days since 100th Case", "urgency"}, recs[0])
	assert.Equal(t, "CA", recs[1][0])
	assert.Equal(t, "4000", recs[1][1])
	assert.Equal(t, "most mature", recs[1][4])

	data, err := json.Marshal(table)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"x_metric":"testing"`)
	assert.Contains(t, string(data), `"urgency":"most mature"`)
	assert.Contains(t, string(data), `"onset":"reached"`)
}

func TestUrgency_TextRoundTrip(t *testing.T) {
	for _, u := range Urgencies() {
		text, err := u.MarshalText()
		require.NoError(t, err)
		var got Urgency
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, u, got)
	}

	var u Urgency
	require.Error(t, u.UnmarshalText([]byte("ancient")))
}
