package pipeline_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/covid-state-tracker/internal/adapter/source"
	"github.com/couchcryptid/covid-state-tracker/internal/domain"
	"github.com/couchcryptid/covid-state-tracker/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockPath(name string) string {
	return filepath.Join("..", "..", "data", "mock", name)
}

func TestPipeline_WithMockCSVData(t *testing.T) {
	freezeClock(t)
	metrics := newTestMetrics()
	client := source.NewClient(time.Second, metrics, discardLogger())

	p := pipeline.New(
		source.NewPopulationSource(client, mockPath("population.csv"), source.CensusPopulationColumn),
		source.NewObservationSource(client, mockPath("daily.csv")),
		nil,
		testOptions(),
		discardLogger(),
		metrics,
	)

	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"CA", "DE", "NY", "WA"}, report.Results.Regions)
	assert.Equal(t, 32, report.Records)
	assert.Equal(t, []string{"WA"}, report.Snapshot.Skipped, "WA reports no test totals")

	rows := make(map[string]domain.ComparisonRow)
	for _, r := range report.Snapshot.Rows {
		rows[r.Region] = r
	}
	require.Len(t, rows, 3)

	cases := []struct {
		region string
		onset  domain.OnsetStatus
		days   int
		total  float64
		pop    float64
	}{
		{"CA", domain.OnsetReached, 7, 5200, 39512223},
		{"DE", domain.OnsetNotReached, 0, 80, 973764},
		{"NY", domain.OnsetReached, 5, 12800, 19453561},
	}
	for _, tc := range cases {
		t.Run(tc.region, func(t *testing.T) {
			row := rows[tc.region]
			assert.Equal(t, tc.onset, row.Onset)
			assert.Equal(t, tc.days, row.DaysSinceOnset)
			assert.InDelta(t, tc.total*1e6/tc.pop, row.X, 1e-9)
			assert.InDelta(t, 0.1, row.Y, 1e-12)
			assert.Equal(t, time.Date(2020, time.March, 8, 0, 0, 0, 0, time.UTC), row.XDate)
		})
	}

	// Growth curves start at each region's onset day.
	ca, ok := report.Results.Curves.Cell(1, "CA")
	require.True(t, ok)
	assert.InDelta(t, 120*1e6/39512223.0, ca.V, 1e-9)
	de, ok := report.Results.Curves.Cell(1, "DE")
	require.True(t, ok)
	assert.False(t, de.Valid, "DE never reached onset")
}
