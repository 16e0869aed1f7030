package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/covid-state-tracker/internal/adapter/source"
	"github.com/couchcryptid/covid-state-tracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockPath(name string) string {
	return filepath.Join("..", "..", "data", "mock", name)
}

func TestRun_MockData(t *testing.T) {
	assert.Equal(t, 0, run(mockPath("population.csv"), mockPath("daily.csv"), "", ""))
}

func TestRun_ExpectedMismatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, snapshotFile), []byte("region\nZZ\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, curvesFile), []byte("day\n"), 0o600))

	assert.Equal(t, 1, run(mockPath("population.csv"), mockPath("daily.csv"), dir, "2020-03-09"))
}

func TestValidateInputs_InvalidCells(t *testing.T) {
	in := &inputs{
		invalid:  []source.InvalidCell{{Line: 4, Column: "death", Value: "n/a"}},
		registry: mustRegistry(t),
	}
	p := validateInputs(in)
	require.False(t, p.passed())
	assert.Contains(t, p.errors[0], `line 4 death="n/a"`)
}

func mustRegistry(t *testing.T) *domain.Registry {
	t.Helper()
	reg, err := domain.BuildRegistry(nil, domain.DefaultStateCodes())
	require.NoError(t, err)
	return reg
}

func TestValidateMetrics_SnapshotErrors(t *testing.T) {
	results := &domain.Results{Curves: &domain.GrowthCurveTable{}}
	empty := errors.Join(&domain.EmptySeriesError{Region: "DE", Metric: domain.PositivityRate})

	tests := []struct {
		name string
		err  error
		pass bool
	}{
		{"no error", nil, true},
		{"empty series only", empty, true},
		{"unknown region", fmt.Errorf("snapshot: %w: ZZ", domain.ErrUnknownRegion), false},
		{"unknown metric", fmt.Errorf("snapshot: %w", domain.ErrUnknownMetric), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validateMetrics(results, domain.ComparisonTable{}, tt.err)
			assert.Equal(t, tt.pass, p.passed(), p.errors)
		})
	}
}

func TestEvaluationDate(t *testing.T) {
	norm := domain.Normalize([]domain.RawObservation{
		{Region: "CA", Date: 20200301},
		{Region: "NY", Date: 20200305},
	})
	got, err := evaluationDate("", norm)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, time.March, 6, 0, 0, 0, 0, time.UTC), got)

	got, err = evaluationDate("2020-04-01", norm)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, time.April, 1, 0, 0, 0, 0, time.UTC), got)

	_, err = evaluationDate("", domain.NormalizeResult{})
	require.Error(t, err)
}

func TestCheckCumulative(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2020, time.March, d, 0, 0, 0, 0, time.UTC) }
	s := domain.Series{
		{Date: day(1), Positive: domain.Some(10), Total: domain.Some(100)},
		{Date: day(2), Positive: domain.Some(8)},
		{Date: day(3), Positive: domain.Some(12), Total: domain.Some(90)},
	}

	p := &phase{name: "test"}
	checkCumulative(p, "CA", s)
	require.Len(t, p.errors, 2)
	assert.Contains(t, p.errors[0], "positive decreased from 10 to 8")
	assert.Contains(t, p.errors[1], "total decreased from 100 to 90")
}

func TestCellEq(t *testing.T) {
	assert.True(t, cellEq("CA", "CA"))
	assert.True(t, cellEq("0.1", "0.10000000000000001"))
	assert.True(t, cellEq("", ""))
	assert.False(t, cellEq("", "0"))
	assert.False(t, cellEq("1.5", "1.6"))
}
