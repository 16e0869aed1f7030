package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/couchcryptid/covid-state-tracker/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePopulation(t *testing.T) {
	f, err := os.Open("testdata/population.csv")
	require.NoError(t, err)
	defer f.Close()

	got, err := ParsePopulation(f, "")
	require.NoError(t, err)

	want := []domain.PopulationRecord{
		{Identifier: 0, Estimate: 328239523},
		{Identifier: 0, Estimate: 55982803},
		{Identifier: 6, Estimate: 39512223},
		{Identifier: 10, Estimate: 973764},
		{Identifier: 36, Estimate: 19453561},
		{Identifier: 53, Estimate: 7614893},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParsePopulation mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePopulation_OtherColumn(t *testing.T) {
	f, err := os.Open("testdata/population.csv")
	require.NoError(t, err)
	defer f.Close()

	got, err := ParsePopulation(f, "POPESTIMATE2018")
	require.NoError(t, err)
	require.Len(t, got, 6)
	assert.Equal(t, int64(39461588), got[2].Estimate)
}

func TestParsePopulation_FeedsRegistry(t *testing.T) {
	f, err := os.Open("testdata/population.csv")
	require.NoError(t, err)
	defer f.Close()

	records, err := ParsePopulation(f, "")
	require.NoError(t, err)

	reg, err := domain.BuildRegistry(records, domain.DefaultStateCodes())
	require.NoError(t, err)
	assert.Equal(t, []string{"CA", "DE", "NY", "WA"}, reg.Codes())
	pop, ok := reg.Population("CA")
	require.True(t, ok)
	assert.Equal(t, int64(39512223), pop)
}

func TestParsePopulation_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		column  string
		wantErr string
	}{
		{"empty", "", "", "read population header"},
		{"no state column", "NAME,POPESTIMATE2019\nCalifornia,1\n", "", "STATE"},
		{"no estimate column", "STATE,NAME\n06,California\n", "", "POPESTIMATE2019"},
		{"unknown year", "STATE,POPESTIMATE2019\n06,1\n", "POPESTIMATE2030", "POPESTIMATE2030"},
		{"bad identifier", "STATE,POPESTIMATE2019\nCA,1\n", "", "line 2"},
		{"bad estimate", "STATE,POPESTIMATE2019\n06,lots\n", "", "POPESTIMATE2019"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePopulation(strings.NewReader(tt.input), tt.column)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseObservations(t *testing.T) {
	f, err := os.Open("testdata/daily.csv")
	require.NoError(t, err)
	defer f.Close()

	got, invalid, err := ParseObservations(f)
	require.NoError(t, err)
	assert.Empty(t, invalid)

	want := []domain.RawObservation{
		{Region: "CA", Date: 20200304, Positive: domain.Some(53), Death: domain.Some(0), Total: domain.Some(515)},
		{Region: "WA", Date: 20200304, Positive: domain.Some(39), Death: domain.Some(10), Total: domain.Some(39)},
		{Region: "CA", Date: 20200303, Positive: domain.Some(43), Total: domain.Some(43)},
		{Region: "NY", Date: 20200303},
		{Region: "WA", Date: 20200302, Positive: domain.Some(18), Death: domain.Some(6), Total: domain.Some(18)},
		{Region: "DE", Date: 0, Positive: domain.Some(1)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseObservations mismatch (-want +got):\n%s", diff)
	}
}

func TestParseObservations_TotalTestResultsFallback(t *testing.T) {
	f, err := os.Open("testdata/daily_total_test_results.csv")
	require.NoError(t, err)
	defer f.Close()

	got, _, err := ParseObservations(f)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.Some(114), got[0].Total)
	assert.Equal(t, domain.Some(60), got[1].Total)
	assert.False(t, got[0].Death.Valid)
}

func TestParseObservations_NormalizeRejectsBadDate(t *testing.T) {
	f, err := os.Open("testdata/daily.csv")
	require.NoError(t, err)
	defer f.Close()

	raw, _, err := ParseObservations(f)
	require.NoError(t, err)

	res := domain.Normalize(raw)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, "DE", res.Rejected[0].Region)
	require.ErrorIs(t, res.Rejected[0].Err, domain.ErrInvalidDateEncoding)
	assert.Len(t, res.Series["CA"], 2)
	assert.Len(t, res.Series["WA"], 2)
}

func TestParseObservations_MissingColumns(t *testing.T) {
	_, _, err := ParseObservations(strings.NewReader("state,positive\nCA,1\n"))
	require.ErrorIs(t, err, errMissingColumn)
	assert.Contains(t, err.Error(), "date")

	_, _, err = ParseObservations(strings.NewReader("date,positive\n20200301,1\n"))
	require.ErrorIs(t, err, errMissingColumn)
	assert.Contains(t, err.Error(), "state")
}

func TestParseObservations_NonNumericCellIsAbsent(t *testing.T) {
	in := "date,state,positive,death,total\n20200301,CA,n/a,2,10\n20200302,CA,5,,?\n"
	got, invalid, err := ParseObservations(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.False(t, got[0].Positive.Valid)
	assert.Equal(t, domain.Some(2), got[0].Death)
	assert.False(t, got[1].Death.Valid)
	assert.False(t, got[1].Total.Valid)

	want := []InvalidCell{
		{Line: 2, Column: "positive", Value: "n/a"},
		{Line: 3, Column: "total", Value: "?"},
	}
	if diff := cmp.Diff(want, invalid); diff != "" {
		t.Errorf("invalid cells mismatch (-want +got):\n%s", diff)
	}
}

func TestObservationSource_CountsInvalidCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daily.csv")
	require.NoError(t, os.WriteFile(path, []byte("date,state,positive,death,total\n20200301,CA,n/a,x,10\n"), 0o600))

	client := testClient()
	raw, err := NewObservationSource(client, path).FetchObservations(context.Background())
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.InDelta(t, 2.0, testutil.ToFloat64(client.metrics.InvalidCells), 0)
}

func TestPopulationSource_FetchPopulation(t *testing.T) {
	src := NewPopulationSource(testClient(), "testdata/population.csv", CensusPopulationColumn)
	records, err := src.FetchPopulation(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 6)
}

func TestObservationSource_FetchObservations_MissingFile(t *testing.T) {
	src := NewObservationSource(testClient(), "testdata/missing.csv")
	_, err := src.FetchObservations(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch observations")
}
