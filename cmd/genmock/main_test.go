package main

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/couchcryptid/covid-state-tracker/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC)

func TestBuildModels_Deterministic(t *testing.T) {
	a := buildModels(rand.New(rand.NewPCG(7, 11)))
	b := buildModels(rand.New(rand.NewPCG(7, 11)))
	require.Len(t, a, len(domain.DefaultStateCodes()))
	if diff := cmp.Diff(a, b, cmp.AllowUnexported(regionModel{})); diff != "" {
		t.Errorf("models differ for same seed (-a +b):\n%s", diff)
	}
}

func TestSimulate_NewestFirstAndCumulative(t *testing.T) {
	models := buildModels(rand.New(rand.NewPCG(1, 2)))
	raw := simulate(models, start, 10)
	require.Len(t, raw, len(models)*10)
	assert.Equal(t, 20200310, raw[0].Date)
	assert.Equal(t, 20200301, raw[len(raw)-1].Date)

	norm := domain.Normalize(raw)
	assert.Empty(t, norm.Rejected)
	assert.Zero(t, norm.Duplicates)
	for region, s := range norm.Series {
		for i := 1; i < len(s); i++ {
			assert.GreaterOrEqual(t, s[i].Positive.V, s[i-1].Positive.V, region)
		}
	}
}

func TestExpected_MatchesFixtureRows(t *testing.T) {
	domain.SetClock(nil)
	models := buildModels(rand.New(rand.NewPCG(3, 4)))
	raw := simulate(models, start, 30)

	results, table, err := expected(models, raw)
	require.NoError(t, err)
	assert.Len(t, results.Regions, len(models))
	assert.Equal(t, len(models), len(table.Rows)+len(table.Skipped))

	pop := populationRecords(models)
	assert.Equal(t, "POPESTIMATE2019", pop[0][5])
	assert.Len(t, pop, len(models)+2)

	daily := dailyRecords(raw)
	assert.Equal(t, []string{"date", "state", "positive", "death", "total"}, daily[0])
	assert.Len(t, daily, len(raw)+1)
}
