// Command validate performs integrity checks over tracker inputs and the
// results computed from them: input parity, metric invariants, and, when an
// expected-output directory from cmd/genmock is given, exact agreement with
// the expected snapshot and growth curves.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -population data/synthetic/population.csv \
//	  -daily data/synthetic/daily.csv \
//	  -expected data/synthetic
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/couchcryptid/covid-state-tracker/internal/adapter/source"
	"github.com/couchcryptid/covid-state-tracker/internal/domain"
	"github.com/jonboulle/clockwork"
)

// Expected-output file names written by cmd/genmock.
const (
	snapshotFile = "expected_snapshot.csv"
	curvesFile   = "expected_curves.csv"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// inputs is everything loaded from disk.
type inputs struct {
	population []domain.PopulationRecord
	raw        []domain.RawObservation
	invalid    []source.InvalidCell
	norm       domain.NormalizeResult
	registry   *domain.Registry
}

func main() {
	populationPath := flag.String("population", "", "path to census population CSV")
	dailyPath := flag.String("daily", "", "path to daily states CSV")
	expectedDir := flag.String("expected", "", "directory with expected_snapshot.csv and expected_curves.csv (optional)")
	asOfStr := flag.String("as-of", "", "evaluation date YYYY-MM-DD (default: day after the last observation)")
	flag.Parse()

	if *populationPath == "" || *dailyPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*populationPath, *dailyPath, *expectedDir, *asOfStr); code != 0 {
		os.Exit(code)
	}
}

func run(populationPath, dailyPath, expectedDir, asOfStr string) int {
	fmt.Println("=== Tracker Data Integrity Validation ===")
	fmt.Println()

	in, err := load(populationPath, dailyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	asOf, err := evaluationDate(asOfStr, in.norm)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	domain.SetClock(clockwork.NewFakeClockAt(asOf))
	defer domain.SetClock(nil)

	results := domain.NewEngine(in.registry, domain.WithPopulationAdjusted(true)).ComputeAll(in.norm.Series)
	table, snapErr := results.Snapshot(domain.TestRate, domain.PositivityRate, "", "", nil)

	phases := []*phase{
		validateInputs(in),
		validateMetrics(results, table, snapErr),
	}
	if expectedDir != "" {
		phases = append(phases, validateExpected(expectedDir, results, table))
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d population, %d daily (%d kept, %d rejected, %d duplicates), as of %s\n",
		len(in.population), len(in.raw), in.norm.Records(), len(in.norm.Rejected), in.norm.Duplicates,
		asOf.Format(time.DateOnly))
	fmt.Printf("Regions: %d computed, %d with onset, %d in snapshot, %d skipped\n",
		len(results.Regions), results.WithOnset(), len(table.Rows), len(table.Skipped))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func load(populationPath, dailyPath string) (*inputs, error) {
	pf, err := os.Open(populationPath)
	if err != nil {
		return nil, fmt.Errorf("open population: %w", err)
	}
	defer pf.Close()
	population, err := source.ParsePopulation(pf, source.CensusPopulationColumn)
	if err != nil {
		return nil, err
	}

	df, err := os.Open(dailyPath)
	if err != nil {
		return nil, fmt.Errorf("open daily: %w", err)
	}
	defer df.Close()
	raw, invalid, err := source.ParseObservations(df)
	if err != nil {
		return nil, err
	}

	registry, err := domain.BuildRegistry(population, domain.DefaultStateCodes())
	if err != nil {
		return nil, err
	}
	return &inputs{population: population, raw: raw, invalid: invalid, norm: domain.Normalize(raw), registry: registry}, nil
}

func evaluationDate(asOfStr string, norm domain.NormalizeResult) (time.Time, error) {
	if asOfStr != "" {
		t, err := time.Parse(time.DateOnly, asOfStr)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse -as-of: %w", err)
		}
		return t, nil
	}
	var last time.Time
	for _, s := range norm.Series {
		if n := len(s); n > 0 && s[n-1].Date.After(last) {
			last = s[n-1].Date
		}
	}
	if last.IsZero() {
		return time.Time{}, fmt.Errorf("no valid observations")
	}
	return last.AddDate(0, 0, 1), nil
}

// ── Phase 1: inputs ──

func validateInputs(in *inputs) *phase {
	p := &phase{name: "Input parity and ordering"}

	for _, c := range in.invalid {
		p.errorf("daily %s: not a number", c)
	}
	for _, rej := range in.norm.Rejected {
		p.errorf("daily row %d (%s %d): %v", rej.Index+2, rej.Region, rej.Date, rej.Err)
	}
	if in.norm.Duplicates > 0 {
		p.errorf("%d duplicate (region, date) rows", in.norm.Duplicates)
	}

	for region, s := range in.norm.Series {
		if !in.registry.Has(region) {
			p.errorf("region %s has observations but no population", region)
			continue
		}
		checkCumulative(p, region, s)
	}
	for _, code := range in.registry.Codes() {
		if len(in.norm.Series[code]) == 0 {
			p.errorf("region %s has population but no observations", code)
		}
	}
	return p
}

// checkCumulative verifies strictly increasing dates and non-decreasing
// cumulative counts.
func checkCumulative(p *phase, region string, s domain.Series) {
	cols := []struct {
		name string
		pick func(domain.Observation) domain.Value
	}{
		{"positive", func(o domain.Observation) domain.Value { return o.Positive }},
		{"death", func(o domain.Observation) domain.Value { return o.Death }},
		{"total", func(o domain.Observation) domain.Value { return o.Total }},
	}
	for i := 1; i < len(s); i++ {
		if !s[i].Date.After(s[i-1].Date) {
			p.errorf("%s: dates not increasing at %s", region, s[i].Date.Format(time.DateOnly))
		}
	}
	for _, c := range cols {
		prev := math.Inf(-1)
		for _, o := range s {
			v, ok := c.pick(o).Get()
			if !ok {
				continue
			}
			if v < 0 {
				p.errorf("%s %s: negative %s %g", region, o.Date.Format(time.DateOnly), c.name, v)
			}
			if v < prev {
				p.errorf("%s %s: %s decreased from %g to %g", region, o.Date.Format(time.DateOnly), c.name, prev, v)
			}
			prev = v
		}
	}
}

// ── Phase 2: metric invariants ──

func validateMetrics(results *domain.Results, table domain.ComparisonTable, snapErr error) *phase {
	p := &phase{name: "Metric invariants"}

	// Regions without defined values are expected in sparse inputs and show
	// up as Skipped; anything else from Snapshot is a failure.
	if snapErr != nil && !errors.Is(snapErr, domain.ErrEmptySeries) {
		p.errorf("snapshot: %v", snapErr)
	}

	for _, region := range results.Regions {
		o := results.Outbreaks[region]
		if o.DaysSince < 0 {
			p.errorf("%s: negative days since onset %d", region, o.DaysSince)
		}
		if !o.Reached() && o.DaysSince != 0 {
			p.errorf("%s: onset %s but days since %d", region, o.Status, o.DaysSince)
		}
		for _, pt := range results.Series(domain.GrowthRate, region) {
			if v, ok := pt.Value.Get(); ok && v < 0 {
				p.errorf("%s %s: negative growth rate %g", region, pt.Date.Format(time.DateOnly), v)
			}
		}
	}

	prevDay := 0
	for _, row := range results.Curves.Rows {
		if row.Day < 1 || row.Day > domain.CurveDays {
			p.errorf("curve day %d outside 1..%d", row.Day, domain.CurveDays)
		}
		if row.Day <= prevDay {
			p.errorf("curve day %d not increasing", row.Day)
		}
		prevDay = row.Day
	}

	for _, row := range table.Rows {
		if want := domain.UrgencyFor(row.DaysSinceOnset); row.Urgency != want {
			p.errorf("%s: urgency %s, want %s", row.Region, row.Urgency, want)
		}
		if want := domain.MarkerSize(row.DaysSinceOnset); !floatEq(row.MarkerSize, want) {
			p.errorf("%s: marker size %g, want %g", row.Region, row.MarkerSize, want)
		}
		if !slices.Contains(results.Regions, row.Region) {
			p.errorf("snapshot row for unknown region %s", row.Region)
		}
	}
	return p
}

// ── Phase 3: expected output ──

func validateExpected(dir string, results *domain.Results, table domain.ComparisonTable) *phase {
	p := &phase{name: "Expected snapshot and curves"}
	compareRecords(p, filepath.Join(dir, snapshotFile), table.Records())
	compareRecords(p, filepath.Join(dir, curvesFile), results.Curves.Records())
	return p
}

func compareRecords(p *phase, path string, got [][]string) {
	f, err := os.Open(path)
	if err != nil {
		p.errorf("open %s: %v", path, err)
		return
	}
	defer f.Close()

	want, err := csv.NewReader(f).ReadAll()
	if err != nil {
		p.errorf("read %s: %v", path, err)
		return
	}

	name := filepath.Base(path)
	if len(want) != len(got) {
		p.errorf("%s: %d rows, computed %d", name, len(want), len(got))
	}
	for i := range min(len(want), len(got)) {
		if len(want[i]) != len(got[i]) {
			p.errorf("%s line %d: %d columns, computed %d", name, i+1, len(want[i]), len(got[i]))
			continue
		}
		for j := range want[i] {
			if !cellEq(want[i][j], got[i][j]) {
				p.errorf("%s line %d column %d: %q, computed %q", name, i+1, j+1, want[i][j], got[i][j])
			}
		}
	}
}

// cellEq compares two cells numerically when both parse as floats.
func cellEq(a, b string) bool {
	if a == b {
		return true
	}
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA != nil || errB != nil {
		return false
	}
	return floatEq(fa, fb)
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*max(1, math.Abs(a), math.Abs(b))
}
