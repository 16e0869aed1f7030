// Command genmock generates deterministic synthetic input fixtures for the
// tracker: a census-style population file and a covidtracking-style daily
// states file. It then runs the real domain package over them with a fixed
// clock and writes the expected comparison snapshot and growth curves, so
// cmd/validate can check a tracker build against known output.
//
// The small hand-checked fixture in data/mock is maintained separately.
//
// Usage:
//
//	go run ./cmd/genmock -out-dir data/synthetic -days 60 -seed 7
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"maps"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/couchcryptid/covid-state-tracker/internal/domain"
	"github.com/couchcryptid/covid-state-tracker/internal/render"
	"github.com/jonboulle/clockwork"
)

// Output file names, shared with cmd/validate by convention.
const (
	populationFile = "population.csv"
	dailyFile      = "daily.csv"
	snapshotFile   = "expected_snapshot.csv"
	curvesFile     = "expected_curves.csv"
)

// regionModel is the synthetic epidemic for one region.
type regionModel struct {
	code       string
	id         int
	population int64
	seedCases  float64
	growth     float64 // daily multiplicative growth of positives
	positivity float64 // share of tests that come back positive
	fatality   float64 // deaths per positive
	deathLag   int     // days before deaths start being reported
	testsFrom  int     // days before test totals start being reported
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "", "directory for generated fixtures")
	startStr := flag.String("start", "2020-03-01", "first observation date (YYYY-MM-DD)")
	days := flag.Int("days", 45, "number of observation days")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out-dir")
	}
	if *days < 1 {
		return fmt.Errorf("-days must be positive")
	}
	start, err := time.Parse(time.DateOnly, *startStr)
	if err != nil {
		return fmt.Errorf("parse -start: %w", err)
	}

	models := buildModels(rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15)))
	raw := simulate(models, start, *days)
	log.Printf("generated %d regions, %d observations", len(models), len(raw))

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(*outDir, populationFile), populationRecords(models)); err != nil {
		return fmt.Errorf("writing population fixture: %w", err)
	}
	if err := writeCSV(filepath.Join(*outDir, dailyFile), dailyRecords(raw)); err != nil {
		return fmt.Errorf("writing daily fixture: %w", err)
	}

	// Fixed clock one day after the last observation for reproducible
	// days-since-onset values.
	asOf := start.AddDate(0, 0, *days)
	domain.SetClock(clockwork.NewFakeClockAt(asOf))
	defer domain.SetClock(nil)

	results, table, err := expected(models, raw)
	if err != nil {
		return err
	}
	if err := render.WriteFile(filepath.Join(*outDir, snapshotFile), func(w io.Writer) error {
		return render.WriteSnapshotCSV(w, table)
	}); err != nil {
		return fmt.Errorf("writing expected snapshot: %w", err)
	}
	if err := render.WriteFile(filepath.Join(*outDir, curvesFile), func(w io.Writer) error {
		return render.WriteCurvesCSV(w, results.Curves)
	}); err != nil {
		return fmt.Errorf("writing expected curves: %w", err)
	}

	log.Printf("wrote fixtures to %s (as of %s)", *outDir, asOf.Format(time.DateOnly))
	printStats(results, table)
	return nil
}

func buildModels(rng *rand.Rand) []regionModel {
	codes := domain.DefaultStateCodes()
	ids := slices.Sorted(maps.Keys(codes))

	models := make([]regionModel, 0, len(ids))
	for _, id := range ids {
		m := regionModel{
			code:       codes[id],
			id:         id,
			population: 500_000 + rng.Int64N(39_000_000),
			seedCases:  float64(1 + rng.IntN(40)),
			growth:     0.05 + 0.25*rng.Float64(),
			positivity: 0.04 + 0.2*rng.Float64(),
			fatality:   0.01 + 0.04*rng.Float64(),
			deathLag:   rng.IntN(10),
		}
		// A few regions never report test totals.
		if rng.IntN(12) == 0 {
			m.testsFrom = math.MaxInt
		} else {
			m.testsFrom = rng.IntN(5)
		}
		models = append(models, m)
	}
	return models
}

// simulate returns observations newest first, as the upstream file lists them.
func simulate(models []regionModel, start time.Time, days int) []domain.RawObservation {
	raw := make([]domain.RawObservation, 0, len(models)*days)
	for d := days - 1; d >= 0; d-- {
		date := start.AddDate(0, 0, d)
		dateInt := date.Year()*10000 + int(date.Month())*100 + date.Day()
		for _, m := range models {
			positive := math.Floor(m.seedCases * math.Pow(1+m.growth, float64(d)))
			obs := domain.RawObservation{
				Region:   m.code,
				Date:     dateInt,
				Positive: domain.Some(positive),
			}
			if d >= m.deathLag {
				obs.Death = domain.Some(math.Floor(positive * m.fatality))
			}
			if d >= m.testsFrom {
				obs.Total = domain.Some(math.Floor(positive / m.positivity))
			}
			raw = append(raw, obs)
		}
	}
	return raw
}

func populationRecords(models []regionModel) [][]string {
	var total int64
	for _, m := range models {
		total += m.population
	}
	rows := [][]string{
		{"SUMLEV", "REGION", "DIVISION", "STATE", "NAME", "POPESTIMATE2019"},
		{"010", "0", "0", "00", "United States", strconv.FormatInt(total, 10)},
	}
	for _, m := range models {
		rows = append(rows, []string{"040", "0", "0", fmt.Sprintf("%02d", m.id), m.code, strconv.FormatInt(m.population, 10)})
	}
	return rows
}

func dailyRecords(raw []domain.RawObservation) [][]string {
	rows := make([][]string, 0, len(raw)+1)
	rows = append(rows, []string{"date", "state", "positive", "death", "total"})
	for _, o := range raw {
		rows = append(rows, []string{
			strconv.Itoa(o.Date),
			o.Region,
			o.Positive.String(),
			o.Death.String(),
			o.Total.String(),
		})
	}
	return rows
}

// expected runs the domain computations exactly as the tracker does.
func expected(models []regionModel, raw []domain.RawObservation) (*domain.Results, domain.ComparisonTable, error) {
	records := make([]domain.PopulationRecord, 0, len(models))
	for _, m := range models {
		records = append(records, domain.PopulationRecord{Identifier: m.id, Estimate: m.population})
	}
	registry, err := domain.BuildRegistry(records, domain.DefaultStateCodes())
	if err != nil {
		return nil, domain.ComparisonTable{}, err
	}

	results := domain.NewEngine(registry, domain.WithPopulationAdjusted(true)).ComputeAll(domain.Normalize(raw).Series)
	table, err := results.Snapshot(domain.TestRate, domain.PositivityRate, "", "", nil)
	if err != nil {
		log.Printf("snapshot skipped regions: %v", table.Skipped)
	}
	return results, table, nil
}

func writeCSV(path string, rows [][]string) error {
	return render.WriteFile(path, func(w io.Writer) error {
		return csv.NewWriter(w).WriteAll(rows)
	})
}

func printStats(results *domain.Results, table domain.ComparisonTable) {
	buckets := make(map[domain.Urgency]int)
	for _, r := range table.Rows {
		buckets[r.Urgency]++
	}
	log.Printf("regions with onset: %d/%d", results.WithOnset(), len(results.Regions))
	log.Printf("snapshot rows: %d, skipped: %d", len(table.Rows), len(table.Skipped))
	for _, u := range domain.Urgencies() {
		log.Printf("  %-24s %d", u, buckets[u])
	}
	log.Printf("curve days: %d", len(results.Curves.Rows))
}
