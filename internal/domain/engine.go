package domain

import (
	"sync"
	"time"
)

// Engine derives per-region metrics from normalized series.
type Engine struct {
	registry           *Registry
	populationAdjusted bool
	workers            int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithPopulationAdjusted expresses growth curves as cases per million.
func WithPopulationAdjusted(adjusted bool) EngineOption {
	return func(e *Engine) { e.populationAdjusted = adjusted }
}

// WithParallelism computes up to n regions at once. Each region writes only
// its own slot, so results do not depend on n.
func WithParallelism(n int) EngineOption {
	return func(e *Engine) { e.workers = n }
}

func NewEngine(registry *Registry, opts ...EngineOption) *Engine {
	e := &Engine{registry: registry, workers: 1}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Results is the immutable output of ComputeAll.
type Results struct {
	Regions            []string                  `json:"regions"`
	Outbreaks          map[string]OutbreakRecord `json:"outbreaks"`
	Curves             *GrowthCurveTable         `json:"curves"`
	PopulationAdjusted bool                      `json:"population_adjusted"`
	ComputedAt         time.Time                 `json:"computed_at"`

	metrics map[MetricKind]map[string]MetricSeries
}

// Metric returns the per-region series for kind.
func (r *Results) Metric(kind MetricKind) map[string]MetricSeries {
	return r.metrics[kind]
}

// Series returns one region's series for kind.
func (r *Results) Series(kind MetricKind, region string) MetricSeries {
	return r.metrics[kind][region]
}

// WithOnset counts regions whose onset has been reached.
func (r *Results) WithOnset() int {
	n := 0
	for _, o := range r.Outbreaks {
		if o.Reached() {
			n++
		}
	}
	return n
}

type regionResult struct {
	outbreak OutbreakRecord
	metrics  [4]MetricSeries
	curve    []Value
}

// ComputeAll runs every metric for every registry region. Regions missing
// from series are computed over an empty series; series for regions outside
// the registry are ignored.
func (e *Engine) ComputeAll(series map[string]Series) *Results {
	now := today()
	codes := e.registry.Codes()
	computed := make([]regionResult, len(codes))

	compute := func(i int) {
		computed[i] = e.computeRegion(codes[i], series[codes[i]], now)
	}

	if e.workers <= 1 {
		for i := range codes {
			compute(i)
		}
	} else {
		next := make(chan int)
		var wg sync.WaitGroup
		for range min(e.workers, len(codes)) {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range next {
					compute(i)
				}
			}()
		}
		for i := range codes {
			next <- i
		}
		close(next)
		wg.Wait()
	}

	res := &Results{
		Regions:            codes,
		Outbreaks:          make(map[string]OutbreakRecord, len(codes)),
		PopulationAdjusted: e.populationAdjusted,
		ComputedAt:         clock.Now().UTC(),
		metrics:            make(map[MetricKind]map[string]MetricSeries, len(MetricKinds())),
	}
	for _, kind := range MetricKinds() {
		res.metrics[kind] = make(map[string]MetricSeries, len(codes))
	}

	curves := newGrowthCurveTable(codes)
	for i, code := range codes {
		r := computed[i]
		res.Outbreaks[code] = r.outbreak
		for _, kind := range MetricKinds() {
			res.metrics[kind][code] = r.metrics[kind]
		}
		curves.setColumn(i, r.curve)
	}
	curves.compact()
	res.Curves = curves

	return res
}

func (e *Engine) computeRegion(code string, s Series, now time.Time) regionResult {
	population, _ := e.registry.Population(code)
	positives := s.positives()
	totals := s.totals()

	var r regionResult
	r.outbreak = outbreakOnset(s, now)
	r.metrics[TestRate] = newMetricSeries(s, perMillion(totals, population))
	r.metrics[GrowthRate] = newMetricSeries(s, compoundGrowth(positives))
	r.metrics[PositivityRate] = newMetricSeries(s, windowRatio(positives, totals))
	r.metrics[DeathRate] = newMetricSeries(s, compoundGrowth(s.deaths()))
	r.curve = growthCurve(s, r.outbreak, population, e.populationAdjusted)
	return r
}
