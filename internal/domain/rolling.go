package domain

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// WindowSize is the number of samples (current plus three prior) in every
// rolling metric. Windows count samples, not calendar days: a reporting gap
// widens the span a window covers.
const WindowSize = 4

// window returns the WindowSize samples ending at index i. It reports false
// when the window is incomplete or holds an absent sample.
func window(values []Value, i int) ([]float64, bool) {
	if i < WindowSize-1 || i >= len(values) {
		return nil, false
	}
	w := make([]float64, WindowSize)
	for j := range WindowSize {
		v, ok := values[i-WindowSize+1+j].Get()
		if !ok {
			return nil, false
		}
		w[j] = v
	}
	return w, true
}

// compoundGrowth estimates the daily growth rate implied by the net change
// across each window: ((max-min)/min + 1)^(1/3) - 1. A zero minimum leaves
// the point absent.
func compoundGrowth(values []Value) []Value {
	out := make([]Value, len(values))
	for i := range values {
		w, ok := window(values, i)
		if !ok {
			continue
		}
		lo, hi := floats.Min(w), floats.Max(w)
		if lo <= 0 {
			continue
		}
		out[i] = Some(math.Pow((hi-lo)/lo+1, 1.0/float64(WindowSize-1)) - 1)
	}
	return out
}

// windowRatio divides the net change of num by the net change of den over
// each window. A flat denominator leaves the point absent.
func windowRatio(num, den []Value) []Value {
	out := make([]Value, len(num))
	for i := range num {
		n, okN := window(num, i)
		d, okD := window(den, i)
		if !okN || !okD {
			continue
		}
		spread := floats.Max(d) - floats.Min(d)
		if spread == 0 {
			continue
		}
		out[i] = Some((floats.Max(n) - floats.Min(n)) / spread)
	}
	return out
}

// perMillion scales each value by 1,000,000 / population.
func perMillion(values []Value, population int64) []Value {
	out := make([]Value, len(values))
	for i, v := range values {
		if x, ok := v.Get(); ok {
			out[i] = Some(x * 1_000_000 / float64(population))
		}
	}
	return out
}
