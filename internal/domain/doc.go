// Package domain derives per-state COVID-19 metrics from cumulative daily
// counts and population estimates.
//
// # Data Sources
//
// Population estimates come from the US Census Bureau national/state totals
// file (nst-est2019-alldata.csv). Each row carries a numeric STATE (FIPS)
// identifier and a POPESTIMATE2019 column. STATE 0 marks the national and
// census-region total rows; those are aggregates and never regions. The
// FIPS to postal code table is [DefaultStateCodes].
//
// Daily counts come from the COVID Tracking Project states/daily.csv. Each
// row is one state on one date:
//
//	date      YYYYMMDD integer, e.g. 20200302
//	state     postal code, e.g. "CA"
//	positive  cumulative positive cases
//	death     cumulative deaths
//	total     cumulative tests (later files name it totalTestResults)
//
// All counts are cumulative to date. They are expected to be non-decreasing
// but revisions occasionally make them dip. Blank cells are absent values,
// not zeros.
//
// # Metrics
//
// Onset is the first date a state's cumulative positive count reaches
// [OutbreakThreshold] (100). Days since onset is measured against the
// package clock (see [SetClock]).
//
//	testing rate   total * 1,000,000 / population       (pointwise)
//	growth rate    ((max-min)/min + 1)^(1/3) - 1         (4-sample window on positive)
//	death rate     same as growth rate, on death
//	positive rate  (max-min of positive)/(max-min of total) over the window
//
// Windows are [WindowSize] samples, not calendar days. The first three points
// of every windowed series are absent, as is any point whose window holds an
// absent sample, a zero minimum (growth) or a flat test count (positivity).
//
// # Growth Curves
//
// Each state's positive counts from onset onward are re-indexed to relative
// days 1..[CurveDays]. With population adjustment the values are divided by
// population/1,000,000 (cases per million). Rows absent for every state are
// dropped; remaining gaps stay absent and render as [EmptyCell].
//
// # Comparison
//
// [Results.Snapshot] takes the latest defined value of two metrics per state
// and attaches days since onset, an [Urgency] bucket and a marker size for
// plotting.
package domain
