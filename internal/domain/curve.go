package domain

import (
	"slices"
	"strconv"
)

// CurveDays is the number of relative days the growth curve table spans.
const CurveDays = 100

// CurveRow is one relative day of the growth curve table.
type CurveRow struct {
	Day   int     `json:"day"`
	Cells []Value `json:"cells"`
}

// GrowthCurveTable aligns every region's cumulative positive count to days
// since its onset. Columns follow Regions; cells may be absent.
type GrowthCurveTable struct {
	Regions []string   `json:"regions"`
	Rows    []CurveRow `json:"rows"`
}

func newGrowthCurveTable(regions []string) *GrowthCurveTable {
	t := &GrowthCurveTable{
		Regions: slices.Clone(regions),
		Rows:    make([]CurveRow, CurveDays),
	}
	for i := range t.Rows {
		t.Rows[i] = CurveRow{Day: i + 1, Cells: make([]Value, len(regions))}
	}
	return t
}

// setColumn writes values[k] to relative day k+1. Days past CurveDays are
// dropped.
func (t *GrowthCurveTable) setColumn(col int, values []Value) {
	for k, v := range values {
		if k >= len(t.Rows) {
			return
		}
		t.Rows[k].Cells[col] = v
	}
}

// compact drops rows in which every region is absent.
func (t *GrowthCurveTable) compact() {
	t.Rows = slices.DeleteFunc(t.Rows, func(r CurveRow) bool {
		return !slices.ContainsFunc(r.Cells, func(v Value) bool { return v.Valid })
	})
}

// Column returns the cells for a region, or nil if the region is unknown.
func (t *GrowthCurveTable) Column(region string) []Value {
	col := slices.Index(t.Regions, region)
	if col < 0 {
		return nil
	}
	out := make([]Value, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Cells[col]
	}
	return out
}

// Cell looks up one region on one relative day.
func (t *GrowthCurveTable) Cell(day int, region string) (Value, bool) {
	col := slices.Index(t.Regions, region)
	if col < 0 {
		return Value{}, false
	}
	for _, r := range t.Rows {
		if r.Day == day {
			return r.Cells[col], true
		}
	}
	return Value{}, false
}

// Records renders the table as a header row plus one row per relative day.
// Absent cells become EmptyCell.
func (t *GrowthCurveTable) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, append([]string{"day"}, t.Regions...))
	for _, r := range t.Rows {
		rec := make([]string, 0, len(r.Cells)+1)
		rec = append(rec, strconv.Itoa(r.Day))
		for _, c := range r.Cells {
			rec = append(rec, c.String())
		}
		out = append(out, rec)
	}
	return out
}

// growthCurve returns the positive counts from onset onward, optionally
// expressed per million residents.
func growthCurve(s Series, onset OutbreakRecord, population int64, adjusted bool) []Value {
	if !onset.Reached() {
		return nil
	}
	var out []Value
	for _, obs := range s {
		if obs.Date.Before(onset.Date) {
			continue
		}
		v := obs.Positive
		if adjusted && v.Valid {
			v = Some(v.V / (float64(population) / 1_000_000.0))
		}
		out = append(out, v)
	}
	return out
}
