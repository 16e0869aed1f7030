package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/covid-state-tracker/internal/domain"
)

// Column names of the census population estimates file.
const (
	CensusStateColumn      = "STATE"
	CensusPopulationColumn = "POPESTIMATE2019"
)

// Column names of the covidtracking daily states file.
const (
	ColumnState            = "state"
	ColumnDate             = "date"
	ColumnPositive         = "positive"
	ColumnDeath            = "death"
	ColumnTotal            = "total"
	ColumnTotalTestResults = "totalTestResults"
)

var errMissingColumn = errors.New("missing column")

// InvalidCell is a non-empty count cell that did not parse as a number. The
// value is treated as absent.
type InvalidCell struct {
	Line   int    `json:"line"`
	Column string `json:"column"`
	Value  string `json:"value"`
}

func (c InvalidCell) String() string {
	return fmt.Sprintf("line %d %s=%q", c.Line, c.Column, c.Value)
}

// ParsePopulation reads the census estimates CSV. column selects the
// estimate year; every row is returned, including aggregate rows with
// identifier 0, so the registry decides what to keep.
func ParsePopulation(r io.Reader, column string) ([]domain.PopulationRecord, error) {
	if column == "" {
		column = CensusPopulationColumn
	}
	cr := newReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read population header: %w", err)
	}
	idx := indexColumns(header)
	stateCol, ok := idx[CensusStateColumn]
	if !ok {
		return nil, fmt.Errorf("parse population: %w: %s", errMissingColumn, CensusStateColumn)
	}
	popCol, ok := idx[column]
	if !ok {
		return nil, fmt.Errorf("parse population: %w: %s", errMissingColumn, column)
	}

	var records []domain.PopulationRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read population row: %w", err)
		}
		line, _ := cr.FieldPos(0)

		id, err := strconv.Atoi(strings.TrimSpace(row[stateCol]))
		if err != nil {
			return nil, fmt.Errorf("parse population line %d: %s: %w", line, CensusStateColumn, err)
		}
		estimate, err := strconv.ParseInt(strings.TrimSpace(row[popCol]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse population line %d: %s: %w", line, column, err)
		}
		records = append(records, domain.PopulationRecord{Identifier: id, Estimate: estimate})
	}
	return records, nil
}

// ParseObservations reads the daily states CSV. Blank count cells are
// absent values. Non-numeric count cells are also absent and are reported
// in the returned InvalidCell list. An unparseable date is kept as 0 so the
// normalizer rejects that record alone.
func ParseObservations(r io.Reader) ([]domain.RawObservation, []InvalidCell, error) {
	cr := newReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read observations header: %w", err)
	}
	idx := indexColumns(header)
	// The reader reuses its record slice, so keep the names.
	names := slices.Clone(header)
	for _, name := range []string{ColumnState, ColumnDate} {
		if _, ok := idx[name]; !ok {
			return nil, nil, fmt.Errorf("parse observations: %w: %s", errMissingColumn, name)
		}
	}
	totalCol, ok := idx[ColumnTotal]
	if !ok {
		totalCol, ok = idx[ColumnTotalTestResults]
	}
	if !ok {
		totalCol = -1
	}
	positiveCol := optionalColumn(idx, ColumnPositive)
	deathCol := optionalColumn(idx, ColumnDeath)

	var (
		out     []domain.RawObservation
		invalid []InvalidCell
	)
	count := func(row []string, col int) domain.Value {
		v, ok := cell(row, col)
		if !ok {
			line, _ := cr.FieldPos(col)
			invalid = append(invalid, InvalidCell{Line: line, Column: names[col], Value: row[col]})
		}
		return v
	}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read observations row: %w", err)
		}
		date, _ := strconv.Atoi(strings.TrimSpace(row[idx[ColumnDate]]))
		out = append(out, domain.RawObservation{
			Region:   row[idx[ColumnState]],
			Date:     date,
			Positive: count(row, positiveCol),
			Death:    count(row, deathCol),
			Total:    count(row, totalCol),
		})
	}
	return out, invalid, nil
}

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.TrimLeadingSpace = true
	return cr
}

func indexColumns(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")
		idx[name] = i
	}
	return idx
}

func optionalColumn(idx map[string]int, name string) int {
	if i, ok := idx[name]; ok {
		return i
	}
	return -1
}

// cell reads a count cell. ok is false only for a non-empty cell that is
// not a number.
func cell(row []string, col int) (v domain.Value, ok bool) {
	if col < 0 || col >= len(row) {
		return domain.Value{}, true
	}
	s := strings.TrimSpace(row[col])
	if s == domain.EmptyCell {
		return domain.Value{}, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return domain.Value{}, false
	}
	return domain.Some(f), true
}
