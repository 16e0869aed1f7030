package render

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/couchcryptid/covid-state-tracker/internal/domain"
)

// WriteSnapshotCSV writes the comparison table with a header row.
func WriteSnapshotCSV(w io.Writer, table domain.ComparisonTable) error {
	if err := csv.NewWriter(w).WriteAll(table.Records()); err != nil {
		return fmt.Errorf("write snapshot csv: %w", err)
	}
	return nil
}

// WriteCurvesCSV writes the growth curve table, one row per relative day.
func WriteCurvesCSV(w io.Writer, curves *domain.GrowthCurveTable) error {
	if err := csv.NewWriter(w).WriteAll(curves.Records()); err != nil {
		return fmt.Errorf("write curves csv: %w", err)
	}
	return nil
}
