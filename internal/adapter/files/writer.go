package files

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/covid-state-tracker/internal/pipeline"
	"github.com/couchcryptid/covid-state-tracker/internal/render"
)

// Output file names inside the output directory.
const (
	SnapshotCSV = "snapshot.csv"
	CurvesCSV   = "curves.csv"
	DotPlotPNG  = "comparison.png"
	CurvesPNG   = "curves.png"
	ReportHTML  = "report.html"
	ReportJSON  = "report.json"
)

// Writer renders every report artifact into one directory.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter creates a Writer for dir. The directory is created on first Load.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

// Load writes the CSV tables, PNG charts, HTML page and JSON report.
func (w *Writer) Load(ctx context.Context, report *pipeline.Report) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	outputs := []struct {
		name  string
		write func(io.Writer) error
	}{
		{SnapshotCSV, func(out io.Writer) error { return render.WriteSnapshotCSV(out, report.Snapshot) }},
		{CurvesCSV, func(out io.Writer) error { return render.WriteCurvesCSV(out, report.Results.Curves) }},
		{DotPlotPNG, func(out io.Writer) error {
			p, err := render.DotPlot(report.Snapshot)
			if err != nil {
				return err
			}
			return render.WritePNG(out, p)
		}},
		{CurvesPNG, func(out io.Writer) error {
			p, err := render.CurvePlot(report.Results.Curves, report.Results.PopulationAdjusted)
			if err != nil {
				return err
			}
			return render.WritePNG(out, p)
		}},
		{ReportHTML, func(out io.Writer) error { return render.WriteHTML(out, HTMLReport(report)) }},
		{ReportJSON, func(out io.Writer) error {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}},
	}

	for _, o := range outputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(w.dir, o.name)
		if err := render.WriteFile(path, o.write); err != nil {
			return fmt.Errorf("write %s: %w", o.name, err)
		}
		w.logger.Debug("output written", "path", path)
	}
	w.logger.Info("report written", "dir", w.dir, "files", len(outputs))
	return nil
}

// HTMLReport adapts a pipeline report to the HTML renderer.
func HTMLReport(report *pipeline.Report) render.Report {
	return render.Report{
		RunID:              report.RunID.String(),
		Snapshot:           report.Snapshot,
		Curves:             report.Results.Curves,
		PopulationAdjusted: report.Results.PopulationAdjusted,
	}
}
