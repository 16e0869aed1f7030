package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/couchcryptid/covid-state-tracker/internal/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Image dimensions for PNG output.
const (
	PlotWidth  = 10 * vg.Inch
	PlotHeight = 7 * vg.Inch
)

var urgencyColors = map[domain.Urgency]color.Color{
	domain.UrgencyJustCrossed: color.RGBA{R: 0, G: 128, B: 0, A: 255},
	domain.UrgencyVeryRecent:  color.RGBA{R: 173, G: 255, B: 47, A: 255},
	domain.UrgencyRecent:      color.RGBA{R: 255, G: 255, B: 0, A: 255},
	domain.UrgencyMature:      color.RGBA{R: 255, G: 165, B: 0, A: 255},
	domain.UrgencyMostMature:  color.RGBA{R: 255, G: 0, B: 0, A: 255},
}

// markerDiameter converts a marker area to a diameter in points.
func markerDiameter(size float64) float64 {
	return math.Sqrt(size)
}

// DotPlot builds the comparison dot plot.
func DotPlot(table domain.ComparisonTable) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = table.Title()
	p.X.Label.Text = table.XLabel
	p.Y.Label.Text = table.YLabel
	p.Add(plotter.NewGrid())

	inLegend := make(map[domain.Urgency]bool)
	labels := plotter.XYLabels{}
	for _, row := range table.Rows {
		sc, err := plotter.NewScatter(plotter.XYs{{X: row.X, Y: row.Y}})
		if err != nil {
			return nil, fmt.Errorf("plot region %s: %w", row.Region, err)
		}
		sc.GlyphStyle = draw.GlyphStyle{
			Color:  urgencyColors[row.Urgency],
			Radius: vg.Points(markerDiameter(row.MarkerSize) / 2),
			Shape:  draw.CircleGlyph{},
		}
		p.Add(sc)
		if !inLegend[row.Urgency] {
			inLegend[row.Urgency] = true
			p.Legend.Add(row.Urgency.String(), sc)
		}
		labels.XYs = append(labels.XYs, plotter.XY{X: row.X, Y: row.Y})
		labels.Labels = append(labels.Labels, row.Region)
	}

	if len(labels.Labels) > 0 {
		l, err := plotter.NewLabels(labels)
		if err != nil {
			return nil, fmt.Errorf("plot labels: %w", err)
		}
		l.Offset = vg.Point{X: vg.Points(6), Y: vg.Points(2)}
		p.Add(l)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// CurvePlot builds one line per region over days since onset. Regions with
// no defined cells are left out.
func CurvePlot(curves *domain.GrowthCurveTable, populationAdjusted bool) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Cumulative cases since 100th case"
	p.X.Label.Text = "days since 100th case"
	p.Y.Label.Text = "cases"
	if populationAdjusted {
		p.Y.Label.Text = "cases per million"
	}
	p.Add(plotter.NewGrid())

	drawn := 0
	for _, region := range curves.Regions {
		pts := curvePoints(curves, region)
		if len(pts) == 0 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("plot curve %s: %w", region, err)
		}
		line.Color = plotutil.Color(drawn)
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(region, line)
		drawn++
	}

	p.Legend.Top = true
	p.Legend.Left = true
	return p, nil
}

func curvePoints(curves *domain.GrowthCurveTable, region string) plotter.XYs {
	col := curves.Column(region)
	var pts plotter.XYs
	for i, v := range col {
		if val, ok := v.Get(); ok {
			pts = append(pts, plotter.XY{X: float64(curves.Rows[i].Day), Y: val})
		}
	}
	return pts
}

// WritePNG encodes p as a PNG image of the standard size.
func WritePNG(w io.Writer, p *plot.Plot) error {
	wt, err := p.WriterTo(PlotWidth, PlotHeight, "png")
	if err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}
