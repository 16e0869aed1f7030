package render

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/couchcryptid/covid-state-tracker/internal/domain"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// absentMarker is how echarts expects a gap in series data.
const absentMarker = "-"

// Report is everything the HTML page shows.
type Report struct {
	RunID              string
	Snapshot           domain.ComparisonTable
	Curves             *domain.GrowthCurveTable
	PopulationAdjusted bool
}

// WriteHTML renders the interactive report page: the comparison scatter
// followed by the growth curves.
func WriteHTML(w io.Writer, r Report) error {
	page := components.NewPage()
	page.PageTitle = r.Snapshot.Title()
	page.AddCharts(comparisonScatter(r.Snapshot, r.RunID))
	if r.Curves != nil {
		page.AddCharts(curveLines(r.Curves, r.PopulationAdjusted))
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

func comparisonScatter(table domain.ComparisonTable, runID string) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: table.Title(), Width: "1000px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: table.Title(), Subtitle: fmt.Sprintf("run=%s regions=%d", runID, len(table.Rows))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: table.XLabel, NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: table.YLabel, NameLocation: "middle", NameGap: 40}),
	)

	for _, u := range domain.Urgencies() {
		data := scatterData(table.Rows, u)
		if len(data) == 0 {
			continue
		}
		scatter.AddSeries(u.String(), data,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: u.Color()}),
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "right", Formatter: "{b}"}),
		)
	}
	return scatter
}

func scatterData(rows []domain.ComparisonRow, u domain.Urgency) []opts.ScatterData {
	var data []opts.ScatterData
	for _, row := range rows {
		if row.Urgency != u {
			continue
		}
		data = append(data, opts.ScatterData{
			Name:       row.Region,
			Value:      []interface{}{row.X, row.Y, row.DaysSinceOnset},
			SymbolSize: int(math.Round(markerDiameter(row.MarkerSize))),
		})
	}
	return data
}

func curveLines(curves *domain.GrowthCurveTable, populationAdjusted bool) *charts.Line {
	yName := "cases"
	if populationAdjusted {
		yName = "cases per million"
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1000px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Cumulative cases since 100th case"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll", Right: "10"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "days since 100th case", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: yName}),
	)

	days := make([]string, len(curves.Rows))
	for i, row := range curves.Rows {
		days[i] = strconv.Itoa(row.Day)
	}
	line.SetXAxis(days)

	for _, region := range curves.Regions {
		data, ok := lineData(curves.Column(region))
		if !ok {
			continue
		}
		line.AddSeries(region, data)
	}
	return line
}

// lineData maps cells to echarts points and reports whether any is defined.
func lineData(col []domain.Value) ([]opts.LineData, bool) {
	data := make([]opts.LineData, len(col))
	defined := false
	for i, v := range col {
		if val, ok := v.Get(); ok {
			data[i] = opts.LineData{Value: val}
			defined = true
		} else {
			data[i] = opts.LineData{Value: absentMarker}
		}
	}
	return data, defined
}
