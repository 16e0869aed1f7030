// Package render turns computed results into tables and charts.
//
// The comparison snapshot renders as a dot plot: one marker per region with
// the X metric on the horizontal axis and the Y metric on the vertical axis,
// colored by urgency bucket, sized by days since onset squared and labeled
// with the region code. Growth curves render as one line per region over
// days since onset. PNG output uses gonum/plot; the interactive HTML report
// uses go-echarts. Absent values are never drawn: they are left out of the
// PNG series, written as "-" in echarts data and as empty cells in CSV.
package render
