package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/chargeplan/core/sweep"
)

// WriteSweepChart renders the coverage curve of a sweep as a standalone HTML
// page. The bound series is only drawn when at least one point carries a bound.
func WriteSweepChart(w io.Writer, title string, points []sweep.Point) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: "demand covered per budget"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Budget"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Coverage (%)"}),
	)

	xAxis := make([]string, len(points))
	heuristic := make([]opts.LineData, len(points))
	bound := make([]opts.LineData, len(points))
	bounded := false
	for i, p := range points {
		xAxis[i] = strconv.FormatFloat(p.Budget, 'f', -1, 64)
		heuristic[i] = opts.LineData{Value: round2(p.CoveragePercent)}
		if p.Bounded {
			bounded = true
			bound[i] = opts.LineData{Value: round2(p.BoundPercent)}
		} else {
			bound[i] = opts.LineData{Value: "-"}
		}
	}
	line.SetXAxis(xAxis).AddSeries("Heuristic", heuristic)
	if bounded {
		line.AddSeries("LP bound", bound)
	}
	if err := line.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func round2(v float64) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return f
}
