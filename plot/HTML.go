package plot

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/samuelfneumann/baselines/experiment/results"
)

// Run is a named set of episodes
type Run struct {
	Name     string
	Episodes []results.Episode
}

// WriteHTML writes an interactive HTML page to w, which plots the
// smoothed learning curves of all runs against the number of
// timesteps. Runs with too few episodes to smooth are left out.
func WriteHTML(w io.Writer, title string, window int, runs ...Run) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Timesteps", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Rewards"}),
	)

	for _, run := range runs {
		x, y, err := Curve(run.Episodes, window)
		if err != nil {
			continue
		}

		items := make([]opts.LineData, len(x))
		for i := range x {
			items[i] = opts.LineData{Value: []interface{}{x[i], y[i]}}
		}
		line.AddSeries(run.Name, items)
	}

	page := components.NewPage()
	page.AddCharts(line)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("writeHTML: %w", err)
	}
	return nil
}
