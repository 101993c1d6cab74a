package waveform

import (
	"io"

	"github.com/pkg/errors"
	chart "github.com/wcharczuk/go-chart"
)

// RenderChart draws series with go-chart.
func RenderChart(w io.Writer, title, xLabel string, series []Series) error {
	if len(series) == 0 {
		return errors.New("nothing to plot")
	}

	lo, hi := bounds(series)
	graph := chart.Chart{
		Title:      title,
		TitleStyle: chart.StyleShow(),
		Width:      1920,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:      xLabel,
			NameStyle: chart.StyleShow(),
			Style:     chart.StyleShow(),
		},
		YAxis: chart.YAxis{
			Name:      "value",
			NameStyle: chart.StyleShow(),
			Style:     chart.StyleShow(),
			Range:     &chart.ContinuousRange{Min: lo, Max: hi},
		},
	}
	for _, s := range series {
		graph.Series = append(graph.Series, chart.ContinuousSeries{
			Name: s.Name,
			Style: chart.Style{
				Show: true,
			},
			XValues: s.X,
			YValues: s.Y,
		})
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return errors.Wrap(err, "rendering chart")
	}
	return nil
}
