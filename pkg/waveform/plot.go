package waveform

import (
	"io"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const (
	plotWidth  = 8 * vg.Inch
	plotHeight = 4 * vg.Inch
)

// RenderPlot draws series with gonum/plot.
func RenderPlot(w io.Writer, title, xLabel string, series []Series) error {
	if len(series) == 0 {
		return errors.New("nothing to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "value"
	p.Add(plotter.NewGrid())

	lo, hi := bounds(series)
	p.Y.Min, p.Y.Max = lo, hi

	for i, s := range series {
		xys := make(plotter.XYs, len(s.X))
		for k := range s.X {
			xys[k].X = s.X[k]
			xys[k].Y = s.Y[k]
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return errors.Wrapf(err, "series %s", s.Name)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(s.Name, line)
	}
	p.Legend.Top = true

	wt, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return errors.Wrap(err, "rendering plot")
	}
	_, err = wt.WriteTo(w)
	return err
}
