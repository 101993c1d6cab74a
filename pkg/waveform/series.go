package waveform

import (
	"io"
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Series is one curve of an analysis result.
type Series struct {
	Name string
	X    []float64
	Y    []float64
}

// Renderer draws series against a shared x axis as a PNG image.
type Renderer func(w io.Writer, title, xLabel string, series []Series) error

func ParseRenderer(name string) (Renderer, error) {
	switch strings.ToLower(name) {
	case "", "plot":
		return RenderPlot, nil
	case "chart":
		return RenderChart, nil
	}
	return nil, errors.Errorf("unknown renderer %q", name)
}

// Select picks keys from analysis results against the axis key ("TIME" or
// "SWEEP"). With no keys every node voltage is selected, sorted by name.
func Select(results map[string][]float64, axis string, keys []string) ([]Series, error) {
	x, ok := results[axis]
	if !ok {
		return nil, errors.Errorf("results have no %s axis", axis)
	}

	if len(keys) == 0 {
		for k := range results {
			if strings.HasPrefix(k, "V(") {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
	}

	series := make([]Series, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		y, ok := results[k]
		if !ok {
			return nil, errors.Errorf("no result named %s", k)
		}
		if len(y) != len(x) {
			return nil, errors.Errorf("%s has %d points, %s has %d", k, len(y), axis, len(x))
		}
		series = append(series, Series{Name: k, X: x, Y: y})
	}
	if len(series) == 0 {
		return nil, errors.New("nothing to plot")
	}
	return series, nil
}

// bounds returns the y range of all series, widened when flat.
func bounds(series []Series) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range s.Y {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 0) {
		return -1, 1
	}
	if hi-lo < 1e-12 {
		pad := math.Max(math.Abs(hi)*0.1, 1)
		lo, hi = lo-pad, hi+pad
	}
	return lo, hi
}
