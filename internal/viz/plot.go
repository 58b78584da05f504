package viz

import (
	"sort"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/linlab/internal/dataset"
	"github.com/san-kum/linlab/internal/fitting"
)

const (
	PlotHeight = 10
	PlotWidth  = 80
)

// sorted returns the points of d ordered by X.
func sorted(d dataset.Dataset) (xs, ys []float64) {
	idx := make([]int, d.Len())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return d.X.Values[idx[a]] < d.X.Values[idx[b]] })

	xs = make([]float64, len(idx))
	ys = make([]float64, len(idx))
	for i, j := range idx {
		xs[i] = d.X.Values[j]
		ys[i] = d.Y.Values[j]
	}
	return xs, ys
}

// PlotData draws Y against point order, sorted by X.
func PlotData(d dataset.Dataset, caption string) string {
	if d.Len() == 0 {
		return ""
	}
	if caption == "" {
		caption = d.Y.Title + " vs " + d.X.Title
	}
	_, ys := sorted(d)
	return asciigraph.Plot(ys,
		asciigraph.Height(PlotHeight),
		asciigraph.Width(PlotWidth),
		asciigraph.Caption(caption),
	)
}

// PlotFit overlays the model prediction on the observed points. Both series
// are sampled at the observed X values.
func PlotFit(d dataset.Dataset, m fitting.Model, params []float64) string {
	if d.Len() == 0 {
		return ""
	}
	xs, ys := sorted(d)
	predicted := make([]float64, len(xs))
	for i, x := range xs {
		predicted[i] = m.Eval(x, params)
	}
	return asciigraph.PlotMany([][]float64{ys, predicted},
		asciigraph.Height(PlotHeight),
		asciigraph.Width(PlotWidth),
		asciigraph.Caption(m.Name+": "+m.Formula),
	)
}

// Residuals returns y - Eval(x) in X order.
func Residuals(d dataset.Dataset, m fitting.Model, params []float64) []float64 {
	xs, ys := sorted(d)
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = ys[i] - m.Eval(x, params)
	}
	return out
}

// ScatterFit draws the points of d with the fitted curve on a braille canvas.
func ScatterFit(d dataset.Dataset, m fitting.Model, params []float64, w, h int) string {
	if d.Len() == 0 {
		return ""
	}
	xs, _ := sorted(d)
	cx, cy := fitting.Curve(m, params, xs[0], xs[len(xs)-1], w*2)
	return Scatter(d, cx, cy, w, h).String()
}
