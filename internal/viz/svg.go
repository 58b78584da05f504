package viz

import (
	"fmt"
	"strings"

	"github.com/san-kum/linlab/internal/dataset"
	"github.com/san-kum/linlab/internal/fitting"
)

const svgPadding = 0.1

// FitSVG draws the points of d with their error bars and, when m is not
// nil, the fitted curve of m over the X range of the data.
func FitSVG(d dataset.Dataset, m *fitting.Model, params []float64, width, height int) string {
	if d.Len() == 0 {
		return ""
	}

	var cx, cy []float64
	if m != nil {
		xs, _ := sorted(d)
		cx, cy = fitting.Curve(*m, params, xs[0], xs[len(xs)-1], 200)
	}

	xlo, xhi := bounds(spread(d.X), cx)
	ylo, yhi := bounds(spread(d.Y), cy)
	rangeX, rangeY := xhi-xlo, yhi-ylo
	xlo, xhi = xlo-rangeX*svgPadding, xhi+rangeX*svgPadding
	ylo, yhi = ylo-rangeY*svgPadding, yhi+rangeY*svgPadding
	rangeX, rangeY = xhi-xlo, yhi-ylo

	px := func(x float64) float64 { return (x - xlo) / rangeX * float64(width) }
	py := func(y float64) float64 { return float64(height) - (y-ylo)/rangeY*float64(height) }

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	if len(cx) > 0 {
		sb.WriteString(`<path fill="none" stroke="#00ccff" stroke-width="1.5" d="`)
		move := true
		for i := range cx {
			if !finite(cy[i]) {
				move = true
				continue
			}
			cmd := " L"
			if move {
				cmd = " M"
				move = false
			}
			sb.WriteString(fmt.Sprintf("%s%.1f,%.1f", cmd, px(cx[i]), py(cy[i])))
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString(`<g stroke="#888899" stroke-width="1">` + "\n")
	for i, x := range d.X.Values {
		y := d.Y.Values[i]
		if d.Y.HasUncertainty() && d.Y.Uncertainties[i] > 0 {
			e := d.Y.Uncertainties[i]
			sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n", px(x), py(y-e), px(x), py(y+e)))
		}
		if d.X.HasUncertainty() && d.X.Uncertainties[i] > 0 {
			e := d.X.Uncertainties[i]
			sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n", px(x-e), py(y), px(x+e), py(y)))
		}
	}
	sb.WriteString("</g>\n")

	sb.WriteString(`<g fill="#00ff88">` + "\n")
	for i, x := range d.X.Values {
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="3"/>`+"\n", px(x), py(d.Y.Values[i])))
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// spread returns the values of s widened by their uncertainties.
func spread(s dataset.Series) []float64 {
	if !s.HasUncertainty() {
		return s.Values
	}
	out := make([]float64, 0, 2*len(s.Values))
	for i, v := range s.Values {
		out = append(out, v-s.Uncertainties[i], v+s.Uncertainties[i])
	}
	return out
}
