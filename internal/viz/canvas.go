package viz

import (
	"math"
	"strings"

	"github.com/san-kum/linlab/internal/dataset"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
	return c
}

// Set sets a pixel at (x, y) in sub-pixel coordinates.
// The canvas size in sub-pixels is (Width*2) x (Height*4).
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Scatter draws the points of d, each with a small cross, and when curveX
// is non-empty joins (curveX, curveY) with line segments on the same scale.
// Non-finite curve samples break the line.
func Scatter(d dataset.Dataset, curveX, curveY []float64, w, h int) *Canvas {
	c := NewCanvas(w, h)
	if d.Len() == 0 {
		return c
	}

	xlo, xhi := bounds(d.X.Values, curveX)
	ylo, yhi := bounds(d.Y.Values, curveY)
	px := func(x float64) int { return int(math.Round((x - xlo) / (xhi - xlo) * float64(w*2-1))) }
	py := func(y float64) int { return int(math.Round((yhi - y) / (yhi - ylo) * float64(h*4-1))) }

	for i, x := range d.X.Values {
		cx, cy := px(x), py(d.Y.Values[i])
		c.Set(cx, cy)
		c.Set(cx-1, cy)
		c.Set(cx+1, cy)
		c.Set(cx, cy-1)
		c.Set(cx, cy+1)
	}

	prev := -1
	for i := range curveX {
		if !finite(curveY[i]) {
			prev = -1
			continue
		}
		if prev >= 0 {
			c.DrawLine(px(curveX[prev]), py(curveY[prev]), px(curveX[i]), py(curveY[i]))
		}
		prev = i
	}
	return c
}

// bounds spans every finite value, widened when degenerate.
func bounds(a, b []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, vs := range [][]float64{a, b} {
		for _, v := range vs {
			if !finite(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if lo > hi {
		return 0, 1
	}
	if hi == lo {
		return lo - 0.5, hi + 0.5
	}
	return lo, hi
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
