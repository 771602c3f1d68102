// Package plot draws learning curves, scatter plots, histograms, and
// GIFs of agents acting in environments
package plot

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"
)

const (
	Width  int = 800
	Height int = 500

	marginLeft   float64 = 80
	marginRight  float64 = 30
	marginTop    float64 = 50
	marginBottom float64 = 60
	ticks        int     = 5
)

var (
	background = color.White
	foreground = color.Black
	lineColour = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	meanColour = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	gridColour = color.RGBA{R: 220, G: 220, B: 220, A: 255}
)

// figure is a single set of axes drawn on a gg.Context
type figure struct {
	dc                     *gg.Context
	xMin, xMax, yMin, yMax float64
}

// newFigure returns a figure whose axes cover the given data ranges
// and draws its title, axis labels and ticks
func newFigure(title, xLabel, yLabel string, xMin, xMax, yMin,
	yMax float64) *figure {
	if xMin == xMax {
		xMin, xMax = xMin-1, xMax+1
	}
	if yMin == yMax {
		yMin, yMax = yMin-1, yMax+1
	}

	f := &figure{
		dc:   gg.NewContext(Width, Height),
		xMin: xMin,
		xMax: xMax,
		yMin: yMin,
		yMax: yMax,
	}
	f.drawAxes(title, xLabel, yLabel)
	return f
}

func (f *figure) drawAxes(title, xLabel, yLabel string) {
	dc := f.dc
	w, h := float64(Width), float64(Height)

	dc.SetColor(background)
	dc.Clear()

	// Grid and tick labels
	dc.SetLineWidth(1)
	for i := 0; i <= ticks; i++ {
		frac := float64(i) / float64(ticks)

		x := f.xMin + frac*(f.xMax-f.xMin)
		px, _ := f.point(x, f.yMin)
		dc.SetColor(gridColour)
		dc.DrawLine(px, marginTop, px, h-marginBottom)
		dc.Stroke()
		dc.SetColor(foreground)
		dc.DrawStringAnchored(tickLabel(x), px, h-marginBottom+15, 0.5, 0.5)

		y := f.yMin + frac*(f.yMax-f.yMin)
		_, py := f.point(f.xMin, y)
		dc.SetColor(gridColour)
		dc.DrawLine(marginLeft, py, w-marginRight, py)
		dc.Stroke()
		dc.SetColor(foreground)
		dc.DrawStringAnchored(tickLabel(y), marginLeft-8, py, 1, 0.5)
	}

	// Axes
	dc.SetColor(foreground)
	dc.SetLineWidth(1.5)
	dc.DrawLine(marginLeft, h-marginBottom, w-marginRight, h-marginBottom)
	dc.DrawLine(marginLeft, marginTop, marginLeft, h-marginBottom)
	dc.Stroke()

	dc.DrawStringAnchored(title, w/2, marginTop/2, 0.5, 0.5)
	dc.DrawStringAnchored(xLabel, w/2, h-marginBottom/3, 0.5, 0.5)

	dc.Push()
	dc.RotateAbout(gg.Radians(-90), marginLeft/4, h/2)
	dc.DrawStringAnchored(yLabel, marginLeft/4, h/2, 0.5, 0.5)
	dc.Pop()
}

// point converts data coordinates to pixel coordinates
func (f *figure) point(x, y float64) (float64, float64) {
	w := float64(Width) - marginLeft - marginRight
	h := float64(Height) - marginTop - marginBottom

	px := marginLeft + (x-f.xMin)/(f.xMax-f.xMin)*w
	py := float64(Height) - marginBottom - (y-f.yMin)/(f.yMax-f.yMin)*h
	return px, py
}

// line draws a polyline through the points (x[i], y[i])
func (f *figure) line(x, y []float64, c color.Color) {
	if len(x) == 0 {
		return
	}
	f.dc.SetColor(c)
	f.dc.SetLineWidth(2)

	f.dc.MoveTo(f.point(x[0], y[0]))
	for i := 1; i < len(x); i++ {
		f.dc.LineTo(f.point(x[i], y[i]))
	}
	f.dc.Stroke()
}

// scatter draws a small dot at each point (x[i], y[i])
func (f *figure) scatter(x, y []float64, c color.Color) {
	f.dc.SetColor(c)
	for i := range x {
		px, py := f.point(x[i], y[i])
		f.dc.DrawCircle(px, py, 2)
	}
	f.dc.Fill()
}

// bar draws a filled bar between x0 and x1 from the y axis minimum up
// to height
func (f *figure) bar(x0, x1, height float64, c color.Color) {
	left, top := f.point(x0, height)
	right, bottom := f.point(x1, f.yMin)

	f.dc.SetColor(c)
	f.dc.DrawRectangle(left, top, right-left, bottom-top)
	f.dc.FillPreserve()
	f.dc.SetColor(foreground)
	f.dc.SetLineWidth(0.5)
	f.dc.Stroke()
}

func (f *figure) save(filename string) error {
	if err := f.dc.SavePNG(filename); err != nil {
		return fmt.Errorf("could not save figure: %w", err)
	}
	return nil
}

func (f *figure) encode(w io.Writer) error {
	if err := f.dc.EncodePNG(w); err != nil {
		return fmt.Errorf("could not encode figure: %w", err)
	}
	return nil
}

// bounds returns the minimum and maximum of values
func bounds(values []float64) (float64, float64) {
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	return min, max
}

func tickLabel(v float64) string {
	switch abs := math.Abs(v); {
	case abs >= 1e5:
		return fmt.Sprintf("%.1e", v)
	case abs >= 100 || v == math.Trunc(v):
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
