package preview

import (
	"errors"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/laser/las"
)

// ErrNoPoints is returned when there is nothing to render.
var ErrNoPoints = errors.New("no points to render")

// rampSteps is the number of elevation colour bands in the scatter.
const rampSteps = 16

// WriteScatterPNG draws pts top-down (X against Y) coloured by elevation and
// writes a PNG of size x size to w. Points with a non-finite coordinate are
// left out.
func WriteScatterPNG(w io.Writer, pts []las.Point, title string, size vg.Length) error {
	pts = finitePoints(pts)
	if len(pts) == 0 {
		return ErrNoPoints
	}

	xys := make(plotter.XYs, len(pts))
	zmin, zmax := math.Inf(1), math.Inf(-1)
	for i, p := range pts {
		xys[i] = plotter.XY{X: float64(p.X), Y: float64(p.Y)}
		zmin = math.Min(zmin, float64(p.Z))
		zmax = math.Max(zmax, float64(p.Z))
	}

	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("scatter: %w", err)
	}
	ramp := elevationRamp(rampSteps)
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{
			Color:  ramp[band(float64(pts[i].Z), zmin, zmax, rampSteps)],
			Radius: vg.Points(1),
			Shape:  draw.CircleGlyph{},
		}
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"
	p.Add(sc)
	p.Legend.Add(fmt.Sprintf("z %.2f..%.2f (%d points)", zmin, zmax, len(pts)), sc)
	p.Legend.Top = true

	wt, err := p.WriterTo(size, size, "png")
	if err != nil {
		return fmt.Errorf("png canvas: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

// finitePoints drops points with a NaN or infinite coordinate, which the
// plotter rejects. pts is returned unchanged when every point is finite.
func finitePoints(pts []las.Point) []las.Point {
	for i, p := range pts {
		if !finite(float64(p.X)) || !finite(float64(p.Y)) || !finite(float64(p.Z)) {
			out := append([]las.Point(nil), pts[:i]...)
			for _, q := range pts[i+1:] {
				if finite(float64(q.X)) && finite(float64(q.Y)) && finite(float64(q.Z)) {
					out = append(out, q)
				}
			}
			return out
		}
	}
	return pts
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// band maps v in [lo, hi] onto 0..n-1.
func band(v, lo, hi float64, n int) int {
	if hi <= lo {
		return 0
	}
	i := int((v - lo) / (hi - lo) * float64(n))
	return min(max(i, 0), n-1)
}
