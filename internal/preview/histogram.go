package preview

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/laser/internal/survey"
	"github.com/banshee-data/laser/las"
)

// Bin is one elevation histogram bucket covering [Lo, Hi).
type Bin struct {
	Lo, Hi float64
	Count  float64
}

// ElevationHistogram buckets the Z values of pts into bins equal-width bins
// spanning the observed range. NaN and infinite elevations are skipped.
func ElevationHistogram(pts []las.Point, bins int) ([]Bin, error) {
	if bins < 1 {
		return nil, fmt.Errorf("histogram needs at least one bin, got %d", bins)
	}

	zs := make([]float64, 0, len(pts))
	for _, p := range pts {
		if z := float64(p.Z); finite(z) {
			zs = append(zs, z)
		}
	}
	if len(zs) == 0 {
		return nil, ErrNoPoints
	}
	sort.Float64s(zs)

	lo, hi := zs[0], zs[len(zs)-1]
	dividers := make([]float64, bins+1)
	if hi > lo {
		floats.Span(dividers, lo, hi)
	} else {
		for i := range dividers {
			dividers[i] = lo + float64(i)
		}
	}
	// stat.Histogram bins are half-open; widen the last edge to keep hi.
	dividers[bins] = math.Nextafter(dividers[bins], math.Inf(1))

	counts := stat.Histogram(nil, dividers, zs, nil)
	out := make([]Bin, bins)
	for i := range out {
		out[i] = Bin{Lo: dividers[i], Hi: dividers[i+1], Count: counts[i]}
	}
	return out, nil
}

// RenderSurveyPage writes an HTML page with an elevation histogram of the
// report's sample and a bar chart of its classification counts.
func RenderSurveyPage(w io.Writer, r *survey.Report, bins int) error {
	hist, err := ElevationHistogram(r.Sample, bins)
	if err != nil {
		return err
	}

	page := components.NewPage()
	page.AddCharts(elevationChart(r, hist), classChart(r))
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	return nil
}

func elevationChart(r *survey.Report, hist []Bin) *charts.Bar {
	x := make([]string, len(hist))
	y := make([]opts.BarData, len(hist))
	for i, b := range hist {
		x[i] = fmt.Sprintf("%.2f", b.Lo)
		y[i] = opts.BarData{Value: b.Count}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Elevation",
			Subtitle: fmt.Sprintf("%s sample=%d stride=%d mean=%.2f sd=%.2f", r.Path, len(r.Sample), r.SampleStride, r.Z.Mean, r.Z.StdDev),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Z", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "points"}),
	)
	bar.SetXAxis(x).AddSeries("elevation", y)
	return bar
}

func classChart(r *survey.Report) *charts.Bar {
	var x []string
	var y []opts.BarData
	for class, n := range r.Classes {
		if n == 0 {
			continue
		}
		x = append(x, fmt.Sprintf("%d %s", class, las.Classification(class)))
		y = append(y, opts.BarData{Value: n})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Classification", Subtitle: fmt.Sprintf("points=%d", r.Points)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("classes", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}
