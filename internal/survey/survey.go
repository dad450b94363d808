package survey

import (
	"context"
	"fmt"
	"io"

	"github.com/banshee-data/laser/internal/config"
	"github.com/banshee-data/laser/internal/fsutil"
	"github.com/banshee-data/laser/las"
)

// Report is the result of surveying one LAS file.
type Report struct {
	Path   string     `json:"path,omitempty"`
	Size   int64      `json:"size,omitempty"`
	Header las.Header `json:"header"`
	Info   las.Info   `json:"info"`

	// Points is the number of records decoded.
	Points uint64 `json:"points"`

	X         AxisStats `json:"x"`
	Y         AxisStats `json:"y"`
	Z         AxisStats `json:"z"`
	Intensity AxisStats `json:"intensity"`

	// Returns counts points by return number (bits 0-2 of the flags byte).
	Returns [8]uint64 `json:"returns"`
	// Classes counts points by ASPRS class (bits 0-4 of the classification byte).
	Classes   [las.NumClasses]uint64 `json:"classes"`
	Synthetic uint64                 `json:"synthetic"`
	KeyPoints uint64                 `json:"key_points"`
	Withheld  uint64                 `json:"withheld"`
	EdgePts   uint64                 `json:"edge_of_flight_line"`

	// OutOfBounds counts points outside the header min/max widened by the
	// configured tolerance. Zero when bounds checking is disabled.
	OutOfBounds uint64 `json:"out_of_bounds"`

	// Sample holds every Stride-th decoded point, capped by
	// preview_max_points.
	Sample       []las.Point `json:"-"`
	SampleStride uint64      `json:"sample_stride"`
}

// ReturnsMismatch reports whether the per-return counts stored in the
// header disagree with the decoded flags for returns one to five.
func (r *Report) ReturnsMismatch() bool {
	for i, n := range r.Header.PointsByReturn {
		if uint64(n) != r.Returns[i+1] {
			return true
		}
	}
	return false
}

// batchFunc decodes count records starting at first into dst.
type batchFunc func(dst []las.Point, first, count uint64) error

// Survey opens path on fsys and surveys it through the streaming decoder.
func Survey(ctx context.Context, fsys fsutil.FileSystem, path string, cfg *config.ReaderConfig) (*Report, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	report, err := SurveyReader(ctx, f, cfg)
	if err != nil {
		return nil, fmt.Errorf("survey %s: %w", path, err)
	}
	report.Path = path
	if st, err := f.Stat(); err == nil {
		report.Size = st.Size()
		if end := report.Info.DataEnd(); end < uint64(st.Size()) {
			debugf("%s: %d trailing bytes after point data", path, uint64(st.Size())-end)
		}
	}
	return report, nil
}

// SurveyReader surveys the LAS file behind r, decoding batch_points records
// per read.
func SurveyReader(ctx context.Context, r io.ReaderAt, cfg *config.ReaderConfig) (*Report, error) {
	h, err := las.HeaderFromReader(r)
	if err != nil {
		return nil, err
	}
	cfg = orDefault(cfg)
	opts := cfg.Options()
	return run(ctx, h, cfg, func(dst []las.Point, first, count uint64) error {
		return las.ReadPointsFromReader(dst, r, first, count, opts...)
	})
}

// SurveyBytes surveys a fully buffered file image with the memory-resident
// decoder.
func SurveyBytes(ctx context.Context, image []byte, cfg *config.ReaderConfig) (*Report, error) {
	h, err := las.ParseHeader(image)
	if err != nil {
		return nil, err
	}
	report, err := run(ctx, h, cfg, func(dst []las.Point, first, count uint64) error {
		return las.ReadPointsFromBytes(dst, image, first, count)
	})
	if err != nil {
		return nil, err
	}
	report.Size = int64(len(image))
	return report, nil
}

func run(ctx context.Context, h las.Header, cfg *config.ReaderConfig, decode batchFunc) (*Report, error) {
	cfg = orDefault(cfg)
	info := h.Info()
	report := &Report{Header: h, Info: info}

	batch := uint64(cfg.GetBatchPoints())
	maxSample := uint64(cfg.GetPreviewMaxPoints())
	if maxSample > 0 && info.PointCount > 0 {
		report.SampleStride = (info.PointCount + maxSample - 1) / maxSample
		report.Sample = make([]las.Point, 0, min(maxSample, info.PointCount))
	}

	b := newBounds(h, cfg)
	pts := make([]las.Point, min(batch, info.PointCount))
	cols := newColumns(len(pts))
	var x, y, z, intensity accumulator

	for first := uint64(0); first < info.PointCount; first += batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := min(batch, info.PointCount-first)
		if err := decode(pts[:n], first, n); err != nil {
			return nil, fmt.Errorf("records %d-%d: %w", first, first+n, err)
		}

		cols.reset()
		for i, p := range pts[:n] {
			cols.append(p)
			report.count(p)
			if b != nil && !b.contains(p) {
				report.OutOfBounds++
				if report.OutOfBounds <= 10 {
					debugf("point %d (%.3f, %.3f, %.3f) outside header bounds", first+uint64(i), p.X, p.Y, p.Z)
				}
			}
			if report.SampleStride > 0 && (first+uint64(i))%report.SampleStride == 0 {
				report.Sample = append(report.Sample, p)
			}
		}
		x.add(cols.x)
		y.add(cols.y)
		z.add(cols.z)
		intensity.add(cols.intensity)
		report.Points += n
		debugf("batch %d-%d decoded (%d/%d)", first, first+n, report.Points, info.PointCount)
	}

	report.X, report.Y, report.Z = x.stats(), y.stats(), z.stats()
	report.Intensity = intensity.stats()
	return report, nil
}

func orDefault(cfg *config.ReaderConfig) *config.ReaderConfig {
	if cfg == nil {
		return config.EmptyReaderConfig()
	}
	return cfg
}

func (r *Report) count(p las.Point) {
	r.Returns[p.Flags.ReturnNumber]++
	if p.Flags.EdgeOfFlightLine {
		r.EdgePts++
	}
	r.Classes[p.Classification.Class]++
	if p.Classification.Synthetic {
		r.Synthetic++
	}
	if p.Classification.KeyPoint {
		r.KeyPoints++
	}
	if p.Classification.Withheld {
		r.Withheld++
	}
}

// columns stages one batch per attribute for the gonum reductions.
type columns struct {
	x, y, z, intensity []float64
}

func newColumns(n int) *columns {
	return &columns{
		x:         make([]float64, 0, n),
		y:         make([]float64, 0, n),
		z:         make([]float64, 0, n),
		intensity: make([]float64, 0, n),
	}
}

func (c *columns) reset() {
	c.x, c.y, c.z, c.intensity = c.x[:0], c.y[:0], c.z[:0], c.intensity[:0]
}

func (c *columns) append(p las.Point) {
	c.x = append(c.x, float64(p.X))
	c.y = append(c.y, float64(p.Y))
	c.z = append(c.z, float64(p.Z))
	c.intensity = append(c.intensity, float64(p.Intensity))
}

type bounds struct {
	min, max [3]float64
}

// newBounds returns nil when bounds checking is disabled.
func newBounds(h las.Header, cfg *config.ReaderConfig) *bounds {
	if !cfg.GetCheckBounds() {
		return nil
	}
	tol := cfg.GetBoundsTolerance()
	return &bounds{
		min: [3]float64{h.MinX - tol, h.MinY - tol, h.MinZ - tol},
		max: [3]float64{h.MaxX + tol, h.MaxY + tol, h.MaxZ + tol},
	}
}

func (b *bounds) contains(p las.Point) bool {
	v := [3]float64{float64(p.X), float64(p.Y), float64(p.Z)}
	for i := range v {
		if v[i] < b.min[i] || v[i] > b.max[i] {
			return false
		}
	}
	return true
}
