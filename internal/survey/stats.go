package survey

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// AxisStats summarises one attribute over every decoded point.
type AxisStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
}

// Span returns Max-Min.
func (s AxisStats) Span() float64 { return s.Max - s.Min }

// accumulator merges per-batch moments (Chan et al. pairwise update) so a
// file never has to be held in memory to compute its variance.
type accumulator struct {
	n        float64
	mean     float64
	m2       float64
	min, max float64
}

func (a *accumulator) add(xs []float64) {
	if len(xs) == 0 {
		return
	}
	nb := float64(len(xs))
	mean, variance := stat.MeanVariance(xs, nil)
	var m2 float64
	if len(xs) > 1 {
		m2 = variance * (nb - 1)
	}
	lo, hi := floats.Min(xs), floats.Max(xs)

	if a.n == 0 {
		a.min, a.max = lo, hi
	} else {
		a.min = math.Min(a.min, lo)
		a.max = math.Max(a.max, hi)
	}

	n := a.n + nb
	delta := mean - a.mean
	a.mean += delta * nb / n
	a.m2 += m2 + delta*delta*a.n*nb/n
	a.n = n
}

// stats reports the sample standard deviation; it is zero below two points.
func (a *accumulator) stats() AxisStats {
	s := AxisStats{Min: a.min, Max: a.max, Mean: a.mean}
	if a.n > 1 {
		s.StdDev = math.Sqrt(a.m2 / (a.n - 1))
	}
	return s
}
