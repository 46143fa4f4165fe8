package clustering

import (
	"math"
	"sort"
)

// RobustScaler centres each feature on its median and divides by its
// interquartile range. It is fitted once and read-only afterwards.
type RobustScaler struct {
	center []float64
	scale  []float64
}

// FitRobustScaler computes per-column medians and IQRs of X. A column with
// zero IQR is scaled by 1.
func FitRobustScaler(X [][]float64) *RobustScaler {
	if len(X) == 0 {
		return &RobustScaler{}
	}
	d := len(X[0])
	s := &RobustScaler{center: make([]float64, d), scale: make([]float64, d)}

	col := make([]float64, len(X))
	for j := 0; j < d; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		sort.Float64s(col)
		s.center[j] = percentile(col, 0.50)
		iqr := percentile(col, 0.75) - percentile(col, 0.25)
		if iqr == 0 {
			iqr = 1
		}
		s.scale[j] = iqr
	}
	return s
}

// Transform returns the scaled copy of x.
func (s *RobustScaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.center[j]) / s.scale[j]
	}
	return out
}

// InverseTransform maps a scaled vector back to feature units.
func (s *RobustScaler) InverseTransform(x []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = v*s.scale[j] + s.center[j]
	}
	return out
}

// Center returns a copy of the fitted medians.
func (s *RobustScaler) Center() []float64 { return append([]float64(nil), s.center...) }

// Scale returns a copy of the fitted IQRs.
func (s *RobustScaler) Scale() []float64 { return append([]float64(nil), s.scale...) }

// percentile interpolates linearly between the closest ranks of an
// ascending slice, matching numpy's default percentile method.
func percentile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}
