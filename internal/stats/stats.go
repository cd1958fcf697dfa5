// Package stats provides the statistical primitives shared by the KPI
// aggregator and feature deriver. NaN elements are missing cells, not
// values: every function skips them, and returns NaN when too few real
// values remain to define the statistic.
package stats

import (
	"math"
	"sort"
)

// dropNaN returns the non-NaN values of x. The original slice is never
// modified; when x holds no NaN the copy is still cheap relative to the
// sorts below.
func dropNaN(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Mean returns the arithmetic mean of the non-NaN values, or NaN when
// there are none.
func Mean(x []float64) float64 {
	sum, n := 0.0, 0
	for _, v := range x {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// Median returns the median of the non-NaN values (allocates a sorted
// copy), or NaN when there are none.
func Median(x []float64) float64 {
	cp := dropNaN(x)
	n := len(cp)
	if n == 0 {
		return math.NaN()
	}
	sort.Float64s(cp)
	mid := n / 2
	if n%2 == 0 {
		return (cp[mid-1] + cp[mid]) / 2
	}
	return cp[mid]
}

// SampleStd returns the sample standard deviation (n-1 denominator) of the
// non-NaN values. With fewer than two the statistic is undefined and NaN
// is returned.
func SampleStd(x []float64) float64 {
	cp := dropNaN(x)
	n := len(cp)
	if n < 2 {
		return math.NaN()
	}
	mean := Mean(cp)
	sumSq := 0.0
	for _, v := range cp {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// Quantile returns the q-th quantile of the non-NaN values using linear
// interpolation between closest ranks, matching the standard statistical
// definition. Returns NaN when no real values remain. q is clamped to
// [0, 1].
func Quantile(x []float64, q float64) float64 {
	cp := dropNaN(x)
	n := len(cp)
	if n == 0 {
		return math.NaN()
	}
	if q < 0 {
		q = 0
	} else if q > 1 {
		q = 1
	}

	sort.Float64s(cp)

	h := q * float64(n-1)
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return cp[n-1]
	}
	frac := h - float64(lo)
	return cp[lo] + frac*(cp[lo+1]-cp[lo])
}

// MinMax returns the minimum and maximum of the non-NaN values, or
// (NaN, NaN) when there are none.
func MinMax(x []float64) (float64, float64) {
	min, max := math.NaN(), math.NaN()
	seen := false
	for _, v := range x {
		if math.IsNaN(v) {
			continue
		}
		if !seen {
			min, max = v, v
			seen = true
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// Sum returns the sum of the non-NaN elements.
func Sum(x []float64) float64 {
	s := 0.0
	for _, v := range x {
		if math.IsNaN(v) {
			continue
		}
		s += v
	}
	return s
}
