// Package stats provides NaN-aware robust statistics over value
// slices. NaN marks a missing measurement and is excluded from every
// computation.
package stats

import (
	"math"

	"github.com/wangjohn/quickselect"
)

// NonNaN returns the values of v that are not NaN, in order.
func NonNaN(v []float64) []float64 {
	out := make([]float64, 0, len(v))
	for _, x := range v {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}

// CountNonNaN returns the number of non-NaN values in v.
func CountNonNaN(v []float64) int {
	n := 0
	for _, x := range v {
		if !math.IsNaN(x) {
			n++
		}
	}
	return n
}

// Percentile returns the percent-th percentile of the non-NaN values
// of v, interpolating between order statistics if interpolate is set.
// Returns NaN when no values remain or percent is out of range.
func Percentile(v []float64, percent float64, interpolate bool) float64 {
	data := NonNaN(v)

	if len(data) == 0 || percent < 0 || percent > 100 {
		return math.NaN()
	}
	if len(data) == 1 {
		return data[0]
	}

	k := (float64(len(data)-1) * percent) / 100
	length := int(math.Ceil(k)) + 1

	_ = quickselect.Float64QuickSelect(data, length)
	top, secondTop := math.Inf(-1), math.Inf(-1)
	for _, x := range data[0:length] {
		if x > top {
			secondTop = top
			top = x
		} else if x > secondTop {
			secondTop = x
		}
	}
	remainder := k - float64(int(k))
	if remainder == 0 || !interpolate {
		return top
	}
	return (top * remainder) + (secondTop * (1 - remainder))
}

// Median returns the interpolated median of the non-NaN values of v.
func Median(v []float64) float64 {
	return Percentile(v, 50, true)
}

// IQR returns the interquartile range (q75 - q25) of the non-NaN
// values of v. NaN when no values remain.
func IQR(v []float64) float64 {
	return Percentile(v, 75, true) - Percentile(v, 25, true)
}
