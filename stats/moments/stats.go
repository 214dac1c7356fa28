// Package moments computes per-row statistics of spectral curves: mean,
// population variance, extrema, and an ordinary least squares line fit.
//
// All functions treat their input as one row of samples and never modify it.
package moments

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Summary holds single-pass statistics of one row.
type Summary struct {
	Length   int
	Mean     float64
	Variance float64 // population variance (divides by N)
	StdDev   float64
	Min      float64
	MinPos   int
	Max      float64
	MaxPos   int
	Range    float64 // max - min
}

// Calculate computes all row statistics in a single pass using Welford's
// online algorithm for the second moment.
func Calculate(row []float64) Summary {
	n := len(row)
	if n == 0 {
		return Summary{}
	}

	var (
		mean   float64
		m2     float64
		maxVal = row[0]
		maxPos int
		minVal = row[0]
		minPos int
	)

	for i, x := range row {
		delta := x - mean
		mean += delta / float64(i+1)
		m2 += delta * (x - mean)

		if x > maxVal {
			maxVal = x
			maxPos = i
		}
		if x < minVal {
			minVal = x
			minPos = i
		}
	}

	variance := m2 / float64(n)
	if variance < 0 {
		variance = 0
	}

	return Summary{
		Length:   n,
		Mean:     mean,
		Variance: variance,
		StdDev:   math.Sqrt(variance),
		Min:      minVal,
		MinPos:   minPos,
		Max:      maxVal,
		MaxPos:   maxPos,
		Range:    maxVal - minVal,
	}
}

// Mean returns the arithmetic mean of row, or 0 for an empty row.
func Mean(row []float64) float64 {
	if len(row) == 0 {
		return 0
	}
	// Kahan summation keeps long rows of similar magnitude exact enough for
	// the min-max and z-score transforms downstream.
	var sum, c float64
	for _, x := range row {
		y := x - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}

	return sum / float64(len(row))
}

// Variance returns the population variance of row.
func Variance(row []float64) float64 {
	return Calculate(row).Variance
}

// StdDev returns the population standard deviation of row.
func StdDev(row []float64) float64 {
	return Calculate(row).StdDev
}

// MinMax returns the smallest and largest value of row.
// Both are 0 for an empty row.
func MinMax(row []float64) (lo, hi float64) {
	if len(row) == 0 {
		return 0, 0
	}
	lo, hi = row[0], row[0]
	for _, x := range row[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}

	return lo, hi
}

// ColumnMean returns the per-column mean of a batch of equal-length rows.
// Rows shorter than the first row contribute only to the columns they cover.
func ColumnMean(rows [][]float64) []float64 {
	if len(rows) == 0 {
		return nil
	}

	sum := make([]float64, len(rows[0]))
	count := make([]int, len(rows[0]))
	for _, row := range rows {
		for j := 0; j < len(row) && j < len(sum); j++ {
			sum[j] += row[j]
			count[j]++
		}
	}
	for j := range sum {
		if count[j] > 0 {
			sum[j] /= float64(count[j])
		}
	}

	return sum
}

// LinearFit fits y = slope*x + intercept by ordinary least squares.
//
// ok is false when the slices are empty, differ in length, or x has zero
// variance; slope and intercept are then 0.
func LinearFit(x, y []float64) (slope, intercept float64, ok bool) {
	n := len(x)
	if n == 0 || n != len(y) {
		return 0, 0, false
	}

	mx := Mean(x)
	my := Mean(y)

	dx := make([]float64, n)
	dy := make([]float64, n)
	for i := range x {
		dx[i] = x[i] - mx
		dy[i] = y[i] - my
	}

	sxx := vecmath.DotProduct(dx, dx)
	if sxx == 0 {
		return 0, 0, false
	}
	sxy := vecmath.DotProduct(dx, dy)

	slope = sxy / sxx
	intercept = my - slope*mx

	return slope, intercept, true
}
