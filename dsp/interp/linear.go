package interp

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrLengthMismatch indicates source axis and values of different length.
	ErrLengthMismatch = errors.New("interp: source axis and values differ in length")
	// ErrDegenerateAxis indicates fewer than two distinct source points.
	ErrDegenerateAxis = errors.New("interp: source axis needs at least two distinct points")
	// ErrNonFinite indicates a NaN or infinite source or target coordinate.
	ErrNonFinite = errors.New("interp: non-finite coordinate")
)

// Curve is a source curve sorted by ascending axis value, ready to be
// evaluated at arbitrary points. A Curve is immutable and safe for
// concurrent use.
type Curve struct {
	xs []float64
	ys []float64
}

// NewCurve copies xs and ys, sorts both by ascending xs (ties keep their
// input order), and validates that the axis spans a non-empty interval.
func NewCurve(xs, ys []float64) (*Curve, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(xs), len(ys))
	}
	for i, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("%w at index %d", ErrNonFinite, i)
		}
	}

	idx := make([]int, len(xs))
	for i := range idx {
		idx[i] = i
	}
	if !sort.Float64sAreSorted(xs) {
		sort.SliceStable(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })
	}

	c := &Curve{
		xs: make([]float64, len(xs)),
		ys: make([]float64, len(ys)),
	}
	for i, j := range idx {
		c.xs[i] = xs[j]
		c.ys[i] = ys[j]
	}

	if len(c.xs) < 2 || c.xs[0] == c.xs[len(c.xs)-1] {
		return nil, fmt.Errorf("%w: got %d samples", ErrDegenerateAxis, len(c.xs))
	}

	return c, nil
}

// Len returns the number of source samples.
func (c *Curve) Len() int { return len(c.xs) }

// Range returns the smallest and largest source axis value.
func (c *Curve) Range() (lo, hi float64) {
	return c.xs[0], c.xs[len(c.xs)-1]
}

// At evaluates the curve at x. x is first clipped into [lo, hi], so
// infinite x yields a boundary value. NaN x yields NaN.
func (c *Curve) At(x float64) float64 {
	lo, hi := c.Range()
	if x < lo {
		x = lo
	} else if x > hi {
		x = hi
	}

	i := c.interval(x)
	x0, x1 := c.xs[i], c.xs[i+1]
	y0, y1 := c.ys[i], c.ys[i+1]
	slope := (y1 - y0) / (x1 - x0)

	return y0 + slope*(x-x0)
}

// interval returns i such that xs[i] <= x < xs[i+1], clamped to
// [0, len-2]. When clamping lands on a zero-width interval (repeated
// maximum), i steps back to the last interval of positive width.
func (c *Curve) interval(x float64) int {
	n := len(c.xs)
	i := sort.Search(n, func(k int) bool { return c.xs[k] > x }) - 1
	if i < 0 {
		i = 0
	}
	if i > n-2 {
		i = n - 2
	}
	for i > 0 && c.xs[i+1] == c.xs[i] {
		i--
	}
	return i
}

// Resample evaluates the curve at every target point. The result has
// exactly len(targets) elements.
func (c *Curve) Resample(targets []float64) []float64 {
	out := make([]float64, len(targets))
	for i, t := range targets {
		out[i] = c.At(t)
	}
	return out
}

// Resample32 is [Curve.Resample] narrowed to single precision.
func (c *Curve) Resample32(targets []float64) []float32 {
	out := make([]float32, len(targets))
	for i, t := range targets {
		out[i] = float32(c.At(t))
	}
	return out
}

// Linear resamples the curve (xs, ys) onto targets and returns a
// single-precision vector of len(targets) values. xs need not be sorted.
// NaN or infinite targets are rejected with [ErrNonFinite].
func Linear(xs, ys, targets []float64) ([]float32, error) {
	c, err := newCurveFor(xs, ys, targets)
	if err != nil {
		return nil, err
	}
	return c.Resample32(targets), nil
}

// Linear64 is the double-precision variant of [Linear].
func Linear64(xs, ys, targets []float64) ([]float64, error) {
	c, err := newCurveFor(xs, ys, targets)
	if err != nil {
		return nil, err
	}
	return c.Resample(targets), nil
}

func newCurveFor(xs, ys, targets []float64) (*Curve, error) {
	for i, t := range targets {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, fmt.Errorf("%w: target %d is %v", ErrNonFinite, i, t)
		}
	}
	return NewCurve(xs, ys)
}
