// Package interp resamples curves from their native axis onto arbitrary
// target grids by piecewise-linear interpolation.
//
// Target points outside the observed source range are clipped to the range
// before interpolation, so the resampler never extrapolates: a target below
// the first source sample receives the first sample's value and a target
// above the last receives the last sample's value.
//
// Typical use:
//
//	grid, _ := interp.Grid(950, 1650, 2)            // canonical model grid
//	vec, err := interp.Linear(wavelengths, msc, grid) // []float32, len(grid)
//
// A source axis with fewer than two distinct points has no defined slope
// and is rejected with [ErrDegenerateAxis]. [Linear] and [Linear64] reject
// NaN or infinite coordinates with [ErrNonFinite]; [Curve.At] maps a NaN
// target to NaN.
package interp
