package interp

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGrid indicates grid bounds or a step that describe no points
// or more than MaxGridPoints points.
var ErrInvalidGrid = errors.New("interp: invalid grid")

// MaxGridPoints bounds the length of a grid built by [Grid].
const MaxGridPoints = 1 << 24

// Grid returns the arithmetic sequence start, start+step, ... up to and
// including end (within a small tolerance of one step).
//
// Grid(950, 1650, 2) yields the 351-point canonical model grid.
func Grid(start, end, step float64) ([]float64, error) {
	if !(step > 0) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("%w: step %v", ErrInvalidGrid, step)
	}
	if math.IsNaN(start) || math.IsNaN(end) || math.IsInf(start, 0) || math.IsInf(end, 0) {
		return nil, fmt.Errorf("%w: bounds %v..%v", ErrInvalidGrid, start, end)
	}
	if end < start {
		return nil, fmt.Errorf("%w: end %v < start %v", ErrInvalidGrid, end, start)
	}

	count := math.Floor((end-start)/step+1e-9) + 1
	if math.IsNaN(count) || count > MaxGridPoints {
		return nil, fmt.Errorf("%w: step %v yields more than %d points", ErrInvalidGrid, step, MaxGridPoints)
	}
	n := int(count)
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}

	return out, nil
}
