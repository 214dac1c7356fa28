package preprocess

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-nir/stats/moments"
)

// ErrRaggedBatch indicates rows of different length in one batch.
var ErrRaggedBatch = errors.New("preprocess: batch rows differ in length")

func checkBatch(rows [][]float64) error {
	for i := 1; i < len(rows); i++ {
		if len(rows[i]) != len(rows[0]) {
			return fmt.Errorf("%w: row %d has %d samples, row 0 has %d",
				ErrRaggedBatch, i, len(rows[i]), len(rows[0]))
		}
	}
	return nil
}

// MSC applies Multiplicative Scatter Correction against the batch mean
// spectrum and returns new rows.
func MSC(rows [][]float64) ([][]float64, error) {
	if err := checkBatch(rows); err != nil {
		return nil, err
	}
	return MSCReference(rows, moments.ColumnMean(rows))
}

// MSCReference corrects each row against an explicit reference spectrum:
// it fits row = slope*reference + intercept and returns
// (row - intercept) / slope.
//
// A reference without variance leaves rows unchanged. A zero slope only
// removes the intercept.
func MSCReference(rows [][]float64, reference []float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		if len(row) != len(reference) {
			return nil, fmt.Errorf("%w: row %d has %d samples, reference has %d",
				ErrRaggedBatch, i, len(row), len(reference))
		}

		slope, intercept, ok := moments.LinearFit(reference, row)
		if !ok {
			slope, intercept = 1, 0
		}

		corrected := make([]float64, len(row))
		for j, v := range row {
			corrected[j] = v - intercept
		}
		if slope != 0 && slope != 1 {
			vecmath.ScaleBlockInPlace(corrected, 1/slope)
		}
		out[i] = corrected
	}
	return out, nil
}

// ScaleMinMax rescales row into [0, 1]. A constant row maps to all zeros.
func ScaleMinMax(row []float64) []float64 {
	out := make([]float64, len(row))
	if len(row) == 0 {
		return out
	}

	lo, hi := moments.MinMax(row)
	if hi == lo {
		return out
	}

	for i, v := range row {
		out[i] = v - lo
	}
	vecmath.ScaleBlockInPlace(out, 1/(hi-lo))

	// Division by the span can overshoot 1 by one ulp.
	for i, v := range out {
		if v > 1 {
			out[i] = 1
		}
	}
	return out
}

// MSCScaled is MSC followed by a per-row min-max rescale, the form fed to
// trained models.
func MSCScaled(rows [][]float64) ([][]float64, error) {
	corrected, err := MSC(rows)
	if err != nil {
		return nil, err
	}
	for i, row := range corrected {
		corrected[i] = ScaleMinMax(row)
	}
	return corrected, nil
}

// SNVRow standardises row by its own mean and population standard
// deviation. A constant row maps to all zeros.
func SNVRow(row []float64) []float64 {
	out := make([]float64, len(row))
	s := moments.Calculate(row)
	if s.StdDev == 0 {
		return out
	}

	for i, v := range row {
		out[i] = v - s.Mean
	}
	vecmath.ScaleBlockInPlace(out, 1/s.StdDev)
	return out
}

// SNV applies [SNVRow] to every row independently.
func SNV(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = SNVRow(row)
	}
	return out
}
