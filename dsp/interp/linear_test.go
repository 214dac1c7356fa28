package interp

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-nir/internal/testutil"
)

func TestLinearScenario(t *testing.T) {
	xs := []float64{1000, 1002, 1004}
	ys := []float64{0.1, 0.3, 0.7}
	targets := []float64{1001, 1003, 999, 1005}

	got, err := Linear(xs, ys, targets)
	if err != nil {
		t.Fatalf("Linear: %v", err)
	}
	testutil.RequireFloat32SliceNearlyEqual(t, got, []float64{0.2, 0.5, 0.1, 0.7}, 1e-6)
}

func TestLinearUnsortedSource(t *testing.T) {
	xs := []float64{1004, 1000, 1002}
	ys := []float64{0.7, 0.1, 0.3}

	got, err := Linear64(xs, ys, []float64{1001, 1003})
	if err != nil {
		t.Fatalf("Linear64: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, got, []float64{0.2, 0.5}, 1e-12)

	// Inputs are not reordered in place.
	if xs[0] != 1004 || ys[0] != 0.7 {
		t.Fatalf("source slices were modified: %v %v", xs, ys)
	}
}

func TestLinearIdempotentOnOwnAxis(t *testing.T) {
	xs := testutil.Wavelengths(950, 3.7, 120)
	ys := testutil.DeterministicNoise(3, 1, 120)

	got, err := Linear64(xs, ys, xs)
	if err != nil {
		t.Fatalf("Linear64: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, got, ys, 1e-12)
}

func TestLinearNeverExtrapolates(t *testing.T) {
	xs := []float64{10, 20, 30}
	ys := []float64{1, 5, -2}

	c, err := NewCurve(xs, ys)
	if err != nil {
		t.Fatalf("NewCurve: %v", err)
	}

	for _, x := range []float64{-1e9, 0, 9.999} {
		if got := c.At(x); got != 1 {
			t.Fatalf("At(%v) = %v, want 1", x, got)
		}
	}
	for _, x := range []float64{30.001, 45, 1e9} {
		if got := c.At(x); math.Abs(got-(-2)) > 1e-12 {
			t.Fatalf("At(%v) = %v, want -2", x, got)
		}
	}
}

func TestLinearOutputLengthMatchesTargets(t *testing.T) {
	xs := testutil.Wavelengths(900, 8, 10)
	ys := testutil.Ramp(0, 1, 10)

	for _, n := range []int{0, 1, 351, 1000} {
		targets := testutil.Wavelengths(800, 1, n)
		got, err := Linear(xs, ys, targets)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if len(got) != n {
			t.Fatalf("len = %d, want %d", len(got), n)
		}
	}
}

func TestLinearDuplicateAxisValues(t *testing.T) {
	xs := []float64{1, 2, 2, 3, 3}
	ys := []float64{0, 1, 1, 2, 2}

	got, err := Linear64(xs, ys, []float64{1.5, 2, 2.5, 3, 4})
	if err != nil {
		t.Fatalf("Linear64: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, got, []float64{0.5, 1, 1.5, 2, 2}, 1e-12)
	testutil.RequireFinite(t, got)
}

func TestLinearErrors(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		ys   []float64
		want error
	}{
		{"empty", nil, nil, ErrDegenerateAxis},
		{"single point", []float64{1}, []float64{2}, ErrDegenerateAxis},
		{"all equal", []float64{5, 5, 5}, []float64{1, 2, 3}, ErrDegenerateAxis},
		{"length mismatch", []float64{1, 2}, []float64{1}, ErrLengthMismatch},
		{"nan axis", []float64{1, math.NaN()}, []float64{1, 2}, ErrNonFinite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Linear(tt.xs, tt.ys, []float64{1})
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLinearRejectsNonFiniteTargets(t *testing.T) {
	xs := []float64{1, 2, 3}
	ys := []float64{10, 20, 30}
	for _, target := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := Linear(xs, ys, []float64{2, target}); !errors.Is(err, ErrNonFinite) {
			t.Fatalf("Linear(%v): err = %v, want ErrNonFinite", target, err)
		}
		if _, err := Linear64(xs, ys, []float64{target}); !errors.Is(err, ErrNonFinite) {
			t.Fatalf("Linear64(%v): err = %v, want ErrNonFinite", target, err)
		}
	}
}

func TestCurveAtNonFinite(t *testing.T) {
	c, err := NewCurve([]float64{1, 2, 3}, []float64{10, 20, 30})
	if err != nil {
		t.Fatalf("NewCurve: %v", err)
	}
	if got := c.At(math.Inf(1)); got != 30 {
		t.Fatalf("At(+Inf) = %v, want 30", got)
	}
	if got := c.At(math.Inf(-1)); got != 10 {
		t.Fatalf("At(-Inf) = %v, want 10", got)
	}
	if got := c.At(math.NaN()); !math.IsNaN(got) {
		t.Fatalf("At(NaN) = %v, want NaN", got)
	}
}

func TestCurveAccessors(t *testing.T) {
	c, err := NewCurve([]float64{3, 1, 2}, []float64{0, 0, 0})
	if err != nil {
		t.Fatalf("NewCurve: %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("Len = %d", c.Len())
	}
	if lo, hi := c.Range(); lo != 1 || hi != 3 {
		t.Fatalf("Range = (%v, %v)", lo, hi)
	}
}
