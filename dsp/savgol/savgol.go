package savgol

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-nir/dsp/conv"
)

var (
	// ErrInvalidWindow indicates an even, negative, or too short window.
	ErrInvalidWindow = errors.New("savgol: window length must be odd and greater than the polynomial order")
	// ErrInvalidOrder indicates a negative polynomial or derivative order.
	ErrInvalidOrder = errors.New("savgol: invalid polynomial or derivative order")
	// ErrInvalidDelta indicates a non-positive or non-finite sample spacing.
	ErrInvalidDelta = errors.New("savgol: sample spacing must be positive")
	// ErrEmptyInput indicates an empty input curve.
	ErrEmptyInput = errors.New("savgol: empty input")
	// errSingular is returned when the normal equations cannot be solved.
	errSingular = errors.New("savgol: singular normal equations")
)

type config struct {
	delta float64
}

// Option configures a [Filter].
type Option func(*config)

func defaultConfig() config {
	return config{delta: 1}
}

// WithDelta sets the sample spacing used to scale derivatives.
// Non-positive values are ignored.
func WithDelta(delta float64) Option {
	return func(cfg *config) {
		if delta > 0 && !math.IsInf(delta, 0) {
			cfg.delta = delta
		}
	}
}

// Filter is a precomputed Savitzky-Golay filter. It is immutable and safe
// for concurrent use.
type Filter struct {
	window int
	order  int
	deriv  int
	delta  float64
	coeffs []float64
	corr   *conv.Correlator
}

// New designs a filter of the given window length, polynomial order, and
// derivative order (0 smooths, 1 and 2 differentiate).
func New(window, order, deriv int, opts ...Option) (*Filter, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	coeffs, err := Coefficients(window, order, deriv, cfg.delta)
	if err != nil {
		return nil, err
	}
	corr, err := conv.NewCorrelator(coeffs)
	if err != nil {
		return nil, fmt.Errorf("savgol: %w", err)
	}

	return &Filter{
		window: window,
		order:  order,
		deriv:  deriv,
		delta:  cfg.delta,
		coeffs: coeffs,
		corr:   corr,
	}, nil
}

// Window returns the window length.
func (f *Filter) Window() int { return f.window }

// Order returns the polynomial order.
func (f *Filter) Order() int { return f.order }

// Deriv returns the derivative order.
func (f *Filter) Deriv() int { return f.deriv }

// Delta returns the sample spacing.
func (f *Filter) Delta() float64 { return f.delta }

// Coefficients returns a copy of the correlation coefficients, ordered from
// offset -window/2 to +window/2.
func (f *Filter) Coefficients() []float64 {
	out := make([]float64, len(f.coeffs))
	copy(out, f.coeffs)
	return out
}

// Apply filters x and returns a new slice of the same length.
func (f *Filter) Apply(x []float64) ([]float64, error) {
	if len(x) == 0 {
		return nil, ErrEmptyInput
	}

	out, err := f.corr.Valid(PadMirror(x, f.window/2))
	if err != nil {
		return nil, fmt.Errorf("savgol: %w", err)
	}

	return out, nil
}

// Apply is a convenience wrapper around [New] and [Filter.Apply].
func Apply(x []float64, window, order, deriv int, opts ...Option) ([]float64, error) {
	f, err := New(window, order, deriv, opts...)
	if err != nil {
		return nil, err
	}
	return f.Apply(x)
}

// Coefficients computes the Savitzky-Golay correlation coefficients h such
// that the filtered value at i is sum_k h[k] * x[i-window/2+k].
//
// A derivative order above the polynomial order yields all-zero coefficients.
func Coefficients(window, order, deriv int, delta float64) ([]float64, error) {
	if order < 0 || deriv < 0 {
		return nil, fmt.Errorf("%w: order=%d deriv=%d", ErrInvalidOrder, order, deriv)
	}
	if window < 1 || window%2 == 0 || window <= order {
		return nil, fmt.Errorf("%w: window=%d order=%d", ErrInvalidWindow, window, order)
	}
	if !(delta > 0) || math.IsInf(delta, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDelta, delta)
	}

	coeffs := make([]float64, window)
	if deriv > order {
		return coeffs, nil
	}

	half := window / 2
	terms := order + 1

	// Normal equations M = A^T A for the Vandermonde matrix A[k][j] = z_k^j.
	m := make([][]float64, terms)
	for r := range m {
		m[r] = make([]float64, terms)
		for c := range m[r] {
			var s float64
			for z := -half; z <= half; z++ {
				s += math.Pow(float64(z), float64(r+c))
			}
			m[r][c] = s
		}
	}

	rhs := make([]float64, terms)
	rhs[deriv] = 1
	u, err := solve(m, rhs)
	if err != nil {
		return nil, err
	}

	scale := factorial(deriv) / math.Pow(delta, float64(deriv))
	for k := 0; k < window; k++ {
		z := float64(k - half)
		var s float64
		zp := 1.0
		for j := 0; j < terms; j++ {
			s += u[j] * zp
			zp *= z
		}
		coeffs[k] = scale * s
	}

	return coeffs, nil
}

// PadMirror extends x by pad samples on each side, reflecting about the
// first and last sample without repeating them. Curves shorter than the
// padding are folded repeatedly.
func PadMirror(x []float64, pad int) []float64 {
	n := len(x)
	out := make([]float64, n+2*pad)
	for i := range out {
		out[i] = x[reflectIndex(i-pad, n)]
	}
	return out
}

func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * (n - 1)
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}
	return i
}

// solve solves the small dense system a*x = b by Gaussian elimination with
// partial pivoting. a and b are overwritten.
func solve(a [][]float64, b []float64) ([]float64, error) {
	n := len(b)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if a[pivot][col] == 0 {
			return nil, errSingular
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for r := col + 1; r < n; r++ {
			f := a[r][col] / a[col][col]
			for c := col; c < n; c++ {
				a[r][c] -= f * a[col][c]
			}
			b[r] -= f * b[col]
		}
	}

	x := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		s := b[r]
		for c := r + 1; c < n; c++ {
			s -= a[r][c] * x[c]
		}
		x[r] = s / a[r][r]
	}

	return x, nil
}

func factorial(n int) float64 {
	f := 1.0
	for i := 2; i <= n; i++ {
		f *= float64(i)
	}
	return f
}
