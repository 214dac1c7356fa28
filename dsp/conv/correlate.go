package conv

import (
	"errors"
	"fmt"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

var (
	// ErrEmptyInput indicates an empty signal.
	ErrEmptyInput = errors.New("conv: empty input")
	// ErrEmptyKernel indicates an empty kernel.
	ErrEmptyKernel = errors.New("conv: empty kernel")
	// ErrKernelTooLong indicates a kernel longer than the signal.
	ErrKernelTooLong = errors.New("conv: kernel longer than signal")
	// ErrLengthMismatch indicates a destination of the wrong length.
	ErrLengthMismatch = errors.New("conv: buffer length mismatch")
)

// DefaultFFTThreshold is the kernel length above which a Correlator
// switches to the frequency domain.
const DefaultFFTThreshold = 64

type config struct {
	fftThreshold int
}

// Option configures a Correlator.
type Option func(*config)

// WithFFTThreshold sets the longest kernel evaluated directly. Zero forces
// the frequency-domain path for every kernel.
func WithFFTThreshold(n int) Option {
	return func(cfg *config) {
		if n >= 0 {
			cfg.fftThreshold = n
		}
	}
}

// Correlator correlates signals against one kernel. It is immutable apart
// from an internal cache of kernel spectra and is safe for concurrent use.
type Correlator struct {
	kernel       []float64
	fftThreshold int

	// spectra maps an FFT size to the spectrum of the reversed kernel.
	spectra sync.Map
}

// NewCorrelator copies kernel into a new Correlator.
func NewCorrelator(kernel []float64, opts ...Option) (*Correlator, error) {
	if len(kernel) == 0 {
		return nil, ErrEmptyKernel
	}

	cfg := config{fftThreshold: DefaultFFTThreshold}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	k := make([]float64, len(kernel))
	copy(k, kernel)

	return &Correlator{kernel: k, fftThreshold: cfg.fftThreshold}, nil
}

// Len returns the kernel length.
func (c *Correlator) Len() int { return len(c.kernel) }

// Spectral reports whether the frequency-domain path is used.
func (c *Correlator) Spectral() bool { return len(c.kernel) > c.fftThreshold }

// OutputLen returns the number of valid offsets for a signal of length n.
func (c *Correlator) OutputLen(n int) int {
	if n < len(c.kernel) {
		return 0
	}
	return n - len(c.kernel) + 1
}

// Valid returns
//
//	out[i] = sum_k kernel[k] * signal[i+k],  i in [0, len(signal)-len(kernel)]
func (c *Correlator) Valid(signal []float64) ([]float64, error) {
	if err := c.check(signal); err != nil {
		return nil, err
	}
	out := make([]float64, c.OutputLen(len(signal)))
	if err := c.valid(out, signal); err != nil {
		return nil, err
	}
	return out, nil
}

// ValidTo writes the valid correlation of signal into dst, which must have
// length OutputLen(len(signal)).
func (c *Correlator) ValidTo(dst, signal []float64) error {
	if err := c.check(signal); err != nil {
		return err
	}
	if want := c.OutputLen(len(signal)); len(dst) != want {
		return fmt.Errorf("%w: expected %d, got %d", ErrLengthMismatch, want, len(dst))
	}
	return c.valid(dst, signal)
}

func (c *Correlator) check(signal []float64) error {
	if len(signal) == 0 {
		return ErrEmptyInput
	}
	if len(signal) < len(c.kernel) {
		return fmt.Errorf("%w: kernel %d, signal %d", ErrKernelTooLong, len(c.kernel), len(signal))
	}
	return nil
}

func (c *Correlator) valid(dst, signal []float64) error {
	if !c.Spectral() {
		m := len(c.kernel)
		for i := range dst {
			dst[i] = vecmath.DotProduct(signal[i:i+m], c.kernel)
		}
		return nil
	}
	return c.spectral(dst, signal)
}

// spectral multiplies the signal spectrum with the reversed-kernel spectrum.
// Sample len(kernel)-1+i of the linear convolution is output i.
func (c *Correlator) spectral(dst, signal []float64) error {
	m := len(c.kernel)
	size := nextPowerOf2(len(signal) + m - 1)

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return fmt.Errorf("conv: FFT plan of size %d: %w", size, err)
	}

	kernelSpec, err := c.spectrum(plan, size)
	if err != nil {
		return err
	}

	buf := make([]complex128, size)
	for i, v := range signal {
		buf[i] = complex(v, 0)
	}
	if err := plan.Forward(buf, buf); err != nil {
		return fmt.Errorf("conv: forward FFT: %w", err)
	}
	for i := range buf {
		buf[i] *= kernelSpec[i]
	}
	if err := plan.Inverse(buf, buf); err != nil {
		return fmt.Errorf("conv: inverse FFT: %w", err)
	}

	for i := range dst {
		dst[i] = real(buf[m-1+i])
	}
	return nil
}

func (c *Correlator) spectrum(plan *algofft.Plan[complex128], size int) ([]complex128, error) {
	if s, ok := c.spectra.Load(size); ok {
		return s.([]complex128), nil
	}

	m := len(c.kernel)
	kspec := make([]complex128, size)
	for i, v := range c.kernel {
		kspec[m-1-i] = complex(v, 0)
	}
	if err := plan.Forward(kspec, kspec); err != nil {
		return nil, fmt.Errorf("conv: kernel FFT: %w", err)
	}

	s, _ := c.spectra.LoadOrStore(size, kspec)
	return s.([]complex128), nil
}

// CorrelateValid is a one-shot [Correlator.Valid] with default options.
func CorrelateValid(signal, kernel []float64) ([]float64, error) {
	c, err := NewCorrelator(kernel)
	if err != nil {
		return nil, err
	}
	return c.Valid(signal)
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
