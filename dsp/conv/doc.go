// Package conv slides a fixed kernel over real sequences and returns the
// dot product at every fully overlapping offset ("valid" correlation).
//
// Short kernels are evaluated directly, one vecmath dot product per output
// sample. Kernels longer than the FFT threshold are evaluated in the
// frequency domain with a single zero-padded transform of the whole signal,
// which suits the few-hundred-sample curves this module works on better than
// block-wise schemes.
//
//	c, err := conv.NewCorrelator(coeffs)
//	out, err := c.Valid(padded)
//
// Savitzky-Golay filtering in [github.com/cwbudde/algo-nir/dsp/savgol] is a
// valid correlation of a mirror-padded curve against the filter coefficients.
package conv
