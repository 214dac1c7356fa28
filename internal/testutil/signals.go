package testutil

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// Wavelengths returns n uniformly spaced wavelengths starting at start.
func Wavelengths(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

// Ramp returns offset + slope*i for i in [0, n).
func Ramp(offset, slope float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = offset + slope*float64(i)
	}
	return out
}

// Quadratic returns a + b*i + c*i*i for i in [0, n).
func Quadratic(a, b, c float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		x := float64(i)
		out[i] = a + b*x + c*x*x
	}
	return out
}

// Gaussian returns a baseline plus a single absorption band centred at
// center with the given width, sampled on wavelengths.
func Gaussian(wavelengths []float64, baseline, height, center, width float64) []float64 {
	out := make([]float64, len(wavelengths))
	for i, w := range wavelengths {
		d := (w - center) / width
		out[i] = baseline + height*math.Exp(-0.5*d*d)
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// ScanText renders a scanner export with a metadata preamble, the
// "***Scan Data***" section, and one trailing section. Reference and sample
// signals are derived from the absorbance so every row is well formed.
func ScanText(wavelengths, absorbance []float64) string {
	var b strings.Builder
	b.WriteString("***Scan Config***\n")
	b.WriteString("Method:,Column 1\n")
	b.WriteString("\n")
	b.WriteString("***Scan Data***\n")
	b.WriteString("Wavelength (nm),Absorbance (AU),Reference Signal (unitless),Sample Signal (unitless)\n")
	for i := range wavelengths {
		ref := 5000 + float64(i)
		sample := ref * math.Pow(10, -absorbance[i])
		fmt.Fprintf(&b, "%g,%g,%g,%g\n", wavelengths[i], absorbance[i], ref, sample)
	}
	b.WriteString("\n")
	b.WriteString("***Scan Footer***\n")
	b.WriteString("Serial:,0001\n")
	return b.String()
}
