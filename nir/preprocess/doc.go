// Package preprocess derives the chemometric transforms of an absorbance
// curve: Multiplicative Scatter Correction (MSC), Standard Normal Variate
// (SNV), and first and second Savitzky-Golay derivatives (SG1, SG2).
//
// The row transforms operate on batches ([][]float64, one spectrum per row)
// so that MSC can use a mean reference spectrum across scans. The scan
// pipeline always passes a batch of one, in which case the reference is the
// spectrum itself, the least-squares fit is the identity (slope 1,
// intercept 0), and MSC reduces to the min-max rescale. Existing models
// were trained on exactly that output.
//
// [Engine.Transform] turns a parsed scan table into the six-column table
// Wavelength, Original, MSC, SNV, SG1, SG2.
package preprocess
