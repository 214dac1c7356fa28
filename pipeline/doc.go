// Package pipeline wires the scan parser, transform engine and grid
// resampler into the path a model input takes: raw scan text is parsed into
// a table, enriched with MSC, SNV and Savitzky-Golay columns, and one
// transformed column is resampled onto the canonical wavelength grid as a
// single-precision vector.
//
// A [Pipeline] holds no mutable state and may be shared between goroutines.
// [Pipeline.ProcessBatch] runs several scans concurrently and averages
// their vectors, and an optional [Predictor] turns a vector into a scalar.
package pipeline
