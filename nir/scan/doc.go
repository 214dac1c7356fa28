// Package scan extracts the scan-data section of a spectrometer export into
// a four-column [table.Table].
//
// The export is line oriented. The section starts at the first line that
// contains the marker (default "***Scan Data***"), is followed by one units
// header line that is skipped, and runs until a blank line or a line that
// starts with the marker prefix "***". Each data row carries at least four
// comma- or whitespace-separated numbers: wavelength, absorbance, reference
// signal, sample signal.
//
// Malformed rows are dropped individually. A missing marker or a section
// without a single valid row yields [table.Empty]; the parser never fails
// on content, only on read errors.
package scan
