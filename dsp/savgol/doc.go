// Package savgol implements Savitzky-Golay smoothing and differentiation.
//
// A Savitzky-Golay filter fits a polynomial of fixed order to every window of
// odd length by least squares and evaluates the polynomial (or one of its
// derivatives) at the window centre. Because the fit is linear in the data,
// the whole operation reduces to a correlation with a fixed coefficient set,
// computed once by [Coefficients].
//
// Boundary policy: [Filter.Apply] extends the curve by mirror reflection
// about its first and last sample (x[-k] = x[k], x[n-1+k] = x[n-1-k]) so that
// every output position has a complete window and the output length equals
// the input length.
//
// Derivatives are scaled by 1/delta^deriv, where delta is the sample spacing
// (default 1, i.e. derivatives per sample). Non-uniform spacing is not
// modelled.
package savgol
