package pipeline

import "context"

// Predictor maps a resampled vector to a scalar, typically by running a
// trained regression model. Implementations must be safe for concurrent
// use when shared by a batch.
type Predictor interface {
	Predict(ctx context.Context, vector []float32) (float64, error)
}

// PredictorFunc adapts a function to [Predictor].
type PredictorFunc func(ctx context.Context, vector []float32) (float64, error)

// Predict calls f(ctx, vector).
func (f PredictorFunc) Predict(ctx context.Context, vector []float32) (float64, error) {
	return f(ctx, vector)
}
