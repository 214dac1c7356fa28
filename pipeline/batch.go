package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/cwbudde/algo-vecmath"
)

// Source names one scan and opens it for reading.
type Source struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileSource reads the scan at path.
func FileSource(path string) Source {
	return Source{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// BytesSource reads an in-memory scan.
func BytesSource(name string, data []byte) Source {
	return Source{
		Name: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Skip records a scan left out of a batch average.
type Skip struct {
	Name string
	Err  error
}

// BatchResult is the element-wise average over the usable scans of a batch.
type BatchResult struct {
	Vector  []float32
	Used    int
	Skipped []Skip
	// Prediction is set when the pipeline has a predictor.
	Prediction    float64
	HasPrediction bool
}

type outcome struct {
	vector []float32
	err    error
}

// ProcessBatch processes every source with at most Workers scans in
// flight, then averages the resampled vectors of the scans that produced
// one. Scans that fail to open, parse empty or cannot be resampled are
// skipped and reported. If no scan is usable the error is ErrNoValidScans.
//
// The average is accumulated in source order, so the result does not
// depend on scheduling.
func (p *Pipeline) ProcessBatch(ctx context.Context, sources []Source) (*BatchResult, error) {
	outcomes := make([]outcome, len(sources))

	var wg sync.WaitGroup
	sem := make(chan struct{}, p.cfg.workers)

	for i, src := range sources {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		}

		wg.Add(1)
		go func(idx int, src Source) {
			defer wg.Done()
			defer func() { <-sem }()

			outcomes[idx] = p.vectorOf(ctx, src)
		}(i, src)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &BatchResult{}
	sum := make([]float64, len(p.cfg.grid))
	row := make([]float64, len(p.cfg.grid))

	for i, o := range outcomes {
		if o.err != nil {
			p.logSkip(sources[i].Name, o.err)
			res.Skipped = append(res.Skipped, Skip{Name: sources[i].Name, Err: o.err})
			continue
		}
		for j, v := range o.vector {
			row[j] = float64(v)
		}
		vecmath.AddBlockInPlace(sum, row)
		res.Used++
	}

	if res.Used == 0 {
		return res, fmt.Errorf("%w: %d skipped", ErrNoValidScans, len(res.Skipped))
	}

	vecmath.ScaleBlockInPlace(sum, 1/float64(res.Used))
	res.Vector = make([]float32, len(sum))
	for i, v := range sum {
		res.Vector[i] = float32(v)
	}

	if p.cfg.predictor != nil {
		pred, err := p.cfg.predictor.Predict(ctx, res.Vector)
		if err != nil {
			return nil, fmt.Errorf("pipeline: predict: %w", err)
		}
		res.Prediction, res.HasPrediction = pred, true
	}

	p.cfg.logger.Debug("batch averaged", "used", res.Used, "skipped", len(res.Skipped))

	return res, nil
}

func (p *Pipeline) vectorOf(ctx context.Context, src Source) outcome {
	if src.Open == nil {
		return outcome{err: fmt.Errorf("pipeline: source %q has no opener", src.Name)}
	}
	rc, err := src.Open()
	if err != nil {
		return outcome{err: fmt.Errorf("pipeline: open: %w", err)}
	}
	defer rc.Close()

	t, err := p.parser.Parse(rc)
	if err != nil {
		return outcome{err: fmt.Errorf("pipeline: %w", err)}
	}
	if t.Empty() || t.Len() == 0 {
		return outcome{err: ErrEmptyScan}
	}

	enriched, err := p.engine.Transform(t)
	if err != nil {
		return outcome{err: fmt.Errorf("pipeline: transform: %w", err)}
	}
	return p.resample(enriched)
}

func (p *Pipeline) logSkip(name string, err error) {
	level := p.cfg.logger.Warn
	if errors.Is(err, ErrEmptyScan) {
		level = p.cfg.logger.Debug
	}
	level("scan skipped", "name", name, "err", err)
}
