package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"runtime"
	"slices"

	"github.com/cwbudde/algo-nir/dsp/interp"
	"github.com/cwbudde/algo-nir/nir/preprocess"
	"github.com/cwbudde/algo-nir/nir/scan"
	"github.com/cwbudde/algo-nir/nir/table"
)

// Canonical grid bounds in nanometres.
const (
	GridStart = 950.0
	GridEnd   = 1650.0
	GridStep  = 2.0
)

// DefaultColumn is the transformed column fed to models.
const DefaultColumn = table.MSC

var (
	// ErrEmptyScan indicates a scan without a data section or valid rows.
	ErrEmptyScan = errors.New("pipeline: scan contains no data rows")
	// ErrNoValidScans indicates a batch in which every scan was skipped.
	ErrNoValidScans = errors.New("pipeline: no valid scans in batch")
	// ErrUnknownColumn indicates a column name the transform engine does not produce.
	ErrUnknownColumn = errors.New("pipeline: unknown transform column")
	// ErrNonFiniteVector indicates a resampled value that is not finite in
	// single precision, typically a magnitude beyond math.MaxFloat32.
	ErrNonFiniteVector = errors.New("pipeline: resampled vector is not finite")
)

// DefaultGrid returns the 351-point canonical grid 950, 952, ..., 1650.
func DefaultGrid() []float64 {
	grid, err := interp.Grid(GridStart, GridEnd, GridStep)
	if err != nil {
		panic(err)
	}
	return grid
}

// ResampleColumns lists the columns that can be resampled onto the grid.
func ResampleColumns() []string {
	return slices.Clone(preprocess.OutputColumns[1:])
}

type config struct {
	grid       []float64
	column     string
	preprocess []preprocess.Option
	scan       []scan.Option
	predictor  Predictor
	logger     *slog.Logger
	workers    int
}

func defaultConfig() config {
	return config{
		grid:    DefaultGrid(),
		column:  DefaultColumn,
		logger:  slog.New(slog.DiscardHandler),
		workers: runtime.GOMAXPROCS(0),
	}
}

// Option mutates pipeline configuration.
type Option func(*config)

// WithGrid sets the target wavelength grid. Empty grids are ignored.
func WithGrid(grid []float64) Option {
	return func(cfg *config) {
		if len(grid) > 0 {
			cfg.grid = slices.Clone(grid)
		}
	}
}

// WithColumn selects the transformed column that is resampled.
func WithColumn(name string) Option {
	return func(cfg *config) {
		if name != "" {
			cfg.column = name
		}
	}
}

// WithPreprocessOptions forwards options to the transform engine.
func WithPreprocessOptions(opts ...preprocess.Option) Option {
	return func(cfg *config) {
		cfg.preprocess = append(cfg.preprocess, opts...)
	}
}

// WithScanOptions forwards options to the scan parser.
func WithScanOptions(opts ...scan.Option) Option {
	return func(cfg *config) {
		cfg.scan = append(cfg.scan, opts...)
	}
}

// WithPredictor attaches a model that scores every resampled vector.
func WithPredictor(p Predictor) Option {
	return func(cfg *config) {
		cfg.predictor = p
	}
}

// WithLogger sets the logger used for skipped scans.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithWorkers bounds the number of scans processed at once by ProcessBatch.
func WithWorkers(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.workers = n
		}
	}
}

// Pipeline turns raw scans into model vectors.
type Pipeline struct {
	cfg    config
	parser *scan.Parser
	engine *preprocess.Engine
}

// New builds a pipeline from options.
func New(opts ...Option) (*Pipeline, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if !slices.Contains(ResampleColumns(), cfg.column) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, cfg.column)
	}

	engine, err := preprocess.NewEngine(cfg.preprocess...)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	return &Pipeline{
		cfg:    cfg,
		parser: scan.NewParser(cfg.scan...),
		engine: engine,
	}, nil
}

// Grid returns a copy of the target grid.
func (p *Pipeline) Grid() []float64 { return slices.Clone(p.cfg.grid) }

// Column returns the resampled column name.
func (p *Pipeline) Column() string { return p.cfg.column }

// Workers returns the batch concurrency limit.
func (p *Pipeline) Workers() int { return p.cfg.workers }

// Engine returns the transform engine.
func (p *Pipeline) Engine() *preprocess.Engine { return p.engine }

// Result is the outcome of processing one scan.
type Result struct {
	// Table is the enriched six-column table.
	Table *table.Table
	// Vector is the selected column resampled onto the grid.
	Vector []float32
	// Prediction is set when the pipeline has a predictor.
	Prediction    float64
	HasPrediction bool
}

// Records returns the enriched table as row records.
func (r *Result) Records() []table.Record {
	return r.Table.Records()
}

// Process transforms a parsed scan table and resamples the selected column.
func (p *Pipeline) Process(ctx context.Context, scanTable *table.Table) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if scanTable.Empty() || scanTable.Len() == 0 {
		return nil, ErrEmptyScan
	}

	enriched, err := p.engine.Transform(scanTable)
	if err != nil {
		return nil, fmt.Errorf("pipeline: transform: %w", err)
	}

	o := p.resample(enriched)
	if o.err != nil {
		return nil, o.err
	}

	res := &Result{Table: enriched, Vector: o.vector}
	if p.cfg.predictor != nil {
		res.Prediction, err = p.cfg.predictor.Predict(ctx, o.vector)
		if err != nil {
			return nil, fmt.Errorf("pipeline: predict: %w", err)
		}
		res.HasPrediction = true
	}

	return res, nil
}

func (p *Pipeline) resample(enriched *table.Table) outcome {
	vector, err := interp.Linear(enriched.Values(table.Wavelength), enriched.Values(p.cfg.column), p.cfg.grid)
	if err != nil {
		return outcome{err: fmt.Errorf("pipeline: resample %s: %w", p.cfg.column, err)}
	}
	for i, v := range vector {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return outcome{err: fmt.Errorf("%w: %s at %v nm is %v", ErrNonFiniteVector, p.cfg.column, p.cfg.grid[i], v)}
		}
	}
	return outcome{vector: vector}
}

// ProcessReader parses r and processes the scan.
func (p *Pipeline) ProcessReader(ctx context.Context, r io.Reader) (*Result, error) {
	t, err := p.parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	return p.Process(ctx, t)
}

// ProcessFile parses the file at path and processes the scan.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (*Result, error) {
	t, err := p.parser.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	return p.Process(ctx, t)
}
