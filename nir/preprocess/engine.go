package preprocess

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-nir/dsp/savgol"
	"github.com/cwbudde/algo-nir/nir/table"
)

var (
	// ErrEmptyTable indicates a scan table without columns or rows.
	ErrEmptyTable = errors.New("preprocess: empty scan table")
	// ErrMissingColumn indicates a scan table without wavelength or absorbance.
	ErrMissingColumn = errors.New("preprocess: missing column")
)

// OutputColumns lists the columns of a transformed table, in order.
var OutputColumns = []string{table.Wavelength, table.Original, table.MSC, table.SNV, table.SG1, table.SG2}

// Config holds the Savitzky-Golay parameters of an [Engine].
type Config struct {
	Window int
	Order  int
	Delta  float64
}

// DefaultConfig returns the parameters existing models were trained with.
func DefaultConfig() Config {
	return Config{
		Window: 11,
		Order:  2,
		Delta:  1,
	}
}

// Option mutates a Config.
type Option func(*Config)

// WithSavGolWindow sets the Savitzky-Golay window length.
func WithSavGolWindow(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.Window = n
		}
	}
}

// WithSavGolOrder sets the Savitzky-Golay polynomial order.
func WithSavGolOrder(n int) Option {
	return func(cfg *Config) {
		if n >= 0 {
			cfg.Order = n
		}
	}
}

// WithSavGolDelta sets the sample spacing used to scale derivatives.
func WithSavGolDelta(d float64) Option {
	return func(cfg *Config) {
		if d > 0 {
			cfg.Delta = d
		}
	}
}

// Engine computes the transform table of a scan. An Engine is immutable
// and safe for concurrent use.
type Engine struct {
	cfg Config
	sg1 *savgol.Filter
	sg2 *savgol.Filter
}

// NewEngine designs the derivative filters for the given options.
func NewEngine(opts ...Option) (*Engine, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	sg1, err := savgol.New(cfg.Window, cfg.Order, 1, savgol.WithDelta(cfg.Delta))
	if err != nil {
		return nil, fmt.Errorf("preprocess: first derivative: %w", err)
	}
	sg2, err := savgol.New(cfg.Window, cfg.Order, 2, savgol.WithDelta(cfg.Delta))
	if err != nil {
		return nil, fmt.Errorf("preprocess: second derivative: %w", err)
	}

	return &Engine{cfg: cfg, sg1: sg1, sg2: sg2}, nil
}

// Config returns the engine parameters.
func (e *Engine) Config() Config { return e.cfg }

// Curves holds the transforms of one absorbance curve, index-aligned with
// its wavelength axis.
type Curves struct {
	Original []float64
	MSC      []float64
	SNV      []float64
	SG1      []float64
	SG2      []float64
}

// Curves computes all transforms of one absorbance curve, treated as a
// batch of one.
func (e *Engine) Curves(absorbance []float64) (Curves, error) {
	if len(absorbance) == 0 {
		return Curves{}, ErrEmptyTable
	}

	batch := [][]float64{absorbance}

	msc, err := MSCScaled(batch)
	if err != nil {
		return Curves{}, err
	}
	sg1, err := e.sg1.Apply(absorbance)
	if err != nil {
		return Curves{}, fmt.Errorf("preprocess: SG1: %w", err)
	}
	sg2, err := e.sg2.Apply(absorbance)
	if err != nil {
		return Curves{}, fmt.Errorf("preprocess: SG2: %w", err)
	}

	original := make([]float64, len(absorbance))
	copy(original, absorbance)

	return Curves{
		Original: original,
		MSC:      msc[0],
		SNV:      SNV(batch)[0],
		SG1:      sg1,
		SG2:      sg2,
	}, nil
}

// Transform reads the Wavelength and Absorbance columns of a parsed scan
// and returns a new table with the columns listed in [OutputColumns].
// The caller must not pass an empty table.
func (e *Engine) Transform(scan *table.Table) (*table.Table, error) {
	if scan.Empty() || scan.Len() == 0 {
		return nil, ErrEmptyTable
	}

	wl := scan.Column(table.Wavelength)
	abs := scan.Column(table.Absorbance)
	if !wl.Present {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, table.Wavelength)
	}
	if !abs.Present {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, table.Absorbance)
	}

	c, err := e.Curves(abs.Values)
	if err != nil {
		return nil, err
	}

	return table.New(OutputColumns, [][]float64{wl.Values, c.Original, c.MSC, c.SNV, c.SG1, c.SG2})
}

// Transform runs a default [Engine] over scan.
func Transform(scan *table.Table) (*table.Table, error) {
	e, err := NewEngine()
	if err != nil {
		return nil, err
	}
	return e.Transform(scan)
}
