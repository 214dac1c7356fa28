// Package config loads nirprep settings from a YAML file, an optional .env
// file and NIRPREP_* environment variables, in that order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-nir/dsp/interp"
	"github.com/cwbudde/algo-nir/nir/preprocess"
	"github.com/cwbudde/algo-nir/nir/scan"
	"github.com/cwbudde/algo-nir/pipeline"
)

// ErrInvalidConfig indicates a configuration that cannot drive a pipeline.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Environment variables that override file settings.
const (
	EnvColumn    = "NIRPREP_COLUMN"
	EnvAddr      = "NIRPREP_ADDR"
	EnvLogLevel  = "NIRPREP_LOG_LEVEL"
	EnvLogFormat = "NIRPREP_LOG_FORMAT"
)

// Config holds all nirprep settings.
type Config struct {
	Grid    Grid   `yaml:"grid"`
	Column  string `yaml:"column"`
	SavGol  SavGol `yaml:"savgol"`
	Marker  string `yaml:"marker"`
	Workers int    `yaml:"workers"`
	Log     Log    `yaml:"log"`
	Server  Server `yaml:"server"`
	Watch   Watch  `yaml:"watch"`
}

// Grid describes the canonical wavelength grid, end inclusive.
type Grid struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
	Step  float64 `yaml:"step"`
}

// SavGol holds the derivative filter parameters.
type SavGol struct {
	Window int     `yaml:"window"`
	Order  int     `yaml:"order"`
	Delta  float64 `yaml:"delta"`
}

// Log controls the process logger.
type Log struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Server configures the HTTP surface.
type Server struct {
	Addr        string `yaml:"addr"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

// Watch configures the directory watcher.
type Watch struct {
	Dir string `yaml:"dir"`
	Out string `yaml:"out"`
}

// Default returns the settings existing models were trained with.
func Default() Config {
	sg := preprocess.DefaultConfig()
	return Config{
		Grid:   Grid{Start: pipeline.GridStart, End: pipeline.GridEnd, Step: pipeline.GridStep},
		Column: pipeline.DefaultColumn,
		SavGol: SavGol{Window: sg.Window, Order: sg.Order, Delta: sg.Delta},
		Marker: scan.DefaultMarker,
		Log:    Log{Level: "info", Format: "text"},
		Server: Server{Addr: ":8080", MaxUploadMB: 32},
		Watch:  Watch{Dir: ".", Out: "./out"},
	}
}

// Load reads the YAML file at path over the defaults and applies
// environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := decode(bytes.NewReader(b), &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML from r over the defaults without consulting the
// environment.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	if err := decode(r, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// LoadDotEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides settings from NIRPREP_* variables returned by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvColumn); ok && v != "" {
		c.Column = v
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		c.Log.Format = strings.ToLower(v)
	}
}

// Validate reports every problem found, joined, each wrapping ErrInvalidConfig.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if _, err := interp.Grid(c.Grid.Start, c.Grid.End, c.Grid.Step); err != nil {
		bad("grid: %v", err)
	}
	if !slices.Contains(pipeline.ResampleColumns(), c.Column) {
		bad("column %q is not one of %v", c.Column, pipeline.ResampleColumns())
	}
	if c.SavGol.Window < 3 || c.SavGol.Window%2 == 0 {
		bad("savgol.window %d must be odd and at least 3", c.SavGol.Window)
	}
	if c.SavGol.Order < 0 || c.SavGol.Order >= c.SavGol.Window {
		bad("savgol.order %d must be in [0, window)", c.SavGol.Order)
	}
	if !(c.SavGol.Delta > 0) {
		bad("savgol.delta %v must be positive", c.SavGol.Delta)
	}
	if strings.TrimSpace(c.Marker) == "" {
		bad("marker is empty")
	}
	if c.Workers < 0 {
		bad("workers %d is negative", c.Workers)
	}
	if !slices.Contains([]string{"debug", "info", "warn", "warning", "error"}, strings.ToLower(c.Log.Level)) {
		bad("log.level %q", c.Log.Level)
	}
	if !slices.Contains([]string{"text", "json"}, strings.ToLower(c.Log.Format)) {
		bad("log.format %q", c.Log.Format)
	}
	if c.Server.MaxUploadMB <= 0 {
		bad("server.max_upload_mb %d must be positive", c.Server.MaxUploadMB)
	}

	return errors.Join(errs...)
}

// GridPoints returns the configured grid.
func (c Config) GridPoints() ([]float64, error) {
	g, err := interp.Grid(c.Grid.Start, c.Grid.End, c.Grid.Step)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return g, nil
}

// PipelineOptions translates the settings into pipeline options.
func (c Config) PipelineOptions() ([]pipeline.Option, error) {
	grid, err := c.GridPoints()
	if err != nil {
		return nil, err
	}
	return []pipeline.Option{
		pipeline.WithGrid(grid),
		pipeline.WithColumn(c.Column),
		pipeline.WithWorkers(c.Workers),
		pipeline.WithScanOptions(scan.WithMarker(c.Marker)),
		pipeline.WithPreprocessOptions(
			preprocess.WithSavGolWindow(c.SavGol.Window),
			preprocess.WithSavGolOrder(c.SavGol.Order),
			preprocess.WithSavGolDelta(c.SavGol.Delta),
		),
	}, nil
}

// MaxUploadBytes returns the request body limit of the HTTP surface.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}
