package scan

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-nir/nir/table"
)

// DefaultMarker introduces the scan-data section.
const DefaultMarker = "***Scan Data***"

// maxLineSize bounds a single line of the export.
const maxLineSize = 1 << 20

// ErrRead wraps I/O failures while reading the source.
var ErrRead = errors.New("scan: read failed")

// Columns lists the output column names in order.
var Columns = []string{table.Wavelength, table.Absorbance, table.ReferenceSignal, table.SampleSignal}

// RawScan holds the four parsed sequences of one scan. All slices have the
// same length; wavelengths are in file order and not necessarily sorted.
type RawScan struct {
	Wavelength      []float64
	Absorbance      []float64
	ReferenceSignal []float64
	SampleSignal    []float64
}

// Len returns the number of rows.
func (r RawScan) Len() int { return len(r.Wavelength) }

// Table converts the scan into a four-column table, or the empty table if
// the scan has no rows.
func (r RawScan) Table() *table.Table {
	if r.Len() == 0 {
		return table.Empty()
	}
	t, err := table.New(Columns, [][]float64{r.Wavelength, r.Absorbance, r.ReferenceSignal, r.SampleSignal})
	if err != nil {
		// RawScan is only built by appending whole rows.
		panic(fmt.Sprintf("scan: inconsistent raw scan: %v", err))
	}
	return t
}

// Stats summarises one parse.
type Stats struct {
	MarkerFound bool
	Rows        int // rows kept
	Dropped     int // rows discarded as malformed
}

type config struct {
	marker string
}

// Option configures a [Parser].
type Option func(*config)

// WithMarker overrides the section marker. Empty markers are ignored.
func WithMarker(marker string) Option {
	return func(cfg *config) {
		if marker != "" {
			cfg.marker = marker
		}
	}
}

// Parser parses scan exports. It holds no mutable state and is safe for
// concurrent use.
type Parser struct {
	marker string
}

// NewParser returns a parser with the given options applied.
func NewParser(opts ...Option) *Parser {
	cfg := config{marker: DefaultMarker}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Parser{marker: cfg.marker}
}

// Marker returns the section marker.
func (p *Parser) Marker() string { return p.marker }

// ParseRaw reads r and returns the scan rows together with parse statistics.
func (p *Parser) ParseRaw(r io.Reader) (RawScan, Stats, error) {
	var (
		raw   RawScan
		stats Stats
		m     = newMachine(p.marker)
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for m.state != stateDone && sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if !m.step(line) {
			continue
		}
		row, ok := parseRow(line)
		if !ok {
			stats.Dropped++
			continue
		}
		raw.Wavelength = append(raw.Wavelength, row[0])
		raw.Absorbance = append(raw.Absorbance, row[1])
		raw.ReferenceSignal = append(raw.ReferenceSignal, row[2])
		raw.SampleSignal = append(raw.SampleSignal, row[3])
	}
	if err := sc.Err(); err != nil {
		return RawScan{}, Stats{}, fmt.Errorf("%w: %w", ErrRead, err)
	}

	stats.MarkerFound = m.state != stateSeekingMarker
	stats.Rows = raw.Len()

	return raw, stats, nil
}

// Parse reads r and returns the scan as a four-column table, or the empty
// table when no valid rows were found.
func (p *Parser) Parse(r io.Reader) (*table.Table, error) {
	raw, _, err := p.ParseRaw(r)
	if err != nil {
		return nil, err
	}
	return raw.Table(), nil
}

// ParseFile opens path and parses it.
func (p *Parser) ParseFile(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer f.Close()

	return p.Parse(f)
}

// Parse parses r with the default marker.
func Parse(r io.Reader) (*table.Table, error) {
	return NewParser().Parse(r)
}

// ParseString parses an in-memory export with the default marker.
func ParseString(s string) *table.Table {
	t, err := NewParser().Parse(strings.NewReader(s))
	if err != nil {
		return table.Empty()
	}
	return t
}

// ParseFile parses the file at path with the default marker.
func ParseFile(path string) (*table.Table, error) {
	return NewParser().ParseFile(path)
}

// parseRow decodes the first four numeric fields of a data row.
func parseRow(line string) ([4]float64, bool) {
	var out [4]float64

	fields := splitFields(line)
	if len(fields) < 4 {
		return out, false
	}
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return out, false
		}
		out[i] = v
	}
	return out, true
}

// splitFields splits a CSV row, honouring quotes, or a whitespace-separated
// row when the line has no comma.
func splitFields(line string) []string {
	if !strings.Contains(line, ",") {
		return strings.Fields(line)
	}
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	fields, err := r.Read()
	if err != nil {
		return nil
	}
	return fields
}
