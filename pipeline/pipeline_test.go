package pipeline

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-nir/dsp/interp"
	"github.com/cwbudde/algo-nir/dsp/savgol"
	"github.com/cwbudde/algo-nir/internal/testutil"
	"github.com/cwbudde/algo-nir/nir/preprocess"
	"github.com/cwbudde/algo-nir/nir/scan"
	"github.com/cwbudde/algo-nir/nir/table"
)

func fullRangeScan() string {
	w := testutil.Wavelengths(900, 4, 201)
	return testutil.ScanText(w, testutil.Gaussian(w, 0.3, 0.6, 1450, 80))
}

func mustNew(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()
	p, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestDefaultGrid(t *testing.T) {
	g := DefaultGrid()
	if len(g) != 351 {
		t.Fatalf("len = %d, want 351", len(g))
	}
	if g[0] != 950 || g[len(g)-1] != 1650 {
		t.Fatalf("bounds = %v..%v", g[0], g[len(g)-1])
	}
}

func TestNewDefaults(t *testing.T) {
	p := mustNew(t)
	if p.Column() != table.MSC {
		t.Fatalf("Column = %q", p.Column())
	}
	if len(p.Grid()) != 351 {
		t.Fatalf("Grid len = %d", len(p.Grid()))
	}
	if p.Workers() < 1 {
		t.Fatalf("Workers = %d", p.Workers())
	}
	if got := p.Engine().Config(); got != preprocess.DefaultConfig() {
		t.Fatalf("engine config = %+v", got)
	}
}

func TestNewRejectsUnknownColumn(t *testing.T) {
	for _, name := range []string{table.Wavelength, table.Absorbance, "Bogus"} {
		if _, err := New(WithColumn(name)); !errors.Is(err, ErrUnknownColumn) {
			t.Fatalf("WithColumn(%q): err = %v, want ErrUnknownColumn", name, err)
		}
	}
	for _, name := range ResampleColumns() {
		if _, err := New(WithColumn(name)); err != nil {
			t.Fatalf("WithColumn(%q): %v", name, err)
		}
	}
}

func TestNewRejectsInvalidFilter(t *testing.T) {
	_, err := New(WithPreprocessOptions(preprocess.WithSavGolWindow(4)))
	if !errors.Is(err, savgol.ErrInvalidWindow) {
		t.Fatalf("err = %v, want savgol.ErrInvalidWindow", err)
	}
}

func TestProcessVector(t *testing.T) {
	p := mustNew(t)
	res, err := p.ProcessReader(context.Background(), strings.NewReader(fullRangeScan()))
	if err != nil {
		t.Fatalf("ProcessReader: %v", err)
	}
	if len(res.Vector) != 351 {
		t.Fatalf("len(Vector) = %d, want 351", len(res.Vector))
	}
	for i, v := range res.Vector {
		if v < 0 || v > 1 {
			t.Fatalf("Vector[%d] = %v outside [0,1]", i, v)
		}
	}
	if got := res.Table.Names(); len(got) != 6 {
		t.Fatalf("table columns = %v", got)
	}
	if res.HasPrediction {
		t.Fatal("HasPrediction without predictor")
	}
	if n := len(res.Records()); n != 201 {
		t.Fatalf("records = %d, want 201", n)
	}
}

func TestProcessMatchesResampler(t *testing.T) {
	p := mustNew(t, WithColumn(table.SNV))
	res, err := p.ProcessReader(context.Background(), strings.NewReader(fullRangeScan()))
	if err != nil {
		t.Fatalf("ProcessReader: %v", err)
	}
	want, err := interp.Linear64(res.Table.Values(table.Wavelength), res.Table.Values(table.SNV), DefaultGrid())
	if err != nil {
		t.Fatalf("Linear64: %v", err)
	}
	testutil.RequireFloat32SliceNearlyEqual(t, res.Vector, want, 1e-6)
}

func TestProcessClipsToScanRange(t *testing.T) {
	w := testutil.Wavelengths(1000, 2, 101)
	text := testutil.ScanText(w, testutil.Ramp(0.2, 0.002, 101))

	p := mustNew(t)
	res, err := p.ProcessReader(context.Background(), strings.NewReader(text))
	if err != nil {
		t.Fatalf("ProcessReader: %v", err)
	}

	msc := res.Table.Values(table.MSC)
	first, last := msc[0], msc[len(msc)-1]
	for i, g := range p.Grid() {
		got := float64(res.Vector[i])
		switch {
		case g <= 1000 && math.Abs(got-first) > 1e-6:
			t.Fatalf("grid %v: got %v, want %v", g, got, first)
		case g >= 1200 && math.Abs(got-last) > 1e-6:
			t.Fatalf("grid %v: got %v, want %v", g, got, last)
		}
	}
}

func TestProcessCustomGrid(t *testing.T) {
	grid, _ := interp.Grid(1000, 1100, 10)
	p := mustNew(t, WithGrid(grid), WithGrid(nil))
	res, err := p.ProcessReader(context.Background(), strings.NewReader(fullRangeScan()))
	if err != nil {
		t.Fatalf("ProcessReader: %v", err)
	}
	if len(res.Vector) != 11 {
		t.Fatalf("len(Vector) = %d, want 11", len(res.Vector))
	}
}

func TestProcessEmptyScan(t *testing.T) {
	p := mustNew(t)
	_, err := p.ProcessReader(context.Background(), strings.NewReader("no data here\n"))
	if !errors.Is(err, ErrEmptyScan) {
		t.Fatalf("err = %v, want ErrEmptyScan", err)
	}
	if _, err := p.Process(context.Background(), table.Empty()); !errors.Is(err, ErrEmptyScan) {
		t.Fatalf("err = %v, want ErrEmptyScan", err)
	}
}

func TestProcessSingleRowFails(t *testing.T) {
	text := testutil.ScanText([]float64{1000}, []float64{0.4})
	p := mustNew(t)
	_, err := p.ProcessReader(context.Background(), strings.NewReader(text))
	if !errors.Is(err, interp.ErrDegenerateAxis) {
		t.Fatalf("err = %v, want interp.ErrDegenerateAxis", err)
	}
}

func TestProcessRejectsVectorBeyondFloat32(t *testing.T) {
	w := testutil.Wavelengths(900, 4, 201)
	text := testutil.ScanText(w, testutil.Gaussian(w, 1e39, 1e38, 1300, 80))

	p := mustNew(t, WithColumn(table.Original))
	_, err := p.ProcessReader(context.Background(), strings.NewReader(text))
	if !errors.Is(err, ErrNonFiniteVector) {
		t.Fatalf("err = %v, want ErrNonFiniteVector", err)
	}

	// min-max scaled columns stay representable
	if _, err := mustNew(t).ProcessReader(context.Background(), strings.NewReader(text)); err != nil {
		t.Fatalf("MSC column: %v", err)
	}
}

func TestProcessCustomMarker(t *testing.T) {
	text := strings.ReplaceAll(fullRangeScan(), "***Scan Data***", "##Data##")
	p := mustNew(t, WithScanOptions(scan.WithMarker("##Data##")))
	if _, err := p.ProcessReader(context.Background(), strings.NewReader(text)); err != nil {
		t.Fatalf("ProcessReader: %v", err)
	}
}

func TestProcessPredictor(t *testing.T) {
	sum := PredictorFunc(func(_ context.Context, v []float32) (float64, error) {
		var s float64
		for _, x := range v {
			s += float64(x)
		}
		return s, nil
	})

	p := mustNew(t, WithPredictor(sum))
	res, err := p.ProcessReader(context.Background(), strings.NewReader(fullRangeScan()))
	if err != nil {
		t.Fatalf("ProcessReader: %v", err)
	}
	if !res.HasPrediction || res.Prediction <= 0 {
		t.Fatalf("prediction = %v (%v)", res.Prediction, res.HasPrediction)
	}

	boom := errors.New("boom")
	p = mustNew(t, WithPredictor(PredictorFunc(func(context.Context, []float32) (float64, error) {
		return 0, boom
	})))
	if _, err := p.ProcessReader(context.Background(), strings.NewReader(fullRangeScan())); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}

func TestProcessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.csv")
	if err := os.WriteFile(path, []byte(fullRangeScan()), 0o600); err != nil {
		t.Fatal(err)
	}

	p := mustNew(t)
	res, err := p.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if len(res.Vector) != 351 {
		t.Fatalf("len(Vector) = %d", len(res.Vector))
	}

	if _, err := p.ProcessFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv")); !errors.Is(err, scan.ErrRead) {
		t.Fatalf("err = %v, want scan.ErrRead", err)
	}
}

func TestProcessCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := mustNew(t)
	if _, err := p.ProcessReader(ctx, strings.NewReader(fullRangeScan())); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestResultVectorIsFinite(t *testing.T) {
	p := mustNew(t, WithColumn(table.SG2))
	res, err := p.ProcessReader(context.Background(), strings.NewReader(fullRangeScan()))
	if err != nil {
		t.Fatalf("ProcessReader: %v", err)
	}
	for i, v := range res.Vector {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("Vector[%d] = %v", i, v)
		}
	}
}
