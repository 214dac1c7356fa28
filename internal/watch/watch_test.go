package watch

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwbudde/algo-nir/internal/testutil"
	"github.com/cwbudde/algo-nir/pipeline"
)

func scanText() string {
	w := testutil.Wavelengths(900, 4, 201)
	return testutil.ScanText(w, testutil.Gaussian(w, 0.3, 0.6, 1450, 80))
}

func newPipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()
	p, err := pipeline.New()
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	return p
}

func readOutput(t *testing.T, path string) Output {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var doc Output
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	return doc
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/in/scan.csv", filepath.Join("/out", "scan.json")},
		{"/in/scan.CSV", filepath.Join("/out", "scan.json")},
		{"/in/a.b.csv", filepath.Join("/out", "a.b.json")},
	}
	for _, tc := range tests {
		if got := OutputPath("/out", tc.path); got != tc.want {
			t.Fatalf("OutputPath(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestProcessFile(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	path := filepath.Join(in, "soil.csv")
	if err := os.WriteFile(path, []byte(scanText()), 0o600); err != nil {
		t.Fatal(err)
	}

	w := NewWatcher(in, out, newPipeline(t), nil)
	ev := w.ProcessFile(context.Background(), path)
	if ev.Err != nil {
		t.Fatalf("ProcessFile: %v", ev.Err)
	}
	if ev.Output != filepath.Join(out, "soil.json") {
		t.Fatalf("Output = %q", ev.Output)
	}

	doc := readOutput(t, ev.Output)
	if doc.Source != "soil.csv" || doc.Column != "MSC" {
		t.Fatalf("doc header = %q %q", doc.Source, doc.Column)
	}
	if len(doc.PreprocessedData) != 201 || len(doc.Vector) != 351 {
		t.Fatalf("doc sizes = %d records, %d vector", len(doc.PreprocessedData), len(doc.Vector))
	}
	if _, err := os.Stat(ev.Output + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("temporary file left behind: %v", err)
	}
}

func TestProcessFileEmptyScan(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	path := filepath.Join(in, "blank.csv")
	if err := os.WriteFile(path, []byte("Serial:,0001\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	w := NewWatcher(in, out, newPipeline(t), nil)
	ev := w.ProcessFile(context.Background(), path)
	if !errors.Is(ev.Err, pipeline.ErrEmptyScan) {
		t.Fatalf("err = %v, want ErrEmptyScan", ev.Err)
	}
	if _, err := os.Stat(OutputPath(out, path)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("output written for empty scan: %v", err)
	}
}

func TestRunProcessesNewFiles(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "nested", "out")

	w := NewWatcher(in, out, newPipeline(t), nil)
	w.settle = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// The output directory exists once the watcher is running.
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(out); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("watcher did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(in, "notes.txt"), []byte("ignored"), 0o600); err != nil {
		t.Fatal(err)
	}
	staged := filepath.Join(in, "a.partial")
	if err := os.WriteFile(staged, []byte(scanText()), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(staged, filepath.Join(in, "a.csv")); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-w.Events():
		if ev.Err != nil {
			t.Fatalf("event error: %v", ev.Err)
		}
		if filepath.Base(ev.Path) != "a.csv" {
			t.Fatalf("event path = %q", ev.Path)
		}
		if doc := readOutput(t, ev.Output); len(doc.Vector) != 351 {
			t.Fatalf("vector len = %d", len(doc.Vector))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no event for a.csv")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "notes.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("non-scan file processed: %v", err)
	}
}

func TestRunMissingDir(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "missing"), t.TempDir(), newPipeline(t), nil)
	if err := w.Run(context.Background()); err == nil {
		t.Fatal("Run on a missing directory succeeded")
	}
}

func TestSettlerIgnoresStaleTicks(t *testing.T) {
	ctx := context.Background()
	st := newSettler(0)
	defer st.stop()

	recv := func() settleTick {
		t.Helper()
		select {
		case tick := <-st.ready:
			return tick
		case <-time.After(time.Second):
			t.Fatal("no tick")
			return settleTick{}
		}
	}

	// a write lands after the first timer fired but before its tick is read
	st.touch(ctx, "a.csv")
	first := recv()
	st.touch(ctx, "a.csv")
	second := recv()

	if st.settled(first) {
		t.Fatal("stale tick settled")
	}
	if !st.settled(second) {
		t.Fatal("latest tick not settled")
	}
	if st.settled(second) {
		t.Fatal("tick settled twice")
	}
}

func TestSettlerDebounces(t *testing.T) {
	st := newSettler(time.Hour)
	defer st.stop()

	ctx := context.Background()
	st.touch(ctx, "a.csv")
	st.touch(ctx, "a.csv")
	st.touch(ctx, "b.csv")

	if len(st.timers) != 2 {
		t.Fatalf("timers = %d, want 2", len(st.timers))
	}
	if st.settled(settleTick{name: "a.csv", gen: 1}) {
		t.Fatal("superseded generation settled")
	}
	if !st.settled(settleTick{name: "a.csv", gen: 2}) {
		t.Fatal("latest generation not settled")
	}
	if !st.settled(settleTick{name: "b.csv", gen: 3}) {
		t.Fatal("b.csv not settled")
	}
}
