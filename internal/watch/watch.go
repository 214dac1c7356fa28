// Package watch processes scan files as they appear in a directory.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cwbudde/algo-nir/internal/logging"
	"github.com/cwbudde/algo-nir/nir/table"
	"github.com/cwbudde/algo-nir/pipeline"
)

// Output is the document written for each processed scan.
type Output struct {
	Source           string         `json:"source"`
	Column           string         `json:"column"`
	PreprocessedData []table.Record `json:"preprocessedData"`
	Vector           []float32      `json:"vector"`
	Prediction       *float64       `json:"prediction,omitempty"`
}

// Event reports the outcome of one processed file.
type Event struct {
	Path   string
	Output string
	Err    error
}

// Watcher runs the pipeline on .csv files created or written in a directory
// and stores the result as <name>.json in an output directory.
type Watcher struct {
	dir      string
	out      string
	pipeline *pipeline.Pipeline
	log      *slog.Logger
	settle   time.Duration
	events   chan Event
}

// NewWatcher creates a watcher for dir writing into out.
func NewWatcher(dir, out string, pipe *pipeline.Pipeline, log *slog.Logger) *Watcher {
	if log == nil {
		log = logging.Discard()
	}
	return &Watcher{
		dir:      dir,
		out:      out,
		pipeline: pipe,
		log:      log,
		settle:   100 * time.Millisecond,
		events:   make(chan Event, 100),
	}
}

// Events delivers one Event per processed file. Events are dropped when
// nobody reads them.
func (w *Watcher) Events() <-chan Event { return w.events }

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.out, 0o755); err != nil {
		return fmt.Errorf("watch: create output dir: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch: add %s: %w", w.dir, err)
	}
	w.log.Info("watching directory", "dir", w.dir, "out", w.out)

	// Writers often emit several events per file; process once it settles.
	st := newSettler(w.settle)
	defer st.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !isScanFile(ev.Name) {
				continue
			}
			st.touch(ctx, ev.Name)

		case tick := <-st.ready:
			if !st.settled(tick) {
				continue
			}
			w.emit(w.ProcessFile(ctx, tick.name))

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", "error", err)
		}
	}
}

type settleTick struct {
	name string
	gen  uint64
}

// settler debounces per-file events. Each touch starts a new generation,
// unique across files, and ticks from older generations are ignored by
// settled. Only the owning goroutine calls its methods; timers send on ready.
type settler struct {
	delay  time.Duration
	ready  chan settleTick
	next   uint64
	gens   map[string]uint64
	timers map[string]*time.Timer
}

func newSettler(delay time.Duration) *settler {
	return &settler{
		delay:  delay,
		ready:  make(chan settleTick, 100),
		gens:   make(map[string]uint64),
		timers: make(map[string]*time.Timer),
	}
}

func (s *settler) touch(ctx context.Context, name string) {
	if t, ok := s.timers[name]; ok {
		t.Stop()
	}
	s.next++
	s.gens[name] = s.next
	tick := settleTick{name: name, gen: s.next}
	s.timers[name] = time.AfterFunc(s.delay, func() {
		select {
		case s.ready <- tick:
		case <-ctx.Done():
		}
	})
}

// settled reports whether tick is the latest generation for its file and
// forgets the file if so.
func (s *settler) settled(tick settleTick) bool {
	if gen, ok := s.gens[tick.name]; !ok || gen != tick.gen {
		return false
	}
	delete(s.gens, tick.name)
	delete(s.timers, tick.name)
	return true
}

func (s *settler) stop() {
	for _, t := range s.timers {
		t.Stop()
	}
}

func (w *Watcher) emit(ev Event) {
	select {
	case w.events <- ev:
	default:
	}
}

// ProcessFile runs the pipeline on path and writes the JSON output.
func (w *Watcher) ProcessFile(ctx context.Context, path string) Event {
	start := time.Now()
	ev := Event{Path: path}

	res, err := w.pipeline.ProcessFile(ctx, path)
	if err != nil {
		ev.Err = err
		logging.LogScanFailed(w.log, path, time.Since(start), err)
		return ev
	}

	doc := Output{
		Source:           filepath.Base(path),
		Column:           w.pipeline.Column(),
		PreprocessedData: res.Records(),
		Vector:           res.Vector,
	}
	if res.HasPrediction {
		doc.Prediction = &res.Prediction
	}

	ev.Output = OutputPath(w.out, path)
	if err := writeJSON(ev.Output, doc); err != nil {
		ev.Err = err
		logging.LogScanFailed(w.log, path, time.Since(start), err)
		return ev
	}

	logging.LogScanProcessed(w.log, path, res.Table.Len(), len(res.Vector), time.Since(start))
	return ev
}

// OutputPath maps a scan file to its JSON document in out.
func OutputPath(out, path string) string {
	base := filepath.Base(path)
	return filepath.Join(out, strings.TrimSuffix(base, filepath.Ext(base))+".json")
}

func isScanFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

// writeJSON writes through a temporary file so readers never see a
// partial document.
func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("watch: encode: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("watch: write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("watch: rename: %w", err)
	}
	return nil
}
