// Package server exposes the preprocessing pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/cwbudde/algo-nir/dsp/interp"
	"github.com/cwbudde/algo-nir/nir/table"
	"github.com/cwbudde/algo-nir/pipeline"
)

// DefaultMaxUpload is the request body limit when none is configured.
const DefaultMaxUpload = 32 << 20

// Server serves the pipeline over HTTP.
type Server struct {
	addr      string
	pipeline  *pipeline.Pipeline
	maxUpload int64
	log       *slog.Logger
	server    *http.Server
}

// NewServer creates a server for pipe. A non-positive maxUpload selects
// DefaultMaxUpload.
func NewServer(addr string, pipe *pipeline.Pipeline, maxUpload int64, log *slog.Logger) *Server {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUpload
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Server{
		addr:      addr,
		pipeline:  pipe,
		maxUpload: maxUpload,
		log:       log,
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	s.setupRoutes(r)
	r.Use(s.logRequests)
	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.log.Info("shutting down server")

		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(ctxShutdown)
	}()

	s.log.Info("server starting", "addr", s.addr)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) setupRoutes(r *mux.Router) {
	r.HandleFunc("/api/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/api/grid", s.handleGrid).Methods("GET")
	r.HandleFunc("/api/preprocess", s.handlePreprocess).Methods("POST")
	r.HandleFunc("/api/batch", s.handleBatch).Methods("POST")
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

type messageResponse struct {
	Message string `json:"message"`
}

type preprocessResponse struct {
	PreprocessedData []table.Record `json:"preprocessedData"`
	Vector           []float32      `json:"vector"`
	Prediction       *float64       `json:"prediction,omitempty"`
}

type batchResponse struct {
	Message      string    `json:"message"`
	NumFilesUsed int       `json:"numFilesUsed"`
	Skipped      []string  `json:"skipped,omitempty"`
	Vector       []float32 `json:"vector"`
	Prediction   *float64  `json:"prediction,omitempty"`
}

type gridResponse struct {
	Column string    `json:"column"`
	Points int       `json:"points"`
	Grid   []float64 `json:"grid"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	grid := s.pipeline.Grid()
	writeJSON(w, http.StatusOK, gridResponse{
		Column: s.pipeline.Column(),
		Points: len(grid),
		Grid:   grid,
	})
}

func (s *Server) handlePreprocess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	body, closeBody, err := s.scanBody(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "No file part in the request")
		return
	}
	defer closeBody()

	res, err := s.pipeline.ProcessReader(r.Context(), body)
	if err != nil {
		s.writeProcessError(w, err)
		return
	}

	resp := preprocessResponse{
		PreprocessedData: res.Records(),
		Vector:           res.Vector,
	}
	if res.HasPrediction {
		resp.Prediction = &res.Prediction
	}
	writeJSON(w, http.StatusOK, resp)
}

// scanBody returns the uploaded "file" part of a multipart request, or the
// raw body otherwise.
func (s *Server) scanBody(r *http.Request) (io.Reader, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, func() {}, nil
	}

	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		return nil, nil, err
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeMessage(w, http.StatusBadRequest, "No file part in the request")
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeMessage(w, http.StatusBadRequest, "No files selected")
		return
	}

	sources := make([]pipeline.Source, 0, len(headers))
	for _, fh := range headers {
		if !strings.EqualFold(filepath.Ext(fh.Filename), ".csv") {
			writeMessage(w, http.StatusBadRequest, "Only CSV files are allowed")
			return
		}
		sources = append(sources, uploadSource(fh))
	}

	res, err := s.pipeline.ProcessBatch(r.Context(), sources)
	if errors.Is(err, pipeline.ErrNoValidScans) {
		writeMessage(w, http.StatusBadRequest, "No valid spectral data found")
		return
	}
	if err != nil {
		s.writeProcessError(w, err)
		return
	}

	resp := batchResponse{
		Message:      "Files processed successfully",
		NumFilesUsed: res.Used,
		Vector:       res.Vector,
	}
	for _, sk := range res.Skipped {
		resp.Skipped = append(resp.Skipped, sk.Name)
	}
	if res.HasPrediction {
		resp.Prediction = &res.Prediction
	}
	writeJSON(w, http.StatusOK, resp)
}

func uploadSource(fh *multipart.FileHeader) pipeline.Source {
	return pipeline.Source{
		Name: fh.Filename,
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}

func (s *Server) writeProcessError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, pipeline.ErrEmptyScan):
		writeMessage(w, http.StatusBadRequest, "No scan data found")
	case errors.Is(err, interp.ErrDegenerateAxis), errors.Is(err, pipeline.ErrNonFiniteVector):
		writeMessage(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &maxErr):
		writeMessage(w, http.StatusRequestEntityTooLarge, err.Error())
	default:
		s.log.Error("processing failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "An error occurred: "+err.Error())
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// writeJSON marshals v before committing status. Marshal failures are
// reported as 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(messageResponse{Message: "An error occurred: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}
