// Package server exposes batch conversion over HTTP.
//
// Routes:
//
//	POST /upload              multipart "files", returns a job ID
//	POST /process/{id}        converts the job's files synchronously
//	GET  /progress/{id}       job state and per-file results
//	GET  /status/{id}         completed once outputs exist
//	GET  /download/{file}     one output document
//	GET  /download_all/{id}   ZIP of a job's outputs
//
// Errors are JSON objects with a single "error" field.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tsawler/redline"
	"github.com/tsawler/redline/config"
	"github.com/tsawler/redline/internal/logging"
	"github.com/tsawler/redline/jobs"
)

// Config holds configuration for a Server.
type Config struct {
	UploadDir string
	OutputDir string

	// MaxUploadBytes limits the total size of one upload request
	MaxUploadBytes int64

	Store jobs.Store

	// Options are applied to every conversion
	Options []redline.Option

	// Logger receives one entry per request and per document (default: discard)
	Logger logrus.FieldLogger
}

// FromConfig derives a server configuration from application settings.
func FromConfig(cfg *config.Config, store jobs.Store, log logrus.FieldLogger) Config {
	return Config{
		UploadDir:      cfg.Folders.Upload,
		OutputDir:      cfg.Folders.Output,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Store:          store,
		Options: []redline.Option{
			redline.WithDPI(cfg.Render.DPI),
			redline.WithPdftoppm(cfg.Render.Pdftoppm),
		},
		Logger: log,
	}
}

// Server is the HTTP handler of the conversion service.
type Server struct {
	config Config
	store  jobs.Store
	log    logrus.FieldLogger
	mux    *http.ServeMux
}

// New creates a server. The upload and output directories must exist.
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("server: no job store configured")
	}
	if cfg.UploadDir == "" || cfg.OutputDir == "" {
		return nil, errors.New("server: upload and output directories are required")
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = config.DefaultMaxUploadBytes
	}

	s := &Server{
		config: cfg,
		store:  cfg.Store,
		log:    logging.OrDiscard(cfg.Logger),
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /upload", s.handleUpload)
	s.mux.HandleFunc("POST /process/{id}", s.handleProcess)
	s.mux.HandleFunc("GET /progress/{id}", s.handleProgress)
	s.mux.HandleFunc("GET /status/{id}", s.handleStatus)
	s.mux.HandleFunc("GET /download/{file}", s.handleDownload)
	s.mux.HandleFunc("GET /download_all/{id}", s.handleDownloadAll)
}

// ServeHTTP logs and dispatches a request.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.log.WithFields(logrus.Fields{
		"method":   r.Method,
		"path":     r.URL.Path,
		"status":   rec.status,
		"duration": time.Since(start).String(),
	}).Info("request")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// noCache sets the headers sent with every download.
func noCache(h http.Header) {
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Content-Security-Policy", "default-src 'self'")
	h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
}
