package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/bastiangx/tokenserve/internal/logger"
	"github.com/bastiangx/tokenserve/pkg/config"
	"github.com/bastiangx/tokenserve/pkg/engine"
	"github.com/charmbracelet/log"
)

// DemoText is tokenized by GET / when the demo route is enabled.
const DemoText = "すもももももももものうち"

// Server is the HTTP front of one engine handle.
type Server struct {
	cfg      config.Config
	pipeline *Pipeline
	handler  http.Handler
	logger   *log.Logger
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger replaces the default "server" logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer wires the routes for cfg over h.
func NewServer(cfg config.Config, h engine.Handle, opts ...Option) *Server {
	s := &Server{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.New("server")
	}
	s.pipeline = NewPipeline(h, NewFormatter(cfg.Format), cfg.Normalize, s.logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+cfg.Path, s.handleTokenize)
	mux.HandleFunc("GET /health", s.handleHealth)
	if cfg.Demo {
		mux.HandleFunc("GET /{$}", s.handleDemo)
	}

	s.handler = Chain(mux,
		RequestID(),
		RequestLogger(s.logger),
		Recovery(s.logger),
		RateLimit(cfg.RateLimit, cfg.RateBurst, s.logger),
	)
	return s
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe binds the configured address and serves until the process
// is terminated.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Listening", "addr", ln.Addr().String(), "path", s.cfg.Path, "format", s.cfg.Format, "policy", s.cfg.Policy)
	return srv.Serve(ln)
}

func (s *Server) handleTokenize(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength >= MaxBodyBytes {
		s.rejectTooLarge(w, r, r.ContentLength)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes-1))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.rejectTooLarge(w, r, -1)
			return
		}
		s.logger.Error("Reading body", "id", RequestIDFromContext(r.Context()), "err", err)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("reading body: %v", err)})
		return
	}

	s.respond(w, r, body)
}

func (s *Server) handleDemo(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, []byte(DemoText))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, body []byte) {
	out, err := s.pipeline.Process(r.Context(), body)
	if err != nil {
		writeJSON(w, http.StatusOK, mapError(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		s.logger.Debug("Writing response", "id", RequestIDFromContext(r.Context()), "err", err)
	}
}

func (s *Server) rejectTooLarge(w http.ResponseWriter, r *http.Request, size int64) {
	s.logger.Warn("Body too large", "id", RequestIDFromContext(r.Context()), "size", size)
	writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
		Error: fmt.Sprintf("request body must be smaller than %d bytes", MaxBodyBytes),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
