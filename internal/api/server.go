// Package api serves the banking assistant over HTTP. Request and
// response bodies are JSON; responses carry the service envelope, so a
// handled request answers 200 with success/error fields and only
// undecodable requests get a 4xx.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/parker-estes/bankdocs/internal/service"
)

// DefaultTimeout bounds request handling when none is configured.
const DefaultTimeout = 60 * time.Second

// Options configures the HTTP server.
type Options struct {
	// Port to listen on.
	Port int
	// Timeout bounds each request's context. Zero means DefaultTimeout.
	Timeout time.Duration
	// MCP, when set, is mounted at /mcp.
	MCP http.Handler
	// Logger for request-level failures. Nil means slog.Default().
	Logger *slog.Logger
}

// Server is the HTTP front end over the service facade.
type Server struct {
	svc     *service.Service
	logger  *slog.Logger
	timeout time.Duration
	httpSrv *http.Server
}

// NewServer builds the server and its route table.
func NewServer(svc *service.Service, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	s := &Server{
		svc:     svc,
		logger:  opts.Logger,
		timeout: opts.Timeout,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/ask", s.handleAsk)
	mux.HandleFunc("POST /api/ask/history", s.handleAskWithHistory)
	mux.HandleFunc("POST /api/search", s.handleSearch)
	mux.HandleFunc("POST /api/documents", s.handleLoadDocuments)
	mux.HandleFunc("GET /api/documents", s.handleListDocuments)
	mux.HandleFunc("DELETE /api/documents", s.handleDeleteDocument)
	mux.HandleFunc("POST /api/structured", s.handleStructured)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("POST /api/history/clear", s.handleClearHistory)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleLanding)
	if opts.MCP != nil {
		mux.Handle("/mcp", opts.MCP)
	}

	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the route table, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Start listens and serves until Shutdown. Returns
// http.ErrServerClosed after a clean shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpSrv.Addr)
	return s.httpSrv.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// requestContext bounds a handler's work by the configured timeout.
func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.timeout)
}
