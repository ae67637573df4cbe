// Package mcpgo exposes foodlens operations as MCP tools over stdio or streamable HTTP
package mcpgo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/noot-app/foodlens/internal/appstate"
	"github.com/noot-app/foodlens/internal/auth"
	"github.com/noot-app/foodlens/internal/ledger"
	"github.com/noot-app/foodlens/internal/types"
	"github.com/noot-app/foodlens/internal/version"
)

const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 90 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 30 * time.Second
	healthCacheTTL  = 10 * time.Second
)

// Recognizer turns images into scan results. It always returns a result.
type Recognizer interface {
	RecognizeFood(ctx context.Context, imagePath, hint string) *types.ScanResult
	RecognizeImage(ctx context.Context, data []byte, ref, hint string) *types.ScanResult
}

// BarcodeLookup resolves packaged-food barcodes
type BarcodeLookup interface {
	Lookup(ctx context.Context, barcode string) (*types.ScanResult, error)
}

// HealthChecker reports whether the backing storage is usable
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Deps are the services the tools call into. Reads go to Ledger, every mutation
// goes through State.
type Deps struct {
	Recognizer Recognizer
	Barcodes   BarcodeLookup
	Ledger     *ledger.Store
	State      *appstate.Service
	Health     HealthChecker
}

// responseRecorder captures status and size for request logs
type responseRecorder struct {
	http.ResponseWriter
	statusCode    int
	bytesWritten  int
	headerWritten bool
}

func (r *responseRecorder) WriteHeader(code int) {
	if r.headerWritten {
		return
	}
	r.statusCode = code
	r.headerWritten = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.headerWritten {
		r.WriteHeader(http.StatusOK)
	}
	n, err := r.ResponseWriter.Write(data)
	r.bytesWritten += n
	return n, err
}

// Flush keeps streamed responses working through the recorder
func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Server wraps the mark3labs MCP server
type Server struct {
	mcpServer *server.MCPServer
	deps      Deps
	auth      *auth.Bearer
	now       func() time.Time
	log       *slog.Logger

	healthMu        sync.RWMutex
	lastHealthCheck time.Time
	lastHealthError error
}

// NewServer registers every tool
func NewServer(deps Deps, authenticator *auth.Bearer, logger *slog.Logger) *Server {
	mcpServer := server.NewMCPServer(
		"foodlens",
		version.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithLogging(),
	)

	s := &Server{
		mcpServer: mcpServer,
		deps:      deps,
		auth:      authenticator,
		now:       time.Now,
		log:       logger,
	}
	s.addTools()
	return s
}

// checkHealthWithCache pings storage at most once per healthCacheTTL
func (s *Server) checkHealthWithCache(ctx context.Context) error {
	s.healthMu.RLock()
	if time.Since(s.lastHealthCheck) < healthCacheTTL {
		err := s.lastHealthError
		s.healthMu.RUnlock()
		return err
	}
	s.healthMu.RUnlock()

	s.healthMu.Lock()
	defer s.healthMu.Unlock()
	if time.Since(s.lastHealthCheck) < healthCacheTTL {
		return s.lastHealthError
	}

	var err error
	if s.deps.Health != nil {
		err = s.deps.Health.Ping(ctx)
	}
	s.lastHealthCheck = time.Now()
	s.lastHealthError = err
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := s.checkHealthWithCache(r.Context()); err != nil {
		s.log.Error("health check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": err.Error()})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy", "version": version.Version})
}

// Handler returns the HTTP routes: /health without auth and /mcp behind it
func (s *Server) Handler() http.Handler {
	streamable := server.NewStreamableHTTPServer(
		s.mcpServer,
		server.WithEndpointPath("/mcp"),
		server.WithStateLess(true),
	)

	mcpHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				s.log.Error("mcp handler panic", "panic", p, "method", r.Method, "remote_addr", r.RemoteAddr)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()

		rec := &responseRecorder{ResponseWriter: w}
		streamable.ServeHTTP(rec, r)
		s.log.Debug("mcp request",
			"method", r.Method,
			"status_code", rec.statusCode,
			"response_size", rec.bytesWritten)
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/mcp", s.auth.Middleware(mcpHandler))
	return mux
}

// ServeHTTP listens on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	if !s.auth.Enabled() {
		s.log.Warn("AUTH_TOKEN not set, /mcp is unauthenticated")
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("MCP HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down MCP HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown failed: %w", err)
	}
	return nil
}

// ServeStdio serves over stdin/stdout for local clients; no auth
func (s *Server) ServeStdio() error {
	s.log.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s.mcpServer)
}
