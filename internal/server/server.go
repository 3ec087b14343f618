// Package server exposes the transaction log sink over HTTP.
//
// Routes:
//
//	GET  /health                      liveness and latest sequence number
//	POST /transactions                submit a transaction file (JSON or YAML)
//	GET  /transactions/{seq}          a stored transaction in wire form
//	GET  /entities/{id}/history       operations touching an identity
//
// Errors are returned as {"error": {"code": ..., "message": ...}}.
// Transaction validation failures carry the tx error code and status 422.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"

	"github.com/roach88/cruxtx/internal/doc"
	"github.com/roach88/cruxtx/internal/store"
	"github.com/roach88/cruxtx/internal/tx"
	"github.com/roach88/cruxtx/internal/txlog"
)

// DefaultMaxBodyBytes caps the size of a submitted transaction file.
const DefaultMaxBodyBytes = 1 << 20

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store is the subset of *store.Store the server needs.
type Store interface {
	Submit(ctx context.Context, log *txlog.Log) (store.Receipt, error)
	ReadTx(ctx context.Context, seq int64) (store.Transaction, error)
	History(ctx context.Context, id doc.ID, kinds ...tx.Kind) ([]store.Entry, error)
	Occurrences(ctx context.Context, opHash string) ([]store.Entry, error)
	Latest(ctx context.Context) (int64, error)
}

// Server is the HTTP front end of a Store.
type Server struct {
	store        Store
	logger       *slog.Logger
	maxBodyBytes int64
	router       chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxBodyBytes caps submitted request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// New builds a server over st.
func New(st Store, opts ...Option) *Server {
	s := &Server{
		store:        st,
		logger:       slog.Default(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/transactions", s.handleSubmit)
	r.Get("/transactions/{seq}", s.handleReadTx)
	r.Get("/entities/{id}/history", s.handleHistory)
	r.Get("/operations/{hash}", s.handleOccurrences)

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(started).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
