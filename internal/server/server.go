// Package server exposes the tailoring assistant as an HTTP JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spigell/job-bot/internal/dispatch"
	"github.com/spigell/job-bot/internal/store"
	"github.com/spigell/job-bot/internal/tailor"
)

const (
	shutdownTimeout = 10 * time.Second
	maxBodyBytes    = 1 << 20
	maxUploadBytes  = 10 << 20
)

// Fetcher downloads a job posting and returns its visible text.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Researcher looks up interview experiences for a company and role. It returns "" when
// nothing useful was found.
type Researcher interface {
	ResearchInterview(ctx context.Context, company, role string) string
}

// Deps aggregates the services the HTTP layer needs.
type Deps struct {
	Dispatcher *dispatch.Dispatcher
	Tailor     *tailor.Service
	Store      *store.Store
	Jobs       Fetcher
	Research   Researcher
	// Keys are the operator-configured credentials indexed by key name. Keys saved by the
	// user through the API take precedence.
	Keys     map[string]string
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger

	// SessionTTL and MaxSessions bound the per-browser dispatch state; zero means the default.
	SessionTTL  time.Duration
	MaxSessions int
}

type Server struct {
	deps     Deps
	sessions *sessions
	logger   *zap.Logger
	now      func() time.Time
}

func New(deps Deps) *Server {
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		deps:   deps,
		logger: deps.Logger.With(zap.String("component", "server")),
		now:    time.Now,
	}
	s.sessions = newSessions(s.credentials, deps.SessionTTL, deps.MaxSessions, func() time.Time { return s.now() })

	return s
}

// Handler returns the routed handler wrapped in logging and panic recovery.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("GET /api/providers", s.handleProviders)
	mux.HandleFunc("PUT /api/keys", s.handleKeys)

	mux.HandleFunc("POST /api/score", s.handleScore)
	mux.HandleFunc("POST /api/tailor", s.handleTailor)

	mux.HandleFunc("GET /api/resume", s.handleGetResume)
	mux.HandleFunc("POST /api/resume", s.handleUploadResume)
	mux.HandleFunc("POST /api/job/fetch", s.handleFetchJob)
	mux.HandleFunc("POST /api/documents/{format}", s.handleDocument)

	mux.HandleFunc("POST /api/interview/questions", s.handleInterviewQuestions)
	mux.HandleFunc("POST /api/interview/rate", s.handleInterviewRate)

	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/history/{slug}/{format}", s.handleHistoryDocument)

	mux.HandleFunc("GET /api/log", s.handleListLog)
	mux.HandleFunc("POST /api/log", s.handleAddLog)
	mux.HandleFunc("PATCH /api/log/{id}", s.handleUpdateLog)
	mux.HandleFunc("DELETE /api/log/{id}", s.handleDeleteLog)
	mux.HandleFunc("DELETE /api/log", s.handleClearLog)
	mux.HandleFunc("GET /api/log/export", s.handleExportLog)

	return s.recoverer(s.accessLog(mux))
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		// Score and tailor calls may walk several providers, each with a long vendor timeout.
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return nil
}

// credentials resolves the keys a session dispatches with.
func (s *Server) credentials() dispatch.Credentials {
	providers := s.deps.Dispatcher.Registry().All()
	base := dispatch.CredentialsFromKeys(providers, s.deps.Keys)
	return base.Merge(dispatch.CredentialsFromKeys(providers, s.deps.Store.UserKeys()))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Debug("request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panicked",
					zap.String("path", r.URL.Path),
					zap.Any("panic", rec),
					zap.Stack("stack"),
				)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
