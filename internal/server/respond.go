package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/spigell/job-bot/internal/ai"
	"github.com/spigell/job-bot/internal/ai/response"
	"github.com/spigell/job-bot/internal/dispatch"
	"github.com/spigell/job-bot/internal/jobpost"
	"github.com/spigell/job-bot/internal/resumeparse"
	"github.com/spigell/job-bot/internal/store"
	"github.com/spigell/job-bot/internal/tailor"
)

type errorBody struct {
	Error           string   `json:"error"`
	RecentlyLimited []string `json:"recently_limited,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func writeFile(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	var (
		decodeErr *response.DecodeError
		vendorErr *ai.StatusError
		fetchErr  *jobpost.FetchError
	)

	switch {
	case errors.Is(err, tailor.ErrInvalidInput),
		errors.Is(err, dispatch.ErrUnknownProvider),
		errors.Is(err, store.ErrInvalidEntry):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, resumeparse.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, dispatch.ErrNoProvidersAvailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &fetchErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &decodeErr), errors.As(err, &vendorErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with its mapped status. Server-side failures are logged.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.failWith(w, r, statusOf(err), err)
}

func (s *Server) failWith(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}

	writeJSON(w, status, errorBody{Error: err.Error()})
}

// failDispatch is fail for score and tailor, adding the providers still cooling down.
func (s *Server) failDispatch(w http.ResponseWriter, r *http.Request, session *dispatch.Session, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		// Unclassified vendor failure.
		status = http.StatusBadGateway
	}
	if status != http.StatusServiceUnavailable {
		s.failWith(w, r, status, err)
		return
	}

	s.logger.Warn("no providers available", zap.String("session", session.ID), zap.Strings("recently_limited", session.RecentlyLimited()))
	writeJSON(w, status, errorBody{Error: err.Error(), RecentlyLimited: session.RecentlyLimited()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", tailor.ErrInvalidInput, err)
	}
	return nil
}
