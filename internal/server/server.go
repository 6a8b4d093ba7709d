// Package server exposes dependency sessions over HTTP/JSON.
package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/alfredjeanlab/admatrix/internal/matrix"
	"github.com/alfredjeanlab/admatrix/internal/model"
	"github.com/alfredjeanlab/admatrix/internal/registry"
	"github.com/alfredjeanlab/admatrix/internal/session"
)

// Server serves the session manager's operations.
type Server struct {
	sessions *session.Manager
	hub      *EventHub
	logger   *slog.Logger
}

// New returns a Server over m. hub may be nil, in which case the event
// stream endpoint reports 503.
func New(m *session.Manager, hub *EventHub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{sessions: m, hub: hub, logger: logger}
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		ve *model.ValidationError
		de *registry.DuplicateError
		ie *registry.IndexError
		se *matrix.SerializationError
	)
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &de):
		return http.StatusConflict
	case errors.As(err, &ie):
		return http.StatusNotFound
	case errors.Is(err, matrix.ErrEmptyRegistry):
		return http.StatusUnprocessableEntity
	case errors.As(err, &se):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError writes err with the status it maps to. Internal errors
// are logged and their details withheld.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeError(w, code, "internal server error")
		return
	}
	writeError(w, code, err.Error())
}
