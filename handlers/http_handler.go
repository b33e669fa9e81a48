// Package handlers provides the HTTP endpoints of the catalog sessions.
// This file implements the HTTPHandler interface with dependency injection.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/giygas/medications-catalog/catalog"
	"github.com/giygas/medications-catalog/data"
	"github.com/giygas/medications-catalog/interfaces"
	"github.com/giygas/medications-catalog/logging"
	"github.com/giygas/medications-catalog/session"
	"github.com/go-chi/chi/v5"
)

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// SessionStore is the part of data.SessionStore used by the handlers
type SessionStore interface {
	Create(ctx context.Context) (*session.Session, error)
	Get(id string) (*session.Session, error)
	Delete(id string) error
}

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	store         SessionStore
	validator     interfaces.InputValidator
	healthChecker interfaces.HealthChecker
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(store SessionStore, validator interfaces.InputValidator, healthChecker interfaces.HealthChecker) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		store:         store,
		validator:     validator,
		healthChecker: healthChecker,
	}
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if _, err := w.Write(body); err != nil {
		logging.Warn("Failed to write response", "error", err)
	}
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	h.RespondWithJSON(w, code, errorResponse)
}

// respondWithSessionError maps session and store errors to HTTP codes
func (h *HTTPHandlerImpl) respondWithSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, data.ErrNotFound), errors.Is(err, session.ErrClosed):
		h.RespondWithError(w, http.StatusNotFound, "Session not found")
	case errors.Is(err, session.ErrNotReady):
		h.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, catalog.ErrInvalidPageSize), errors.Is(err, catalog.ErrUnknownField):
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, data.ErrTooManySessions):
		h.RespondWithError(w, http.StatusServiceUnavailable, "Too many sessions, try again later")
	default:
		logging.Error("Unexpected session error", "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// lookup finds the {id} session, writing a 404 when it does not exist
func (h *HTTPHandlerImpl) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.respondWithSessionError(w, err)
		return nil, false
	}
	return s, true
}

// act runs one session action and writes the resulting snapshot
func (h *HTTPHandlerImpl) act(w http.ResponseWriter, r *http.Request, action func(*session.Session) (session.Snapshot, error)) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	snap, err := action(s)
	if err != nil {
		h.respondWithSessionError(w, err)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, newSessionResponse(snap))
}

// CreateSession starts a new session and its catalog fetch. With
// ?wait=true the response is sent once the fetch has settled.
func (h *HTTPHandlerImpl) CreateSession(w http.ResponseWriter, r *http.Request) {
	wait := false
	if raw := r.URL.Query().Get("wait"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			h.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid wait parameter: %s", raw))
			return
		}
		wait = parsed
	}

	s, err := h.store.Create(r.Context())
	if err != nil {
		h.respondWithSessionError(w, err)
		return
	}

	code := http.StatusAccepted
	if wait {
		if err := s.Wait(r.Context()); err != nil {
			logging.Warn("Client left before the session settled", "session_id", s.ID(), "error", err)
			return
		}
		code = http.StatusCreated
	}

	w.Header().Set("Location", "/v1/sessions/"+s.ID())
	h.RespondWithJSON(w, code, newSessionResponse(s.Snapshot()))
}

// GetSession returns the current snapshot of a session
func (h *HTTPHandlerImpl) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.RespondWithJSON(w, http.StatusOK, newSessionResponse(s.Snapshot()))
}

// DeleteSession closes a session and cancels its fetch if still running
func (h *HTTPHandlerImpl) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(chi.URLParam(r, "id")); err != nil {
		h.respondWithSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EditConstraint sets the pending constraint of one field
func (h *HTTPHandlerImpl) EditConstraint(w http.ResponseWriter, r *http.Request) {
	field, err := catalog.ParseField(chi.URLParam(r, "field"))
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req ConstraintRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			h.RespondWithError(w, http.StatusBadRequest, "Missing request body")
			return
		}
		h.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.ValidateInput(req.Value); err != nil {
		logging.Warn("Unusual user input", "field", field, "error", err)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.act(w, r, func(s *session.Session) (session.Snapshot, error) {
		return s.EditConstraint(field, req.Value)
	})
}

// ApplyFilters filters the catalog with the pending constraints
func (h *HTTPHandlerImpl) ApplyFilters(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, (*session.Session).ApplyFilters)
}

// ResetFilters restores the full catalog and clears the sort order
func (h *HTTPHandlerImpl) ResetFilters(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, (*session.Session).Reset)
}

// ToggleSort advances the price sort order
func (h *HTTPHandlerImpl) ToggleSort(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, (*session.Session).ToggleSort)
}

// SetPage moves to the {index} page
func (h *HTTPHandlerImpl) SetPage(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "index")
	index, err := h.validator.ValidatePageIndex(raw)
	if err != nil {
		logging.Warn("Unusual user input", "index", raw)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.act(w, r, func(s *session.Session) (session.Snapshot, error) {
		return s.SetPage(index)
	})
}

// SetPageSize changes the number of rows per page
func (h *HTTPHandlerImpl) SetPageSize(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "size")
	size, err := h.validator.ValidatePageSize(raw)
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.act(w, r, func(s *session.Session) (session.Snapshot, error) {
		return s.SetPageSize(size)
	})
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, details, httpStatus := h.healthChecker.HealthCheck()

	h.RespondWithJSON(w, httpStatus, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      details,
	})
}
