package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/confkit/config-store/internal/application"
)

// createApplicationRequest is the payload for registering an application.
type createApplicationRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// updateApplicationRequest is the payload for a partial application update.
// Omitted fields keep their stored values.
type updateApplicationRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// handleListApplications returns all registered applications, ordered by name.
func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := s.applications.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list applications", "error", err)
		writeInternalError(w, "failed to list applications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applications": apps, "count": len(apps)})
}

// handleCreateApplication registers a new application. The application is
// created together with its default configuration document.
func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	var req createApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	name, err := application.NormalizeName(req.Name)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	description, err := application.NormalizeDescription(req.Description)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	app, err := s.applications.Create(r.Context(), name, description)
	if err != nil {
		if errors.Is(err, application.ErrApplicationExists) {
			writeConflict(w, "application name already exists")
			return
		}
		s.logger.Error("failed to create application", "name", name, "error", err)
		writeInternalError(w, "failed to create application")
		return
	}

	writeJSON(w, http.StatusCreated, app)
}

// handleGetApplication returns a single application by ID.
func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := application.ValidateID(id); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	app, err := s.applications.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, application.ErrApplicationNotFound) {
			writeNotFound(w, "application not found")
			return
		}
		s.logger.Error("failed to get application", "id", id, "error", err)
		writeInternalError(w, "failed to get application")
		return
	}

	writeJSON(w, http.StatusOK, app)
}

// handleUpdateApplication applies a partial update to an application.
// A name collision with another application surfaces as 409.
func (s *Server) handleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := application.ValidateID(id); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req updateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	var name *string
	if req.Name != nil {
		normalized, err := application.NormalizeName(*req.Name)
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		name = &normalized
	}

	description, err := application.NormalizeDescription(req.Description)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	app, err := s.applications.Update(r.Context(), id, name, description)
	if err != nil {
		if errors.Is(err, application.ErrApplicationNotFound) {
			writeNotFound(w, "application not found")
			return
		}
		if errors.Is(err, application.ErrApplicationExists) {
			writeConflict(w, "application name already exists")
			return
		}
		s.logger.Error("failed to update application", "id", id, "error", err)
		writeInternalError(w, "failed to update application")
		return
	}

	writeJSON(w, http.StatusOK, app)
}

// handleDeleteApplication removes an application by ID. Its configuration
// document goes with it.
func (s *Server) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := application.ValidateID(id); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := s.applications.Delete(r.Context(), id); err != nil {
		if errors.Is(err, application.ErrApplicationNotFound) {
			writeNotFound(w, "application not found")
			return
		}
		s.logger.Error("failed to delete application", "id", id, "error", err)
		writeInternalError(w, "failed to delete application")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
