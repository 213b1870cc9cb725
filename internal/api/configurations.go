package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/confkit/config-store/internal/application"
)

// updateConfigurationRequest is the payload for replacing an application's
// configuration document.
type updateConfigurationRequest struct {
	Config application.Document `json:"config"`
}

// handleGetConfiguration returns the configuration record for an application.
func (s *Server) handleGetConfiguration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := application.ValidateID(id); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	cfg, err := s.configurations.GetByApplicationID(r.Context(), id)
	if err != nil {
		if errors.Is(err, application.ErrConfigurationNotFound) {
			writeNotFound(w, "configuration not found")
			return
		}
		s.logger.Error("failed to get configuration", "application_id", id, "error", err)
		writeInternalError(w, "failed to get configuration")
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

// handleUpdateConfiguration replaces an application's configuration document
// wholesale. There is no merge: the stored document becomes exactly the
// submitted one.
func (s *Server) handleUpdateConfiguration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := application.ValidateID(id); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req updateConfigurationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := application.ValidateDocument(req.Config); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	cfg, err := s.configurations.Upsert(r.Context(), id, req.Config)
	if err != nil {
		if errors.Is(err, application.ErrApplicationNotFound) {
			writeNotFound(w, "application not found")
			return
		}
		s.logger.Error("failed to update configuration", "application_id", id, "error", err)
		writeInternalError(w, "failed to update configuration")
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

// handleGetConfigurationByName returns the bare configuration document for
// the named application. This is the endpoint consuming services poll, so
// the payload is the document itself with no record envelope.
func (s *Server) handleGetConfigurationByName(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	doc, err := s.configurations.GetByApplicationName(r.Context(), name)
	if err != nil {
		if errors.Is(err, application.ErrConfigurationNotFound) {
			writeNotFound(w, "configuration not found")
			return
		}
		s.logger.Error("failed to get configuration", "application", name, "error", err)
		writeInternalError(w, "failed to get configuration")
		return
	}

	writeJSON(w, http.StatusOK, doc)
}
