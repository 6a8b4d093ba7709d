package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/alfredjeanlab/admatrix/internal/matrix"
	"github.com/alfredjeanlab/admatrix/internal/model"
	"github.com/alfredjeanlab/admatrix/internal/sheet"
)

// handleListDependencies handles GET /v1/sessions/{id}/dependencies.
func (s *Server) handleListDependencies(w http.ResponseWriter, r *http.Request) {
	deps, err := s.sessions.Dependencies(r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if deps == nil {
		deps = []model.Dependency{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"dependencies": deps})
}

// addDependencyResponse is returned by POST /v1/sessions/{id}/dependencies.
type addDependencyResponse struct {
	Index      int              `json:"index"`
	Dependency model.Dependency `json:"dependency"`
}

// handleAddDependency handles POST /v1/sessions/{id}/dependencies.
// Omitted types default to none/independence and omitted directions to
// model.DefaultDirectionFor of the chosen type.
func (s *Server) handleAddDependency(w http.ResponseWriter, r *http.Request) {
	var row sheet.Row
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	d, err := row.Dependency()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	index, added, err := s.sessions.Add(r.Context(), r.PathValue("id"), d)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, addDependencyResponse{Index: index, Dependency: added})
}

// setDirectionsRequest is the JSON body for PATCH
// /v1/sessions/{id}/dependencies/{index}. An empty field leaves that
// direction unchanged; at least one must be set.
type setDirectionsRequest struct {
	TemporalDirection    string `json:"temporal_direction"`
	ExistentialDirection string `json:"existential_direction"`
}

// handleSetDirections handles PATCH /v1/sessions/{id}/dependencies/{index}.
func (s *Server) handleSetDirections(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	var req setDirectionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.TemporalDirection == "" && req.ExistentialDirection == "" {
		writeError(w, http.StatusBadRequest, "temporal_direction or existential_direction is required")
		return
	}

	updated, err := s.sessions.SetDirections(r.Context(), r.PathValue("id"), index,
		model.Direction(req.TemporalDirection), model.Direction(req.ExistentialDirection))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleRemoveDependency handles DELETE /v1/sessions/{id}/dependencies/{index}.
func (s *Server) handleRemoveDependency(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	if err := s.sessions.Remove(r.Context(), r.PathValue("id"), index); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleActivities handles GET /v1/sessions/{id}/activities.
func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	acts, err := s.sessions.Activities(r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if acts == nil {
		acts = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"activities": acts})
}

// handleMatrix handles GET /v1/sessions/{id}/matrix. The document is served
// as a YAML attachment, or as JSON with ?format=json.
func (s *Server) handleMatrix(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	switch r.URL.Query().Get("format") {
	case "", "yaml":
	case "json":
		doc, err := s.sessions.Export(id)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
		return
	default:
		writeError(w, http.StatusBadRequest, "format must be yaml or json")
		return
	}

	data, err := s.sessions.Render(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/yaml; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+matrix.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// pathIndex parses the {index} path value, writing a 400 on failure.
func pathIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return 0, false
	}
	return index, true
}
