package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"kufr-game/internal/model"
)

// thingRequest is the admin payload for creating or updating a catalog
// entry. Path points at the directory of the pre-sliced cell images;
// slicing the image itself is the uploader's problem, not the engine's.
type thingRequest struct {
	Name string  `json:"name"`
	Hint *string `json:"hint"`
	Path string  `json:"path"`
}

type thingResponse struct {
	ID   int64   `json:"id"`
	Name string  `json:"name"`
	Hint *string `json:"hint"`
	Path string  `json:"path"`
}

func toThingResponse(t *model.Thing) thingResponse {
	return thingResponse{ID: t.ID, Name: t.Name, Hint: t.Hint, Path: t.Path}
}

func thingID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func (s *Server) handleListThings(w http.ResponseWriter, r *http.Request) {
	things, err := s.deps.Things.GetAll(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	views := make([]thingResponse, 0, len(things))
	for _, t := range things {
		views = append(views, toThingResponse(t))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetThing(w http.ResponseWriter, r *http.Request) {
	id, ok := thingID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_id")
		return
	}

	thing, err := s.deps.Things.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toThingResponse(thing))
}

func (s *Server) handleCreateThing(w http.ResponseWriter, r *http.Request) {
	var req thingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "bad_request")
		return
	}

	thing, err := s.deps.Things.Create(r.Context(), req.Name, req.Hint, req.Path)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toThingResponse(thing))
}

func (s *Server) handleUpdateThing(w http.ResponseWriter, r *http.Request) {
	id, ok := thingID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_id")
		return
	}

	var req thingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "bad_request")
		return
	}

	thing, err := s.deps.Things.Update(r.Context(), id, req.Name, req.Hint, req.Path)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toThingResponse(thing))
}

func (s *Server) handleDeleteThing(w http.ResponseWriter, r *http.Request) {
	id, ok := thingID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_id")
		return
	}

	if err := s.deps.Things.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
