package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/vmshift/vmshift/internal/app/migrate"
)

// RunsHandler serves migration run records.
type RunsHandler struct {
	store *migrate.RunStore
}

// NewRunsHandler creates a handler backed by the given run store.
func NewRunsHandler(store *migrate.RunStore) *RunsHandler {
	return &RunsHandler{store: store}
}

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ListResponse wraps the list of run summaries.
type ListResponse struct {
	Runs  []*migrate.Run `json:"runs"`
	Count int            `json:"count"`
}

// List returns all runs, newest first, without context payloads.
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	runs := h.store.List()
	render.JSON(w, r, ListResponse{
		Runs:  runs,
		Count: len(runs),
	})
}

// Get returns a single run including its full migration context.
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.store.Get(id)
	if err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, ErrorResponse{Error: err.Error()})
		return
	}

	render.JSON(w, r, run)
}
