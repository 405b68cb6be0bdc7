package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Assay/internal/catalog"
	"github.com/MikeSquared-Agency/Assay/internal/pipeline"
	"github.com/MikeSquared-Agency/Assay/internal/store"
)

type RunsHandler struct {
	store  store.Store
	runner pipeline.Trigger
}

func NewRunsHandler(s store.Store, runner pipeline.Trigger) *RunsHandler {
	return &RunsHandler{store: s, runner: runner}
}

type CreateRunRequest struct {
	Trigger string `json:"trigger,omitempty"`
}

// Create runs the pipeline synchronously and returns the stored run.
// POST /api/v1/runs
func (h *RunsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Trigger == "" {
		req.Trigger = "api"
	}

	out, err := h.runner.Run(r.Context(), req.Trigger)
	if err != nil {
		var cerr *catalog.ConfigError
		switch {
		case errors.Is(err, pipeline.ErrRunInProgress):
			writeJSON(w, r, http.StatusConflict, map[string]string{"error": err.Error()})
		case errors.As(err, &cerr):
			writeJSON(w, r, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		default:
			writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return
	}
	writeJSON(w, r, http.StatusCreated, out.Run)
}

// List returns recent runs, newest first.
// GET /api/v1/runs?limit=N
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	runs, err := h.store.ListRuns(r.Context(), limit)
	if err != nil {
		writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if runs == nil {
		runs = []*store.Run{}
	}
	writeJSON(w, r, http.StatusOK, runs)
}

// GET /api/v1/runs/{id}
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	run, ok := h.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, run)
}

// Experiments lists a run's experiments by rank_all.
// GET /api/v1/runs/{id}/experiments?feasible=true&limit=N
func (h *RunsHandler) Experiments(w http.ResponseWriter, r *http.Request) {
	run, ok := h.run(w, r)
	if !ok {
		return
	}
	filter := store.ExperimentFilter{}
	if s := r.URL.Query().Get("feasible"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "invalid feasible flag"})
			return
		}
		filter.FeasibleOnly = b
	}
	if filter.Limit, ok = queryInt(w, r, "limit"); !ok {
		return
	}

	exps, err := h.store.ListExperiments(r.Context(), run.ID, filter)
	if err != nil {
		writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if exps == nil {
		exps = []*store.Experiment{}
	}
	writeJSON(w, r, http.StatusOK, exps)
}

// run resolves the {id} URL parameter, writing the error response itself.
func (h *RunsHandler) run(w http.ResponseWriter, r *http.Request) (*store.Run, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "invalid run id"})
		return nil, false
	}
	run, err := h.store.GetRun(r.Context(), id)
	if err != nil {
		writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return nil, false
	}
	if run == nil {
		writeJSON(w, r, http.StatusNotFound, map[string]string{"error": "run not found"})
		return nil, false
	}
	return run, true
}

func queryInt(w http.ResponseWriter, r *http.Request, key string) (int, bool) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "invalid " + key})
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	render.Status(r, status)
	render.JSON(w, r, v)
}
