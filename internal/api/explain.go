package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Assay/internal/store"
)

type ExplainHandler struct {
	store store.Store
}

func NewExplainHandler(s store.Store) *ExplainHandler {
	return &ExplainHandler{store: s}
}

// Explain returns the score breakdown stored for one experiment of a run.
// GET /api/v1/runs/{id}/experiments/{exp_id}/explain
func (h *ExplainHandler) Explain(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, map[string]string{"error": "invalid run id"})
		return
	}
	expID := chi.URLParam(r, "exp_id")

	exp, err := h.store.GetExperiment(r.Context(), id, expID)
	if err != nil {
		writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if exp == nil {
		writeJSON(w, r, http.StatusNotFound, map[string]string{"error": "experiment not found"})
		return
	}

	resp := map[string]interface{}{
		"run_id":               exp.RunID,
		"exp_id":               exp.ExperimentID,
		"is_feasible":          exp.Feasible,
		"total_weighted_score": exp.TotalScore,
		"rank_all":             exp.RankAll,
		"rank":                 exp.Rank,
		"pareto_optimal":       exp.ParetoOptimal,
	}
	if len(exp.Explain) > 0 {
		resp["explanation"] = json.RawMessage(exp.Explain)
	}
	writeJSON(w, r, http.StatusOK, resp)
}
