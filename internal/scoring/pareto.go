package scoring

import (
	"github.com/MikeSquared-Agency/Assay/internal/experiment"
)

// ParetoCandidate is an experiment scored across several objectives, all of
// which are higher-is-better.
type ParetoCandidate struct {
	ExperimentID string    `json:"exp_id"`
	Objectives   []float64 `json:"objectives"`
}

// ComputeFrontier returns the Pareto-optimal candidates from the input set.
// A candidate is dominated if another candidate is >= on all objectives and
// strictly better on at least one.
// O(n^2) dominance check, fine for experiment-plan sizes.
func ComputeFrontier(candidates []ParetoCandidate) []ParetoCandidate {
	if len(candidates) <= 1 {
		return candidates
	}

	var frontier []ParetoCandidate
	for i := range candidates {
		dominated := false
		for j := range candidates {
			if i == j {
				continue
			}
			if dominates(candidates[j], candidates[i]) {
				dominated = true
				break
			}
		}
		if !dominated {
			frontier = append(frontier, candidates[i])
		}
	}
	return frontier
}

// dominates returns true if a dominates b. Candidates with different
// objective counts never dominate each other.
func dominates(a, b ParetoCandidate) bool {
	if len(a.Objectives) != len(b.Objectives) {
		return false
	}
	better := false
	for k := range a.Objectives {
		if a.Objectives[k] < b.Objectives[k] {
			return false
		}
		if a.Objectives[k] > b.Objectives[k] {
			better = true
		}
	}
	return better
}

// MarkFrontier returns a copy of t with pareto_optimal set for experiments
// whose normalized indicator vector is not dominated.
func (s *Scorer) MarkFrontier(t *experiment.Table) *experiment.Table {
	out := t.Clone()
	candidates := make([]ParetoCandidate, len(out.Records))
	for i, rec := range out.Records {
		obj := make([]float64, len(out.Normalized))
		for k, id := range out.Normalized {
			obj[k] = rec.Normalized[id]
		}
		candidates[i] = ParetoCandidate{ExperimentID: rec.ID, Objectives: obj}
	}

	onFrontier := make(map[string]bool)
	for _, c := range ComputeFrontier(candidates) {
		onFrontier[c.ExperimentID] = true
	}
	for i := range out.Records {
		out.Records[i].ParetoOptimal = onFrontier[out.Records[i].ID]
	}

	s.logger.Info("pareto frontier computed", "experiments", len(candidates), "frontier", len(onFrontier))
	out.Mark(experiment.StagePareto)
	return out
}
