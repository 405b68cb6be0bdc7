package scoring

import (
	"sort"

	"github.com/MikeSquared-Agency/Assay/internal/experiment"
)

// MinRank ranks scores descending. Tied scores share the lowest rank of the
// tie and the next distinct score is ranked 1 + the count of strictly higher
// scores.
func MinRank(scores []float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	ranks := make([]int, len(scores))
	for pos, idx := range order {
		if pos > 0 && scores[idx] == scores[order[pos-1]] {
			ranks[idx] = ranks[order[pos-1]]
			continue
		}
		ranks[idx] = pos + 1
	}
	return ranks
}

// Rank returns a copy of t with rank_all over every experiment and rank over
// the feasible experiments only. Infeasible experiments have no rank.
func (s *Scorer) Rank(t *experiment.Table) *experiment.Table {
	out := t.Clone()

	all := make([]float64, len(out.Records))
	var feasible []float64
	var feasibleIdx []int
	for i, rec := range out.Records {
		all[i] = rec.TotalScore
		if rec.Feasible {
			feasible = append(feasible, rec.TotalScore)
			feasibleIdx = append(feasibleIdx, i)
		}
	}

	for i, r := range MinRank(all) {
		out.Records[i].RankAll = r
		out.Records[i].Rank = nil
	}
	for j, r := range MinRank(feasible) {
		rank := r
		out.Records[feasibleIdx[j]].Rank = &rank
	}

	s.logger.Info("experiments ranked", "experiments", len(all), "feasible", len(feasible))
	out.Mark(experiment.StageRanked)
	return out
}
