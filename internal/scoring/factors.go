package scoring

import (
	"errors"

	"github.com/MikeSquared-Agency/Assay/internal/catalog"
	"github.com/MikeSquared-Agency/Assay/internal/experiment"
)

var ErrExperimentNotFound = errors.New("experiment not found")

// FactorResult captures one indicator's contribution to an experiment's
// total score.
type FactorResult struct {
	Name        string            `json:"name"`
	Category    catalog.Category  `json:"category"`
	Direction   catalog.Direction `json:"direction"`
	Value       float64           `json:"value"`
	Threshold   float64           `json:"threshold"`
	InThreshold bool              `json:"in_threshold"`
	Score       float64           `json:"score"`
	Weight      float64           `json:"weight"`
	Weighted    float64           `json:"weighted"`
	Available   bool              `json:"available"`
	Reason      string            `json:"reason"`
}

// Explanation is the full score breakdown of one experiment.
type Explanation struct {
	ExperimentID       string         `json:"exp_id"`
	Feasible           bool           `json:"is_feasible"`
	ViolationCount     int            `json:"violation_count"`
	EconomicScore      float64        `json:"economic_score"`
	EnvironmentalScore float64        `json:"environmental_score"`
	TotalScore         float64        `json:"total_weighted_score"`
	RankAll            int            `json:"rank_all"`
	Rank               *int           `json:"rank"`
	ParetoOptimal      bool           `json:"pareto_optimal"`
	Factors            []FactorResult `json:"factors"`
}

// Explain breaks down the score of experiment id, one factor per configured
// indicator in definition order.
func Explain(t *experiment.Table, id string, indicators []catalog.Indicator) (*Explanation, error) {
	rec, ok := t.Record(id)
	if !ok {
		return nil, ErrExperimentNotFound
	}
	ex := &Explanation{
		ExperimentID:       rec.ID,
		Feasible:           rec.Feasible,
		ViolationCount:     rec.ViolationCount,
		EconomicScore:      rec.EconomicScore,
		EnvironmentalScore: rec.EnvironmentalScore,
		TotalScore:         rec.TotalScore,
		RankAll:            rec.RankAll,
		Rank:               rec.Rank,
		ParetoOptimal:      rec.ParetoOptimal,
	}
	for _, ind := range indicators {
		ex.Factors = append(ex.Factors, factor(t, rec, ind))
	}
	return ex, nil
}

func factor(t *experiment.Table, rec *experiment.Record, ind catalog.Indicator) FactorResult {
	f := FactorResult{
		Name:      ind.ID,
		Category:  ind.Category,
		Direction: ind.Direction,
		Threshold: ind.Threshold,
		Weight:    ind.Weight,
	}
	if !contains(t.Indicators, ind.ID) {
		f.Reason = "aggregation failed"
		return f
	}
	f.Value = rec.Values[ind.ID]
	f.InThreshold = rec.InThreshold[ind.ID]
	if !contains(t.Weighted, ind.ID) {
		f.Reason = "not normalized"
		return f
	}
	f.Score = rec.Normalized[ind.ID]
	f.Weighted = rec.Weighted[ind.ID]
	f.Available = true
	if f.InThreshold {
		f.Reason = "within threshold"
	} else {
		f.Reason = "violates threshold"
	}
	return f
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
