package scoring

import (
	"log/slog"

	"github.com/MikeSquared-Agency/Assay/internal/catalog"
	"github.com/MikeSquared-Agency/Assay/internal/diag"
	"github.com/MikeSquared-Agency/Assay/internal/experiment"
	"github.com/MikeSquared-Agency/Assay/internal/numeric"
)

// DefaultPrecision is the number of decimals kept on weighted values and
// scores.
const DefaultPrecision = 2

// Scorer applies indicator weights, builds category and total scores, and
// ranks experiments.
type Scorer struct {
	precision int
	logger    *slog.Logger
}

// NewScorer creates a Scorer rounding to the given number of decimals.
func NewScorer(precision int, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{precision: precision, logger: logger}
}

// Score returns a copy of t with weighted columns and the economic,
// environmental and total scores. The total sums every weighted column
// directly, never the category subtotals.
func (s *Scorer) Score(t *experiment.Table, indicators []catalog.Indicator) (*experiment.Table, *diag.Report) {
	out := t.Clone()
	report := diag.New()
	out.Weighted = nil

	normalized := make(map[string]bool, len(t.Normalized))
	for _, id := range t.Normalized {
		normalized[id] = true
	}

	var used []catalog.Indicator
	for _, ind := range indicators {
		if !normalized[ind.ID] {
			report.Add(diag.MissingNormalized, ind.ID, 1)
			s.logger.Warn("normalized column missing, indicator skipped in scoring", "indicator", ind.ID)
			continue
		}
		nonFinite := 0
		for i := range out.Records {
			rec := &out.Records[i]
			v := numeric.Round(rec.Normalized[ind.ID]*ind.Weight, s.precision)
			if !numeric.Finite(v) {
				nonFinite++
				v = 0
			}
			rec.Weighted[ind.ID] = v
		}
		if nonFinite > 0 {
			report.Add(diag.NonFinite, ind.ID, nonFinite)
			s.logger.Warn("non-finite weighted values replaced with 0", "indicator", ind.ID, "experiments", nonFinite)
		}
		out.Weighted = append(out.Weighted, ind.ID)
		used = append(used, ind)
	}

	for _, c := range []catalog.Category{catalog.Economic, catalog.Environmental} {
		if !hasCategory(used, c) {
			report.Add(diag.EmptyCategory, string(c), 1)
			s.logger.Warn("no weighted indicators in category, score set to 0", "category", c)
		}
	}

	for i := range out.Records {
		rec := &out.Records[i]
		var economic, environmental, total float64
		for _, ind := range used {
			v := rec.Weighted[ind.ID]
			switch ind.Category {
			case catalog.Economic:
				economic += v
			case catalog.Environmental:
				environmental += v
			}
			total += v
		}
		rec.EconomicScore = numeric.Round(economic, s.precision)
		rec.EnvironmentalScore = numeric.Round(environmental, s.precision)
		rec.TotalScore = numeric.Round(total, s.precision)
	}

	s.logger.Info("experiments scored", "experiments", len(out.Records), "indicators", len(used))
	out.Mark(experiment.StageScored)
	return out, report
}

func hasCategory(indicators []catalog.Indicator, c catalog.Category) bool {
	for _, ind := range indicators {
		if ind.Category == c {
			return true
		}
	}
	return false
}
