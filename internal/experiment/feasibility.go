package experiment

import (
	"log/slog"

	"github.com/MikeSquared-Agency/Assay/internal/catalog"
	"github.com/MikeSquared-Agency/Assay/internal/diag"
)

// FeasibilityChecker flags each aggregated indicator against its threshold.
type FeasibilityChecker struct {
	logger *slog.Logger
}

func NewFeasibilityChecker(logger *slog.Logger) *FeasibilityChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeasibilityChecker{logger: logger}
}

// InThreshold applies the direction rule. Unknown directions behave as
// minimize.
func InThreshold(d catalog.Direction, value, threshold float64) bool {
	if d == catalog.Maximize {
		return value >= threshold
	}
	return value <= threshold
}

// Check returns a copy of t with in-threshold flags, violation counts and
// feasibility set. With no checkable indicator every experiment is feasible.
func (c *FeasibilityChecker) Check(t *Table, indicators []catalog.Indicator) (*Table, *diag.Report) {
	out := t.Clone()
	report := diag.New()
	out.Checked = nil

	for _, id := range t.Indicators {
		ind, ok := find(indicators, id)
		if !ok {
			continue
		}
		if !ind.Direction.Known() {
			report.Add(diag.UnknownDirection, ind.ID, 1)
			c.logger.Warn("unknown direction, treating as minimize", "indicator", ind.ID, "direction", ind.Direction)
		}
		for i := range out.Records {
			rec := &out.Records[i]
			rec.InThreshold[ind.ID] = InThreshold(ind.Direction, rec.Values[ind.ID], ind.Threshold)
		}
		out.Checked = append(out.Checked, ind.ID)
	}

	for i := range out.Records {
		rec := &out.Records[i]
		rec.ViolationCount = 0
		for _, id := range out.Checked {
			if !rec.InThreshold[id] {
				rec.ViolationCount++
			}
		}
		rec.Feasible = rec.ViolationCount == 0
	}
	if len(out.Checked) == 0 {
		c.logger.Warn("no indicators checked, all experiments considered feasible")
	}

	feasible := len(out.Feasible())
	c.logger.Info("feasibility checked", "experiments", len(out.Records), "feasible", feasible,
		"infeasible", len(out.Records)-feasible)
	out.Mark(StageChecked)
	return out, report
}

func find(indicators []catalog.Indicator, id string) (catalog.Indicator, bool) {
	for _, ind := range indicators {
		if ind.ID == id {
			return ind, true
		}
	}
	return catalog.Indicator{}, false
}
