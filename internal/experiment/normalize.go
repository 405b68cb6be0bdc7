package experiment

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/MikeSquared-Agency/Assay/internal/catalog"
	"github.com/MikeSquared-Agency/Assay/internal/diag"
	"github.com/MikeSquared-Agency/Assay/internal/numeric"
)

// DefaultEpsilon is the spread below which an indicator cannot discriminate.
const DefaultEpsilon = 1e-10

// Normalizer rescales each indicator so the best experiment maps to 1 and
// the threshold (or the worst experiment, if better than the threshold) to 0.
type Normalizer struct {
	precision int
	epsilon   float64
	logger    *slog.Logger
}

func NewNormalizer(precision int, epsilon float64, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	return &Normalizer{precision: precision, epsilon: epsilon, logger: logger}
}

// Bounds returns best and the threshold-anchored worst value for the
// direction. Unknown directions behave as minimize.
func Bounds(d catalog.Direction, values []float64, threshold float64) (best, worst float64) {
	lo, hi := floats.Min(values), floats.Max(values)
	if d == catalog.Maximize {
		return hi, math.Max(lo, threshold)
	}
	return lo, math.Min(hi, threshold)
}

// Normalize returns a copy of t with one normalized value per indicator and
// experiment. Bounds always span every experiment, feasible or not.
func (n *Normalizer) Normalize(t *Table, indicators []catalog.Indicator) (*Table, *diag.Report) {
	out := t.Clone()
	report := diag.New()
	out.Normalized = nil
	if len(out.Records) == 0 {
		out.Mark(StageNormalized)
		return out, report
	}

	for _, id := range t.Indicators {
		ind, ok := find(indicators, id)
		if !ok {
			continue
		}
		values := make([]float64, len(out.Records))
		for i, rec := range out.Records {
			values[i] = rec.Values[id]
		}
		best, worst := Bounds(ind.Direction, values, ind.Threshold)

		if math.Abs(best-worst) < n.epsilon {
			report.Add(diag.DegenerateNormalization, id, 1)
			n.logger.Warn("indicator cannot discriminate, normalized to 1.0",
				"indicator", id, "best", best, "worst", worst)
			for i := range out.Records {
				out.Records[i].Normalized[id] = 1.0
			}
			out.Normalized = append(out.Normalized, id)
			continue
		}

		nonFinite := 0
		for i := range out.Records {
			var v float64
			if ind.Direction == catalog.Maximize {
				v = (values[i] - worst) / (best - worst)
			} else {
				v = (worst - values[i]) / (worst - best)
			}
			v = numeric.Round(v, n.precision)
			if !numeric.Finite(v) {
				nonFinite++
				v = 0
			}
			out.Records[i].Normalized[id] = v
		}
		if nonFinite > 0 {
			report.Add(diag.NonFinite, id, nonFinite)
			n.logger.Warn("non-finite normalized values replaced with 0", "indicator", id, "experiments", nonFinite)
		}
		n.logger.Debug("indicator normalized", "indicator", id, "direction", ind.Direction,
			"best", best, "worst", worst)
		out.Normalized = append(out.Normalized, id)
	}
	out.Mark(StageNormalized)
	return out, report
}
