package scoring

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/MikeSquared-Agency/Assay/internal/catalog"
)

// WeightTolerance is how far the weight sum may drift from 1.0.
const WeightTolerance = 0.001

var ErrInvalidWeights = errors.New("invalid weights")

// ValidationMode controls what happens when the configured weights do not
// sum to 1.0.
type ValidationMode string

const (
	ValidateOff    ValidationMode = "off"
	ValidateWarn   ValidationMode = "warn"
	ValidateStrict ValidationMode = "strict"
)

// ParseValidationMode accepts off, warn and strict. Empty means off.
func ParseValidationMode(s string) (ValidationMode, error) {
	switch m := ValidationMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ValidateOff, nil
	case ValidateOff, ValidateWarn, ValidateStrict:
		return m, nil
	default:
		return "", fmt.Errorf("unknown weight validation mode %q", s)
	}
}

// Weight is one indicator's share of the total score.
type Weight struct {
	Indicator string           `json:"indicator"`
	Category  catalog.Category `json:"category"`
	Value     float64          `json:"weight"`
}

// WeightSet holds the indicator weights in definition order.
type WeightSet []Weight

// WeightsFrom collects the weights of the given indicators.
func WeightsFrom(indicators []catalog.Indicator) WeightSet {
	ws := make(WeightSet, len(indicators))
	for i, ind := range indicators {
		ws[i] = Weight{Indicator: ind.ID, Category: ind.Category, Value: ind.Weight}
	}
	return ws
}

// Sum returns the total of all weights.
func (w WeightSet) Sum() float64 {
	return floats.Sum(w.asList())
}

// CategorySum returns the total weight of one category.
func (w WeightSet) CategorySum(c catalog.Category) float64 {
	var sum float64
	for _, wt := range w {
		if wt.Category == c {
			sum += wt.Value
		}
	}
	return sum
}

// Validate checks that weights sum to 1.0 and none are negative.
func (w WeightSet) Validate() error {
	if math.Abs(w.Sum()-1.0) > WeightTolerance {
		return fmt.Errorf("%w: weights sum to %.4f, must sum to 1.0", ErrInvalidWeights, w.Sum())
	}
	for _, wt := range w {
		if wt.Value < 0 {
			return fmt.Errorf("%w: negative weight for %s: %f", ErrInvalidWeights, wt.Indicator, wt.Value)
		}
	}
	return nil
}

// Check applies Validate according to mode. Only strict mode returns an
// error, as a ConfigError.
func (w WeightSet) Check(mode ValidationMode, logger *slog.Logger) error {
	if mode == ValidateOff || mode == "" {
		return nil
	}
	err := w.Validate()
	if err == nil {
		return nil
	}
	if mode == ValidateStrict {
		return &catalog.ConfigError{Kind: "weights", Err: err}
	}
	if logger != nil {
		logger.Warn("indicator weights are inconsistent", "sum", w.Sum(), "error", err)
	}
	return nil
}

func (w WeightSet) asList() []float64 {
	out := make([]float64, len(w))
	for i, wt := range w {
		out[i] = wt.Value
	}
	return out
}
