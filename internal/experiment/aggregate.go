package experiment

import (
	"errors"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/MikeSquared-Agency/Assay/internal/catalog"
	"github.com/MikeSquared-Agency/Assay/internal/diag"
	"github.com/MikeSquared-Agency/Assay/internal/frame"
	"github.com/MikeSquared-Agency/Assay/internal/numeric"
)

var (
	ErrTableMissing  = errors.New("target table not available")
	ErrColumnMissing = errors.New("indicator column not found")
	ErrUnknownMethod = errors.New("unknown aggregation method")
	ErrNotNumeric    = errors.New("non-numeric indicator value")
	ErrNoDesignID    = errors.New("design table has no experiment id column")
)

// AggregationError is the failure of one indicator. The indicator is left out
// of the experiment table; the others are unaffected.
type AggregationError struct {
	Indicator string
	Err       error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregate %s: %v", e.Indicator, e.Err)
}

func (e *AggregationError) Unwrap() error { return e.Err }

// Aggregator rolls entity-level indicator columns up to one value per
// experiment.
type Aggregator struct {
	precision int
	logger    *slog.Logger
}

func NewAggregator(precision int, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{precision: precision, logger: logger}
}

// Aggregate builds the experiment table from the design rows whose experiment
// appears in at least one entity table, then adds one column per indicator.
// The returned errors are the isolated per-indicator failures; a non-nil
// error return means the design itself is unusable.
func (a *Aggregator) Aggregate(design *frame.Table, tables *frame.Set, indicators []catalog.Indicator) (*Table, []*AggregationError, *diag.Report, error) {
	if !design.HasColumn(frame.ExperimentID) {
		return nil, nil, nil, ErrNoDesignID
	}
	report := diag.New()
	present := tables.ExperimentIDs()

	out := &Table{DesignColumns: design.Columns()}
	seen := make(map[string]bool)
	for i := 0; i < design.Len(); i++ {
		row := design.Row(i)
		id := row.String(frame.ExperimentID)
		if id == "" || !present[id] || seen[id] {
			continue
		}
		seen[id] = true
		rec := Record{
			ID:          id,
			Design:      make(frame.Row, len(row)),
			Values:      make(map[string]float64),
			InThreshold: make(map[string]bool),
			Normalized:  make(map[string]float64),
			Weighted:    make(map[string]float64),
		}
		for k, v := range row {
			rec.Design[k] = v
		}
		out.Records = append(out.Records, rec)
	}
	a.logger.Info("experiment skeleton built", "design_rows", design.Len(), "experiments", len(out.Records))

	var failures []*AggregationError
	for _, ind := range indicators {
		reduced, dupes, err := a.reduce(tables, ind)
		if err != nil {
			aerr := &AggregationError{Indicator: ind.ID, Err: err}
			failures = append(failures, aerr)
			report.Add(diag.Aggregation, ind.ID, 1)
			a.logger.Warn("indicator aggregation failed, excluding it", "indicator", ind.ID, "error", err)
			continue
		}
		if dupes > 0 {
			report.Add(diag.DuplicateRows, ind.ID, dupes)
			a.logger.Warn("multiple rows per experiment for non-aggregated indicator, keeping the first",
				"indicator", ind.ID, "rows", dupes)
		}

		missing := 0
		for i := range out.Records {
			rec := &out.Records[i]
			v, ok := reduced[rec.ID]
			if !ok || !numeric.Finite(v) {
				missing++
				v = 0
			}
			rec.Values[ind.ID] = v
		}
		if missing > 0 {
			report.Add(diag.SparseData, ind.ID, missing)
			a.logger.Warn("experiments without data for indicator, filled with 0",
				"indicator", ind.ID, "experiments", missing)
		}
		out.Indicators = append(out.Indicators, ind.ID)
	}

	for i := range out.Records {
		for _, id := range out.Indicators {
			out.Records[i].Values[id] = numeric.Round(out.Records[i].Values[id], a.precision)
		}
	}
	out.Mark(StageAggregated)
	return out, failures, report, nil
}

// reduce groups the target table by experiment and applies the method.
// Empty cells are skipped.
func (a *Aggregator) reduce(tables *frame.Set, ind catalog.Indicator) (map[string]float64, int, error) {
	t, ok := tables.Get(ind.Target)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", ErrTableMissing, ind.Target)
	}
	if !t.HasColumn(ind.ID) {
		return nil, 0, fmt.Errorf("%w: %s.%s", ErrColumnMissing, ind.Target, ind.ID)
	}
	if !t.HasColumn(frame.ExperimentID) {
		return nil, 0, fmt.Errorf("%w: %s.%s", ErrColumnMissing, ind.Target, frame.ExperimentID)
	}
	switch ind.Aggregation {
	case catalog.AggregateSum, catalog.AggregateAverage, catalog.AggregateMean, catalog.AggregateNone:
	default:
		return nil, 0, fmt.Errorf("%w: %q", ErrUnknownMethod, ind.Aggregation)
	}

	groups := make(map[string][]float64)
	var order []string
	dupes := 0
	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		id := row.String(frame.ExperimentID)
		if id == "" {
			continue
		}
		cell := row[ind.ID]
		if cell == nil {
			if _, ok := groups[id]; !ok {
				groups[id] = nil
				order = append(order, id)
			}
			continue
		}
		v, err := frame.ToFloat(cell)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: row %d: %v", ErrNotNumeric, i, cell)
		}
		if _, ok := groups[id]; !ok {
			order = append(order, id)
		} else if ind.Aggregation == catalog.AggregateNone && len(groups[id]) > 0 {
			dupes++
			continue
		}
		groups[id] = append(groups[id], v)
	}

	out := make(map[string]float64, len(groups))
	for _, id := range order {
		vals := groups[id]
		switch ind.Aggregation {
		case catalog.AggregateSum:
			out[id] = floats.Sum(vals)
		case catalog.AggregateAverage, catalog.AggregateMean:
			if len(vals) > 0 {
				out[id] = stat.Mean(vals, nil)
			}
		case catalog.AggregateNone:
			if len(vals) > 0 {
				out[id] = vals[0]
			}
		}
	}
	return out, dupes, nil
}
