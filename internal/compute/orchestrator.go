package compute

import (
	"github.com/MikeSquared-Agency/Assay/internal/catalog"
	"github.com/MikeSquared-Agency/Assay/internal/diag"
	"github.com/MikeSquared-Agency/Assay/internal/frame"
)

// Result is the enriched entity tables plus what went wrong on the way.
type Result struct {
	Tables      *frame.Set
	Diagnostics *diag.Report
}

// Compute adds one column per indicator, then one per value, to the target
// tables. Values run per table with every cost_factor before any aggregate.
// The input set is not modified.
func (e *Engine) Compute(tables *frame.Set, cat *catalog.Catalog) *Result {
	report := diag.New()
	work := make(map[string]*frame.Table)
	var touched []string

	table := func(name string) (*frame.Table, bool) {
		if t, ok := work[name]; ok {
			return t, true
		}
		src, ok := tables.Get(name)
		if !ok {
			return nil, false
		}
		t := src.Clone()
		work[name] = t
		touched = append(touched, name)
		return t, true
	}

	var indicatorDefs []definition
	for _, ind := range cat.Indicators {
		indicatorDefs = append(indicatorDefs, newDefinition("indicator", ind.ID, ind.Target, ind.Formula, ind.Variables))
	}
	for _, group := range groupByTarget(indicatorDefs) {
		e.computeGroup(table, group, report)
	}

	var valueDefs []definition
	categories := make(map[string]catalog.ValueCategory)
	for _, v := range cat.Values {
		valueDefs = append(valueDefs, newDefinition("value", v.Column(), v.Target, v.Formula, v.Variables))
		categories[v.Column()] = v.Category
	}
	for _, group := range groupByTarget(valueDefs) {
		ordered := make([]definition, 0, len(group))
		for _, phase := range []catalog.ValueCategory{catalog.CostFactor, catalog.AggregateValue} {
			for _, def := range group {
				if categories[def.column] == phase {
					ordered = append(ordered, def)
				}
			}
		}
		e.computeGroup(table, ordered, report)
	}

	out := tables
	for _, name := range touched {
		out = out.With(work[name])
	}
	return &Result{Tables: out, Diagnostics: report}
}

func (e *Engine) computeGroup(table func(string) (*frame.Table, bool), group []definition, report *diag.Report) {
	if len(group) == 0 {
		return
	}
	target := group[0].target
	t, ok := table(target)
	if !ok {
		for _, def := range group {
			e.logger.Warn("target table not available, skipping", def.kind, def.column, "table", target)
			report.Add(diag.UnknownTable, def.column, 1)
		}
		return
	}
	e.logger.Debug("computing columns", "table", target, "rows", t.Len(), "definitions", len(group))
	for _, def := range group {
		tl := newTally()
		values := make([]float64, t.Len())
		for i := 0; i < t.Len(); i++ {
			values[i] = e.evaluateRow(t.Row(i), def, tl)
		}
		// Lengths always match: values is sized from t.
		_ = t.SetColumn(def.column, values)
		e.flush(def, tl, report)
	}
}

// groupByTarget keeps the first-appearance order of targets and definitions.
func groupByTarget(defs []definition) [][]definition {
	index := make(map[string]int)
	var groups [][]definition
	for _, d := range defs {
		i, ok := index[d.target]
		if !ok {
			i = len(groups)
			index[d.target] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], d)
	}
	return groups
}
