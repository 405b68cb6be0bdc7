package compute

import (
	"errors"
	"log/slog"

	"github.com/MikeSquared-Agency/Assay/internal/attributes"
	"github.com/MikeSquared-Agency/Assay/internal/catalog"
	"github.com/MikeSquared-Agency/Assay/internal/diag"
	"github.com/MikeSquared-Agency/Assay/internal/formula"
	"github.com/MikeSquared-Agency/Assay/internal/frame"
	"github.com/MikeSquared-Agency/Assay/internal/numeric"
)

// DefaultPrecision is the number of decimals computed columns keep.
const DefaultPrecision = 2

// Engine evaluates indicator and value formulas row by row.
type Engine struct {
	resolver  *Resolver
	precision int
	logger    *slog.Logger
}

func NewEngine(attrs *attributes.Bundle, precision int, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{resolver: NewResolver(attrs), precision: precision, logger: logger}
}

// definition is an indicator or value prepared for row-wise evaluation.
type definition struct {
	kind       string
	column     string
	target     string
	source     string
	variables  []catalog.Variable
	expr       *formula.Expr
	compileErr error
}

func newDefinition(kind, column, target, src string, vars []catalog.Variable) definition {
	expr, err := formula.Compile(src)
	return definition{kind: kind, column: column, target: target, source: src, variables: vars, expr: expr, compileErr: err}
}

// tally counts failures while one column is computed.
type tally struct {
	variables map[string]int
	unmatched map[string]int
	formula   int
	lastErr   error
}

func newTally() *tally {
	return &tally{variables: make(map[string]int), unmatched: make(map[string]int)}
}

// Evaluate resolves vars for row and evaluates src. It never fails: any
// problem is logged under label and yields 0.
func (e *Engine) Evaluate(row frame.Row, src string, vars []catalog.Variable, label string) float64 {
	def := newDefinition("formula", label, "", src, vars)
	t := newTally()
	v := e.evaluateRow(row, def, t)
	e.flush(def, t, diag.New())
	return v
}

func (e *Engine) evaluateRow(row frame.Row, def definition, t *tally) float64 {
	scope := make(map[string]float64, len(def.variables))
	for _, v := range def.variables {
		val, err := e.resolver.Resolve(row, v.Spec)
		if err != nil {
			if errors.Is(err, ErrNoMatch) {
				t.unmatched[v.Name]++
			} else {
				t.variables[v.Name]++
				e.logger.Debug("variable lookup failed, using 0",
					"definition", def.column, "variable", v.Name, "error", err)
			}
			val = 0
		}
		scope[v.Name] = val
	}

	if def.compileErr != nil {
		t.formula++
		t.lastErr = def.compileErr
		return 0
	}
	result, err := def.expr.Eval(scope)
	if err != nil {
		t.formula++
		t.lastErr = err
		e.logger.Debug("formula evaluation failed, using 0",
			"definition", def.column, "formula", def.source, "error", err)
		return 0
	}
	return numeric.Round(result, e.precision)
}

// flush logs one line per failing variable or formula and records the counts.
func (e *Engine) flush(def definition, t *tally, report *diag.Report) {
	for _, v := range def.variables {
		if n := t.variables[v.Name]; n > 0 {
			e.logger.Warn("variable lookups defaulted to 0",
				def.kind, def.column, "variable", v.Name, "rows", n)
			report.Add(diag.VariableResolution, def.column+"."+v.Name, n)
		}
		if n := t.unmatched[v.Name]; n > 0 {
			e.logger.Debug("unmatched lookups defaulted to 0",
				def.kind, def.column, "variable", v.Name, "rows", n)
			report.Add(diag.UnmatchedLookup, def.column+"."+v.Name, n)
		}
	}
	if t.formula > 0 {
		e.logger.Warn("formula evaluation defaulted to 0",
			def.kind, def.column, "formula", def.source, "rows", t.formula, "error", t.lastErr)
		report.Add(diag.FormulaEvaluation, def.column, t.formula)
	}
}
