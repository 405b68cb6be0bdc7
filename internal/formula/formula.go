// Package formula evaluates arithmetic expressions over named numeric
// variables. Only + - * / parentheses, numeric literals and names are
// accepted; there are no functions.
package formula

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrSyntax          = errors.New("formula syntax error")
	ErrUnknownVariable = errors.New("unknown variable")
	ErrDivisionByZero  = errors.New("division by zero")
	ErrNonFinite       = errors.New("result is not finite")
)

func syntaxErrorf(pos int, format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrSyntax, pos, fmt.Sprintf(format, args...))
}

// Expr is a compiled formula. It is safe for concurrent use.
type Expr struct {
	source string
	root   node
	vars   []string
}

// Compile parses src once for repeated evaluation.
func Compile(src string) (*Expr, error) {
	root, vars, err := parse(src)
	if err != nil {
		return nil, err
	}
	return &Expr{source: src, root: root, vars: vars}, nil
}

func (e *Expr) String() string { return e.source }

// Variables lists the names referenced by the formula in first-use order.
func (e *Expr) Variables() []string {
	return append([]string(nil), e.vars...)
}

// Eval evaluates the formula with exactly the given variables in scope.
func (e *Expr) Eval(vars map[string]float64) (float64, error) {
	v, err := e.root.eval(vars)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNonFinite
	}
	return v, nil
}

// Evaluate compiles and evaluates src in one step.
func Evaluate(src string, vars map[string]float64) (float64, error) {
	e, err := Compile(src)
	if err != nil {
		return 0, err
	}
	return e.Eval(vars)
}

func (n numberNode) eval(map[string]float64) (float64, error) { return n.value, nil }

func (n varNode) eval(vars map[string]float64) (float64, error) {
	v, ok := vars[n.name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownVariable, n.name)
	}
	return v, nil
}

func (n unaryNode) eval(vars map[string]float64) (float64, error) {
	v, err := n.operand.eval(vars)
	if err != nil {
		return 0, err
	}
	if n.neg {
		return -v, nil
	}
	return v, nil
}

func (n binaryNode) eval(vars map[string]float64) (float64, error) {
	l, err := n.left.eval(vars)
	if err != nil {
		return 0, err
	}
	r, err := n.right.eval(vars)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case tokPlus:
		return l + r, nil
	case tokMinus:
		return l - r, nil
	case tokStar:
		return l * r, nil
	case tokSlash:
		if r == 0 {
			return 0, ErrDivisionByZero
		}
		return l / r, nil
	}
	return 0, fmt.Errorf("unsupported operator %s", n.op)
}
