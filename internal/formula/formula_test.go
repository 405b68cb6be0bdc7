package formula

import (
	"errors"
	"testing"
)

func TestEvaluate(t *testing.T) {
	vars := map[string]float64{"time": 10, "cost_rate": 5, "a": 2, "b": 4, "VAL01": 3}
	cases := []struct {
		src  string
		want float64
	}{
		{"time * cost_rate", 50},
		{"time + cost_rate * a", 20},
		{"(time + cost_rate) * a", 30},
		{"b / a / a", 1},
		{"time - a - b", 4},
		{"-a + b", 2},
		{"--a", 2},
		{"+a * -b", -8},
		{"1.5e2 / 3", 50},
		{".5 * b", 2},
		{"2.", 2},
		{"VAL01 * 2", 6},
		{"  time\t*\n2 ", 20},
	}
	for _, c := range cases {
		got, err := Evaluate(c.src, vars)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", c.src, err)
			continue
		}
		if got != c.want {
			t.Errorf("%q = %v, want %v", c.src, got, c.want)
		}
	}
}

func TestEvaluateErrors(t *testing.T) {
	vars := map[string]float64{"x": 1, "zero": 0}
	cases := []struct {
		src  string
		want error
	}{
		{"x / zero", ErrDivisionByZero},
		{"x / (x - 1)", ErrDivisionByZero},
		{"y * 2", ErrUnknownVariable},
		{"x ** 2", ErrSyntax},
		{"x // 2", ErrSyntax},
		{"x % 2", ErrSyntax},
		{"abs(x)", ErrSyntax},
		{"(x + 1", ErrSyntax},
		{"x + 1)", ErrSyntax},
		{"x +", ErrSyntax},
		{"", ErrSyntax},
		{"2x", ErrSyntax},
		{"1e", ErrSyntax},
		{"__import__", ErrUnknownVariable},
		{"1e308 * 10", ErrNonFinite},
	}
	for _, c := range cases {
		_, err := Evaluate(c.src, vars)
		if !errors.Is(err, c.want) {
			t.Errorf("%q: expected %v, got %v", c.src, c.want, err)
		}
	}
}

func TestCompileVariables(t *testing.T) {
	e, err := Compile("value * quantity - value / 2")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got := e.Variables()
	if len(got) != 2 || got[0] != "value" || got[1] != "quantity" {
		t.Errorf("unexpected variables %v", got)
	}
	if e.String() != "value * quantity - value / 2" {
		t.Errorf("unexpected source %q", e.String())
	}
}

func TestCompiledExprReusable(t *testing.T) {
	e, err := Compile("energy * factor")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	for i, want := range []float64{40, 60, 0} {
		got, err := e.Eval(map[string]float64{"energy": []float64{20, 30, 0}[i], "factor": 2})
		if err != nil {
			t.Fatalf("eval %d: %v", i, err)
		}
		if got != want {
			t.Errorf("eval %d = %v, want %v", i, got, want)
		}
	}
}
