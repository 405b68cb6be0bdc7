package scoring

import (
	"errors"
	"testing"

	"github.com/MikeSquared-Agency/Assay/internal/catalog"
	"github.com/MikeSquared-Agency/Assay/internal/fixture"
)

func TestFixtureWeightsSumToOne(t *testing.T) {
	w := WeightsFrom(fixture.Catalog().Indicators)
	if err := w.Validate(); err != nil {
		t.Errorf("fixture weights invalid: %v", err)
	}
	if got := w.CategorySum(catalog.Environmental); got < 0.699 || got > 0.701 {
		t.Errorf("environmental weight = %f, want 0.7", got)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		w    WeightSet
	}{
		{"sum too low", WeightSet{{Indicator: "A", Value: 0.5}, {Indicator: "B", Value: 0.3}}},
		{"negative", WeightSet{{Indicator: "A", Value: 1.2}, {Indicator: "B", Value: -0.2}}},
	}
	for _, tt := range tests {
		if err := tt.w.Validate(); !errors.Is(err, ErrInvalidWeights) {
			t.Errorf("%s: expected ErrInvalidWeights, got %v", tt.name, err)
		}
	}
}

func TestCheckModes(t *testing.T) {
	bad := WeightSet{{Indicator: "A", Value: 0.5}}

	if err := bad.Check(ValidateOff, discardLogger()); err != nil {
		t.Errorf("off: unexpected error %v", err)
	}
	if err := bad.Check(ValidateWarn, discardLogger()); err != nil {
		t.Errorf("warn: unexpected error %v", err)
	}
	err := bad.Check(ValidateStrict, discardLogger())
	var cerr *catalog.ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("strict: expected ConfigError, got %v", err)
	}
	if !errors.Is(err, ErrInvalidWeights) {
		t.Errorf("strict: expected wrapped ErrInvalidWeights, got %v", err)
	}
}

func TestParseValidationMode(t *testing.T) {
	for in, want := range map[string]ValidationMode{"": ValidateOff, "WARN": ValidateWarn, " strict ": ValidateStrict} {
		got, err := ParseValidationMode(in)
		if err != nil || got != want {
			t.Errorf("ParseValidationMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseValidationMode("loud"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
