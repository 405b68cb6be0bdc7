package experiment

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MikeSquared-Agency/Assay/internal/catalog"
	"github.com/MikeSquared-Agency/Assay/internal/diag"
)

func normalized(tbl *Table, id string) []float64 {
	out := make([]float64, len(tbl.Records))
	for i, r := range tbl.Records {
		out[i] = r.Normalized[id]
	}
	return out
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		ind  catalog.Indicator
		vals []float64
		want []float64
	}{
		{"minimize", catalog.Indicator{ID: "X", Direction: catalog.Minimize, Threshold: 1000}, []float64{125, 150, 110}, []float64{0.62, 0, 1}},
		{"minimize below spread", catalog.Indicator{ID: "X", Direction: catalog.Minimize, Threshold: 500}, []float64{100, 120, 86}, []float64{0.59, 0, 1}},
		{"maximize", catalog.Indicator{ID: "X", Direction: catalog.Maximize, Threshold: 0.7}, []float64{1.5, 1.25, 1.75}, []float64{0.5, 0, 1}},
		{"violation is negative", catalog.Indicator{ID: "X", Direction: catalog.Minimize, Threshold: 1000}, []float64{125, 1500, 110}, []float64{0.98, -0.56, 1}},
		{"maximize violation", catalog.Indicator{ID: "X", Direction: catalog.Maximize, Threshold: 10}, []float64{5, 20, 15}, []float64{-0.5, 1, 0.5}},
		{"degenerate", catalog.Indicator{ID: "X", Direction: catalog.Minimize, Threshold: 10}, []float64{4, 4, 4}, []float64{1, 1, 1}},
		{"threshold equals best", catalog.Indicator{ID: "X", Direction: catalog.Minimize, Threshold: 3}, []float64{3, 5}, []float64{1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _ := NewNormalizer(2, DefaultEpsilon, discardLogger()).
				Normalize(tableOf("X", tt.vals...), []catalog.Indicator{tt.ind})
			assert.Equal(t, tt.want, normalized(out, "X"))
		})
	}
}

func TestNormalizeDegenerateWarns(t *testing.T) {
	ind := catalog.Indicator{ID: "X", Direction: catalog.Maximize, Threshold: 4}
	_, report := NewNormalizer(2, 0, discardLogger()).Normalize(tableOf("X", 4, 4), []catalog.Indicator{ind})
	assert.Equal(t, 1, report.CountFor(diag.DegenerateNormalization, "X"))
}

func TestNormalizeBestIsOne(t *testing.T) {
	ind := catalog.Indicator{ID: "X", Direction: catalog.Maximize, Threshold: 0}
	out, _ := NewNormalizer(2, DefaultEpsilon, discardLogger()).
		Normalize(tableOf("X", 3.3, 7.1, 5.2, 0.4), []catalog.Indicator{ind})
	assert.Equal(t, 1.0, out.Records[1].Normalized["X"])
	for _, r := range out.Records {
		assert.False(t, math.IsNaN(r.Normalized["X"]))
	}
}

func TestNormalizeNonFiniteIsZero(t *testing.T) {
	ind := catalog.Indicator{ID: "X", Direction: catalog.Minimize, Threshold: math.Inf(1)}
	out, report := NewNormalizer(2, DefaultEpsilon, discardLogger()).
		Normalize(tableOf("X", 1, math.Inf(1)), []catalog.Indicator{ind})
	assert.Equal(t, []float64{0, 0}, normalized(out, "X"))
	assert.Equal(t, 2, report.CountFor(diag.NonFinite, "X"))
}

func TestNormalizeKeepsInput(t *testing.T) {
	in := tableOf("X", 1, 2)
	out, _ := NewNormalizer(2, DefaultEpsilon, discardLogger()).
		Normalize(in, []catalog.Indicator{{ID: "X", Direction: catalog.Minimize, Threshold: 5}})
	assert.True(t, out.Has(StageNormalized))
	assert.False(t, in.Has(StageNormalized))
	assert.Empty(t, in.Records[0].Normalized)
	assert.Contains(t, out.Columns(), "X_normalized")
}
