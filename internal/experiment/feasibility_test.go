package experiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Assay/internal/catalog"
	"github.com/MikeSquared-Agency/Assay/internal/diag"
)

func TestInThreshold(t *testing.T) {
	tests := []struct {
		dir       catalog.Direction
		value     float64
		threshold float64
		want      bool
	}{
		{catalog.Minimize, 125, 1000, true},
		{catalog.Minimize, 1000, 1000, true},
		{catalog.Minimize, 1500, 1000, false},
		{catalog.Maximize, 0.7, 0.7, true},
		{catalog.Maximize, 0.5, 0.7, false},
		{"sideways", 1500, 1000, false},
	}
	for _, tt := range tests {
		if got := InThreshold(tt.dir, tt.value, tt.threshold); got != tt.want {
			t.Errorf("InThreshold(%s, %v, %v) = %v, want %v", tt.dir, tt.value, tt.threshold, got, tt.want)
		}
	}
}

func TestCheckFlagsViolation(t *testing.T) {
	in := tableOf("IND01", 125, 1500, 110)
	inds := []catalog.Indicator{{ID: "IND01", Direction: catalog.Minimize, Threshold: 1000}}

	out, report := NewFeasibilityChecker(discardLogger()).Check(in, inds)
	assert.Equal(t, 0, report.Len())
	assert.Equal(t, []string{"a", "c"}, out.Feasible())

	b, _ := out.Record("b")
	assert.False(t, b.InThreshold["IND01"])
	assert.Equal(t, 1, b.ViolationCount)
	assert.False(t, b.Feasible)
	assert.Contains(t, out.Columns(), "IND01_in_threshold")
	assert.Contains(t, out.Columns(), ColumnIsFeasible)

	assert.False(t, in.Has(StageChecked), "input is not modified")
	assert.Empty(t, in.Records[1].InThreshold)
}

func TestCheckCountsEveryViolation(t *testing.T) {
	in := tableOf("IND01", 10, 20)
	for i := range in.Records {
		in.Records[i].Values["IND03"] = 0.1
	}
	in.Indicators = append(in.Indicators, "IND03")
	inds := []catalog.Indicator{
		{ID: "IND01", Direction: catalog.Minimize, Threshold: 15},
		{ID: "IND03", Direction: catalog.Maximize, Threshold: 0.5},
	}

	out, _ := NewFeasibilityChecker(discardLogger()).Check(in, inds)
	assert.Equal(t, 1, out.Records[0].ViolationCount)
	assert.Equal(t, 2, out.Records[1].ViolationCount)
	assert.Empty(t, out.Feasible())
}

func TestCheckFailsOpen(t *testing.T) {
	in := tableOf("IND01", 125, 1500)
	out, _ := NewFeasibilityChecker(discardLogger()).Check(in, nil)
	assert.Empty(t, out.Checked)
	assert.Equal(t, []string{"a", "b"}, out.Feasible())
}

func TestCheckUnknownDirectionAsMinimize(t *testing.T) {
	in := tableOf("IND01", 125, 1500)
	inds := []catalog.Indicator{{ID: "IND01", Direction: "lower", Threshold: 1000}}

	out, report := NewFeasibilityChecker(discardLogger()).Check(in, inds)
	require.Equal(t, 1, report.CountFor(diag.UnknownDirection, "IND01"))
	assert.Equal(t, []string{"a"}, out.Feasible())
}
