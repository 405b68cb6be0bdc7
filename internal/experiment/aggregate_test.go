package experiment

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Assay/internal/catalog"
	"github.com/MikeSquared-Agency/Assay/internal/compute"
	"github.com/MikeSquared-Agency/Assay/internal/diag"
	"github.com/MikeSquared-Agency/Assay/internal/fixture"
	"github.com/MikeSquared-Agency/Assay/internal/frame"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func computed(t *testing.T) *frame.Set {
	t.Helper()
	res := compute.NewEngine(fixture.Attributes(), compute.DefaultPrecision, discardLogger()).
		Compute(fixture.Entities(), fixture.Catalog())
	require.Equal(t, 0, res.Diagnostics.Len())
	return res.Tables
}

func values(tbl *Table, id string) []float64 {
	out := make([]float64, len(tbl.Records))
	for i, r := range tbl.Records {
		out[i] = r.Values[id]
	}
	return out
}

func ids(tbl *Table) []string {
	out := make([]string, len(tbl.Records))
	for i, r := range tbl.Records {
		out[i] = r.ID
	}
	return out
}

// tableOf builds an aggregated table with one indicator.
func tableOf(id string, vals ...float64) *Table {
	t := &Table{Indicators: []string{id}}
	for i, v := range vals {
		t.Records = append(t.Records, Record{
			ID:          string(rune('a' + i)),
			Design:      frame.Row{},
			Values:      map[string]float64{id: v},
			InThreshold: map[string]bool{},
			Normalized:  map[string]float64{},
			Weighted:    map[string]float64{},
		})
	}
	t.Mark(StageAggregated)
	return t
}

func TestAggregateFixture(t *testing.T) {
	a := NewAggregator(2, discardLogger())
	tbl, failures, report, err := a.Aggregate(fixture.Design(), computed(t), fixture.Catalog().Indicators)
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Equal(t, 0, report.Len())

	assert.Equal(t, []string{"exp001", "exp002", "exp003"}, ids(tbl), "exp004 never ran")
	assert.Equal(t, []string{"IND01", "IND02", "IND03"}, tbl.Indicators)
	assert.Equal(t, fixture.IND01, values(tbl, "IND01"))
	assert.Equal(t, fixture.IND02, values(tbl, "IND02"))
	assert.Equal(t, fixture.IND03, values(tbl, "IND03"))

	rec, ok := tbl.Record("exp002")
	require.True(t, ok)
	assert.Equal(t, "config_B", rec.Design["system_config"])
	assert.True(t, tbl.Has(StageAggregated))
	assert.False(t, tbl.Has(StageChecked))
}

func TestAggregateIsolatesFailures(t *testing.T) {
	inds := fixture.Catalog().Indicators
	inds[0].Aggregation = "median"
	inds[1].Target = "df_missing"

	a := NewAggregator(2, discardLogger())
	tbl, failures, report, err := a.Aggregate(fixture.Design(), computed(t), inds)
	require.NoError(t, err)

	require.Len(t, failures, 2)
	assert.Equal(t, "IND01", failures[0].Indicator)
	assert.ErrorIs(t, failures[0], ErrUnknownMethod)
	assert.Equal(t, "IND02", failures[1].Indicator)
	assert.ErrorIs(t, failures[1], ErrTableMissing)
	assert.Equal(t, 2, report.Count(diag.Aggregation))

	assert.Equal(t, []string{"IND03"}, tbl.Indicators)
	assert.Equal(t, fixture.IND03, values(tbl, "IND03"))
}

func TestAggregateNoneKeepsFirstRow(t *testing.T) {
	process := frame.NewTable("df_process", []string{frame.ExperimentID, "X"}, []frame.Row{
		{"exp_id": "exp001", "X": 3.0},
		{"exp_id": "exp001", "X": 9.0},
		{"exp_id": "exp002", "X": 4.0},
	})
	ind := catalog.Indicator{ID: "X", Target: "df_process", Aggregation: catalog.AggregateNone}

	tbl, failures, report, err := NewAggregator(2, discardLogger()).
		Aggregate(fixture.Design(), frame.NewSet(process), []catalog.Indicator{ind})
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Equal(t, []float64{3, 4}, values(tbl, "X"))
	assert.Equal(t, 1, report.CountFor(diag.DuplicateRows, "X"))
}

func TestAggregateFillsSparseExperiments(t *testing.T) {
	process := frame.NewTable("df_process", []string{frame.ExperimentID, "X"}, []frame.Row{
		{"exp_id": "exp001", "X": 2.0},
		{"exp_id": "exp001", "X": 2.5},
	})
	product := frame.NewTable("df_product", []string{frame.ExperimentID}, []frame.Row{
		{"exp_id": "exp002"},
	})
	ind := catalog.Indicator{ID: "X", Target: "df_process", Aggregation: catalog.AggregateMean}

	tbl, _, report, err := NewAggregator(2, discardLogger()).
		Aggregate(fixture.Design(), frame.NewSet(process, product), []catalog.Indicator{ind})
	require.NoError(t, err)
	assert.Equal(t, []string{"exp001", "exp002"}, ids(tbl))
	assert.Equal(t, []float64{2.25, 0}, values(tbl, "X"))
	assert.Equal(t, 1, report.CountFor(diag.SparseData, "X"))
}

func TestAggregateRequiresDesignIDs(t *testing.T) {
	design := frame.NewTable("doe", []string{"description"}, nil)
	_, _, _, err := NewAggregator(2, discardLogger()).Aggregate(design, computed(t), nil)
	assert.ErrorIs(t, err, ErrNoDesignID)
}
