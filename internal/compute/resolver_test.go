package compute

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Assay/internal/attributes"
	"github.com/MikeSquared-Agency/Assay/internal/catalog"
	"github.com/MikeSquared-Agency/Assay/internal/fixture"
	"github.com/MikeSquared-Agency/Assay/internal/frame"
)

func quality(table, path, key string) catalog.QualityLookup {
	return catalog.QualityLookup{
		Table:         table,
		LookupColumn:  "step_name",
		QualityColumn: "quality",
		Path:          catalog.SplitPath(path),
		ValueKey:      key,
	}
}

func TestResolveRowColumn(t *testing.T) {
	r := NewResolver(fixture.Attributes())
	row := frame.Row{"processing_time": 10.0, "label": "fast", "empty": nil}

	v, err := r.Resolve(row, catalog.RowColumn{Column: "processing_time"})
	require.NoError(t, err)
	assert.Equal(t, 10.0, v)

	_, err = r.Resolve(row, catalog.RowColumn{Column: "missing"})
	assert.True(t, errors.Is(err, ErrColumnMissing))

	_, err = r.Resolve(row, catalog.RowColumn{Column: "label"})
	assert.True(t, errors.Is(err, ErrNotNumeric))

	_, err = r.Resolve(row, catalog.RowColumn{Column: "empty"})
	assert.True(t, errors.Is(err, ErrNotNumeric))
}

func TestResolveAttributeLookup(t *testing.T) {
	r := NewResolver(fixture.Attributes())
	power := catalog.AttributeLookup{Table: "process", LookupColumns: []string{"step_name"}, Path: catalog.SplitPath("cost_rates.running.power_rating")}

	v, err := r.Resolve(frame.Row{"step_name": "comp_B"}, power)
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)

	_, err = r.Resolve(frame.Row{"step_name": "comp_Z"}, power)
	assert.True(t, errors.Is(err, ErrNoMatch))

	_, err = r.Resolve(frame.Row{"station": "comp_A"}, power)
	assert.True(t, errors.Is(err, ErrLookupColumnMissing))

	missingPath := power
	missingPath.Path = catalog.SplitPath("cost_rates.idle.power_rating")
	_, err = r.Resolve(frame.Row{"step_name": "comp_A"}, missingPath)
	assert.True(t, errors.Is(err, ErrNoMatch))

	unknown := power
	unknown.Table = "stations"
	_, err = r.Resolve(frame.Row{"step_name": "comp_A"}, unknown)
	assert.True(t, errors.Is(err, ErrUnknownTable))
}

func TestResolveComponentKeyedAttribute(t *testing.T) {
	r := NewResolver(fixture.Attributes())
	weight := catalog.AttributeLookup{
		Table:         "product",
		LookupColumns: []string{"step_name", "exp_id"},
		Path:          catalog.SplitPath("fixed_attributes.weight.value"),
	}
	v, err := r.Resolve(frame.Row{"step_name": "comp_A", "exp_id": "exp001"}, weight)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v, "component tables match on the first lookup column only")
}

func TestResolveQualityRange(t *testing.T) {
	r := NewResolver(fixture.Attributes())
	spec := catalog.QualityRangeLookup{QualityLookup: quality("", "quality_dependent_attributes.component_value", "value")}

	cases := []struct {
		step    string
		quality float64
		want    float64
	}{
		{"comp_A", 0.2, 50},
		{"comp_A", 0.5, 50},
		{"comp_A", 0.9, 100},
		{"comp_B", 1.0, 150},
		{"comp_B", 0.0, 75},
	}
	for _, c := range cases {
		v, err := r.Resolve(frame.Row{"step_name": c.step, "quality": c.quality}, spec)
		require.NoError(t, err)
		assert.Equal(t, c.want, v, "%s at %v", c.step, c.quality)
	}

	_, err := r.Resolve(frame.Row{"step_name": "comp_A", "quality": 1.5}, spec)
	assert.True(t, errors.Is(err, ErrNoMatch))

	_, err = r.Resolve(frame.Row{"step_name": "comp_Q", "quality": 0.5}, spec)
	assert.True(t, errors.Is(err, ErrNoMatch))

	_, err = r.Resolve(frame.Row{"step_name": "comp_A"}, spec)
	assert.True(t, errors.Is(err, ErrLookupColumnMissing))
}

func TestResolveQualityThresholdUsesDocumentOrder(t *testing.T) {
	r := NewResolver(fixture.Attributes())
	spec := catalog.QualityThresholdLookup{QualityLookup: quality("product", "end_of_life_options", "circularity_rating")}

	v, err := r.Resolve(frame.Row{"step_name": "comp_A", "quality": 0.6}, spec)
	require.NoError(t, err)
	assert.Equal(t, 0.5, v, "0.6 sits on both bounds; recycle is listed first")

	v, err = r.Resolve(frame.Row{"step_name": "comp_B", "quality": 0.8}, spec)
	require.NoError(t, err)
	assert.Equal(t, 0.95, v)
}

func TestResolveQualityDefaults(t *testing.T) {
	doc := `{"components": [{"component_name": "comp_A", "options": {
    "open": {"score": 7},
    "nokey": {"quality_min": 2}
  }, "ranges": [{"quality_max": 0.4, "score": 1}, {"score": 2}]}]}`
	tbl, err := attributes.Decode("product", []byte(doc), "components", "component_name")
	require.NoError(t, err)
	r := NewResolver(attributes.NewBundle(tbl))

	ranges := catalog.QualityRangeLookup{QualityLookup: quality("", "ranges", "score")}
	v, err := r.Resolve(frame.Row{"step_name": "comp_A", "quality": 0.2}, ranges)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v, "missing quality_min defaults to 0")

	v, err = r.Resolve(frame.Row{"step_name": "comp_A", "quality": 0.9}, ranges)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v, "missing bounds default to [0, 1]")

	options := catalog.QualityThresholdLookup{QualityLookup: quality("", "options", "absent")}
	v, err = r.Resolve(frame.Row{"step_name": "comp_A", "quality": 0.5}, options)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v, "a matched entry without the value key is 0")
}

func TestResolveWithoutComponentTable(t *testing.T) {
	r := NewResolver(nil)
	spec := catalog.QualityRangeLookup{QualityLookup: quality("", "ranges", "score")}
	_, err := r.Resolve(frame.Row{"step_name": "comp_A", "quality": 0.2}, spec)
	assert.True(t, errors.Is(err, ErrNoComponentTable))
}
