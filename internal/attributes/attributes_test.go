package attributes

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productJSON = `{
  "components": [
    {
      "component_name": "comp_A",
      "fixed_attributes": {"weight": {"value": 2.0}},
      "end_of_life_options": {
        "remanufacture": {"quality_min": 0.6, "quality_max": 1.0, "circularity_rating": 0.9},
        "recycle": {"quality_min": 0.0, "quality_max": 0.6, "circularity_rating": 0.5}
      }
    },
    {"component_name": "comp_A", "fixed_attributes": {"weight": {"value": 99.0}}}
  ]
}`

const systemsYAML = `
system_configurations:
  - system_config: config_A
    automation_level: 0
    fixed_cost: 1000.0
  - system_config: config_A
    automation_level: 3
    fixed_cost: 1200.0
`

func TestDecodeKeepsKeyOrder(t *testing.T) {
	tbl, err := Decode("product", []byte(productJSON), "components", "component_name")
	require.NoError(t, err)
	require.Len(t, tbl.Records, 2)
	assert.True(t, tbl.ComponentKeyed())

	eol, found, err := Walk(tbl.Records[0], []string{"end_of_life_options"})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{"remanufacture", "recycle"}, eol.(*Object).Keys())
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode("product", []byte(productJSON), "parts", "component_name")
	assert.True(t, errors.Is(err, ErrMalformed))

	_, err = Decode("product", []byte(`{"components": 3}`), "components", "")
	assert.True(t, errors.Is(err, ErrMalformed))

	_, err = Decode("product", []byte(`[1, 2]`), "components", "")
	assert.True(t, errors.Is(err, ErrMalformed))

	_, err = Decode("product", []byte(`{"components": [1]}`), "components", "")
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestWalk(t *testing.T) {
	tbl, err := Decode("product", []byte(productJSON), "components", "component_name")
	require.NoError(t, err)
	rec := tbl.Records[0]

	v, found, err := Walk(rec, []string{"fixed_attributes", "weight", "value"})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2.0, v)

	_, found, err = Walk(rec, []string{"fixed_attributes", "height", "value"})
	require.NoError(t, err)
	assert.False(t, found)

	_, _, err = Walk(rec, []string{"fixed_attributes", "weight", "value", "unit"})
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestIndexFirstMatchWins(t *testing.T) {
	product, err := Decode("product", []byte(productJSON), "components", "component_name")
	require.NoError(t, err)
	b := NewBundle(product)

	idx := b.Index(product, []string{"ignored"})
	assert.Equal(t, []string{"component_name"}, idx.Fields())

	rec, ok, err := idx.Lookup("comp_A")
	require.NoError(t, err)
	require.True(t, ok)
	v, _, _ := Walk(rec, []string{"fixed_attributes", "weight", "value"})
	assert.Equal(t, 2.0, v)

	_, ok, err = idx.Lookup("comp_Z")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Same(t, idx, b.Index(product, nil), "index is built once")
}

func TestIndexCompositeKeysAcrossTypes(t *testing.T) {
	systems, err := Decode("systems", []byte(systemsYAML), "system_configurations", "")
	require.NoError(t, err)
	b := NewBundle(systems)
	idx := b.Index(systems, []string{"system_config", "automation_level"})

	rec, ok, err := idx.Lookup("config_A", 3.0)
	require.NoError(t, err)
	require.True(t, ok)
	v, _ := rec.Get("fixed_cost")
	assert.Equal(t, 1200.0, v)

	rec, ok, err = idx.Lookup("config_A", "0")
	require.NoError(t, err)
	require.True(t, ok)
	v, _ = rec.Get("fixed_cost")
	assert.Equal(t, 1000.0, v)

	_, _, err = idx.Lookup(NewObject())
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestBundleComponentTable(t *testing.T) {
	systems, err := Decode("systems", []byte(systemsYAML), "system_configurations", "")
	require.NoError(t, err)
	product, err := Decode("product", []byte(productJSON), "components", "component_name")
	require.NoError(t, err)

	b := NewBundle(systems, product)
	ct, ok := b.ComponentTable()
	require.True(t, ok)
	assert.Equal(t, "product", ct.Name)
	assert.Equal(t, []string{"systems", "product"}, b.Names())

	_, ok = NewBundle(systems).ComponentTable()
	assert.False(t, ok)
}
