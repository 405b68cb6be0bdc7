package source_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Assay/internal/fixture"
	"github.com/MikeSquared-Agency/Assay/internal/frame"
	"github.com/MikeSquared-Agency/Assay/internal/source"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func layouts() map[string]source.Layout {
	out := make(map[string]source.Layout)
	for name, doc := range fixture.AttributeDocs {
		out[name] = source.Layout{RecordsKey: doc.RecordsKey, ComponentKey: doc.ComponentKey}
	}
	return out
}

func writeFixture(t *testing.T) source.Paths {
	t.Helper()
	files, err := fixture.WriteDir(t.TempDir())
	require.NoError(t, err)
	return source.Paths{
		Indicators:    files.Indicators,
		Values:        files.Values,
		Design:        files.Design,
		AttributesDir: files.AttributesDir,
		ProcessedDir:  files.ProcessedDir,
		Attributes:    layouts(),
	}
}

func TestFileLoaderLoadsFixture(t *testing.T) {
	paths := writeFixture(t)

	in, err := source.NewFileLoader(paths, discardLogger()).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"IND01", "IND02", "IND03"}, in.Catalog.IndicatorIDs())
	assert.ElementsMatch(t, []string{"process", "systems", "product"}, in.Attributes.Names())
	assert.Equal(t, 4, in.Design.Len())
	assert.Empty(t, in.Missing)

	process, ok := in.Entities.Get(source.TableProcess)
	require.True(t, ok)
	assert.Equal(t, 6, process.Len())
	assert.Equal(t, []string{"exp001", "exp002", "exp003"}, process.ExperimentIDs())
	assert.True(t, process.HasColumn(frame.ExperimentID))

	v, err := process.Row(0).Float("processing_time")
	require.NoError(t, err)
	assert.Equal(t, 10.0, v)
	assert.Equal(t, "comp_A", process.Row(0).String("step_name"))

	product, ok := in.Entities.Get(source.TableProduct)
	require.True(t, ok)
	assert.Equal(t, 6, product.Len())

	resource, ok := in.Entities.Get(source.TableResource)
	require.True(t, ok)
	assert.Equal(t, 3, resource.Len())

	system, ok := in.Entities.Get(source.TableSystem)
	require.True(t, ok)
	assert.Equal(t, []string{"exp001", "exp002", "exp003"}, system.ExperimentIDs())
	assert.Equal(t, "config_B", system.Row(1).String("system_config"))
}

func TestFileLoaderReportsMissingSummaries(t *testing.T) {
	paths := writeFixture(t)
	require.NoError(t, os.Remove(filepath.Join(paths.ProcessedDir, "summary_stations_exp002.csv")))

	in, err := source.NewFileLoader(paths, discardLogger()).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"summary_stations_exp002.csv"}, in.Missing)
	resource, _ := in.Entities.Get(source.TableResource)
	assert.Equal(t, []string{"exp001", "exp003"}, resource.ExperimentIDs())
}

func TestFileLoaderSkipsUnconfiguredAttributes(t *testing.T) {
	paths := writeFixture(t)
	delete(paths.Attributes, "systems")

	in, err := source.NewFileLoader(paths, discardLogger()).Load(context.Background())
	require.NoError(t, err)

	_, ok := in.Attributes.Table("systems")
	assert.False(t, ok)
	_, ok = in.Attributes.Table("product")
	assert.True(t, ok)
}

func TestFileLoaderErrors(t *testing.T) {
	t.Run("missing design", func(t *testing.T) {
		paths := writeFixture(t)
		paths.Design = filepath.Join(t.TempDir(), "nope.csv")
		_, err := source.NewFileLoader(paths, discardLogger()).Load(context.Background())
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("no attributes", func(t *testing.T) {
		paths := writeFixture(t)
		paths.AttributesDir = t.TempDir()
		_, err := source.NewFileLoader(paths, discardLogger()).Load(context.Background())
		assert.ErrorIs(t, err, source.ErrNoAttributes)
	})

	t.Run("malformed indicators", func(t *testing.T) {
		paths := writeFixture(t)
		require.NoError(t, os.WriteFile(paths.Indicators, []byte(`{"indicators": [{"indicator_id": "X"}]}`), 0o644))
		_, err := source.NewFileLoader(paths, discardLogger()).Load(context.Background())
		assert.Error(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		paths := writeFixture(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := source.NewFileLoader(paths, discardLogger()).Load(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDecodeCSVTypesCells(t *testing.T) {
	in := "exp_id,count,label,flag,empty\n001,2.5,abc,True,\n"
	tbl, err := source.DecodeCSV(strings.NewReader(in), "t")
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())

	row := tbl.Row(0)
	assert.Equal(t, "001", row[frame.ExperimentID])
	assert.Equal(t, 2.5, row["count"])
	assert.Equal(t, "abc", row["label"])
	assert.Equal(t, true, row["flag"])
	assert.Nil(t, row["empty"])
	assert.Equal(t, []string{"exp_id", "count", "label", "flag", "empty"}, tbl.Columns())
}

func TestDecodeCSVEmpty(t *testing.T) {
	_, err := source.DecodeCSV(strings.NewReader(""), "t")
	assert.ErrorIs(t, err, source.ErrEmptyFile)
}

func TestSystemTableKeepsDesignOrder(t *testing.T) {
	sys := source.SystemTable(fixture.Design(), []string{"exp003", "exp001"})
	assert.Equal(t, source.TableSystem, sys.Name())
	assert.Equal(t, []string{"exp001", "exp003"}, sys.ExperimentIDs())
}
