// Package source reads a run's inputs from disk: the definition catalog, the
// attribute documents, the experiment design and the per-experiment
// simulation summaries.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MikeSquared-Agency/Assay/internal/attributes"
	"github.com/MikeSquared-Agency/Assay/internal/catalog"
	"github.com/MikeSquared-Agency/Assay/internal/frame"
)

const (
	TableProcess  = "df_process"
	TableProduct  = "df_product"
	TableResource = "df_resource"
	TableSystem   = "df_system"

	attributesPattern = "attributes_*.json"
)

var ErrNoAttributes = errors.New("no attribute files found")

// Summary maps a per-experiment file prefix to the entity table its rows
// are concatenated into.
type Summary struct {
	Prefix string
	Table  string
}

// Summaries lists the simulation outputs in load order. Experiments are
// discovered from the first entry.
var Summaries = []Summary{
	{Prefix: "summary_process_", Table: TableProcess},
	{Prefix: "summary_product_", Table: TableProduct},
	{Prefix: "summary_stations_", Table: TableResource},
}

// Layout says where an attribute document keeps its records.
type Layout struct {
	RecordsKey   string
	ComponentKey string
}

type Paths struct {
	Indicators    string
	Values        string
	Design        string
	AttributesDir string
	ProcessedDir  string
	Attributes    map[string]Layout
}

// Inputs is everything one run consumes.
type Inputs struct {
	Catalog    *catalog.Catalog
	Attributes *attributes.Bundle
	Design     *frame.Table
	Entities   *frame.Set
	// Missing names summary files expected for a discovered experiment but
	// not found.
	Missing []string
}

// Loader produces run inputs.
type Loader interface {
	Load(ctx context.Context) (*Inputs, error)
}

type FileLoader struct {
	paths  Paths
	logger *slog.Logger
}

func NewFileLoader(paths Paths, logger *slog.Logger) *FileLoader {
	return &FileLoader{paths: paths, logger: logger}
}

func (l *FileLoader) Load(ctx context.Context) (*Inputs, error) {
	cat, err := l.loadCatalog()
	if err != nil {
		return nil, err
	}
	bundle, err := l.loadAttributes()
	if err != nil {
		return nil, err
	}
	design, err := ReadCSV(l.paths.Design, "doe")
	if err != nil {
		return nil, fmt.Errorf("load design: %w", err)
	}
	if !design.HasColumn(frame.ExperimentID) {
		return nil, fmt.Errorf("load design: %w: %s", frame.ErrColumnMissing, frame.ExperimentID)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids, err := l.discover()
	if err != nil {
		return nil, err
	}

	in := &Inputs{Catalog: cat, Attributes: bundle, Design: design}
	tables := make([]*frame.Table, 0, len(Summaries)+1)
	for _, s := range Summaries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, missing, err := l.concat(s, ids)
		if err != nil {
			return nil, err
		}
		in.Missing = append(in.Missing, missing...)
		tables = append(tables, t)
	}
	tables = append(tables, SystemTable(design, ids))
	in.Entities = frame.NewSet(tables...)

	if len(in.Missing) > 0 {
		l.logger.Warn("summary files not found", "dir", l.paths.ProcessedDir, "count", len(in.Missing), "files", in.Missing)
	}
	l.logger.Info("inputs loaded",
		"experiments", len(ids),
		"design_rows", design.Len(),
		"attribute_tables", len(bundle.Names()),
	)
	return in, nil
}

func (l *FileLoader) loadCatalog() (*catalog.Catalog, error) {
	indicators, err := os.ReadFile(l.paths.Indicators)
	if err != nil {
		return nil, fmt.Errorf("read indicators: %w", err)
	}
	values, err := os.ReadFile(l.paths.Values)
	if err != nil {
		return nil, fmt.Errorf("read values: %w", err)
	}
	return catalog.Parse(indicators, values)
}

// loadAttributes decodes every attributes_<name>.json with a configured
// layout. The table name is <name>.
func (l *FileLoader) loadAttributes() (*attributes.Bundle, error) {
	files, err := filepath.Glob(filepath.Join(l.paths.AttributesDir, attributesPattern))
	if err != nil {
		return nil, fmt.Errorf("list attributes: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoAttributes, l.paths.AttributesDir)
	}

	var tables []*attributes.Table
	seen := make(map[string]bool)
	for _, file := range files {
		name := catalog.TableFromFile(file)
		layout, ok := l.paths.Attributes[name]
		if !ok {
			l.logger.Warn("attribute file has no configured layout, skipping", "file", file, "table", name)
			continue
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read attributes: %w", err)
		}
		t, err := attributes.Decode(name, data, layout.RecordsKey, layout.ComponentKey)
		if err != nil {
			return nil, err
		}
		seen[name] = true
		tables = append(tables, t)
	}
	for name := range l.paths.Attributes {
		if !seen[name] {
			l.logger.Warn("configured attribute table not found", "table", name, "dir", l.paths.AttributesDir)
		}
	}
	return attributes.NewBundle(tables...), nil
}

// discover returns the experiment ids with a process summary, sorted. The id
// is the last underscore-separated part of the file stem.
func (l *FileLoader) discover() ([]string, error) {
	pattern := filepath.Join(l.paths.ProcessedDir, Summaries[0].Prefix+"*.csv")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	ids := make([]string, 0, len(files))
	for _, f := range files {
		stem := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		parts := strings.Split(stem, "_")
		ids = append(ids, parts[len(parts)-1])
	}
	sort.Strings(ids)
	if len(ids) == 0 {
		l.logger.Warn("no experiments found", "dir", l.paths.ProcessedDir, "pattern", Summaries[0].Prefix+"*.csv")
	}
	return ids, nil
}

// concat stacks one summary kind across experiments, tagging each row with
// its experiment id.
func (l *FileLoader) concat(s Summary, ids []string) (*frame.Table, []string, error) {
	var (
		columns []string
		rows    []frame.Row
		missing []string
	)
	seen := make(map[string]bool)
	for _, id := range ids {
		name := s.Prefix + id + ".csv"
		path := filepath.Join(l.paths.ProcessedDir, name)
		t, err := ReadCSV(path, s.Table)
		if errors.Is(err, os.ErrNotExist) {
			missing = append(missing, name)
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("load %s: %w", name, err)
		}
		for _, c := range t.Columns() {
			if !seen[c] {
				seen[c] = true
				columns = append(columns, c)
			}
		}
		for i := 0; i < t.Len(); i++ {
			r := t.Row(i)
			r[frame.ExperimentID] = id
			rows = append(rows, r)
		}
	}
	if !seen[frame.ExperimentID] && len(rows) > 0 {
		columns = append(columns, frame.ExperimentID)
	}
	if len(rows) == 0 {
		l.logger.Warn("entity table is empty", "table", s.Table)
	}
	return frame.NewTable(s.Table, columns, rows), missing, nil
}

// SystemTable is the design restricted to experiments with simulation
// output, one row per experiment, in design order.
func SystemTable(design *frame.Table, ids []string) *frame.Table {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var rows []frame.Row
	for i := 0; i < design.Len(); i++ {
		r := design.Row(i)
		if want[r.String(frame.ExperimentID)] {
			rows = append(rows, r)
		}
	}
	return frame.NewTable(TableSystem, design.Columns(), rows)
}
