package fixture

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cast"

	"github.com/MikeSquared-Agency/Assay/internal/frame"
)

// Files are the paths WriteDir produced.
type Files struct {
	Indicators    string
	Values        string
	Design        string
	AttributesDir string
	ProcessedDir  string
}

// WriteDir lays the fixture out on disk the way the loader expects it:
// config/, attributes/ and processed/ under dir, one summary file per
// experiment and kind.
func WriteDir(dir string) (Files, error) {
	files := Files{
		Indicators:    filepath.Join(dir, "config", "config_indicators.json"),
		Values:        filepath.Join(dir, "config", "config_values.json"),
		Design:        filepath.Join(dir, "config", "doe_full_factorial_experiments.csv"),
		AttributesDir: filepath.Join(dir, "attributes"),
		ProcessedDir:  filepath.Join(dir, "processed"),
	}
	for _, d := range []string{filepath.Dir(files.Indicators), files.AttributesDir, files.ProcessedDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return files, err
		}
	}

	if err := os.WriteFile(files.Indicators, []byte(IndicatorsJSON), 0o644); err != nil {
		return files, err
	}
	if err := os.WriteFile(files.Values, []byte(ValuesJSON), 0o644); err != nil {
		return files, err
	}
	for _, name := range AttributeOrder {
		path := filepath.Join(files.AttributesDir, "attributes_"+name+".json")
		if err := os.WriteFile(path, []byte(AttributeDocs[name].Doc), 0o644); err != nil {
			return files, err
		}
	}
	if err := WriteCSV(files.Design, Design(), DesignColumns); err != nil {
		return files, err
	}

	summaries := []struct {
		prefix  string
		table   *frame.Table
		columns []string
	}{
		{"summary_process_", Process(), ProcessColumns[1:]},
		{"summary_product_", Product(), ProductColumns[1:]},
		{"summary_stations_", Resource(), ResourceColumns[1:]},
	}
	for _, s := range summaries {
		for _, id := range s.table.ExperimentIDs() {
			path := filepath.Join(files.ProcessedDir, s.prefix+id+".csv")
			if err := WriteCSV(path, only(s.table, id), s.columns); err != nil {
				return files, err
			}
		}
	}
	return files, nil
}

// WriteCSV writes the given columns of t with a header line.
func WriteCSV(path string, t *frame.Table, columns []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		f.Close()
		return err
	}
	for i := 0; i < t.Len(); i++ {
		r := t.Row(i)
		rec := make([]string, len(columns))
		for j, c := range columns {
			if v, ok := r[c]; ok && v != nil {
				rec[j] = cast.ToString(v)
			}
		}
		if err := w.Write(rec); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func only(t *frame.Table, id string) *frame.Table {
	var rows []frame.Row
	for i := 0; i < t.Len(); i++ {
		if r := t.Row(i); r.String(frame.ExperimentID) == id {
			rows = append(rows, r)
		}
	}
	return frame.NewTable(t.Name(), t.Columns(), rows)
}
