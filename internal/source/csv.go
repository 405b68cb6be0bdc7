package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cast"

	"github.com/MikeSquared-Agency/Assay/internal/frame"
)

var ErrEmptyFile = errors.New("file has no header")

// ReadCSV loads a headed CSV file into a table.
func ReadCSV(path, name string) (*frame.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := DecodeCSV(f, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// DecodeCSV reads a header line then one row per record. Cells are typed on
// the way in: empty cells become nil, numbers float64, True/False bool and
// everything else stays a string. The experiment id column is always a
// string.
func DecodeCSV(r io.Reader, name string) (*frame.Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, err
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var rows []frame.Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(frame.Row, len(header))
		for i, h := range header {
			if h == frame.ExperimentID {
				row[h] = rec[i]
				continue
			}
			row[h] = parseCell(rec[i])
		}
		rows = append(rows, row)
	}
	return frame.NewTable(name, header, rows), nil
}

func parseCell(s string) any {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return nil
	case "True", "true", "TRUE":
		return true
	case "False", "false", "FALSE":
		return false
	}
	if f, err := cast.ToFloat64E(s); err == nil {
		return f
	}
	return s
}
