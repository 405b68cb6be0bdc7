package compute

import (
	"errors"
	"fmt"

	"github.com/MikeSquared-Agency/Assay/internal/attributes"
	"github.com/MikeSquared-Agency/Assay/internal/catalog"
	"github.com/MikeSquared-Agency/Assay/internal/frame"
)

var (
	ErrColumnMissing       = errors.New("column not found in row")
	ErrLookupColumnMissing = errors.New("lookup column not found in row")
	ErrNotNumeric          = errors.New("value is not numeric")
	ErrUnknownTable        = errors.New("unknown attribute table")
	ErrNoComponentTable    = errors.New("no component-keyed attribute table")

	// ErrNoMatch marks an unmatched lookup. The variable resolves to 0 and
	// the miss is reported as sparse data rather than a failure.
	ErrNoMatch = errors.New("no matching attribute record")
)

// Resolver turns a variable spec into a number for one row.
type Resolver struct {
	attrs *attributes.Bundle
}

func NewResolver(attrs *attributes.Bundle) *Resolver {
	if attrs == nil {
		attrs = attributes.NewBundle()
	}
	return &Resolver{attrs: attrs}
}

// Resolve returns the variable's value. On any error the caller uses 0.
func (r *Resolver) Resolve(row frame.Row, spec catalog.VariableSpec) (float64, error) {
	switch s := spec.(type) {
	case catalog.RowColumn:
		v, ok := row[s.Column]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrColumnMissing, s.Column)
		}
		return toNumber(v)
	case catalog.AttributeLookup:
		return r.attribute(row, s)
	case catalog.QualityRangeLookup:
		return r.qualityRange(row, s.QualityLookup)
	case catalog.QualityThresholdLookup:
		return r.qualityThreshold(row, s.QualityLookup)
	case nil:
		return 0, fmt.Errorf("%w: nil spec", catalog.ErrUnknownSource)
	}
	return 0, fmt.Errorf("%w: %T", catalog.ErrUnknownSource, spec)
}

func (r *Resolver) attribute(row frame.Row, s catalog.AttributeLookup) (float64, error) {
	t, ok := r.attrs.Table(s.Table)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTable, s.Table)
	}
	keys := make([]any, 0, len(s.LookupColumns))
	for _, col := range s.LookupColumns {
		v, ok := row[col]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrLookupColumnMissing, col)
		}
		keys = append(keys, v)
	}
	if t.ComponentKeyed() {
		keys = keys[:1]
	}
	rec, ok, err := r.attrs.Index(t, s.LookupColumns).Lookup(keys...)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: %s %v", ErrNoMatch, t.Name, keys)
	}
	v, found, err := attributes.Walk(rec, s.Path)
	if err != nil {
		return 0, err
	}
	if !found || v == nil {
		return 0, fmt.Errorf("%w: %s path %v", ErrNoMatch, t.Name, s.Path)
	}
	return toNumber(v)
}

// component locates the record for the row's lookup column and the row's
// quality value.
func (r *Resolver) component(row frame.Row, s catalog.QualityLookup) (*attributes.Object, float64, error) {
	var t *attributes.Table
	if s.Table != "" {
		var ok bool
		if t, ok = r.attrs.Table(s.Table); !ok {
			return nil, 0, fmt.Errorf("%w: %s", ErrUnknownTable, s.Table)
		}
	} else {
		var ok bool
		if t, ok = r.attrs.ComponentTable(); !ok {
			return nil, 0, ErrNoComponentTable
		}
	}
	key, ok := row[s.LookupColumn]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", ErrLookupColumnMissing, s.LookupColumn)
	}
	qv, ok := row[s.QualityColumn]
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", ErrLookupColumnMissing, s.QualityColumn)
	}
	quality, err := toNumber(qv)
	if err != nil {
		return nil, 0, fmt.Errorf("quality column %s: %w", s.QualityColumn, err)
	}
	rec, found, err := r.attrs.Index(t, []string{s.LookupColumn}).Lookup(key)
	if err != nil {
		return nil, 0, err
	}
	if !found {
		return nil, 0, fmt.Errorf("%w: %s %v", ErrNoMatch, t.Name, key)
	}
	return rec, quality, nil
}

func (r *Resolver) qualityRange(row frame.Row, s catalog.QualityLookup) (float64, error) {
	rec, quality, err := r.component(row, s)
	if err != nil {
		return 0, err
	}
	v, found, err := attributes.Walk(rec, s.Path)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("%w: path %v", ErrNoMatch, s.Path)
	}
	ranges, ok := v.([]any)
	if !ok {
		return 0, fmt.Errorf("path %v: expected a list of ranges: %w", s.Path, attributes.ErrMalformed)
	}
	for _, item := range ranges {
		entry, ok := item.(*attributes.Object)
		if !ok {
			return 0, fmt.Errorf("path %v: range entry is not a mapping: %w", s.Path, attributes.ErrMalformed)
		}
		in, err := contains(entry, quality)
		if err != nil {
			return 0, err
		}
		if in {
			return entryValue(entry, s.ValueKey)
		}
	}
	return 0, fmt.Errorf("%w: quality %v outside every range", ErrNoMatch, quality)
}

func (r *Resolver) qualityThreshold(row frame.Row, s catalog.QualityLookup) (float64, error) {
	rec, quality, err := r.component(row, s)
	if err != nil {
		return 0, err
	}
	v, found, err := attributes.Walk(rec, s.Path)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("%w: path %v", ErrNoMatch, s.Path)
	}
	options, ok := v.(*attributes.Object)
	if !ok {
		return 0, fmt.Errorf("path %v: expected a map of options: %w", s.Path, attributes.ErrMalformed)
	}
	for _, name := range options.Keys() {
		opt, _ := options.Get(name)
		entry, ok := opt.(*attributes.Object)
		if !ok {
			continue
		}
		in, err := contains(entry, quality)
		if err != nil {
			return 0, err
		}
		if in {
			return entryValue(entry, s.ValueKey)
		}
	}
	return 0, fmt.Errorf("%w: quality %v outside every option", ErrNoMatch, quality)
}

// contains checks quality_min <= q <= quality_max with defaults 0 and 1.
func contains(entry *attributes.Object, q float64) (bool, error) {
	lo, hi := 0.0, 1.0
	if v, ok := entry.Get("quality_min"); ok {
		f, err := toNumber(v)
		if err != nil {
			return false, fmt.Errorf("quality_min: %w", err)
		}
		lo = f
	}
	if v, ok := entry.Get("quality_max"); ok {
		f, err := toNumber(v)
		if err != nil {
			return false, fmt.Errorf("quality_max: %w", err)
		}
		hi = f
	}
	return lo <= q && q <= hi, nil
}

// entryValue reads key from a matched entry; an absent key is 0.
func entryValue(entry *attributes.Object, key string) (float64, error) {
	v, ok := entry.Get(key)
	if !ok || v == nil {
		return 0, nil
	}
	return toNumber(v)
}

func toNumber(v any) (float64, error) {
	f, err := frame.ToFloat(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotNumeric, v)
	}
	return f, nil
}
