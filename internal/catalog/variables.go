package catalog

import "fmt"

type SourceKind string

const (
	SourceRowColumn        SourceKind = "row_column"
	SourceAttribute        SourceKind = "attribute_lookup"
	SourceQualityRange     SourceKind = "quality_range_lookup"
	SourceQualityThreshold SourceKind = "quality_threshold_lookup"
)

// VariableSpec is one of RowColumn, AttributeLookup, QualityRangeLookup or
// QualityThresholdLookup.
type VariableSpec interface {
	Source() SourceKind
	validate() error
}

// RowColumn reads a column of the record being evaluated.
type RowColumn struct {
	Column string
}

// AttributeLookup finds a record in an attribute table by the row's lookup
// columns and walks Path into it. Component-keyed tables match on the first
// lookup column only.
type AttributeLookup struct {
	Table         string
	LookupColumns []string
	Path          []string
}

// QualityLookup locates a component by LookupColumn and selects an entry
// whose [quality_min, quality_max] contains the row's QualityColumn value.
// An empty Table means the bundle's component table.
type QualityLookup struct {
	Table         string
	LookupColumn  string
	QualityColumn string
	Path          []string
	ValueKey      string
}

// QualityRangeLookup selects from an array of ranged entries.
type QualityRangeLookup struct {
	QualityLookup
}

// QualityThresholdLookup selects from a map of named options in document order.
type QualityThresholdLookup struct {
	QualityLookup
}

func (RowColumn) Source() SourceKind              { return SourceRowColumn }
func (AttributeLookup) Source() SourceKind        { return SourceAttribute }
func (QualityRangeLookup) Source() SourceKind     { return SourceQualityRange }
func (QualityThresholdLookup) Source() SourceKind { return SourceQualityThreshold }

func (s RowColumn) validate() error {
	if s.Column == "" {
		return fieldError("column")
	}
	return nil
}

func (s AttributeLookup) validate() error {
	switch {
	case s.Table == "":
		return fieldError("file")
	case len(s.LookupColumns) == 0:
		return fieldError("lookup_columns")
	case len(s.Path) == 0:
		return fieldError("value_path")
	}
	return nil
}

func (s QualityLookup) validate() error {
	switch {
	case s.LookupColumn == "":
		return fieldError("lookup_column")
	case s.QualityColumn == "":
		return fieldError("quality_column")
	case len(s.Path) == 0:
		return fieldError("value_path")
	case s.ValueKey == "":
		return fieldError("value_key")
	}
	return nil
}

func fieldError(name string) error { return fmt.Errorf("%s: %w", name, ErrMissingField) }
