package catalog

import (
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Documents are JSON or YAML; yaml.v3 reads both.

type indicatorsDoc struct {
	Indicators []rawIndicator `yaml:"indicators"`
}

type valuesDoc struct {
	Values        []rawValue `yaml:"values"`
	SpecialValues []rawValue `yaml:"special_values"`
}

type rawIndicator struct {
	ID          string    `yaml:"indicator_id"`
	Name        string    `yaml:"indicator_name"`
	Target      string    `yaml:"target_dataframe"`
	Aggregation string    `yaml:"aggregation"`
	Direction   string    `yaml:"direction"`
	Threshold   *float64  `yaml:"threshold"`
	Weight      *float64  `yaml:"weight"`
	Category    string    `yaml:"category"`
	Formula     string    `yaml:"formula"`
	Variables   yaml.Node `yaml:"indicator_variables"`
}

type rawValue struct {
	ID        string    `yaml:"value_id"`
	Name      string    `yaml:"value_name"`
	Target    string    `yaml:"target_dataframe"`
	Category  string    `yaml:"category"`
	Formula   string    `yaml:"formula"`
	Variables yaml.Node `yaml:"value_variables"`
}

type rawVariable struct {
	Source        string   `yaml:"source"`
	Column        string   `yaml:"column"`
	File          string   `yaml:"file"`
	Table         string   `yaml:"table"`
	LookupColumns []string `yaml:"lookup_columns"`
	ValuePath     string   `yaml:"value_path"`
	LookupColumn  string   `yaml:"lookup_column"`
	QualityColumn string   `yaml:"quality_column"`
	ValueKey      string   `yaml:"value_key"`
}

// Parse decodes an indicators document and a values document into a
// validated catalog. A nil values document means no values.
func Parse(indicators, values []byte) (*Catalog, error) {
	inds, err := ParseIndicators(indicators)
	if err != nil {
		return nil, err
	}
	var vals []Value
	if values != nil {
		if vals, err = ParseValues(values); err != nil {
			return nil, err
		}
	}
	return New(inds, vals)
}

func ParseIndicators(data []byte) ([]Indicator, error) {
	var doc indicatorsDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ConfigError{Kind: "catalog", Err: fmt.Errorf("parse indicators: %w", err)}
	}
	out := make([]Indicator, 0, len(doc.Indicators))
	for i, raw := range doc.Indicators {
		id := raw.ID
		if id == "" {
			id = fmt.Sprintf("#%d", i)
		}
		if raw.Threshold == nil {
			return nil, configErrorf("indicator", id, "threshold: %w", ErrMissingField)
		}
		if raw.Weight == nil {
			return nil, configErrorf("indicator", id, "weight: %w", ErrMissingField)
		}
		vars, err := decodeVariables(&raw.Variables, "indicator_variables")
		if err != nil {
			return nil, &ConfigError{Kind: "indicator", ID: id, Err: err}
		}
		out = append(out, Indicator{
			ID:          raw.ID,
			Name:        raw.Name,
			Target:      raw.Target,
			Aggregation: Aggregation(strings.ToLower(raw.Aggregation)),
			Direction:   Direction(strings.ToLower(raw.Direction)),
			Threshold:   *raw.Threshold,
			Weight:      *raw.Weight,
			Category:    Category(strings.ToLower(raw.Category)),
			Formula:     raw.Formula,
			Variables:   vars,
		})
	}
	return out, nil
}

func ParseValues(data []byte) ([]Value, error) {
	var doc valuesDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ConfigError{Kind: "catalog", Err: fmt.Errorf("parse values: %w", err)}
	}
	out := make([]Value, 0, len(doc.Values)+len(doc.SpecialValues))
	add := func(raws []rawValue, special bool) error {
		for i, raw := range raws {
			v := Value{
				ID:       raw.ID,
				Name:     raw.Name,
				Target:   raw.Target,
				Category: ValueCategory(strings.ToLower(raw.Category)),
				Formula:  raw.Formula,
				Special:  special,
			}
			id := v.Column()
			if id == "" {
				id = fmt.Sprintf("#%d", i)
			}
			vars, err := decodeVariables(&raw.Variables, "value_variables")
			if err != nil {
				return &ConfigError{Kind: "value", ID: id, Err: err}
			}
			v.Variables = vars
			out = append(out, v)
		}
		return nil
	}
	if err := add(doc.Values, false); err != nil {
		return nil, err
	}
	if err := add(doc.SpecialValues, true); err != nil {
		return nil, err
	}
	return out, nil
}

// decodeVariables keeps the mapping's document order.
func decodeVariables(node *yaml.Node, field string) ([]Variable, error) {
	if node.Kind == 0 {
		return nil, fmt.Errorf("%s: %w", field, ErrMissingField)
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s: expected a mapping: %w", field, ErrInvalidValue)
	}
	vars := make([]Variable, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		var raw rawVariable
		if err := node.Content[i+1].Decode(&raw); err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
		spec, err := raw.spec()
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
		vars = append(vars, Variable{Name: name, Spec: spec})
	}
	return vars, nil
}

func (r rawVariable) spec() (VariableSpec, error) {
	table := r.Table
	if table == "" && r.File != "" {
		table = TableFromFile(r.File)
	}
	quality := QualityLookup{
		Table:         table,
		LookupColumn:  r.LookupColumn,
		QualityColumn: r.QualityColumn,
		Path:          SplitPath(r.ValuePath),
		ValueKey:      r.ValueKey,
	}
	switch strings.ToLower(r.Source) {
	case "row_column", "dataframe":
		return RowColumn{Column: r.Column}, nil
	case "attribute_lookup", "attribute_file":
		return AttributeLookup{Table: table, LookupColumns: r.LookupColumns, Path: SplitPath(r.ValuePath)}, nil
	case "quality_range_lookup", "quality_range":
		return QualityRangeLookup{quality}, nil
	case "quality_threshold_lookup", "quality_threshold":
		return QualityThresholdLookup{quality}, nil
	case "":
		return nil, fmt.Errorf("source: %w", ErrMissingField)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, r.Source)
	}
}

// TableFromFile maps "attributes_process.json" to "process".
func TableFromFile(file string) string {
	base := filepath.Base(file)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimPrefix(base, "attributes_")
}
