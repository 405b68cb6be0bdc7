package catalog

import "fmt"

// Validate checks required fields, variable specs and id uniqueness.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Indicators))
	for i, ind := range c.Indicators {
		if ind.ID == "" {
			return configErrorf("indicator", fmt.Sprintf("#%d", i), "indicator_id: %w", ErrMissingField)
		}
		if seen[ind.ID] {
			return configErrorf("indicator", ind.ID, "%w", ErrDuplicateID)
		}
		seen[ind.ID] = true
		if err := validateDefinition(ind.Target, ind.Formula, ind.Variables); err != nil {
			return &ConfigError{Kind: "indicator", ID: ind.ID, Err: err}
		}
	}

	columns := make(map[string]bool, len(c.Values))
	for i, v := range c.Values {
		col := v.Column()
		if col == "" {
			return configErrorf("value", fmt.Sprintf("#%d", i), "value_id or value_name: %w", ErrMissingField)
		}
		if columns[col] {
			return configErrorf("value", col, "%w", ErrDuplicateID)
		}
		columns[col] = true
		if v.Category != CostFactor && v.Category != AggregateValue {
			return configErrorf("value", col, "category %q: %w", v.Category, ErrInvalidValue)
		}
		if err := validateDefinition(v.Target, v.Formula, v.Variables); err != nil {
			return &ConfigError{Kind: "value", ID: col, Err: err}
		}
	}
	return nil
}

func validateDefinition(target, formula string, vars []Variable) error {
	if target == "" {
		return fmt.Errorf("target_dataframe: %w", ErrMissingField)
	}
	if formula == "" {
		return fmt.Errorf("formula: %w", ErrMissingField)
	}
	names := make(map[string]bool, len(vars))
	for _, v := range vars {
		if v.Name == "" {
			return fmt.Errorf("variable name: %w", ErrMissingField)
		}
		if names[v.Name] {
			return fmt.Errorf("variable %s: %w", v.Name, ErrDuplicateID)
		}
		names[v.Name] = true
		if v.Spec == nil {
			return fmt.Errorf("variable %s: source: %w", v.Name, ErrMissingField)
		}
		if err := v.Spec.validate(); err != nil {
			return fmt.Errorf("variable %s: %w", v.Name, err)
		}
	}
	return nil
}
