package catalog

import "strings"

type Direction string

const (
	Minimize Direction = "minimize"
	Maximize Direction = "maximize"
)

// Known reports whether d is one of the two supported directions.
func (d Direction) Known() bool { return d == Minimize || d == Maximize }

type Aggregation string

const (
	AggregateSum     Aggregation = "sum"
	AggregateAverage Aggregation = "average"
	AggregateMean    Aggregation = "mean"
	AggregateNone    Aggregation = "none"
)

type Category string

const (
	Economic      Category = "economic"
	Environmental Category = "environmental"
)

type ValueCategory string

const (
	CostFactor     ValueCategory = "cost_factor"
	AggregateValue ValueCategory = "aggregate"
)

// Special derived financial values, identified by name rather than id.
const (
	Revenue  = "REVENUE"
	CostsFix = "COSTS_FIX"
	CostsVar = "COSTS_VAR"
	Profit   = "PROFIT"
)

// Variable binds a formula name to where its value comes from.
type Variable struct {
	Name string
	Spec VariableSpec
}

// Indicator is a weighted, thresholded, directional metric used for ranking.
type Indicator struct {
	ID          string
	Name        string
	Target      string
	Aggregation Aggregation
	Direction   Direction
	Threshold   float64
	Weight      float64
	Category    Category
	Formula     string
	Variables   []Variable
}

// Value is a descriptive derived quantity computed per entity row.
type Value struct {
	ID        string
	Name      string
	Target    string
	Category  ValueCategory
	Formula   string
	Variables []Variable
	Special   bool
}

// Column is the name of the column the value is written to.
func (v Value) Column() string {
	if v.ID != "" {
		return v.ID
	}
	return v.Name
}

// Catalog holds the ordered indicator and value definitions of one run.
type Catalog struct {
	Indicators []Indicator
	Values     []Value
}

// New validates the definitions and returns a catalog. Any problem is a
// *ConfigError.
func New(indicators []Indicator, values []Value) (*Catalog, error) {
	c := &Catalog{Indicators: indicators, Values: values}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) Indicator(id string) (Indicator, bool) {
	for _, ind := range c.Indicators {
		if ind.ID == id {
			return ind, true
		}
	}
	return Indicator{}, false
}

// IndicatorIDs returns the ids in definition order.
func (c *Catalog) IndicatorIDs() []string {
	ids := make([]string, len(c.Indicators))
	for i, ind := range c.Indicators {
		ids[i] = ind.ID
	}
	return ids
}

// SplitPath turns "cost_rates.running.power_rating" into its segments.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}
