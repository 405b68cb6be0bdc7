package experiment

import "github.com/MikeSquared-Agency/Assay/internal/frame"

// Scalar column names of the experiment table.
const (
	ColumnViolationCount     = "violation_count"
	ColumnIsFeasible         = "is_feasible"
	ColumnEconomicScore      = "economic_score"
	ColumnEnvironmentalScore = "environmental_score"
	ColumnTotalScore         = "total_weighted_score"
	ColumnRankAll            = "rank_all"
	ColumnRank               = "rank"
	ColumnParetoOptimal      = "pareto_optimal"
)

func InThresholdColumn(id string) string { return id + "_in_threshold" }
func NormalizedColumn(id string) string  { return id + "_normalized" }
func WeightedColumn(id string) string    { return id + "_weighted" }

// Stage marks which pipeline steps have produced columns on a table.
type Stage uint8

const (
	StageAggregated Stage = 1 << iota
	StageChecked
	StageNormalized
	StageScored
	StageRanked
	StagePareto
)

// Record is one experiment row.
type Record struct {
	ID     string
	Design frame.Row

	Values         map[string]float64
	InThreshold    map[string]bool
	ViolationCount int
	Feasible       bool
	Normalized     map[string]float64
	Weighted       map[string]float64

	EconomicScore      float64
	EnvironmentalScore float64
	TotalScore         float64
	RankAll            int
	Rank               *int
	ParetoOptimal      bool
}

func (r Record) clone() Record {
	out := r
	out.Design = make(frame.Row, len(r.Design))
	for k, v := range r.Design {
		out.Design[k] = v
	}
	out.Values = cloneFloats(r.Values)
	out.Normalized = cloneFloats(r.Normalized)
	out.Weighted = cloneFloats(r.Weighted)
	out.InThreshold = make(map[string]bool, len(r.InThreshold))
	for k, v := range r.InThreshold {
		out.InThreshold[k] = v
	}
	if r.Rank != nil {
		rank := *r.Rank
		out.Rank = &rank
	}
	return out
}

func cloneFloats(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Table is the experiment-level result. Each stage returns a new Table.
type Table struct {
	DesignColumns []string
	// Indicators holds the successfully aggregated indicator ids in
	// definition order. Later stages only consider these.
	Indicators []string
	Checked    []string
	Normalized []string
	Weighted   []string
	Records    []Record

	stages Stage
}

// Clone deep-copies the table.
func (t *Table) Clone() *Table {
	out := &Table{
		DesignColumns: append([]string(nil), t.DesignColumns...),
		Indicators:    append([]string(nil), t.Indicators...),
		Checked:       append([]string(nil), t.Checked...),
		Normalized:    append([]string(nil), t.Normalized...),
		Weighted:      append([]string(nil), t.Weighted...),
		Records:       make([]Record, len(t.Records)),
		stages:        t.stages,
	}
	for i, r := range t.Records {
		out.Records[i] = r.clone()
	}
	return out
}

func (t *Table) Mark(s Stage)     { t.stages |= s }
func (t *Table) Has(s Stage) bool { return t.stages&s != 0 }
func (t *Table) Len() int         { return len(t.Records) }

// Record returns the experiment with the given id.
func (t *Table) Record(id string) (*Record, bool) {
	for i := range t.Records {
		if t.Records[i].ID == id {
			return &t.Records[i], true
		}
	}
	return nil, false
}

// Feasible returns the ids of feasible experiments in table order.
func (t *Table) Feasible() []string {
	var ids []string
	for _, r := range t.Records {
		if r.Feasible {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// Columns lists the flat column names of the table in their fixed order.
func (t *Table) Columns() []string {
	cols := append([]string(nil), t.DesignColumns...)
	cols = append(cols, t.Indicators...)
	if t.Has(StageChecked) {
		for _, id := range t.Checked {
			cols = append(cols, InThresholdColumn(id))
		}
		cols = append(cols, ColumnViolationCount, ColumnIsFeasible)
	}
	if t.Has(StageNormalized) {
		for _, id := range t.Normalized {
			cols = append(cols, NormalizedColumn(id))
		}
	}
	if t.Has(StageScored) {
		for _, id := range t.Weighted {
			cols = append(cols, WeightedColumn(id))
		}
		cols = append(cols, ColumnEconomicScore, ColumnEnvironmentalScore, ColumnTotalScore)
	}
	if t.Has(StageRanked) {
		cols = append(cols, ColumnRankAll, ColumnRank)
	}
	if t.Has(StagePareto) {
		cols = append(cols, ColumnParetoOptimal)
	}
	return cols
}

// Row flattens record i under the names returned by Columns. A null rank is
// a nil value.
func (t *Table) Row(i int) map[string]any {
	r := t.Records[i]
	row := make(map[string]any, len(t.DesignColumns)+4*len(t.Indicators)+8)
	for _, c := range t.DesignColumns {
		row[c] = r.Design[c]
	}
	row[frame.ExperimentID] = r.ID
	for _, id := range t.Indicators {
		row[id] = r.Values[id]
	}
	if t.Has(StageChecked) {
		for _, id := range t.Checked {
			row[InThresholdColumn(id)] = r.InThreshold[id]
		}
		row[ColumnViolationCount] = r.ViolationCount
		row[ColumnIsFeasible] = r.Feasible
	}
	if t.Has(StageNormalized) {
		for _, id := range t.Normalized {
			row[NormalizedColumn(id)] = r.Normalized[id]
		}
	}
	if t.Has(StageScored) {
		for _, id := range t.Weighted {
			row[WeightedColumn(id)] = r.Weighted[id]
		}
		row[ColumnEconomicScore] = r.EconomicScore
		row[ColumnEnvironmentalScore] = r.EnvironmentalScore
		row[ColumnTotalScore] = r.TotalScore
	}
	if t.Has(StageRanked) {
		row[ColumnRankAll] = r.RankAll
		if r.Rank != nil {
			row[ColumnRank] = *r.Rank
		} else {
			row[ColumnRank] = nil
		}
	}
	if t.Has(StagePareto) {
		row[ColumnParetoOptimal] = r.ParetoOptimal
	}
	return row
}
