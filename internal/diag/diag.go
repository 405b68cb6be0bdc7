package diag

import "sort"

// Kind classifies a recovered problem. None of these stop a run.
type Kind string

const (
	VariableResolution      Kind = "variable_resolution"
	UnmatchedLookup         Kind = "unmatched_lookup"
	FormulaEvaluation       Kind = "formula_evaluation"
	UnknownTable            Kind = "unknown_table"
	Aggregation             Kind = "aggregation"
	SparseData              Kind = "sparse_data"
	DuplicateRows           Kind = "duplicate_rows"
	UnknownDirection        Kind = "unknown_direction"
	DegenerateNormalization Kind = "degenerate_normalization"
	NonFinite               Kind = "non_finite"
	MissingNormalized       Kind = "missing_normalized"
	EmptyCategory           Kind = "empty_category"
	WeightSum               Kind = "weight_sum"
)

// Entry counts occurrences of one kind for one subject (an indicator, value
// or variable reference).
type Entry struct {
	Kind    Kind   `json:"kind"`
	Subject string `json:"subject"`
	Count   int    `json:"count"`
}

type entryKey struct {
	kind    Kind
	subject string
}

// Report accumulates entries in first-seen order. The zero value is not
// usable; call New.
type Report struct {
	entries []Entry
	index   map[entryKey]int
}

func New() *Report {
	return &Report{index: make(map[entryKey]int)}
}

// Add records n occurrences. n <= 0 is ignored.
func (r *Report) Add(kind Kind, subject string, n int) {
	if n <= 0 {
		return
	}
	k := entryKey{kind, subject}
	if i, ok := r.index[k]; ok {
		r.entries[i].Count += n
		return
	}
	r.index[k] = len(r.entries)
	r.entries = append(r.entries, Entry{Kind: kind, Subject: subject, Count: n})
}

// Merge folds other into r. A nil other is a no-op.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	for _, e := range other.entries {
		r.Add(e.Kind, e.Subject, e.Count)
	}
}

// Entries returns a copy of the recorded entries in first-seen order.
func (r *Report) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns the total occurrences of kind across all subjects.
func (r *Report) Count(kind Kind) int {
	total := 0
	for _, e := range r.entries {
		if e.Kind == kind {
			total += e.Count
		}
	}
	return total
}

// CountFor returns the occurrences of kind for one subject.
func (r *Report) CountFor(kind Kind, subject string) int {
	if i, ok := r.index[entryKey{kind, subject}]; ok {
		return r.entries[i].Count
	}
	return 0
}

// Totals sums counts per kind, keyed and sorted by kind name.
func (r *Report) Totals() []Entry {
	sums := make(map[Kind]int)
	for _, e := range r.entries {
		sums[e.Kind] += e.Count
	}
	out := make([]Entry, 0, len(sums))
	for k, n := range sums {
		out = append(out, Entry{Kind: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

func (r *Report) Len() int { return len(r.entries) }
