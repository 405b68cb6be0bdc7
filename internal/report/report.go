// Package report builds the human-readable feasibility and ranking
// summaries of a finished experiment table.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/MikeSquared-Agency/Assay/internal/catalog"
	"github.com/MikeSquared-Agency/Assay/internal/experiment"
	"github.com/MikeSquared-Agency/Assay/internal/scoring"
)

const (
	DefaultSeparatorWidth = 70
	DefaultTopN           = 5
)

// Options controls summary layout.
type Options struct {
	SeparatorWidth int
	TopN           int
	Precision      int
}

func (o Options) withDefaults() Options {
	if o.SeparatorWidth <= 0 {
		o.SeparatorWidth = DefaultSeparatorWidth
	}
	if o.TopN <= 0 {
		o.TopN = DefaultTopN
	}
	if o.Precision < 0 {
		o.Precision = scoring.DefaultPrecision
	}
	return o
}

// Violation is the number of experiments outside one indicator's threshold.
type Violation struct {
	Indicator string `json:"indicator"`
	Count     int    `json:"count"`
}

// FeasibilitySummary describes how many experiments passed every threshold.
type FeasibilitySummary struct {
	Total      int         `json:"total"`
	Feasible   int         `json:"feasible"`
	Infeasible int         `json:"infeasible"`
	Checked    bool        `json:"checked"`
	Violations []Violation `json:"violations"`
}

// Feasibility summarizes a checked table.
func Feasibility(t *experiment.Table) FeasibilitySummary {
	s := FeasibilitySummary{Total: t.Len(), Checked: len(t.Checked) > 0}
	s.Feasible = len(t.Feasible())
	s.Infeasible = s.Total - s.Feasible
	for _, id := range t.Checked {
		v := Violation{Indicator: id}
		for _, rec := range t.Records {
			if !rec.InThreshold[id] {
				v.Count++
			}
		}
		s.Violations = append(s.Violations, v)
	}
	return s
}

// Write renders the summary as text.
func (s FeasibilitySummary) Write(w io.Writer, opts Options) error {
	opts = opts.withDefaults()
	p := &printer{w: w}
	p.rule(opts.SeparatorWidth)
	p.line("  FEASIBILITY SUMMARY")
	p.rule(opts.SeparatorWidth)
	p.line("\nTotal Experiments: %d", s.Total)
	p.line("Feasible Experiments: %d (%s)", s.Feasible, percent(s.Feasible, s.Total))
	p.line("Infeasible Experiments: %d (%s)", s.Infeasible, percent(s.Infeasible, s.Total))
	p.line("\nThreshold Violations by Indicator:")
	if !s.Checked {
		p.line("  No threshold checks were applied")
	}
	for _, v := range s.Violations {
		p.line("  %s: %d violations (%s)", v.Indicator, v.Count, percent(v.Count, s.Total))
	}
	p.line("")
	p.rule(opts.SeparatorWidth)
	return p.err
}

// Entry is one experiment line of the ranking summary.
type Entry struct {
	ExperimentID   string  `json:"exp_id"`
	Score          float64 `json:"total_weighted_score"`
	RankAll        int     `json:"rank_all"`
	Rank           *int    `json:"rank"`
	ViolationCount int     `json:"violation_count"`
	Feasible       bool    `json:"is_feasible"`
	ParetoOptimal  bool    `json:"pareto_optimal"`
}

// ScoreStats describes the total scores of the feasible experiments. Std is
// the sample standard deviation, 0 for a single experiment.
type ScoreStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// RankingSummary is the weighting and ranking overview of a run.
type RankingSummary struct {
	Indicators     []IndicatorWeight `json:"indicators"`
	TotalWeight    float64           `json:"total_weight"`
	Total          int               `json:"total"`
	Feasible       int               `json:"feasible"`
	TopAll         []Entry           `json:"top_all"`
	TopFeasible    []Entry           `json:"top_feasible"`
	BottomFeasible []Entry           `json:"bottom_feasible,omitempty"`
	Infeasible     []Entry           `json:"infeasible"`
	Stats          *ScoreStats       `json:"stats,omitempty"`
	FrontierSize   int               `json:"frontier_size"`
	Pareto         bool              `json:"pareto"`
}

// IndicatorWeight is one row of the weights table.
type IndicatorWeight struct {
	ID       string           `json:"indicator"`
	Name     string           `json:"name"`
	Category catalog.Category `json:"category"`
	Weight   float64          `json:"weight"`
}

// Ranking summarizes a ranked table. topN bounds the top and bottom lists.
func Ranking(t *experiment.Table, indicators []catalog.Indicator, topN int) RankingSummary {
	if topN <= 0 {
		topN = DefaultTopN
	}
	s := RankingSummary{
		TotalWeight: scoring.WeightsFrom(indicators).Sum(),
		Total:       t.Len(),
		Pareto:      t.Has(experiment.StagePareto),
	}
	for _, ind := range indicators {
		s.Indicators = append(s.Indicators, IndicatorWeight{ID: ind.ID, Name: ind.Name, Category: ind.Category, Weight: ind.Weight})
	}

	all := make([]Entry, 0, t.Len())
	var feasible, infeasible []Entry
	for _, rec := range t.Records {
		e := Entry{
			ExperimentID:   rec.ID,
			Score:          rec.TotalScore,
			RankAll:        rec.RankAll,
			Rank:           rec.Rank,
			ViolationCount: rec.ViolationCount,
			Feasible:       rec.Feasible,
			ParetoOptimal:  rec.ParetoOptimal,
		}
		all = append(all, e)
		if rec.ParetoOptimal {
			s.FrontierSize++
		}
		if e.Feasible {
			feasible = append(feasible, e)
		} else {
			infeasible = append(infeasible, e)
		}
	}
	byRankAll(all)
	byRankAll(feasible)
	byRankAll(infeasible)

	s.Feasible = len(feasible)
	s.TopAll = head(all, topN)
	s.TopFeasible = head(feasible, topN)
	if len(feasible) >= topN {
		s.BottomFeasible = feasible[len(feasible)-topN:]
	}
	s.Infeasible = infeasible

	if len(feasible) > 0 {
		scores := make([]float64, len(feasible))
		for i, e := range feasible {
			scores[i] = e.Score
		}
		mean, std := stat.MeanStdDev(scores, nil)
		if len(scores) < 2 {
			std = 0
		}
		s.Stats = &ScoreStats{Mean: mean, Std: std, Min: floats.Min(scores), Max: floats.Max(scores)}
	}
	return s
}

// Write renders the summary as text.
func (s RankingSummary) Write(w io.Writer, opts Options) error {
	opts = opts.withDefaults()
	prec := opts.Precision
	p := &printer{w: w}
	p.rule(opts.SeparatorWidth)
	p.line("  RANKING & WEIGHTING SUMMARY")
	p.rule(opts.SeparatorWidth)

	p.line("\nIndicator Weights:")
	for _, iw := range s.Indicators {
		p.line("  %s (%s, %s): %.2f (%.0f%%)", iw.ID, iw.Name, iw.Category, iw.Weight, 100*iw.Weight)
	}
	p.line("  Total: %.2f (%.0f%%)", s.TotalWeight, 100*s.TotalWeight)

	if s.Total == 0 {
		p.line("\nNo experiments data available")
		p.rule(opts.SeparatorWidth)
		return p.err
	}

	p.line("\nALL Experiments Ranked: %d", s.Total)
	p.line("\nTop %d Experiments (All):", opts.TopN)
	for _, e := range s.TopAll {
		flag := "OK"
		if !e.Feasible {
			flag = "INFEASIBLE"
		}
		p.line("  Rank %d: %s [%s] (score: %.*f)", e.RankAll, e.ExperimentID, flag, prec, e.Score)
	}

	p.line("\nFeasible Experiments ONLY: %d/%d", s.Feasible, s.Total)
	if s.Feasible == 0 {
		p.line("\nNo feasible experiments found")
	} else {
		p.line("\nTop %d Feasible Experiments:", opts.TopN)
		for _, e := range s.TopFeasible {
			p.line("  Rank %d: %s (score: %.*f, rank_all: %d)", rankOf(e), e.ExperimentID, prec, e.Score, e.RankAll)
		}
		if len(s.BottomFeasible) > 0 {
			p.line("\nBottom %d Feasible Experiments:", opts.TopN)
			for _, e := range s.BottomFeasible {
				p.line("  Rank %d: %s (score: %.*f, rank_all: %d)", rankOf(e), e.ExperimentID, prec, e.Score, e.RankAll)
			}
		}
		if s.Stats != nil {
			p.line("\nScore Statistics (Feasible):")
			p.line("  Mean: %.*f", prec, s.Stats.Mean)
			p.line("  Std: %.*f", prec, s.Stats.Std)
			p.line("  Min: %.*f", prec, s.Stats.Min)
			p.line("  Max: %.*f", prec, s.Stats.Max)
		}
	}

	if len(s.Infeasible) > 0 {
		p.line("\nInfeasible Experiments: %d", len(s.Infeasible))
		for _, e := range s.Infeasible {
			p.line("  Rank_all %d: %s (score: %.*f, violations: %d)", e.RankAll, e.ExperimentID, prec, e.Score, e.ViolationCount)
		}
	}
	if s.Pareto {
		p.line("\nPareto Frontier: %d experiments", s.FrontierSize)
	}
	p.line("")
	p.rule(opts.SeparatorWidth)
	return p.err
}

func byRankAll(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].RankAll < entries[j].RankAll })
}

func head(entries []Entry, n int) []Entry {
	if len(entries) > n {
		return entries[:n]
	}
	return entries
}

func rankOf(e Entry) int {
	if e.Rank == nil {
		return 0
	}
	return *e.Rank
}

func percent(n, total int) string {
	if total == 0 {
		return "N/A%"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(n)/float64(total))
}

// printer keeps the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) rule(width int) {
	p.line("%s", strings.Repeat("=", width))
}
