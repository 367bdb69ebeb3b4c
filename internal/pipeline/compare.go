package pipeline

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/aird-ai/aird/internal/report"
)

// CompareOptions shapes a side-by-side table comparison over one connection.
type CompareOptions struct {
	Connection     string
	Tables         []string // comma-separated values are expanded
	Suite          string
	ThresholdsPath string
}

// TableReport pairs a table name with the report of its dedicated run.
type TableReport struct {
	Table  string
	Report *report.Report
}

// Compare assesses each named table in isolation against the same
// connection. Nothing is persisted: the comparison is a view, not a record.
func (p *Pipeline) Compare(ctx context.Context, opts CompareOptions) ([]TableReport, error) {
	if opts.Connection == "" {
		return nil, Usagef("connection required for compare")
	}
	tables := splitList(opts.Tables)
	if len(tables) < 2 {
		return nil, Usagef("compare needs at least two comma-separated tables (e.g. --tables t1,t2)")
	}

	out := make([]TableReport, 0, len(tables))
	for _, table := range tables {
		outcome, err := p.Assess(ctx, AssessOptions{
			Connection:     opts.Connection,
			Suite:          opts.Suite,
			Tables:         []string{table},
			ThresholdsPath: opts.ThresholdsPath,
			NoSave:         true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to assess table %s: %w", table, err)
		}
		out = append(out, TableReport{Table: table, Report: outcome.Report})
	}
	return out, nil
}

// FactorStats is one factor's pass counts inside one report, the unit of the
// comparison and benchmark matrices.
type FactorStats struct {
	Total int
	L1    int
	L2    int
	L3    int
}

// Pct returns the pass percentage at a level, rounded to one decimal. An
// empty cell reads 0.
func (s FactorStats) Pct(pass int) float64 {
	if s.Total == 0 {
		return 0
	}
	return round1(100 * float64(pass) / float64(s.Total))
}

// ExtractFactorStats tallies a report's results by factor.
func ExtractFactorStats(rep *report.Report) map[string]FactorStats {
	stats := make(map[string]FactorStats)
	if rep == nil {
		return stats
	}
	for _, r := range rep.Results {
		factor := r.Factor
		if factor == "" {
			factor = "unknown"
		}
		s := stats[factor]
		s.Total++
		if r.L1Pass {
			s.L1++
		}
		if r.L2Pass {
			s.L2++
		}
		if r.L3Pass {
			s.L3++
		}
		stats[factor] = s
	}
	return stats
}

// CanonicalFactors is the rendering order of the six assessment factors.
// Factors outside the list sort after it alphabetically.
var CanonicalFactors = []string{"clean", "contextual", "consumable", "current", "correlated", "compliant"}

// OrderFactors returns the union of factors across the stat maps: canonical
// factors first in their fixed order, then any others sorted by name.
func OrderFactors(all ...map[string]FactorStats) []string {
	var out []string
	seen := make(map[string]bool)
	for _, f := range CanonicalFactors {
		for _, stats := range all {
			if _, ok := stats[f]; ok {
				out = append(out, f)
				seen[f] = true
				break
			}
		}
	}
	var extra []string
	for _, stats := range all {
		for f := range stats {
			if !seen[f] {
				seen[f] = true
				extra = append(extra, f)
			}
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
