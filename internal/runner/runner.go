// Package runner executes an expanded probe suite against one connection and
// scores every measurement at all three workload levels.
package runner

import (
	"context"
	"fmt"

	"github.com/aird-ai/aird/internal/discovery"
	"github.com/aird-ai/aird/internal/platform"
	"github.com/aird-ai/aird/internal/report"
	"github.com/aird-ai/aird/internal/requirement"
	"github.com/aird-ai/aird/internal/suite"
)

// QueryAuditor records successfully executed probe queries. history.AuditSink
// satisfies it.
type QueryAuditor interface {
	LogQuery(query, target, factor, req string)
}

// ProgressFunc is called synchronously after each probe completes, with the
// probe's position in the run and its scored result.
type ProgressFunc func(index, total int, res report.Result)

// Options selects and shapes one run.
type Options struct {
	// Suite names the probe suite; empty or "auto" resolves to the
	// adapter's default.
	Suite string
	// Factor, when set, keeps only probes of that factor.
	Factor string
	// DryRun expands and previews without executing anything.
	DryRun bool
	// Thresholds scores the measurements; nil means registry defaults.
	Thresholds *requirement.Thresholds
	Audit      QueryAuditor
	Progress   ProgressFunc
}

// PreviewEntry summarises one planned probe of a dry run.
type PreviewEntry struct {
	ID          string `json:"id"`
	Factor      string `json:"factor"`
	Requirement string `json:"requirement"`
	TargetType  string `json:"target_type"`
}

// Output is the artifact of one run.
type Output struct {
	Results   []report.Result `json:"results"`
	DryRun    bool            `json:"dry_run"`
	TestCount int             `json:"test_count"`
	Preview   []PreviewEntry  `json:"preview,omitempty"`
}

// Run expands the suite over the inventory and executes each probe in order.
// A probe that fails to execute is recorded as a failing result carrying the
// error, and the run continues. Cancellation stops the run and returns the
// results collected so far alongside the context error.
func Run(ctx context.Context, conn *platform.Conn, suites *suite.Registry, inv *discovery.Inventory, opts Options) (*Output, error) {
	name := opts.Suite
	if name == "" || name == "auto" {
		name = conn.Adapter().DefaultSuite
	}

	defs, err := suites.Resolve(name)
	if err != nil {
		return nil, err
	}

	thresholds := opts.Thresholds
	if thresholds == nil {
		thresholds = requirement.Default().Thresholds(nil)
	}

	tests := suite.Expand(defs, inv, conn.Quote)
	tests = suite.FilterFactor(tests, opts.Factor)

	if opts.DryRun {
		preview := make([]PreviewEntry, 0, len(tests))
		for _, t := range tests {
			preview = append(preview, PreviewEntry{
				ID:          t.ID,
				Factor:      t.Factor,
				Requirement: t.Requirement,
				TargetType:  t.TargetType,
			})
		}
		return &Output{Results: []report.Result{}, DryRun: true, TestCount: len(tests), Preview: preview}, nil
	}

	results := make([]report.Result, 0, len(tests))
	for i, t := range tests {
		if err := ctx.Err(); err != nil {
			return &Output{Results: results, TestCount: len(results)}, fmt.Errorf("run cancelled after %d of %d probes: %w", len(results), len(tests), err)
		}

		res := executeProbe(ctx, conn, t, thresholds, opts.Audit)
		results = append(results, res)
		if opts.Progress != nil {
			opts.Progress(i, len(tests), res)
		}
	}

	return &Output{Results: results, TestCount: len(results)}, nil
}

func executeProbe(ctx context.Context, conn *platform.Conn, t suite.TestDef, thresholds *requirement.Thresholds, audit QueryAuditor) report.Result {
	res := report.Result{
		TestID:      t.ID,
		Factor:      t.Factor,
		Requirement: t.Requirement,
		TargetType:  t.TargetType,
		Threshold:   thresholds.Tiers(t.Requirement),
		Direction:   thresholds.Direction(t.Requirement),
		Query:       t.Query,
	}

	rows, err := conn.Query(ctx, t.Query)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if audit != nil {
		audit.LogQuery(t.Query, t.TargetType, t.Factor, t.Requirement)
	}

	// probes yield a single scalar: first column of the first row
	if len(rows) > 0 && len(rows[0]) > 0 {
		if v, ok := platform.AsFloat(rows[0][0]); ok {
			res.MeasuredValue = &v
		}
	}

	res.L1Pass = thresholds.Passes(t.Requirement, res.MeasuredValue, requirement.L1)
	res.L2Pass = thresholds.Passes(t.Requirement, res.MeasuredValue, requirement.L2)
	res.L3Pass = thresholds.Passes(t.Requirement, res.MeasuredValue, requirement.L3)
	return res
}

// Score rebuilds the verdict triple for a measured value, used when a stored
// probe is re-executed outside a full run.
func Score(thresholds *requirement.Thresholds, req string, v *float64) (l1, l2, l3 bool) {
	return thresholds.Passes(req, v, requirement.L1),
		thresholds.Passes(req, v, requirement.L2),
		thresholds.Passes(req, v, requirement.L3)
}
