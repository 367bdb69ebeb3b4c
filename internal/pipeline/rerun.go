package pipeline

import (
	"context"
	"log/slog"

	"github.com/aird-ai/aird/internal/platform"
	"github.com/aird-ai/aird/internal/report"
	"github.com/aird-ai/aird/internal/requirement"
	"github.com/aird-ai/aird/internal/runner"
)

// RerunOptions selects the assessment whose failing probes get re-executed.
type RerunOptions struct {
	Connection     string
	AssessmentID   string // empty picks the most recent assessment
	ThresholdsPath string
}

// Delta is the before/after verdict of one re-executed probe. A probe whose
// stored result carries no query cannot be re-run and keeps failing.
type Delta struct {
	TestID string `json:"test_id"`
	Factor string `json:"factor"`
	WasL1  bool   `json:"was_l1"`
	WasL2  bool   `json:"was_l2"`
	WasL3  bool   `json:"was_l3"`
	NowL1  bool   `json:"now_l1"`
	NowL2  bool   `json:"now_l2"`
	NowL3  bool   `json:"now_l3"`
	Error  string `json:"error,omitempty"`
}

// Was returns the stored verdict at a level.
func (d Delta) Was(level requirement.Level) bool {
	switch level {
	case requirement.L2:
		return d.WasL2
	case requirement.L3:
		return d.WasL3
	default:
		return d.WasL1
	}
}

// Now returns the re-run verdict at a level.
func (d Delta) Now(level requirement.Level) bool {
	switch level {
	case requirement.L2:
		return d.NowL2
	case requirement.L3:
		return d.NowL3
	default:
		return d.NowL1
	}
}

// Rerun re-executes the probes of a stored assessment that failed at any
// level and reports the level-by-level transitions. Thresholds are resolved
// afresh, so an adjusted override file changes the verdicts. Nothing is
// persisted: a rerun is a spot check, not a new assessment.
func (p *Pipeline) Rerun(ctx context.Context, opts RerunOptions) ([]Delta, error) {
	if opts.Connection == "" {
		return nil, Usagef("connection required for rerun")
	}

	stored, err := p.LoadStored(opts.AssessmentID)
	if err != nil {
		return nil, err
	}
	failed := failedResults(stored.Results)
	if len(failed) == 0 {
		return []Delta{}, nil
	}

	thresholds, err := ResolveThresholds(opts.ThresholdsPath)
	if err != nil {
		return nil, err
	}

	conn, err := p.Platforms.Open(ctx, opts.Connection)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	p.Audit.LogConversation("rerun started", "system", "rerun")

	deltas := make([]Delta, 0, len(failed))
	for _, orig := range failed {
		if err := ctx.Err(); err != nil {
			return deltas, err
		}

		d := Delta{
			TestID: orig.TestID,
			Factor: orig.Factor,
			WasL1:  orig.L1Pass,
			WasL2:  orig.L2Pass,
			WasL3:  orig.L3Pass,
		}
		if orig.Query == "" {
			d.Error = "no query stored"
			deltas = append(deltas, d)
			continue
		}

		rows, err := conn.Query(ctx, orig.Query)
		if err != nil {
			slog.Warn("re-run probe failed", "test", orig.TestID, "error", err)
			d.Error = err.Error()
			deltas = append(deltas, d)
			continue
		}
		var measured *float64
		if len(rows) > 0 && len(rows[0]) > 0 {
			if v, ok := platform.AsFloat(rows[0][0]); ok {
				measured = &v
			}
		}
		d.NowL1, d.NowL2, d.NowL3 = runner.Score(thresholds, orig.Requirement, measured)
		deltas = append(deltas, d)
	}
	return deltas, nil
}

// failedResults keeps the results that failed at one or more levels.
func failedResults(results []report.Result) []report.Result {
	var failed []report.Result
	for _, r := range results {
		if !r.L1Pass || !r.L2Pass || !r.L3Pass {
			failed = append(failed, r)
		}
	}
	return failed
}
