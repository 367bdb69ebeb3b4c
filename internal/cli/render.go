package cli

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/aird-ai/aird/internal/history"
	"github.com/aird-ai/aird/internal/pipeline"
	"github.com/aird-ai/aird/internal/remediation"
	"github.com/aird-ai/aird/internal/report"
	"github.com/aird-ai/aird/internal/requirement"
	"github.com/aird-ai/aird/internal/runner"
)

func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

func passBadge(passed bool) string {
	if passed {
		return color.GreenString("PASS")
	}
	return color.RedString("FAIL")
}

// pctText colours a percentage by health: green from 90, yellow from 70,
// red below.
func pctText(pct float64, text string) string {
	switch {
	case pct >= 90:
		return color.GreenString("%s", text)
	case pct >= 70:
		return color.YellowString("%s", text)
	default:
		return color.RedString("%s", text)
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func fmtMeasured(v *float64) string {
	if v == nil {
		return "—"
	}
	if *v >= 0 && *v <= 1 {
		return fmt.Sprintf("%.2f%%", *v*100)
	}
	return fmt.Sprintf("%.4g", *v)
}

func levelStats(s report.Summary, level requirement.Level) (pass int, pct float64) {
	switch level {
	case requirement.L2:
		return s.L2Pass, s.L2Pct
	case requirement.L3:
		return s.L3Pass, s.L3Pct
	default:
		return s.L1Pass, s.L1Pct
	}
}

func factorLevelStats(fs report.FactorSummary, level requirement.Level) (pass int, pct float64) {
	switch level {
	case requirement.L2:
		return fs.L2Pass, fs.L2Pct
	case requirement.L3:
		return fs.L3Pass, fs.L3Pct
	default:
		return fs.L1Pass, fs.L1Pct
	}
}

func readinessBar(pct float64) string {
	const width = 20
	filled := int(math.Round(pct / 100 * width))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return pctText(pct, strings.Repeat("█", filled)) + strings.Repeat("░", width-filled)
}

// renderReport writes the coloured terminal form of an assessment report:
// a readiness bar per level, one table per factor, survey results when
// present, and a footer with the assessment metadata.
func renderReport(w io.Writer, rep *report.Report) {
	target, hasTarget := requirement.WorkloadLevel(rep.TargetWorkload)
	total := rep.Summary.TotalTests

	fmt.Fprintln(w)
	fmt.Fprintln(w, color.New(color.Bold).Sprint("AI-Ready Data Assessment"))
	fmt.Fprintln(w)
	for _, level := range requirement.AllLevels {
		pass, pct := levelStats(rep.Summary, level)
		marker := ""
		if hasTarget && level == target {
			marker = "  ◀ target"
		}
		label := report.WorkloadLabel(string(level))
		fmt.Fprintf(w, "  %-16s %s  %s  (%d/%d)%s\n",
			label, readinessBar(pct), pctText(pct, fmt.Sprintf("%6.1f%%", pct)), pass, total, marker)
	}
	fmt.Fprintf(w, "\n  Total tests: %d\n", total)
	if rep.TargetWorkload != "" {
		fmt.Fprintf(w, "  Target workload: %s\n", report.WorkloadLabel(rep.TargetWorkload))
	}

	summaries := make(map[string]report.FactorSummary, len(rep.FactorSummary))
	for _, fs := range rep.FactorSummary {
		summaries[fs.Factor] = fs
	}
	byFactor := make(map[string][]report.Result)
	for _, r := range rep.Results {
		factor := r.Factor
		if factor == "" {
			factor = "unknown"
		}
		byFactor[factor] = append(byFactor[factor], r)
	}
	factors := make([]string, 0, len(byFactor))
	for f := range byFactor {
		factors = append(factors, f)
	}
	sort.Strings(factors)

	for _, f := range factors {
		renderFactorSection(w, f, byFactor[f], summaries[f], target, hasTarget)
	}

	if len(rep.QuestionResults) > 0 {
		fmt.Fprintf(w, "\n%s\n", color.New(color.Bold).Sprint("Survey Results"))
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "FACTOR\tREQUIREMENT\tQUESTION\tANSWER\tRESULT")
		for _, q := range rep.QuestionResults {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				titleCase(q.Factor), q.Requirement, truncate(q.QuestionText, 48), truncate(q.Answer, 32), passBadge(q.L1Pass))
		}
		_ = tw.Flush()
	}

	fmt.Fprintln(w)
	if rep.AssessmentID != "" {
		fmt.Fprintf(w, "Assessment ID: %s\n", rep.AssessmentID)
	}
	if rep.CreatedAt != "" {
		fmt.Fprintf(w, "Created: %s\n", rep.CreatedAt)
	}
	if rep.ConnectionFingerprint != "" {
		fmt.Fprintf(w, "Connection: %s\n", rep.ConnectionFingerprint)
	}
	fmt.Fprintln(w, "\nTip: run `aird history` to list past assessments, `aird diff` to compare two runs.")
}

func renderFactorSection(w io.Writer, factor string, results []report.Result, fs report.FactorSummary, target requirement.Level, hasTarget bool) {
	var subtitle string
	if hasTarget {
		pass, pct := factorLevelStats(fs, target)
		subtitle = fmt.Sprintf("%s: %d/%d (%s)", report.WorkloadLabel(string(target)), pass, fs.TotalTests, formatPct(pct))
	} else {
		parts := make([]string, 0, 3)
		for _, level := range requirement.AllLevels {
			pass, pct := factorLevelStats(fs, level)
			parts = append(parts, fmt.Sprintf("%s: %d/%d (%s)", strings.ToUpper(string(level)), pass, fs.TotalTests, formatPct(pct)))
		}
		subtitle = strings.Join(parts, "  |  ")
	}
	fmt.Fprintf(w, "\n%s  %s\n", color.New(color.Bold).Sprint(titleCase(factor)), subtitle)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if hasTarget {
		fmt.Fprintln(tw, "TEST\tREQUIREMENT\tMEASURED\tTHRESHOLD\tRESULT")
		for _, r := range results {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%s\n",
				truncate(r.TestID, 40), r.Requirement, fmtMeasured(r.MeasuredValue), r.Threshold.At(target), passBadge(r.PassAt(target)))
			if r.Error != "" {
				fmt.Fprintf(tw, "\t%s\t\t\t\n", color.RedString("error: %s", truncate(r.Error, 60)))
			}
		}
	} else {
		fmt.Fprintln(tw, "TEST\tREQUIREMENT\tMEASURED\tTHRESHOLD (L1/L2/L3)\tL1\tL2\tL3")
		for _, r := range results {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%v / %v / %v\t%s\t%s\t%s\n",
				truncate(r.TestID, 40), r.Requirement, fmtMeasured(r.MeasuredValue),
				r.Threshold.L1, r.Threshold.L2, r.Threshold.L3,
				passBadge(r.L1Pass), passBadge(r.L2Pass), passBadge(r.L3Pass))
			if r.Error != "" {
				fmt.Fprintf(tw, "\t%s\t\t\t\t\t\n", color.RedString("error: %s", truncate(r.Error, 60)))
			}
		}
	}
	_ = tw.Flush()
}

// renderHistoryTable is the terminal form of a history listing.
func renderHistoryTable(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No assessments found.")
		return
	}
	fmt.Fprintln(w, color.New(color.Bold).Sprint("Assessment History"))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tL1%\tL2%\tL3%\tCONNECTION\tPRODUCT")
	fmt.Fprintln(tw, "--\t----\t---\t---\t---\t----------\t-------")
	for _, e := range entries {
		id := e.ID
		if len(id) > 8 {
			id = id[:8]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			id, e.CreatedAt,
			formatPct(e.Summary.L1Pct), formatPct(e.Summary.L2Pct), formatPct(e.Summary.L3Pct),
			e.Fingerprint, e.DataProduct)
	}
	_ = tw.Flush()
}

// writeHistoryPlain is the pipe-friendly form: one tab-separated line per
// entry with the full assessment id.
func writeHistoryPlain(w io.Writer, entries []history.Entry) {
	for _, e := range entries {
		line := fmt.Sprintf("%s\t%s\tL1:%s\tL2:%s\tL3:%s\t%s",
			e.ID, e.CreatedAt,
			formatPct(e.Summary.L1Pct), formatPct(e.Summary.L2Pct), formatPct(e.Summary.L3Pct),
			e.Fingerprint)
		if e.DataProduct != "" {
			line += "\t" + e.DataProduct
		}
		fmt.Fprintln(w, line)
	}
}

func diffCell(left, right float64) string {
	text := fmt.Sprintf("%s → %s", formatPct(left), formatPct(right))
	switch {
	case right > left:
		return color.GreenString("%s", text)
	case right < left:
		return color.RedString("%s", text)
	default:
		return color.YellowString("%s", text)
	}
}

// renderDiff is the terminal form of a two-assessment summary diff.
func renderDiff(w io.Writer, left, right report.Summary) {
	fmt.Fprintln(w, color.New(color.Bold).Sprint("Assessment Diff"))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LEVEL\tLEFT\tRIGHT\tCHANGE")
	for _, level := range requirement.AllLevels {
		_, lp := levelStats(left, level)
		_, rp := levelStats(right, level)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", strings.ToUpper(string(level)), formatPct(lp), formatPct(rp), diffCell(lp, rp))
	}
	_ = tw.Flush()
}

func writeDiffPlain(w io.Writer, left, right report.Summary) {
	fmt.Fprintf(w, "Left:  L1=%s L2=%s L3=%s\n", formatPct(left.L1Pct), formatPct(left.L2Pct), formatPct(left.L3Pct))
	fmt.Fprintf(w, "Right: L1=%s L2=%s L3=%s\n", formatPct(right.L1Pct), formatPct(right.L2Pct), formatPct(right.L3Pct))
}

// formatPreview builds the dry-run summary: per-factor probe counts with
// their requirement keys, a handful of sample tests, and the reminder that
// nothing ran.
func formatPreview(connection string, testCount int, preview []runner.PreviewEntry) string {
	var b strings.Builder
	header := fmt.Sprintf("Dry-run preview for: %s", connection)
	width := len(header)
	if width < 40 {
		width = 40
	}
	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("=", width) + "\n\n")

	type factorInfo struct {
		count        int
		requirements map[string]struct{}
	}
	byFactor := make(map[string]*factorInfo)
	for _, t := range preview {
		factor := t.Factor
		if factor == "" {
			factor = "unknown"
		}
		info := byFactor[factor]
		if info == nil {
			info = &factorInfo{requirements: make(map[string]struct{})}
			byFactor[factor] = info
		}
		info.count++
		info.requirements[t.Requirement] = struct{}{}
	}
	factors := make([]string, 0, len(byFactor))
	for f := range byFactor {
		factors = append(factors, f)
	}
	sort.Strings(factors)

	factorCol := len("Factor")
	for _, f := range factors {
		if len(f) > factorCol {
			factorCol = len(f)
		}
	}
	testsCol := len("Tests")
	if n := len(strconv.Itoa(testCount)); n > testsCol {
		testsCol = n
	}

	sep := fmt.Sprintf("%s  %s   %s", strings.Repeat("─", factorCol), strings.Repeat("─", testsCol), strings.Repeat("─", 16))
	b.WriteString(fmt.Sprintf("%-*s  %*s   Requirement Keys\n", factorCol, "Factor", testsCol, "Tests"))
	b.WriteString(sep + "\n")
	for _, f := range factors {
		info := byFactor[f]
		reqs := make([]string, 0, len(info.requirements))
		for r := range info.requirements {
			reqs = append(reqs, r)
		}
		sort.Strings(reqs)
		b.WriteString(fmt.Sprintf("%-*s  %*d   %s\n", factorCol, f, testsCol, info.count, strings.Join(reqs, ", ")))
	}
	b.WriteString(sep + "\n")
	b.WriteString(fmt.Sprintf("%-*s  %*d\n\n", factorCol, "Total", testsCol, testCount))

	if len(preview) > 0 {
		b.WriteString("Sample tests:\n")
		for _, t := range preview[:min(len(preview), 5)] {
			b.WriteString(fmt.Sprintf("  • %s (%s/%s) — %s\n", t.ID, t.Factor, t.Requirement, t.TargetType))
		}
		if len(preview) > 5 {
			b.WriteString(fmt.Sprintf("  ... and %d more\n", len(preview)-5))
		}
		b.WriteString("\n")
	}

	b.WriteString("No queries will be executed. Run without --dry-run to assess.")
	return b.String()
}

func twoWayCell(v, other float64) string {
	text := formatPct(v)
	switch {
	case v > other:
		return color.GreenString("%s", text)
	case v < other:
		return color.RedString("%s", text)
	default:
		return color.YellowString("%s", text)
	}
}

// renderCompare is the terminal form of a two-table comparison: one row per
// factor, each cell coloured against its counterpart.
func renderCompare(w io.Writer, reports []pipeline.TableReport) {
	if len(reports) < 2 {
		return
	}
	t1, t2 := reports[0], reports[1]
	s1 := pipeline.ExtractFactorStats(t1.Report)
	s2 := pipeline.ExtractFactorStats(t2.Report)
	factors := pipeline.OrderFactors(s1, s2)

	fmt.Fprintln(w, color.New(color.Bold).Sprintf("Compare: %s vs %s", t1.Table, t2.Table))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "FACTOR\t%s L1%%\t%s L1%%\t%s L2%%\t%s L2%%\n", t1.Table, t2.Table, t1.Table, t2.Table)
	for _, f := range factors {
		a, b := s1[f], s2[f]
		l1a, l1b := a.Pct(a.L1), b.Pct(b.L1)
		l2a, l2b := a.Pct(a.L2), b.Pct(b.L2)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", f,
			twoWayCell(l1a, l1b), twoWayCell(l1b, l1a),
			twoWayCell(l2a, l2b), twoWayCell(l2b, l2a))
	}
	_ = tw.Flush()
}

func writeComparePlain(w io.Writer, reports []pipeline.TableReport) {
	if len(reports) < 2 {
		return
	}
	t1, t2 := reports[0], reports[1]
	s1 := pipeline.ExtractFactorStats(t1.Report)
	s2 := pipeline.ExtractFactorStats(t2.Report)
	factors := pipeline.OrderFactors(s1, s2)

	header := fmt.Sprintf("%-15s %10s %10s %10s %10s", "Factor", t1.Table+" L1%", t2.Table+" L1%", t1.Table+" L2%", t2.Table+" L2%")
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)))
	for _, f := range factors {
		a, b := s1[f], s2[f]
		fmt.Fprintf(w, "%-15s %10s %10s %10s %10s\n", f,
			formatPct(a.Pct(a.L1)), formatPct(b.Pct(b.L1)),
			formatPct(a.Pct(a.L2)), formatPct(b.Pct(b.L2)))
	}
}

// nWayCell colours a benchmark cell by rank: best green, worst red, ties
// and the middle yellow.
func nWayCell(v float64, all []float64) string {
	text := formatPct(v)
	best, worst := all[0], all[0]
	for _, x := range all[1:] {
		if x > best {
			best = x
		}
		if x < worst {
			worst = x
		}
	}
	switch {
	case best == worst:
		return color.YellowString("%s", text)
	case v == best:
		return color.GreenString("%s", text)
	case v == worst:
		return color.RedString("%s", text)
	default:
		return color.YellowString("%s", text)
	}
}

// renderBenchmark is the terminal form of the benchmark matrix plus the
// winner line and any per-connection failures.
func renderBenchmark(w io.Writer, out *pipeline.BenchmarkOutcome) {
	labels := make([]string, len(out.Datasets))
	for i, d := range out.Datasets {
		labels[i] = d.Label
	}
	rows, overall := out.Matrix()

	fmt.Fprintln(w, color.New(color.Bold).Sprintf("Benchmark: %s", strings.Join(labels, " vs ")))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := "FACTOR"
	for _, label := range labels {
		header += fmt.Sprintf("\t%s L1%%\t%s L2%%", label, label)
	}
	fmt.Fprintln(tw, header)
	for _, row := range rows {
		line := row.Factor
		for i := range labels {
			line += "\t" + nWayCell(row.L1[i], row.L1) + "\t" + nWayCell(row.L2[i], row.L2)
		}
		fmt.Fprintln(tw, line)
	}
	line := color.New(color.Bold).Sprint("OVERALL")
	for i := range labels {
		line += "\t" + nWayCell(overall.L1[i], overall.L1) + "\t" + nWayCell(overall.L2[i], overall.L2)
	}
	fmt.Fprintln(tw, line)
	_ = tw.Flush()

	if i := out.Winner(); i >= 0 {
		fmt.Fprintf(w, "🏆 Best overall (L1): %s (%s)\n", labels[i], formatPct(overall.L1[i]))
	}
	for _, d := range out.Datasets {
		if d.Err != "" {
			fmt.Fprintln(w, color.RedString("✗ %s: %s", d.Label, d.Err))
		}
	}
}

func writeBenchmarkPlain(w io.Writer, out *pipeline.BenchmarkOutcome) {
	rows, overall := out.Matrix()
	parts := []string{"Factor"}
	for _, d := range out.Datasets {
		parts = append(parts, d.Label+" L1%", d.Label+" L2%")
	}
	fmt.Fprintln(w, strings.Join(parts, "\t"))
	for _, row := range rows {
		parts = []string{row.Factor}
		for i := range out.Datasets {
			parts = append(parts, formatPct(row.L1[i]), formatPct(row.L2[i]))
		}
		fmt.Fprintln(w, strings.Join(parts, "\t"))
	}
	parts = []string{"OVERALL"}
	for i := range out.Datasets {
		parts = append(parts, formatPct(overall.L1[i]), formatPct(overall.L2[i]))
	}
	fmt.Fprintln(w, strings.Join(parts, "\t"))
	if i := out.Winner(); i >= 0 {
		fmt.Fprintf(w, "Best overall (L1): %s (%s)\n", out.Datasets[i].Label, formatPct(overall.L1[i]))
	}
	for _, d := range out.Datasets {
		if d.Err != "" {
			fmt.Fprintf(w, "failed %s: %s\n", d.Label, d.Err)
		}
	}
}

func rerunStatus(d pipeline.Delta, plain bool) string {
	var parts []string
	for _, level := range requirement.AllLevels {
		label := strings.ToUpper(string(level))
		switch {
		case !d.Was(level) && d.Now(level):
			if plain {
				parts = append(parts, label+":FIXED")
			} else {
				parts = append(parts, label+": "+color.GreenString("FIXED"))
			}
		case !d.Was(level) && !d.Now(level):
			if plain {
				parts = append(parts, label+":STILL_FAIL")
			} else {
				parts = append(parts, label+": "+color.RedString("STILL FAIL"))
			}
		}
	}
	if len(parts) == 0 {
		if plain {
			return "OK"
		}
		return color.GreenString("OK")
	}
	if plain {
		return strings.Join(parts, " ")
	}
	return strings.Join(parts, ", ")
}

// renderRerun is the terminal form of a re-run delta.
func renderRerun(w io.Writer, deltas []pipeline.Delta) {
	fmt.Fprintln(w, color.New(color.Bold).Sprint("Re-run Results"))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TEST ID\tFACTOR\tL1\tL2\tL3\tSTATUS")
	for _, d := range deltas {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			truncate(d.TestID, 40), d.Factor,
			passBadge(d.NowL1), passBadge(d.NowL2), passBadge(d.NowL3),
			rerunStatus(d, false))
	}
	_ = tw.Flush()

	fixed, stillFailing := rerunCounts(deltas)
	fmt.Fprintf(w, "\n%s %d  %s %d  Total re-run: %d\n",
		color.GreenString("Fixed:"), fixed, color.RedString("Still failing:"), stillFailing, len(deltas))
}

func writeRerunPlain(w io.Writer, deltas []pipeline.Delta) {
	for _, d := range deltas {
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.TestID, d.Factor, rerunStatus(d, true))
	}
	fixed, stillFailing := rerunCounts(deltas)
	fmt.Fprintf(w, "Fixed: %d  Still failing: %d  Total re-run: %d\n", fixed, stillFailing, len(deltas))
}

func rerunCounts(deltas []pipeline.Delta) (fixed, stillFailing int) {
	for _, d := range deltas {
		if d.NowL1 && !d.WasL1 {
			fixed++
		}
		if !d.NowL1 {
			stillFailing++
		}
	}
	return fixed, stillFailing
}

// renderSuggestions writes remediation guidance for a terminal, one block
// per failed test with the proposed SQL underneath.
func renderSuggestions(w io.Writer, suggestions []remediation.Suggestion) {
	fmt.Fprintf(w, "\n%s\n", color.New(color.Bold).Sprintf("Remediation suggestions (%d failures)", len(suggestions)))
	for i, s := range suggestions {
		fmt.Fprintf(w, "\n%s\n", color.New(color.Bold).Sprintf("%d. %s/%s — %s", i+1, s.Factor, s.Requirement, s.TargetRef()))
		fmt.Fprintf(w, "%s\n\n", s.Description)
		fmt.Fprintln(w, s.SQL)
	}
}

func writeSuggestionsPlain(w io.Writer, suggestions []remediation.Suggestion) {
	for i, s := range suggestions {
		fmt.Fprintf(w, "--- %d. %s/%s ---\n", i+1, s.Factor, s.Requirement)
		fmt.Fprintf(w, "Target: %s\n", s.TargetRef())
		fmt.Fprintf(w, "%s\n\n", s.Description)
		fmt.Fprintf(w, "%s\n\n", s.SQL)
	}
}
