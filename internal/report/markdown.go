package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aird-ai/aird/internal/requirement"
)

// WorkloadLabel renders a workload name for display, e.g. "rag" -> "L2 (RAG)".
func WorkloadLabel(workload string) string {
	switch strings.ToLower(strings.TrimSpace(workload)) {
	case "analytics", "l1":
		return "L1 (Analytics)"
	case "rag", "l2":
		return "L2 (RAG)"
	case "training", "l3":
		return "L3 (Training)"
	case "":
		return "Not specified"
	}
	return workload
}

func levelLabel(level requirement.Level) string {
	switch level {
	case requirement.L1:
		return "Analytics"
	case requirement.L2:
		return "RAG"
	case requirement.L3:
		return "Training"
	}
	return strings.ToUpper(string(level))
}

// ToMarkdown renders the report document. With data products present the
// body is one section per product under an aggregate summary; otherwise it
// is the flat factor-by-factor breakdown. A target workload narrows every
// table to that level's verdict.
func ToMarkdown(rep *Report) string {
	var target requirement.Level
	hasTarget := false
	if rep.TargetWorkload != "" {
		if lvl, ok := requirement.WorkloadLevel(rep.TargetWorkload); ok {
			target, hasTarget = lvl, true
		}
	}

	var b strings.Builder
	b.WriteString("# AI-Ready Data Assessment Report\n\n")
	fmt.Fprintf(&b, "**Created:** %s\n", rep.CreatedAt)
	fmt.Fprintf(&b, "**Connection:** %s\n", rep.ConnectionFingerprint)
	fmt.Fprintf(&b, "**Target workload:** %s\n", WorkloadLabel(rep.TargetWorkload))
	if len(rep.DataProducts) > 0 {
		fmt.Fprintf(&b, "**Data products:** %d\n", len(rep.DataProducts))
		b.WriteString("\n## Summary (Aggregate)\n\n")
	} else {
		b.WriteString("\n## Summary\n\n")
	}
	writeSummaryLines(&b, rep.Summary, target, hasTarget)

	if len(rep.DataProducts) > 0 {
		for _, p := range rep.DataProducts {
			writeProductSection(&b, p, rep.Results, target, hasTarget)
		}
	} else {
		writeFactorSections(&b, rep.Results, rep.FactorSummary, target, hasTarget, 2)
	}

	if len(rep.QuestionResults) > 0 {
		b.WriteString("## Survey Results\n\n")
		for _, q := range rep.QuestionResults {
			fmt.Fprintf(&b, "- **%s / %s**: %s\n", q.Factor, q.Requirement, passIcon(q.L1Pass))
			fmt.Fprintf(&b, "  - %s\n", q.QuestionText)
			fmt.Fprintf(&b, "  - Answer: %s\n\n", q.Answer)
		}
	}

	if len(rep.NotAssessed) > 0 {
		b.WriteString("## Not Assessed\n\n")
		for _, na := range rep.NotAssessed {
			fmt.Fprintf(&b, "- **%s / %s**: %s\n", na.Factor, na.Requirement, na.Reason)
		}
		b.WriteString("\n")
	}

	if rep.Inventory != nil {
		b.WriteString("## Appendix: Inventory\n\n")
		fmt.Fprintf(&b, "- Schemas: %d\n", len(rep.Inventory.Schemas))
		fmt.Fprintf(&b, "- Tables: %d\n", len(rep.Inventory.Tables))
		fmt.Fprintf(&b, "- Columns: %d\n\n", len(rep.Inventory.Columns))
	}

	return b.String()
}

func writeSummaryLines(b *strings.Builder, s Summary, target requirement.Level, hasTarget bool) {
	if hasTarget {
		pass, pctVal := summaryAt(s, target)
		verdict := "✓ READY"
		if pass != s.TotalTests {
			verdict = fmt.Sprintf("✗ %d tests need attention", s.TotalTests-pass)
		}
		fmt.Fprintf(b, "**%s Readiness:** %d/%d (%.1f%%) — %s\n\n", levelLabel(target), pass, s.TotalTests, pctVal, verdict)
		return
	}
	fmt.Fprintf(b, "- Total tests: %d\n", s.TotalTests)
	fmt.Fprintf(b, "- L1 pass: %d/%d (%.1f%%)\n", s.L1Pass, s.TotalTests, s.L1Pct)
	fmt.Fprintf(b, "- L2 pass: %d/%d (%.1f%%)\n", s.L2Pass, s.TotalTests, s.L2Pct)
	fmt.Fprintf(b, "- L3 pass: %d/%d (%.1f%%)\n\n", s.L3Pass, s.TotalTests, s.L3Pct)
}

func summaryAt(s Summary, level requirement.Level) (int, float64) {
	switch level {
	case requirement.L2:
		return s.L2Pass, s.L2Pct
	case requirement.L3:
		return s.L3Pass, s.L3Pct
	default:
		return s.L1Pass, s.L1Pct
	}
}

func writeProductSection(b *strings.Builder, p ProductReport, allResults []Result, target requirement.Level, hasTarget bool) {
	fmt.Fprintf(b, "## Data Product: %s\n\n", p.Name)

	var meta []string
	if p.Owner != "" {
		meta = append(meta, fmt.Sprintf("**Owner:** %s", p.Owner))
	}
	if p.TargetWorkload != "" {
		meta = append(meta, fmt.Sprintf("**Workload:** %s", WorkloadLabel(p.TargetWorkload)))
	}
	if len(meta) > 0 {
		b.WriteString(strings.Join(meta, " | ") + "\n")
	}
	if len(p.Assets) > 0 {
		fmt.Fprintf(b, "**Assets:** %s\n", strings.Join(p.Assets, ", "))
	}
	b.WriteString("\n")

	// a product workload overrides the report-level target for its section
	productTarget, productHasTarget := target, hasTarget
	if p.TargetWorkload != "" {
		if lvl, ok := requirement.WorkloadLevel(p.TargetWorkload); ok {
			productTarget, productHasTarget = lvl, true
		}
	}

	writeSummaryLines(b, p.Summary, productTarget, productHasTarget)

	var owned []Result
	for _, r := range allResults {
		if ResultInProductReport(r, p) {
			owned = append(owned, r)
		}
	}
	writeFactorSections(b, owned, p.FactorSummary, productTarget, productHasTarget, 3)
}

func writeFactorSections(b *strings.Builder, results []Result, summaries []FactorSummary, target requirement.Level, hasTarget bool, headingLevel int) {
	byFactor := make(map[string][]Result)
	for _, r := range results {
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

	sumByFactor := make(map[string]FactorSummary, len(summaries))
	for _, fs := range summaries {
		sumByFactor[fs.Factor] = fs
	}

	prefix := strings.Repeat("#", headingLevel)
	for _, factor := range factors {
		fs := sumByFactor[factor]
		fmt.Fprintf(b, "%s Factor: %s\n\n", prefix, titleCase(factor))

		if hasTarget {
			pass, pctVal := summaryAt(Summary{
				TotalTests: fs.TotalTests,
				L1Pass:     fs.L1Pass, L2Pass: fs.L2Pass, L3Pass: fs.L3Pass,
				L1Pct: fs.L1Pct, L2Pct: fs.L2Pct, L3Pct: fs.L3Pct,
			}, target)
			verdict := "✓ READY"
			if pass != fs.TotalTests {
				verdict = fmt.Sprintf("✗ %d blocking", fs.TotalTests-pass)
			}
			fmt.Fprintf(b, "**%s:** %d/%d (%.1f%%) — %s\n\n", levelLabel(target), pass, fs.TotalTests, pctVal, verdict)

			b.WriteString("| Test | Measured | Threshold | Result |\n")
			b.WriteString("|------|----------|-----------|--------|\n")
			for _, r := range byFactor[factor] {
				fmt.Fprintf(b, "| %s | %s | %v | %s |\n",
					shortTestID(r.TestID), fmtMeasured(r.MeasuredValue), r.Threshold.At(target), passIcon(r.PassAt(target)))
				if r.Error != "" {
					fmt.Fprintf(b, "| | **Error:** %s | | |\n", r.Error)
				}
			}
		} else {
			fmt.Fprintf(b, "L1: %d/%d (%.1f%%) | L2: %d/%d (%.1f%%) | L3: %d/%d (%.1f%%)\n\n",
				fs.L1Pass, fs.TotalTests, fs.L1Pct,
				fs.L2Pass, fs.TotalTests, fs.L2Pct,
				fs.L3Pass, fs.TotalTests, fs.L3Pct)

			b.WriteString("| Test | Requirement | Measured | Threshold (L1/L2/L3) | Dir | L1 | L2 | L3 |\n")
			b.WriteString("|------|-------------|----------|----------------------|-----|----|----|-----|\n")
			for _, r := range byFactor[factor] {
				fmt.Fprintf(b, "| %s | %s | %s | %v / %v / %v | %s | %s | %s | %s |\n",
					shortTestID(r.TestID), r.Requirement, fmtMeasured(r.MeasuredValue),
					r.Threshold.L1, r.Threshold.L2, r.Threshold.L3, r.Direction,
					passIcon(r.L1Pass), passIcon(r.L2Pass), passIcon(r.L3Pass))
				if r.Error != "" {
					fmt.Fprintf(b, "| | | **Error:** %s | | | | | |\n", r.Error)
				}
			}
		}
		b.WriteString("\n")
	}
}

// shortTestID collapses an expanded id to its base and final segment, which
// keeps table rows readable for deeply qualified columns.
func shortTestID(id string) string {
	parts := strings.Split(id, "|")
	if len(parts) <= 1 {
		return id
	}
	return parts[0] + "|..." + parts[len(parts)-1]
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

func passIcon(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
