// Package report defines the assessment artifact: per-probe results, the
// aggregate and per-factor roll-ups, and the per-data-product views, plus the
// markdown rendering of the whole document.
package report

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/aird-ai/aird/internal/discovery"
	"github.com/aird-ai/aird/internal/requirement"
)

// Result is one scored probe. MeasuredValue is nil when the probe errored or
// its value could not be read as a number; scoring treats nil as a failure at
// every level unless the requirement is informational.
type Result struct {
	TestID        string                `json:"test_id"`
	Factor        string                `json:"factor"`
	Requirement   string                `json:"requirement"`
	TargetType    string                `json:"target_type"`
	MeasuredValue *float64              `json:"measured_value"`
	Threshold     requirement.Tiers     `json:"threshold"`
	Direction     requirement.Direction `json:"direction"`
	L1Pass        bool                  `json:"l1_pass"`
	L2Pass        bool                  `json:"l2_pass"`
	L3Pass        bool                  `json:"l3_pass"`
	Error         string                `json:"error,omitempty"`
	Query         string                `json:"query,omitempty"`
}

// PassAt returns the verdict recorded for a workload level.
func (r Result) PassAt(level requirement.Level) bool {
	switch level {
	case requirement.L2:
		return r.L2Pass
	case requirement.L3:
		return r.L3Pass
	default:
		return r.L1Pass
	}
}

// Target splits the expanded test id into schema, table and column segments.
// Probes with platform scope return empty strings.
func (r Result) Target() (schema, table, column string) {
	parts := strings.Split(r.TestID, "|")
	if len(parts) > 1 {
		schema = parts[1]
	}
	if len(parts) > 2 {
		table = parts[2]
	}
	if len(parts) > 3 {
		column = parts[3]
	}
	return schema, table, column
}

// Summary is the aggregate pass roll-up across all results.
type Summary struct {
	TotalTests int     `json:"total_tests"`
	L1Pass     int     `json:"l1_pass"`
	L2Pass     int     `json:"l2_pass"`
	L3Pass     int     `json:"l3_pass"`
	L1Pct      float64 `json:"l1_pct"`
	L2Pct      float64 `json:"l2_pct"`
	L3Pct      float64 `json:"l3_pct"`
}

// FactorSummary is the roll-up for one quality factor.
type FactorSummary struct {
	Factor     string  `json:"factor"`
	TotalTests int     `json:"total_tests"`
	L1Pass     int     `json:"l1_pass"`
	L2Pass     int     `json:"l2_pass"`
	L3Pass     int     `json:"l3_pass"`
	L1Pct      float64 `json:"l1_pct"`
	L2Pct      float64 `json:"l2_pct"`
	L3Pct      float64 `json:"l3_pct"`
}

// Product is a data-product definition as written in a context file.
type Product struct {
	Name     string   `yaml:"name" json:"name"`
	Owner    string   `yaml:"owner,omitempty" json:"owner,omitempty"`
	Workload string   `yaml:"workload,omitempty" json:"workload,omitempty"`
	Tables   []string `yaml:"tables,omitempty" json:"tables,omitempty"`
	Schemas  []string `yaml:"schemas,omitempty" json:"schemas,omitempty"`
}

// ProductReport is the scored view of one data product inside a report.
// Assets joins the product's tables with "<schema>.*" wildcards for its
// schemas, so a saved report can re-derive membership without the context
// file that defined the product.
type ProductReport struct {
	Name           string          `json:"name"`
	Owner          string          `json:"owner,omitempty"`
	TargetWorkload string          `json:"target_workload,omitempty"`
	Assets         []string        `json:"assets"`
	Summary        Summary         `json:"summary"`
	FactorSummary  []FactorSummary `json:"factor_summary"`
}

// QuestionResult is one scored survey answer.
type QuestionResult struct {
	Factor       string `json:"factor"`
	Requirement  string `json:"requirement"`
	QuestionText string `json:"question_text"`
	Answer       string `json:"answer"`
	L1Pass       bool   `json:"l1_pass"`
	L2Pass       bool   `json:"l2_pass"`
	L3Pass       bool   `json:"l3_pass"`
}

// NotAssessedEntry records a requirement the run could not measure.
type NotAssessedEntry struct {
	Factor      string `json:"factor"`
	Requirement string `json:"requirement"`
	Reason      string `json:"reason"`
}

// UserContext echoes the scoping the caller asked for.
type UserContext struct {
	Schemas []string `json:"schemas,omitempty"`
	Tables  []string `json:"tables,omitempty"`
}

// Report is the complete assessment document persisted to history and
// rendered for output.
type Report struct {
	CreatedAt             string               `json:"created_at"`
	ConnectionFingerprint string               `json:"connection_fingerprint"`
	TargetWorkload        string               `json:"target_workload,omitempty"`
	Summary               Summary              `json:"summary"`
	FactorSummary         []FactorSummary      `json:"factor_summary"`
	Results               []Result             `json:"results"`
	NotAssessed           []NotAssessedEntry   `json:"not_assessed"`
	Inventory             *discovery.Inventory `json:"inventory,omitempty"`
	Environment           map[string]string    `json:"environment"`
	UserContext           UserContext          `json:"user_context"`
	QuestionResults       []QuestionResult     `json:"question_results,omitempty"`
	DataProducts          []ProductReport      `json:"data_products,omitempty"`
	AssessmentID          string               `json:"assessment_id,omitempty"`
	DiffPreviousID        string               `json:"_diff_previous_id,omitempty"`
}

// BuildInput carries everything Build folds into a report.
type BuildInput struct {
	Results         []Result
	Inventory       *discovery.Inventory
	Fingerprint     string
	TargetWorkload  string
	DataProducts    []Product
	QuestionResults []QuestionResult
	UserContext     UserContext
	Environment     map[string]string
}

// Build assembles the report document. The top-level summary and factor
// summary aggregate every result; per-product roll-ups cover only the results
// whose test id falls inside the product's tables or schemas.
func Build(in BuildInput) *Report {
	rep := &Report{
		CreatedAt:             time.Now().UTC().Format(time.RFC3339),
		ConnectionFingerprint: in.Fingerprint,
		TargetWorkload:        in.TargetWorkload,
		Summary:               Summarize(in.Results),
		FactorSummary:         SummarizeFactors(in.Results),
		Results:               in.Results,
		NotAssessed:           []NotAssessedEntry{},
		Inventory:             in.Inventory,
		Environment:           in.Environment,
		UserContext:           in.UserContext,
		QuestionResults:       in.QuestionResults,
	}
	if rep.Results == nil {
		rep.Results = []Result{}
	}
	if rep.Environment == nil {
		rep.Environment = map[string]string{}
	}
	for _, p := range in.DataProducts {
		rep.DataProducts = append(rep.DataProducts, buildProductReport(p, in.Results))
	}
	return rep
}

// Summarize computes the aggregate roll-up. Percentages are rounded to one
// decimal and an empty result set reads as zero across the board.
func Summarize(results []Result) Summary {
	var l1, l2, l3 int
	for _, r := range results {
		if r.L1Pass {
			l1++
		}
		if r.L2Pass {
			l2++
		}
		if r.L3Pass {
			l3++
		}
	}
	return Summary{
		TotalTests: len(results),
		L1Pass:     l1,
		L2Pass:     l2,
		L3Pass:     l3,
		L1Pct:      pct(l1, len(results)),
		L2Pct:      pct(l2, len(results)),
		L3Pct:      pct(l3, len(results)),
	}
}

// SummarizeFactors groups results by factor and rolls each group up, sorted
// by factor name.
func SummarizeFactors(results []Result) []FactorSummary {
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

	out := make([]FactorSummary, 0, len(factors))
	for _, f := range factors {
		s := Summarize(byFactor[f])
		out = append(out, FactorSummary{
			Factor:     f,
			TotalTests: s.TotalTests,
			L1Pass:     s.L1Pass,
			L2Pass:     s.L2Pass,
			L3Pass:     s.L3Pass,
			L1Pct:      s.L1Pct,
			L2Pct:      s.L2Pct,
			L3Pct:      s.L3Pct,
		})
	}
	return out
}

func buildProductReport(p Product, results []Result) ProductReport {
	var owned []Result
	for _, r := range results {
		if resultInProduct(r, p) {
			owned = append(owned, r)
		}
	}

	assets := append([]string{}, p.Tables...)
	for _, s := range p.Schemas {
		assets = append(assets, s+".*")
	}

	return ProductReport{
		Name:           p.Name,
		Owner:          p.Owner,
		TargetWorkload: p.Workload,
		Assets:         assets,
		Summary:        Summarize(owned),
		FactorSummary:  SummarizeFactors(owned),
	}
}

// resultInProduct matches a result to a product definition through its test
// id segments. Tables match bare or schema-qualified; a schema entry claims
// every table in that schema. Platform probes belong to no product.
func resultInProduct(r Result, p Product) bool {
	schema, table, _ := r.Target()
	if schema == "" || table == "" {
		return false
	}
	fqn := schema + "." + table
	for _, t := range p.Tables {
		if fqn == t || table == t {
			return true
		}
	}
	for _, s := range p.Schemas {
		if schema == s {
			return true
		}
	}
	return false
}

// ResultInProductReport matches a result against a saved product report's
// assets list, where schemas appear as "<schema>.*" wildcards.
func ResultInProductReport(r Result, p ProductReport) bool {
	schema, table, _ := r.Target()
	if schema == "" || table == "" {
		return false
	}
	fqn := schema + "." + table
	for _, asset := range p.Assets {
		if strings.HasSuffix(asset, ".*") {
			if schema == strings.TrimSuffix(asset, ".*") {
				return true
			}
			continue
		}
		if fqn == asset || table == asset {
			return true
		}
	}
	return false
}

func pct(pass, total int) float64 {
	if total == 0 {
		total = 1
	}
	return math.Round(1000*float64(pass)/float64(total)) / 10
}
