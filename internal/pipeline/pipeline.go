// Package pipeline orchestrates a full assessment: discover the catalog, run
// the probe suite, build the report, persist it, and locate the previous run
// for diffing. The compare, rerun and benchmark variants reuse the same
// pipeline with different inputs and aggregators.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aird-ai/aird/internal/discovery"
	"github.com/aird-ai/aird/internal/history"
	"github.com/aird-ai/aird/internal/platform"
	"github.com/aird-ai/aird/internal/report"
	"github.com/aird-ai/aird/internal/requirement"
	"github.com/aird-ai/aird/internal/runner"
	"github.com/aird-ai/aird/internal/suite"
	"github.com/aird-ai/aird/internal/survey"
)

// ErrUsage classifies errors caused by how the caller invoked the tool
// rather than by anything the data source did. The CLI maps these to its
// usage exit code.
var ErrUsage = errors.New("usage error")

type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func (e *usageError) Is(target error) bool { return target == ErrUsage }

// Usagef builds an error that matches ErrUsage under errors.Is.
func Usagef(format string, args ...interface{}) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// Context is the optional scope document supplied alongside a connection:
// schema and table filters, a target workload, and data-product definitions.
type Context struct {
	Schemas      []string         `yaml:"schemas" json:"schemas"`
	Tables       []string         `yaml:"tables" json:"tables"`
	TargetLevel  string           `yaml:"target_level" json:"target_level"`
	DataProducts []report.Product `yaml:"data_products" json:"data_products"`
}

// LoadContext reads a context document. YAML and JSON bodies are both
// accepted. A missing file is a usage error; a file that fails to parse
// degrades to an empty context with a warning so the run proceeds on
// defaults.
func LoadContext(path string) (*Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, Usagef("context file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read context file %s: %w", path, err)
	}
	var c Context
	if err := yaml.Unmarshal(data, &c); err != nil {
		slog.Warn("malformed context file, proceeding without context", "path", path, "error", err)
		return &Context{}, nil
	}
	return &c, nil
}

// Pipeline wires the collaborators every assessment run needs. Store and
// Audit are optional: a nil store disables persistence and history lookups,
// a nil or disabled sink drops audit events.
type Pipeline struct {
	Platforms *platform.Registry
	Suites    *suite.Registry
	Store     *history.Store
	Audit     *history.AuditSink
}

// AssessOptions shapes one assessment run.
type AssessOptions struct {
	Connection     string
	Suite          string // empty or "auto" resolves to the adapter default
	Factor         string // optional factor filter
	Schemas        []string
	Tables         []string
	ContextPath    string
	ThresholdsPath string
	Workload       string // analytics | rag | training, or a bare level key
	Product        string // restrict the report to one context data product
	DryRun         bool
	NoSave         bool
	Compare        bool
	Survey         bool
	AnswersPath    string
	Progress       runner.ProgressFunc

	// Narrow, when set, may replace the discovered inventory before the
	// run. A nil return keeps the original.
	Narrow func(*discovery.Inventory) *discovery.Inventory
}

// Outcome is what one assessment run produced: a report normally, a probe
// preview in a dry run.
type Outcome struct {
	Report    *report.Report
	DryRun    bool
	TestCount int
	Preview   []runner.PreviewEntry
}

// Assess runs the full pipeline against one connection. Explicit scope
// arguments win over the context file; the context file wins over nothing.
// The report is persisted unless NoSave is set, and the assessment id is
// stamped back into it.
func (p *Pipeline) Assess(ctx context.Context, opts AssessOptions) (*Outcome, error) {
	if opts.Connection == "" {
		return nil, Usagef("connection required (use -c or AIRD_CONNECTION_STRING)")
	}

	scope := &Context{}
	if opts.ContextPath != "" {
		loaded, err := LoadContext(opts.ContextPath)
		if err != nil {
			return nil, err
		}
		scope = loaded
	}
	schemas := opts.Schemas
	if len(schemas) == 0 {
		schemas = scope.Schemas
	}
	tables := opts.Tables
	if len(tables) == 0 {
		tables = scope.Tables
	}
	workload := opts.Workload
	if workload == "" {
		workload = scope.TargetLevel
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

	p.Audit.LogConversation("assessment started", "system", "assess_start")

	inv, err := discovery.Discover(ctx, conn, discovery.Options{Schemas: schemas, Tables: tables})
	if err != nil {
		return nil, err
	}
	if opts.Narrow != nil {
		if narrowed := opts.Narrow(inv); narrowed != nil {
			inv = narrowed
		}
	}

	var audit runner.QueryAuditor
	if p.Audit.Enabled() {
		audit = p.Audit
	}
	out, err := runner.Run(ctx, conn, p.Suites, inv, runner.Options{
		Suite:      opts.Suite,
		Factor:     opts.Factor,
		DryRun:     opts.DryRun,
		Thresholds: thresholds,
		Audit:      audit,
		Progress:   opts.Progress,
	})
	if err != nil {
		return nil, err
	}
	if opts.DryRun {
		return &Outcome{DryRun: true, TestCount: out.TestCount, Preview: out.Preview}, nil
	}

	var questionResults []report.QuestionResult
	if opts.Survey {
		questionResults, err = p.surveyResults(opts.AnswersPath)
		if err != nil {
			return nil, err
		}
	}

	products := scope.DataProducts
	var productName string
	if opts.Product != "" {
		selected, err := selectProduct(products, opts.Product)
		if err != nil {
			return nil, err
		}
		products = []report.Product{*selected}
		productName = selected.Name
	}

	rep := report.Build(report.BuildInput{
		Results:         out.Results,
		Inventory:       inv,
		Fingerprint:     platform.Fingerprint(opts.Connection),
		TargetWorkload:  workload,
		DataProducts:    products,
		QuestionResults: questionResults,
		UserContext:     report.UserContext{Schemas: schemas, Tables: tables},
	})

	if !opts.NoSave && p.Store != nil {
		id, err := p.Store.SaveReport(rep, productName)
		if err != nil {
			return nil, err
		}
		rep.AssessmentID = id
		p.Audit.SetAssessmentID(id)
	}

	if opts.Compare && rep.AssessmentID != "" && p.Store != nil {
		prev, err := p.Store.PreviousFor(rep.ConnectionFingerprint, rep.AssessmentID)
		if err != nil {
			slog.Warn("previous assessment lookup failed", "error", err)
		} else if prev != nil {
			rep.DiffPreviousID = prev.ID
		}
	}

	p.Audit.LogConversation("assessment complete", "system", "assess_end")

	return &Outcome{Report: rep, TestCount: out.TestCount}, nil
}

// LoadStored fetches a persisted assessment by id, or the most recent one
// when id is empty.
func (p *Pipeline) LoadStored(id string) (*report.Report, error) {
	if p.Store == nil {
		return nil, Usagef("no history store configured")
	}
	if id != "" {
		rep, err := p.Store.GetReport(id)
		if errors.Is(err, history.ErrNotFound) {
			return nil, Usagef("assessment not found: %s", id)
		}
		return rep, err
	}
	entries, err := p.Store.ListAssessments(history.ListFilter{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, Usagef("no saved assessments; run assess first")
	}
	return p.Store.GetReport(entries[0].ID)
}

// ResolveThresholds resolves the scoring model: registry defaults merged
// with the override file when one is named. A missing file is a usage
// error, a malformed one degrades to pure defaults.
func ResolveThresholds(path string) (*requirement.Thresholds, error) {
	reg := requirement.Default()
	if path == "" {
		return reg.Thresholds(nil), nil
	}
	overrides, err := requirement.LoadOverrides(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, Usagef("thresholds file not found: %s", path)
		}
		slog.Warn("malformed thresholds file, using defaults", "path", path, "error", err)
		return reg.Thresholds(nil), nil
	}
	return reg.Thresholds(overrides), nil
}

// surveyResults runs the question bank against the answers file. A missing
// answers file is a usage error; a malformed one degrades to an unanswered
// survey, where every answer reads "—".
func (p *Pipeline) surveyResults(answersPath string) ([]report.QuestionResult, error) {
	questions, err := survey.DefaultQuestions()
	if err != nil {
		return nil, err
	}
	var answers map[string]string
	if answersPath != "" {
		answers, err = survey.LoadAnswers(answersPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, Usagef("answers file not found: %s", answersPath)
			}
			slog.Warn("malformed answers file, survey runs unanswered", "path", answersPath, "error", err)
		}
	}
	return survey.Run(questions, answers), nil
}

// selectProduct restricts the run to one named data product, failing with
// the names the context actually defines when the requested one is unknown.
func selectProduct(products []report.Product, name string) (*report.Product, error) {
	for i := range products {
		if products[i].Name == name {
			return &products[i], nil
		}
	}
	if len(products) == 0 {
		return nil, Usagef("data product %q requested but the context defines none", name)
	}
	available := make([]string, 0, len(products))
	for _, p := range products {
		available = append(available, p.Name)
	}
	return nil, Usagef("unknown data product %q; available: %s", name, strings.Join(available, ", "))
}

// splitList flattens repeatable flag values, splitting each on commas and
// dropping empties, so --tables a,b and --tables a --tables b read the same.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
