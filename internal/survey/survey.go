// Package survey scores the question-based requirements that no catalog
// probe can measure, folding answered questionnaires into the report.
package survey

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aird-ai/aird/internal/report"
)

//go:embed questions.yaml
var defaultQuestionsYAML []byte

// Rubric decides whether an answer passes. Type "yes_no" passes on an
// affirmative answer; "choice" passes when the answer is listed in PassIf.
type Rubric struct {
	Type   string   `yaml:"type" json:"type"`
	PassIf []string `yaml:"pass_if,omitempty" json:"pass_if,omitempty"`
}

// Question is one survey item. A nil Rubric records the answer without
// scoring it, which is what the default bank does.
type Question struct {
	Factor      string  `yaml:"factor" json:"factor"`
	Requirement string  `yaml:"requirement" json:"requirement"`
	Question    string  `yaml:"question" json:"question"`
	Rubric      *Rubric `yaml:"rubric,omitempty" json:"rubric,omitempty"`
}

// DefaultQuestions returns the embedded question bank, one question per
// factor.
func DefaultQuestions() ([]Question, error) {
	return parseQuestions(defaultQuestionsYAML)
}

// LoadQuestions reads a question bank from a YAML file.
func LoadQuestions(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read questions file %s: %w", path, err)
	}
	questions, err := parseQuestions(data)
	if err != nil {
		return nil, fmt.Errorf("questions file %s: %w", path, err)
	}
	return questions, nil
}

// parseQuestions unmarshals a question list, dropping items missing any of
// factor, requirement or question text.
func parseQuestions(data []byte) ([]Question, error) {
	var raw []Question
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse questions: %w", err)
	}
	out := make([]Question, 0, len(raw))
	for _, q := range raw {
		if q.Factor == "" || q.Requirement == "" || q.Question == "" {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

// LoadAnswers reads an answers file: a YAML mapping of "factor.requirement"
// or bare requirement keys to answers. Scalar answers of any YAML type are
// accepted, so a bare true scores like "true".
func LoadAnswers(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read answers file %s: %w", path, err)
	}
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse answers file %s: %w", path, err)
	}
	answers := make(map[string]string, len(raw))
	for key, value := range raw {
		if value == nil {
			continue
		}
		answers[key] = fmt.Sprint(value)
	}
	return answers, nil
}

// Run scores every question against the answers. Answer lookup tries
// "factor.requirement" before the bare requirement key; a missing answer is
// recorded as "—". The verdict triple is uniform across levels: question
// requirements have no tiered thresholds.
func Run(questions []Question, answers map[string]string) []report.QuestionResult {
	results := make([]report.QuestionResult, 0, len(questions))
	for _, q := range questions {
		answer, ok := answers[q.Factor+"."+q.Requirement]
		if !ok || answer == "" {
			answer = answers[q.Requirement]
		}
		if answer == "" {
			answer = "—"
		}
		pass := applyRubric(q.Rubric, answer)
		results = append(results, report.QuestionResult{
			Factor:       q.Factor,
			Requirement:  q.Requirement,
			QuestionText: q.Question,
			Answer:       answer,
			L1Pass:       pass,
			L2Pass:       pass,
			L3Pass:       pass,
		})
	}
	return results
}

func applyRubric(rubric *Rubric, answer string) bool {
	if rubric == nil {
		return true
	}
	normalized := strings.ToLower(strings.TrimSpace(answer))
	switch rubric.Type {
	case "", "yes_no":
		switch normalized {
		case "yes", "y", "true", "1":
			return true
		}
		return false
	case "choice":
		for _, accepted := range rubric.PassIf {
			if normalized == strings.ToLower(accepted) {
				return true
			}
		}
		return false
	}
	return true
}
