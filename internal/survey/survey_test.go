package survey

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultQuestionsCoverEveryFactor(t *testing.T) {
	questions, err := DefaultQuestions()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(questions), 6)

	factors := map[string]bool{}
	for _, q := range questions {
		assert.NotEmpty(t, q.Requirement)
		assert.NotEmpty(t, q.Question)
		factors[q.Factor] = true
	}
	for _, f := range []string{"clean", "contextual", "consumable", "current", "correlated", "compliant"} {
		assert.True(t, factors[f], "missing question for factor %s", f)
	}
}

func TestRunWithoutAnswersPassesDefaultBank(t *testing.T) {
	questions, err := DefaultQuestions()
	require.NoError(t, err)

	results := Run(questions, nil)
	require.Len(t, results, len(questions))
	for _, r := range results {
		assert.Equal(t, "—", r.Answer)
		assert.NotEmpty(t, r.QuestionText)
		assert.True(t, r.L1Pass)
		assert.True(t, r.L2Pass)
		assert.True(t, r.L3Pass)
	}
}

func TestRunYesNoRubric(t *testing.T) {
	questions := []Question{{
		Factor:      "current",
		Requirement: "freshness_metadata",
		Question:    "Is freshness tracked?",
		Rubric:      &Rubric{Type: "yes_no"},
	}}

	for answer, want := range map[string]bool{
		"yes": true, "Y": true, "TRUE": true, "1": true,
		"no": false, "maybe": false, "": false,
	} {
		results := Run(questions, map[string]string{"freshness_metadata": answer})
		require.Len(t, results, 1)
		assert.Equal(t, want, results[0].L1Pass, "answer %q", answer)
		assert.Equal(t, want, results[0].L3Pass, "answer %q", answer)
	}

	// unanswered yes_no questions fail their rubric
	results := Run(questions, nil)
	require.Len(t, results, 1)
	assert.Equal(t, "—", results[0].Answer)
	assert.False(t, results[0].L1Pass)
}

func TestRunChoiceRubric(t *testing.T) {
	questions := []Question{{
		Factor:      "compliant",
		Requirement: "access_control_metadata",
		Question:    "How is access governed?",
		Rubric:      &Rubric{Type: "choice", PassIf: []string{"rbac", "abac"}},
	}}

	results := Run(questions, map[string]string{"access_control_metadata": "RBAC"})
	require.Len(t, results, 1)
	assert.True(t, results[0].L1Pass)

	results = Run(questions, map[string]string{"access_control_metadata": "none"})
	assert.False(t, results[0].L1Pass)
	assert.Equal(t, results[0].L1Pass, results[0].L3Pass, "question verdicts are uniform across levels")
}

func TestRunAnswerKeyPrecedence(t *testing.T) {
	questions := []Question{{
		Factor:      "current",
		Requirement: "freshness_metadata",
		Question:    "Is freshness tracked?",
		Rubric:      &Rubric{Type: "yes_no"},
	}}

	answers := map[string]string{
		"freshness_metadata":         "no",
		"current.freshness_metadata": "yes",
	}
	results := Run(questions, answers)
	require.Len(t, results, 1)
	assert.Equal(t, "yes", results[0].Answer)
	assert.True(t, results[0].L1Pass)
}

func TestLoadQuestionsSkipsIncompleteItems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- factor: current
  requirement: freshness_metadata
  question: Is freshness tracked?
- factor: broken
  question: missing requirement
- requirement: orphan
`), 0o644))

	questions, err := LoadQuestions(path)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "freshness_metadata", questions[0].Requirement)
}

func TestLoadAnswers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
freshness_metadata: yes
compliant.access_control_metadata: rbac
`), 0o644))

	answers, err := LoadAnswers(path)
	require.NoError(t, err)
	assert.Equal(t, "yes", answers["freshness_metadata"])
	assert.Equal(t, "rbac", answers["compliant.access_control_metadata"])

	_, err = LoadAnswers(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
