package runner

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/aird-ai/aird/internal/discovery"
	"github.com/aird-ai/aird/internal/platform"
	"github.com/aird-ai/aird/internal/report"
	"github.com/aird-ai/aird/internal/suite"
)

// seedProducts opens an in-memory source holding one table with known null
// and duplicate rates: 2/6 names are null and 2 of 6 rows repeat.
func seedProducts(t *testing.T) *platform.Conn {
	t.Helper()

	raw, err := sql.Open("sqlite", "file:runner_test?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })

	_, err = raw.Exec(`CREATE TABLE products (id INTEGER, name TEXT, amount REAL)`)
	require.NoError(t, err)
	_, err = raw.Exec(`INSERT INTO products VALUES
		(1, 'apple', 1.5),
		(1, 'apple', 1.5),
		(2, NULL, 2.0),
		(2, NULL, 2.0),
		(3, 'cherry', 3.0),
		(4, 'date', 4.0)`)
	require.NoError(t, err)

	conn, err := platform.DefaultRegistry().Open(context.Background(),
		"sqlite://file:runner_test?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func discoverAll(t *testing.T, conn *platform.Conn) *discovery.Inventory {
	t.Helper()
	inv, err := discovery.Discover(context.Background(), conn, discovery.Options{})
	require.NoError(t, err)
	return inv
}

func resultByID(t *testing.T, results []report.Result, id string) report.Result {
	t.Helper()
	for _, r := range results {
		if r.TestID == id {
			return r
		}
	}
	t.Fatalf("no result with id %s", id)
	return report.Result{}
}

func TestRunScoresKnownRates(t *testing.T) {
	conn := seedProducts(t)
	suites, err := suite.Default()
	require.NoError(t, err)

	out, err := Run(context.Background(), conn, suites, discoverAll(t, conn), Options{Suite: "auto"})
	require.NoError(t, err)
	assert.False(t, out.DryRun)
	// 1 fixed clean probe + 3 null_rate + 1 duplicate_rate + 2 zero_negative
	// + 2 type_inconsistency expansions, then 5 contextual platform probes
	assert.Equal(t, 14, out.TestCount)
	require.Len(t, out.Results, 14)

	nullName := resultByID(t, out.Results, "null_rate|main|products|name")
	require.NotNil(t, nullName.MeasuredValue)
	assert.InDelta(t, 1.0/3.0, *nullName.MeasuredValue, 0.0001)
	assert.False(t, nullName.L1Pass)
	assert.False(t, nullName.L2Pass)
	assert.False(t, nullName.L3Pass)
	assert.NotEmpty(t, nullName.Query, "results carry the executed SQL for reruns")

	dup := resultByID(t, out.Results, "duplicate_rate|main|products")
	require.NotNil(t, dup.MeasuredValue)
	assert.InDelta(t, 1.0/3.0, *dup.MeasuredValue, 0.0001)
	assert.False(t, dup.L1Pass)

	nullID := resultByID(t, out.Results, "null_rate|main|products|id")
	require.NotNil(t, nullID.MeasuredValue)
	assert.Equal(t, 0.0, *nullID.MeasuredValue)
	assert.True(t, nullID.L3Pass)

	zeroNeg := resultByID(t, out.Results, "zero_negative_rate|main|products|amount")
	require.NotNil(t, zeroNeg.MeasuredValue)
	assert.Equal(t, 0.0, *zeroNeg.MeasuredValue)
	assert.True(t, zeroNeg.L1Pass)

	// informational probe records its count and never fails
	tableCount := resultByID(t, out.Results, "clean_table_count")
	require.NotNil(t, tableCount.MeasuredValue)
	assert.Equal(t, 1.0, *tableCount.MeasuredValue)
	assert.True(t, tableCount.L1Pass)
	assert.True(t, tableCount.L3Pass)

	// the bare table has no keys or temporal columns
	pk := resultByID(t, out.Results, "primary_key_defined")
	require.NotNil(t, pk.MeasuredValue)
	assert.Equal(t, 0.0, *pk.MeasuredValue)
	assert.False(t, pk.L1Pass)
}

func TestRunUnknownSuite(t *testing.T) {
	conn := seedProducts(t)
	suites, err := suite.Default()
	require.NoError(t, err)

	_, err = Run(context.Background(), conn, suites, discoverAll(t, conn), Options{Suite: "nope"})
	require.Error(t, err)
	var unknown *suite.UnknownSuiteError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nope", unknown.Name)
}

func TestRunDryRunPreviewsWithoutExecuting(t *testing.T) {
	conn := seedProducts(t)
	suites, err := suite.Default()
	require.NoError(t, err)
	audit := &recordingAuditor{}

	out, err := Run(context.Background(), conn, suites, discoverAll(t, conn), Options{
		Suite:  "common_sqlite",
		DryRun: true,
		Audit:  audit,
	})
	require.NoError(t, err)
	assert.True(t, out.DryRun)
	assert.Equal(t, 14, out.TestCount)
	assert.Empty(t, out.Results)
	require.Len(t, out.Preview, 14)
	assert.Equal(t, "clean_table_count", out.Preview[0].ID)
	assert.Equal(t, "clean", out.Preview[0].Factor)
	assert.Empty(t, audit.queries, "dry run must not touch the source")
}

func TestRunFactorFilter(t *testing.T) {
	conn := seedProducts(t)
	suites, err := suite.Default()
	require.NoError(t, err)

	out, err := Run(context.Background(), conn, suites, discoverAll(t, conn), Options{Factor: "contextual"})
	require.NoError(t, err)
	assert.Equal(t, 5, out.TestCount)
	for _, r := range out.Results {
		assert.Equal(t, "contextual", r.Factor)
	}
}

func TestRunCapturesProbeErrorsAndContinues(t *testing.T) {
	conn := seedProducts(t)

	suites := suite.NewRegistry()
	require.NoError(t, suites.Register(&suite.Document{
		SuiteName: "mixed",
		Tests: []suite.TestDef{
			{ID: "broken", Factor: "clean", Requirement: "null_rate", TargetType: "platform", Query: "SELECT v FROM missing_table"},
			{ID: "refused", Factor: "clean", Requirement: "null_rate", TargetType: "platform", Query: "DELETE FROM products"},
			{ID: "fine", Factor: "clean", Requirement: "null_rate", TargetType: "platform", Query: "SELECT 0.0"},
		},
	}))

	out, err := Run(context.Background(), conn, suites, &discovery.Inventory{}, Options{Suite: "mixed"})
	require.NoError(t, err)
	require.Len(t, out.Results, 3)

	broken := resultByID(t, out.Results, "broken")
	assert.Nil(t, broken.MeasuredValue)
	assert.Contains(t, broken.Error, "failed to execute query")
	assert.False(t, broken.L1Pass)

	refused := resultByID(t, out.Results, "refused")
	assert.Contains(t, refused.Error, "read-only")

	fine := resultByID(t, out.Results, "fine")
	assert.Empty(t, fine.Error)
	require.NotNil(t, fine.MeasuredValue)
	assert.True(t, fine.L3Pass)
}

func TestRunNonNumericMeasurement(t *testing.T) {
	conn := seedProducts(t)

	suites := suite.NewRegistry()
	require.NoError(t, suites.Register(&suite.Document{
		SuiteName: "odd",
		Tests: []suite.TestDef{
			{ID: "text_value", Factor: "clean", Requirement: "null_rate", TargetType: "platform", Query: "SELECT 'not a number'"},
			{ID: "null_value", Factor: "clean", Requirement: "null_rate", TargetType: "platform", Query: "SELECT NULL"},
			{ID: "counted", Factor: "clean", Requirement: "table_discovery", TargetType: "platform", Query: "SELECT 'still informational'"},
		},
	}))

	out, err := Run(context.Background(), conn, suites, &discovery.Inventory{}, Options{Suite: "odd"})
	require.NoError(t, err)

	text := resultByID(t, out.Results, "text_value")
	assert.Nil(t, text.MeasuredValue)
	assert.Empty(t, text.Error)
	assert.False(t, text.L1Pass, "unreadable measurement fails scored requirements")

	nullVal := resultByID(t, out.Results, "null_value")
	assert.Nil(t, nullVal.MeasuredValue)
	assert.False(t, nullVal.L1Pass)

	info := resultByID(t, out.Results, "counted")
	assert.Nil(t, info.MeasuredValue)
	assert.True(t, info.L1Pass, "informational requirements pass regardless of value")
}

type recordingAuditor struct {
	queries []string
}

func (a *recordingAuditor) LogQuery(query, target, factor, req string) {
	a.queries = append(a.queries, query)
}

func TestRunAuditsSuccessfulQueriesOnly(t *testing.T) {
	conn := seedProducts(t)
	audit := &recordingAuditor{}

	suites := suite.NewRegistry()
	require.NoError(t, suites.Register(&suite.Document{
		SuiteName: "audited",
		Tests: []suite.TestDef{
			{ID: "ok", Factor: "clean", Requirement: "null_rate", TargetType: "platform", Query: "SELECT 0.0"},
			{ID: "bad", Factor: "clean", Requirement: "null_rate", TargetType: "platform", Query: "SELECT v FROM missing_table"},
		},
	}))

	_, err := Run(context.Background(), conn, suites, &discovery.Inventory{}, Options{Suite: "audited", Audit: audit})
	require.NoError(t, err)
	require.Len(t, audit.queries, 1)
	assert.Equal(t, "SELECT 0.0", audit.queries[0])
}

func TestRunProgressCallback(t *testing.T) {
	conn := seedProducts(t)
	suites, err := suite.Default()
	require.NoError(t, err)

	var seen []string
	progress := func(index, total int, res report.Result) {
		seen = append(seen, fmt.Sprintf("%d/%d", index, total))
	}

	out, err := Run(context.Background(), conn, suites, discoverAll(t, conn), Options{Progress: progress})
	require.NoError(t, err)
	require.Len(t, seen, out.TestCount)
	assert.Equal(t, "0/14", seen[0])
	assert.Equal(t, "13/14", seen[13])
}

func TestRunCancellation(t *testing.T) {
	conn := seedProducts(t)
	suites, err := suite.Default()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := Run(ctx, conn, suites, discoverAll(t, conn), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.Results)
}
