package suite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aird-ai/aird/internal/discovery"
)

func quoteDouble(s string) string { return `"` + s + `"` }

func sampleInventory() *discovery.Inventory {
	return &discovery.Inventory{
		Schemas: []string{"main"},
		Tables: []discovery.Table{
			{Schema: "main", Table: "orders", FullName: "main.orders"},
			{Schema: "main", Table: "users", FullName: "main.users"},
		},
		Columns: []discovery.Column{
			{Schema: "main", Table: "orders", Column: "id", DataType: "INTEGER"},
			{Schema: "main", Table: "orders", Column: "amount", DataType: "DOUBLE"},
			{Schema: "main", Table: "orders", Column: "created_at", DataType: "VARCHAR"},
			{Schema: "main", Table: "users", Column: "name", DataType: "TEXT"},
		},
	}
}

func TestExpandFixedQueryPassesThrough(t *testing.T) {
	tests := []TestDef{{
		ID:          "clean_table_count",
		Factor:      "clean",
		Requirement: "table_discovery",
		TargetType:  "platform",
		Query:       "SELECT COUNT(*) FROM sqlite_master",
	}}

	out := Expand(tests, sampleInventory(), quoteDouble)
	require.Len(t, out, 1)
	assert.Equal(t, "clean_table_count", out[0].ID)
	assert.Equal(t, "SELECT COUNT(*) FROM sqlite_master", out[0].Query)
	assert.Empty(t, out[0].QueryTemplate)
}

func TestExpandColumnTemplateFansOut(t *testing.T) {
	tests := []TestDef{{
		ID:            "null_rate",
		Factor:        "clean",
		Requirement:   "null_rate",
		TargetType:    "column",
		QueryTemplate: "SELECT COUNT(*) FROM {schema_q}.{table_q} WHERE {column_q} IS NULL",
	}}

	out := Expand(tests, sampleInventory(), quoteDouble)
	require.Len(t, out, 4, "null_rate probes every column")

	assert.Equal(t, "null_rate|main|orders|id", out[0].ID)
	assert.Equal(t, `SELECT COUNT(*) FROM "main"."orders" WHERE "id" IS NULL`, out[0].Query)
	assert.Equal(t, "null_rate|main|users|name", out[3].ID)
	assert.Equal(t, `SELECT COUNT(*) FROM "main"."users" WHERE "name" IS NULL`, out[3].Query)
}

func TestExpandTableTemplateFansOut(t *testing.T) {
	tests := []TestDef{{
		ID:            "duplicate_rate",
		Factor:        "clean",
		Requirement:   "duplicate_rate",
		TargetType:    "table",
		QueryTemplate: "SELECT 1 FROM {schema_q}.{table_q}",
	}}

	out := Expand(tests, sampleInventory(), quoteDouble)
	require.Len(t, out, 2)
	assert.Equal(t, "duplicate_rate|main|orders", out[0].ID)
	assert.Equal(t, "duplicate_rate|main|users", out[1].ID)
	assert.Equal(t, `SELECT 1 FROM "main"."users"`, out[1].Query)
}

func TestExpandScopesNumericRequirementsToNumericColumns(t *testing.T) {
	tests := []TestDef{{
		ID:            "zero_negative_rate",
		Factor:        "clean",
		Requirement:   "zero_negative_rate",
		TargetType:    "column",
		QueryTemplate: "SELECT 1 FROM {schema_q}.{table_q} WHERE {column_q} <= 0",
	}}

	out := Expand(tests, sampleInventory(), quoteDouble)
	require.Len(t, out, 2, "only INTEGER and DOUBLE columns are in scope")
	assert.Equal(t, "zero_negative_rate|main|orders|id", out[0].ID)
	assert.Equal(t, "zero_negative_rate|main|orders|amount", out[1].ID)
}

func TestExpandScopesFormatChecksToDateLikeStringColumns(t *testing.T) {
	tests := []TestDef{{
		ID:            "format_inconsistency_rate",
		Factor:        "clean",
		Requirement:   "format_inconsistency_rate",
		TargetType:    "column",
		QueryTemplate: "SELECT 1 FROM {schema_q}.{table_q}",
	}}

	// created_at is VARCHAR with a date-like name; users.name is TEXT but not
	// date-like; the numeric columns are out of scope entirely.
	out := Expand(tests, sampleInventory(), quoteDouble)
	require.Len(t, out, 1)
	assert.Equal(t, "format_inconsistency_rate|main|orders|created_at", out[0].ID)
}

func TestExpandSkipsPlatformTemplates(t *testing.T) {
	tests := []TestDef{{
		ID:            "oddity",
		Factor:        "clean",
		Requirement:   "null_rate",
		TargetType:    "platform",
		QueryTemplate: "SELECT 1 FROM {table_q}",
	}}

	out := Expand(tests, sampleInventory(), quoteDouble)
	assert.Empty(t, out)
}

func TestExpandIsDeterministic(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)
	tests, err := r.Resolve("common_sqlite")
	require.NoError(t, err)

	inv := sampleInventory()
	first := Expand(tests, inv, quoteDouble)
	second := Expand(tests, inv, quoteDouble)
	assert.Equal(t, first, second)

	ids := make([]string, len(first))
	for i, tc := range first {
		ids[i] = tc.ID
	}
	assert.Equal(t, ids, func() []string {
		out := make([]string, len(second))
		for i, tc := range second {
			out[i] = tc.ID
		}
		return out
	}())
}

func TestExpandEmptyInventory(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)
	tests, err := r.Resolve("common_sqlite")
	require.NoError(t, err)

	out := Expand(tests, &discovery.Inventory{}, quoteDouble)
	for _, tc := range out {
		assert.Equal(t, "platform", tc.TargetType, "only fixed platform probes survive an empty inventory")
	}
}

func TestFilterFactor(t *testing.T) {
	tests := []TestDef{
		{ID: "a", Factor: "clean"},
		{ID: "b", Factor: "contextual"},
		{ID: "c", Factor: "clean"},
	}

	clean := FilterFactor(tests, "clean")
	require.Len(t, clean, 2)
	assert.Equal(t, "a", clean[0].ID)
	assert.Equal(t, "c", clean[1].ID)

	assert.Len(t, FilterFactor(tests, ""), 3)
	assert.Empty(t, FilterFactor(tests, "current"))
}
