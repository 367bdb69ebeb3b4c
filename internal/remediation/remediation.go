// Package remediation turns failed assessment results into actionable
// suggestions: a description of the problem and a SQL sketch targeting the
// failing schema, table and column.
package remediation

import (
	"fmt"
	"strings"

	"github.com/aird-ai/aird/internal/report"
	"github.com/aird-ai/aird/internal/requirement"
)

// Template pairs a problem description with a SQL sketch. Placeholders
// {schema}, {table} and {column} are filled from the failing test id.
type Template struct {
	Description string
	SQL         string
}

var templates = map[string]Template{
	"null_rate": {
		Description: "High null rate in column. Consider backfilling or setting a default.",
		SQL: `-- Option 1: Backfill existing nulls with a default
UPDATE {schema}.{table} SET {column} = 'Unknown' WHERE {column} IS NULL;

-- Option 2: Add default for future inserts (adjust default_value for your domain)
-- ALTER TABLE {schema}.{table} ALTER COLUMN {column} SET DEFAULT 'default_value';`,
	},
	"duplicate_rate": {
		Description: "Duplicate rows detected. Consider deduplication or adding a unique constraint.",
		SQL: `-- Investigate duplicates first (list all columns in GROUP BY)
-- SELECT col1, col2, COUNT(*) FROM {schema}.{table} GROUP BY col1, col2 HAVING COUNT(*) > 1;

-- Option: Add unique constraint to prevent future duplicates
-- ALTER TABLE {schema}.{table} ADD CONSTRAINT uq_{table} UNIQUE (column_list);`,
	},
	"zero_negative_rate": {
		Description: "Zero or negative values in a measure column. Validate the source or constrain the range.",
		SQL: `-- Inspect offending rows before fixing
-- SELECT * FROM {schema}.{table} WHERE {column} <= 0;

-- Option: constrain future writes
-- ALTER TABLE {schema}.{table} ADD CONSTRAINT ck_{table}_{column}_positive CHECK ({column} > 0);`,
	},
	"primary_key_defined": {
		Description: "Table has no primary key. Add a PK for reliable joins and traceability.",
		SQL: `-- Option 1: Add primary key on existing column (e.g. id)
ALTER TABLE {schema}.{table} ADD CONSTRAINT pk_{table} PRIMARY KEY (id);

-- Option 2: Add surrogate key if no natural key exists
ALTER TABLE {schema}.{table} ADD COLUMN id SERIAL PRIMARY KEY;`,
	},
	"foreign_key_coverage": {
		Description: "Table has no foreign key constraints. Add FKs to declare relationships.",
		SQL: `-- Add foreign key (adjust referenced table/column)
ALTER TABLE {schema}.{table}
ADD CONSTRAINT fk_{table}_ref
FOREIGN KEY (ref_column) REFERENCES other_schema.other_table(id);`,
	},
	"temporal_scope_present": {
		Description: "Table lacks temporal columns (created_at, updated_at). Add for freshness tracking.",
		SQL: `-- Add temporal columns
ALTER TABLE {schema}.{table} ADD COLUMN created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP;
ALTER TABLE {schema}.{table} ADD COLUMN updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP;`,
	},
	"semantic_model_coverage": {
		Description: "Table not represented in semantic model. Add to semantic layer or create view.",
		SQL: `-- Create a view or add to your semantic model (dbt, LookML, etc.)
-- Example: dbt model
-- {{ config(materialized='view') }}
-- SELECT * FROM {schema}.{table}`,
	},
	"constraint_coverage": {
		Description: "Table has no constraints. Add primary key or unique constraint.",
		SQL: `-- Add primary key or unique constraint
ALTER TABLE {schema}.{table} ADD CONSTRAINT pk_{table} PRIMARY KEY (id);`,
	},
	"column_comment_coverage": {
		Description: "Column lacks documentation. Add column comments.",
		SQL: `-- Add column comment (syntax varies by platform)
COMMENT ON COLUMN {schema}.{table}.{column} IS 'Description of this column';`,
	},
	"table_comment_coverage": {
		Description: "Table lacks documentation. Add table comment.",
		SQL: `-- Add table comment (syntax varies by platform)
COMMENT ON TABLE {schema}.{table} IS 'Description: grain and primary key';`,
	},
}

// Suggestion is one remediation proposal for a failed result.
type Suggestion struct {
	TestID        string            `json:"test_id"`
	Factor        string            `json:"factor"`
	Requirement   string            `json:"requirement"`
	Schema        string            `json:"schema"`
	Table         string            `json:"table"`
	Column        string            `json:"column,omitempty"`
	Description   string            `json:"description"`
	SQL           string            `json:"sql"`
	MeasuredValue *float64          `json:"measured_value"`
	Threshold     requirement.Tiers `json:"threshold"`
}

// TargetRef renders the suggestion's target as schema.table[.column].
func (s Suggestion) TargetRef() string {
	ref := s.Schema + "." + s.Table
	if s.Column != "" {
		ref += "." + s.Column
	}
	return ref
}

// ScriptName builds the file name a suggestion is written under, numbered to
// preserve report order.
func ScriptName(index int, s Suggestion) string {
	name := fmt.Sprintf("%02d_%s_%s", index, s.Requirement, s.Table)
	return strings.ReplaceAll(name, ".", "_") + ".sql"
}

// Script renders the suggestion as a standalone SQL file body.
func (s Suggestion) Script() string {
	return fmt.Sprintf("-- %s/%s: %s\n\n%s\n", s.Factor, s.Requirement, s.Description, s.SQL)
}

// Suggestions generates one suggestion per result that failed at any level.
// Requirements without a template get a generic pointer to the factor docs.
func Suggestions(rep *report.Report) []Suggestion {
	var out []Suggestion
	for _, r := range rep.Results {
		if r.L1Pass && r.L2Pass && r.L3Pass {
			continue
		}

		schema, table, column := r.Target()
		s := Suggestion{
			TestID:        r.TestID,
			Factor:        r.Factor,
			Requirement:   r.Requirement,
			Schema:        schema,
			Table:         table,
			Column:        column,
			MeasuredValue: r.MeasuredValue,
			Threshold:     r.Threshold,
		}

		if tpl, ok := templates[r.Requirement]; ok {
			s.Description = tpl.Description
			s.SQL = substitute(tpl.SQL, schema, table, column)
		} else {
			s.Description = fmt.Sprintf("Requirement %q failed. See factor docs for guidance.", r.Requirement)
			s.SQL = "-- No template available. Check factor documentation."
		}
		out = append(out, s)
	}
	return out
}

func substitute(template, schema, table, column string) string {
	return strings.NewReplacer(
		"{schema}", orPlaceholder(schema, "schema"),
		"{table}", orPlaceholder(table, "table"),
		"{column}", orPlaceholder(column, "column"),
	).Replace(template)
}

func orPlaceholder(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
