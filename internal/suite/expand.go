package suite

import (
	"strings"

	"github.com/aird-ai/aird/internal/discovery"
)

// Type keywords that put a column in scope for numeric-sanity requirements.
var numericTypeKeywords = []string{"INT", "BIGINT", "SMALLINT", "TINYINT", "DOUBLE", "FLOAT", "REAL", "NUMERIC", "DECIMAL"}

// Column-name fragments that mark a string column as date-like.
var dateLikeNameParts = []string{"date", "time", "created", "updated", "_at"}

var stringTypeKeywords = []string{"VARCHAR", "CHAR", "TEXT", "STRING"}

// columnInScope reports whether a column should receive probes for the given
// requirement. The engine has no profiler, so scoping is conservative and
// driven by catalog metadata alone.
func columnInScope(col discovery.Column, requirement string) bool {
	dataType := strings.ToUpper(col.DataType)
	name := strings.ToLower(col.Column)

	switch requirement {
	case "zero_negative_rate", "type_inconsistency_rate":
		return containsAny(dataType, numericTypeKeywords)
	case "format_inconsistency_rate":
		if !containsAny(dataType, stringTypeKeywords) {
			return false
		}
		return containsAny(name, dateLikeNameParts)
	}
	return true
}

func containsAny(s string, parts []string) bool {
	for _, p := range parts {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// Expand turns raw suite definitions into the concrete executable sequence
// for one run. Fixed queries pass through unchanged. Templates fan out over
// the inventory in its order, so the output is deterministic for a given
// suite and inventory. Quote renders identifiers for the target dialect.
func Expand(tests []TestDef, inv *discovery.Inventory, quote func(string) string) []TestDef {
	var out []TestDef
	for _, t := range tests {
		if t.Query != "" {
			out = append(out, TestDef{
				ID:          t.ID,
				Factor:      t.Factor,
				Requirement: t.Requirement,
				TargetType:  t.TargetType,
				Query:       t.Query,
				Description: t.Description,
			})
			continue
		}
		if t.QueryTemplate == "" {
			continue
		}

		switch t.TargetType {
		case "column":
			for _, col := range inv.Columns {
				if !columnInScope(col, t.Requirement) {
					continue
				}
				repl := strings.NewReplacer(
					"{schema_q}", quote(col.Schema),
					"{table_q}", quote(col.Table),
					"{column_q}", quote(col.Column),
				)
				out = append(out, TestDef{
					ID:          t.ID + "|" + col.Schema + "|" + col.Table + "|" + col.Column,
					Factor:      t.Factor,
					Requirement: t.Requirement,
					TargetType:  t.TargetType,
					Query:       repl.Replace(t.QueryTemplate),
					Description: t.Description,
				})
			}
		case "table":
			for _, tbl := range inv.Tables {
				repl := strings.NewReplacer(
					"{schema_q}", quote(tbl.Schema),
					"{table_q}", quote(tbl.Table),
				)
				out = append(out, TestDef{
					ID:          t.ID + "|" + tbl.Schema + "|" + tbl.Table,
					Factor:      t.Factor,
					Requirement: t.Requirement,
					TargetType:  t.TargetType,
					Query:       repl.Replace(t.QueryTemplate),
					Description: t.Description,
				})
			}
		default:
			// a template with platform scope has nothing to expand over
			continue
		}
	}
	return out
}

// FilterFactor keeps only tests whose factor matches. An empty factor keeps
// everything.
func FilterFactor(tests []TestDef, factor string) []TestDef {
	if factor == "" {
		return tests
	}
	var out []TestDef
	for _, t := range tests {
		if t.Factor == factor {
			out = append(out, t)
		}
	}
	return out
}
