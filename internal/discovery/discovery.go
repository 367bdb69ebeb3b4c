// Package discovery introspects a data source's catalog into an inventory of
// schemas, tables and columns, applying optional scope filters.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aird-ai/aird/internal/platform"
)

// Table is one discovered base table.
type Table struct {
	Schema   string `json:"schema"`
	Table    string `json:"table"`
	FullName string `json:"full_name"`
}

// Column is one discovered column, in ordinal position order.
type Column struct {
	Schema   string `json:"schema"`
	Table    string `json:"table"`
	Column   string `json:"column"`
	DataType string `json:"data_type"`
}

// Inventory is the catalog snapshot one pipeline run assesses.
type Inventory struct {
	Schemas []string `json:"schemas"`
	Tables  []Table  `json:"tables"`
	Columns []Column `json:"columns"`
}

// Options narrow discovery. Schemas is an exact-match whitelist; Tables
// matches either the bare table name or schema.table, case-insensitively.
type Options struct {
	Schemas []string
	Tables  []string
}

// Discover introspects the catalog behind conn and returns the filtered
// inventory. Per-table column failures degrade to an empty column list for
// that table; the table entry is preserved.
func Discover(ctx context.Context, conn *platform.Conn, opts Options) (*Inventory, error) {
	var tables []Table
	var err error

	switch conn.Adapter().Catalog {
	case platform.CatalogSQLite:
		tables, err = sqliteTables(ctx, conn)
	default:
		tables, err = informationSchemaTables(ctx, conn)
	}
	if err != nil {
		return nil, err
	}

	tables = filterTables(tables, opts)

	inv := &Inventory{Tables: tables}
	seen := make(map[string]bool)
	for _, tbl := range tables {
		if !seen[tbl.Schema] {
			seen[tbl.Schema] = true
			inv.Schemas = append(inv.Schemas, tbl.Schema)
		}
		cols, err := tableColumns(ctx, conn, tbl)
		if err != nil {
			slog.Warn("column discovery failed, continuing without columns",
				"table", tbl.FullName, "error", err)
			continue
		}
		inv.Columns = append(inv.Columns, cols...)
	}
	return inv, nil
}

// informationSchemaTables lists base tables excluding system schemas. Older
// backends that reject the exclusion get a permissive retry.
func informationSchemaTables(ctx context.Context, conn *platform.Conn) ([]Table, error) {
	const strict = `SELECT table_schema, table_name FROM information_schema.tables ` +
		`WHERE table_type = 'BASE TABLE' ` +
		`AND LOWER(table_schema) NOT IN ('information_schema', 'pg_catalog') ` +
		`ORDER BY table_schema, table_name`
	const permissive = `SELECT table_schema, table_name FROM information_schema.tables ` +
		`ORDER BY table_schema, table_name`

	rows, err := conn.Query(ctx, strict)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("strict catalog query failed, retrying permissively", "error", err)
		rows, err = conn.Query(ctx, permissive)
		if err != nil {
			return nil, fmt.Errorf("failed to introspect information_schema.tables: %w", err)
		}
	}

	tables := make([]Table, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		schema := asString(row[0])
		table := asString(row[1])
		if schema == "" || table == "" {
			continue
		}
		tables = append(tables, Table{Schema: schema, Table: table, FullName: schema + "." + table})
	}
	return tables, nil
}

// sqliteTables lists user tables from sqlite_master under the implicit main
// schema.
func sqliteTables(ctx context.Context, conn *platform.Conn) ([]Table, error) {
	const q = `SELECT name FROM sqlite_master ` +
		`WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`

	rows, err := conn.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect sqlite_master: %w", err)
	}

	tables := make([]Table, 0, len(rows))
	for _, row := range rows {
		if len(row) < 1 {
			continue
		}
		name := asString(row[0])
		if name == "" {
			continue
		}
		tables = append(tables, Table{Schema: "main", Table: name, FullName: "main." + name})
	}
	return tables, nil
}

func tableColumns(ctx context.Context, conn *platform.Conn, tbl Table) ([]Column, error) {
	var q string
	switch conn.Adapter().Catalog {
	case platform.CatalogSQLite:
		// pragma_table_info is a table-valued function, so the probe stays a
		// plain SELECT and passes the read-only gate.
		q = fmt.Sprintf(`SELECT name, type FROM pragma_table_info(%s) ORDER BY cid`,
			platform.QuoteLiteral(tbl.Table))
	default:
		q = fmt.Sprintf(`SELECT column_name, data_type FROM information_schema.columns `+
			`WHERE table_schema = %s AND table_name = %s ORDER BY ordinal_position`,
			platform.QuoteLiteral(tbl.Schema), platform.QuoteLiteral(tbl.Table))
	}

	rows, err := conn.Query(ctx, q)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	cols := make([]Column, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		cols = append(cols, Column{
			Schema:   tbl.Schema,
			Table:    tbl.Table,
			Column:   asString(row[0]),
			DataType: asString(row[1]),
		})
	}
	return cols, nil
}

func filterTables(tables []Table, opts Options) []Table {
	if len(opts.Schemas) == 0 && len(opts.Tables) == 0 {
		return tables
	}

	schemaSet := make(map[string]bool, len(opts.Schemas))
	for _, s := range opts.Schemas {
		schemaSet[s] = true
	}
	tableSet := make(map[string]bool, len(opts.Tables))
	for _, t := range opts.Tables {
		tableSet[strings.ToLower(t)] = true
	}

	var kept []Table
	for _, tbl := range tables {
		if len(schemaSet) > 0 && !schemaSet[tbl.Schema] {
			continue
		}
		if len(tableSet) > 0 &&
			!tableSet[strings.ToLower(tbl.Table)] &&
			!tableSet[strings.ToLower(tbl.FullName)] {
			continue
		}
		kept = append(kept, tbl)
	}
	return kept
}

func asString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
