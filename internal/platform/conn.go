package platform

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
)

// readOnlyPattern matches the statement forms probes are allowed to run.
// There is no comment stripping or deeper lexical analysis; defence in depth
// relies on read-only credentials where the backend offers them.
var readOnlyPattern = regexp.MustCompile(`(?i)^\s*(SELECT|DESCRIBE|SHOW|EXPLAIN|WITH)\s`)

// NotReadOnlyError reports a statement refused by the read-only gate before
// it reached the backend.
type NotReadOnlyError struct {
	Query string
}

func (e *NotReadOnlyError) Error() string {
	q := e.Query
	if len(q) > 80 {
		q = q[:80]
	}
	return fmt.Sprintf("query rejected (read-only enforcement): %s", q)
}

// Conn is a live connection to an assessed data source. It owns the raw
// handle, enforces the read-only gate, and translates the canonical ?
// placeholder into whatever the driver expects.
type Conn struct {
	db      *sqlx.DB
	adapter *Adapter
	driver  string
}

func newConn(db *sqlx.DB, adapter *Adapter, driver string) *Conn {
	return &Conn{db: db, adapter: adapter, driver: driver}
}

// Adapter returns the adapter that opened this connection.
func (c *Conn) Adapter() *Adapter { return c.adapter }

// Quote quotes an identifier for the connection's dialect.
func (c *Conn) Quote(ident string) string { return c.adapter.Quote(ident) }

// Query runs a read-only statement and returns every row as an ordered tuple.
// Statements whose first token is not SELECT, WITH, DESCRIBE, SHOW or EXPLAIN
// are refused without touching the driver.
func (c *Conn) Query(ctx context.Context, query string, params ...interface{}) ([][]interface{}, error) {
	if !readOnlyPattern.MatchString(query) {
		return nil, &NotReadOnlyError{Query: strings.TrimSpace(query)}
	}

	bound := query
	if len(params) > 0 {
		bound = sqlx.Rebind(sqlx.BindType(c.driver), query)
	}

	rows, err := c.db.QueryxContext(ctx, bound, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out [][]interface{}
	for rows.Next() {
		row, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return out, nil
}

// Close releases the underlying handle.
func (c *Conn) Close() error {
	return c.db.Close()
}

// QuoteIdent quotes an identifier with double quotes, doubling embedded
// quotes. This is the default rule; adapters override it where the dialect
// differs.
func QuoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func quoteBacktick(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

// QuoteLiteral renders s as a single-quoted SQL string literal with embedded
// quotes doubled. Catalog queries inline names this way because catalog views
// are not uniformly parameterisable.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// AsFloat projects a driver value onto float64. Rows arrive with
// heterogeneous column types; integers, booleans and decimals rendered as
// text or bytes all project, anything else reports false.
func AsFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case int:
		return float64(x), true
	case uint64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case []byte:
		return parseFloatText(string(x))
	case string:
		return parseFloatText(x)
	default:
		return 0, false
	}
}

func parseFloatText(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
