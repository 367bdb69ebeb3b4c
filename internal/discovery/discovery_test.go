package discovery

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/aird-ai/aird/internal/platform"
)

// seedConn opens an in-memory sqlite source with a small fixed schema.
func seedConn(t *testing.T) *platform.Conn {
	t.Helper()

	raw, err := sql.Open("sqlite", "file:discovery_test?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })

	stmts := []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT, created_at TEXT)`,
		`CREATE TABLE orders (id INTEGER PRIMARY KEY, user_id INTEGER, amount REAL)`,
		`CREATE TABLE audit_log (id INTEGER PRIMARY KEY, note TEXT)`,
	}
	for _, stmt := range stmts {
		_, err := raw.Exec(stmt)
		require.NoError(t, err)
	}

	conn, err := platform.DefaultRegistry().Open(context.Background(),
		"sqlite://file:discovery_test?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestDiscoverSQLite(t *testing.T) {
	conn := seedConn(t)

	inv, err := Discover(context.Background(), conn, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"main"}, inv.Schemas)
	require.Len(t, inv.Tables, 3)
	assert.Equal(t, "audit_log", inv.Tables[0].Table)
	assert.Equal(t, "orders", inv.Tables[1].Table)
	assert.Equal(t, "users", inv.Tables[2].Table)
	assert.Equal(t, "main.users", inv.Tables[2].FullName)

	var userCols []Column
	for _, c := range inv.Columns {
		if c.Table == "users" {
			userCols = append(userCols, c)
		}
	}
	require.Len(t, userCols, 3)
	assert.Equal(t, "id", userCols[0].Column)
	assert.Equal(t, "email", userCols[1].Column)
	assert.Equal(t, "created_at", userCols[2].Column)
	assert.Equal(t, "INTEGER", userCols[0].DataType)
}

func TestDiscoverTableFilter(t *testing.T) {
	conn := seedConn(t)

	inv, err := Discover(context.Background(), conn, Options{Tables: []string{"USERS"}})
	require.NoError(t, err)
	require.Len(t, inv.Tables, 1)
	assert.Equal(t, "users", inv.Tables[0].Table)

	// schema-qualified names match too
	inv, err = Discover(context.Background(), conn, Options{Tables: []string{"main.orders"}})
	require.NoError(t, err)
	require.Len(t, inv.Tables, 1)
	assert.Equal(t, "orders", inv.Tables[0].Table)
}

func TestDiscoverSchemaFilter(t *testing.T) {
	conn := seedConn(t)

	inv, err := Discover(context.Background(), conn, Options{Schemas: []string{"main"}})
	require.NoError(t, err)
	assert.Len(t, inv.Tables, 3)

	inv, err = Discover(context.Background(), conn, Options{Schemas: []string{"analytics"}})
	require.NoError(t, err)
	assert.Empty(t, inv.Tables)
	assert.Empty(t, inv.Schemas)
}

func TestFilterTablesNoFilters(t *testing.T) {
	in := []Table{{Schema: "a", Table: "t", FullName: "a.t"}}
	assert.Equal(t, in, filterTables(in, Options{}))
}
