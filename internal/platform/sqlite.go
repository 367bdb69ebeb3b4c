package platform

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	_ "modernc.org/sqlite" // sqlite driver
)

func sqliteAdapter(scheme string) *Adapter {
	a := &Adapter{
		Scheme:       scheme,
		Name:         "sqlite",
		DefaultSuite: "common_sqlite",
		Catalog:      CatalogSQLite,
		Example:      scheme + ":///path/to/data.db",
		Quote:        QuoteIdent,
	}
	a.Connect = func(ctx context.Context, uri string) (*Conn, error) {
		path := sqlitePath(scheme, uri)
		db, err := sqlx.ConnectContext(ctx, "sqlite", path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
		}
		// The embedded engine is not safe for concurrent statements on one
		// handle; probes run sequentially anyway.
		db.SetMaxOpenConns(1)
		return newConn(db, a, "sqlite"), nil
	}
	return a
}

// sqlitePath extracts the filesystem path (or :memory:) from a sqlite URI.
// sqlite:///abs/path keeps the leading slash, sqlite://rel/path is relative,
// and an empty or :memory: remainder selects an in-memory database.
func sqlitePath(scheme, uri string) string {
	rest := strings.TrimPrefix(uri, scheme+"://")
	if rest == "" || rest == ":memory:" {
		return ":memory:"
	}
	return rest
}
