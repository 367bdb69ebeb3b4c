package platform

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	_ "github.com/lib/pq" // postgres driver
)

func postgresAdapter(scheme string) *Adapter {
	a := &Adapter{
		Scheme:       scheme,
		Name:         "postgres",
		DefaultSuite: "common_postgres",
		Catalog:      CatalogInformationSchema,
		Example:      scheme + "://user:password@localhost:5432/mydb",
		Quote:        QuoteIdent,
	}
	a.Connect = func(ctx context.Context, uri string) (*Conn, error) {
		// lib/pq parses postgres:// and postgresql:// URLs natively.
		dsn := uri
		if scheme != "postgres" && scheme != "postgresql" {
			dsn = "postgres://" + strings.TrimPrefix(uri, scheme+"://")
		}
		db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return newConn(db, a, "postgres"), nil
	}
	return a
}
