package platform

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	_ "github.com/denisenkom/go-mssqldb" // sqlserver driver
)

func sqlserverAdapter(scheme string) *Adapter {
	a := &Adapter{
		Scheme:       scheme,
		Name:         "sqlserver",
		DefaultSuite: "common_sqlserver",
		Catalog:      CatalogInformationSchema,
		Example:      scheme + "://user:password@localhost:1433/mydb",
		Quote:        QuoteIdent,
	}
	a.Connect = func(ctx context.Context, uri string) (*Conn, error) {
		// go-mssqldb parses sqlserver:// URLs natively; mssql:// is an alias.
		dsn := uri
		if scheme != "sqlserver" {
			dsn = "sqlserver://" + strings.TrimPrefix(uri, scheme+"://")
		}
		db, err := sqlx.ConnectContext(ctx, "sqlserver", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to sqlserver: %w", err)
		}
		return newConn(db, a, "sqlserver"), nil
	}
	return a
}
