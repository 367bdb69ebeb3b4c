package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistrySchemes(t *testing.T) {
	reg := DefaultRegistry()
	assert.Equal(t, []string{"mssql", "mysql", "postgres", "postgresql", "snowflake", "sqlite", "sqlserver"}, reg.Schemes())
}

func TestLookupUnknownScheme(t *testing.T) {
	reg := DefaultRegistry()

	_, err := reg.Lookup("duckdb")
	require.Error(t, err)

	var unknown *UnknownSchemeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "duckdb", unknown.Scheme)
	assert.Contains(t, err.Error(), "sqlite")
	assert.Contains(t, err.Error(), "postgres")
}

func TestResolve(t *testing.T) {
	reg := DefaultRegistry()

	adapter, err := reg.Resolve("SQLITE://:memory:")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", adapter.Name)
	assert.Equal(t, "common_sqlite", adapter.DefaultSuite)

	_, err = reg.Resolve("no-scheme-at-all")
	require.Error(t, err)
	var unknown *UnknownSchemeError
	assert.ErrorAs(t, err, &unknown)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Adapter{Scheme: "sqlite", Name: "sqlite"})
	assert.Panics(t, func() {
		reg.Register(&Adapter{Scheme: "sqlite", Name: "sqlite"})
	})
}

func TestAdapterAliases(t *testing.T) {
	reg := DefaultRegistry()

	pg, err := reg.Lookup("postgresql")
	require.NoError(t, err)
	assert.Equal(t, "postgres", pg.Name)

	ms, err := reg.Lookup("mssql")
	require.NoError(t, err)
	assert.Equal(t, "sqlserver", ms.Name)
}
