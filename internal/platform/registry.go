package platform

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// CatalogKind selects the discovery strategy for an adapter.
type CatalogKind int

const (
	// CatalogInformationSchema introspects the information_schema views.
	CatalogInformationSchema CatalogKind = iota
	// CatalogSQLite introspects sqlite_master and pragma_table_info.
	CatalogSQLite
)

// Adapter binds a URI scheme to a backend: how to connect, how to quote
// identifiers for the dialect, which suite runs by default, and which
// catalog strategy discovery should use.
type Adapter struct {
	Scheme       string
	Name         string
	DefaultSuite string
	Catalog      CatalogKind
	Example      string // sample connection URI shown by `aird init`
	Quote        func(ident string) string
	Connect      func(ctx context.Context, uri string) (*Conn, error)
}

// UnknownSchemeError reports a connection URI whose scheme has no registered
// adapter. It is a usage error at the CLI boundary.
type UnknownSchemeError struct {
	Scheme    string
	Supported []string
}

func (e *UnknownSchemeError) Error() string {
	return fmt.Sprintf("unsupported platform scheme %q (supported: %s)", e.Scheme, strings.Join(e.Supported, ", "))
}

// Registry maps URI schemes to adapters. It is populated once at startup and
// read-only afterwards; dynamic re-registration is not supported.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]*Adapter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]*Adapter)}
}

// DefaultRegistry returns a registry with every built-in adapter registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(sqliteAdapter("sqlite"))
	r.Register(postgresAdapter("postgres"))
	r.Register(postgresAdapter("postgresql"))
	r.Register(mysqlAdapter("mysql"))
	r.Register(sqlserverAdapter("sqlserver"))
	r.Register(sqlserverAdapter("mssql"))
	r.Register(snowflakeAdapter("snowflake"))
	return r
}

// Register adds an adapter under its scheme. Registering a scheme twice is a
// programming error.
func (r *Registry) Register(a *Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	scheme := strings.ToLower(a.Scheme)
	if _, exists := r.adapters[scheme]; exists {
		panic(fmt.Sprintf("platform adapter for scheme %s is already registered", scheme))
	}
	r.adapters[scheme] = a
}

// Lookup returns the adapter registered for a scheme.
func (r *Registry) Lookup(scheme string) (*Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[strings.ToLower(scheme)]
	if !ok {
		return nil, &UnknownSchemeError{Scheme: scheme, Supported: r.schemesLocked()}
	}
	return a, nil
}

// Resolve extracts the scheme from a connection URI and looks up its adapter.
func (r *Registry) Resolve(uri string) (*Adapter, error) {
	scheme := uri
	if i := strings.Index(uri, "://"); i >= 0 {
		scheme = uri[:i]
	}
	return r.Lookup(scheme)
}

// Open resolves the URI's adapter and connects through it.
func (r *Registry) Open(ctx context.Context, uri string) (*Conn, error) {
	adapter, err := r.Resolve(uri)
	if err != nil {
		return nil, err
	}
	return adapter.Connect(ctx, uri)
}

// Schemes returns the registered schemes, sorted.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.schemesLocked()
}

func (r *Registry) schemesLocked() []string {
	schemes := make([]string, 0, len(r.adapters))
	for s := range r.adapters {
		schemes = append(schemes, s)
	}
	sort.Strings(schemes)
	return schemes
}
