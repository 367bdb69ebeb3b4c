package platform

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/jmoiron/sqlx"
	"github.com/snowflakedb/gosnowflake"
)

// snowflakeParams holds everything needed to build a snowflake DSN. Fields
// are filled from the URI first, then from SNOWFLAKE_* environment variables,
// then from the named-connection file.
type snowflakeParams struct {
	Account       string
	User          string
	Password      string
	Database      string
	Schema        string
	Warehouse     string
	Role          string
	Authenticator string
}

func snowflakeAdapter(scheme string) *Adapter {
	a := &Adapter{
		Scheme:       scheme,
		Name:         "snowflake",
		DefaultSuite: "common_snowflake",
		Catalog:      CatalogInformationSchema,
		Example:      scheme + "://connection:MY_NAMED_CONNECTION",
		Quote:        QuoteIdent,
	}
	a.Connect = func(ctx context.Context, uri string) (*Conn, error) {
		params, err := parseSnowflakeURI(scheme, uri)
		if err != nil {
			return nil, err
		}
		dsn, err := snowflakeDSN(params)
		if err != nil {
			return nil, err
		}
		db, err := sqlx.ConnectContext(ctx, "snowflake", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to snowflake: %w", err)
		}
		return newConn(db, a, "snowflake"), nil
	}
	return a
}

// parseSnowflakeURI resolves connection parameters from the three accepted
// sources: the URI itself, SNOWFLAKE_* environment variables, and the
// named-connection file referenced by snowflake://connection:NAME.
func parseSnowflakeURI(scheme, uri string) (*snowflakeParams, error) {
	rest := strings.TrimPrefix(uri, scheme+"://")
	p := &snowflakeParams{}

	if name, ok := strings.CutPrefix(rest, "connection:"); ok {
		name = strings.TrimRight(name, "/")
		loaded, err := loadNamedConnection(namedConnectionPath(), name)
		if err != nil {
			return nil, err
		}
		p = loaded
	} else if rest != "" {
		if err := parseSnowflakeRest(rest, p); err != nil {
			return nil, err
		}
	}

	applySnowflakeEnv(p)

	if p.Account == "" {
		return nil, fmt.Errorf("snowflake account is required: set it in the URI host, SNOWFLAKE_ACCOUNT, or %s", namedConnectionPath())
	}
	if p.User == "" {
		return nil, fmt.Errorf("snowflake user is required: set it in the URI userinfo, SNOWFLAKE_USER, or %s", namedConnectionPath())
	}
	if p.Password == "" && !passwordlessAuthenticator(p.Authenticator) {
		return nil, fmt.Errorf("snowflake password is required: set it in the URI, SNOWFLAKE_PASSWORD, or %s (or use a passwordless authenticator such as externalbrowser)", namedConnectionPath())
	}
	return p, nil
}

// parseSnowflakeRest splits [user[:password]@]account[/db[/schema]][?k=v...]
// by hand: the host slot may hold values url.Parse refuses.
func parseSnowflakeRest(rest string, p *snowflakeParams) error {
	var query string
	if i := strings.Index(rest, "?"); i >= 0 {
		rest, query = rest[:i], rest[i+1:]
	}

	if at := strings.LastIndex(rest, "@"); at >= 0 {
		userinfo := rest[:at]
		rest = rest[at+1:]
		if colon := strings.Index(userinfo, ":"); colon >= 0 {
			p.User = percentDecode(userinfo[:colon])
			p.Password = percentDecode(userinfo[colon+1:])
		} else {
			p.User = percentDecode(userinfo)
		}
	}

	segments := strings.Split(rest, "/")
	p.Account = segments[0]
	if len(segments) > 1 && segments[1] != "" {
		p.Database = percentDecode(segments[1])
	}
	if len(segments) > 2 && segments[2] != "" {
		p.Schema = percentDecode(segments[2])
	}

	if query != "" {
		values, err := url.ParseQuery(query)
		if err != nil {
			return fmt.Errorf("failed to parse snowflake URI query: %w", err)
		}
		if v := values.Get("warehouse"); v != "" {
			p.Warehouse = v
		}
		if v := values.Get("role"); v != "" {
			p.Role = v
		}
		if v := values.Get("authenticator"); v != "" {
			p.Authenticator = v
		}
		if v := values.Get("database"); v != "" {
			p.Database = v
		}
		if v := values.Get("schema"); v != "" {
			p.Schema = v
		}
	}
	return nil
}

func percentDecode(s string) string {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

func applySnowflakeEnv(p *snowflakeParams) {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv(key)
		}
	}
	fill(&p.Account, "SNOWFLAKE_ACCOUNT")
	fill(&p.User, "SNOWFLAKE_USER")
	fill(&p.Password, "SNOWFLAKE_PASSWORD")
	fill(&p.Authenticator, "SNOWFLAKE_AUTHENTICATOR")
	fill(&p.Database, "SNOWFLAKE_DATABASE")
	fill(&p.Schema, "SNOWFLAKE_SCHEMA")
	fill(&p.Warehouse, "SNOWFLAKE_WAREHOUSE")
}

// passwordlessAuthenticator reports whether the configured authenticator
// waives the password requirement (SSO, key pair, OAuth, Okta).
func passwordlessAuthenticator(auth string) bool {
	switch strings.ToLower(auth) {
	case "externalbrowser", "snowflake_jwt", "oauth":
		return true
	}
	return strings.HasPrefix(strings.ToLower(auth), "https://")
}

func snowflakeDSN(p *snowflakeParams) (string, error) {
	cfg := &gosnowflake.Config{
		Account:   p.Account,
		User:      p.User,
		Password:  p.Password,
		Database:  p.Database,
		Schema:    p.Schema,
		Warehouse: p.Warehouse,
		Role:      p.Role,
	}

	switch auth := strings.ToLower(p.Authenticator); {
	case auth == "externalbrowser":
		cfg.Authenticator = gosnowflake.AuthTypeExternalBrowser
	case auth == "snowflake_jwt":
		cfg.Authenticator = gosnowflake.AuthTypeJwt
	case auth == "oauth":
		cfg.Authenticator = gosnowflake.AuthTypeOAuth
	case strings.HasPrefix(auth, "https://"):
		oktaURL, err := url.Parse(p.Authenticator)
		if err != nil {
			return "", fmt.Errorf("failed to parse okta authenticator URL: %w", err)
		}
		cfg.Authenticator = gosnowflake.AuthTypeOkta
		cfg.OktaURL = oktaURL
	}

	dsn, err := gosnowflake.DSN(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to build snowflake DSN: %w", err)
	}
	return dsn, nil
}

// namedConnectionPath returns the location of the snowflake named-connection
// file.
func namedConnectionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".snowflake", "connections.toml")
	}
	return filepath.Join(home, ".snowflake", "connections.toml")
}

// loadNamedConnection reads one named section from a connections.toml file.
// Both flat [name] sections and nested [connections.name] sections are
// accepted.
func loadNamedConnection(path, name string) (*snowflakeParams, error) {
	var raw map[string]interface{}
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("failed to read named connections file %s: %w", path, err)
	}

	section, ok := raw[name].(map[string]interface{})
	if !ok {
		if nested, found := raw["connections"].(map[string]interface{}); found {
			section, ok = nested[name].(map[string]interface{})
		}
	}
	if !ok {
		return nil, fmt.Errorf("named connection %q not found in %s", name, path)
	}

	str := func(key string) string {
		if v, found := section[key].(string); found {
			return v
		}
		return ""
	}
	return &snowflakeParams{
		Account:       str("account"),
		User:          str("user"),
		Password:      str("password"),
		Database:      str("database"),
		Schema:        str("schema"),
		Warehouse:     str("warehouse"),
		Role:          str("role"),
		Authenticator: str("authenticator"),
	}, nil
}
