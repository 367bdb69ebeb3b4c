package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// Target is one entry of a connection manifest: a URI plus optional scope.
type Target struct {
	Connection string
	Schemas    []string
	Tables     []string
}

// LoadManifest reads a connection manifest (YAML or JSON; YAML parses both).
// The root may be a plain list or an object with an entries/targets/
// connections list. Each entry is either a connection string or an object
// with a connection (or env) key and optional targets scope; `env:VAR`
// values expand from the environment and unset variables drop the entry.
// A missing file yields an empty list.
func LoadManifest(path string) ([]Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
	default:
		return nil, fmt.Errorf("manifest must be YAML or JSON (.yaml, .yml or .json): %s", path)
	}

	var root interface{}
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return parseManifest(root), nil
}

func parseManifest(root interface{}) []Target {
	var entries []interface{}
	switch v := root.(type) {
	case []interface{}:
		entries = v
	case map[string]interface{}:
		for _, key := range []string{"entries", "targets", "connections"} {
			if list, ok := v[key].([]interface{}); ok {
				entries = list
				break
			}
		}
	}

	var targets []Target
	for _, entry := range entries {
		switch e := entry.(type) {
		case string:
			if conn := ExpandConnection(e); conn != "" {
				targets = append(targets, Target{Connection: conn})
			}
		case map[string]interface{}:
			conn := entryConnection(e)
			if conn == "" {
				continue
			}
			targets = append(targets, entryTargets(conn, e)...)
		}
	}
	return targets
}

func entryConnection(entry map[string]interface{}) string {
	raw, ok := entry["connection"].(string)
	if !ok || raw == "" {
		raw, _ = entry["env"].(string)
	}
	if raw == "" {
		return ""
	}
	return ExpandConnection(raw)
}

// entryTargets resolves an entry's scope. A flat targets object yields one
// target; a nested targets list yields one target per slice, all sharing the
// entry's connection.
func entryTargets(conn string, entry map[string]interface{}) []Target {
	raw, ok := entry["targets"]
	if !ok {
		return []Target{{Connection: conn}}
	}
	switch scope := raw.(type) {
	case map[string]interface{}:
		return []Target{{
			Connection: conn,
			Schemas:    stringList(scope["schemas"]),
			Tables:     stringList(scope["tables"]),
		}}
	case []interface{}:
		var out []Target
		for _, item := range scope {
			slice, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			out = append(out, Target{
				Connection: conn,
				Schemas:    stringList(slice["schemas"]),
				Tables:     stringList(slice["tables"]),
			})
		}
		return out
	default:
		return []Target{{Connection: conn}}
	}
}

func stringList(v interface{}) []string {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
