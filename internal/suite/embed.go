package suite

import (
	"embed"
)

//go:embed definitions
var definitionsFS embed.FS

// Default returns a registry loaded with the bundled suite definitions, one
// common_<platform> suite per supported dialect.
func Default() (*Registry, error) {
	r := NewRegistry()
	if _, err := r.LoadFS(definitionsFS, "definitions"); err != nil {
		return nil, err
	}
	return r, nil
}
