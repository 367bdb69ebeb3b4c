package suite

import (
	"fmt"
	"io/fs"
	"path"
	"sort"

	yaml "gopkg.in/yaml.v3"
)

// LoadDocument validates one suite document and registers it. Validation runs
// before registration so a single bad test keeps the whole file out.
func (r *Registry) LoadDocument(name string, payload []byte) error {
	if err := ValidateYAMLWithSchema(payload); err != nil {
		return fmt.Errorf("suite file %s: %w", name, err)
	}

	var doc Document
	if err := yaml.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("suite file %s: failed to unmarshal YAML: %w", name, err)
	}

	if err := r.Register(&doc); err != nil {
		return fmt.Errorf("suite file %s: %w", name, err)
	}
	return nil
}

// LoadFS loads every .yaml file under dir in sorted name order, so documents
// that extend or append to earlier suites see them already registered. The
// first failing file stops the load; suites registered before it remain.
func (r *Registry) LoadFS(fsys fs.FS, dir string) (int, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read suite definitions: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)

	loaded := 0
	for _, f := range files {
		payload, err := fs.ReadFile(fsys, path.Join(dir, f))
		if err != nil {
			return loaded, fmt.Errorf("failed to read suite file %s: %w", f, err)
		}
		if err := r.LoadDocument(f, payload); err != nil {
			return loaded, err
		}
		loaded++
	}
	return loaded, nil
}
