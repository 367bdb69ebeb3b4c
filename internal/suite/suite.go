// Package suite loads declarative probe-suite documents, resolves suite
// extension, and expands templated tests against a discovered inventory.
package suite

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// TestDef is one probe definition as written in a suite document. Exactly one
// of Query and QueryTemplate is set.
type TestDef struct {
	ID            string `yaml:"id" json:"id"`
	Factor        string `yaml:"factor" json:"factor"`
	Requirement   string `yaml:"requirement" json:"requirement"`
	TargetType    string `yaml:"target_type" json:"target_type"`
	Query         string `yaml:"query,omitempty" json:"query,omitempty"`
	QueryTemplate string `yaml:"query_template,omitempty" json:"query_template,omitempty"`
	Description   string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Document is the top-level shape of one suite YAML file.
type Document struct {
	SuiteName   string    `yaml:"suite_name" json:"suite_name"`
	Platform    string    `yaml:"platform,omitempty" json:"platform,omitempty"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Extends     []string  `yaml:"extends,omitempty" json:"extends,omitempty"`
	Tests       []TestDef `yaml:"tests,omitempty" json:"tests,omitempty"`
}

// UnknownSuiteError reports a suite name with no registered tests.
type UnknownSuiteError struct {
	Name      string
	Available []string
}

func (e *UnknownSuiteError) Error() string {
	return fmt.Sprintf("unknown suite %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// Registry accumulates registered suites. Registration is additive: multiple
// documents may contribute tests to the same suite name, appended in load
// order. Extension is resolved eagerly at registration, so the stored test
// list for a name is already flattened.
type Registry struct {
	mu       sync.RWMutex
	tests    map[string][]TestDef
	parents  map[string][]string
	platform map[string]string
}

// NewRegistry returns an empty suite registry.
func NewRegistry() *Registry {
	return &Registry{
		tests:    make(map[string][]TestDef),
		parents:  make(map[string][]string),
		platform: make(map[string]string),
	}
}

// Register merges a validated document into the registry. Parents named in
// extends must already be registered; their flattened tests are concatenated
// ahead of the document's own tests. A document that would close an extension
// cycle is rejected whole and the registry is left unchanged.
func (r *Registry) Register(doc *Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cycle := r.findCycle(doc.SuiteName, doc.Extends); cycle != nil {
		return fmt.Errorf("suite extension cycle detected: %s", strings.Join(cycle, " -> "))
	}

	var merged []TestDef
	for _, parent := range doc.Extends {
		parentTests, ok := r.tests[parent]
		if !ok {
			return fmt.Errorf("suite %q extends %q which is not registered (suite files load in sorted order)",
				doc.SuiteName, parent)
		}
		merged = append(merged, parentTests...)
	}
	merged = append(merged, doc.Tests...)

	r.tests[doc.SuiteName] = append(r.tests[doc.SuiteName], merged...)
	for _, parent := range doc.Extends {
		if !contains(r.parents[doc.SuiteName], parent) {
			r.parents[doc.SuiteName] = append(r.parents[doc.SuiteName], parent)
		}
	}
	if doc.Platform != "" {
		r.platform[doc.SuiteName] = doc.Platform
	}
	return nil
}

// findCycle walks the extension graph from each proposed parent looking for a
// path back to name. The committed graph is acyclic, so the walk terminates.
// The returned slice is the cycle path, name first and last.
func (r *Registry) findCycle(name string, extends []string) []string {
	var path []string
	var visit func(node string) bool
	visit = func(node string) bool {
		path = append(path, node)
		if node == name {
			return true
		}
		for _, p := range r.parents[node] {
			if visit(p) {
				return true
			}
		}
		path = path[:len(path)-1]
		return false
	}

	for _, parent := range extends {
		path = path[:0]
		if visit(parent) {
			return append([]string{name}, path...)
		}
	}
	return nil
}

// Resolve returns a copy of the flattened test list registered under name.
func (r *Registry) Resolve(name string) ([]TestDef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tests, ok := r.tests[name]
	if !ok {
		return nil, &UnknownSuiteError{Name: name, Available: r.namesLocked()}
	}
	out := make([]TestDef, len(tests))
	copy(out, tests)
	return out, nil
}

// Has reports whether a suite name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tests[name]
	return ok
}

// Names returns the registered suite names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.tests))
	for n := range r.tests {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Info summarises one registered suite for display.
type Info struct {
	Name     string
	Platform string
	Extends  []string
	Tests    int
}

// Describe returns a display summary of every registered suite, sorted by
// name.
func (r *Registry) Describe() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.tests))
	for _, name := range r.namesLocked() {
		infos = append(infos, Info{
			Name:     name,
			Platform: r.platform[name],
			Extends:  append([]string(nil), r.parents[name]...),
			Tests:    len(r.tests[name]),
		})
	}
	return infos
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
