package export

import (
	"sort"

	"github.com/benpapworth/waftools/internal/errors"
)

// Registry manages the available export formats.
type Registry struct {
	exporters map[string]Exporter
}

// NewRegistry creates an empty format registry.
func NewRegistry() *Registry {
	return &Registry{exporters: make(map[string]Exporter)}
}

// Register adds an exporter to the registry.
func (r *Registry) Register(e Exporter) {
	r.exporters[e.Name()] = e
}

// Get retrieves an exporter by format name.
func (r *Registry) Get(name string) (Exporter, bool) {
	e, exists := r.exporters[name]
	return e, exists
}

// List returns all registered format names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.exporters))
	for name := range r.exporters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select resolves the requested format names to exporters. An unknown
// format is an error naming the available ones.
func (r *Registry) Select(names []string) ([]Exporter, error) {
	selected := make([]Exporter, 0, len(names))
	for _, name := range names {
		e, ok := r.exporters[name]
		if !ok {
			return nil, errors.New(errors.CategoryExport, errors.SeverityError, "unknown export format").
				WithContext("format", name).
				WithContext("available", r.List())
		}
		selected = append(selected, e)
	}
	return selected, nil
}
