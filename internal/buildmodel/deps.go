package buildmodel

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/benpapworth/waftools/internal/logfields"
)

// Deps returns the names of all components the named component depends
// on, following use references transitively. Unknown references are
// skipped with a warning, and cycles terminate. The result is sorted.
func (m *Model) Deps(name string) []string {
	visited := make(map[string]bool)
	m.walkDeps(name, visited)
	delete(visited, name)

	deps := make([]string, 0, len(visited))
	for dep := range visited {
		deps = append(deps, dep)
	}
	sort.Strings(deps)
	return deps
}

func (m *Model) walkDeps(name string, visited map[string]bool) {
	if visited[name] {
		return
	}
	visited[name] = true

	c, ok := m.Component(name)
	if !ok {
		slog.Warn("Skipping dependency; component does not exist", logfields.Component(name))
		return
	}
	for _, use := range c.Use {
		m.walkDeps(use, visited)
	}
}

// Targets resolves a comma-separated component selection to concrete
// components, extended with their transitive dependencies. An empty
// selection returns all components in model order.
func (m *Model) Targets(selection string) ([]*Component, error) {
	if strings.TrimSpace(selection) == "" {
		all := make([]*Component, 0, len(m.Components))
		for i := range m.Components {
			all = append(all, &m.Components[i])
		}
		return all, nil
	}

	wanted := make(map[string]bool)
	for _, name := range strings.Split(selection, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		c, ok := m.Component(name)
		if !ok {
			return nil, errUnknownTarget(name)
		}
		wanted[c.Name] = true
		for _, dep := range m.Deps(c.Name) {
			wanted[dep] = true
		}
	}

	// Preserve model order for a stable output layout.
	targets := make([]*Component, 0, len(wanted))
	for i := range m.Components {
		if wanted[m.Components[i].Name] {
			targets = append(targets, &m.Components[i])
		}
	}
	return targets, nil
}
