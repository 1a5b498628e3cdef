// Package depends prints the dependency tree of the build model: per
// component the build task, the artifacts its dependencies produce, the
// external libraries it links, and the use children recursively.
package depends

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/benpapworth/waftools/internal/buildmodel"
	"github.com/benpapworth/waftools/internal/logfields"
)

// Print writes the dependency trees of the selected components.
func Print(w io.Writer, m *buildmodel.Model, selection string) error {
	targets, err := m.Targets(selection)
	if err != nil {
		return err
	}

	for _, c := range targets {
		fmt.Fprintf(w, "depends tree(%s):\n", c.Name)
		printTree(w, m, c, "    ")
	}
	printLegend(w)
	return nil
}

// printTree renders one component node. The padding carries the '|'
// continuation markers of the enclosing levels; its last column is
// replaced by the branch marker.
func printTree(w io.Writer, m *buildmodel.Model, c *buildmodel.Component, padding string) {
	fmt.Fprintf(w, "%s+-%s (t)\n", padding[:len(padding)-1], c.Name)
	padding += " "

	for _, use := range c.Use {
		dep, ok := m.Component(use)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%s+-%s (n)\n", padding, m.ArtifactName(dep))
		fmt.Fprintf(w, "%s|    (%s)\n", padding, m.ArtifactPath(dep))
	}

	for _, lib := range c.Libs {
		fmt.Fprintf(w, "%s+-%s (lib)\n", padding, lib)
	}

	children := childComponents(m, c)
	for i, child := range children {
		fmt.Fprintf(w, "%s|\n", padding)
		if i == len(children)-1 {
			printTree(w, m, child, padding+" ")
		} else {
			printTree(w, m, child, padding+"|")
		}
	}
}

// childComponents resolves the use references, skipping unknown names
// with a warning.
func childComponents(m *buildmodel.Model, c *buildmodel.Component) []*buildmodel.Component {
	var children []*buildmodel.Component
	for _, use := range c.Use {
		child, ok := m.Component(use)
		if !ok {
			slog.Warn("Skipping dependency; component does not exist", logfields.Component(use))
			continue
		}
		children = append(children, child)
	}
	return children
}

func printLegend(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "DESCRIPTION")
	fmt.Fprintln(w, "t   = build task")
	fmt.Fprintln(w, "n   = node (file/directory/build output)")
	fmt.Fprintln(w, "lib = external library")
	fmt.Fprintln(w)
}
