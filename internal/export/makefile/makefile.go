// Package makefile exports the build model as a tree of GNU makefiles:
// one root makefile dispatching into one self-contained makefile per
// component.
package makefile

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/benpapworth/waftools/internal/buildmodel"
	"github.com/benpapworth/waftools/internal/errors"
	"github.com/benpapworth/waftools/internal/export"
)

// Exporter emits GNU makefiles.
type Exporter struct{}

// New creates the makefile exporter.
func New() *Exporter { return &Exporter{} }

// Name returns the registry name of this format.
func (e *Exporter) Name() string { return "makefile" }

var funcs = template.FuncMap{
	"join": strings.Join,
}

var (
	rootTmpl    = template.Must(template.New("root").Funcs(funcs).Parse(rootTemplate))
	programTmpl = template.Must(template.New("program").Funcs(funcs).Parse(programTemplate))
	stlibTmpl   = template.Must(template.New("stlib").Funcs(funcs).Parse(staticLibTemplate))
	shlibTmpl   = template.Must(template.New("shlib").Funcs(funcs).Parse(sharedLibTemplate))
)

type rootData struct {
	Meta    export.Meta
	Prefix  string
	Out     string
	Modules []string
	Paths   []string
	Deps    []string
}

type childData struct {
	Meta           export.Meta
	Bin            string
	Lib            string
	VNum           string
	SrcExt         string
	CompilerVar    string
	FlagsVar       string
	Flags          string
	LinkFlags      string
	Defines        string
	ARFlags        string
	Sources        []string
	Includes       []string
	LibPathsStatic []string
	LibPathsShared []string
	LibsStatic     string
	LibsShared     string
}

// Export writes the root makefile and one makefile per component.
func (e *Exporter) Export(m *buildmodel.Model, meta export.Meta) ([]string, error) {
	var written []string

	root := rootData{
		Meta:   meta,
		Prefix: meta.Prefix,
		Out:    meta.Out,
	}
	// Locations below the project top are referenced through make
	// variables so the tree stays relocatable.
	if rest, ok := strings.CutPrefix(meta.Out, meta.Top); ok {
		root.Out = "$(TOP)" + rest
	}
	if rest, ok := strings.CutPrefix(meta.Prefix, meta.Top); ok {
		root.Prefix = "$(CURDIR)" + rest
	}

	for i := range m.Components {
		c := &m.Components[i]
		root.Modules = append(root.Modules, c.Name)
		root.Paths = append(root.Paths, fmt.Sprintf("%s;%s", c.Name, c.Dir))
		root.Deps = append(root.Deps, fmt.Sprintf("%s;%s", c.Name, strings.Join(c.Use, ",")))

		content, err := e.childContent(m, meta, c)
		if err != nil {
			return written, err
		}
		rel := c.Dir + "/Makefile"
		if err := export.WriteFile(meta.Top, rel, content); err != nil {
			return written, errors.WrapError(err, errors.CategoryExport, "failed to write makefile")
		}
		written = append(written, rel)
	}

	var buf strings.Builder
	if err := rootTmpl.Execute(&buf, root); err != nil {
		return written, errors.WrapError(err, errors.CategoryExport, "failed to render root makefile")
	}
	if err := export.WriteFile(meta.Top, "Makefile", buf.String()); err != nil {
		return written, errors.WrapError(err, errors.CategoryExport, "failed to write root makefile")
	}
	written = append(written, "Makefile")
	return written, nil
}

// Cleanup removes the emitted makefiles.
func (e *Exporter) Cleanup(m *buildmodel.Model, meta export.Meta) error {
	for i := range m.Components {
		if err := export.RemoveFile(meta.Top, m.Components[i].Dir+"/Makefile"); err != nil {
			return err
		}
	}
	return export.RemoveFile(meta.Top, "Makefile")
}

func (e *Exporter) childContent(m *buildmodel.Model, meta export.Meta, c *buildmodel.Component) (string, error) {
	data := childData{
		Meta:      meta,
		VNum:      c.VNum,
		SrcExt:    ".c",
		Sources:   c.Sources,
		Includes:  c.Includes,
		Defines:   strings.Join(c.Defines, " "),
		LinkFlags: strings.Join(c.LinkFlags, " "),
		ARFlags:   strings.Join(m.Toolchain.ARFlags, " "),
	}
	if len(data.Includes) == 0 {
		data.Includes = []string{"."}
	}

	if c.IsCXX() {
		data.SrcExt = ".cpp"
		data.CompilerVar = "CXX"
		data.FlagsVar = "CXXFLAGS"
		data.Flags = strings.Join(c.CXXFlags, " ")
	} else {
		data.CompilerVar = "CC"
		data.FlagsVar = "CFLAGS"
		data.Flags = strings.Join(c.CFlags, " ")
	}

	// Sibling components contribute link libraries: static archives via
	// -Bstatic, shared objects via -Bdynamic together with the external
	// libraries of the component itself.
	data.LibsShared = strings.Join(c.Libs, " ")
	data.LibPathsShared = append(data.LibPathsShared, c.LibPaths...)
	for _, use := range c.Use {
		dep, ok := m.Component(use)
		if !ok {
			continue
		}
		path := "$(TOP)/" + m.Project.Out + "/" + dep.Dir
		switch dep.Kind {
		case buildmodel.KindStaticLib:
			data.LibsStatic = strings.TrimSpace(data.LibsStatic + " " + dep.Name)
			data.LibPathsStatic = append(data.LibPathsStatic, path)
		case buildmodel.KindSharedLib:
			data.LibsShared = strings.TrimSpace(data.LibsShared + " " + dep.Name)
			data.LibPathsShared = append(data.LibPathsShared, path)
		}
	}

	var tmpl *template.Template
	switch c.Kind {
	case buildmodel.KindProgram:
		data.Bin = m.ArtifactName(c)
		tmpl = programTmpl
	case buildmodel.KindStaticLib:
		data.Lib = m.ArtifactName(c)
		tmpl = stlibTmpl
	case buildmodel.KindSharedLib:
		data.Lib = m.ArtifactName(c)
		tmpl = shlibTmpl
	default:
		return "", errors.New(errors.CategoryExport, errors.SeverityError, "unsupported component kind").
			WithContext("component", c.Name).
			WithContext("kind", string(c.Kind))
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.WrapError(err, errors.CategoryExport, "failed to render makefile")
	}
	return buf.String(), nil
}
