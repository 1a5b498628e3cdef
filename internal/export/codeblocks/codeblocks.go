// Package codeblocks exports the build model as a Code::Blocks workspace
// with one project file per compiled component. The workspace is written
// to the top level directory, each .cbp next to the component it builds.
package codeblocks

import (
	"encoding/xml"
	"path/filepath"
	"strings"

	"github.com/benpapworth/waftools/internal/buildmodel"
	"github.com/benpapworth/waftools/internal/errors"
	"github.com/benpapworth/waftools/internal/export"
)

// WorkspaceFile is the fixed name of the emitted workspace.
const WorkspaceFile = "codeblocks.workspace"

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes" ?>` + "\n"

// Exporter emits Code::Blocks workspace and project files.
type Exporter struct{}

// New creates the Code::Blocks exporter.
func New() *Exporter { return &Exporter{} }

// Name returns the registry name of this format.
func (e *Exporter) Name() string { return "codeblocks" }

type workspaceDoc struct {
	XMLName   xml.Name    `xml:"CodeBlocks_workspace_file"`
	Workspace workspaceEl `xml:"Workspace"`
}

type workspaceEl struct {
	Title    string      `xml:"title,attr"`
	Projects []wsProject `xml:"Project"`
}

type wsProject struct {
	Filename string     `xml:"filename,attr"`
	Depends  []wsDepend `xml:"Depends"`
}

type wsDepend struct {
	Filename string `xml:"filename,attr"`
}

type projectDoc struct {
	XMLName     xml.Name    `xml:"CodeBlocks_project_file"`
	FileVersion fileVersion `xml:"FileVersion"`
	Project     projectEl   `xml:"Project"`
}

type fileVersion struct {
	Major int `xml:"major,attr"`
	Minor int `xml:"minor,attr"`
}

type projectEl struct {
	Options []attrOption `xml:"Option"`
	Build   buildEl      `xml:"Build"`
	Units   []unitEl     `xml:"Unit"`
}

type attrOption struct {
	Title        string `xml:"title,attr,omitempty"`
	PchMode      string `xml:"pch_mode,attr,omitempty"`
	Compiler     string `xml:"compiler,attr,omitempty"`
	Output       string `xml:"output,attr,omitempty"`
	ObjectOutput string `xml:"object_output,attr,omitempty"`
	Type         string `xml:"type,attr,omitempty"`
}

type buildEl struct {
	Target targetEl `xml:"Target"`
}

type targetEl struct {
	Title    string       `xml:"title,attr"`
	Options  []attrOption `xml:"Option"`
	Compiler addList      `xml:"Compiler"`
	Linker   addList      `xml:"Linker"`
}

type addList struct {
	Adds []addEl `xml:"Add"`
}

type addEl struct {
	Option    string `xml:"option,attr,omitempty"`
	Directory string `xml:"directory,attr,omitempty"`
	Library   string `xml:"library,attr,omitempty"`
}

type unitEl struct {
	Filename string `xml:"filename,attr"`
}

// Export writes the workspace and one .cbp per component.
func (e *Exporter) Export(m *buildmodel.Model, meta export.Meta) ([]string, error) {
	var written []string

	ws := workspaceDoc{Workspace: workspaceEl{Title: meta.AppName}}
	projectFiles := make(map[string]string, len(m.Components))
	for i := range m.Components {
		c := &m.Components[i]
		projectFiles[c.Name] = c.Dir + "/" + c.Name + ".cbp"
	}

	for i := range m.Components {
		c := &m.Components[i]

		content, err := e.projectContent(m, c)
		if err != nil {
			return written, err
		}
		rel := projectFiles[c.Name]
		if err := export.WriteFile(meta.Top, rel, content); err != nil {
			return written, errors.WrapError(err, errors.CategoryExport, "failed to write project file")
		}
		written = append(written, rel)

		proj := wsProject{Filename: rel}
		for _, use := range c.Use {
			if dep, ok := projectFiles[use]; ok {
				proj.Depends = append(proj.Depends, wsDepend{Filename: dep})
			}
		}
		ws.Workspace.Projects = append(ws.Workspace.Projects, proj)
	}

	content, err := marshal(ws)
	if err != nil {
		return written, err
	}
	if err := export.WriteFile(meta.Top, WorkspaceFile, content); err != nil {
		return written, errors.WrapError(err, errors.CategoryExport, "failed to write workspace")
	}
	written = append(written, WorkspaceFile)
	return written, nil
}

// Cleanup removes the workspace, the project files and the .layout and
// .depend litter the IDE leaves next to them.
func (e *Exporter) Cleanup(m *buildmodel.Model, meta export.Meta) error {
	for i := range m.Components {
		c := &m.Components[i]
		if err := export.RemoveFile(meta.Top, c.Dir+"/"+c.Name+".cbp"); err != nil {
			return err
		}
		litter, _ := filepath.Glob(filepath.Join(meta.Top, filepath.FromSlash(c.Dir), "*.layout"))
		depend, _ := filepath.Glob(filepath.Join(meta.Top, filepath.FromSlash(c.Dir), "*.depend"))
		for _, path := range append(litter, depend...) {
			rel, err := filepath.Rel(meta.Top, path)
			if err != nil {
				continue
			}
			if err := export.RemoveFile(meta.Top, filepath.ToSlash(rel)); err != nil {
				return err
			}
		}
	}
	return export.RemoveFile(meta.Top, WorkspaceFile)
}

func (e *Exporter) projectContent(m *buildmodel.Model, c *buildmodel.Component) (string, error) {
	buildPath := buildPathFrom(c.Dir, m.Project.Out)

	target := targetEl{
		Title: "Default",
		Options: []attrOption{
			{Output: buildPath + "/" + c.Name},
			{ObjectOutput: buildPath},
			{Type: targetType(c)},
			{Compiler: "gcc"},
		},
	}

	for _, flag := range compilerFlags(m, c) {
		target.Compiler.Adds = append(target.Compiler.Adds, addEl{Option: flag})
	}
	for _, def := range c.Defines {
		target.Compiler.Adds = append(target.Compiler.Adds, addEl{Option: "-D" + escapeDefine(def)})
	}
	for _, inc := range c.Includes {
		target.Compiler.Adds = append(target.Compiler.Adds, addEl{Directory: inc})
	}

	for _, flag := range c.LinkFlags {
		target.Linker.Adds = append(target.Linker.Adds, addEl{Option: flag})
	}
	for _, lib := range linkLibs(m, c) {
		target.Linker.Adds = append(target.Linker.Adds, addEl{Library: lib})
	}
	for _, dir := range linkPaths(m, c) {
		target.Linker.Adds = append(target.Linker.Adds, addEl{Directory: dir})
	}

	doc := projectDoc{
		FileVersion: fileVersion{Major: 1, Minor: 6},
		Project: projectEl{
			Options: []attrOption{
				{Title: c.Name},
				{PchMode: "2"},
				{Compiler: "gcc"},
			},
			Build: buildEl{Target: target},
		},
	}
	for _, src := range c.Sources {
		doc.Project.Units = append(doc.Project.Units, unitEl{Filename: src})
	}
	for _, hdr := range headerUnits(m, c) {
		doc.Project.Units = append(doc.Project.Units, unitEl{Filename: hdr})
	}

	return marshal(doc)
}

func marshal(doc any) (string, error) {
	data, err := xml.MarshalIndent(doc, "", "\t")
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryExport, "failed to marshal project XML")
	}
	return xmlHeader + string(data) + "\n", nil
}

// relToTop returns the path from a component directory back to the
// project top (where the .cbp lives relative to).
func relToTop(dir string) string {
	depth := strings.Count(filepath.ToSlash(dir), "/") + 1
	return strings.Repeat("../", depth)
}

// buildPathFrom returns the build output location of a component relative
// to its own directory (where the .cbp lives).
func buildPathFrom(dir, out string) string {
	return relToTop(dir) + out + "/" + dir
}

// escapeDefine doubles the escapes on quoted string defines; the IDE
// passes the option through its own shell quoting.
func escapeDefine(def string) string {
	return strings.ReplaceAll(def, `"`, `\\"`)
}

func targetType(c *buildmodel.Component) string {
	switch c.Kind {
	case buildmodel.KindProgram:
		return "1"
	case buildmodel.KindStaticLib:
		return "2"
	case buildmodel.KindSharedLib:
		return "3"
	}
	return "4"
}

func compilerFlags(m *buildmodel.Model, c *buildmodel.Component) []string {
	if c.IsCXX() {
		return append(append([]string{}, c.CXXFlags...), m.Toolchain.CXXFlags...)
	}
	return append(append([]string{}, c.CFlags...), m.Toolchain.CFlags...)
}

func linkLibs(m *buildmodel.Model, c *buildmodel.Component) []string {
	libs := append([]string{}, c.Libs...)
	for _, use := range c.Use {
		if dep, ok := m.Component(use); ok && dep.IsLibrary() {
			libs = append(libs, dep.Name)
		}
	}
	return libs
}

func linkPaths(m *buildmodel.Model, c *buildmodel.Component) []string {
	var dirs []string
	for _, use := range c.Use {
		if dep, ok := m.Component(use); ok && dep.IsLibrary() {
			dirs = append(dirs, relToTop(c.Dir)+m.Project.Out+"/"+dep.Dir)
		}
	}
	return dirs
}

// headerUnits globs the component include directories for header files so
// the IDE lists them alongside the sources. Missing directories are fine;
// the export also runs against models describing not yet checked out trees.
func headerUnits(m *buildmodel.Model, c *buildmodel.Component) []string {
	var headers []string
	top := m.Project.Top
	for _, inc := range c.Includes {
		matches, _ := filepath.Glob(filepath.Join(top, filepath.FromSlash(c.Dir), filepath.FromSlash(inc), "*.h*"))
		for _, match := range matches {
			rel, err := filepath.Rel(filepath.Join(top, filepath.FromSlash(c.Dir)), match)
			if err != nil {
				continue
			}
			headers = append(headers, filepath.ToSlash(rel))
		}
	}
	return headers
}
