// Package buildmodel defines the declarative build description consumed by
// every waftools command: the project identity, the toolchain snapshot and
// the list of compiled components with their sources, include paths and
// flags. The model is the Go-side equivalent of the data a waf build
// context exposes to its tools.
package buildmodel

import "path/filepath"

// Kind classifies what a component links into.
type Kind string

const (
	KindProgram   Kind = "program"
	KindStaticLib Kind = "stlib"
	KindSharedLib Kind = "shlib"
)

// Language selects the compiler front end for a component.
type Language string

const (
	LangC   Language = "c"
	LangCXX Language = "cxx"
)

// Project identifies the build environment being described.
type Project struct {
	AppName string `yaml:"appname"`
	Version string `yaml:"version"`
	Top     string `yaml:"top,omitempty"`
	Out     string `yaml:"out,omitempty"`
	Prefix  string `yaml:"prefix,omitempty"`
	BinDir  string `yaml:"bindir,omitempty"`
	LibDir  string `yaml:"libdir,omitempty"`
}

// Toolchain is the compiler environment snapshot shared by all components.
type Toolchain struct {
	CC       string   `yaml:"cc,omitempty"`
	CXX      string   `yaml:"cxx,omitempty"`
	AR       string   `yaml:"ar,omitempty"`
	ARFlags  []string `yaml:"arflags,omitempty"`
	CFlags   []string `yaml:"cflags,omitempty"`
	CXXFlags []string `yaml:"cxxflags,omitempty"`
	Defines  []string `yaml:"defines,omitempty"`
	RPath    []string `yaml:"rpath,omitempty"`
	DestOS   string   `yaml:"dest_os,omitempty"`
	DestCPU  string   `yaml:"dest_cpu,omitempty"`
}

// Component is one compiled target: a program, static library or shared
// library, together with everything needed to compile and link it.
type Component struct {
	Name      string   `yaml:"name"`
	Dir       string   `yaml:"dir"`
	Kind      Kind     `yaml:"kind"`
	Language  Language `yaml:"language,omitempty"`
	Sources   []string `yaml:"sources"`
	Includes  []string `yaml:"includes,omitempty"`
	Defines   []string `yaml:"defines,omitempty"`
	CFlags    []string `yaml:"cflags,omitempty"`
	CXXFlags  []string `yaml:"cxxflags,omitempty"`
	LinkFlags []string `yaml:"linkflags,omitempty"`
	Libs      []string `yaml:"libs,omitempty"`     // external libraries (-l)
	LibPaths  []string `yaml:"libpaths,omitempty"` // external library search paths (-L)
	Use       []string `yaml:"use,omitempty"`      // names of sibling components linked against
	VNum      string   `yaml:"vnum,omitempty"`     // shared library version (install symlink)
	Install   *bool    `yaml:"install,omitempty"`  // defaults to true
}

// ExportConfig selects which file formats the export command emits.
type ExportConfig struct {
	Formats []string `yaml:"formats,omitempty"`
}

// CheckConfig tunes the cppcheck invocation.
type CheckConfig struct {
	StdC        string `yaml:"std_c,omitempty"`
	StdCXX      string `yaml:"std_cxx,omitempty"`
	MaxConfigs  int    `yaml:"max_configs,omitempty"`
	BinEnable   string `yaml:"bin_enable,omitempty"`
	LibEnable   string `yaml:"lib_enable,omitempty"`
	CheckConfig bool   `yaml:"check_config,omitempty"`
}

// PackageConfig tunes the package command.
type PackageConfig struct {
	Types      []string `yaml:"types,omitempty"` // ls, tar.gz, nsis or all
	NsisScript string   `yaml:"nsis_script,omitempty"`
}

// Model is the complete build description loaded from waftools.yaml.
type Model struct {
	Project    Project       `yaml:"project"`
	Toolchain  Toolchain     `yaml:"toolchain,omitempty"`
	Export     ExportConfig  `yaml:"export,omitempty"`
	Check      CheckConfig   `yaml:"check,omitempty"`
	Package    PackageConfig `yaml:"package,omitempty"`
	Components []Component   `yaml:"components"`
}

// Component returns the named component, or false when it is not defined.
func (m *Model) Component(name string) (*Component, bool) {
	for i := range m.Components {
		if m.Components[i].Name == name {
			return &m.Components[i], true
		}
	}
	return nil, false
}

// IsWin32 reports whether the model targets MS Windows.
func (m *Model) IsWin32() bool {
	return m.Toolchain.DestOS == "win32"
}

// IsProgram reports whether the component links into an executable.
func (c *Component) IsProgram() bool { return c.Kind == KindProgram }

// IsLibrary reports whether the component links into a static or shared library.
func (c *Component) IsLibrary() bool {
	return c.Kind == KindStaticLib || c.Kind == KindSharedLib
}

// IsCXX reports whether the component uses the C++ front end.
func (c *Component) IsCXX() bool { return c.Language == LangCXX }

// Installable reports whether the component takes part in install/package
// staging. Unset means true.
func (c *Component) Installable() bool {
	return c.Install == nil || *c.Install
}

// CompileFlags returns the component flags for its language front end.
func (c *Component) CompileFlags() []string {
	if c.IsCXX() {
		return c.CXXFlags
	}
	return c.CFlags
}

// SourcePaths returns the component sources relative to the project top.
func (c *Component) SourcePaths() []string {
	paths := make([]string, 0, len(c.Sources))
	for _, src := range c.Sources {
		paths = append(paths, filepath.ToSlash(filepath.Join(c.Dir, src)))
	}
	return paths
}

// IncludePaths returns the component include directories relative to the
// project top.
func (c *Component) IncludePaths() []string {
	paths := make([]string, 0, len(c.Includes))
	for _, inc := range c.Includes {
		paths = append(paths, filepath.ToSlash(filepath.Join(c.Dir, inc)))
	}
	return paths
}
