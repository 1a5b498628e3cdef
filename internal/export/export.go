// Package export holds the common layer shared by all build-file and IDE
// project exporters: the environment snapshot handed to every format, the
// Exporter interface and the format registry.
package export

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/benpapworth/waftools/internal/buildmodel"
	"github.com/benpapworth/waftools/internal/version"
)

// Meta is the snapshot of the build environment every exporter receives.
// All paths use forward slashes, regardless of the host platform, so that
// the emitted files are identical across machines.
type Meta struct {
	ToolVersion string
	AppName     string
	AppVersion  string
	Prefix      string
	Top         string
	Out         string
	BinDir      string
	LibDir      string
	AR          string
	CC          string
	CXX         string
	RPath       string
	CFlags      string
	CXXFlags    string
	Defines     string
	DestCPU     string
	DestOS      string
	Revision    string // scm revision of the project tree, empty when unknown
}

// NewMeta builds the exporter snapshot from a loaded model. The top and
// out locations are made absolute so generated files can reference them
// from any directory.
func NewMeta(m *buildmodel.Model) Meta {
	top, err := filepath.Abs(m.Project.Top)
	if err != nil {
		top = m.Project.Top
	}
	out := m.Project.Out
	if !filepath.IsAbs(out) {
		out = filepath.Join(top, out)
	}

	meta := Meta{
		ToolVersion: version.Version,
		AppName:     m.Project.AppName,
		AppVersion:  m.Project.Version,
		Prefix:      m.Project.Prefix,
		Top:         top,
		Out:         out,
		BinDir:      m.Project.BinDir,
		LibDir:      m.Project.LibDir,
		AR:          filepath.Base(m.Toolchain.AR),
		CC:          filepath.Base(m.Toolchain.CC),
		CXX:         filepath.Base(m.Toolchain.CXX),
		RPath:       strings.Join(m.Toolchain.RPath, " "),
		CFlags:      strings.Join(m.Toolchain.CFlags, " "),
		CXXFlags:    strings.Join(m.Toolchain.CXXFlags, " "),
		Defines:     strings.Join(m.Toolchain.Defines, " "),
		DestCPU:     m.Toolchain.DestCPU,
		DestOS:      m.Toolchain.DestOS,
		Revision:    Revision(top),
	}
	meta.cleanSeparators()
	return meta
}

func (m *Meta) cleanSeparators() {
	m.Prefix = filepath.ToSlash(m.Prefix)
	m.Top = filepath.ToSlash(m.Top)
	m.Out = filepath.ToSlash(m.Out)
	m.BinDir = filepath.ToSlash(m.BinDir)
	m.LibDir = filepath.ToSlash(m.LibDir)
}

// Exporter converts the build model to one external file format. Export
// returns the files it wrote, relative to the project top, so callers can
// log and count them. Cleanup removes exactly those files again.
type Exporter interface {
	Name() string
	Export(m *buildmodel.Model, meta Meta) ([]string, error)
	Cleanup(m *buildmodel.Model, meta Meta) error
}

// WriteFile writes an emitted file below the project top, creating parent
// directories as needed.
func WriteFile(top, rel, content string) error {
	path := filepath.Join(top, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// RemoveFile deletes an emitted file below the project top. Missing files
// are not an error.
func RemoveFile(top, rel string) error {
	path := filepath.Join(top, filepath.FromSlash(rel))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
