package buildmodel

import (
	"path"

	"github.com/benpapworth/waftools/internal/errors"
)

func errUnknownTarget(name string) error {
	return errors.ModelError("unknown target").WithContext("target", name)
}

// ArtifactName returns the platform file name a component builds into,
// following the host build system's naming patterns for the destination
// OS of the model.
func (m *Model) ArtifactName(c *Component) string {
	win32 := m.IsWin32()
	switch c.Kind {
	case KindProgram:
		if win32 {
			return c.Name + ".exe"
		}
		return c.Name
	case KindStaticLib:
		if win32 {
			return c.Name + ".lib"
		}
		return "lib" + c.Name + ".a"
	case KindSharedLib:
		if win32 {
			return c.Name + ".dll"
		}
		return "lib" + c.Name + ".so"
	}
	return c.Name
}

// ArtifactPath returns the artifact location below the build output
// directory, mirroring the component directory layout.
func (m *Model) ArtifactPath(c *Component) string {
	return path.Join(m.Project.Out, c.Dir, m.ArtifactName(c))
}
