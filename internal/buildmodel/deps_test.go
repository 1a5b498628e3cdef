package buildmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func depsModel() *Model {
	m := &Model{
		Components: []Component{
			{Name: "app", Kind: KindProgram, Use: []string{"ui", "core"}},
			{Name: "ui", Kind: KindSharedLib, Use: []string{"core"}},
			{Name: "core", Kind: KindStaticLib},
			{Name: "tool", Kind: KindProgram, Use: []string{"missing"}},
		},
	}
	return m
}

func TestDepsTransitive(t *testing.T) {
	m := depsModel()
	assert.Equal(t, []string{"core", "ui"}, m.Deps("app"))
	assert.Equal(t, []string{"core"}, m.Deps("ui"))
	assert.Empty(t, m.Deps("core"))
}

func TestDepsUnknownReference(t *testing.T) {
	m := depsModel()
	// Unknown use names are skipped, not fatal.
	assert.Equal(t, []string{"missing"}, m.Deps("tool"))
}

func TestDepsCycle(t *testing.T) {
	m := &Model{
		Components: []Component{
			{Name: "a", Kind: KindStaticLib, Use: []string{"b"}},
			{Name: "b", Kind: KindStaticLib, Use: []string{"a"}},
		},
	}
	assert.Equal(t, []string{"b"}, m.Deps("a"))
	assert.Equal(t, []string{"a"}, m.Deps("b"))
}

func TestTargetsAll(t *testing.T) {
	m := depsModel()
	targets, err := m.Targets("")
	require.NoError(t, err)
	assert.Len(t, targets, 4)
}

func TestTargetsSelection(t *testing.T) {
	m := depsModel()
	targets, err := m.Targets("ui")
	require.NoError(t, err)

	names := make([]string, 0, len(targets))
	for _, c := range targets {
		names = append(names, c.Name)
	}
	// Selection pulls in transitive deps, in model order.
	assert.Equal(t, []string{"ui", "core"}, names)
}

func TestTargetsUnknown(t *testing.T) {
	m := depsModel()
	_, err := m.Targets("nosuch")
	assert.Error(t, err)
}

func TestArtifactNames(t *testing.T) {
	m := &Model{Project: Project{Out: "build"}}
	prog := &Component{Name: "hello", Dir: "c/hello", Kind: KindProgram}
	st := &Component{Name: "core", Kind: KindStaticLib}
	sh := &Component{Name: "ui", Kind: KindSharedLib}

	assert.Equal(t, "hello", m.ArtifactName(prog))
	assert.Equal(t, "libcore.a", m.ArtifactName(st))
	assert.Equal(t, "libui.so", m.ArtifactName(sh))
	assert.Equal(t, "build/c/hello/hello", m.ArtifactPath(prog))

	m.Toolchain.DestOS = "win32"
	assert.Equal(t, "hello.exe", m.ArtifactName(prog))
	assert.Equal(t, "core.lib", m.ArtifactName(st))
	assert.Equal(t, "ui.dll", m.ArtifactName(sh))
}
