package buildmodel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModel(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "waftools.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const sampleModel = `
project:
  appname: sample
  version: 2.1.0
  prefix: /opt/sample

toolchain:
  cc: gcc
  cxx: g++

components:
  - name: hello
    dir: components/hello
    kind: program
    language: cxx
    sources: [src/hello.cpp]
    includes: [include]
    use: [cxxshlib]

  - name: cxxshlib
    dir: components/cxxlib/shared
    kind: shlib
    language: cxx
    vnum: "1.2.3"
    sources: [src/lib.cpp]

  - name: cstlib
    dir: components/clib/static
    kind: stlib
    sources: [src/static.c]
`

func TestLoad(t *testing.T) {
	model, err := Load(writeModel(t, sampleModel))
	require.NoError(t, err)

	assert.Equal(t, "sample", model.Project.AppName)
	assert.Equal(t, "2.1.0", model.Project.Version)
	assert.Len(t, model.Components, 3)

	c, ok := model.Component("cxxshlib")
	require.True(t, ok)
	assert.Equal(t, KindSharedLib, c.Kind)
	assert.True(t, c.IsCXX())
	assert.True(t, c.Installable())
}

func TestLoadDefaults(t *testing.T) {
	model, err := Load(writeModel(t, sampleModel))
	require.NoError(t, err)

	assert.Equal(t, "build", model.Project.Out)
	assert.Equal(t, filepath.Join("/opt/sample", "bin"), model.Project.BinDir)
	assert.Equal(t, "c99", model.Check.StdC)
	assert.Equal(t, "c++03", model.Check.StdCXX)
	assert.Equal(t, 10, model.Check.MaxConfigs)
	assert.Equal(t, []string{"all"}, model.Package.Types)
	assert.Equal(t, "install.nsi", model.Package.NsisScript)

	// Language defaults to c when unset.
	c, ok := model.Component("cstlib")
	require.True(t, ok)
	assert.Equal(t, LangC, c.Language)
}

func TestLoadEnvExpansion(t *testing.T) {
	t.Setenv("SAMPLE_VERSION", "9.9.9")
	model, err := Load(writeModel(t, `
project:
  appname: sample
  version: ${SAMPLE_VERSION}
components:
  - name: hello
    kind: program
    sources: [hello.c]
`))
	require.NoError(t, err)
	assert.Equal(t, "9.9.9", model.Project.Version)
}

func TestLoadToleratesBadEnvFile(t *testing.T) {
	dir := t.TempDir()
	oldwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(oldwd) })
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("not an assignment\n"), 0o600))

	// A broken .env only warns, the model still loads.
	model, err := Load(writeModel(t, sampleModel))
	require.NoError(t, err)
	assert.Equal(t, "sample", model.Project.AppName)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateDuplicateName(t *testing.T) {
	_, err := Load(writeModel(t, `
project:
  appname: sample
components:
  - name: hello
    kind: program
    sources: [a.c]
  - name: hello
    kind: stlib
    sources: [b.c]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate component name")
}

func TestValidateUnknownKind(t *testing.T) {
	_, err := Load(writeModel(t, `
project:
  appname: sample
components:
  - name: hello
    kind: jar
    sources: [a.c]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown component kind")
}

func TestValidateNoSources(t *testing.T) {
	_, err := Load(writeModel(t, `
project:
  appname: sample
components:
  - name: hello
    kind: program
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sources")
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waftools.yaml")
	require.NoError(t, Init(path, false))

	// Starter model must load cleanly.
	model, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", model.Project.AppName)

	// Second init without force fails.
	assert.Error(t, Init(path, false))
	assert.NoError(t, Init(path, true))
}

func TestArtifactPath(t *testing.T) {
	m := &Model{
		Project: Project{Out: "build"},
		Components: []Component{
			{Name: "hello", Dir: "components/hello", Kind: KindProgram},
			{Name: "top", Dir: ".", Kind: KindProgram},
		},
	}
	assert.Equal(t, "build/components/hello/hello", m.ArtifactPath(&m.Components[0]))
	// Components at the project top do not leave a "." segment behind.
	assert.Equal(t, "build/top", m.ArtifactPath(&m.Components[1]))
}

func TestSourceAndIncludePaths(t *testing.T) {
	c := &Component{
		Dir:      "components/hello",
		Sources:  []string{"src/hello.c"},
		Includes: []string{"include"},
	}
	assert.Equal(t, []string{"components/hello/src/hello.c"}, c.SourcePaths())
	assert.Equal(t, []string{"components/hello/include"}, c.IncludePaths())
}
