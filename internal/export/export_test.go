package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benpapworth/waftools/internal/buildmodel"
)

func testModel() *buildmodel.Model {
	return &buildmodel.Model{
		Project: buildmodel.Project{
			AppName: "sample",
			Version: "1.2.3",
			Top:     "/work/sample",
			Out:     "build",
			Prefix:  "/home/user",
			BinDir:  "/home/user/bin",
			LibDir:  "/home/user/lib",
		},
		Toolchain: buildmodel.Toolchain{
			CC:       "/usr/bin/gcc",
			CXX:      "/usr/bin/g++",
			AR:       "/usr/bin/ar",
			CFlags:   []string{"-Wall", "-O2"},
			Defines:  []string{"NDEBUG"},
			DestOS:   "linux",
			DestCPU:  "x86_64",
		},
		Components: []buildmodel.Component{
			{Name: "hello", Dir: "components/hello", Kind: buildmodel.KindProgram,
				Language: buildmodel.LangC, Sources: []string{"src/hello.c"}},
		},
	}
}

func TestNewMeta(t *testing.T) {
	meta := NewMeta(testModel())

	assert.Equal(t, "sample", meta.AppName)
	assert.Equal(t, "1.2.3", meta.AppVersion)
	assert.Equal(t, "gcc", meta.CC)
	assert.Equal(t, "g++", meta.CXX)
	assert.Equal(t, "ar", meta.AR)
	assert.Equal(t, "-Wall -O2", meta.CFlags)
	assert.Equal(t, "NDEBUG", meta.Defines)
	assert.Equal(t, "/work/sample", meta.Top)
	assert.Equal(t, "/work/sample/build", meta.Out)
}

func TestWriteAndRemoveFile(t *testing.T) {
	top := t.TempDir()

	require.NoError(t, WriteFile(top, "components/hello/Makefile", "all:\n"))

	data, err := os.ReadFile(filepath.Join(top, "components", "hello", "Makefile"))
	require.NoError(t, err)
	assert.Equal(t, "all:\n", string(data))

	require.NoError(t, RemoveFile(top, "components/hello/Makefile"))
	_, err = os.Stat(filepath.Join(top, "components", "hello", "Makefile"))
	assert.True(t, os.IsNotExist(err))

	// Removing twice is fine.
	assert.NoError(t, RemoveFile(top, "components/hello/Makefile"))
}

func TestRevisionOutsideRepo(t *testing.T) {
	assert.Equal(t, "", Revision(t.TempDir()))
}

type fakeExporter struct{ name string }

func (f fakeExporter) Name() string { return f.name }
func (f fakeExporter) Export(*buildmodel.Model, Meta) ([]string, error) {
	return nil, nil
}
func (f fakeExporter) Cleanup(*buildmodel.Model, Meta) error { return nil }

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeExporter{name: "makefile"})
	r.Register(fakeExporter{name: "codeblocks"})

	assert.Equal(t, []string{"codeblocks", "makefile"}, r.List())

	_, ok := r.Get("makefile")
	assert.True(t, ok)

	selected, err := r.Select([]string{"codeblocks"})
	require.NoError(t, err)
	assert.Len(t, selected, 1)

	_, err = r.Select([]string{"xcode"})
	assert.Error(t, err)
}
