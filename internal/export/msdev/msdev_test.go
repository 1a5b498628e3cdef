package msdev

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benpapworth/waftools/internal/buildmodel"
	"github.com/benpapworth/waftools/internal/export"
)

func testModel(top string) *buildmodel.Model {
	return &buildmodel.Model{
		Project: buildmodel.Project{
			AppName: "sample", Version: "1.0.0", Top: top, Out: "build",
		},
		Toolchain: buildmodel.Toolchain{
			CC: "gcc", CXX: "g++", AR: "ar", DestOS: "win32",
		},
		Components: []buildmodel.Component{
			{
				Name: "Hello", Dir: "components/hello", Kind: buildmodel.KindProgram,
				Language: buildmodel.LangC,
				Sources:  []string{"src/hello.c"},
				Includes: []string{"include"},
				Defines:  []string{"WIN32", "_DEBUG"},
				Libs:     []string{"ws2_32"},
				Use:      []string{"core"},
			},
			{
				Name: "core", Dir: "components/core", Kind: buildmodel.KindStaticLib,
				Language: buildmodel.LangC,
				Sources:  []string{"src/core.c"},
			},
		},
	}
}

func TestExportWritesSolutionAndProjects(t *testing.T) {
	top := t.TempDir()
	m := testModel(top)
	meta := export.NewMeta(m)

	written, err := New().Export(m, meta)
	require.NoError(t, err)
	assert.Len(t, written, 3)

	for _, rel := range []string{
		"sample.sln",
		"components/hello/hello.vcproj",
		"components/core/core.vcproj",
	} {
		_, err := os.Stat(filepath.Join(top, filepath.FromSlash(rel)))
		assert.NoError(t, err, rel)
	}
}

func TestNonWin32ModelIsSkipped(t *testing.T) {
	top := t.TempDir()
	m := testModel(top)
	m.Toolchain.DestOS = "linux"
	meta := export.NewMeta(m)

	written, err := New().Export(m, meta)
	require.NoError(t, err)
	assert.Empty(t, written)

	_, err = os.Stat(filepath.Join(top, "sample.sln"))
	assert.True(t, os.IsNotExist(err))
}

func TestSolutionContent(t *testing.T) {
	top := t.TempDir()
	m := testModel(top)
	meta := export.NewMeta(m)

	_, err := New().Export(m, meta)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(top, "sample.sln"))
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "Microsoft Visual Studio Solution File, Format Version 10.00")
	assert.Contains(t, content, `"Hello", "components`)
	// Hello depends on core, so its project section lists core's GUID.
	assert.Contains(t, content, "ProjectSection(ProjectDependencies) = postProject")
	assert.Contains(t, content, "{"+projectGUID("core")+"}.Debug|Win32.ActiveCfg = Debug|Win32")
}

func TestProjectContent(t *testing.T) {
	top := t.TempDir()
	m := testModel(top)
	meta := export.NewMeta(m)

	_, err := New().Export(m, meta)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(top, "components", "hello", "hello.vcproj"))
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, `Name="Hello"`)
	assert.Contains(t, content, `ConfigurationType="1"`)
	assert.Contains(t, content, `OutputFile="../../build/components/hello/Hello.exe"`)
	assert.Contains(t, content, `PreprocessorDefinitions="WIN32;_DEBUG"`)
	assert.Contains(t, content, `AdditionalIncludeDirectories="include"`)
	assert.Contains(t, content, `AdditionalDependencies="ws2_32.lib core.lib"`)
	assert.Contains(t, content, `AdditionalLibraryDirectories="../../build/components/core"`)
	assert.Contains(t, content, `RelativePath="src/hello.c"`)

	data, err = os.ReadFile(filepath.Join(top, "components", "core", "core.vcproj"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `ConfigurationType="4"`)
}

func TestGUIDsAreDeterministic(t *testing.T) {
	assert.Equal(t, projectGUID("core"), projectGUID("core"))
	assert.NotEqual(t, projectGUID("core"), projectGUID("Hello"))
}

func TestCleanup(t *testing.T) {
	top := t.TempDir()
	m := testModel(top)
	meta := export.NewMeta(m)

	e := New()
	_, err := e.Export(m, meta)
	require.NoError(t, err)

	// Simulate IDE litter.
	litter := filepath.Join(top, "components", "hello", "hello.vcproj.user")
	require.NoError(t, os.WriteFile(litter, []byte("<x/>"), 0o600))

	require.NoError(t, e.Cleanup(m, meta))

	for _, rel := range []string{
		"sample.sln",
		"components/hello/hello.vcproj",
		"components/hello/hello.vcproj.user",
		"components/core/core.vcproj",
	} {
		_, err := os.Stat(filepath.Join(top, filepath.FromSlash(rel)))
		assert.True(t, os.IsNotExist(err), rel)
	}
}
