package packaging

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benpapworth/waftools/internal/buildmodel"
)

func testModel(top string) *buildmodel.Model {
	return &buildmodel.Model{
		Project: buildmodel.Project{
			AppName: "sample",
			Version: "1.2.3",
			Top:     top,
			Out:     "build",
			Prefix:  "/opt/sample",
			BinDir:  "/opt/sample/bin",
			LibDir:  "/opt/sample/lib",
		},
		Components: []buildmodel.Component{
			{
				Name: "hello", Dir: "components/hello", Kind: buildmodel.KindProgram,
				Language: buildmodel.LangC,
				Sources:  []string{"src/hello.c"},
			},
			{
				Name: "ui", Dir: "components/ui", Kind: buildmodel.KindSharedLib,
				Language: buildmodel.LangC,
				Sources:  []string{"src/ui.c"},
				Includes: []string{"include"},
			},
			{
				Name: "core", Dir: "components/core", Kind: buildmodel.KindStaticLib,
				Language: buildmodel.LangC,
				Sources:  []string{"src/core.c"},
			},
		},
	}
}

// buildArtifacts fakes the build outputs the packager stages.
func buildArtifacts(t *testing.T, top string) {
	t.Helper()
	for _, rel := range []string{
		"build/components/hello/hello",
		"build/components/ui/libui.so",
	} {
		path := filepath.Join(top, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte("binary"), 0o755))
	}
	inc := filepath.Join(top, "components", "ui", "include")
	require.NoError(t, os.MkdirAll(inc, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(inc, "ui.h"), []byte("#pragma once\n"), 0o600))
}

func TestRunStagesAndLists(t *testing.T) {
	top := t.TempDir()
	m := testModel(top)
	buildArtifacts(t, top)

	var out strings.Builder
	require.NoError(t, New(Options{Types: []string{"ls"}}).Run(context.Background(), m, &out))

	listing := out.String()
	assert.Contains(t, listing, "PACKAGE (ls)")
	assert.Contains(t, listing, "$PREFIX/bin/hello")
	assert.Contains(t, listing, "$PREFIX/lib/libui.so")
	assert.Contains(t, listing, "$PREFIX/include/ui/ui.h")
	// Static archives are not part of the install image.
	assert.NotContains(t, listing, "libcore.a")

	for _, rel := range []string{
		"build/.wafpackage/bin/hello",
		"build/.wafpackage/lib/libui.so",
		"build/.wafpackage/include/ui/ui.h",
	} {
		_, err := os.Stat(filepath.Join(top, filepath.FromSlash(rel)))
		assert.NoError(t, err, rel)
	}
}

func TestRunKeepsSameNamedHeadersApart(t *testing.T) {
	top := t.TempDir()
	m := testModel(top)
	buildArtifacts(t, top)
	m.Components[2].Includes = []string{"include"}

	// Both libraries ship a config.h.
	for _, dir := range []string{"components/ui/include", "components/core/include"} {
		inc := filepath.Join(top, filepath.FromSlash(dir))
		require.NoError(t, os.MkdirAll(inc, 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(inc, "config.h"), []byte("/* "+dir+" */\n"), 0o600))
	}

	var out strings.Builder
	require.NoError(t, New(Options{Types: []string{"ls"}}).Run(context.Background(), m, &out))

	assert.Contains(t, out.String(), "$PREFIX/include/ui/config.h")
	assert.Contains(t, out.String(), "$PREFIX/include/core/config.h")

	data, err := os.ReadFile(filepath.Join(top, "build", StagingDir, "include", "core", "config.h"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "components/core")
}

func TestRunSkipsUnbuiltArtifacts(t *testing.T) {
	top := t.TempDir()
	m := testModel(top)
	// No artifacts built at all.

	var out strings.Builder
	require.NoError(t, New(Options{Types: []string{"ls"}}).Run(context.Background(), m, &out))
	assert.NotContains(t, out.String(), "$PREFIX/bin")
}

func TestRunRespectsInstallFlag(t *testing.T) {
	top := t.TempDir()
	m := testModel(top)
	buildArtifacts(t, top)
	noInstall := false
	m.Components[0].Install = &noInstall

	var out strings.Builder
	require.NoError(t, New(Options{Types: []string{"ls"}}).Run(context.Background(), m, &out))
	assert.NotContains(t, out.String(), "$PREFIX/bin/hello")
	assert.Contains(t, out.String(), "$PREFIX/lib/libui.so")
}

func TestRunCreatesArchive(t *testing.T) {
	top := t.TempDir()
	m := testModel(top)
	buildArtifacts(t, top)

	var out strings.Builder
	require.NoError(t, New(Options{Types: []string{"tar.gz"}}).Run(context.Background(), m, &out))
	assert.Contains(t, out.String(), "PACKAGE (tar.gz)")
	assert.Contains(t, out.String(), "sample-1.2.3.tar.gz")

	f, err := os.Open(filepath.Join(top, "sample-1.2.3.tar.gz"))
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	var members []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		members = append(members, hdr.Name)
	}
	assert.ElementsMatch(t, []string{"bin/hello", "include/ui/ui.h", "lib/libui.so"}, members)
}

func TestRunCleanupRemovesStaging(t *testing.T) {
	top := t.TempDir()
	m := testModel(top)
	buildArtifacts(t, top)

	var out strings.Builder
	require.NoError(t, New(Options{Types: []string{"ls"}, Cleanup: true}).Run(context.Background(), m, &out))

	_, err := os.Stat(filepath.Join(top, "build", StagingDir))
	assert.True(t, os.IsNotExist(err))
}

func TestRunGeneratesNsisScript(t *testing.T) {
	top := t.TempDir()
	m := testModel(top)
	buildArtifacts(t, top)

	var out strings.Builder
	// Point at a compiler that does not exist; script generation still runs
	// and the missing tool only warns.
	p := New(Options{Types: []string{"nsis"}, MakensisBin: filepath.Join(top, "missing-makensis")})
	require.NoError(t, p.Run(context.Background(), m, &out))

	data, err := os.ReadFile(filepath.Join(top, "install.nsi"))
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, `Name "sample 1.2.3"`)
	assert.Contains(t, content, `OutFile "sample-1.2.3-setup.exe"`)
	assert.Contains(t, content, `File "/oname=bin\hello" "bin/hello"`)
	assert.Contains(t, content, `Delete "$INSTDIR\bin\hello"`)
	assert.Contains(t, content, "WriteUninstaller")
}

func TestRunUsesExistingNsisScript(t *testing.T) {
	top := t.TempDir()
	m := testModel(top)
	buildArtifacts(t, top)

	custom := "; hand written\nName \"custom\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(top, "install.nsi"), []byte(custom), 0o600))

	var out strings.Builder
	p := New(Options{Types: []string{"nsis"}, MakensisBin: filepath.Join(top, "missing-makensis")})
	require.NoError(t, p.Run(context.Background(), m, &out))

	data, err := os.ReadFile(filepath.Join(top, "install.nsi"))
	require.NoError(t, err)
	assert.Equal(t, custom, string(data))
}

func TestRunNsisCompilerInvocation(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake compiler script requires a shell")
	}
	top := t.TempDir()
	m := testModel(top)
	buildArtifacts(t, top)

	bin := filepath.Join(t.TempDir(), "makensis")
	script := "#!/bin/sh\necho \"compiling $2 from $PWD\"\n"
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))

	var out strings.Builder
	p := New(Options{Types: []string{"nsis"}, MakensisBin: bin})
	require.NoError(t, p.Run(context.Background(), m, &out))

	assert.Contains(t, out.String(), "PACKAGE (nsis)")
	// Runs with the staging root as working directory.
	assert.Contains(t, out.String(), filepath.Join("build", StagingDir))
}
