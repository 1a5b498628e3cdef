package docgen

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benpapworth/waftools/internal/buildmodel"
	"github.com/benpapworth/waftools/internal/errors"
)

// fakeDoxygen stands in for the real generator; it only creates the html
// output directory so the index links resolve.
func fakeDoxygen(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake generator script requires a shell")
	}
	path := filepath.Join(t.TempDir(), "doxygen")
	script := "#!/bin/sh\nout=$(sed -n 's/^OUTPUT_DIRECTORY *= *//p' \"$1\")\nmkdir -p \"$out/html\"\ntouch \"$out/html/index.html\"\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func docsModel(top string) *buildmodel.Model {
	return &buildmodel.Model{
		Project: buildmodel.Project{AppName: "sample", Version: "1.2.3", Top: top, Out: "build"},
		Components: []buildmodel.Component{
			{
				Name: "hello", Dir: "components/hello", Kind: buildmodel.KindProgram,
				Language: buildmodel.LangC,
				Sources:  []string{"src/hello.c"},
				Includes: []string{"include"},
			},
		},
	}
}

func TestRunGeneratesDocsAndIndex(t *testing.T) {
	top := t.TempDir()
	m := docsModel(top)
	bin := fakeDoxygen(t)

	require.NoError(t, NewRunner(Options{Bin: bin}).Run(context.Background(), m, ""))

	for _, rel := range []string{
		"reports/doxygen/index.html",
		"reports/doxygen/hello/Doxyfile",
		"reports/doxygen/hello/html/index.html",
	} {
		_, err := os.Stat(filepath.Join(top, filepath.FromSlash(rel)))
		assert.NoError(t, err, rel)
	}

	data, err := os.ReadFile(filepath.Join(top, "reports", "doxygen", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `<a href="hello/html/index.html">hello</a>`)
	assert.Contains(t, string(data), "sample 1.2.3")
}

func TestDoxyfileContent(t *testing.T) {
	top := t.TempDir()
	m := docsModel(top)
	bin := fakeDoxygen(t)

	require.NoError(t, NewRunner(Options{Bin: bin}).Run(context.Background(), m, ""))

	data, err := os.ReadFile(filepath.Join(top, "reports", "doxygen", "hello", "Doxyfile"))
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, `PROJECT_NAME           = "hello"`)
	assert.Contains(t, content, `PROJECT_NUMBER         = "1.2.3"`)
	assert.Contains(t, content, "components/hello/src/hello.c")
	assert.Contains(t, content, "components/hello/include")
	assert.Contains(t, content, "GENERATE_LATEX         = NO")
}

func TestMarkdownPagesAreRenderedAndLinked(t *testing.T) {
	top := t.TempDir()
	m := docsModel(top)
	bin := fakeDoxygen(t)

	dir := filepath.Join(top, "components", "hello")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	md := "# Hello\n\nA **sample** component.\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte(md), 0o600))

	require.NoError(t, NewRunner(Options{Bin: bin}).Run(context.Background(), m, ""))

	data, err := os.ReadFile(filepath.Join(top, "reports", "doxygen", "hello", "README.html"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "<h1>Hello</h1>")
	assert.Contains(t, string(data), "<strong>sample</strong>")

	index, err := os.ReadFile(filepath.Join(top, "reports", "doxygen", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), `<a href="hello/README.html">README</a>`)
}

func TestRunMissingGenerator(t *testing.T) {
	top := t.TempDir()
	m := docsModel(top)

	err := NewRunner(Options{Bin: filepath.Join(top, "missing-doxygen")}).Run(context.Background(), m, "")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryTool))
}

func TestRunNoTargets(t *testing.T) {
	m := docsModel(t.TempDir())
	m.Components = nil

	err := NewRunner(Options{}).Run(context.Background(), m, "")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryDocs))
}
