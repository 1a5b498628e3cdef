// Package docgen drives doxygen over the build model components and
// assembles a documentation index under reports/doxygen, with markdown
// files from the component directories rendered alongside the API docs.
package docgen

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/benpapworth/waftools/internal/buildmodel"
	"github.com/benpapworth/waftools/internal/errors"
	"github.com/benpapworth/waftools/internal/logfields"
	"github.com/benpapworth/waftools/internal/metrics"
)

// DefaultBin is the documentation generator looked up on PATH.
const DefaultBin = "doxygen"

// ReportRoot is where the documentation tree lives, relative to the
// project top.
const ReportRoot = "reports/doxygen"

// Options tune a Runner.
type Options struct {
	// Bin overrides the generator executable, default doxygen on PATH.
	Bin string
	// Recorder receives run metrics, default metrics.Default.
	Recorder metrics.Recorder
}

// Runner generates per component API documentation and the index.
type Runner struct {
	opts     Options
	recorder metrics.Recorder
}

// NewRunner creates a Runner.
func NewRunner(opts Options) *Runner {
	rec := opts.Recorder
	if rec == nil {
		rec = metrics.Default
	}
	if opts.Bin == "" {
		opts.Bin = DefaultBin
	}
	return &Runner{opts: opts, recorder: rec}
}

// indexEntry is one component on the documentation index.
type indexEntry struct {
	Name  string
	API   string      // link to the doxygen html tree
	Pages []indexPage // rendered markdown pages
}

type indexPage struct {
	Title string
	Link  string
}

// Run generates documentation for the selected components and writes
// reports/doxygen/index.html linking everything together.
func (r *Runner) Run(ctx context.Context, m *buildmodel.Model, selection string) error {
	targets, err := m.Targets(selection)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return errors.New(errors.CategoryDocs, errors.SeverityError, "no targets found")
	}

	top, err := filepath.Abs(m.Project.Top)
	if err != nil {
		top = m.Project.Top
	}
	root := filepath.Join(top, filepath.FromSlash(ReportRoot))

	var entries []indexEntry
	for _, c := range targets {
		dir := filepath.Join(root, c.Name)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return errors.WrapError(err, errors.CategoryIO, "failed to create documentation directory")
		}

		if err := r.writeDoxyfile(m, c, dir); err != nil {
			return err
		}
		if err := r.generate(ctx, top, c, filepath.Join(dir, "Doxyfile")); err != nil {
			return err
		}

		entry := indexEntry{
			Name: c.Name,
			API:  c.Name + "/html/index.html",
		}
		pages, err := renderMarkdown(top, c, dir)
		if err != nil {
			return err
		}
		entry.Pages = pages
		entries = append(entries, entry)
	}

	return writeIndex(m, root, entries)
}

// writeDoxyfile generates the per component doxygen configuration.
func (r *Runner) writeDoxyfile(m *buildmodel.Model, c *buildmodel.Component, dir string) error {
	inputs := make([]string, 0, len(c.Sources)+len(c.Includes))
	inputs = append(inputs, c.SourcePaths()...)
	inputs = append(inputs, c.IncludePaths()...)

	data := doxyfileData{
		Name:    c.Name,
		Version: m.Project.Version,
		Output:  filepath.ToSlash(dir),
		Input:   strings.Join(inputs, " \\\n         "),
		Defines: strings.Join(append(append([]string{}, m.Toolchain.Defines...), c.Defines...), " "),
	}

	var buf bytes.Buffer
	if err := doxyfileTmpl.Execute(&buf, data); err != nil {
		return errors.WrapError(err, errors.CategoryDocs, "failed to render Doxyfile")
	}
	if err := os.WriteFile(filepath.Join(dir, "Doxyfile"), buf.Bytes(), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to write Doxyfile")
	}
	return nil
}

// generate runs the generator from the project top so the INPUT paths in
// the Doxyfile resolve.
func (r *Runner) generate(ctx context.Context, top string, c *buildmodel.Component, doxyfile string) error {
	slog.Debug("Running documentation generator",
		logfields.Tool(DefaultBin),
		logfields.Component(c.Name))

	cmd := exec.CommandContext(ctx, r.opts.Bin, doxyfile)
	cmd.Dir = top
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	start := time.Now()
	err := cmd.Run()
	r.recorder.ObserveToolDuration(DefaultBin, time.Since(start))
	r.recorder.IncToolResult(DefaultBin, err == nil)

	if err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			return errors.New(errors.CategoryDocs, errors.SeverityError, "documentation generator failed").
				WithContext("component", c.Name).
				WithContext("output", strings.TrimSpace(output.String()))
		}
		return errors.WrapError(err, errors.CategoryTool, "failed to run documentation generator").
			WithContext("command", r.opts.Bin)
	}
	return nil
}

var doxyfileTmpl = template.Must(template.New("doxyfile").Parse(`# Generated, do not edit.
PROJECT_NAME           = "{{.Name}}"
PROJECT_NUMBER         = "{{.Version}}"
OUTPUT_DIRECTORY       = {{.Output}}
INPUT                  = {{.Input}}
PREDEFINED             = {{.Defines}}
OPTIMIZE_OUTPUT_FOR_C  = YES
EXTRACT_ALL            = YES
EXTRACT_STATIC         = YES
RECURSIVE              = NO
QUIET                  = YES
WARNINGS               = YES
GENERATE_HTML          = YES
GENERATE_LATEX         = NO
HAVE_DOT               = NO
`))

type doxyfileData struct {
	Name    string
	Version string
	Output  string
	Input   string
	Defines string
}

func writeIndex(m *buildmodel.Model, root string, entries []indexEntry) error {
	data := struct {
		AppName string
		Version string
		Entries []indexEntry
	}{m.Project.AppName, m.Project.Version, entries}

	var buf bytes.Buffer
	if err := indexTmpl.Execute(&buf, data); err != nil {
		return errors.WrapError(err, errors.CategoryDocs, "failed to render documentation index")
	}
	if err := os.WriteFile(filepath.Join(root, "index.html"), buf.Bytes(), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to write documentation index")
	}
	return nil
}

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.AppName}} {{.Version}} documentation</title>
</head>
<body>
<h1>{{.AppName}} {{.Version}}</h1>
<ul>
{{- range .Entries}}
<li><a href="{{.API}}">{{.Name}}</a>
{{- if .Pages}}
<ul>
{{- range .Pages}}
<li><a href="{{.Link}}">{{.Title}}</a></li>
{{- end}}
</ul>
{{- end}}
</li>
{{- end}}
</ul>
</body>
</html>
`))

// page title from the markdown filename: README.md reads better as README.
func pageTitle(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func pageLink(component, name string) string {
	return fmt.Sprintf("%s/%s.html", component, pageTitle(name))
}
