package cppcheck

import (
	"encoding/xml"
	"fmt"
	"html/template"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2"
	htmlfmt "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/benpapworth/waftools/internal/buildmodel"
	"github.com/benpapworth/waftools/internal/errors"
)

// ReportRoot is where the report tree lives, relative to the project top.
const ReportRoot = "reports/cppcheck"

// Report writes the HTML defect report tree: a catalog index at the root,
// one defect index per component and one annotated listing per source
// file, plus the raw XML next to them.
type Report struct {
	top   string
	root  string
	style *chroma.Style
}

// NewReport creates a report writer rooted under the project top.
func NewReport(top string) *Report {
	style := styles.Get("xcode")
	if style == nil {
		style = styles.Fallback
	}
	return &Report{
		top:   top,
		root:  filepath.Join(top, filepath.FromSlash(ReportRoot)),
		style: style,
	}
}

// ComponentDir returns the directory holding one component's report pages.
func (r *Report) ComponentDir(c *buildmodel.Component) string {
	return filepath.Join(r.root, filepath.FromSlash(c.Dir), c.Name)
}

// ComponentIndex returns the path of a component's defect index, for log
// pointers.
func (r *Report) ComponentIndex(c *buildmodel.Component) string {
	return filepath.Join(r.ComponentDir(c), "index.html")
}

// CatalogEntry summarizes one component run for the top level index.
type CatalogEntry struct {
	Name   string
	Dir    string
	Counts map[string]int
}

// WriteComponent emits the report pages of a single component run.
func (r *Report) WriteComponent(c *buildmodel.Component, defects []Defect, stderr []byte, cmd []string) error {
	dir := r.ComponentDir(c)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to create report directory")
	}

	if err := r.saveXML(dir, stderr, cmd); err != nil {
		return err
	}

	pages, err := r.writeSourcePages(c, defects)
	if err != nil {
		return err
	}
	return r.writeComponentIndex(c, defects, pages)
}

// saveXML stores the raw analyzer output with the command line recorded,
// so a report can always be traced back to the exact invocation.
func (r *Report) saveXML(dir string, stderr []byte, cmd []string) error {
	doc, err := parseResults(stderr)
	if err != nil {
		return err
	}
	if doc == nil {
		doc = &resultsDoc{Version: "2"}
	}
	doc.Check.Cmd = strings.Join(cmd, " ")

	data, err := xml.MarshalIndent(doc, "", "\t")
	if err != nil {
		return errors.WrapError(err, errors.CategoryAnalysis, "failed to marshal analyzer report")
	}
	content := xml.Header + string(data) + "\n"
	if err := os.WriteFile(filepath.Join(dir, "report.xml"), []byte(content), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to write analyzer report")
	}
	return nil
}

// sourcePage records where a source listing was written so the component
// index can link to it.
type sourcePage struct {
	Source string // relative to the project top
	Page   string // relative to the component report directory
}

// writeSourcePages renders a highlighted listing per source file that has
// defects. Sources the model describes but that are not checked out are
// skipped.
func (r *Report) writeSourcePages(c *buildmodel.Component, defects []Defect) (map[string]sourcePage, error) {
	perFile := make(map[string][]Defect)
	for _, d := range defects {
		if d.File == "" {
			continue
		}
		perFile[d.File] = append(perFile[d.File], d)
	}

	pages := make(map[string]sourcePage, len(perFile))
	for file, fileDefects := range perFile {
		source, err := os.ReadFile(filepath.Join(r.top, filepath.FromSlash(file)))
		if err != nil {
			continue
		}

		page := filepath.ToSlash(file) + ".html"
		out := filepath.Join(r.ComponentDir(c), filepath.FromSlash(page))
		if err := os.MkdirAll(filepath.Dir(out), 0o750); err != nil {
			return nil, errors.WrapError(err, errors.CategoryIO, "failed to create report directory")
		}
		content, err := r.sourcePageContent(c, file, string(source), fileDefects)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(out, []byte(content), 0o644); err != nil {
			return nil, errors.WrapError(err, errors.CategoryIO, "failed to write source listing")
		}
		pages[file] = sourcePage{Source: file, Page: page}
	}
	return pages, nil
}

func (r *Report) sourcePageContent(c *buildmodel.Component, file, source string, defects []Defect) (string, error) {
	lexer := lexers.Match(filepath.Base(file))
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	var ranges [][2]int
	for _, d := range defects {
		if d.Line > 0 {
			ranges = append(ranges, [2]int{d.Line, d.Line})
		}
	}

	formatter := htmlfmt.New(
		htmlfmt.WithLineNumbers(true),
		htmlfmt.WithLinkableLineNumbers(true, "line-"),
		htmlfmt.HighlightLines(ranges),
	)
	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryAnalysis, "failed to tokenise source")
	}
	var code strings.Builder
	if err := formatter.Format(&code, r.style, iterator); err != nil {
		return "", errors.WrapError(err, errors.CategoryAnalysis, "failed to highlight source")
	}

	home := relToReportRoot(c, strings.Count(filepath.ToSlash(file), "/"))
	data := sourcePageData{
		Title:   file,
		Home:    home + "index.html",
		Style:   home + "style.css",
		Defects: defects,
		Code:    template.HTML(code.String()),
	}
	var buf strings.Builder
	if err := sourceTmpl.Execute(&buf, data); err != nil {
		return "", errors.WrapError(err, errors.CategoryAnalysis, "failed to render source listing")
	}
	return buf.String(), nil
}

func (r *Report) writeComponentIndex(c *buildmodel.Component, defects []Defect, pages map[string]sourcePage) error {
	data := componentIndexData{
		Name:  c.Name,
		Home:  relToReportRoot(c, 0) + "index.html",
		Style: relToReportRoot(c, 0) + "style.css",
	}
	for _, d := range defects {
		row := defectRow{Defect: d, Fatal: d.Severity == "error"}
		if page, ok := pages[d.File]; ok {
			row.Link = page.Page
			if d.Line > 0 {
				row.Link += fmt.Sprintf("#line-%d", d.Line)
			}
		}
		data.Rows = append(data.Rows, row)
	}

	var buf strings.Builder
	if err := componentTmpl.Execute(&buf, data); err != nil {
		return errors.WrapError(err, errors.CategoryAnalysis, "failed to render defect index")
	}
	if err := os.WriteFile(r.ComponentIndex(c), []byte(buf.String()), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to write defect index")
	}
	return nil
}

// WriteCatalog emits the top level index linking every analyzed component
// with its severity summary, and the shared stylesheet.
func (r *Report) WriteCatalog(entries []CatalogEntry) error {
	if err := os.MkdirAll(r.root, 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to create report directory")
	}
	if err := r.writeStylesheet(); err != nil {
		return err
	}

	data := catalogData{Severities: severityOrder}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	for _, e := range entries {
		row := catalogRow{
			Name:  e.Name,
			Link:  path.Join(e.Dir, e.Name, "index.html"),
			Fatal: e.Counts["error"] > 0,
		}
		for _, sev := range severityOrder {
			row.Counts = append(row.Counts, e.Counts[sev])
		}
		data.Rows = append(data.Rows, row)
	}

	var buf strings.Builder
	if err := catalogTmpl.Execute(&buf, data); err != nil {
		return errors.WrapError(err, errors.CategoryAnalysis, "failed to render catalog")
	}
	if err := os.WriteFile(filepath.Join(r.root, "index.html"), []byte(buf.String()), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to write catalog")
	}
	return nil
}

func (r *Report) writeStylesheet() error {
	var buf strings.Builder
	buf.WriteString(reportCSS)
	formatter := htmlfmt.New(htmlfmt.WithClasses(true), htmlfmt.WithLineNumbers(true))
	if err := formatter.WriteCSS(&buf, r.style); err != nil {
		return errors.WrapError(err, errors.CategoryAnalysis, "failed to render stylesheet")
	}
	if err := os.WriteFile(filepath.Join(r.root, "style.css"), []byte(buf.String()), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to write stylesheet")
	}
	return nil
}

// relToReportRoot returns the prefix walking from a component page (plus
// extraDepth source subdirectories) back to the report root. A component
// living at the project top contributes no path segments of its own.
func relToReportRoot(c *buildmodel.Component, extraDepth int) string {
	depth := 1 + extraDepth
	if dir := path.Clean(filepath.ToSlash(c.Dir)); dir != "." && dir != "" {
		depth += strings.Count(dir, "/") + 1
	}
	return strings.Repeat("../", depth)
}

type sourcePageData struct {
	Title   string
	Home    string
	Style   string
	Defects []Defect
	Code    template.HTML
}

type defectRow struct {
	Defect
	Link  string
	Fatal bool
}

type componentIndexData struct {
	Name  string
	Home  string
	Style string
	Rows  []defectRow
}

type catalogRow struct {
	Name   string
	Link   string
	Fatal  bool
	Counts []int
}

type catalogData struct {
	Severities []string
	Rows       []catalogRow
}

const reportCSS = `body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.3em 0.8em; text-align: left; }
tr.fatal td { color: #a00; font-weight: bold; }
.nav { margin-bottom: 1em; }
`

var sourceTmpl = template.Must(template.New("source").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<link rel="stylesheet" href="{{.Style}}">
</head>
<body>
<div class="nav"><a href="{{.Home}}">Home</a></div>
<h1>{{.Title}}</h1>
<table>
<tr><th>Line</th><th>Id</th><th>Severity</th><th>Message</th></tr>
{{- range .Defects}}
<tr{{if eq .Severity "error"}} class="fatal"{{end}}><td><a href="#line-{{.Line}}">{{.Line}}</a></td><td>{{.ID}}</td><td>{{.Severity}}</td><td>{{.Msg}}</td></tr>
{{- end}}
</table>
{{.Code}}
</body>
</html>
`))

var componentTmpl = template.Must(template.New("component").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Name}}</title>
<link rel="stylesheet" href="{{.Style}}">
</head>
<body>
<div class="nav"><a href="{{.Home}}">Home</a></div>
<h1>{{.Name}}</h1>
<table>
<tr><th>File</th><th>Line</th><th>Id</th><th>Severity</th><th>Message</th></tr>
{{- range .Rows}}
<tr{{if .Fatal}} class="fatal"{{end}}><td>{{if .Link}}<a href="{{.Link}}">{{.File}}</a>{{else}}{{.File}}{{end}}</td><td>{{if .Line}}{{.Line}}{{end}}</td><td>{{.ID}}</td><td>{{.Severity}}</td><td>{{.Msg}}</td></tr>
{{- end}}
</table>
</body>
</html>
`))

var catalogTmpl = template.Must(template.New("catalog").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Static analysis</title>
<link rel="stylesheet" href="style.css">
</head>
<body>
<h1>Static analysis</h1>
<table>
<tr><th>Component</th>{{range .Severities}}<th>{{.}}</th>{{end}}</tr>
{{- range .Rows}}
<tr{{if .Fatal}} class="fatal"{{end}}><td><a href="{{.Link}}">{{.Name}}</a></td>{{range .Counts}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</table>
</body>
</html>
`))
