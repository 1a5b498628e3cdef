package docgen

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/benpapworth/waftools/internal/buildmodel"
	"github.com/benpapworth/waftools/internal/errors"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// renderMarkdown converts the markdown files in a component directory to
// HTML pages next to the API docs and returns index entries for them.
func renderMarkdown(top string, c *buildmodel.Component, dir string) ([]indexPage, error) {
	matches, err := filepath.Glob(filepath.Join(top, filepath.FromSlash(c.Dir), "*.md"))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryIO, "failed to scan markdown files")
	}
	sort.Strings(matches)

	var pages []indexPage
	for _, match := range matches {
		source, err := os.ReadFile(match)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryIO, "failed to read markdown file")
		}

		var body bytes.Buffer
		if err := markdown.Convert(source, &body); err != nil {
			return nil, errors.WrapError(err, errors.CategoryDocs, "failed to render markdown").
				WithContext("file", match)
		}

		name := filepath.Base(match)
		content := pageHeader(pageTitle(name)) + body.String() + pageFooter
		out := filepath.Join(dir, pageTitle(name)+".html")
		if err := os.WriteFile(out, []byte(content), 0o644); err != nil {
			return nil, errors.WrapError(err, errors.CategoryIO, "failed to write markdown page")
		}
		pages = append(pages, indexPage{Title: pageTitle(name), Link: pageLink(c.Name, name)})
	}
	return pages, nil
}

func pageHeader(title string) string {
	return `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>` + title + `</title>
</head>
<body>
`
}

const pageFooter = `</body>
</html>
`
