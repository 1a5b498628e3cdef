package cppcheck

import (
	"encoding/xml"
	"strings"

	"github.com/benpapworth/waftools/internal/errors"
)

// Severity values the analyzer reports, in catalog display order.
var severityOrder = []string{"error", "warning", "performance", "portability", "style", "information"}

// Defect is one analyzer finding pinned to a source location. Findings
// without a location (configuration noise) keep an empty File.
type Defect struct {
	ID       string
	Severity string
	Msg      string
	Verbose  string
	File     string
	Line     int
}

type resultsDoc struct {
	XMLName xml.Name   `xml:"results"`
	Version string     `xml:"version,attr"`
	Check   cppcheckEl `xml:"cppcheck"`
	Errors  []errorEl  `xml:"errors>error"`
}

type cppcheckEl struct {
	Version string `xml:"version,attr"`
	Cmd     string `xml:"cmd,omitempty"`
}

type errorEl struct {
	ID        string       `xml:"id,attr"`
	Severity  string       `xml:"severity,attr"`
	Msg       string       `xml:"msg,attr"`
	Verbose   string       `xml:"verbose,attr"`
	Locations []locationEl `xml:"location"`
}

type locationEl struct {
	File string `xml:"file,attr"`
	Line int    `xml:"line,attr"`
}

// parseResults extracts the XML document from the analyzer's stderr.
// Output before the XML (progress noise) is skipped; stderr without a
// results document yields nil.
func parseResults(stderr []byte) (*resultsDoc, error) {
	text := string(stderr)
	if i := strings.Index(text, "<?xml"); i > 0 {
		text = text[i:]
	}
	if !strings.Contains(text, "<results") {
		return nil, nil
	}

	var doc resultsDoc
	if err := xml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, errors.WrapError(err, errors.CategoryAnalysis, "failed to parse analyzer XML report")
	}
	return &doc, nil
}

// ParseDefects extracts the defects from the analyzer's stderr.
func ParseDefects(stderr []byte) ([]Defect, error) {
	doc, err := parseResults(stderr)
	if err != nil || doc == nil {
		return nil, err
	}

	defects := make([]Defect, 0, len(doc.Errors))
	for _, e := range doc.Errors {
		d := Defect{ID: e.ID, Severity: e.Severity, Msg: e.Msg, Verbose: e.Verbose}
		if len(e.Locations) > 0 {
			d.File = e.Locations[0].File
			d.Line = e.Locations[0].Line
		}
		defects = append(defects, d)
	}
	return defects, nil
}

// CountBySeverity tallies defects per severity.
func CountBySeverity(defects []Defect) map[string]int {
	counts := make(map[string]int)
	for _, d := range defects {
		counts[d.Severity]++
	}
	return counts
}

// HasSeverity reports whether any defect carries the given severity.
func HasSeverity(defects []Defect, severity string) bool {
	for _, d := range defects {
		if d.Severity == severity {
			return true
		}
	}
	return false
}
