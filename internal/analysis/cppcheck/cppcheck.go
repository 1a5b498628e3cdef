// Package cppcheck drives the cppcheck static analyzer over the build
// model and turns its XML defect stream into a browsable HTML report tree
// with a per component run history.
package cppcheck

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/benpapworth/waftools/internal/buildmodel"
	"github.com/benpapworth/waftools/internal/errors"
	"github.com/benpapworth/waftools/internal/logfields"
	"github.com/benpapworth/waftools/internal/metrics"
)

// Options tune a Runner.
type Options struct {
	// Bin overrides the analyzer executable, default cppcheck on PATH.
	Bin string
	// ErrResume keeps going when a component has error severity defects.
	ErrResume bool
	// CheckConfig passes --check-config regardless of the model setting.
	CheckConfig bool
	// Trend compares each run against the previous one in the history.
	Trend bool
	// Recorder receives run metrics, default metrics.Default.
	Recorder metrics.Recorder
}

// Result is the outcome of analyzing one component.
type Result struct {
	Component *buildmodel.Component
	Defects   []Defect
	Counts    map[string]int
	Report    string // path of the defect index
	Previous  *RunCounts
}

// Runner executes the analyzer per component and writes the report tree.
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
	return &Runner{opts: opts, recorder: rec}
}

// Run analyzes the selected components. The returned error is nil even
// when defects were found, unless a component produced error severity
// defects and ErrResume is off, or the analyzer could not run at all.
func (r *Runner) Run(ctx context.Context, m *buildmodel.Model, selection string) ([]Result, error) {
	targets, err := m.Targets(selection)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, errors.New(errors.CategoryAnalysis, errors.SeverityError, "no targets found")
	}

	top, err := filepath.Abs(m.Project.Top)
	if err != nil {
		top = m.Project.Top
	}
	report := NewReport(top)
	if err := os.MkdirAll(filepath.Join(top, filepath.FromSlash(ReportRoot)), 0o750); err != nil {
		return nil, errors.WrapError(err, errors.CategoryIO, "failed to create report directory")
	}

	history, err := OpenHistory(filepath.Join(top, filepath.FromSlash(ReportRoot), HistoryFile))
	if err != nil {
		// A broken history must not block the analysis itself.
		slog.Warn("Analyzer history unavailable", logfields.Error(err))
		history = nil
	}
	if history != nil {
		defer func() { _ = history.Close() }()
	}

	var results []Result
	var entries []CatalogEntry
	var fatal []string

	for _, c := range targets {
		cmd := Command(m, c, r.opts.Bin, r.opts.CheckConfig)
		slog.Debug("Running analyzer",
			logfields.Tool(DefaultBin),
			logfields.Component(c.Name),
			logfields.Command(strings.Join(cmd, " ")))

		start := time.Now()
		stderr, err := r.execute(ctx, top, cmd)
		r.recorder.ObserveToolDuration(DefaultBin, time.Since(start))
		r.recorder.IncToolResult(DefaultBin, err == nil)
		if err != nil {
			return results, err
		}

		defects, err := ParseDefects(stderr)
		if err != nil {
			return results, err
		}
		if err := report.WriteComponent(c, defects, stderr, cmd); err != nil {
			return results, err
		}

		counts := CountBySeverity(defects)
		for sev, n := range counts {
			r.recorder.IncDefects(c.Name, sev, n)
		}

		res := Result{
			Component: c,
			Defects:   defects,
			Counts:    counts,
			Report:    report.ComponentIndex(c),
		}

		if history != nil {
			if err := history.Record(NewRunCounts(c.Name, counts)); err != nil {
				slog.Warn("Failed to record analyzer run", logfields.Component(c.Name), logfields.Error(err))
			} else if r.opts.Trend {
				if prev, ok, err := history.Previous(c.Name); err == nil && ok {
					res.Previous = &prev
				}
			}
		}

		if n := problemCount(defects); n > 0 {
			slog.Warn("Analyzer found defects, see report for details",
				logfields.Component(c.Name),
				logfields.Count(n),
				logfields.Path(res.Report))
		}
		if HasSeverity(defects, "error") {
			fatal = append(fatal, c.Name)
		}

		results = append(results, res)
		entries = append(entries, CatalogEntry{Name: c.Name, Dir: c.Dir, Counts: counts})
	}

	if err := report.WriteCatalog(entries); err != nil {
		return results, err
	}

	if len(fatal) > 0 && !r.opts.ErrResume {
		return results, errors.New(errors.CategoryAnalysis, errors.SeverityFatal,
			"analyzer detected fatal defects, see report for details").
			WithContext("components", strings.Join(fatal, ","))
	}
	return results, nil
}

// execute runs the analyzer from the project top and captures stderr,
// where the XML report arrives. A non-zero exit of the analyzer is not a
// failure; defect handling decides the outcome. A binary that cannot be
// started at all is.
func (r *Runner) execute(ctx context.Context, dir string, argv []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if err != nil && !stderrors.As(err, &exitErr) {
		return nil, errors.WrapError(err, errors.CategoryTool, "failed to run analyzer").
			WithContext("command", argv[0])
	}
	return stderr.Bytes(), nil
}

// problemCount counts the defects worth pointing at: everything except
// pure information entries.
func problemCount(defects []Defect) int {
	n := 0
	for _, d := range defects {
		if d.Severity != "information" {
			n++
		}
	}
	return n
}
