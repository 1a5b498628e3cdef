package cppcheck

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/benpapworth/waftools/internal/errors"
)

// HistoryFile is the database name under the report root.
const HistoryFile = "history.db"

// RunCounts is one recorded analyzer run of a component.
type RunCounts struct {
	Component   string
	RunAt       time.Time
	Errors      int
	Warnings    int
	Performance int
	Portability int
	Style       int
	Information int
}

// Total returns the defect count of a run.
func (r RunCounts) Total() int {
	return r.Errors + r.Warnings + r.Performance + r.Portability + r.Style + r.Information
}

// NewRunCounts converts a severity tally into a history row.
func NewRunCounts(component string, counts map[string]int) RunCounts {
	return RunCounts{
		Component:   component,
		RunAt:       time.Now().UTC(),
		Errors:      counts["error"],
		Warnings:    counts["warning"],
		Performance: counts["performance"],
		Portability: counts["portability"],
		Style:       counts["style"],
		Information: counts["information"],
	}
}

// History stores per component run summaries so successive runs can be
// compared.
type History struct {
	db *sql.DB
}

const historySchema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	component   TEXT NOT NULL,
	run_at      TIMESTAMP NOT NULL,
	errors      INTEGER NOT NULL,
	warnings    INTEGER NOT NULL,
	performance INTEGER NOT NULL,
	portability INTEGER NOT NULL,
	style       INTEGER NOT NULL,
	information INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_component ON runs(component, id);
`

// OpenHistory opens or creates the history database.
func OpenHistory(path string) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryIO, "failed to open history database")
	}
	if _, err := db.Exec(historySchema); err != nil {
		_ = db.Close()
		return nil, errors.WrapError(err, errors.CategoryIO, "failed to initialize history database")
	}
	return &History{db: db}, nil
}

// Close releases the database.
func (h *History) Close() error { return h.db.Close() }

// Record appends one run row.
func (h *History) Record(run RunCounts) error {
	_, err := h.db.Exec(
		`INSERT INTO runs (component, run_at, errors, warnings, performance, portability, style, information)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Component, run.RunAt, run.Errors, run.Warnings, run.Performance, run.Portability, run.Style, run.Information)
	if err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to record analyzer run")
	}
	return nil
}

// Previous returns the most recent run of a component before the latest
// one, or false when there is no earlier run to compare against.
func (h *History) Previous(component string) (RunCounts, bool, error) {
	row := h.db.QueryRow(
		`SELECT component, run_at, errors, warnings, performance, portability, style, information
		 FROM runs WHERE component = ? ORDER BY id DESC LIMIT 1 OFFSET 1`, component)

	var run RunCounts
	err := row.Scan(&run.Component, &run.RunAt, &run.Errors, &run.Warnings,
		&run.Performance, &run.Portability, &run.Style, &run.Information)
	if err == sql.ErrNoRows {
		return RunCounts{}, false, nil
	}
	if err != nil {
		return RunCounts{}, false, errors.WrapError(err, errors.CategoryIO, "failed to query analyzer history")
	}
	return run, true, nil
}

// Latest returns the most recent run of a component.
func (h *History) Latest(component string) (RunCounts, bool, error) {
	row := h.db.QueryRow(
		`SELECT component, run_at, errors, warnings, performance, portability, style, information
		 FROM runs WHERE component = ? ORDER BY id DESC LIMIT 1`, component)

	var run RunCounts
	err := row.Scan(&run.Component, &run.RunAt, &run.Errors, &run.Warnings,
		&run.Performance, &run.Portability, &run.Style, &run.Information)
	if err == sql.ErrNoRows {
		return RunCounts{}, false, nil
	}
	if err != nil {
		return RunCounts{}, false, errors.WrapError(err, errors.CategoryIO, "failed to query analyzer history")
	}
	return run, true, nil
}
