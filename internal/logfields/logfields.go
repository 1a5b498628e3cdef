package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyComponent = "component"
	KeyFormat    = "format"
	KeyTool      = "tool"
	KeyPath      = "path"
	KeyFile      = "file"
	KeyCommand   = "command"
	KeyCount     = "count"
	KeySeverity  = "severity"
	KeyVersion   = "version"
	KeyError     = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Component(name string) slog.Attr { return slog.String(KeyComponent, name) }
func Format(name string) slog.Attr    { return slog.String(KeyFormat, name) }
func Tool(name string) slog.Attr      { return slog.String(KeyTool, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Command(c string) slog.Attr      { return slog.String(KeyCommand, c) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Severity(s string) slog.Attr     { return slog.String(KeySeverity, s) }
func Version(v string) slog.Attr      { return slog.String(KeyVersion, v) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
