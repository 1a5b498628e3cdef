package metrics

import "time"

// Recorder defines observability hooks for external tool runs and file
// emission. Implementations may forward to Prometheus etc. All methods must
// be safe for nil receivers when using the NoopRecorder (allowing optional
// injection).
type Recorder interface {
	ObserveToolDuration(tool string, d time.Duration)
	IncToolResult(tool string, success bool)
	IncExportedFiles(format string, n int)
	IncDefects(component, severity string, n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveToolDuration(string, time.Duration) {}
func (NoopRecorder) IncToolResult(string, bool)                {}
func (NoopRecorder) IncExportedFiles(string, int)              {}
func (NoopRecorder) IncDefects(string, string, int)            {}

// Default is the recorder used when no explicit one is injected.
var Default Recorder = NoopRecorder{}
