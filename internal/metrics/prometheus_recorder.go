package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	toolDuration  *prom.HistogramVec
	toolResults   *prom.CounterVec
	exportedFiles *prom.CounterVec
	defects       *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.toolDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "waftools",
			Name:      "tool_duration_seconds",
			Help:      "Duration of external tool invocations",
			Buckets:   prom.DefBuckets,
		}, []string{"tool"})
		pr.toolResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "waftools",
			Name:      "tool_results_total",
			Help:      "External tool results by success/failure",
		}, []string{"tool", "result"})
		pr.exportedFiles = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "waftools",
			Name:      "exported_files_total",
			Help:      "Files emitted per export format",
		}, []string{"format"})
		pr.defects = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "waftools",
			Name:      "defects_total",
			Help:      "Static analysis defects by component and severity",
		}, []string{"component", "severity"})
		reg.MustRegister(pr.toolDuration, pr.toolResults, pr.exportedFiles, pr.defects)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveToolDuration(tool string, d time.Duration) {
	if p == nil || p.toolDuration == nil {
		return
	}
	p.toolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncToolResult(tool string, success bool) {
	if p == nil || p.toolResults == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.toolResults.WithLabelValues(tool, res).Inc()
}

func (p *PrometheusRecorder) IncExportedFiles(format string, n int) {
	if p == nil || p.exportedFiles == nil {
		return
	}
	p.exportedFiles.WithLabelValues(format).Add(float64(n))
}

func (p *PrometheusRecorder) IncDefects(component, severity string, n int) {
	if p == nil || p.defects == nil {
		return
	}
	p.defects.WithLabelValues(component, severity).Add(float64(n))
}
