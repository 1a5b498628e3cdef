// Command waftools works on a declarative build model of a C/C++ code
// base: it exports the model as makefiles and IDE projects, runs static
// analysis and documentation tools over it, prints dependency trees,
// builds distribution packages and installs the waf build system itself.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/benpapworth/waftools/internal/buildmodel"
	"github.com/benpapworth/waftools/internal/logfields"
	"github.com/benpapworth/waftools/internal/metrics"
	"github.com/benpapworth/waftools/internal/version"
)

var CLI struct {
	Config      string `short:"c" help:"Build model file" default:"${config_file}"`
	Verbose     bool   `short:"v" help:"Enable verbose logging"`
	MetricsAddr string `help:"Serve Prometheus metrics on this address (e.g. :9464)"`

	Export struct {
		Formats []string `short:"f" help:"Formats to export (default from config, or all)"`
		Cleanup bool     `help:"Remove previously exported files"`
		Watch   bool     `short:"w" help:"Re-export whenever the build model changes"`
	} `cmd:"" help:"Export the build model as build files and IDE projects"`

	Check struct {
		Targets     string `short:"t" help:"Comma separated component selection (default all)"`
		Bin         string `help:"Analyzer executable (default cppcheck on PATH)"`
		ErrResume   bool   `help:"Continue when fatal defects are found"`
		CheckConfig bool   `help:"Validate the analyzer configuration instead of full analysis"`
		Trend       bool   `help:"Compare defect counts against the previous run"`
	} `cmd:"" help:"Run the cppcheck static analyzer and build HTML reports"`

	Docs struct {
		Targets string `short:"t" help:"Comma separated component selection (default all)"`
		Bin     string `help:"Generator executable (default doxygen on PATH)"`
	} `cmd:"" help:"Generate component documentation with doxygen"`

	Depends struct {
		Targets string `short:"t" help:"Comma separated component selection (default all)"`
	} `cmd:"" help:"Print the component dependency tree"`

	Package struct {
		Types      []string `help:"Package types to create: ls, tar.gz, nsis, all (default from config)"`
		NsisScript string   `help:"NSIS install script (default install.nsi)"`
		Cleanup    bool     `help:"Remove the package staging area afterwards"`
	} `cmd:"" help:"Stage the install image and build distribution packages"`

	Setup struct {
		WafVersion string `help:"waf release to install" default:"${waf_version}"`
		Tools      string `help:"Comma separated list of extra waf tools" default:"${waf_tools}"`
		BinDir     string `help:"Executable install directory (default ~/.local/bin)"`
		LibDir     string `help:"Library install directory (default ~/.local/lib)"`
	} `cmd:"" help:"Download, build and install the waf meta build system"`

	Init struct {
		Force bool `help:"Overwrite an existing build model file"`
	} `cmd:"" help:"Write a starter build model file"`

	Version struct{} `cmd:"" help:"Print the tool version"`
}

func main() {
	ctx := kong.Parse(&CLI, kong.Vars{
		"config_file": buildmodel.DefaultFile,
		"waf_version": version.WafDefault,
		"waf_tools":   version.WafToolsDefault,
	})

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if CLI.MetricsAddr != "" {
		serveMetrics(CLI.MetricsAddr)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch ctx.Command() {
	case "export":
		err = runExport(runCtx)
	case "check":
		err = runCheck(runCtx)
	case "docs":
		err = runDocs(runCtx)
	case "depends":
		err = runDepends()
	case "package":
		err = runPackage(runCtx)
	case "setup":
		err = runSetup(runCtx)
	case "init":
		err = runInit()
	case "version":
		err = runVersion()
	default:
		err = ctx.PrintUsage(false)
	}
	if err != nil {
		slog.Error("Command failed", logfields.Error(err))
		os.Exit(1)
	}
}

// serveMetrics exposes the run counters for scraping; mostly useful in
// watch mode and CI wrappers that keep the process alive.
func serveMetrics(addr string) {
	reg := prom.NewRegistry()
	metrics.Default = metrics.NewPrometheusRecorder(reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		slog.Info("Serving metrics", logfields.Path(addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Warn("Metrics server stopped", logfields.Error(err))
		}
	}()
}
