package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/benpapworth/waftools/internal/analysis/cppcheck"
	"github.com/benpapworth/waftools/internal/buildmodel"
	"github.com/benpapworth/waftools/internal/depends"
	"github.com/benpapworth/waftools/internal/docgen"
	"github.com/benpapworth/waftools/internal/errors"
	"github.com/benpapworth/waftools/internal/export"
	"github.com/benpapworth/waftools/internal/export/codeblocks"
	"github.com/benpapworth/waftools/internal/export/eclipse"
	"github.com/benpapworth/waftools/internal/export/makefile"
	"github.com/benpapworth/waftools/internal/export/msdev"
	"github.com/benpapworth/waftools/internal/logfields"
	"github.com/benpapworth/waftools/internal/metrics"
	"github.com/benpapworth/waftools/internal/packaging"
	"github.com/benpapworth/waftools/internal/setup"
	"github.com/benpapworth/waftools/internal/version"
)

func loadModel() (*buildmodel.Model, error) {
	return buildmodel.Load(CLI.Config)
}

func newRegistry() *export.Registry {
	reg := export.NewRegistry()
	reg.Register(makefile.New())
	reg.Register(codeblocks.New())
	reg.Register(eclipse.New())
	reg.Register(msdev.New())
	return reg
}

// exportFormats resolves the format selection: flags win over the model
// configuration, and with neither every format is exported.
func exportFormats(reg *export.Registry, m *buildmodel.Model) ([]export.Exporter, error) {
	names := CLI.Export.Formats
	if len(names) == 0 {
		names = m.Export.Formats
	}
	if len(names) == 0 {
		names = reg.List()
	}
	return reg.Select(names)
}

func runExport(ctx context.Context) error {
	run := func() error {
		m, err := loadModel()
		if err != nil {
			return err
		}
		if len(m.Components) == 0 {
			return errors.New(errors.CategoryExport, errors.SeverityError, "export failed: no targets found")
		}

		reg := newRegistry()
		exporters, err := exportFormats(reg, m)
		if err != nil {
			return err
		}
		meta := export.NewMeta(m)

		for _, e := range exporters {
			if CLI.Export.Cleanup {
				if err := e.Cleanup(m, meta); err != nil {
					return err
				}
				slog.Info("Removed exported files", logfields.Format(e.Name()))
				continue
			}
			written, err := e.Export(m, meta)
			if err != nil {
				return err
			}
			metrics.Default.IncExportedFiles(e.Name(), len(written))
			slog.Info("Exported build files",
				logfields.Format(e.Name()),
				logfields.Count(len(written)))
		}
		return nil
	}

	if err := run(); err != nil {
		return err
	}
	if CLI.Export.Watch && !CLI.Export.Cleanup {
		return export.Watch(ctx, CLI.Config, run)
	}
	return nil
}

func runCheck(ctx context.Context) error {
	m, err := loadModel()
	if err != nil {
		return err
	}
	if len(m.Components) == 0 {
		return errors.New(errors.CategoryAnalysis, errors.SeverityError, "check failed: no targets found")
	}

	runner := cppcheck.NewRunner(cppcheck.Options{
		Bin:         CLI.Check.Bin,
		ErrResume:   CLI.Check.ErrResume,
		CheckConfig: CLI.Check.CheckConfig,
		Trend:       CLI.Check.Trend,
	})
	results, err := runner.Run(ctx, m, CLI.Check.Targets)
	for _, res := range results {
		printCheckResult(res)
	}
	return err
}

func printCheckResult(res cppcheck.Result) {
	total := 0
	for _, n := range res.Counts {
		total += n
	}
	fmt.Printf("%-24s defects=%d report=%s\n", res.Component.Name, total, res.Report)

	if res.Previous != nil {
		current := cppcheck.NewRunCounts(res.Component.Name, res.Counts)
		fmt.Printf("%-24s trend: errors %+d, warnings %+d, total %+d (previous run %s)\n",
			res.Component.Name,
			current.Errors-res.Previous.Errors,
			current.Warnings-res.Previous.Warnings,
			current.Total()-res.Previous.Total(),
			res.Previous.RunAt.Format("2006-01-02 15:04:05"))
	}
}

func runDocs(ctx context.Context) error {
	m, err := loadModel()
	if err != nil {
		return err
	}
	runner := docgen.NewRunner(docgen.Options{Bin: CLI.Docs.Bin})
	return runner.Run(ctx, m, CLI.Docs.Targets)
}

func runDepends() error {
	m, err := loadModel()
	if err != nil {
		return err
	}
	return depends.Print(os.Stdout, m, CLI.Depends.Targets)
}

func runPackage(ctx context.Context) error {
	m, err := loadModel()
	if err != nil {
		return err
	}
	p := packaging.New(packaging.Options{
		Types:      CLI.Package.Types,
		NsisScript: CLI.Package.NsisScript,
		Cleanup:    CLI.Package.Cleanup,
	})
	return p.Run(ctx, m, os.Stdout)
}

func runSetup(ctx context.Context) error {
	installer := setup.NewInstaller(setup.Options{
		Version: CLI.Setup.WafVersion,
		Tools:   CLI.Setup.Tools,
		BinDir:  CLI.Setup.BinDir,
		LibDir:  CLI.Setup.LibDir,
	})
	return installer.Run(ctx)
}

func runInit() error {
	if err := buildmodel.Init(CLI.Config, CLI.Init.Force); err != nil {
		return err
	}
	slog.Info("Wrote build model file", logfields.Path(CLI.Config))
	return nil
}

func runVersion() error {
	fmt.Printf("waftools %s\n", version.Version)
	return nil
}
