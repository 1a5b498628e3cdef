package packaging

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/benpapworth/waftools/internal/buildmodel"
	"github.com/benpapworth/waftools/internal/errors"
	"github.com/benpapworth/waftools/internal/logfields"
)

// DefaultMakensis is the NSIS compiler looked up on PATH.
const DefaultMakensis = "makensis"

// nsis compiles a windows installer from the staged files. A script in
// the project top wins over the generated default. A missing compiler is
// a warning, packaging on non windows hosts is common.
func (p *Packager) nsis(ctx context.Context, m *buildmodel.Model, top, root string, files []string, w io.Writer) error {
	scriptName := p.opts.NsisScript
	if scriptName == "" {
		scriptName = m.Package.NsisScript
	}
	if scriptName == "" {
		scriptName = "install.nsi"
	}

	script := filepath.Join(top, filepath.FromSlash(scriptName))
	if _, err := os.Stat(script); err != nil {
		if err := writeNsisScript(m, script, files); err != nil {
			return err
		}
		slog.Info("Generated default installer script", logfields.Path(script))
	}

	bin := p.opts.MakensisBin
	if bin == "" {
		bin = DefaultMakensis
	}

	cmd := exec.CommandContext(ctx, bin, "/NOCD", script)
	cmd.Dir = root
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	start := time.Now()
	err := cmd.Run()
	p.recorder.ObserveToolDuration(DefaultMakensis, time.Since(start))
	p.recorder.IncToolResult(DefaultMakensis, err == nil)

	if err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			return errors.New(errors.CategoryPackage, errors.SeverityError, "installer compilation failed").
				WithContext("output", strings.TrimSpace(output.String()))
		}
		slog.Warn("NSIS not available, skipping", logfields.Tool(DefaultMakensis), logfields.Error(err))
		return nil
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=======================")
	fmt.Fprintln(w, "PACKAGE (nsis)")
	fmt.Fprintln(w, "=======================")
	_, _ = io.WriteString(w, output.String())
	fmt.Fprintln(w, "-----------------------")
	return nil
}

type nsisData struct {
	AppName string
	Version string
	Files   []nsisFile
}

type nsisFile struct {
	Source string // staging relative, forward slashes
	Target string // install relative, backslashes
}

func writeNsisScript(m *buildmodel.Model, path string, files []string) error {
	data := nsisData{AppName: m.Project.AppName, Version: m.Project.Version}
	for _, f := range files {
		data.Files = append(data.Files, nsisFile{
			Source: f,
			Target: strings.ReplaceAll(f, "/", "\\"),
		})
	}

	var buf bytes.Buffer
	if err := nsisTmpl.Execute(&buf, data); err != nil {
		return errors.WrapError(err, errors.CategoryPackage, "failed to render installer script")
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to write installer script")
	}
	return nil
}

var nsisTmpl = template.Must(template.New("nsis").Parse(`; Generated installer script, do not edit.
Name "{{.AppName}} {{.Version}}"
OutFile "{{.AppName}}-{{.Version}}-setup.exe"
InstallDir "$PROGRAMFILES\{{.AppName}}"

Page directory
Page instfiles
UninstPage uninstConfirm
UninstPage instfiles

Section "Install"
{{- range .Files}}
	SetOutPath "$INSTDIR"
	File "/oname={{.Target}}" "{{.Source}}"
{{- end}}
	WriteUninstaller "$INSTDIR\uninstall.exe"
SectionEnd

Section "Uninstall"
{{- range .Files}}
	Delete "$INSTDIR\{{.Target}}"
{{- end}}
	Delete "$INSTDIR\uninstall.exe"
	RMDir "$INSTDIR"
SectionEnd
`))
