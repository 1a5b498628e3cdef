// Package setup installs the waf meta build system: it downloads a
// release archive, builds the waf executable with waf-light and installs
// it into the user's bin and lib directories, registering PATH and WAFDIR
// in the shell profile.
package setup

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/benpapworth/waftools/internal/errors"
	"github.com/benpapworth/waftools/internal/logfields"
	"github.com/benpapworth/waftools/internal/metrics"
	"github.com/benpapworth/waftools/internal/version"
	"github.com/benpapworth/waftools/internal/workspace"
)

// DefaultBaseURL serves the waf release archives.
const DefaultBaseURL = "https://waf.io/pub/release"

// Options tune an Installer.
type Options struct {
	// Version of the waf release to install.
	Version string
	// Tools is the comma separated waf tool list built into the binary.
	Tools string
	// BinDir receives the waf executable, default ~/.local/bin.
	BinDir string
	// LibDir receives the waflib directory, default ~/.local/lib.
	LibDir string
	// BaseURL overrides the release download location.
	BaseURL string
	// Python is the interpreter running waf-light, default python.
	Python string
	// Profile is the shell profile receiving the exports, default
	// ~/.bashrc.
	Profile string
	// Recorder receives run metrics, default metrics.Default.
	Recorder metrics.Recorder
}

// Installer downloads, builds and installs a waf release.
type Installer struct {
	opts     Options
	client   *http.Client
	recorder metrics.Recorder
}

// NewInstaller creates an Installer, filling in the defaults.
func NewInstaller(opts Options) *Installer {
	if opts.Version == "" {
		opts.Version = version.WafDefault
	}
	if opts.Tools == "" {
		opts.Tools = version.WafToolsDefault
	}
	home, _ := os.UserHomeDir()
	if opts.BinDir == "" {
		opts.BinDir = filepath.Join(home, ".local", "bin")
	}
	if opts.LibDir == "" {
		opts.LibDir = filepath.Join(home, ".local", "lib")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Python == "" {
		opts.Python = "python"
	}
	if opts.Profile == "" {
		opts.Profile = filepath.Join(home, ".bashrc")
	}
	rec := opts.Recorder
	if rec == nil {
		rec = metrics.Default
	}
	return &Installer{opts: opts, client: &http.Client{Timeout: 5 * time.Minute}, recorder: rec}
}

// Run performs the full installation.
func (s *Installer) Run(ctx context.Context) error {
	release := "waf-" + s.opts.Version
	archive := release + ".tar.bz2"
	url := s.opts.BaseURL + "/" + archive

	slog.Info("Installing waf",
		logfields.Version(s.opts.Version),
		slog.String("tools", s.opts.Tools),
		slog.String("url", url))

	ws := workspace.NewManager("")
	if err := ws.Create(); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to create workspace")
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			slog.Warn("Failed to clean workspace", logfields.Error(err))
		}
	}()

	saved := filepath.Join(ws.Path(), archive)
	if err := s.download(ctx, url, saved); err != nil {
		return err
	}
	if err := extract(saved, ws.Path()); err != nil {
		return err
	}

	releaseDir := filepath.Join(ws.Path(), release)
	if err := s.build(ctx, releaseDir); err != nil {
		return err
	}
	if err := s.install(releaseDir); err != nil {
		return err
	}
	return s.registerEnv()
}

// download fetches the release archive.
func (s *Installer) download(ctx context.Context, url, saveto string) error {
	slog.Info("Downloading release", logfields.Path(url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.WrapError(err, errors.CategoryTool, "failed to build download request")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return errors.WrapError(err, errors.CategoryTool, "failed to download waf release")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New(errors.CategoryTool, errors.SeverityError, "unexpected download response").
			WithContext("url", url).
			WithContext("status", resp.Status)
	}

	f, err := os.Create(saveto)
	if err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to create archive file")
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to save archive")
	}
	return f.Close()
}

// build runs waf-light in the unpacked release directory.
func (s *Installer) build(ctx context.Context, releaseDir string) error {
	slog.Info("Building waf executable", logfields.Path(releaseDir))

	cmd := exec.CommandContext(ctx, s.opts.Python, "waf-light", "--make-waf", "--tools="+s.opts.Tools)
	cmd.Dir = releaseDir
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	start := time.Now()
	err := cmd.Run()
	s.recorder.ObserveToolDuration("waf-light", time.Since(start))
	s.recorder.IncToolResult("waf-light", err == nil)

	if err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) {
			return errors.New(errors.CategoryTool, errors.SeverityError, "waf-light build failed").
				WithContext("output", strings.TrimSpace(output.String()))
		}
		return errors.WrapError(err, errors.CategoryTool, "failed to run waf-light").
			WithContext("command", s.opts.Python)
	}
	return nil
}

// install copies the built executable and the waflib directory into
// place. An existing waflib is replaced.
func (s *Installer) install(releaseDir string) error {
	if err := os.MkdirAll(s.opts.BinDir, 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to create bin directory")
	}
	waf := filepath.Join(s.opts.BinDir, "waf")
	if err := copyFile(filepath.Join(releaseDir, "waf"), waf, 0o700); err != nil {
		return err
	}
	slog.Info("Installed waf executable", logfields.Path(waf))

	if err := os.MkdirAll(s.opts.LibDir, 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to create lib directory")
	}
	waflib := filepath.Join(s.opts.LibDir, "waflib")
	if err := os.RemoveAll(waflib); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to replace waflib")
	}
	if err := copyTree(filepath.Join(releaseDir, "waflib"), waflib); err != nil {
		return err
	}
	slog.Info("Installed waflib", logfields.Path(waflib))
	return nil
}

// registerEnv makes the installation reachable from new shells.
func (s *Installer) registerEnv() error {
	if err := appendExport(s.opts.Profile, "PATH", s.opts.BinDir, true); err != nil {
		return err
	}
	return appendExport(s.opts.Profile, "WAFDIR", s.opts.LibDir, false)
}

// appendExport adds an export line to the shell profile unless an export
// of the variable already mentions the value.
func appendExport(profile, variable, value string, extend bool) error {
	existing, err := os.ReadFile(profile)
	if err != nil && !os.IsNotExist(err) {
		return errors.WrapError(err, errors.CategoryIO, "failed to read shell profile")
	}
	for _, line := range strings.Split(string(existing), "\n") {
		if strings.HasPrefix(line, "export "+variable+"=") && strings.Contains(line, value) {
			slog.Info("Environment variable already registered",
				slog.String("variable", variable),
				logfields.Path(profile))
			return nil
		}
	}

	export := fmt.Sprintf("export %s=%s\n", variable, value)
	if extend {
		export = fmt.Sprintf("export %s=$%s:%s\n", variable, variable, value)
	}

	f, err := os.OpenFile(profile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to open shell profile")
	}
	defer f.Close()

	content := export
	if len(existing) > 0 && !bytes.HasSuffix(existing, []byte("\n")) {
		content = "\n" + export
	}
	if _, err := f.WriteString(content); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to update shell profile")
	}
	slog.Info("Registered environment variable",
		slog.String("variable", variable),
		logfields.Path(profile))
	return f.Close()
}

func copyFile(src, dst string, mode os.FileMode) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to read installed file")
	}
	if err := os.WriteFile(dst, data, mode); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to write installed file")
	}
	return nil
}

func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return errors.WrapError(err, errors.CategoryIO, "failed to walk waflib")
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o750)
		}
		return copyFile(path, target, info.Mode().Perm())
	})
}
