// Package packaging stages the install image of the build model in a
// scratch directory and turns it into distributable artifacts: a plain
// listing, a tar.gz archive and an NSIS windows installer.
package packaging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/benpapworth/waftools/internal/buildmodel"
	"github.com/benpapworth/waftools/internal/errors"
	"github.com/benpapworth/waftools/internal/logfields"
	"github.com/benpapworth/waftools/internal/metrics"
	"github.com/benpapworth/waftools/internal/workspace"
)

// StagingDir is the staging area under the build directory.
const StagingDir = ".wafpackage"

// Options tune a Packager.
type Options struct {
	// Types limits the package types to create; empty falls back to the
	// model configuration (default all). Known: ls, tar.gz, nsis, all.
	Types []string
	// NsisScript overrides the install script name from the model.
	NsisScript string
	// Cleanup removes the staging area after packaging.
	Cleanup bool
	// MakensisBin overrides the NSIS compiler, default makensis on PATH.
	MakensisBin string
	// Recorder receives run metrics, default metrics.Default.
	Recorder metrics.Recorder
}

// Packager builds distribution packages from a staged install image.
type Packager struct {
	opts     Options
	recorder metrics.Recorder
}

// New creates a Packager.
func New(opts Options) *Packager {
	rec := opts.Recorder
	if rec == nil {
		rec = metrics.Default
	}
	return &Packager{opts: opts, recorder: rec}
}

// Run stages the install image and creates the selected package types.
// The listing goes to w.
func (p *Packager) Run(ctx context.Context, m *buildmodel.Model, w io.Writer) error {
	types := p.opts.Types
	if len(types) == 0 {
		types = m.Package.Types
	}
	if len(types) == 0 {
		types = []string{"all"}
	}

	top, err := filepath.Abs(m.Project.Top)
	if err != nil {
		top = m.Project.Top
	}
	out := m.Project.Out
	if !filepath.IsAbs(out) {
		out = filepath.Join(top, out)
	}

	ws := workspace.NewPersistentManager(out, StagingDir)
	if err := os.RemoveAll(filepath.Join(out, StagingDir)); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to clear staging area")
	}
	if err := ws.Create(); err != nil {
		return errors.WrapError(err, errors.CategoryPackage, "failed to create staging area")
	}
	if p.opts.Cleanup {
		defer func() {
			if err := os.RemoveAll(ws.Path()); err != nil {
				slog.Warn("Failed to remove staging area", logfields.Path(ws.Path()), logfields.Error(err))
			}
		}()
	}

	files, err := stage(m, top, out, ws.Path())
	if err != nil {
		return err
	}

	if selected(types, "ls") {
		printListing(w, files)
	}
	if selected(types, "tar.gz") {
		if err := p.archive(m, top, ws.Path(), files, w); err != nil {
			return err
		}
	}
	if selected(types, "nsis") {
		if err := p.nsis(ctx, m, top, ws.Path(), files, w); err != nil {
			return err
		}
	}
	return nil
}

func selected(types []string, want string) bool {
	for _, t := range types {
		if t == "all" || t == want {
			return true
		}
	}
	return false
}

// stage copies the install image into the staging root, laid out relative
// to the install prefix. Artifacts the build has not produced yet are
// skipped with a warning. Returns the staged files, prefix-relative.
func stage(m *buildmodel.Model, top, out, root string) ([]string, error) {
	var files []string

	for i := range m.Components {
		c := &m.Components[i]
		if !c.Installable() {
			continue
		}

		switch c.Kind {
		case buildmodel.KindProgram:
			rel, err := stageArtifact(m, c, top, root, m.Project.BinDir)
			if err != nil {
				return nil, err
			}
			if rel != "" {
				files = append(files, rel)
			}
		case buildmodel.KindSharedLib:
			rel, err := stageArtifact(m, c, top, root, m.Project.LibDir)
			if err != nil {
				return nil, err
			}
			if rel != "" {
				files = append(files, rel)
			}
		}

		if c.IsLibrary() {
			headers, err := stageHeaders(m, c, top, root)
			if err != nil {
				return nil, err
			}
			files = append(files, headers...)
		}
	}

	sort.Strings(files)
	return files, nil
}

// stageArtifact copies one build output into the staging root under its
// install directory.
func stageArtifact(m *buildmodel.Model, c *buildmodel.Component, top, root, destDir string) (string, error) {
	src := filepath.Join(top, filepath.FromSlash(m.ArtifactPath(c)))
	if _, err := os.Stat(src); err != nil {
		slog.Warn("Skipping artifact; not built yet",
			logfields.Component(c.Name),
			logfields.Path(src))
		return "", nil
	}

	rel := prefixRelative(m.Project.Prefix, destDir) + "/" + m.ArtifactName(c)
	if err := copyFile(src, filepath.Join(root, filepath.FromSlash(rel))); err != nil {
		return "", err
	}
	return rel, nil
}

// stageHeaders copies the public headers of a library component under
// include/<component>/ in the staging root. The component subdirectory
// keeps same-named headers from different libraries apart.
func stageHeaders(m *buildmodel.Model, c *buildmodel.Component, top, root string) ([]string, error) {
	var staged []string
	for _, inc := range c.Includes {
		matches, _ := filepath.Glob(filepath.Join(top, filepath.FromSlash(c.Dir), filepath.FromSlash(inc), "*.h*"))
		for _, match := range matches {
			rel := "include/" + c.Name + "/" + filepath.Base(match)
			if err := copyFile(match, filepath.Join(root, filepath.FromSlash(rel))); err != nil {
				return nil, err
			}
			staged = append(staged, rel)
		}
	}
	return staged, nil
}

// prefixRelative strips the install prefix from a directory so the
// staging root mirrors the prefix layout.
func prefixRelative(prefix, dir string) string {
	prefix = filepath.ToSlash(prefix)
	dir = filepath.ToSlash(dir)
	if rest, ok := strings.CutPrefix(dir, prefix); ok {
		return strings.Trim(rest, "/")
	}
	return strings.TrimPrefix(dir, "/")
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to create staging directory")
	}
	in, err := os.Open(src)
	if err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to open staged file")
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to stat staged file")
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to create staged file")
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to copy staged file")
	}
	return out.Close()
}

func printListing(w io.Writer, files []string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=======================")
	fmt.Fprintln(w, "PACKAGE (ls)")
	fmt.Fprintln(w, "=======================")
	for _, f := range files {
		fmt.Fprintf(w, "$PREFIX/%s\n", f)
	}
	fmt.Fprintln(w, "-----------------------")
}
