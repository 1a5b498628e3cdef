// Package workspace manages scratch directories. The package command
// stages its install image in a persistent workspace under the build
// directory, the setup command unpacks waf release archives in an
// ephemeral one.
package workspace

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/benpapworth/waftools/internal/errors"
	"github.com/benpapworth/waftools/internal/logfields"
)

// Manager owns a scratch directory. Ephemeral managers allocate a fresh
// directory per run and remove it on Cleanup; persistent managers reuse
// a fixed directory and survive Cleanup.
type Manager struct {
	base string
	path string
	keep bool
}

// NewManager creates an ephemeral manager. The scratch directory is
// allocated under base on Create, or under the system temp directory
// when base is empty.
func NewManager(base string) *Manager {
	return &Manager{base: base}
}

// NewPersistentManager creates a manager over the fixed directory
// base/name. The directory is kept across runs.
func NewPersistentManager(base, name string) *Manager {
	return &Manager{
		base: base,
		path: filepath.Join(base, name),
		keep: true,
	}
}

// Create allocates the scratch directory.
func (m *Manager) Create() error {
	if m.keep {
		if err := os.MkdirAll(m.path, 0o750); err != nil {
			return errors.WrapError(err, errors.CategoryIO, "failed to create workspace")
		}
		slog.Debug("Using persistent workspace", logfields.Path(m.path))
		return nil
	}

	path, err := os.MkdirTemp(m.base, "waftools-*")
	if err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to create workspace")
	}
	m.path = path
	slog.Debug("Created workspace", logfields.Path(path))
	return nil
}

// Path returns the scratch directory, empty before Create.
func (m *Manager) Path() string {
	return m.path
}

// Cleanup removes an ephemeral scratch directory. Persistent
// directories are left in place.
func (m *Manager) Cleanup() error {
	if m.path == "" || m.keep {
		return nil
	}
	if err := os.RemoveAll(m.path); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to remove workspace")
	}
	slog.Debug("Removed workspace", logfields.Path(m.path))
	m.path = ""
	return nil
}
