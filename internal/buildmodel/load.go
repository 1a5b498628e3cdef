package buildmodel

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/benpapworth/waftools/internal/errors"
	"github.com/benpapworth/waftools/internal/logfields"
)

// DefaultFile is the build model file looked up when none is given.
const DefaultFile = "waftools.yaml"

// Load reads the build model from the specified file. Environment
// variables referenced in the YAML content are expanded, and a .env file
// next to the working directory is honoured when present.
func Load(path string) (*Model, error) {
	if err := loadEnvFile(); err != nil {
		slog.Warn("Skipping unreadable .env file", logfields.Error(err))
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.ConfigError("build model not found: " + path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read build model")
	}

	expanded := os.ExpandEnv(string(data))

	var model Model
	if err := yaml.Unmarshal([]byte(expanded), &model); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal build model")
	}

	model.applyDefaults()
	if err := model.Validate(); err != nil {
		return nil, err
	}
	return &model, nil
}

// loadEnvFile loads a .env file when one exists in the working directory.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load()
}

func (m *Model) applyDefaults() {
	home, _ := os.UserHomeDir()

	if m.Project.AppName == "" {
		m.Project.AppName = "appname"
	}
	if m.Project.Version == "" {
		m.Project.Version = "1.0.0"
	}
	if m.Project.Top == "" {
		m.Project.Top = "."
	}
	if m.Project.Out == "" {
		m.Project.Out = "build"
	}
	if m.Project.Prefix == "" {
		m.Project.Prefix = home
	}
	if m.Project.BinDir == "" {
		m.Project.BinDir = filepath.Join(m.Project.Prefix, "bin")
	}
	if m.Project.LibDir == "" {
		m.Project.LibDir = filepath.Join(m.Project.Prefix, "lib")
	}

	if m.Toolchain.CC == "" {
		m.Toolchain.CC = "gcc"
	}
	if m.Toolchain.CXX == "" {
		m.Toolchain.CXX = "g++"
	}
	if m.Toolchain.AR == "" {
		m.Toolchain.AR = "ar"
	}
	if m.Toolchain.DestOS == "" {
		m.Toolchain.DestOS = "linux"
	}
	if m.Toolchain.DestCPU == "" {
		m.Toolchain.DestCPU = "x86_64"
	}

	if m.Check.StdC == "" {
		m.Check.StdC = "c99"
	}
	if m.Check.StdCXX == "" {
		m.Check.StdCXX = "c++03"
	}
	if m.Check.MaxConfigs == 0 {
		m.Check.MaxConfigs = 10
	}
	if m.Check.BinEnable == "" {
		m.Check.BinEnable = "warning,performance,portability,style,unusedFunction"
	}
	if m.Check.LibEnable == "" {
		m.Check.LibEnable = "warning,performance,portability,style"
	}

	if len(m.Package.Types) == 0 {
		m.Package.Types = []string{"all"}
	}
	if m.Package.NsisScript == "" {
		m.Package.NsisScript = "install.nsi"
	}

	for i := range m.Components {
		c := &m.Components[i]
		if c.Language == "" {
			c.Language = LangC
		}
		if c.Dir == "" {
			c.Dir = "."
		}
		c.Dir = filepath.ToSlash(filepath.Clean(c.Dir))
	}
}

// Validate checks model invariants: unique component names, known kinds
// and languages, and at least one source per component.
func (m *Model) Validate() error {
	seen := make(map[string]bool, len(m.Components))
	for i := range m.Components {
		c := &m.Components[i]
		if c.Name == "" {
			return errors.ModelError("component without a name")
		}
		if seen[c.Name] {
			return errors.ModelError("duplicate component name").WithContext("component", c.Name)
		}
		seen[c.Name] = true

		switch c.Kind {
		case KindProgram, KindStaticLib, KindSharedLib:
		default:
			return errors.ModelError("unknown component kind").
				WithContext("component", c.Name).
				WithContext("kind", string(c.Kind))
		}

		switch c.Language {
		case LangC, LangCXX:
		default:
			return errors.ModelError("unknown component language").
				WithContext("component", c.Name).
				WithContext("language", string(c.Language))
		}

		if len(c.Sources) == 0 {
			return errors.ModelError("component has no sources").WithContext("component", c.Name)
		}
	}
	return nil
}

// Init writes a starter build model to the given path. Refuses to
// overwrite an existing file unless force is set.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ConfigError("file already exists (use --force to overwrite): " + path)
	}
	if err := os.WriteFile(path, []byte(starterModel), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryIO, "failed to write build model")
	}
	return nil
}

const starterModel = `# waftools build model
#
# Describes the components of a waf build environment so that the
# waftools commands (export, check, docs, depends, package) can run
# without the host build system.
project:
  appname: hello
  version: 1.0.0
  prefix: ${HOME}

toolchain:
  cc: gcc
  cxx: g++
  ar: ar

export:
  formats: [makefile, codeblocks]

components:
  - name: hello
    dir: components/hello
    kind: program
    language: c
    sources: [src/hello.c]
    includes: [include]
    use: [chello]

  - name: chello
    dir: components/chello
    kind: shlib
    language: c
    vnum: "1.0.0"
    sources: [src/chello.c]
    includes: [include]
`
