package cppcheck

import (
	"fmt"

	"github.com/benpapworth/waftools/internal/buildmodel"
)

// DefaultBin is the analyzer executable looked up on PATH.
const DefaultBin = "cppcheck"

// Command builds the analyzer invocation for one component. The analyzer
// runs from the project top; sources and include directories are passed
// relative to it. The XML defect report arrives on stderr.
func Command(m *buildmodel.Model, c *buildmodel.Component, bin string, checkConfig bool) []string {
	if bin == "" {
		bin = DefaultBin
	}
	cfg := m.Check

	cmd := []string{bin, "-v", "--xml", "--xml-version=2", "--inconclusive"}
	cmd = append(cmd, fmt.Sprintf("--max-configs=%d", cfg.MaxConfigs))

	if c.IsCXX() {
		cmd = append(cmd, "--language=c++", "--std="+cfg.StdCXX)
	} else {
		cmd = append(cmd, "--language=c", "--std="+cfg.StdC)
	}

	if checkConfig || cfg.CheckConfig {
		cmd = append(cmd, "--check-config")
	}

	// Programs get the full check set; for libraries unusedFunction would
	// only produce noise, exported entry points are never called locally.
	if c.IsProgram() {
		cmd = append(cmd, "--enable="+cfg.BinEnable)
	} else {
		cmd = append(cmd, "--enable="+cfg.LibEnable)
	}

	cmd = append(cmd, c.SourcePaths()...)
	for _, inc := range c.IncludePaths() {
		cmd = append(cmd, "-I"+inc)
	}
	return cmd
}
