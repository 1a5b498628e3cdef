package cppcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benpapworth/waftools/internal/buildmodel"
)

func commandModel() *buildmodel.Model {
	return &buildmodel.Model{
		Project: buildmodel.Project{AppName: "sample", Top: ".", Out: "build"},
		Check: buildmodel.CheckConfig{
			StdC:       "c99",
			StdCXX:     "c++03",
			MaxConfigs: 10,
			BinEnable:  "warning,performance,portability,style,unusedFunction",
			LibEnable:  "warning,performance,portability,style",
		},
		Components: []buildmodel.Component{
			{
				Name: "hello", Dir: "components/hello", Kind: buildmodel.KindProgram,
				Language: buildmodel.LangC,
				Sources:  []string{"src/hello.c"},
				Includes: []string{"include"},
			},
			{
				Name: "ui", Dir: "components/ui", Kind: buildmodel.KindSharedLib,
				Language: buildmodel.LangCXX,
				Sources:  []string{"src/ui.cpp"},
			},
		},
	}
}

func TestCommandForProgram(t *testing.T) {
	m := commandModel()
	cmd := Command(m, &m.Components[0], "", false)

	require.Equal(t, "cppcheck", cmd[0])
	assert.Contains(t, cmd, "--xml")
	assert.Contains(t, cmd, "--xml-version=2")
	assert.Contains(t, cmd, "--inconclusive")
	assert.Contains(t, cmd, "--max-configs=10")
	assert.Contains(t, cmd, "--language=c")
	assert.Contains(t, cmd, "--std=c99")
	assert.Contains(t, cmd, "--enable=warning,performance,portability,style,unusedFunction")
	assert.Contains(t, cmd, "components/hello/src/hello.c")
	assert.Contains(t, cmd, "-Icomponents/hello/include")
	assert.NotContains(t, cmd, "--check-config")
}

func TestCommandForCXXLibrary(t *testing.T) {
	m := commandModel()
	cmd := Command(m, &m.Components[1], "", false)

	assert.Contains(t, cmd, "--language=c++")
	assert.Contains(t, cmd, "--std=c++03")
	// Libraries skip the unusedFunction check.
	assert.Contains(t, cmd, "--enable=warning,performance,portability,style")
}

func TestCommandCheckConfig(t *testing.T) {
	m := commandModel()

	cmd := Command(m, &m.Components[0], "/opt/cppcheck/bin/cppcheck", true)
	assert.Equal(t, "/opt/cppcheck/bin/cppcheck", cmd[0])
	assert.Contains(t, cmd, "--check-config")

	m.Check.CheckConfig = true
	cmd = Command(m, &m.Components[0], "", false)
	assert.Contains(t, cmd, "--check-config")
}
