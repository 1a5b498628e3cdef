// Package msdev exports the build model as Visual Studio 2008 projects:
// one .vcproj per compiled component and a solution file in the top level
// directory referencing them with their dependencies.
//
// The format only makes sense for win32 targets, so models describing any
// other destination platform are skipped with a warning.
package msdev

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/google/uuid"

	"github.com/benpapworth/waftools/internal/buildmodel"
	"github.com/benpapworth/waftools/internal/errors"
	"github.com/benpapworth/waftools/internal/export"
	"github.com/benpapworth/waftools/internal/logfields"
)

// Exporter emits Visual Studio solution and project files.
type Exporter struct{}

// New creates the msdev exporter.
func New() *Exporter { return &Exporter{} }

// Name returns the registry name of this format.
func (e *Exporter) Name() string { return "msdev" }

// guidNamespace seeds the deterministic project GUIDs. Re-exporting the
// same model produces the same solution, so Visual Studio does not lose
// user settings bound to the project identity.
var guidNamespace = uuid.MustParse("b9edb142-5b4f-4a57-9bbd-6f788eb3d9e5")

func projectGUID(name string) string {
	return strings.ToUpper(uuid.NewSHA1(guidNamespace, []byte(name)).String())
}

// SolutionFile returns the solution filename for the application.
func SolutionFile(appname string) string {
	return strings.ToLower(appname) + ".sln"
}

// Export writes the per component projects and the solution.
func (e *Exporter) Export(m *buildmodel.Model, meta export.Meta) ([]string, error) {
	if !m.IsWin32() {
		slog.Warn("Skipping Visual Studio export; model does not target win32",
			logfields.Format(e.Name()),
			slog.String("dest_os", m.Toolchain.DestOS))
		return nil, nil
	}

	var written []string
	for i := range m.Components {
		c := &m.Components[i]
		content, err := projectContent(m, c)
		if err != nil {
			return written, err
		}
		rel := projectFile(c)
		if err := export.WriteFile(meta.Top, rel, content); err != nil {
			return written, errors.WrapError(err, errors.CategoryExport, "failed to write project file")
		}
		written = append(written, rel)
	}

	content := solutionContent(m)
	rel := SolutionFile(meta.AppName)
	if err := export.WriteFile(meta.Top, rel, content); err != nil {
		return written, errors.WrapError(err, errors.CategoryExport, "failed to write solution")
	}
	written = append(written, rel)
	return written, nil
}

// Cleanup removes the solution, the project files and the .user and .ncb
// litter the IDE leaves next to them.
func (e *Exporter) Cleanup(m *buildmodel.Model, meta export.Meta) error {
	for i := range m.Components {
		c := &m.Components[i]
		if err := export.RemoveFile(meta.Top, projectFile(c)); err != nil {
			return err
		}
		for _, pattern := range []string{"*.user", "*.ncb"} {
			litter, _ := filepath.Glob(filepath.Join(meta.Top, filepath.FromSlash(c.Dir), pattern))
			for _, path := range litter {
				rel, err := filepath.Rel(meta.Top, path)
				if err != nil {
					continue
				}
				if err := export.RemoveFile(meta.Top, filepath.ToSlash(rel)); err != nil {
					return err
				}
			}
		}
	}
	return export.RemoveFile(meta.Top, SolutionFile(meta.AppName))
}

func projectFile(c *buildmodel.Component) string {
	return c.Dir + "/" + strings.ToLower(c.Name) + ".vcproj"
}

// solutionContent renders the Format Version 10.00 solution. The project
// type GUID is the fixed Visual C++ identifier; the per project GUIDs
// come from the component names.
func solutionContent(m *buildmodel.Model) string {
	const cppProjectType = "8BC9CEB8-8B4A-11D0-8D11-00A0C91BC942"

	var projects, configs strings.Builder
	for i := range m.Components {
		c := &m.Components[i]
		id := projectGUID(c.Name)
		fmt.Fprintf(&projects, "Project(\"{%s}\") = \"%s\", \"%s\", \"{%s}\"\r\n",
			cppProjectType, c.Name, filepath.FromSlash(projectFile(c)), id)
		if deps := solutionDeps(m, c); len(deps) > 0 {
			projects.WriteString("\tProjectSection(ProjectDependencies) = postProject\r\n")
			for _, dep := range deps {
				fmt.Fprintf(&projects, "\t\t{%s} = {%s}\r\n", dep, dep)
			}
			projects.WriteString("\tEndProjectSection\r\n")
		}
		projects.WriteString("EndProject\r\n")

		fmt.Fprintf(&configs, "\t\t{%s}.Debug|Win32.ActiveCfg = Debug|Win32\r\n", id)
		fmt.Fprintf(&configs, "\t\t{%s}.Debug|Win32.Build.0 = Debug|Win32\r\n", id)
	}

	var buf strings.Builder
	buf.WriteString("Microsoft Visual Studio Solution File, Format Version 10.00\r\n")
	buf.WriteString("# Visual Studio 2008\r\n")
	buf.WriteString(projects.String())
	buf.WriteString("Global\r\n")
	buf.WriteString("\tGlobalSection(SolutionConfigurationPlatforms) = preSolution\r\n")
	buf.WriteString("\t\tDebug|Win32 = Debug|Win32\r\n")
	buf.WriteString("\tEndGlobalSection\r\n")
	buf.WriteString("\tGlobalSection(ProjectConfigurationPlatforms) = postSolution\r\n")
	buf.WriteString(configs.String())
	buf.WriteString("\tEndGlobalSection\r\n")
	buf.WriteString("\tGlobalSection(SolutionProperties) = preSolution\r\n")
	buf.WriteString("\t\tHideSolutionNode = FALSE\r\n")
	buf.WriteString("\tEndGlobalSection\r\n")
	buf.WriteString("EndGlobal\r\n")
	return buf.String()
}

func solutionDeps(m *buildmodel.Model, c *buildmodel.Component) []string {
	var deps []string
	for _, use := range c.Use {
		if _, ok := m.Component(use); ok {
			deps = append(deps, projectGUID(use))
		}
	}
	sort.Strings(deps)
	return deps
}

// projectData feeds the .vcproj template.
type projectData struct {
	Name              string
	GUID              string
	ConfigurationType string
	OutputDirectory   string
	OutputFile        string
	Defines           string
	Includes          string
	Libs              string
	LibPaths          string
	Sources           []string
	Headers           []string
}

func projectContent(m *buildmodel.Model, c *buildmodel.Component) (string, error) {
	buildPath := relToTop(c.Dir) + m.Project.Out + "/" + c.Dir

	data := projectData{
		Name:              c.Name,
		GUID:              projectGUID(c.Name),
		ConfigurationType: configurationType(c),
		OutputDirectory:   buildPath,
		OutputFile:        buildPath + "/" + m.ArtifactName(c),
		Defines:           strings.Join(c.Defines, ";"),
		Includes:          strings.Join(c.Includes, ";"),
		Sources:           c.Sources,
		Headers:           headerFiles(m, c),
	}

	var libs, paths []string
	for _, lib := range c.Libs {
		libs = append(libs, lib+".lib")
	}
	for _, use := range c.Use {
		if dep, ok := m.Component(use); ok && dep.IsLibrary() {
			libs = append(libs, dep.Name+".lib")
			paths = append(paths, relToTop(c.Dir)+m.Project.Out+"/"+dep.Dir)
		}
	}
	data.Libs = strings.Join(libs, " ")
	data.LibPaths = strings.Join(paths, ";")

	var buf strings.Builder
	if err := vcprojTmpl.Execute(&buf, data); err != nil {
		return "", errors.WrapError(err, errors.CategoryExport, "failed to render project file")
	}
	return buf.String(), nil
}

// configurationType maps component kinds onto VCProj configuration types:
// 1 application, 2 dynamic library, 4 static library.
func configurationType(c *buildmodel.Component) string {
	switch c.Kind {
	case buildmodel.KindSharedLib:
		return "2"
	case buildmodel.KindStaticLib:
		return "4"
	}
	return "1"
}

func relToTop(dir string) string {
	depth := strings.Count(filepath.ToSlash(dir), "/") + 1
	return strings.Repeat("../", depth)
}

func headerFiles(m *buildmodel.Model, c *buildmodel.Component) []string {
	var headers []string
	for _, inc := range c.Includes {
		matches, _ := filepath.Glob(filepath.Join(m.Project.Top, filepath.FromSlash(c.Dir), filepath.FromSlash(inc), "*.h*"))
		for _, match := range matches {
			rel, err := filepath.Rel(filepath.Join(m.Project.Top, filepath.FromSlash(c.Dir)), match)
			if err != nil {
				continue
			}
			headers = append(headers, filepath.ToSlash(rel))
		}
	}
	return headers
}

var vcprojTmpl = template.Must(template.New("vcproj").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<VisualStudioProject
	ProjectType="Visual C++"
	Version="9,00"
	Name="{{.Name}}"
	ProjectGUID="{{"{"}}{{.GUID}}{{"}"}}"
	Keyword="Win32Proj"
	TargetFrameworkVersion="0"
	>
	<Platforms>
		<Platform
			Name="Win32"
		/>
	</Platforms>
	<ToolFiles>
	</ToolFiles>
	<Configurations>
		<Configuration
			Name="Debug|Win32"
			OutputDirectory="{{.OutputDirectory}}"
			IntermediateDirectory="{{.OutputDirectory}}"
			ConfigurationType="{{.ConfigurationType}}"
			>
			<Tool
				Name="VCPreBuildEventTool"
			/>
			<Tool
				Name="VCCLCompilerTool"
				Optimization="0"
				AdditionalIncludeDirectories="{{.Includes}}"
				PreprocessorDefinitions="{{.Defines}}"
				MinimalRebuild="true"
				BasicRuntimeChecks="3"
				RuntimeLibrary="3"
				UsePrecompiledHeader="0"
				WarningLevel="3"
				DebugInformationFormat="4"
			/>
			<Tool
				Name="VCLinkerTool"
				AdditionalDependencies="{{.Libs}}"
				AdditionalLibraryDirectories="{{.LibPaths}}"
				OutputFile="{{.OutputFile}}"
				LinkIncremental="2"
				GenerateDebugInformation="true"
				SubSystem="1"
				TargetMachine="1"
			/>
			<Tool
				Name="VCPostBuildEventTool"
			/>
		</Configuration>
	</Configurations>
	<References>
	</References>
	<Files>
		<Filter
			Name="Source Files"
			Filter="cpp;c;cc;cxx"
			>
{{- range .Sources}}
			<File
				RelativePath="{{.}}"
			>
			</File>
{{- end}}
		</Filter>
		<Filter
			Name="Header Files"
			Filter="h;hpp;hxx"
			>
{{- range .Headers}}
			<File
				RelativePath="{{.}}"
			>
			</File>
{{- end}}
		</Filter>
	</Files>
	<Globals>
	</Globals>
</VisualStudioProject>
`))
