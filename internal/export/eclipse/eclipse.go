// Package eclipse exports the build model as Eclipse CDT projects: a
// .project and .cproject pair per compiled component plus a top level
// project for the build environment itself.
//
// Eclipse works with static project filenames, so only one project per
// directory can exist. Components sharing a directory are reported and
// skipped rather than silently overwriting each other.
package eclipse

import (
	"encoding/xml"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"text/template"

	"github.com/benpapworth/waftools/internal/buildmodel"
	"github.com/benpapworth/waftools/internal/errors"
	"github.com/benpapworth/waftools/internal/export"
	"github.com/benpapworth/waftools/internal/logfields"
)

// Exporter emits Eclipse CDT project files.
type Exporter struct{}

// New creates the Eclipse exporter.
func New() *Exporter { return &Exporter{} }

// Name returns the registry name of this format.
func (e *Exporter) Name() string { return "eclipse" }

type projectDescription struct {
	XMLName  xml.Name `xml:"projectDescription"`
	Name     string   `xml:"name"`
	Comment  string   `xml:"comment"`
	Projects struct {
		Project []string `xml:"project"`
	} `xml:"projects"`
	BuildSpec struct {
		BuildCommand []buildCommand `xml:"buildCommand"`
	} `xml:"buildSpec"`
	Natures struct {
		Nature []string `xml:"nature"`
	} `xml:"natures"`
}

type buildCommand struct {
	Name      string `xml:"name"`
	Arguments string `xml:"arguments"`
}

// Export writes the CDT project pairs and the top level project.
func (e *Exporter) Export(m *buildmodel.Model, meta export.Meta) ([]string, error) {
	var written []string

	for _, c := range scanLocations(m) {
		proj, err := projectContent(c, c.Use)
		if err != nil {
			return written, err
		}
		rel := c.Dir + "/.project"
		if err := export.WriteFile(meta.Top, rel, proj); err != nil {
			return written, errors.WrapError(err, errors.CategoryExport, "failed to write .project")
		}
		written = append(written, rel)

		cproj, err := cprojectContent(m, meta, c)
		if err != nil {
			return written, err
		}
		rel = c.Dir + "/.cproject"
		if err := export.WriteFile(meta.Top, rel, cproj); err != nil {
			return written, errors.WrapError(err, errors.CategoryExport, "failed to write .cproject")
		}
		written = append(written, rel)
	}

	// Top level project so the whole environment can be imported at once.
	top, err := topProjectContent(meta.AppName)
	if err != nil {
		return written, err
	}
	if err := export.WriteFile(meta.Top, ".project", top); err != nil {
		return written, errors.WrapError(err, errors.CategoryExport, "failed to write top level .project")
	}
	written = append(written, ".project")
	return written, nil
}

// Cleanup removes all generated CDT project files.
func (e *Exporter) Cleanup(m *buildmodel.Model, meta export.Meta) error {
	for i := range m.Components {
		c := &m.Components[i]
		if err := export.RemoveFile(meta.Top, c.Dir+"/.project"); err != nil {
			return err
		}
		if err := export.RemoveFile(meta.Top, c.Dir+"/.cproject"); err != nil {
			return err
		}
	}
	return export.RemoveFile(meta.Top, ".project")
}

// scanLocations returns the components that can be exported, warning
// about directory conflicts. The first component in a directory wins.
func scanLocations(m *buildmodel.Model) []*buildmodel.Component {
	locations := map[string]string{".": "(top level)"}
	var exportable []*buildmodel.Component

	for i := range m.Components {
		c := &m.Components[i]
		if owner, taken := locations[c.Dir]; taken {
			slog.Warn("Skipping Eclipse export; directory already holds a project",
				logfields.Component(c.Name),
				logfields.Path(c.Dir),
				slog.String("conflicts_with", owner))
			continue
		}
		locations[c.Dir] = c.Name
		exportable = append(exportable, c)
	}
	return exportable
}

func projectContent(c *buildmodel.Component, refs []string) (string, error) {
	desc := projectDescription{Name: c.Name}
	desc.Projects.Project = append(desc.Projects.Project, refs...)
	desc.BuildSpec.BuildCommand = []buildCommand{
		{Name: "org.eclipse.cdt.managedbuilder.core.genmakebuilder"},
		{Name: "org.eclipse.cdt.managedbuilder.core.ScannerConfigBuilder"},
	}
	natures := []string{
		"org.eclipse.cdt.core.cnature",
		"org.eclipse.cdt.managedbuilder.core.managedBuildNature",
		"org.eclipse.cdt.managedbuilder.core.ScannerConfigNature",
	}
	if c.IsCXX() {
		natures = append([]string{"org.eclipse.cdt.core.ccnature"}, natures...)
	}
	desc.Natures.Nature = natures
	return marshalProject(desc)
}

func topProjectContent(appname string) (string, error) {
	desc := projectDescription{Name: appname}
	return marshalProject(desc)
}

func marshalProject(desc projectDescription) (string, error) {
	data, err := xml.MarshalIndent(desc, "", "\t")
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryExport, "failed to marshal .project")
	}
	return `<?xml version="1.0" encoding="UTF-8"?>` + "\n" + string(data) + "\n", nil
}

// cprojectData feeds the CDT managed build configuration template.
type cprojectData struct {
	Name       string
	ID         string
	ConfigType string // exe, lib or so
	Language   string // c or cpp
	Includes   []string
	Defines    []string
	Libs       []string
	LibPaths   []string
	Out        string
}

func cprojectContent(m *buildmodel.Model, meta export.Meta, c *buildmodel.Component) (string, error) {
	data := cprojectData{
		Name:     c.Name,
		ID:       configID(c.Name),
		Language: "c",
		Includes: c.Includes,
		Defines:  c.Defines,
		Libs:     libsOf(m, c),
		Out:      m.Project.Out + "/" + c.Dir,
	}
	if c.IsCXX() {
		data.Language = "cpp"
	}
	switch c.Kind {
	case buildmodel.KindStaticLib:
		data.ConfigType = "lib"
	case buildmodel.KindSharedLib:
		data.ConfigType = "so"
	default:
		data.ConfigType = "exe"
	}
	for _, use := range c.Use {
		if dep, ok := m.Component(use); ok && dep.IsLibrary() {
			data.LibPaths = append(data.LibPaths, m.Project.Out+"/"+dep.Dir)
		}
	}

	var buf strings.Builder
	if err := cprojectTmpl.Execute(&buf, data); err != nil {
		return "", errors.WrapError(err, errors.CategoryExport, "failed to render .cproject")
	}
	return buf.String(), nil
}

func libsOf(m *buildmodel.Model, c *buildmodel.Component) []string {
	libs := append([]string{}, c.Libs...)
	for _, use := range c.Use {
		if dep, ok := m.Component(use); ok && dep.IsLibrary() {
			libs = append(libs, dep.Name)
		}
	}
	return libs
}

// configID derives a stable numeric suffix for the CDT configuration
// identifiers from the component name, so re-exporting does not churn
// workspace metadata.
func configID(name string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return fmt.Sprintf("%d", h.Sum32()%1_000_000_000)
}

var cprojectTmpl = template.Must(template.New("cproject").Parse(`<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<?fileVersion 4.0.0?>
<cproject storage_type_id="org.eclipse.cdt.core.XmlProjectDescriptionStorage">
	<storageModule moduleId="org.eclipse.cdt.core.settings">
		<cconfiguration id="cdt.managedbuild.config.gnu.{{.ConfigType}}.debug.{{.ID}}">
			<storageModule buildSystemId="org.eclipse.cdt.managedbuilder.core.configurationDataProvider" id="cdt.managedbuild.config.gnu.{{.ConfigType}}.debug.{{.ID}}" moduleId="org.eclipse.cdt.core.settings" name="debug">
				<externalSettings/>
				<extensions>
					<extension id="org.eclipse.cdt.core.GmakeErrorParser" point="org.eclipse.cdt.core.ErrorParser"/>
					<extension id="org.eclipse.cdt.core.GCCErrorParser" point="org.eclipse.cdt.core.ErrorParser"/>
					<extension id="org.eclipse.cdt.core.ELF" point="org.eclipse.cdt.core.BinaryParser"/>
				</extensions>
			</storageModule>
			<storageModule moduleId="cdtBuildSystem" version="4.0.0">
				<configuration artifactName="{{.Name}}" buildProperties="" id="cdt.managedbuild.config.gnu.{{.ConfigType}}.debug.{{.ID}}" name="debug" parent="cdt.managedbuild.config.gnu.{{.ConfigType}}.debug">
					<folderInfo id="cdt.managedbuild.config.gnu.{{.ConfigType}}.debug.{{.ID}}." name="/" resourcePath="">
						<toolChain id="cdt.managedbuild.toolchain.gnu.{{.ConfigType}}.debug.{{.ID}}" name="Linux GCC" superClass="cdt.managedbuild.toolchain.gnu.{{.ConfigType}}.debug">
							<builder buildPath="${workspace_loc:/{{.Name}}}/{{.Out}}" id="cdt.managedbuild.target.gnu.builder.{{.ConfigType}}.debug.{{.ID}}" keepEnvironmentInBuildfile="false" managedBuildOn="true" name="Gnu Make Builder" superClass="cdt.managedbuild.target.gnu.builder.{{.ConfigType}}.debug"/>
							<tool id="cdt.managedbuild.tool.gnu.{{.Language}}.compiler.{{.ConfigType}}.debug.{{.ID}}" name="GCC Compiler" superClass="cdt.managedbuild.tool.gnu.{{.Language}}.compiler.{{.ConfigType}}.debug">
								<option id="gnu.{{.Language}}.compiler.option.include.paths.{{.ID}}" superClass="gnu.{{.Language}}.compiler.option.include.paths" valueType="includePath">
{{- range .Includes}}
									<listOptionValue builtIn="false" value="&quot;${workspace_loc:/${ProjName}/{{.}}}&quot;"/>
{{- end}}
								</option>
								<option id="gnu.{{.Language}}.compiler.option.preprocessor.def.{{.ID}}" superClass="gnu.{{.Language}}.compiler.option.preprocessor.def" valueType="definedSymbols">
{{- range .Defines}}
									<listOptionValue builtIn="false" value="{{.}}"/>
{{- end}}
								</option>
							</tool>
							<tool id="cdt.managedbuild.tool.gnu.{{.Language}}.linker.{{.ConfigType}}.debug.{{.ID}}" name="GCC Linker" superClass="cdt.managedbuild.tool.gnu.{{.Language}}.linker.{{.ConfigType}}.debug">
								<option id="gnu.{{.Language}}.link.option.libs.{{.ID}}" superClass="gnu.{{.Language}}.link.option.libs" valueType="libs">
{{- range .Libs}}
									<listOptionValue builtIn="false" value="{{.}}"/>
{{- end}}
								</option>
								<option id="gnu.{{.Language}}.link.option.paths.{{.ID}}" superClass="gnu.{{.Language}}.link.option.paths" valueType="libPaths">
{{- range .LibPaths}}
									<listOptionValue builtIn="false" value="&quot;${workspace_loc:/{{.}}}&quot;"/>
{{- end}}
								</option>
							</tool>
						</toolChain>
					</folderInfo>
				</configuration>
			</storageModule>
			<storageModule moduleId="org.eclipse.cdt.core.externalSettings"/>
		</cconfiguration>
	</storageModule>
	<storageModule moduleId="cdtBuildSystem" version="4.0.0">
		<project id="{{.Name}}.cdt.managedbuild.target.gnu.{{.ConfigType}}.{{.ID}}" name="{{.Name}}" projectType="cdt.managedbuild.target.gnu.{{.ConfigType}}"/>
	</storageModule>
	<storageModule moduleId="org.eclipse.cdt.core.LanguageSettingsProviders"/>
	<storageModule moduleId="refreshScope"/>
</cproject>
`))
