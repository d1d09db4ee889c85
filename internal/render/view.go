package render

import (
	"net/url"
	"path"
	"strings"

	"git.home.luguber.info/inful/gendocs/internal/config"
	"git.home.luguber.info/inful/gendocs/internal/git"
	"git.home.luguber.info/inful/gendocs/internal/scan"
	"git.home.luguber.info/inful/gendocs/internal/testinv"
)

// Data is the input every document is rendered from.
type Data struct {
	Project   *scan.Project
	Tests     *testinv.Inventory
	Git       *git.Info
	License   string
	Documents []config.DocumentKind // documents generated in this run
	// RootLink is the slash-separated path from the output directory to the
	// project root ("" when they are the same).
	RootLink string
}

type view struct {
	Name            string
	Description     string
	License         string
	PrimaryLanguage string
	Files           int
	Lines           int
	Languages       []languageRow
	CodeLanguages   []string
	Directories     []scan.DirStat
	EntryPoints     []string
	Manifests       []manifestView
	Scripts         []scriptRow
	Documents       []pathLink
	Git             *git.Info
	Tests           *testinv.Inventory
	InstallCommands []string
	TestCommands    []string
	Reports         []docLink
	OtherReadme     string
	Generator       string
}

type languageRow struct {
	Name  string
	Files int
	Lines int
	Share float64
}

type manifestView struct {
	Path    string
	Label   string
	Runtime []scan.Dependency
	Dev     []scan.Dependency
}

type scriptRow struct {
	Dir     string
	Name    string
	Command string
}

type pathLink struct {
	Path string
	Href string
}

type docLink struct {
	TitleKey string
	File     string
}

func newView(d *Data, otherReadme config.DocumentKind, generator string) *view {
	p := d.Project
	v := &view{
		Name:            p.Name,
		Description:     p.Description,
		License:         d.License,
		PrimaryLanguage: p.PrimaryLanguage(),
		Files:           p.TotalFiles(),
		Lines:           p.TotalLines(),
		Directories:     p.Directories,
		EntryPoints:     p.EntryPoints,
		Git:             d.Git,
		Tests:           d.Tests,
		Generator:       generator,
	}
	if v.Git == nil {
		v.Git = &git.Info{}
	}
	if v.Tests == nil {
		v.Tests = &testinv.Inventory{}
	}

	total := v.Lines
	for _, l := range p.Languages {
		row := languageRow{Name: l.Name, Files: l.Files, Lines: l.Lines}
		if total > 0 {
			row.Share = float64(l.Lines) * 100 / float64(total)
		}
		v.Languages = append(v.Languages, row)
	}
	for _, l := range p.CodeLanguages() {
		v.CodeLanguages = append(v.CodeLanguages, l.Name)
	}

	for i := range p.Manifests {
		m := &p.Manifests[i]
		v.Manifests = append(v.Manifests, manifestView{
			Path:    m.Path,
			Label:   manifestLabel(m),
			Runtime: m.RuntimeDependencies(),
			Dev:     m.DevDependencies(),
		})
		for _, name := range m.ScriptNames() {
			v.Scripts = append(v.Scripts, scriptRow{Dir: m.Dir(), Name: name, Command: m.Scripts[name]})
		}
	}

	for _, doc := range p.Documents {
		v.Documents = append(v.Documents, pathLink{Path: doc, Href: path.Join(d.RootLink, doc)})
	}

	v.InstallCommands = installCommands(p)
	v.TestCommands = testCommands(p, v.Tests)

	for _, k := range d.Documents {
		switch k {
		case config.DocOverview:
			v.Reports = append(v.Reports, docLink{TitleKey: "readme.doc_overview", File: k.FileName()})
		case config.DocTesting:
			v.Reports = append(v.Reports, docLink{TitleKey: "readme.doc_testing", File: k.FileName()})
		case otherReadme:
			v.OtherReadme = k.FileName()
		}
	}
	return v
}

func manifestLabel(m *scan.Manifest) string {
	switch m.Kind {
	case scan.ManifestGoMod:
		label := "Go module"
		if m.Name != "" {
			label += " `" + m.Name + "`"
		}
		if m.Version != "" {
			label += ", go " + m.Version
		}
		return label
	case scan.ManifestPackageJSON:
		label := "npm package"
		if m.Name != "" {
			label += " `" + m.Name + "`"
		}
		if m.Version != "" {
			label += " " + m.Version
		}
		return label
	default:
		return "Python requirements"
	}
}

func inDir(dir, cmd string) string {
	if dir == "." || dir == "" {
		return cmd
	}
	return "(cd " + dir + " && " + cmd + ")"
}

func installCommands(p *scan.Project) []string {
	var cmds []string
	for i := range p.Manifests {
		m := &p.Manifests[i]
		switch m.Kind {
		case scan.ManifestGoMod:
			cmds = append(cmds, inDir(m.Dir(), "go mod download"))
		case scan.ManifestPackageJSON:
			cmds = append(cmds, inDir(m.Dir(), "npm install"))
		case scan.ManifestRequirements:
			cmds = append(cmds, "pip install -r "+m.Path)
		}
	}
	return uniq(cmds)
}

func testCommands(p *scan.Project, inv *testinv.Inventory) []string {
	var cmds []string
	for i := range p.Manifests {
		m := &p.Manifests[i]
		switch m.Kind {
		case scan.ManifestGoMod:
			cmds = append(cmds, inDir(m.Dir(), "go test ./..."))
		case scan.ManifestPackageJSON:
			if _, ok := m.Scripts["test"]; ok {
				cmds = append(cmds, inDir(m.Dir(), "npm test"))
			} else if m.HasDependency("hardhat") {
				cmds = append(cmds, inDir(m.Dir(), "npx hardhat test"))
			}
		}
	}
	for _, fw := range inv.Frameworks {
		switch fw {
		case "pytest":
			cmds = append(cmds, "pytest")
		case "unittest":
			cmds = append(cmds, "python -m unittest discover")
		}
	}
	return uniq(cmds)
}

func uniq(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// redactURL drops credentials from a remote URL.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = nil
	return u.String()
}

// cell escapes text for use inside a Markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
