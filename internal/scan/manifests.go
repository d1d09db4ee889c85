package scan

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"golang.org/x/mod/modfile"
)

// ManifestKind identifies a dependency manifest format.
type ManifestKind string

const (
	ManifestGoMod        ManifestKind = "go.mod"
	ManifestPackageJSON  ManifestKind = "package.json"
	ManifestRequirements ManifestKind = "requirements.txt"
)

var manifestByName = map[string]ManifestKind{
	"go.mod":           ManifestGoMod,
	"package.json":     ManifestPackageJSON,
	"requirements.txt": ManifestRequirements,
}

// Dependency is a declared dependency.
type Dependency struct {
	Name    string
	Version string
	Dev     bool
}

// Manifest is a parsed dependency manifest.
type Manifest struct {
	Path         string // relative, slash separated
	Kind         ManifestKind
	Name         string
	Description  string
	Version      string // module/package version or Go toolchain version
	Scripts      map[string]string
	Main         string
	Bin          []string
	Dependencies []Dependency
}

// IsRoot reports whether the manifest lives at the project root.
func (m *Manifest) IsRoot() bool { return path.Dir(m.Path) == "." }

// Dir returns the manifest's directory relative to the root.
func (m *Manifest) Dir() string { return path.Dir(m.Path) }

// RuntimeDependencies returns the non-dev dependencies.
func (m *Manifest) RuntimeDependencies() []Dependency {
	var out []Dependency
	for _, d := range m.Dependencies {
		if !d.Dev {
			out = append(out, d)
		}
	}
	return out
}

// DevDependencies returns the dev-only dependencies.
func (m *Manifest) DevDependencies() []Dependency {
	var out []Dependency
	for _, d := range m.Dependencies {
		if d.Dev {
			out = append(out, d)
		}
	}
	return out
}

// HasDependency reports whether a dependency with the exact name is declared.
func (m *Manifest) HasDependency(name string) bool {
	for _, d := range m.Dependencies {
		if d.Name == name {
			return true
		}
	}
	return false
}

// ScriptNames returns the package.json script names in sorted order.
func (m *Manifest) ScriptNames() []string {
	names := make([]string, 0, len(m.Scripts))
	for k := range m.Scripts {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func manifestKindFor(name string) (ManifestKind, bool) {
	k, ok := manifestByName[name]
	return k, ok
}

// ParseManifest parses manifest data of the given kind.
func ParseManifest(kind ManifestKind, relPath string, data []byte) (*Manifest, error) {
	switch kind {
	case ManifestGoMod:
		return parseGoMod(relPath, data)
	case ManifestPackageJSON:
		return parsePackageJSON(relPath, data)
	case ManifestRequirements:
		return parseRequirements(relPath, data), nil
	default:
		return nil, fmt.Errorf("unsupported manifest kind %q", kind)
	}
}

func parseGoMod(relPath string, data []byte) (*Manifest, error) {
	f, err := modfile.Parse(relPath, data, nil)
	if err != nil {
		return nil, fmt.Errorf("parse go.mod: %w", err)
	}
	m := &Manifest{Path: relPath, Kind: ManifestGoMod}
	if f.Module != nil {
		m.Name = f.Module.Mod.Path
	}
	if f.Go != nil {
		m.Version = f.Go.Version
	}
	for _, r := range f.Require {
		if r.Indirect {
			continue
		}
		m.Dependencies = append(m.Dependencies, Dependency{Name: r.Mod.Path, Version: r.Mod.Version})
	}
	return m, nil
}

type packageJSON struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Description     string            `json:"description"`
	Main            string            `json:"main"`
	Bin             json.RawMessage   `json:"bin"`
	Scripts         map[string]string `json:"scripts"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func parsePackageJSON(relPath string, data []byte) (*Manifest, error) {
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("parse package.json: %w", err)
	}
	m := &Manifest{
		Path:        relPath,
		Kind:        ManifestPackageJSON,
		Name:        pkg.Name,
		Version:     pkg.Version,
		Description: pkg.Description,
		Main:        pkg.Main,
		Scripts:     pkg.Scripts,
		Bin:         parseBin(pkg.Bin),
	}
	m.Dependencies = append(m.Dependencies, sortedDeps(pkg.Dependencies, false)...)
	m.Dependencies = append(m.Dependencies, sortedDeps(pkg.DevDependencies, true)...)
	return m, nil
}

// parseBin accepts both the string and the object form of the bin field.
func parseBin(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single == "" {
			return nil
		}
		return []string{single}
	}
	var named map[string]string
	if err := json.Unmarshal(raw, &named); err != nil {
		return nil
	}
	out := make([]string, 0, len(named))
	for _, v := range named {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func sortedDeps(deps map[string]string, dev bool) []Dependency {
	out := make([]Dependency, 0, len(deps))
	for name, version := range deps {
		out = append(out, Dependency{Name: name, Version: version, Dev: dev})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func parseRequirements(relPath string, data []byte) *Manifest {
	m := &Manifest{Path: relPath, Kind: ManifestRequirements}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if i := strings.Index(line, "#"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" || strings.HasPrefix(line, "-") {
			continue
		}
		if i := strings.Index(line, ";"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		name, version := line, ""
		if i := strings.IndexAny(line, "=<>!~"); i >= 0 {
			name, version = strings.TrimSpace(line[:i]), strings.TrimSpace(line[i:])
		}
		if i := strings.Index(name, "["); i >= 0 {
			name = name[:i]
		}
		m.Dependencies = append(m.Dependencies, Dependency{Name: name, Version: version})
	}
	return m
}
