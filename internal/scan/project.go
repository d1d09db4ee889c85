// Package scan walks a project tree and collects the facts the generated
// documents are built from: file and line counts per language, top-level
// layout, manifests and entry points.
package scan

import "time"

// File is a scanned regular file.
type File struct {
	Path     string // slash separated, relative to the project root
	Language string
	Size     int64
	Lines    int
	Binary   bool
}

// LanguageStat aggregates files of one language.
type LanguageStat struct {
	Name  string
	Files int
	Lines int
}

// DirStat summarises a top-level directory.
type DirStat struct {
	Name  string
	Files int
	Lines int
}

// Project is the result of a scan.
type Project struct {
	Root        string
	Name        string
	Description string
	Files       []File
	Languages   []LanguageStat
	Directories []DirStat
	Manifests   []Manifest
	EntryPoints []string
	Documents   []string
	ScannedAt   time.Time
}

// TotalFiles returns the number of scanned files.
func (p *Project) TotalFiles() int { return len(p.Files) }

// TotalLines returns the number of counted lines across all files.
func (p *Project) TotalLines() int {
	n := 0
	for _, f := range p.Files {
		n += f.Lines
	}
	return n
}

// CodeLanguages returns the language stats restricted to programming languages.
func (p *Project) CodeLanguages() []LanguageStat {
	var out []LanguageStat
	for _, l := range p.Languages {
		if IsCode(l.Name) {
			out = append(out, l)
		}
	}
	return out
}

// PrimaryLanguage returns the programming language with most lines, or "".
func (p *Project) PrimaryLanguage() string {
	if code := p.CodeLanguages(); len(code) > 0 {
		return code[0].Name
	}
	return ""
}

// Manifest returns the first manifest of the given kind, preferring the root.
func (p *Project) Manifest(kind ManifestKind) *Manifest {
	var found *Manifest
	for i := range p.Manifests {
		m := &p.Manifests[i]
		if m.Kind != kind {
			continue
		}
		if m.IsRoot() {
			return m
		}
		if found == nil {
			found = m
		}
	}
	return found
}

// HasManifest reports whether any manifest of kind was found.
func (p *Project) HasManifest(kind ManifestKind) bool {
	return p.Manifest(kind) != nil
}
