package scan

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/gendocs/internal/config"
	"git.home.luguber.info/inful/gendocs/internal/logfields"
	"git.home.luguber.info/inful/gendocs/internal/util/sets"
)

// Options configures a Scanner.
type Options struct {
	Exclude        []string // directory names skipped anywhere in the tree
	MaxFileBytes   int64    // files larger than this are not line-counted
	FollowSymlinks bool     // count symlinked regular files
	// Ignore lists relative paths (slash separated) of generated documents that
	// must not be reported as existing documentation.
	Ignore []string
	// Name overrides the detected project name.
	Name        string
	Description string
}

// OptionsFromConfig derives scan options from configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		Exclude:        cfg.Scan.Exclude,
		MaxFileBytes:   cfg.Scan.MaxFileBytes,
		FollowSymlinks: cfg.Scan.FollowSymlinks,
		Name:           cfg.Project.Name,
		Description:    cfg.Project.Description,
	}
	ignored := make([]string, 0, len(config.AllDocuments())+2)
	for _, k := range config.AllDocuments() {
		ignored = append(ignored, cfg.OutputPath(k))
	}
	// Files gendocs itself maintains would otherwise change the scan between runs.
	if cfg.Metrics.Textfile != "" {
		ignored = append(ignored, cfg.Metrics.Textfile)
	}
	if db := cfg.History.Database; db != "" && db != ":memory:" {
		ignored = append(ignored, db, db+"-journal", db+"-wal", db+"-shm")
	}
	for _, p := range ignored {
		if rel, err := filepath.Rel(cfg.Project.Root, p); err == nil {
			opts.Ignore = append(opts.Ignore, filepath.ToSlash(rel))
		}
	}
	return opts
}

// Scanner walks project trees.
type Scanner struct {
	opts    Options
	exclude sets.Set[string]
	ignore  sets.Set[string]
	now     func() time.Time
}

// NewScanner creates a Scanner.
func NewScanner(opts Options) *Scanner {
	s := &Scanner{
		opts:    opts,
		exclude: sets.New(opts.Exclude...),
		ignore:  sets.New(opts.Ignore...),
		now:     time.Now,
	}
	return s
}

// Excluded reports whether a directory name is skipped.
func (s *Scanner) Excluded(name string) bool { return s.exclude.Has(name) }

// skipped reports whether a file is ignored, including the temporary files
// written while an ignored file is being replaced.
func (s *Scanner) skipped(rel string) bool {
	if s.ignore.Has(rel) {
		return true
	}
	base := path.Base(rel)
	if before, _, ok := strings.Cut(base, ".tmp-"); ok && strings.HasPrefix(before, ".") {
		return s.ignore.Has(path.Join(path.Dir(rel), before[1:]))
	}
	return false
}

// Scan walks root and returns the collected project facts.
func (s *Scanner) Scan(ctx context.Context, root string) (*Project, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project root is not a directory: %s", absRoot)
	}

	start := time.Now()
	p := &Project{Root: absRoot, ScannedAt: s.now()}

	walkErr := filepath.WalkDir(absRoot, func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			if full == absRoot {
				return err
			}
			slog.Warn("Skipping unreadable path", logfields.Path(full), logfields.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() {
			if full != absRoot && s.exclude.Has(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}

		rel := filepath.ToSlash(mustRel(absRoot, full))
		if s.skipped(rel) {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			if !s.opts.FollowSymlinks {
				return nil
			}
			target, statErr := os.Stat(full)
			if statErr != nil || !target.Mode().IsRegular() {
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}

		f, fileErr := s.scanFile(full, rel)
		if fileErr != nil {
			slog.Warn("Skipping unreadable file", logfields.File(rel), logfields.Error(fileErr))
			return nil
		}
		p.Files = append(p.Files, f)
		s.collect(p, full, rel)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	s.aggregate(p)
	s.resolveIdentity(p)

	slog.Debug("Project scanned",
		logfields.Path(absRoot),
		logfields.Count(len(p.Files)),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return p, nil
}

func (s *Scanner) scanFile(full, rel string) (File, error) {
	f := File{Path: rel, Language: DetectLanguage(rel)}
	info, err := os.Stat(full)
	if err != nil {
		return f, err
	}
	f.Size = info.Size()
	if s.opts.MaxFileBytes > 0 && f.Size > s.opts.MaxFileBytes {
		return f, nil
	}

	fh, err := os.Open(full)
	if err != nil {
		return f, err
	}
	defer func() { _ = fh.Close() }()

	lines, binary, err := countLines(fh)
	if err != nil {
		return f, err
	}
	f.Lines, f.Binary = lines, binary
	return f, nil
}

// countLines counts newline-terminated lines plus a trailing unterminated line.
// Content with a NUL byte in the first block is treated as binary.
func countLines(r io.Reader) (int, bool, error) {
	buf := make([]byte, 32*1024)
	lines := 0
	first := true
	var last byte
	total := 0
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if first {
				probe := chunk[:min(len(chunk), 8000)]
				if bytes.IndexByte(probe, 0) >= 0 {
					return 0, true, nil
				}
				first = false
			}
			lines += bytes.Count(chunk, []byte{'\n'})
			last = chunk[n-1]
			total += n
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, false, err
		}
	}
	if total > 0 && last != '\n' {
		lines++
	}
	return lines, false, nil
}

// collect records manifests, entry points and documents.
func (s *Scanner) collect(p *Project, full, rel string) {
	base := path.Base(rel)

	if kind, ok := manifestKindFor(base); ok {
		data, err := os.ReadFile(full)
		if err == nil {
			var m *Manifest
			m, err = ParseManifest(kind, rel, data)
			if err == nil {
				p.Manifests = append(p.Manifests, *m)
			}
		}
		if err != nil {
			slog.Warn("Ignoring unparsable manifest", logfields.File(rel), logfields.Error(err))
		}
	}

	if base == "main.go" {
		dir := path.Dir(rel)
		if dir == "." || strings.HasPrefix(dir, "cmd/") {
			p.EntryPoints = append(p.EntryPoints, rel)
		}
	}

	if strings.EqualFold(path.Ext(rel), ".md") {
		p.Documents = append(p.Documents, rel)
	}
}

func (s *Scanner) aggregate(p *Project) {
	sort.Slice(p.Files, func(i, j int) bool { return p.Files[i].Path < p.Files[j].Path })

	langs := map[string]*LanguageStat{}
	dirs := map[string]*DirStat{}
	for _, f := range p.Files {
		ls, ok := langs[f.Language]
		if !ok {
			ls = &LanguageStat{Name: f.Language}
			langs[f.Language] = ls
		}
		ls.Files++
		ls.Lines += f.Lines

		if top, _, found := strings.Cut(f.Path, "/"); found {
			ds, ok := dirs[top]
			if !ok {
				ds = &DirStat{Name: top}
				dirs[top] = ds
			}
			ds.Files++
			ds.Lines += f.Lines
		}
	}

	for _, ls := range langs {
		p.Languages = append(p.Languages, *ls)
	}
	sort.Slice(p.Languages, func(i, j int) bool {
		a, b := p.Languages[i], p.Languages[j]
		if a.Lines != b.Lines {
			return a.Lines > b.Lines
		}
		return a.Name < b.Name
	})

	for _, ds := range dirs {
		p.Directories = append(p.Directories, *ds)
	}
	sort.Slice(p.Directories, func(i, j int) bool { return p.Directories[i].Name < p.Directories[j].Name })

	sort.Slice(p.Manifests, func(i, j int) bool { return p.Manifests[i].Path < p.Manifests[j].Path })

	for _, m := range p.Manifests {
		if m.Kind != ManifestPackageJSON {
			continue
		}
		if m.Main != "" {
			p.EntryPoints = append(p.EntryPoints, path.Join(m.Dir(), m.Main))
		}
		for _, b := range m.Bin {
			p.EntryPoints = append(p.EntryPoints, path.Join(m.Dir(), b))
		}
	}
	sort.Strings(p.EntryPoints)
	p.EntryPoints = dedupe(p.EntryPoints)
	sort.Strings(p.Documents)
}

// resolveIdentity picks the project name and description.
func (s *Scanner) resolveIdentity(p *Project) {
	p.Name = s.opts.Name
	p.Description = s.opts.Description

	if node := p.Manifest(ManifestPackageJSON); node != nil && node.IsRoot() {
		if p.Name == "" {
			p.Name = node.Name
		}
		if p.Description == "" {
			p.Description = node.Description
		}
	}
	if p.Name == "" {
		if gomod := p.Manifest(ManifestGoMod); gomod != nil && gomod.IsRoot() && gomod.Name != "" {
			p.Name = path.Base(gomod.Name)
		}
	}
	if p.Name == "" {
		p.Name = filepath.Base(p.Root)
	}
}

func mustRel(root, full string) string {
	rel, err := filepath.Rel(root, full)
	if err != nil {
		return full
	}
	return rel
}

func dedupe(sorted []string) []string {
	var out []string
	for _, v := range sorted {
		if len(out) == 0 || out[len(out)-1] != v {
			out = append(out, v)
		}
	}
	return out
}
