package generator

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/gendocs/internal/config"
	gderrors "git.home.luguber.info/inful/gendocs/internal/errors"
	"git.home.luguber.info/inful/gendocs/internal/frontmatter"
	"git.home.luguber.info/inful/gendocs/internal/logfields"
	"git.home.luguber.info/inful/gendocs/internal/markdown"
	"git.home.luguber.info/inful/gendocs/internal/render"
	"git.home.luguber.info/inful/gendocs/internal/util/sets"
)

// Status is the outcome for one document.
type Status string

const (
	StatusCreated   Status = "created"
	StatusUpdated   Status = "updated"
	StatusUnchanged Status = "unchanged"
	StatusSkipped   Status = "skipped" // dry run: would have been created or updated
)

// DocumentResult describes one rendered document.
type DocumentResult struct {
	Kind        config.DocumentKind
	Path        string
	Status      Status
	WouldBe     Status // planned status before a dry run skipped the write
	Fingerprint string
	Bytes       int
	BrokenLinks []markdown.BrokenLink

	content []byte
	edited  bool // on-disk fingerprint does not match its body
}

// Changed reports whether the document was (or, in a dry run, would be) written.
func (d DocumentResult) Changed() bool {
	return d.Status == StatusCreated || d.Status == StatusUpdated || d.Status == StatusSkipped
}

// plan renders a document and compares it with the file on disk.
func (g *Generator) plan(kind config.DocumentKind, data *render.Data) (DocumentResult, error) {
	path := g.cfg.OutputPath(kind)
	res := DocumentResult{Kind: kind, Path: path}

	body, err := g.renderer.Render(kind, data)
	if err != nil {
		return res, gderrors.RenderFailed(string(kind), err)
	}

	existing, err := os.ReadFile(path) // #nosec G304 -- path derived from configured output directory
	missing := errors.Is(err, fs.ErrNotExist)
	if err != nil && !missing {
		return res, gderrors.WriteFailed(path, fmt.Errorf("read existing document: %w", err))
	}

	var previous *frontmatter.Document
	if !missing {
		if prev, perr := frontmatter.Parse(existing); perr == nil {
			previous = prev
			if previous.Fingerprint() != "" {
				ok, verr := previous.Verify()
				res.edited = verr == nil && !ok
			}
		} else {
			g.logger.Debug("Existing document has unreadable frontmatter", logfields.Path(path), logfields.Error(perr))
		}
	}

	content := body
	if kind.IsReport() && g.cfg.FrontmatterEnabled() {
		doc := &frontmatter.Document{
			Fields:         g.renderer.Frontmatter(kind, data),
			Body:           body,
			HadFrontmatter: true,
			Newline:        "\n",
		}
		fp, err := doc.Upsert(previous, g.now())
		if err != nil {
			return res, gderrors.RenderFailed(string(kind), fmt.Errorf("fingerprint: %w", err))
		}
		if content, err = doc.Bytes(); err != nil {
			return res, gderrors.RenderFailed(string(kind), fmt.Errorf("frontmatter: %w", err))
		}
		res.Fingerprint = fp
	} else {
		fp, err := frontmatter.ComputeFingerprint(map[string]any{}, body)
		if err != nil {
			return res, gderrors.RenderFailed(string(kind), err)
		}
		res.Fingerprint = fp
	}

	res.content = content
	res.Bytes = len(content)
	switch {
	case missing:
		res.Status = StatusCreated
	case bytes.Equal(existing, content):
		res.Status = StatusUnchanged
	default:
		res.Status = StatusUpdated
	}
	res.WouldBe = res.Status
	return res, nil
}

// writeAtomic replaces path with data via a temporary file in the same directory.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temporary file: %w", err)
	}
	// #nosec G302 -- generated documents are meant to be readable
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}

// brokenLinks checks local links, treating documents planned in this run as present.
func brokenLinks(content []byte, baseDir string, planned sets.Set[string]) []markdown.BrokenLink {
	var out []markdown.BrokenLink
	for _, b := range markdown.CheckLocalLinks(content, baseDir) {
		if !planned.Has(b.Target) {
			out = append(out, b)
		}
	}
	return out
}
