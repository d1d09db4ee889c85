package markdown

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

type LinkKind string

const (
	LinkKindInline              LinkKind = "inline"
	LinkKindImage               LinkKind = "image"
	LinkKindAuto                LinkKind = "auto"
	LinkKindReferenceDefinition LinkKind = "reference_definition"
)

type Link struct {
	Kind        LinkKind
	Destination string
}

// IsLocal reports whether the link points at a file relative to the document.
func (l Link) IsLocal() bool {
	d := strings.TrimSpace(l.Destination)
	if d == "" || strings.HasPrefix(d, "#") || strings.HasPrefix(d, "/") || strings.HasPrefix(d, "//") {
		return false
	}
	if u, err := url.Parse(d); err == nil && u.Scheme != "" {
		return false
	}
	return l.Kind != LinkKindAuto
}

// BrokenLink is a local link whose target does not exist.
type BrokenLink struct {
	Destination string
	Target      string
}

// CheckLocalLinks reports relative links in body whose target is missing under baseDir.
func CheckLocalLinks(body []byte, baseDir string) []BrokenLink {
	var broken []BrokenLink
	seen := map[string]bool{}
	for _, l := range ExtractLinks(body) {
		if !l.IsLocal() || seen[l.Destination] {
			continue
		}
		seen[l.Destination] = true

		target := l.Destination
		if i := strings.IndexAny(target, "#?"); i >= 0 {
			target = target[:i]
		}
		if unescaped, err := url.PathUnescape(target); err == nil {
			target = unescaped
		}
		full := filepath.Join(baseDir, filepath.FromSlash(target))
		if _, err := os.Stat(full); err != nil {
			broken = append(broken, BrokenLink{Destination: l.Destination, Target: full})
		}
	}
	return broken
}
