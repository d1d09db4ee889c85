package markdown

import (
	"fmt"
	"strings"
	"unicode"
)

// TOC renders a nested bullet list linking to headings between minLevel and maxLevel.
func TOC(headings []Heading, minLevel, maxLevel int) string {
	var b strings.Builder
	for _, h := range headings {
		if h.Level < minLevel || h.Level > maxLevel {
			continue
		}
		indent := strings.Repeat("  ", h.Level-minLevel)
		fmt.Fprintf(&b, "%s- [%s](#%s)\n", indent, h.Text, h.Anchor)
	}
	return b.String()
}

// Slug converts heading text into a GitHub-style anchor.
func Slug(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('-')
		}
	}
	return b.String()
}

type slugger struct {
	seen map[string]int
}

func newSlugger() *slugger { return &slugger{seen: map[string]int{}} }

func (s *slugger) slug(title string) string {
	base := Slug(title)
	n := s.seen[base]
	s.seen[base] = n + 1
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}
