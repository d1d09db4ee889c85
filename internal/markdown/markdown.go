// Package markdown provides analysis helpers over generated Markdown:
// heading extraction, table-of-contents rendering and local link checks.
package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

func newMarkdown() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(extension.GFM))
}

// Parse parses a Markdown body (frontmatter already removed) into a Goldmark AST.
func Parse(body []byte) gmast.Node {
	return newMarkdown().Parser().Parse(text.NewReader(body))
}

// Heading is an ATX or setext heading found in a document.
type Heading struct {
	Level  int
	Text   string
	Anchor string
}

// Headings returns every heading in document order with unique anchors.
func Headings(body []byte) []Heading {
	root := Parse(body)
	slugs := newSlugger()

	var out []Heading
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		h, ok := n.(*gmast.Heading)
		if !ok {
			return gmast.WalkContinue, nil
		}
		title := plainText(h, body)
		out = append(out, Heading{Level: h.Level, Text: title, Anchor: slugs.slug(title)})
		return gmast.WalkSkipChildren, nil
	})
	return out
}

// ExtractLinks parses a Markdown body and returns inline links, images and autolinks
// followed by reference definitions.
func ExtractLinks(body []byte) []Link {
	ctx := parser.NewContext()
	root := newMarkdown().Parser().Parse(text.NewReader(body), parser.WithContext(ctx))

	var links []Link
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.AutoLink:
			links = append(links, Link{Kind: LinkKindAuto, Destination: string(node.URL(body))})
		case *gmast.Image:
			links = append(links, Link{Kind: LinkKindImage, Destination: string(node.Destination)})
		case *gmast.Link:
			links = append(links, Link{Kind: LinkKindInline, Destination: string(node.Destination)})
		}
		return gmast.WalkContinue, nil
	})

	for _, ref := range ctx.References() {
		links = append(links, Link{Kind: LinkKindReferenceDefinition, Destination: string(ref.Destination())})
	}
	return links
}

// plainText concatenates the text content below n.
func plainText(n gmast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *gmast.String:
			buf.Write(t.Value)
		}
		return gmast.WalkContinue, nil
	})
	return buf.String()
}
