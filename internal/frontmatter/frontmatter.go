// Package frontmatter reads and writes the YAML frontmatter block of generated
// Markdown documents and maintains their content fingerprint.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Document is a Markdown file split into frontmatter fields and body.
type Document struct {
	Fields map[string]any
	Body   []byte
	// HadFrontmatter is true when the source started with a --- block.
	HadFrontmatter bool
	// Newline is the newline sequence detected in the source ("\n" or "\r\n").
	Newline string
}

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// If the content does not start with a delimiter, had is false and body is the
// full input.
func Split(content []byte) (fm []byte, body []byte, had bool, newline string, err error) {
	newline = detectNewline(content)

	open := []byte("---" + newline)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, newline, nil
	}

	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		return []byte{}, rest[len(open):], true, newline, nil
	}

	closeSeq := []byte(newline + "---" + newline)
	idx := bytes.Index(rest, closeSeq)
	if idx < 0 {
		// Tolerate a closing delimiter at EOF without trailing newline.
		if bytes.HasSuffix(rest, []byte(newline+"---")) {
			end := len(rest) - len("---")
			return rest[:end], []byte{}, true, newline, nil
		}
		return nil, nil, false, newline, ErrMissingClosingDelimiter
	}

	return rest[:idx+len(newline)], rest[idx+len(closeSeq):], true, newline, nil
}

// Parse splits content and decodes its frontmatter.
func Parse(content []byte) (*Document, error) {
	fm, body, had, nl, err := Split(content)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if len(fm) > 0 {
		if err := yaml.Unmarshal(fm, &fields); err != nil {
			return nil, err
		}
		if fields == nil {
			fields = map[string]any{}
		}
	}

	return &Document{Fields: fields, Body: body, HadFrontmatter: had, Newline: nl}, nil
}

// Bytes reassembles the document. Frontmatter is emitted when the document had
// it originally or when any fields are set.
func (d *Document) Bytes() ([]byte, error) {
	if !d.HadFrontmatter && len(d.Fields) == 0 {
		return d.Body, nil
	}

	nl := d.Newline
	if nl == "" {
		nl = "\n"
	}

	fm, err := SerializeYAML(d.Fields, nl)
	if err != nil {
		return nil, err
	}

	delim := []byte("---" + nl)
	out := make([]byte, 0, 2*len(delim)+len(fm)+len(d.Body))
	out = append(out, delim...)
	out = append(out, fm...)
	out = append(out, delim...)
	out = append(out, d.Body...)
	return out, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
