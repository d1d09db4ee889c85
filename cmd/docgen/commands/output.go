package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	faint  = color.New(color.Faint)
	bold   = color.New(color.Bold)
)

// colorFor picks the color of a document status, check state or run outcome.
func colorFor(status string) *color.Color {
	switch status {
	case "created", "updated", "success", "ok":
		return green
	case "skipped", "stale", "edited":
		return yellow
	case "missing", "failure":
		return red
	default:
		return faint
	}
}

// printStatus writes one aligned "status  path" line.
func printStatus(w io.Writer, status, path string) {
	_, _ = colorFor(status).Fprintf(w, "  %-9s", status)
	_, _ = io.WriteString(w, " "+path+"\n")
}

// plural formats a count with its noun, adding "s" unless n is 1.
func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// displayPath shows p relative to root when it lives under it.
func displayPath(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return p
	}
	return rel
}
