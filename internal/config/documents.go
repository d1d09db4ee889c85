package config

import (
	"fmt"
	"strings"
)

// DocumentKind identifies one of the generated documents.
type DocumentKind string

const (
	DocOverview DocumentKind = "overview"
	DocTesting  DocumentKind = "testing"
	DocReadme   DocumentKind = "readme"
	DocReadmeCN DocumentKind = "readme_cn"
)

var documentFiles = map[DocumentKind]string{
	DocOverview: "PROJECT_OVERVIEW.md",
	DocTesting:  "TESTING_REPORT.md",
	DocReadme:   "README.md",
	DocReadmeCN: "README_CN.md",
}

// AllDocuments returns every document kind in generation order.
func AllDocuments() []DocumentKind {
	return []DocumentKind{DocOverview, DocTesting, DocReadme, DocReadmeCN}
}

// FileName returns the output file name for the kind.
func (k DocumentKind) FileName() string {
	return documentFiles[k]
}

// Valid reports whether the kind is known.
func (k DocumentKind) Valid() bool {
	_, ok := documentFiles[k]
	return ok
}

// IsReport reports whether the kind is a generated report (as opposed to a README).
// Reports carry frontmatter with a content fingerprint.
func (k DocumentKind) IsReport() bool {
	return k == DocOverview || k == DocTesting
}

// GeneratedFileNames lists every file name gendocs may write.
func GeneratedFileNames() []string {
	names := make([]string, 0, len(documentFiles))
	for _, k := range AllDocuments() {
		names = append(names, k.FileName())
	}
	return names
}

// ParseDocumentKinds parses a comma separated list such as "overview,readme".
func ParseDocumentKinds(raw string) ([]DocumentKind, error) {
	var kinds []DocumentKind
	seen := map[DocumentKind]bool{}
	for part := range strings.SplitSeq(raw, ",") {
		k := DocumentKind(strings.ToLower(strings.TrimSpace(part)))
		if k == "" {
			continue
		}
		if !k.Valid() {
			return nil, fmt.Errorf("unknown document %q (valid: overview, testing, readme, readme_cn)", part)
		}
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}
