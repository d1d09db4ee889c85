// Package testinv builds an inventory of the test suites found in a scanned project.
package testinv

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"git.home.luguber.info/inful/gendocs/internal/scan"
)

// TestFile is a detected test source file.
type TestFile struct {
	Path      string
	Language  string
	Framework string
	Cases     int
	Subtests  int
	Suites    int
}

// Summary aggregates test files under a key (language or directory).
type Summary struct {
	Name  string
	Files int
	Cases int
}

// Inventory is the test inventory for a project.
type Inventory struct {
	Files       []TestFile
	ByLanguage  []Summary
	ByDirectory []Summary
	Frameworks  []string
	TotalCases  int
	SourceFiles int // code files that are not tests
}

// TotalFiles returns the number of test files.
func (inv *Inventory) TotalFiles() int { return len(inv.Files) }

// Empty reports whether no tests were found.
func (inv *Inventory) Empty() bool { return len(inv.Files) == 0 }

// Ratio returns test files per source file, or 0 when there are no sources.
func (inv *Inventory) Ratio() float64 {
	if inv.SourceFiles == 0 {
		return 0
	}
	return float64(len(inv.Files)) / float64(inv.SourceFiles)
}

var (
	goCaseRe    = regexp.MustCompile(`(?m)^func\s+((?:Test|Benchmark|Fuzz)\w*)\s*\(`)
	goSubtestRe = regexp.MustCompile(`\bt\.Run\(`)
	jsCaseRe    = regexp.MustCompile(`(?m)^\s*(?:it|test)(?:\.only|\.skip)?\s*\(`)
	jsSuiteRe   = regexp.MustCompile(`(?m)^\s*describe(?:\.only|\.skip)?\s*\(`)
	pyCaseRe    = regexp.MustCompile(`(?m)^\s*(?:async\s+)?def\s+(test\w*)\s*\(`)
	pyClassRe   = regexp.MustCompile(`(?m)^class\s+Test\w*`)
)

var jsExts = map[string]bool{".js": true, ".mjs": true, ".cjs": true, ".jsx": true, ".ts": true, ".tsx": true}

// IsTestFile reports whether a relative path names a test source file.
func IsTestFile(rel string) bool {
	base := path.Base(rel)
	ext := strings.ToLower(path.Ext(base))
	switch {
	case strings.HasSuffix(base, "_test.go"):
		return true
	case ext == ".py":
		return strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test.py")
	case jsExts[ext]:
		stem := strings.TrimSuffix(base, path.Ext(base))
		if strings.HasSuffix(stem, ".test") || strings.HasSuffix(stem, ".spec") {
			return true
		}
		for _, seg := range strings.Split(path.Dir(rel), "/") {
			if seg == "test" || seg == "tests" || seg == "__tests__" {
				return true
			}
		}
	}
	return false
}

// Build reads the project's test files and returns the inventory.
func Build(ctx context.Context, p *scan.Project) (*Inventory, error) {
	inv := &Inventory{}
	jsDefault := defaultJSFramework(p)
	frameworks := map[string]bool{}

	for _, f := range p.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !IsTestFile(f.Path) {
			if scan.IsCode(f.Language) && !f.Binary {
				inv.SourceFiles++
			}
			continue
		}
		data, err := os.ReadFile(filepath.Join(p.Root, filepath.FromSlash(f.Path)))
		if err != nil {
			continue
		}
		tf := analyse(f, string(data), jsDefault)
		inv.Files = append(inv.Files, tf)
		inv.TotalCases += tf.Cases
		if tf.Framework != "" {
			frameworks[tf.Framework] = true
		}
	}

	inv.ByLanguage = summarise(inv.Files, func(tf TestFile) string { return tf.Language })
	inv.ByDirectory = summarise(inv.Files, func(tf TestFile) string { return path.Dir(tf.Path) })
	for fw := range frameworks {
		inv.Frameworks = append(inv.Frameworks, fw)
	}
	sort.Strings(inv.Frameworks)
	return inv, nil
}

func analyse(f scan.File, src, jsDefault string) TestFile {
	tf := TestFile{Path: f.Path, Language: f.Language}
	ext := strings.ToLower(path.Ext(f.Path))
	switch {
	case ext == ".go":
		for _, m := range goCaseRe.FindAllStringSubmatch(src, -1) {
			if isGoTestName(m[1]) {
				tf.Cases++
			}
		}
		tf.Subtests = len(goSubtestRe.FindAllStringIndex(src, -1))
		tf.Framework = "testing"
		if strings.Contains(src, `"github.com/stretchr/testify/`) {
			tf.Framework = "testify"
		}
	case ext == ".py":
		tf.Cases = len(pyCaseRe.FindAllStringIndex(src, -1))
		tf.Suites = len(pyClassRe.FindAllStringIndex(src, -1))
		tf.Framework = "pytest"
		if strings.Contains(src, "import unittest") || strings.Contains(src, "from unittest") {
			tf.Framework = "unittest"
		}
	case jsExts[ext]:
		tf.Cases = len(jsCaseRe.FindAllStringIndex(src, -1))
		tf.Suites = len(jsSuiteRe.FindAllStringIndex(src, -1))
		tf.Framework = jsFramework(src, jsDefault)
	}
	return tf
}

// isGoTestName applies go test's rule: the character after the prefix must not be lowercase.
func isGoTestName(name string) bool {
	if name == "TestMain" {
		return false
	}
	for _, prefix := range []string{"Test", "Benchmark", "Fuzz"} {
		if rest, ok := strings.CutPrefix(name, prefix); ok {
			return rest == "" || !(rest[0] >= 'a' && rest[0] <= 'z')
		}
	}
	return false
}

func jsFramework(src, fallback string) string {
	switch {
	case strings.Contains(src, `"hardhat"`) || strings.Contains(src, `'hardhat'`):
		return "hardhat"
	case strings.Contains(src, `"vitest"`) || strings.Contains(src, `'vitest'`):
		return "vitest"
	case strings.Contains(src, "jest."):
		return "jest"
	case strings.Contains(src, `"node:test"`) || strings.Contains(src, `'node:test'`):
		return "node:test"
	}
	return fallback
}

// defaultJSFramework picks the framework declared in any package.json.
func defaultJSFramework(p *scan.Project) string {
	for _, candidate := range []string{"hardhat", "jest", "vitest", "mocha"} {
		for i := range p.Manifests {
			m := &p.Manifests[i]
			if m.Kind == scan.ManifestPackageJSON && m.HasDependency(candidate) {
				return candidate
			}
		}
	}
	return "node"
}

func summarise(files []TestFile, key func(TestFile) string) []Summary {
	idx := map[string]*Summary{}
	for _, tf := range files {
		k := key(tf)
		s, ok := idx[k]
		if !ok {
			s = &Summary{Name: k}
			idx[k] = s
		}
		s.Files++
		s.Cases += tf.Cases
	}
	out := make([]Summary, 0, len(idx))
	for _, s := range idx {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Cases != out[j].Cases {
			return out[i].Cases > out[j].Cases
		}
		return out[i].Name < out[j].Name
	})
	return out
}
