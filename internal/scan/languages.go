package scan

import (
	"path/filepath"
	"strings"
)

const (
	LangOther    = "Other"
	LangMarkdown = "Markdown"
)

var languageByExt = map[string]string{
	".go":    "Go",
	".js":    "JavaScript",
	".mjs":   "JavaScript",
	".cjs":   "JavaScript",
	".jsx":   "JavaScript",
	".ts":    "TypeScript",
	".tsx":   "TypeScript",
	".py":    "Python",
	".sol":   "Solidity",
	".rs":    "Rust",
	".java":  "Java",
	".kt":    "Kotlin",
	".rb":    "Ruby",
	".php":   "PHP",
	".c":     "C",
	".h":     "C",
	".cc":    "C++",
	".cpp":   "C++",
	".hpp":   "C++",
	".cs":    "C#",
	".swift": "Swift",
	".sh":    "Shell",
	".bash":  "Shell",
	".ps1":   "PowerShell",
	".sql":   "SQL",
	".html":  "HTML",
	".htm":   "HTML",
	".css":   "CSS",
	".scss":  "CSS",
	".vue":   "Vue",
	".md":    LangMarkdown,
	".yaml":  "YAML",
	".yml":   "YAML",
	".json":  "JSON",
	".toml":  "TOML",
	".proto": "Protocol Buffers",
}

var languageByName = map[string]string{
	"Makefile":   "Makefile",
	"Dockerfile": "Dockerfile",
}

// DetectLanguage classifies a file by name or extension.
func DetectLanguage(path string) string {
	base := filepath.Base(path)
	if lang, ok := languageByName[base]; ok {
		return lang
	}
	if lang, ok := languageByExt[strings.ToLower(filepath.Ext(base))]; ok {
		return lang
	}
	return LangOther
}

// IsCode reports whether the language is a programming language rather than
// markup, data or configuration.
func IsCode(lang string) bool {
	switch lang {
	case LangOther, LangMarkdown, "YAML", "JSON", "TOML", "HTML", "CSS", "Makefile", "Dockerfile":
		return false
	default:
		return true
	}
}
