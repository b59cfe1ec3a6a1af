package utils

import (
	"path/filepath"
	"strings"
)

var extensionToLanguage = map[string]string{
	"go":   "go",
	"py":   "python",
	"js":   "javascript",
	"ts":   "typescript",
	"tsx":  "typescript",
	"jsx":  "javascript",
	"java": "java",
	"cpp":  "cpp",
	"cc":   "cpp",
	"c":    "c",
	"h":    "c",
	"rs":   "rust",
	"rb":   "ruby",
	"php":  "php",
	"sh":   "bash",
	"bash": "bash",
	"zsh":  "shell",
	"yaml": "yaml",
	"yml":  "yaml",
	"json": "json",
	"xml":  "xml",
	"html": "html",
	"css":  "css",
	"md":   "markdown",
	"txt":  "text",
	"sql":  "sql",
	"toml": "toml",
	"lua":  "lua",
	"kt":   "kotlin",
	"ex":   "elixir",
}

// DetectLanguageFromPath returns a language identifier for the file extension,
// or an empty string if the extension is unknown.
func DetectLanguageFromPath(path string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return ""
	}
	return extensionToLanguage[strings.ToLower(ext)]
}
