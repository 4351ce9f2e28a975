package extractor

import (
	"path/filepath"
	"strings"
)

// extensionLanguages maps file extensions to language tags. Tags without a
// registered extractor are still detected so change plans can report them.
var extensionLanguages = map[string]string{
	".go":    "go",
	".py":    "python",
	".pyi":   "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".java":  "java",
	".rb":    "ruby",
	".rs":    "rust",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".php":   "php",
	".swift": "swift",
	".kt":    "kotlin",
	".scala": "scala",
	".ex":    "elixir",
	".exs":   "elixir",
	".lua":   "lua",
}

// DetectLanguage maps a file path to a language tag by extension.
// Returns "" for unrecognized extensions.
func DetectLanguage(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return extensionLanguages[ext]
}
