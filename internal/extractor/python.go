package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mkrause/codegraph-mcp/pkg/types"
)

// PythonExtractor extracts symbols from Python source using indentation
// heuristics. Like the Go extractor, it degrades to partial results on
// malformed input.
type PythonExtractor struct{}

// NewPythonExtractor creates a Python extractor
func NewPythonExtractor() *PythonExtractor { return &PythonExtractor{} }

// Language returns the language tag
func (e *PythonExtractor) Language() string { return "python" }

var (
	pyClassRe = regexp.MustCompile(`^(\s*)class\s+([A-Za-z_]\w*)\s*(?:\(([^)]*)\))?\s*:`)
	pyDefRe   = regexp.MustCompile(`^(\s*)(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(`)
	pyCallRe  = regexp.MustCompile(`([A-Za-z_]\w*)\s*\(`)

	// protocol-ish base classes that mark the class as implementable
	pyProtocolBases = map[string]bool{
		"Protocol": true, "ABC": true, "ABCMeta": true,
	}
)

// pyNonCalls lists keywords and builtins excluded from call references
var pyNonCalls = map[string]bool{
	"if": true, "elif": true, "while": true, "for": true, "with": true,
	"return": true, "yield": true, "raise": true, "assert": true, "del": true,
	"lambda": true, "not": true, "and": true, "or": true, "in": true, "is": true,
	"def": true, "class": true, "except": true, "print": true, "len": true,
	"range": true, "str": true, "int": true, "float": true, "bool": true,
	"list": true, "dict": true, "set": true, "tuple": true, "type": true,
	"isinstance": true, "issubclass": true, "super": true, "open": true,
	"enumerate": true, "zip": true, "sorted": true, "reversed": true,
	"min": true, "max": true, "sum": true, "abs": true, "any": true, "all": true,
	"getattr": true, "setattr": true, "hasattr": true, "repr": true, "id": true,
	"iter": true, "next": true, "format": true, "vars": true, "bytes": true,
}

// Extract scans Python source for classes, functions, and methods
func (e *PythonExtractor) Extract(path string, content []byte) (*types.ExtractResult, error) {
	result := &types.ExtractResult{
		FilePath: path,
		Language: "python",
	}

	if !utf8.Valid(content) {
		result.Diagnostics = append(result.Diagnostics, types.Diagnostic{
			FilePath: path,
			Message:  "file is not valid UTF-8, extraction may be incomplete",
		})
	}

	lines := strings.Split(string(content), "\n")

	// classIndent tracks the innermost enclosing class for method detection
	type classScope struct {
		name   string
		indent int
	}
	var classes []classScope

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		indent := indentWidth(line)
		// Pop class scopes we've dedented out of
		for len(classes) > 0 && indent <= classes[len(classes)-1].indent {
			classes = classes[:len(classes)-1]
		}

		lineNo := i + 1

		if m := pyClassRe.FindStringSubmatch(line); m != nil {
			end := e.blockEnd(lines, i, indent)
			kind := types.KindClass
			bases := splitBases(m[3])
			for _, base := range bases {
				if pyProtocolBases[base] {
					kind = types.KindProtocol
					break
				}
			}
			sym := &types.Symbol{
				Name:      m[2],
				Kind:      kind,
				Language:  "python",
				FilePath:  path,
				LineStart: lineNo,
				LineEnd:   end,
				Snippet:   trimmed,
			}
			result.Symbols = append(result.Symbols, sym)
			for _, base := range bases {
				if base == "object" || pyProtocolBases[base] {
					continue
				}
				result.References = append(result.References, types.RawReference{
					SourceName: sym.Name,
					SourceKind: sym.Kind,
					TargetName: base,
					Kind:       types.RelInherits,
					Line:       lineNo,
				})
			}
			classes = append(classes, classScope{name: m[2], indent: indent})
			continue
		}

		if m := pyDefRe.FindStringSubmatch(line); m != nil {
			end := e.blockEnd(lines, i, indent)
			kind := types.KindFunction
			if len(classes) > 0 {
				kind = types.KindMethod
			}
			sym := &types.Symbol{
				Name:      m[2],
				Kind:      kind,
				Language:  "python",
				FilePath:  path,
				LineStart: lineNo,
				LineEnd:   end,
				Snippet:   trimmed,
			}
			result.Symbols = append(result.Symbols, sym)
			e.collectCalls(result, sym, lines, i, end)
			// Skip the body so nested defs don't shadow class scope tracking,
			// except when the def itself contains classes (rare, ignored)
			i = end - 1
		}
	}

	return result, nil
}

// blockEnd returns the 1-based last line of the indented block starting at
// line i (whose header has the given indent).
func (e *PythonExtractor) blockEnd(lines []string, i, indent int) int {
	last := i + 1
	for j := i + 1; j < len(lines); j++ {
		trimmed := strings.TrimSpace(lines[j])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if indentWidth(lines[j]) <= indent {
			break
		}
		last = j + 1
	}
	return last
}

// collectCalls records call references inside a function body
func (e *PythonExtractor) collectCalls(result *types.ExtractResult, sym *types.Symbol, lines []string, start, end int) {
	for j := start + 1; j < end && j < len(lines); j++ {
		trimmed := strings.TrimSpace(lines[j])
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		for _, m := range pyCallRe.FindAllStringSubmatchIndex(lines[j], -1) {
			name := lines[j][m[2]:m[3]]
			if pyNonCalls[name] {
				continue
			}
			// Drop attribute calls (obj.method()) except self.method(),
			// which resolves within the project namespace
			if m[2] > 0 && lines[j][m[2]-1] == '.' {
				if !strings.HasSuffix(lines[j][:m[2]-1], "self") {
					continue
				}
			}
			result.References = append(result.References, types.RawReference{
				SourceName: sym.Name,
				SourceKind: sym.Kind,
				TargetName: name,
				Kind:       types.RelCalls,
				Line:       j + 1,
			})
		}
	}
}

// indentWidth counts leading whitespace, tabs as 8 columns
func indentWidth(line string) int {
	width := 0
	for _, r := range line {
		switch r {
		case ' ':
			width++
		case '\t':
			width += 8
		default:
			return width
		}
	}
	return width
}

// splitBases parses a class base list, dropping keyword arguments like
// metaclass=Meta and generic parameters like Generic[T]
func splitBases(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	bases := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || strings.Contains(p, "=") {
			continue
		}
		if idx := strings.IndexByte(p, '['); idx >= 0 {
			p = p[:idx]
		}
		// Use the last component of dotted bases (module.Base)
		if idx := strings.LastIndexByte(p, '.'); idx >= 0 {
			p = p[idx+1:]
		}
		if p != "" {
			bases = append(bases, p)
		}
	}
	return bases
}
