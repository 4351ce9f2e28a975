package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mkrause/codegraph-mcp/pkg/types"
)

// GoExtractor extracts symbols from Go source using line-based heuristics.
// It deliberately avoids a full parse so that files with syntax errors
// still yield whatever declarations are recognizable.
type GoExtractor struct{}

// NewGoExtractor creates a Go extractor
func NewGoExtractor() *GoExtractor { return &GoExtractor{} }

// Language returns the language tag
func (e *GoExtractor) Language() string { return "go" }

var (
	goMethodRe = regexp.MustCompile(`^func\s+\(\s*\w*\s*\*?([A-Za-z_]\w*)\s*\)\s+([A-Za-z_]\w*)\s*\(`)
	goFuncRe   = regexp.MustCompile(`^func\s+([A-Za-z_]\w*)\s*\(`)
	goStructRe = regexp.MustCompile(`^type\s+([A-Za-z_]\w*)\s+struct\b`)
	goIfaceRe  = regexp.MustCompile(`^type\s+([A-Za-z_]\w*)\s+interface\b`)
	goTypeRe   = regexp.MustCompile(`^type\s+([A-Za-z_]\w*)\s+\S`)
	goConstRe  = regexp.MustCompile(`^const\s+([A-Za-z_]\w*)\s*[= ]`)
	goVarRe    = regexp.MustCompile(`^var\s+([A-Za-z_]\w*)\s*[= ]`)

	goCallRe  = regexp.MustCompile(`([A-Za-z_]\w*)\s*\(`)
	goEmbedRe = regexp.MustCompile(`^\s*\*?(?:\w+\.)?([A-Z]\w*)\s*$`)

	// matches when the token before a selector dot is a lowercase identifier,
	// i.e. a probable package qualifier rather than a value expression
	goPkgQualifierRe = regexp.MustCompile(`(^|[^\w.])[a-z]\w*$`)
)

// goNonCalls lists identifiers that look like calls but aren't function
// references worth recording.
var goNonCalls = map[string]bool{
	"if": true, "for": true, "switch": true, "select": true, "go": true,
	"defer": true, "return": true, "func": true, "range": true, "map": true,
	"chan": true, "struct": true, "interface": true,
	"make": true, "new": true, "len": true, "cap": true, "append": true,
	"copy": true, "delete": true, "panic": true, "recover": true,
	"print": true, "println": true, "close": true, "min": true, "max": true, "clear": true,
	"string": true, "bool": true, "byte": true, "rune": true, "error": true, "any": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true, "uintptr": true,
	"float32": true, "float64": true, "complex64": true, "complex128": true,
}

// Extract scans Go source for top-level declarations and call references
func (e *GoExtractor) Extract(path string, content []byte) (*types.ExtractResult, error) {
	result := &types.ExtractResult{
		FilePath: path,
		Language: "go",
	}

	if !utf8.Valid(content) {
		result.Diagnostics = append(result.Diagnostics, types.Diagnostic{
			FilePath: path,
			Message:  "file is not valid UTF-8, extraction may be incomplete",
		})
	}

	lines := strings.Split(string(content), "\n")
	inBlockComment := false

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if inBlockComment {
			if strings.Contains(trimmed, "*/") {
				inBlockComment = false
			}
			continue
		}
		if strings.HasPrefix(trimmed, "/*") && !strings.Contains(trimmed, "*/") {
			inBlockComment = true
			continue
		}
		if strings.HasPrefix(trimmed, "//") {
			continue
		}

		lineNo := i + 1

		if m := goMethodRe.FindStringSubmatch(line); m != nil {
			end := e.blockEnd(lines, i)
			sym := e.newSymbol(path, m[2], types.KindMethod, lineNo, end, line)
			result.Symbols = append(result.Symbols, sym)
			e.collectCalls(result, sym, lines, i, end)
			i = end - 1
			continue
		}
		if m := goFuncRe.FindStringSubmatch(line); m != nil {
			end := e.blockEnd(lines, i)
			sym := e.newSymbol(path, m[1], types.KindFunction, lineNo, end, line)
			result.Symbols = append(result.Symbols, sym)
			e.collectCalls(result, sym, lines, i, end)
			i = end - 1
			continue
		}
		if m := goIfaceRe.FindStringSubmatch(line); m != nil {
			end := e.blockEnd(lines, i)
			sym := e.newSymbol(path, m[1], types.KindInterface, lineNo, end, line)
			result.Symbols = append(result.Symbols, sym)
			e.collectEmbeds(result, sym, lines, i, end)
			i = end - 1
			continue
		}
		if m := goStructRe.FindStringSubmatch(line); m != nil {
			end := e.blockEnd(lines, i)
			sym := e.newSymbol(path, m[1], types.KindStruct, lineNo, end, line)
			result.Symbols = append(result.Symbols, sym)
			e.collectEmbeds(result, sym, lines, i, end)
			i = end - 1
			continue
		}
		if m := goTypeRe.FindStringSubmatch(line); m != nil {
			result.Symbols = append(result.Symbols, e.newSymbol(path, m[1], types.KindType, lineNo, lineNo, line))
			continue
		}
		if m := goConstRe.FindStringSubmatch(line); m != nil {
			result.Symbols = append(result.Symbols, e.newSymbol(path, m[1], types.KindConst, lineNo, lineNo, line))
			continue
		}
		if m := goVarRe.FindStringSubmatch(line); m != nil {
			result.Symbols = append(result.Symbols, e.newSymbol(path, m[1], types.KindVar, lineNo, lineNo, line))
		}
	}

	return result, nil
}

func (e *GoExtractor) newSymbol(path, name string, kind types.SymbolKind, start, end int, decl string) *types.Symbol {
	return &types.Symbol{
		Name:      name,
		Kind:      kind,
		Language:  "go",
		FilePath:  path,
		LineStart: start,
		LineEnd:   end,
		Snippet:   strings.TrimSpace(decl),
	}
}

// blockEnd returns the 1-based line where the brace-delimited block opened
// on line i closes. Unbalanced input ends at EOF.
func (e *GoExtractor) blockEnd(lines []string, i int) int {
	depth := 0
	opened := false
	for j := i; j < len(lines); j++ {
		depth += strings.Count(lines[j], "{") - strings.Count(lines[j], "}")
		if strings.Contains(lines[j], "{") {
			opened = true
		}
		if opened && depth <= 0 {
			return j + 1
		}
	}
	if !opened {
		return i + 1
	}
	return len(lines)
}

// collectCalls records call references inside a function body
func (e *GoExtractor) collectCalls(result *types.ExtractResult, sym *types.Symbol, lines []string, start, end int) {
	for j := start + 1; j < end && j < len(lines); j++ {
		trimmed := strings.TrimSpace(lines[j])
		if strings.HasPrefix(trimmed, "//") {
			continue
		}
		for _, m := range goCallRe.FindAllStringSubmatchIndex(lines[j], -1) {
			name := lines[j][m[2]:m[3]]
			if goNonCalls[name] {
				continue
			}
			// Skip method selectors (x.Foo()): the receiver expression makes
			// the target ambiguous beyond what name resolution can honor,
			// but the bare name still resolves within the project namespace.
			if m[2] > 0 && lines[j][m[2]-1] == '.' {
				prev := lines[j][:m[2]-1]
				// Keep package-qualified calls (pkg.Foo); drop chained ones
				if !goPkgQualifierRe.MatchString(prev) {
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

// collectEmbeds records embedded types inside a struct or interface body.
// Interface embedding reads as extension; struct embedding as a reference.
func (e *GoExtractor) collectEmbeds(result *types.ExtractResult, sym *types.Symbol, lines []string, start, end int) {
	kind := types.RelReferences
	if sym.Kind == types.KindInterface {
		kind = types.RelExtends
	}
	for j := start + 1; j < end-1 && j < len(lines); j++ {
		if m := goEmbedRe.FindStringSubmatch(lines[j]); m != nil {
			result.References = append(result.References, types.RawReference{
				SourceName: sym.Name,
				SourceKind: sym.Kind,
				TargetName: m[1],
				Kind:       kind,
				Line:       j + 1,
			})
		}
	}
}
