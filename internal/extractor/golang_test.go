package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrause/codegraph-mcp/pkg/types"
)

const goSample = `package demo

import "fmt"

// Greeter says hello.
type Greeter interface {
	Stringer
	Greet(name string) string
}

type Config struct {
	Base
	Name string
}

type Alias = Config

const DefaultName = "world"

var debug = false

func Hello(name string) string {
	msg := Render(name)
	fmt.Println(msg)
	return msg
}

func Render(name string) string {
	return "hello " + name
}

func (c *Config) Greet(name string) string {
	return Hello(name)
}
`

func extractGo(t *testing.T, src string) *types.ExtractResult {
	e := NewGoExtractor()
	result, err := e.Extract("demo.go", []byte(src))
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func symbolByName(result *types.ExtractResult, name string) *types.Symbol {
	for _, s := range result.Symbols {
		if s.Name == name {
			return s
		}
	}
	return nil
}

func TestGoExtractSymbols(t *testing.T) {
	result := extractGo(t, goSample)

	tests := []struct {
		name string
		kind types.SymbolKind
	}{
		{"Greeter", types.KindInterface},
		{"Config", types.KindStruct},
		{"Alias", types.KindType},
		{"DefaultName", types.KindConst},
		{"debug", types.KindVar},
		{"Hello", types.KindFunction},
		{"Render", types.KindFunction},
		{"Greet", types.KindMethod},
	}
	for _, tt := range tests {
		sym := symbolByName(result, tt.name)
		require.NotNil(t, sym, "missing symbol %s", tt.name)
		assert.Equal(t, tt.kind, sym.Kind, "kind of %s", tt.name)
		assert.Equal(t, "go", sym.Language)
		assert.Equal(t, "demo.go", sym.FilePath)
		assert.Greater(t, sym.LineStart, 0)
		assert.GreaterOrEqual(t, sym.LineEnd, sym.LineStart)
	}
}

func TestGoExtractCallReferences(t *testing.T) {
	result := extractGo(t, goSample)

	var calls []types.RawReference
	for _, ref := range result.References {
		if ref.Kind == types.RelCalls {
			calls = append(calls, ref)
		}
	}

	hasCall := func(source, target string) bool {
		for _, c := range calls {
			if c.SourceName == source && c.TargetName == target {
				return true
			}
		}
		return false
	}

	assert.True(t, hasCall("Hello", "Render"))
	assert.True(t, hasCall("Greet", "Hello"))
	// Package-qualified call is kept by bare name
	assert.True(t, hasCall("Hello", "Println"))
}

func TestGoExtractEmbeds(t *testing.T) {
	result := extractGo(t, goSample)

	var extends, refs []types.RawReference
	for _, ref := range result.References {
		switch ref.Kind {
		case types.RelExtends:
			extends = append(extends, ref)
		case types.RelReferences:
			refs = append(refs, ref)
		}
	}

	require.Len(t, extends, 1)
	assert.Equal(t, "Greeter", extends[0].SourceName)
	assert.Equal(t, "Stringer", extends[0].TargetName)

	require.NotEmpty(t, refs)
	assert.Equal(t, "Config", refs[0].SourceName)
	assert.Equal(t, "Base", refs[0].TargetName)
}

func TestGoExtractMalformedInput(t *testing.T) {
	// Unbalanced braces must not error; block runs to EOF
	result := extractGo(t, "package x\n\nfunc Broken() {\n\tcallSomething()\n")

	require.Len(t, result.Symbols, 1)
	assert.Equal(t, "Broken", result.Symbols[0].Name)
	assert.Equal(t, 5, result.Symbols[0].LineEnd)
}

func TestGoExtractEmptyFile(t *testing.T) {
	result := extractGo(t, "")
	assert.Empty(t, result.Symbols)
	assert.Empty(t, result.References)
}

func TestGoExtractInvalidUTF8(t *testing.T) {
	e := NewGoExtractor()
	result, err := e.Extract("bad.go", []byte{0xff, 0xfe, '\n'})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Diagnostics)
}

func TestGoExtractSkipsComments(t *testing.T) {
	src := `package x

// func Commented() {}
/*
func AlsoCommented() {}
*/
func Real() {}
`
	result := extractGo(t, src)
	require.Len(t, result.Symbols, 1)
	assert.Equal(t, "Real", result.Symbols[0].Name)
}
