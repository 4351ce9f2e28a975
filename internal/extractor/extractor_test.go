package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrause/codegraph-mcp/pkg/types"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"main.go", "go"},
		{"pkg/util/helpers.go", "go"},
		{"script.py", "python"},
		{"types.pyi", "python"},
		{"app.ts", "typescript"},
		{"Main.java", "java"},
		{"README.md", ""},
		{"Makefile", ""},
		{"UPPER.GO", "go"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.path))
		})
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get("go"))

	r.Register(NewGoExtractor())
	require.NotNil(t, r.Get("go"))
	assert.Equal(t, "go", r.Get("go").Language())

	// Registering again replaces
	r.Register(NewGoExtractor())
	assert.Len(t, r.Languages(), 1)
}

func TestDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry()
	assert.Equal(t, []string{"go", "python"}, r.Languages())
}

func TestRegistryForFile(t *testing.T) {
	r := NewDefaultRegistry()

	e := r.ForFile("cmd/main.go")
	require.NotNil(t, e)
	assert.Equal(t, "go", e.Language())

	// Detected language without a registered extractor
	assert.Nil(t, r.ForFile("app.ts"))
	// Unknown extension
	assert.Nil(t, r.ForFile("notes.txt"))
}

func TestRegistryCustomExtractor(t *testing.T) {
	r := NewRegistry()
	r.Register(stubExtractor{})

	e := r.ForFile("index.ts")
	require.NotNil(t, e)

	result, err := e.Extract("index.ts", []byte("whatever"))
	require.NoError(t, err)
	assert.Equal(t, "typescript", result.Language)
}

type stubExtractor struct{}

func (stubExtractor) Language() string { return "typescript" }

func (stubExtractor) Extract(path string, content []byte) (*types.ExtractResult, error) {
	return &types.ExtractResult{FilePath: path, Language: "typescript"}, nil
}
