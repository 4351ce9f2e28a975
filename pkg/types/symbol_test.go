package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKind(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  SymbolKind
	}{
		{"known function", "function", KindFunction},
		{"known interface", "interface", KindInterface},
		{"known protocol", "protocol", KindProtocol},
		{"unrecognized kind", "widget", KindUnknown},
		{"empty string", "", KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeKind(tt.input))
		})
	}
}

func TestSymbolKindPredicates(t *testing.T) {
	assert.True(t, KindFunction.Callable())
	assert.True(t, KindMethod.Callable())
	assert.False(t, KindClass.Callable())

	assert.True(t, KindInterface.Implementable())
	assert.True(t, KindProtocol.Implementable())
	assert.True(t, KindClass.Implementable())
	assert.False(t, KindFunction.Implementable())
}

func TestSymbolValidate(t *testing.T) {
	valid := Symbol{
		ProjectID: "proj-1",
		Name:      "ParseFile",
		Kind:      KindFunction,
		Language:  "go",
		FilePath:  "parser.go",
		LineStart: 10,
		LineEnd:   25,
	}

	tests := []struct {
		name    string
		mutate  func(*Symbol)
		wantErr string
	}{
		{"valid", func(s *Symbol) {}, ""},
		{"missing name", func(s *Symbol) { s.Name = "" }, "symbol name is required"},
		{"missing project", func(s *Symbol) { s.ProjectID = "" }, "project ID is required"},
		{"missing language", func(s *Symbol) { s.Language = "" }, "language is required"},
		{"missing path", func(s *Symbol) { s.FilePath = "" }, "file path is required"},
		{"zero line", func(s *Symbol) { s.LineStart = 0 }, "line numbers must be positive"},
		{"inverted range", func(s *Symbol) { s.LineStart = 30 }, "start line must be before"},
		{"bad kind", func(s *Symbol) { s.Kind = "widget" }, "invalid symbol kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("")
	assert.NoError(t, err)
	assert.Equal(t, DirBoth, d)

	d, err = ParseDirection("incoming")
	assert.NoError(t, err)
	assert.Equal(t, DirIncoming, d)

	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}

func TestRelationshipValidate(t *testing.T) {
	r := Relationship{ProjectID: "proj-1", SourceID: 1, TargetID: 2, Kind: RelCalls}
	assert.NoError(t, r.Validate())

	r2 := r
	r2.SourceID = 0
	assert.Error(t, r2.Validate())

	r3 := r
	r3.Kind = "borrows"
	assert.Error(t, r3.Validate())
}
