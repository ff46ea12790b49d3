package types

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllCategories_Order(t *testing.T) {
	names := make([]string, 0, len(AllCategories))
	for _, c := range AllCategories {
		names = append(names, c.String())
	}

	assert.Equal(t, []string{"Imports", "Initialization", "Models", "Utils", "Routes", "Main", "Others"}, names)
}

func TestCategory_Valid(t *testing.T) {
	assert.False(t, Category(0).Valid())
	assert.False(t, Category(8).Valid())
	assert.True(t, CategoryRoutes.Valid())
	assert.Equal(t, "Category(42)", Category(42).String())
}

func TestBuckets_AddAndGet(t *testing.T) {
	b := NewBuckets()

	require.NoError(t, b.Add(CategoryUtils, "def a(): pass"))
	require.NoError(t, b.Add(CategoryUtils, "def b(): pass"))
	require.NoError(t, b.Add(CategoryImports, "import os"))

	assert.Equal(t, []string{"def a(): pass", "def b(): pass"}, b.Get(CategoryUtils))
	assert.Equal(t, []string{"import os"}, b.Get(CategoryImports))
	assert.Empty(t, b.Get(CategoryMain))
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, 2, b.Counts()["Utils"])

	err := b.Add(Category(0), "x")
	assert.ErrorIs(t, err, ErrInvalidCategory)
	assert.Nil(t, b.Get(Category(0)))
}

func TestBuckets_EachVisitsInOrder(t *testing.T) {
	b := NewBuckets()
	require.NoError(t, b.Add(CategoryOthers, "print(1)"))

	var visited []Category
	b.Each(func(c Category, fragments []string) {
		visited = append(visited, c)
	})

	assert.Equal(t, AllCategories[:], visited)
}

func TestLanguageFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Language
		ok   bool
	}{
		{"monolith.py", LanguagePython, true},
		{"server.js", LanguageJavaScript, true},
		{"server.MJS", LanguageJavaScript, true},
		{"lib.cjs", LanguageJavaScript, true},
		{"main.go", "", false},
		{"README", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := LanguageFromPath(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChunk_Validate(t *testing.T) {
	c := &Chunk{Lines: []string{"import os", "x = 1"}, TokenCount: 4}
	assert.NoError(t, c.Validate())
	assert.Equal(t, "import os\nx = 1", c.Text())

	c.ComputeContentHash()
	assert.NotEqual(t, [32]byte{}, c.ContentHash)

	assert.Error(t, (&Chunk{}).Validate())
	assert.Error(t, (&Chunk{Lines: []string{"  "}}).Validate())
	assert.True(t, (&Chunk{Lines: []string{"x"}, TokenCount: 10}).Oversized(5))
}

func TestResult_PutOverwrites(t *testing.T) {
	r := NewResult()

	assert.False(t, r.Put("app.py", "X"))
	assert.False(t, r.Put("routes/routes.py", "R"))
	assert.True(t, r.Put("app.py", "Y"))

	content, ok := r.Get("app.py")
	require.True(t, ok)
	assert.Equal(t, "Y", content)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"app.py", "routes/routes.py"}, r.Paths())
	assert.Equal(t, []FileRecord{{Path: "app.py", Content: "Y"}, {Path: "routes/routes.py", Content: "R"}}, r.Files())

	m := r.Map()
	m["app.py"] = "mutated"
	content, _ = r.Get("app.py")
	assert.Equal(t, "Y", content)
}

func TestErrors_MatchSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"validation", NewValidationError("file", "a.rb", "unsupported file type"), ErrValidation},
		{"parse", &ParseError{File: "a.py", Language: LanguagePython, Message: "bad"}, ErrParse},
		{"invocation", &ModelInvocationError{Provider: "openai", Model: "m", Err: errors.New("boom")}, ErrModelInvocation},
		{"response", &ModelResponseError{Provider: "openai", Reason: "no choices", Raw: "{}"}, ErrModelResponse},
		{"missing header", &MissingFileHeaderError{ChunkIndex: 0, Excerpt: "no markers"}, ErrMissingFileHeader},
		{"malformed", &MalformedReplyError{Path: "/etc/passwd", Reason: "absolute"}, ErrMalformedReply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("job failed: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestModelInvocationError_UnwrapsCause(t *testing.T) {
	err := &ModelInvocationError{Provider: "gemini", Model: "m", Err: context.DeadlineExceeded}

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrModelInvocation)
	assert.NotErrorIs(t, err, ErrModelResponse)
}

func TestParseError_Message(t *testing.T) {
	err := &ParseError{File: "a.py", Language: LanguagePython, Line: 3, Column: 7, Message: "unexpected token"}
	assert.Equal(t, "a.py: python syntax error at 3:7: unexpected token", err.Error())
}
