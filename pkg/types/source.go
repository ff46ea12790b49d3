package types

import (
	"path/filepath"
	"strings"
)

// Language identifies one of the two supported source languages
type Language string

const (
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
)

// languageByExt maps file extensions to supported languages
var languageByExt = map[string]Language{
	".py":  LanguagePython,
	".js":  LanguageJavaScript,
	".mjs": LanguageJavaScript,
	".cjs": LanguageJavaScript,
}

// LanguageFromPath derives the language tag from a file extension.
// The second return value is false for unsupported extensions.
func LanguageFromPath(path string) (Language, bool) {
	lang, ok := languageByExt[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// Valid reports whether the language is supported
func (l Language) Valid() bool {
	return l == LanguagePython || l == LanguageJavaScript
}

// CommentPrefix returns the line comment marker of the language
func (l Language) CommentPrefix() string {
	if l == LanguageJavaScript {
		return "//"
	}
	return "#"
}

// NodeKind is the coarse kind of a top-level syntax node
type NodeKind string

const (
	NodeImport      NodeKind = "import"
	NodeAssignment  NodeKind = "assignment"
	NodeClass       NodeKind = "class"
	NodeFunction    NodeKind = "function"
	NodeConditional NodeKind = "conditional"
	NodeExpression  NodeKind = "expression"
	NodeOther       NodeKind = "other"
)

// Source is a monolithic input file ready for analysis
type Source struct {
	Path     string
	Language Language
	Content  []byte
}
