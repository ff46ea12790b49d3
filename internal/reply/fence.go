package reply

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// UnwrapFence returns the body of content when content is exactly one fenced
// Markdown code block. Anything else is returned unchanged.
func UnwrapFence(content string) string {
	source := []byte(content)
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	if root.ChildCount() != 1 {
		return content
	}
	block, ok := root.FirstChild().(*ast.FencedCodeBlock)
	if !ok {
		return content
	}

	var body bytes.Buffer
	lines := block.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		body.Write(line.Value(source))
	}

	return strings.TrimRight(body.String(), "\n")
}
