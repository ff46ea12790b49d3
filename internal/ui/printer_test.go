package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/monosplit/internal/materialize"
	"github.com/dshills/monosplit/internal/orchestrator"
	"github.com/dshills/monosplit/pkg/types"
)

func TestPrinter_Progress(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	var obs orchestrator.Observer = p
	obs.OnStateChange(orchestrator.StatePending, -1, 0)
	obs.OnStateChange(orchestrator.StateAnalyzingSource, -1, 0)
	obs.OnStateChange(orchestrator.StateProcessingChunk, 0, 3)
	p.SetModel("mixtral")
	obs.OnStateChange(orchestrator.StateProcessingChunk, 1, 3)
	obs.OnStateChange(orchestrator.StateCompleted, -1, 3)

	out := buf.String()
	assert.Contains(t, out, "Analyzing source...")
	assert.Contains(t, out, "Sending chunk 1/3...")
	assert.Contains(t, out, "Sending chunk 2/3 to mixtral...")
	assert.Contains(t, out, "Refactoring complete")
	assert.Equal(t, 4, strings.Count(out, "\n"), "Pending prints nothing")
}

func TestPrinter_PreviewTruncates(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	result := types.NewResult()
	result.Put("app.py", strings.Repeat("a", 600))
	result.Put("routes/routes.py", "pass")

	p.Preview(result)

	out := buf.String()
	assert.Contains(t, out, "Preview: app.py")
	assert.Contains(t, out, strings.Repeat("a", PreviewChars))
	assert.NotContains(t, out, strings.Repeat("a", PreviewChars+1))
	assert.NotContains(t, out, "routes/routes.py")
}

func TestPrinter_PreviewEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).Preview(types.NewResult())
	assert.Contains(t, buf.String(), "No files were produced")
}

func TestPrinter_PathsAndWarnings(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	result := types.NewResult()
	result.Put("app.py", "x")
	result.Put("models/user.py", "y")
	result.Warnings = append(result.Warnings, types.DuplicateWarning{Path: "app.py", ChunkIndex: 1})

	p.Paths(result)

	out := buf.String()
	assert.Contains(t, out, "2 files:")
	assert.Contains(t, out, "app.py")
	assert.Contains(t, out, "models/user.py")
	assert.Contains(t, out, "app.py overwritten by chunk 2")
}

func TestPrinter_SummaryAndError(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Summary(&materialize.Summary{Location: "/tmp/out", Files: 3, Bytes: 42, Entrypoints: []string{"app.py"}})
	p.Error(errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "Wrote 3 files (42 bytes) to /tmp/out")
	assert.Contains(t, out, "Entrypoints: app.py")
	assert.Contains(t, out, "error: boom")
}

func TestPrinter_StatsNamesTokenizer(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Stats(&orchestrator.Job{ID: "j1", Stats: orchestrator.Statistics{Chunks: 2, ModelCalls: 2, Tokenizer: "tiktoken:cl100k_base"}})
	assert.Contains(t, buf.String(), "2 chunks (tiktoken:cl100k_base), 2 model calls")
}
