package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dshills/monosplit/internal/materialize"
	"github.com/dshills/monosplit/internal/orchestrator"
	"github.com/dshills/monosplit/pkg/types"
)

// PreviewChars is how much of the first produced file a preview shows
const PreviewChars = 500

// Printer writes styled progress and results. It implements orchestrator.Observer.
type Printer struct {
	out   io.Writer
	model string
}

// NewPrinter creates a Printer writing to out
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// SetModel names the model in chunk progress lines
func (p *Printer) SetModel(model string) {
	p.model = model
}

// OnStateChange prints one progress line per state
func (p *Printer) OnStateChange(state orchestrator.State, chunkIndex, total int) {
	switch state {
	case orchestrator.StateAnalyzingSource:
		p.line(Muted.Render("Analyzing source..."))
	case orchestrator.StatePacking:
		p.line(Muted.Render("Packing chunks..."))
	case orchestrator.StateProcessingChunk:
		if p.model == "" {
			p.line(Title.Render(fmt.Sprintf("Sending chunk %d/%d...", chunkIndex+1, total)))
			return
		}
		p.line(Title.Render(fmt.Sprintf("Sending chunk %d/%d to %s...", chunkIndex+1, total, p.model)))
	case orchestrator.StateCompleted:
		p.line(Success.Render("Refactoring complete"))
	case orchestrator.StateAborted:
		p.line(Error.Render("Refactoring aborted"))
	}
}

// Preview shows the first PreviewChars characters of the first produced file
func (p *Printer) Preview(result *types.Result) {
	if result == nil || result.Len() == 0 {
		p.line(Warning.Render("No files were produced"))
		return
	}

	first := result.Files()[0]
	content := first.Content
	if runes := []rune(content); len(runes) > PreviewChars {
		content = string(runes[:PreviewChars]) + "\n..."
	}

	p.line(Title.Render("Preview: " + first.Path))
	p.line(PreviewBox.Render(content))
}

// Paths lists every produced path, flagging duplicate overwrites
func (p *Printer) Paths(result *types.Result) {
	if result == nil {
		return
	}

	p.line(Title.Render(fmt.Sprintf("%d files:", result.Len())))
	for _, path := range result.Paths() {
		p.line("  " + Path.Render(path))
	}
	for _, w := range result.Warnings {
		p.line(Warning.Render(fmt.Sprintf("warning: %s overwritten by chunk %d", w.Path, w.ChunkIndex+1)))
	}
}

// Summary reports where a sink wrote the files and which are entrypoints
func (p *Printer) Summary(s *materialize.Summary) {
	p.line(Success.Render(fmt.Sprintf("Wrote %d files (%d bytes) to %s", s.Files, s.Bytes, s.Location)))
	if len(s.Entrypoints) > 0 {
		p.line(Muted.Render("Entrypoints: " + strings.Join(s.Entrypoints, ", ")))
	}
}

// Stats prints the job statistics on one muted line
func (p *Printer) Stats(job *orchestrator.Job) {
	st := job.Stats
	p.line(Muted.Render(fmt.Sprintf(
		"job %s: %d nodes, %d duplicates, %d chunks (%s), %d model calls, %s",
		job.ID, st.NodesVisited, st.DuplicateNodes, st.Chunks, st.Tokenizer, st.ModelCalls, st.Duration.Round(time.Millisecond),
	)))
}

// Info prints a muted informational line
func (p *Printer) Info(msg string) {
	p.line(Muted.Render(msg))
}

// Warn prints a warning line
func (p *Printer) Warn(msg string) {
	p.line(Warning.Render("warning: " + msg))
}

// Error prints a failure message
func (p *Printer) Error(err error) {
	p.line(Error.Render("error: " + err.Error()))
}

func (p *Printer) line(s string) {
	fmt.Fprintln(p.out, s)
}
