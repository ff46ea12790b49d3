package chunker

import (
	"fmt"
	"strings"

	"github.com/dshills/monosplit/pkg/types"
)

const (
	// DefaultMaxTokens is the default token ceiling per chunk
	DefaultMaxTokens = 32000

	// DefaultHeadroom is reserved for the prompt wrapped around each chunk
	DefaultHeadroom = 500
)

// Options configures packing
type Options struct {
	MaxTokens int
	Headroom  int
}

// DefaultOptions returns the default packing options
func DefaultOptions() Options {
	return Options{MaxTokens: DefaultMaxTokens, Headroom: DefaultHeadroom}
}

// Budget returns the effective per-chunk token ceiling
func (o Options) Budget() int {
	return o.MaxTokens - o.Headroom
}

// Validate checks that the options leave a positive budget
func (o Options) Validate() error {
	if o.MaxTokens <= 0 {
		return types.NewValidationError("max_tokens", fmt.Sprint(o.MaxTokens), "must be positive")
	}
	if o.Headroom < 0 {
		return types.NewValidationError("headroom", fmt.Sprint(o.Headroom), "must not be negative")
	}
	if o.Budget() <= 0 {
		return types.NewValidationError("max_tokens", fmt.Sprint(o.MaxTokens),
			fmt.Sprintf("must exceed headroom %d", o.Headroom))
	}
	return nil
}

// Chunker packs serialized bucket lines into token-bounded chunks
type Chunker struct {
	tokenizer Tokenizer
}

// New creates a new Chunker instance. A nil tokenizer uses the heuristic.
func New(tokenizer Tokenizer) *Chunker {
	if tokenizer == nil {
		tokenizer = HeuristicTokenizer{}
	}
	return &Chunker{tokenizer: tokenizer}
}

// Tokenizer returns the tokenizer in use
func (c *Chunker) Tokenizer() Tokenizer {
	return c.tokenizer
}

// ChunkBuckets serializes the buckets and packs the resulting lines
func (c *Chunker) ChunkBuckets(buckets *types.Buckets, lang types.Language, ser SerializeOptions, opts Options) ([]*types.Chunk, error) {
	return c.Pack(Serialize(buckets, lang, ser), opts)
}

// Pack greedily accumulates lines into chunks. Before a line is added, the
// accumulator is flushed if the line would push it past the budget. A line
// larger than the budget on its own becomes the sole content of its chunk.
func (c *Chunker) Pack(lines []string, opts Options) ([]*types.Chunk, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	budget := opts.Budget()

	chunks := make([]*types.Chunk, 0)
	current := &types.Chunk{Index: 0}

	flush := func() {
		if len(current.Lines) == 0 {
			return
		}
		current.ComputeContentHash()
		chunks = append(chunks, current)
		current = &types.Chunk{Index: len(chunks)}
	}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		tokens := c.tokenizer.CountTokens(line)
		if current.TokenCount+tokens > budget {
			flush()
		}

		current.Lines = append(current.Lines, line)
		current.TokenCount += tokens
	}
	flush()

	return chunks, nil
}
