// Package chunker serializes category buckets into lines and packs those
// lines into token-bounded chunks for the model.
//
// # Basic Usage
//
//	c := chunker.New(chunker.HeuristicTokenizer{})
//	chunks, err := c.ChunkBuckets(analysis.Buckets, types.LanguagePython,
//	    chunker.SerializeOptions{SectionHeaders: true},
//	    chunker.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//
//	for _, chunk := range chunks {
//	    fmt.Printf("Chunk %d: %d lines, %d tokens\n",
//	        chunk.Index, len(chunk.Lines), chunk.TokenCount)
//	}
//
// # Serialization
//
// Buckets are emitted in fixed category order, one fragment line per line.
// With section headers enabled, each non-empty bucket is introduced by a
// comment line in the source language:
//
//	# --- Imports ---
//	// --- Routes ---
//
// Blank lines are never emitted or counted. Leading indentation is kept so
// Python blocks survive the round trip.
//
// # Packing
//
// The budget is MaxTokens minus Headroom (defaults 32000 and 500). Lines are
// accumulated greedily; the accumulator is flushed before a line that would
// exceed the budget. There is no intra-line splitting, so a single line larger
// than the budget forms its own oversized chunk. Concatenating the lines of
// all chunks reproduces the serialized input exactly.
//
// # Token Counting
//
// Two tokenizers are provided:
//   - heuristic: ceil(bytes/4), at least 1 for non-empty text
//   - tiktoken: BPE counting via github.com/pkoukk/tiktoken-go (cl100k_base by default)
//
// The tiktoken encodings are fetched and cached on first use, so offline
// environments should stay on the heuristic.
package chunker
