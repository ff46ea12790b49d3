package types

import (
	"crypto/sha256"
	"errors"
	"strings"
)

// Chunk is a token-bounded run of non-blank lines sent to the model as one unit
type Chunk struct {
	// Position in the chunk sequence (0-based)
	Index int

	// Content
	Lines       []string
	TokenCount  int
	ContentHash [32]byte // SHA-256 of Text()
}

// Text joins the chunk lines with newlines
func (c *Chunk) Text() string {
	return strings.Join(c.Lines, "\n")
}

// ComputeContentHash computes the SHA-256 hash of the chunk text
func (c *Chunk) ComputeContentHash() {
	c.ContentHash = sha256.Sum256([]byte(c.Text()))
}

// Oversized reports whether the chunk exceeds the given token budget.
// Only a chunk made of one line can legitimately be oversized.
func (c *Chunk) Oversized(budget int) bool {
	return c.TokenCount > budget
}

// Validate checks the chunk invariants
func (c *Chunk) Validate() error {
	if len(c.Lines) == 0 {
		return errors.New("chunk must contain at least one line")
	}

	for _, line := range c.Lines {
		if strings.TrimSpace(line) == "" {
			return errors.New("chunk lines must not be blank")
		}
	}

	if c.TokenCount < 0 {
		return errors.New("token count must not be negative")
	}

	if c.Index < 0 {
		return errors.New("chunk index must not be negative")
	}

	return nil
}
