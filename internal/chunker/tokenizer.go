package chunker

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// TokensPerChar is the heuristic for estimating tokens (chars/4)
	TokensPerChar = 4

	// DefaultEncoding is the BPE encoding used by the tiktoken tokenizer
	DefaultEncoding = "cl100k_base"

	// Tokenizer names accepted by NewTokenizer
	TokenizerHeuristic = "heuristic"
	TokenizerTiktoken  = "tiktoken"
)

// Tokenizer counts the tokens of one line of text
type Tokenizer interface {
	CountTokens(text string) int
	Name() string
}

// HeuristicTokenizer estimates tokens as ceil(bytes/4), at least 1 for non-empty text
type HeuristicTokenizer struct{}

// CountTokens implements Tokenizer
func (HeuristicTokenizer) CountTokens(text string) int {
	return EstimateTokenCount(text)
}

// Name implements Tokenizer
func (HeuristicTokenizer) Name() string {
	return TokenizerHeuristic
}

// EstimateTokenCount estimates the number of tokens in a string
func EstimateTokenCount(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + TokensPerChar - 1) / TokensPerChar
}

// TiktokenTokenizer counts tokens with a real BPE encoding
type TiktokenTokenizer struct {
	encoding string

	mu  sync.Mutex
	enc *tiktoken.Tiktoken
}

// NewTiktokenTokenizer loads the named encoding
func NewTiktokenTokenizer(encoding string) (*TiktokenTokenizer, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}

	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load encoding %q: %w", encoding, err)
	}

	return &TiktokenTokenizer{encoding: encoding, enc: enc}, nil
}

// CountTokens implements Tokenizer
func (t *TiktokenTokenizer) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.enc.Encode(text, nil, nil))
}

// Name implements Tokenizer
func (t *TiktokenTokenizer) Name() string {
	return TokenizerTiktoken + ":" + t.encoding
}

// NewTokenizer creates a tokenizer by name
func NewTokenizer(name, encoding string) (Tokenizer, error) {
	switch name {
	case "", TokenizerHeuristic:
		return HeuristicTokenizer{}, nil
	case TokenizerTiktoken:
		return NewTiktokenTokenizer(encoding)
	default:
		return nil, fmt.Errorf("unknown tokenizer: %s", name)
	}
}
