package llm

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
)

// DefaultEchoPattern names the file produced for the n-th echoed chunk
const DefaultEchoPattern = "echo/chunk_%03d.txt"

// EchoProvider answers each prompt with one file block holding the chunk text.
// It needs no network and is used for offline dry runs and tests.
type EchoProvider struct {
	pattern string
	calls   atomic.Int64
}

// NewEchoProvider creates an echo provider. pattern must contain one integer verb.
func NewEchoProvider(pattern string) *EchoProvider {
	return &EchoProvider{pattern: orDefault(pattern, DefaultEchoPattern)}
}

// Generate implements Generator
func (e *EchoProvider) Generate(ctx context.Context, req Request) (string, error) {
	if err := ValidateRequest(req); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	n := e.calls.Add(1)
	code := req.Prompt
	if i := strings.LastIndex(code, CodeMarker); i >= 0 {
		code = code[i+len(CodeMarker):]
	}

	return fmt.Sprintf("# File: %s\n%s\n", fmt.Sprintf(e.pattern, n), strings.TrimSpace(code)), nil
}

// Calls returns the number of Generate calls served
func (e *EchoProvider) Calls() int {
	return int(e.calls.Load())
}

// Provider implements Generator
func (e *EchoProvider) Provider() string {
	return ProviderEcho
}

// Model implements Generator
func (e *EchoProvider) Model() string {
	return ProviderEcho
}

// Close implements Generator
func (e *EchoProvider) Close() error {
	return nil
}
