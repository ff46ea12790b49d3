package llm

import (
	"context"
	"errors"
	"fmt"
)

// Common errors
var (
	ErrEmptyPrompt         = errors.New("prompt cannot be empty")
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrNoProviderEnabled   = errors.New("no model provider configured")
)

// Provider names
const (
	ProviderHuggingFace = "huggingface"
	ProviderOpenAI      = "openai"
	ProviderGemini      = "gemini"
	ProviderEcho        = "echo"
)

// Generation defaults
const (
	DefaultMaxOutputTokens = 2048
	DefaultTemperature     = 0.7
)

// CodeMarker precedes the verbatim chunk text in every prompt
const CodeMarker = "Here is the code to refactor:"

// Request is one synchronous generation call
type Request struct {
	Prompt      string
	Model       string // Optional: override default model
	MaxTokens   int
	Temperature float64
}

// Generator produces text from a prompt. Implementations return
// *types.ModelInvocationError for transport or status failures and
// *types.ModelResponseError when a reply arrived but could not be read.
type Generator interface {
	// Generate performs one blocking model call
	Generate(ctx context.Context, req Request) (string, error)

	// Provider returns the provider name
	Provider() string

	// Model returns the default model name
	Model() string

	// Close releases any resources held by the generator
	Close() error
}

// ValidateRequest validates a generation request
func ValidateRequest(req Request) error {
	if req.Prompt == "" {
		return ErrEmptyPrompt
	}
	if req.MaxTokens < 0 {
		return fmt.Errorf("max tokens must not be negative: %d", req.MaxTokens)
	}
	if req.Temperature < 0 || req.Temperature > 2 {
		return fmt.Errorf("temperature out of range [0, 2]: %v", req.Temperature)
	}
	return nil
}

// withDefaults fills zero-valued generation parameters
func withDefaults(req Request, model string) Request {
	if req.Model == "" {
		req.Model = model
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = DefaultMaxOutputTokens
	}
	return req
}
