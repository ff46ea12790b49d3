package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/dshills/monosplit/pkg/types"
)

// Environment variables and defaults for Gemini
const (
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvGoogleAPIKey = "GOOGLE_API_KEY"

	DefaultGeminiModel = "gemini-2.5-flash"
)

// GeminiProvider implements Generator with the official genai SDK
type GeminiProvider struct {
	cli   *genai.Client
	model string
}

// NewGeminiProvider creates a Gemini API client. An empty baseURL uses the
// SDK default endpoint.
func NewGeminiProvider(ctx context.Context, apiKey, model, baseURL string) (*GeminiProvider, error) {
	if apiKey == "" {
		apiKey = os.Getenv(EnvGeminiAPIKey)
	}
	if apiKey == "" {
		apiKey = os.Getenv(EnvGoogleAPIKey)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvGeminiAPIKey)
	}

	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiProvider{cli: cli, model: orDefault(model, DefaultGeminiModel)}, nil
}

// Generate implements Generator
func (g *GeminiProvider) Generate(ctx context.Context, req Request) (string, error) {
	if err := ValidateRequest(req); err != nil {
		return "", err
	}
	req = withDefaults(req, g.model)

	resp, err := g.cli.Models.GenerateContent(ctx, req.Model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: req.Prompt}}}},
		&genai.GenerateContentConfig{
			MaxOutputTokens: int32(req.MaxTokens),
			Temperature:     genai.Ptr(float32(req.Temperature)),
		},
	)
	if err != nil {
		return "", &types.ModelInvocationError{Provider: ProviderGemini, Model: req.Model, Err: err}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		reason := "no candidates returned"
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			reason = fmt.Sprintf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}
		return "", &types.ModelResponseError{Provider: ProviderGemini, Reason: reason, Raw: rawResponse(resp)}
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	if sb.Len() == 0 {
		return "", &types.ModelResponseError{Provider: ProviderGemini, Reason: "empty text in candidate", Raw: rawResponse(resp)}
	}
	return sb.String(), nil
}

// rawResponse renders the response for error reports
func rawResponse(resp *genai.GenerateContentResponse) string {
	raw, err := json.Marshal(resp)
	if err != nil {
		return ""
	}
	return truncate(string(raw))
}

// Provider implements Generator
func (g *GeminiProvider) Provider() string {
	return ProviderGemini
}

// Model implements Generator
func (g *GeminiProvider) Model() string {
	return g.model
}

// Close implements Generator
func (g *GeminiProvider) Close() error {
	return nil
}
