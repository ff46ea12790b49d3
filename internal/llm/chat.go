package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dshills/monosplit/pkg/types"
)

// Environment variables and endpoints for chat-completions providers
const (
	EnvHFToken      = "HF_TOKEN"
	EnvLegacyToken  = "token"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"

	DefaultHuggingFaceURL   = "https://router.huggingface.co/v1"
	DefaultHuggingFaceModel = "mistralai/Mixtral-8x7B-Instruct-v0.1"
	DefaultOpenAIURL        = "https://api.openai.com/v1"
	DefaultOpenAIModel      = "gpt-4o-mini"

	DefaultTimeout = 120 * time.Second

	// maxRawBytes bounds the payload copied into a ModelResponseError
	maxRawBytes = 4096
)

// ChatProvider implements Generator against an OpenAI-compatible
// chat-completions endpoint. It serves both OpenAI and the Hugging Face router.
type ChatProvider struct {
	name       string
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewHuggingFaceProvider creates a provider for the Hugging Face inference router
func NewHuggingFaceProvider(apiKey, model, baseURL string, timeout time.Duration) (*ChatProvider, error) {
	if apiKey == "" {
		apiKey = os.Getenv(EnvHFToken)
	}
	if apiKey == "" {
		apiKey = os.Getenv(EnvLegacyToken)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvHFToken)
	}
	return newChatProvider(ProviderHuggingFace, apiKey, orDefault(model, DefaultHuggingFaceModel),
		orDefault(baseURL, DefaultHuggingFaceURL), timeout), nil
}

// NewOpenAIProvider creates a provider for the OpenAI chat-completions API
func NewOpenAIProvider(apiKey, model, baseURL string, timeout time.Duration) (*ChatProvider, error) {
	if apiKey == "" {
		apiKey = os.Getenv(EnvOpenAIAPIKey)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvOpenAIAPIKey)
	}
	return newChatProvider(ProviderOpenAI, apiKey, orDefault(model, DefaultOpenAIModel),
		orDefault(baseURL, DefaultOpenAIURL), timeout), nil
}

func newChatProvider(name, apiKey, model, baseURL string, timeout time.Duration) *ChatProvider {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ChatProvider{
		name:    name,
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate implements Generator
func (c *ChatProvider) Generate(ctx context.Context, req Request) (string, error) {
	if err := ValidateRequest(req); err != nil {
		return "", err
	}
	req = withDefaults(req, c.model)

	body, err := json.Marshal(chatRequest{
		Model:       req.Model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", c.invocationError(req.Model, fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", c.invocationError(req.Model, fmt.Errorf("api call: %w", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", c.invocationError(req.Model, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return "", c.invocationError(req.Model, fmt.Errorf("api error %d: %s", resp.StatusCode, truncate(string(raw))))
	}

	var apiResp chatResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return "", &types.ModelResponseError{Provider: c.name, Reason: "decode response: " + err.Error(), Raw: truncate(string(raw))}
	}
	if len(apiResp.Choices) == 0 {
		return "", &types.ModelResponseError{Provider: c.name, Reason: "no choices returned", Raw: truncate(string(raw))}
	}

	return apiResp.Choices[0].Message.Content, nil
}

func (c *ChatProvider) invocationError(model string, err error) error {
	return &types.ModelInvocationError{Provider: c.name, Model: model, Err: err}
}

// Provider implements Generator
func (c *ChatProvider) Provider() string {
	return c.name
}

// Model implements Generator
func (c *ChatProvider) Model() string {
	return c.model
}

// Close implements Generator
func (c *ChatProvider) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func truncate(s string) string {
	if len(s) <= maxRawBytes {
		return s
	}
	n := maxRawBytes
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
