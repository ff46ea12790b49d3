package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// EnvProvider selects a provider explicitly
const EnvProvider = "MONOSPLIT_PROVIDER"

// Config holds generator configuration
type Config struct {
	Provider    string
	Model       string
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	CacheSize   int    // 0 disables the reply cache
	EchoPattern string // file name pattern for the echo provider
}

// New creates a generator with explicit configuration. An empty provider
// is resolved with DetectProvider.
func New(ctx context.Context, cfg Config) (Generator, error) {
	provider := strings.ToLower(cfg.Provider)
	if provider == "" {
		provider = DetectProvider()
	}

	var (
		gen Generator
		err error
	)
	switch provider {
	case ProviderHuggingFace:
		gen, err = NewHuggingFaceProvider(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Timeout)
	case ProviderOpenAI:
		gen, err = NewOpenAIProvider(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Timeout)
	case ProviderGemini:
		gen, err = NewGeminiProvider(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL)
	case ProviderEcho:
		gen = NewEchoProvider(cfg.EchoPattern)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CacheSize > 0 {
		return NewCachedGenerator(gen, cfg.CacheSize), nil
	}
	return gen, nil
}

// NewFromEnv creates a generator based on environment variables
// Priority:
// 1. MONOSPLIT_PROVIDER (huggingface, openai, gemini, echo)
// 2. Check for API keys: HF_TOKEN (or token), OPENAI_API_KEY, GEMINI_API_KEY
// 3. Default to echo if no API keys found
func NewFromEnv(ctx context.Context) (Generator, error) {
	return New(ctx, Config{CacheSize: DefaultCacheSize})
}

// DetectProvider returns the provider that would be used based on current environment
func DetectProvider() string {
	if provider := os.Getenv(EnvProvider); provider != "" {
		return strings.ToLower(provider)
	}

	if os.Getenv(EnvHFToken) != "" || os.Getenv(EnvLegacyToken) != "" {
		return ProviderHuggingFace
	}
	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}
	if os.Getenv(EnvGeminiAPIKey) != "" || os.Getenv(EnvGoogleAPIKey) != "" {
		return ProviderGemini
	}

	return ProviderEcho
}

// EchoFallback reports whether cfg resolves to the echo provider only because
// no provider was named and no API key is set
func EchoFallback(cfg Config) bool {
	return cfg.Provider == "" && os.Getenv(EnvProvider) == "" && DetectProvider() == ProviderEcho
}
