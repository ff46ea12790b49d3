package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dshills/monosplit/internal/chunker"
	"github.com/dshills/monosplit/internal/llm"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // config key, e.g. "packer.max_tokens"
	Value   any
	Message string
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidProviders returns the accepted model.provider values; empty means auto-detect
func ValidProviders() []string {
	return []string{"", llm.ProviderHuggingFace, llm.ProviderOpenAI, llm.ProviderGemini, llm.ProviderEcho}
}

// ValidLogLevels returns the accepted logging.level values
func ValidLogLevels() []string {
	return []string{"DEBUG", "INFO", "WARN", "ERROR"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	add := func(field string, value any, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	// Model
	if !slices.Contains(ValidProviders(), strings.ToLower(c.Model.Provider)) {
		add("model.provider", c.Model.Provider, "must be one of huggingface, openai, gemini, echo or empty")
	}
	if c.Model.MaxOutputTokens <= 0 {
		add("model.max_output_tokens", c.Model.MaxOutputTokens, "must be positive")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		add("model.temperature", c.Model.Temperature, "must be between 0 and 2")
	}
	if c.Model.TimeoutSeconds <= 0 {
		add("model.timeout_seconds", c.Model.TimeoutSeconds, "must be positive")
	}
	if c.Model.CacheSize < 0 {
		add("model.cache_size", c.Model.CacheSize, "must not be negative")
	}

	// Packer
	if c.Packer.MaxTokens <= 0 {
		add("packer.max_tokens", c.Packer.MaxTokens, "must be positive")
	}
	if c.Packer.Headroom < 0 {
		add("packer.headroom", c.Packer.Headroom, "must not be negative")
	}
	if c.Packer.MaxTokens > 0 && c.Packer.Headroom >= c.Packer.MaxTokens {
		add("packer.headroom", c.Packer.Headroom, "must be smaller than packer.max_tokens")
	}
	if !slices.Contains([]string{chunker.TokenizerHeuristic, chunker.TokenizerTiktoken}, c.Packer.Tokenizer) {
		add("packer.tokenizer", c.Packer.Tokenizer, "must be heuristic or tiktoken")
	}

	// Output
	if c.Output.Dir == "" {
		add("output.dir", c.Output.Dir, "must not be empty")
	}
	if c.Output.S3.Enabled {
		if c.Output.S3.Endpoint == "" {
			add("output.s3.endpoint", c.Output.S3.Endpoint, "required when output.s3.enabled is set")
		}
		if c.Output.S3.Bucket == "" {
			add("output.s3.bucket", c.Output.S3.Bucket, "required when output.s3.enabled is set")
		}
	}

	// Storage
	if c.Storage.Enabled && c.Storage.Path == "" {
		add("storage.path", c.Storage.Path, "required when storage.enabled is set")
	}

	// Logging
	if !slices.Contains(ValidLogLevels(), strings.ToUpper(c.Logging.Level)) {
		add("logging.level", c.Logging.Level, "must be one of DEBUG, INFO, WARN, ERROR")
	}

	return errs
}
