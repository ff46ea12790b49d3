// Package config loads monosplit settings from defaults, an optional
// monosplit.yaml, a .env file and MONOSPLIT_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dshills/monosplit/internal/chunker"
	"github.com/dshills/monosplit/internal/llm"
	"github.com/dshills/monosplit/internal/materialize"
	"github.com/dshills/monosplit/internal/orchestrator"
)

// EnvPrefix is prepended to every environment override, e.g. MONOSPLIT_PACKER_MAX_TOKENS
const EnvPrefix = "MONOSPLIT"

// Config represents the complete monosplit configuration
type Config struct {
	Model   ModelConfig   `mapstructure:"model"`
	Packer  PackerConfig  `mapstructure:"packer"`
	Reply   ReplyConfig   `mapstructure:"reply"`
	Output  OutputConfig  `mapstructure:"output"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ModelConfig selects and tunes the generative model
type ModelConfig struct {
	// Provider is one of huggingface, openai, gemini or echo. Empty auto-detects.
	Provider        string  `mapstructure:"provider"`
	Name            string  `mapstructure:"name"`
	BaseURL         string  `mapstructure:"base_url"`
	MaxOutputTokens int     `mapstructure:"max_output_tokens"`
	Temperature     float64 `mapstructure:"temperature"`
	TimeoutSeconds  int     `mapstructure:"timeout_seconds"`
	// CacheSize is the number of replies kept in memory (0 disables the cache)
	CacheSize int `mapstructure:"cache_size"`
}

// PackerConfig controls chunk packing
type PackerConfig struct {
	MaxTokens      int    `mapstructure:"max_tokens"`
	Headroom       int    `mapstructure:"headroom"`
	Tokenizer      string `mapstructure:"tokenizer"` // heuristic or tiktoken
	Encoding       string `mapstructure:"encoding"`
	SectionHeaders bool   `mapstructure:"section_headers"`
}

// ReplyConfig controls reply parsing
type ReplyConfig struct {
	UnwrapFences bool `mapstructure:"unwrap_fences"`
}

// OutputConfig controls where results are written
type OutputConfig struct {
	Dir    string   `mapstructure:"dir"`
	Backup bool     `mapstructure:"backup"`
	S3     S3Config `mapstructure:"s3"`
}

// S3Config enables the object store sink when Enabled is set
type S3Config struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// StorageConfig controls the job history database
type StorageConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig controls structured logging
type LoggingConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR
	Level string `mapstructure:"level"`
	// Dir receives monosplit.log when set; logs go to stderr otherwise
	Dir string `mapstructure:"dir"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			MaxOutputTokens: llm.DefaultMaxOutputTokens,
			Temperature:     llm.DefaultTemperature,
			TimeoutSeconds:  int(llm.DefaultTimeout / time.Second),
			CacheSize:       llm.DefaultCacheSize,
		},
		Packer: PackerConfig{
			MaxTokens:      chunker.DefaultMaxTokens,
			Headroom:       chunker.DefaultHeadroom,
			Tokenizer:      chunker.TokenizerHeuristic,
			Encoding:       chunker.DefaultEncoding,
			SectionHeaders: true,
		},
		Output: OutputConfig{
			Dir:    "~/Desktop/refactored_code",
			Backup: true,
			S3:     S3Config{Region: "us-east-1", Prefix: "monosplit", UseSSL: true},
		},
		Storage: StorageConfig{
			Enabled: true,
			Path:    "~/.monosplit/history.db",
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}

// SetDefaults registers every default with v
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	// Model defaults
	v.SetDefault("model.provider", defaults.Model.Provider)
	v.SetDefault("model.name", defaults.Model.Name)
	v.SetDefault("model.base_url", defaults.Model.BaseURL)
	v.SetDefault("model.max_output_tokens", defaults.Model.MaxOutputTokens)
	v.SetDefault("model.temperature", defaults.Model.Temperature)
	v.SetDefault("model.timeout_seconds", defaults.Model.TimeoutSeconds)
	v.SetDefault("model.cache_size", defaults.Model.CacheSize)

	// Packer defaults
	v.SetDefault("packer.max_tokens", defaults.Packer.MaxTokens)
	v.SetDefault("packer.headroom", defaults.Packer.Headroom)
	v.SetDefault("packer.tokenizer", defaults.Packer.Tokenizer)
	v.SetDefault("packer.encoding", defaults.Packer.Encoding)
	v.SetDefault("packer.section_headers", defaults.Packer.SectionHeaders)

	// Reply defaults
	v.SetDefault("reply.unwrap_fences", defaults.Reply.UnwrapFences)

	// Output defaults
	v.SetDefault("output.dir", defaults.Output.Dir)
	v.SetDefault("output.backup", defaults.Output.Backup)
	v.SetDefault("output.s3.enabled", defaults.Output.S3.Enabled)
	v.SetDefault("output.s3.endpoint", defaults.Output.S3.Endpoint)
	v.SetDefault("output.s3.region", defaults.Output.S3.Region)
	v.SetDefault("output.s3.access_key", defaults.Output.S3.AccessKey)
	v.SetDefault("output.s3.secret_key", defaults.Output.S3.SecretKey)
	v.SetDefault("output.s3.bucket", defaults.Output.S3.Bucket)
	v.SetDefault("output.s3.prefix", defaults.Output.S3.Prefix)
	v.SetDefault("output.s3.use_ssl", defaults.Output.S3.UseSSL)

	// Storage defaults
	v.SetDefault("storage.enabled", defaults.Storage.Enabled)
	v.SetDefault("storage.path", defaults.Storage.Path)

	// Logging defaults
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.dir", defaults.Logging.Dir)
}

// Init prepares v: .env is loaded into the process environment, defaults are
// registered, and the config file is searched unless cfgFile names one.
// A missing config file is not an error.
func Init(v *viper.Viper, cfgFile string) error {
	_ = godotenv.Load()

	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("monosplit")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// Load reads the configuration from v into a Config struct and validates it
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "monosplit")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".monosplit"
	}
	return filepath.Join(home, ".config", "monosplit")
}

// LLMConfig maps the model section onto a provider factory configuration
func (c *Config) LLMConfig() llm.Config {
	return llm.Config{
		Provider:  c.Model.Provider,
		Model:     c.Model.Name,
		BaseURL:   c.Model.BaseURL,
		Timeout:   time.Duration(c.Model.TimeoutSeconds) * time.Second,
		CacheSize: c.Model.CacheSize,
	}
}

// OrchestratorConfig maps packer, reply and output settings onto a job configuration
func (c *Config) OrchestratorConfig() (*orchestrator.Config, error) {
	tokenizer, err := chunker.NewTokenizer(c.Packer.Tokenizer, c.Packer.Encoding)
	if err != nil {
		return nil, err
	}

	return &orchestrator.Config{
		MaxTokens:       c.Packer.MaxTokens,
		Headroom:        c.Packer.Headroom,
		SectionHeaders:  c.Packer.SectionHeaders,
		MaxOutputTokens: c.Model.MaxOutputTokens,
		Temperature:     c.Model.Temperature,
		Model:           c.Model.Name,
		UnwrapFences:    c.Reply.UnwrapFences,
		Backup:          c.Output.Backup,
		Tokenizer:       tokenizer,
	}, nil
}

// S3SinkConfig maps the S3 section onto the object store sink configuration
func (c *Config) S3SinkConfig() materialize.S3Config {
	s3 := c.Output.S3
	return materialize.S3Config{
		Endpoint:  s3.Endpoint,
		Region:    s3.Region,
		AccessKey: s3.AccessKey,
		SecretKey: s3.SecretKey,
		Bucket:    s3.Bucket,
		Prefix:    s3.Prefix,
		UseSSL:    s3.UseSSL,
	}
}
