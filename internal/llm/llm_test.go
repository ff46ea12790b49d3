package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/monosplit/pkg/types"
)

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{name: "valid", req: Request{Prompt: "hi", MaxTokens: 10, Temperature: 0.7}},
		{name: "empty prompt", req: Request{}, wantErr: true},
		{name: "negative tokens", req: Request{Prompt: "hi", MaxTokens: -1}, wantErr: true},
		{name: "temperature too high", req: Request{Prompt: "hi", Temperature: 3}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.req)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestChatProvider_Generate(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"# File: app.py\nprint(1)"}}]}`))
	}))
	defer server.Close()

	p := newChatProvider(ProviderHuggingFace, "test-key", DefaultHuggingFaceModel, server.URL+"/", time.Second)
	reply, err := p.Generate(context.Background(), Request{Prompt: "refactor", Temperature: 0.7})
	require.NoError(t, err)

	assert.Equal(t, "# File: app.py\nprint(1)", reply)
	assert.Equal(t, DefaultHuggingFaceModel, got.Model)
	assert.Equal(t, DefaultMaxOutputTokens, got.MaxTokens)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "refactor", got.Messages[0].Content)
}

func TestChatProvider_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom", sentinel: types.ErrModelInvocation},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"bad token"}`, sentinel: types.ErrModelInvocation},
		{name: "invalid json", status: http.StatusOK, body: "not json", sentinel: types.ErrModelResponse},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, sentinel: types.ErrModelResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p := newChatProvider(ProviderOpenAI, "k", "m", server.URL, time.Second)
			_, err := p.Generate(context.Background(), Request{Prompt: "x"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)

			var respErr *types.ModelResponseError
			if errors.As(err, &respErr) {
				assert.Equal(t, tt.body, respErr.Raw)
			}
		})
	}
}

func TestChatProvider_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	p := newChatProvider(ProviderOpenAI, "k", "m", url, time.Second)
	_, err := p.Generate(context.Background(), Request{Prompt: "x"})

	var invErr *types.ModelInvocationError
	require.True(t, errors.As(err, &invErr))
	assert.Equal(t, ProviderOpenAI, invErr.Provider)
	assert.Equal(t, "m", invErr.Model)
}

func newGeminiTestServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGeminiProvider_Generate(t *testing.T) {
	server := newGeminiTestServer(t, `{"candidates":[{"content":{"role":"model","parts":[{"text":"# File: app.py\n"},{"text":"print(1)"}]}}]}`)

	p, err := NewGeminiProvider(context.Background(), "test-key", "", server.URL)
	require.NoError(t, err)
	assert.Equal(t, DefaultGeminiModel, p.Model())

	reply, err := p.Generate(context.Background(), Request{Prompt: "refactor"})
	require.NoError(t, err)
	assert.Equal(t, "# File: app.py\nprint(1)", reply)
}

func TestGeminiProvider_ResponseErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		reason string
		raw    string
	}{
		{
			name:   "blocked prompt",
			body:   `{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`,
			reason: "SAFETY",
			raw:    `"blockReason":"SAFETY"`,
		},
		{
			name:   "no candidates",
			body:   `{}`,
			reason: "no candidates",
		},
		{
			name:   "empty text",
			body:   `{"candidates":[{"content":{"role":"model","parts":[{"text":""}]},"finishReason":"MAX_TOKENS"}]}`,
			reason: "empty text",
			raw:    `"finishReason":"MAX_TOKENS"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newGeminiTestServer(t, tt.body)
			p, err := NewGeminiProvider(context.Background(), "test-key", "gemini-test", server.URL)
			require.NoError(t, err)

			_, err = p.Generate(context.Background(), Request{Prompt: "refactor"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrModelResponse), "got %v", err)

			var respErr *types.ModelResponseError
			require.True(t, errors.As(err, &respErr))
			assert.Equal(t, ProviderGemini, respErr.Provider)
			assert.Contains(t, respErr.Reason, tt.reason)
			assert.NotEmpty(t, respErr.Raw)
			if tt.raw != "" {
				assert.Contains(t, respErr.Raw, tt.raw)
			}
		})
	}
}

func TestTruncate_RuneBoundary(t *testing.T) {
	s := strings.Repeat("a", maxRawBytes-1) + "é" + "tail"
	got := truncate(s)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", maxRawBytes-1)+"...", got)
}

func TestNewHuggingFaceProvider_Keys(t *testing.T) {
	t.Setenv(EnvHFToken, "")
	t.Setenv(EnvLegacyToken, "")
	_, err := NewHuggingFaceProvider("", "", "", 0)
	assert.ErrorIs(t, err, ErrNoProviderEnabled)

	t.Setenv(EnvLegacyToken, "legacy")
	p, err := NewHuggingFaceProvider("", "", "", 0)
	require.NoError(t, err)
	assert.Equal(t, ProviderHuggingFace, p.Provider())
	assert.Equal(t, DefaultHuggingFaceModel, p.Model())
	assert.Equal(t, "legacy", p.apiKey)
}

func TestEchoProvider(t *testing.T) {
	e := NewEchoProvider("")
	prompt := "Rules...\n\n" + CodeMarker + "\nimport os\nprint(os.getcwd())\n"

	reply, err := e.Generate(context.Background(), Request{Prompt: prompt})
	require.NoError(t, err)
	assert.Equal(t, "# File: echo/chunk_001.txt\nimport os\nprint(os.getcwd())\n", reply)

	reply, err = e.Generate(context.Background(), Request{Prompt: "plain"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(reply, "# File: echo/chunk_002.txt\n"))
	assert.Equal(t, 2, e.Calls())

	_, err = e.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}

// countingGenerator records how often it is called
type countingGenerator struct {
	calls atomic.Int32
	err   error
}

func (c *countingGenerator) Generate(ctx context.Context, req Request) (string, error) {
	c.calls.Add(1)
	if c.err != nil {
		return "", c.err
	}
	return "reply:" + req.Prompt, nil
}
func (c *countingGenerator) Provider() string { return "counting" }
func (c *countingGenerator) Model() string    { return "m" }
func (c *countingGenerator) Close() error     { return nil }

func TestCachedGenerator(t *testing.T) {
	next := &countingGenerator{}
	c := NewCachedGenerator(next, 2)
	ctx := context.Background()

	r1, err := c.Generate(ctx, Request{Prompt: "a"})
	require.NoError(t, err)
	r2, err := c.Generate(ctx, Request{Prompt: "a"})
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, int32(1), next.calls.Load())

	_, err = c.Generate(ctx, Request{Prompt: "a", Temperature: 0.2})
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.calls.Load())
	assert.Equal(t, 2, c.Size())

	c.Clear()
	assert.Equal(t, 0, c.Size())
	assert.Equal(t, "counting", c.Provider())
}

func TestCachedGenerator_DoesNotCacheErrors(t *testing.T) {
	next := &countingGenerator{err: errors.New("down")}
	c := NewCachedGenerator(next, 0)

	_, err := c.Generate(context.Background(), Request{Prompt: "a"})
	assert.Error(t, err)
	_, err = c.Generate(context.Background(), Request{Prompt: "a"})
	assert.Error(t, err)

	assert.Equal(t, int32(2), next.calls.Load())
	assert.Equal(t, 0, c.Size())
}

func TestDetectProvider(t *testing.T) {
	resetEnv := func(t *testing.T) {
		for _, k := range []string{EnvProvider, EnvHFToken, EnvLegacyToken, EnvOpenAIAPIKey, EnvGeminiAPIKey, EnvGoogleAPIKey} {
			t.Setenv(k, "")
		}
	}

	t.Run("explicit", func(t *testing.T) {
		resetEnv(t)
		t.Setenv(EnvProvider, "OpenAI")
		assert.Equal(t, ProviderOpenAI, DetectProvider())
	})

	t.Run("hugging face first", func(t *testing.T) {
		resetEnv(t)
		t.Setenv(EnvHFToken, "a")
		t.Setenv(EnvOpenAIAPIKey, "b")
		assert.Equal(t, ProviderHuggingFace, DetectProvider())
	})

	t.Run("gemini", func(t *testing.T) {
		resetEnv(t)
		t.Setenv(EnvGoogleAPIKey, "g")
		assert.Equal(t, ProviderGemini, DetectProvider())
	})

	t.Run("fallback echo", func(t *testing.T) {
		resetEnv(t)
		assert.Equal(t, ProviderEcho, DetectProvider())
		assert.True(t, EchoFallback(Config{}))
	})

	t.Run("explicit echo is not a fallback", func(t *testing.T) {
		resetEnv(t)
		assert.False(t, EchoFallback(Config{Provider: ProviderEcho}))
		t.Setenv(EnvProvider, "echo")
		assert.False(t, EchoFallback(Config{}))
	})

	t.Run("key present is not a fallback", func(t *testing.T) {
		resetEnv(t)
		t.Setenv(EnvOpenAIAPIKey, "k")
		assert.False(t, EchoFallback(Config{}))
	})
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	gen, err := New(ctx, Config{Provider: "echo"})
	require.NoError(t, err)
	assert.IsType(t, &EchoProvider{}, gen)

	gen, err = New(ctx, Config{Provider: "echo", CacheSize: 8})
	require.NoError(t, err)
	assert.IsType(t, &CachedGenerator{}, gen)

	_, err = New(ctx, Config{Provider: "llama"})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)

	gen, err = New(ctx, Config{Provider: "openai", APIKey: "k", BaseURL: "http://localhost:1"})
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, gen.Provider())
	assert.Equal(t, DefaultOpenAIModel, gen.Model())
}
