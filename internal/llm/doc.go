// Package llm provides the generative-model collaborator used to rewrite chunks.
//
// # Supported Providers
//
// Hugging Face (router.huggingface.co):
//   - Model: mistralai/Mixtral-8x7B-Instruct-v0.1 (default)
//   - OpenAI-compatible chat completions
//   - Requires HF_TOKEN (the legacy "token" variable is also read)
//
// OpenAI:
//   - Model: gpt-4o-mini (default)
//   - Requires OPENAI_API_KEY
//
// Gemini:
//   - Model: gemini-2.5-flash (default), via google.golang.org/genai
//   - Requires GEMINI_API_KEY or GOOGLE_API_KEY
//
// Echo:
//   - Offline; answers each prompt with one file block holding the chunk text
//
// # Basic Usage
//
//	gen, err := llm.NewFromEnv(ctx)
//	if err != nil {
//	    return err
//	}
//	defer gen.Close()
//
//	reply, err := gen.Generate(ctx, llm.Request{
//	    Prompt:      prompt,
//	    MaxTokens:   llm.DefaultMaxOutputTokens,
//	    Temperature: llm.DefaultTemperature,
//	})
//
// # Provider Selection
//
// NewFromEnv picks a provider in this order:
//  1. MONOSPLIT_PROVIDER environment variable
//  2. HF_TOKEN / token, then OPENAI_API_KEY, then GEMINI_API_KEY
//  3. echo when no key is present
//
// # Failures
//
// Calls are made exactly once; there is no retry. A transport error or a
// non-200 status yields *types.ModelInvocationError. A reply that arrives but
// cannot be decoded yields *types.ModelResponseError carrying the raw payload.
//
// # Caching
//
// CachedGenerator keeps successful replies in an LRU cache keyed by the
// SHA-256 of provider, model, parameters and prompt. Re-running a job on an
// unchanged file then costs no model calls.
package llm
