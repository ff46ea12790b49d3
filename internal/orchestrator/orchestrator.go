package orchestrator

import (
	"context"
	"crypto/sha256"
	"errors"
	"log/slog"

	"github.com/dshills/monosplit/internal/analyzer"
	"github.com/dshills/monosplit/internal/chunker"
	"github.com/dshills/monosplit/internal/llm"
	"github.com/dshills/monosplit/internal/materialize"
	"github.com/dshills/monosplit/internal/reply"
	"github.com/dshills/monosplit/internal/storage"
	"github.com/dshills/monosplit/pkg/types"
)

// Orchestrator coordinates the refactor pipeline: analyze -> pack -> generate -> parse
type Orchestrator struct {
	analyzer  *analyzer.Analyzer
	chunker   *chunker.Chunker
	parser    *reply.Parser
	generator llm.Generator
	storage   storage.Storage // optional job history
	config    Config
	logger    *slog.Logger
}

// Config contains configuration for the orchestrator
type Config struct {
	MaxTokens       int     // chunk ceiling before headroom (default: 32000)
	Headroom        int     // tokens reserved for the prompt (default: 500)
	SectionHeaders  bool    // emit "# --- Imports ---" lines (default: true)
	MaxOutputTokens int     // model output limit (default: 2048)
	Temperature     float64 // sampling temperature (default: 0.7)
	Model           string  // overrides the generator's default model
	UnwrapFences    bool    // strip a single fenced block around file content
	Backup          bool    // copy the input to <file>.backup before any model call
	Tokenizer       chunker.Tokenizer
}

// DefaultConfig returns the default orchestrator configuration
func DefaultConfig() *Config {
	return &Config{
		MaxTokens:       chunker.DefaultMaxTokens,
		Headroom:        chunker.DefaultHeadroom,
		SectionHeaders:  true,
		MaxOutputTokens: llm.DefaultMaxOutputTokens,
		Temperature:     llm.DefaultTemperature,
		Backup:          true,
	}
}

// RunOptions adjusts a single run
type RunOptions struct {
	MaxTokens int      // overrides Config.MaxTokens when positive
	Observer  Observer // receives every state change
}

// New creates a new Orchestrator instance. store may be nil to disable history.
func New(gen llm.Generator, store storage.Storage, config *Config, logger *slog.Logger) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Orchestrator{
		analyzer:  analyzer.New(logger),
		chunker:   chunker.New(config.Tokenizer),
		parser:    reply.New(reply.Options{UnwrapFences: config.UnwrapFences}, logger),
		generator: gen,
		storage:   store,
		config:    *config,
		logger:    logger,
	}
}

// Run refactors one source file. On success the returned job carries the
// merged result. On failure the job is Aborted, carries no result, and the
// returned error is a *JobError wrapping the cause.
func (o *Orchestrator) Run(ctx context.Context, path string, opts *RunOptions) (*Job, error) {
	if opts == nil {
		opts = &RunOptions{}
	}

	job := newJob(path)
	job.Provider = o.generator.Provider()
	job.Model = o.model()

	logger := o.logger.With(slog.String("job_id", job.ID), slog.String("file", path))
	o.createRecord(ctx, job)
	o.notify(opts.Observer, job)

	packOpts := chunker.Options{MaxTokens: o.config.MaxTokens, Headroom: o.config.Headroom}
	if opts.MaxTokens > 0 {
		packOpts.MaxTokens = opts.MaxTokens
	}

	// Validation happens before any parsing or network cost
	src, err := analyzer.LoadSource(path)
	if err != nil {
		return o.abort(ctx, job, opts.Observer, err)
	}
	if err := packOpts.Validate(); err != nil {
		return o.abort(ctx, job, opts.Observer, err)
	}

	job.Language = src.Language
	job.SourceHash = sha256.Sum256(src.Content)
	job.Stats.BytesIn = int64(len(src.Content))

	if o.config.Backup {
		backupPath, err := materialize.Backup(path)
		if err != nil {
			return o.abort(ctx, job, opts.Observer, err)
		}
		job.BackupPath = backupPath
		logger.Info("backup created", slog.String("backup", backupPath))
	}

	// Analyze
	if err := o.advance(ctx, job, opts.Observer, StateAnalyzingSource, -1); err != nil {
		return o.abort(ctx, job, opts.Observer, err)
	}
	analysis, err := o.analyzer.Analyze(ctx, src)
	if err != nil {
		return o.abort(ctx, job, opts.Observer, err)
	}
	job.Stats.NodesVisited = analysis.Nodes
	job.Stats.DuplicateNodes = analysis.Duplicates
	job.Stats.DroppedNodes = analysis.Dropped

	// Pack
	if err := o.advance(ctx, job, opts.Observer, StatePacking, -1); err != nil {
		return o.abort(ctx, job, opts.Observer, err)
	}
	lines := chunker.Serialize(analysis.Buckets, src.Language, chunker.SerializeOptions{SectionHeaders: o.config.SectionHeaders})
	chunks, err := o.chunker.Pack(lines, packOpts)
	if err != nil {
		return o.abort(ctx, job, opts.Observer, err)
	}
	job.TotalChunks = len(chunks)
	job.Stats.Lines = len(lines)
	job.Stats.Chunks = len(chunks)
	job.Stats.Tokenizer = o.chunker.Tokenizer().Name()
	logger.Debug("source packed",
		slog.Int("lines", len(lines)),
		slog.Int("chunks", len(chunks)),
		slog.String("tokenizer", job.Stats.Tokenizer),
	)

	if len(chunks) == 0 {
		logger.Warn("nothing to refactor: no construct was classified")
	}

	// Generate, parse and merge, strictly one chunk after another
	result := types.NewResult()
	budget := packOpts.Budget()
	for _, chunk := range chunks {
		if err := o.advance(ctx, job, opts.Observer, StateProcessingChunk, chunk.Index); err != nil {
			return o.abort(ctx, job, opts.Observer, err)
		}

		if chunk.Oversized(budget) {
			job.Stats.OversizedChunks++
			logger.Warn("chunk exceeds token budget",
				slog.Int("chunk", chunk.Index),
				slog.Int("tokens", chunk.TokenCount),
				slog.Int("budget", budget),
			)
		}

		text, err := o.generate(ctx, job, BuildPrompt(src.Language, chunk.Text()))
		if err != nil {
			return o.abort(ctx, job, opts.Observer, err)
		}
		job.Stats.BytesOut += int64(len(text))

		records, err := o.parser.Parse(chunk.Index, text)
		if err != nil {
			return o.abort(ctx, job, opts.Observer, err)
		}
		warnings := o.parser.Merge(result, chunk.Index, records)
		job.Stats.DuplicateWarnings += len(warnings)

		logger.Debug("chunk processed",
			slog.Int("chunk", chunk.Index),
			slog.Int("tokens", chunk.TokenCount),
			slog.Int("files", len(records)),
		)
	}

	job.Result = result
	job.Stats.FilesProduced = result.Len()
	if err := o.advance(ctx, job, opts.Observer, StateCompleted, -1); err != nil {
		job.Result = nil
		return o.abort(ctx, job, opts.Observer, err)
	}
	o.saveFiles(ctx, job)

	logger.Info("job completed",
		slog.Int("chunks", job.Stats.Chunks),
		slog.Int("files", job.Stats.FilesProduced),
		slog.Int("duplicate_warnings", job.Stats.DuplicateWarnings),
		slog.Duration("duration", job.Stats.Duration),
	)

	return job, nil
}

// generate performs exactly one model call. Untyped failures are reported as
// invocation errors so callers can rely on the error taxonomy.
func (o *Orchestrator) generate(ctx context.Context, job *Job, prompt string) (string, error) {
	job.Stats.ModelCalls++

	text, err := o.generator.Generate(ctx, llm.Request{
		Prompt:      prompt,
		Model:       o.config.Model,
		MaxTokens:   o.config.MaxOutputTokens,
		Temperature: o.config.Temperature,
	})
	if err == nil {
		return text, nil
	}

	var invErr *types.ModelInvocationError
	var respErr *types.ModelResponseError
	if errors.As(err, &invErr) || errors.As(err, &respErr) {
		return "", err
	}
	return "", &types.ModelInvocationError{Provider: job.Provider, Model: job.Model, Err: err}
}

// advance applies a transition, records it and notifies the observer
func (o *Orchestrator) advance(ctx context.Context, job *Job, obs Observer, to State, chunkIndex int) error {
	if err := job.transition(to, chunkIndex); err != nil {
		return err
	}
	o.updateRecord(ctx, job)
	o.notify(obs, job)
	return nil
}

// abort moves the job to Aborted, discards any partial result and wraps the cause
func (o *Orchestrator) abort(ctx context.Context, job *Job, obs Observer, cause error) (*Job, error) {
	jobErr := &JobError{
		JobID:      job.ID,
		State:      job.State,
		ChunkIndex: job.ChunkIndex,
		Err:        cause,
	}

	// Aborted keeps the chunk index so history shows where the job stopped
	job.Result = nil
	job.Err = jobErr
	job.State = StateAborted
	job.FinishedAt = timeNow()
	job.Stats.Duration = job.FinishedAt.Sub(job.StartedAt)

	o.updateRecord(ctx, job)
	o.notify(obs, job)

	o.logger.Error("job aborted",
		slog.String("job_id", job.ID),
		slog.String("state", string(jobErr.State)),
		slog.Int("chunk", job.ChunkIndex),
		slog.String("error", cause.Error()),
	)

	return job, jobErr
}

func (o *Orchestrator) notify(obs Observer, job *Job) {
	if obs != nil {
		obs.OnStateChange(job.State, job.ChunkIndex, job.TotalChunks)
	}
}

func (o *Orchestrator) model() string {
	if o.config.Model != "" {
		return o.config.Model
	}
	return o.generator.Model()
}
