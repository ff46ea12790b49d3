package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/monosplit/internal/config"
	"github.com/dshills/monosplit/internal/llm"
	"github.com/dshills/monosplit/internal/logging"
	"github.com/dshills/monosplit/internal/materialize"
	"github.com/dshills/monosplit/internal/orchestrator"
	"github.com/dshills/monosplit/internal/storage"
	"github.com/dshills/monosplit/internal/ui"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:   "monosplit",
		Short: "Split a monolithic Flask or Express file into a modular project",
		Long: `monosplit partitions a single Python or JavaScript source file into
ordered categories, packs them into token-bounded chunks, and asks a
language model to rewrite each chunk as a set of files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.Init(v, cfgFile)
		},
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.config/monosplit/monosplit.yaml)")
	root.PersistentFlags().String("log-level", "", "log level: DEBUG, INFO, WARN, ERROR")
	root.PersistentFlags().String("provider", "", "model provider: huggingface, openai, gemini, echo")
	_ = v.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("model.provider", root.PersistentFlags().Lookup("provider"))

	root.AddCommand(
		newRefactorCmd(v),
		newServeCmd(v),
		newHistoryCmd(v),
		newVersionCmd(),
	)

	return root
}

// reportedError wraps an error the command has already printed
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

// fail prints err through the printer and marks it reported
func fail(p *ui.Printer, err error) error {
	p.Error(err)
	return reportedError{err}
}

// execute runs the command tree and prints any error not yet shown
func execute(root *cobra.Command) error {
	err := root.Execute()
	if err == nil {
		return nil
	}
	var shown reportedError
	if !errors.As(err, &shown) {
		ui.NewPrinter(root.ErrOrStderr()).Error(err)
	}
	return err
}

// app holds the collaborators shared by every command
type app struct {
	cfg    *config.Config
	logger *logging.Logger
	gen    llm.Generator
	store  storage.Storage // nil when history is disabled
	orch   *orchestrator.Orchestrator

	// echoFallback is set when echo was chosen because nothing else was configured
	echoFallback bool
}

// newApp builds the collaborators from configuration. Callers must Close it.
func newApp(ctx context.Context, v *viper.Viper) (*app, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}

	if cfg.Storage.Enabled {
		store, err := openStorage(cfg.Storage.Path)
		if err != nil {
			// History is auxiliary
			logger.Warn("job history disabled", slog.String("error", err.Error()))
		} else {
			a.store = store
		}
	}

	llmCfg := cfg.LLMConfig()
	a.echoFallback = llm.EchoFallback(llmCfg)

	gen, err := llm.New(ctx, llmCfg)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to initialize model provider: %w", err)
	}
	a.gen = gen

	orchCfg, err := cfg.OrchestratorConfig()
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.orch = orchestrator.New(gen, a.store, orchCfg, logger.Logger)

	logger.Debug("initialized",
		slog.String("provider", gen.Provider()),
		slog.String("model", gen.Model()),
		slog.Bool("history", a.store != nil),
	)

	return a, nil
}

// sink returns the configured output sink
func (a *app) sink(outputDir string) (materialize.Sink, error) {
	if a.cfg.Output.S3.Enabled {
		return materialize.NewS3Sink(a.cfg.S3SinkConfig(), a.logger.Logger)
	}
	if outputDir == "" {
		outputDir = a.cfg.Output.Dir
	}
	return materialize.NewDirSink(outputDir, a.logger.Logger)
}

// Close releases every collaborator
func (a *app) Close() error {
	if a.gen != nil {
		_ = a.gen.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	return a.logger.Close()
}

func openStorage(path string) (storage.Storage, error) {
	expanded, err := materialize.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	return storage.NewSQLiteStorage(expanded)
}
