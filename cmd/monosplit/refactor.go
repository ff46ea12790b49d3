package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/monosplit/internal/orchestrator"
	"github.com/dshills/monosplit/internal/ui"
)

var errEchoFallback = errors.New("no provider configured and no API key found; pass --provider echo to write echo output")

func newRefactorCmd(v *viper.Viper) *cobra.Command {
	var (
		dryRun    bool
		maxTokens int
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "refactor <file>",
		Short: "Refactor one .py or .js file",
		Example: `  monosplit refactor app.py
  monosplit refactor server.js --dry-run
  monosplit refactor app.py --provider echo --output ./out`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			printer := ui.NewPrinter(cmd.OutOrStdout())

			a, err := newApp(ctx, v)
			if err != nil {
				return fail(printer, err)
			}
			defer func() { _ = a.Close() }()

			if a.echoFallback {
				if !dryRun {
					return fail(printer, errEchoFallback)
				}
				printer.Warn("no provider configured and no API key found, using the echo provider")
			}

			model := a.cfg.Model.Name
			if model == "" {
				model = a.gen.Model()
			}
			printer.SetModel(model)

			job, err := a.orch.Run(ctx, args[0], &orchestrator.RunOptions{
				MaxTokens: maxTokens,
				Observer:  printer,
			})
			if err != nil {
				return fail(printer, err)
			}

			if job.BackupPath != "" {
				printer.Info("Backup: " + job.BackupPath)
			}
			if dryRun {
				printer.Preview(job.Result)
				printer.Paths(job.Result)
				printer.Info("Dry run: nothing written")
				printer.Stats(job)
				return nil
			}

			printer.Paths(job.Result)

			sink, err := a.sink(outputDir)
			if err != nil {
				return fail(printer, err)
			}
			summary, err := sink.Write(ctx, job.ID, job.Result)
			if err != nil {
				return fail(printer, err)
			}

			printer.Summary(summary)
			printer.Stats(job)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the produced files without writing them")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "chunk token ceiling (default from packer.max_tokens)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default from output.dir)")

	return cmd
}
