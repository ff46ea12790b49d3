package main

import (
	"errors"
	"fmt"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/monosplit/internal/storage"
	"github.com/dshills/monosplit/internal/ui"
)

var errHistoryDisabled = errors.New("job history is disabled (storage.enabled=false)")

func newHistoryCmd(v *viper.Viper) *cobra.Command {
	var (
		limit int
		state string
	)

	cmd := &cobra.Command{
		Use:   "history [job-id]",
		Short: "List recent jobs or show one job",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if a.store == nil {
				return errHistoryDisabled
			}

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				job, err := a.store.GetJob(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("job %s: %w", args[0], err)
				}
				files, err := a.store.ListJobFiles(cmd.Context(), job.ID)
				if err != nil {
					return err
				}

				fmt.Fprintln(out, ui.Title.Render("Job "+job.ID))
				printJob(cmd, job)
				for _, f := range files {
					fmt.Fprintf(out, "  %s (%d bytes)\n", ui.Path.Render(f.Path), f.SizeBytes)
				}
				return nil
			}

			jobs, err := a.store.ListJobs(cmd.Context(), &storage.JobFilter{State: state, Limit: limit})
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("No jobs recorded"))
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTATE\tFILE\tCHUNKS\tFILES\tCREATED")
			for _, job := range jobs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
					job.ID, job.State, job.SourcePath, job.TotalChunks, job.FilesProduced,
					job.CreatedAt.Local().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of jobs to list")
	cmd.Flags().StringVar(&state, "state", "", "only list jobs in this state")

	cmd.AddCommand(newHistoryPruneCmd(v))

	return cmd
}

var errPruneUnbounded = errors.New("refusing to prune every job: pass --older-than, --state or --all")

func newHistoryPruneCmd(v *viper.Viper) *cobra.Command {
	var (
		olderThan time.Duration
		state     string
		all       bool
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete recorded jobs and their files",
		Example: `  monosplit history prune --older-than 720h
  monosplit history prune --state Aborted`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 && state == "" && !all {
				return errPruneUnbounded
			}

			a, err := newApp(cmd.Context(), v)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if a.store == nil {
				return errHistoryDisabled
			}

			filter := storage.PruneFilter{State: state}
			if olderThan > 0 {
				filter.Before = time.Now().Add(-olderThan)
			}
			n, err := storage.PruneJobs(cmd.Context(), a.store, filter)
			if err != nil {
				return err
			}

			a.logger.Info("history pruned", slog.Int("jobs", n), slog.String("state", state))
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d jobs\n", n)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "only prune jobs created longer ago than this")
	cmd.Flags().StringVar(&state, "state", "", "only prune jobs in this state")
	cmd.Flags().BoolVar(&all, "all", false, "prune every job")

	return cmd
}

func printJob(cmd *cobra.Command, job *storage.Job) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  source:    %s (%s)\n", job.SourcePath, job.Language)
	fmt.Fprintf(out, "  state:     %s\n", job.State)
	fmt.Fprintf(out, "  model:     %s/%s\n", job.Provider, job.Model)
	fmt.Fprintf(out, "  chunks:    %d\n", job.TotalChunks)
	fmt.Fprintf(out, "  files:     %d (%d duplicate warnings)\n", job.FilesProduced, job.DuplicateWarnings)
	fmt.Fprintf(out, "  duration:  %s\n", time.Duration(job.DurationMs)*time.Millisecond)
	if job.Error != nil {
		fmt.Fprintln(out, ui.Error.Render("  error:     "+*job.Error))
	}
}
