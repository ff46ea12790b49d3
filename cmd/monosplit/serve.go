package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/monosplit/internal/mcp"
	"github.com/dshills/monosplit/internal/storage"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			// stdout is reserved for the MCP protocol; logs go to stderr or the log file
			a, err := newApp(ctx, v)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			a.logger.Info("monosplit MCP server starting",
				slog.String("version", version),
				slog.String("build_mode", storage.BuildMode),
				slog.String("driver", storage.DriverName),
			)

			sink, err := a.sink("")
			if err != nil {
				return err
			}

			server, err := mcp.NewServer(mcp.Options{
				Orchestrator: a.orch,
				Storage:      a.store,
				Sink:         sink,
				Logger:       a.logger.Logger,
			})
			if err != nil {
				return err
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			errChan := make(chan error, 1)
			go func() {
				errChan <- server.Serve(ctx)
			}()

			select {
			case sig := <-sigChan:
				a.logger.Info("shutting down", slog.String("signal", sig.String()))
				cancel()
				return nil
			case err := <-errChan:
				return err
			}
		},
	}
}
