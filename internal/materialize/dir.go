package materialize

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/monosplit/pkg/types"
)

// DefaultWorkers bounds concurrent file writes
const DefaultWorkers = 4

// DirSink writes result files under a root directory
type DirSink struct {
	root    string
	workers int
	logger  *slog.Logger
}

// NewDirSink creates a directory sink. A leading ~ in root expands to the home directory.
func NewDirSink(root string, logger *slog.Logger) (*DirSink, error) {
	expanded, err := ExpandHome(root)
	if err != nil {
		return nil, err
	}
	if expanded == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DirSink{root: expanded, workers: DefaultWorkers, logger: logger}, nil
}

// Location implements Sink
func (d *DirSink) Location() string {
	return d.root
}

// Write implements Sink. Files are independent, so they are written concurrently.
func (d *DirSink) Write(ctx context.Context, jobID string, result *types.Result) (*Summary, error) {
	files := result.Files()

	// Resolve every target before touching the filesystem
	targets := make([]string, len(files))
	for i, f := range files {
		target, err := d.resolve(f.Path)
		if err != nil {
			return nil, err
		}
		targets[i] = target
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	for i, f := range files {
		target := targets[i]
		content := f.Content
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("failed to create directory for %s: %w", target, err)
			}
			if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", target, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.logger.Info("result written",
		slog.String("job_id", jobID),
		slog.String("dir", d.root),
		slog.Int("files", len(files)),
	)

	return summarize(d.root, result), nil
}

// resolve joins a relative result path under root, rejecting escapes
func (d *DirSink) resolve(rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) {
		return "", fmt.Errorf("invalid output path %q", rel)
	}
	target := filepath.Join(d.root, filepath.FromSlash(rel))
	within, err := filepath.Rel(d.root, target)
	if err != nil || within == ".." || strings.HasPrefix(within, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("output path %q escapes %s", rel, d.root)
	}
	return target, nil
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
