package storage

import (
	"context"
	"fmt"
	"time"
)

// pruneScanLimit bounds the jobs examined by a single PruneJobs call
const pruneScanLimit = 100000

// PruneFilter selects the jobs PruneJobs removes
type PruneFilter struct {
	Before time.Time // created strictly before; zero matches any age
	State  string    // exact match when set
}

// PruneJobs deletes every job matching filter, with its files, in one
// transaction and returns how many were removed
func PruneJobs(ctx context.Context, s Storage, filter PruneFilter) (int, error) {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin prune: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	jobs, err := tx.ListJobs(ctx, &JobFilter{State: filter.State, Limit: pruneScanLimit})
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, job := range jobs {
		if !filter.Before.IsZero() && !job.CreatedAt.Before(filter.Before) {
			continue
		}
		if err := tx.DeleteJob(ctx, job.ID); err != nil {
			return 0, fmt.Errorf("failed to prune job %s: %w", job.ID, err)
		}
		pruned++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit prune: %w", err)
	}
	return pruned, nil
}
