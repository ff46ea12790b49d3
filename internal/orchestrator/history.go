package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/dshills/monosplit/internal/storage"
)

var timeNow = time.Now

// History is auxiliary: recording failures are logged and never abort a job.

func (o *Orchestrator) createRecord(ctx context.Context, job *Job) {
	if o.storage == nil {
		return
	}
	if err := o.storage.CreateJob(ctx, toRecord(job)); err != nil {
		o.logger.Warn("failed to record job", slog.String("job_id", job.ID), slog.String("error", err.Error()))
	}
}

func (o *Orchestrator) updateRecord(ctx context.Context, job *Job) {
	if o.storage == nil {
		return
	}
	if err := o.storage.UpdateJob(ctx, toRecord(job)); err != nil {
		o.logger.Warn("failed to update job record", slog.String("job_id", job.ID), slog.String("error", err.Error()))
	}
}

// saveFiles stores the produced files of a completed job
func (o *Orchestrator) saveFiles(ctx context.Context, job *Job) {
	if o.storage == nil || job.Result == nil {
		return
	}

	records := job.Result.Files()
	files := make([]*storage.JobFile, 0, len(records))
	for _, rec := range records {
		files = append(files, &storage.JobFile{Path: rec.Path, Content: rec.Content})
	}

	if err := o.storage.SaveJobFiles(ctx, job.ID, files); err != nil {
		o.logger.Warn("failed to save job files", slog.String("job_id", job.ID), slog.String("error", err.Error()))
	}
}

// toRecord maps a job to its history row
func toRecord(job *Job) *storage.Job {
	rec := &storage.Job{
		ID:                job.ID,
		SourcePath:        job.SourcePath,
		SourceHash:        job.SourceHash,
		Language:          string(job.Language),
		State:             string(job.State),
		ChunkIndex:        job.ChunkIndex,
		TotalChunks:       job.TotalChunks,
		Provider:          job.Provider,
		Model:             job.Model,
		FilesProduced:     job.Stats.FilesProduced,
		DuplicateWarnings: job.Stats.DuplicateWarnings,
		DurationMs:        job.Stats.Duration.Milliseconds(),
	}
	if rec.Language == "" {
		rec.Language = "unknown"
	}
	if job.Err != nil {
		msg := job.Err.Error()
		rec.Error = &msg
	}
	if job.State.Terminal() {
		rec.CompletedAt = job.FinishedAt
	}
	return rec
}
