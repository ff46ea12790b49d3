package storage

import (
	"context"
	"crypto/sha256"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *SQLiteStorage {
	// Use in-memory database for testing
	storage, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NotNil(t, storage)
	return storage
}

func newTestJob(id string) *Job {
	return &Job{
		ID:         id,
		SourcePath: "/src/app.py",
		SourceHash: sha256.Sum256([]byte("print(1)")),
		Language:   "python",
		State:      "Pending",
		ChunkIndex: -1,
		Provider:   "echo",
		Model:      "echo",
	}
}

func TestNewSQLiteStorage(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	version, err := SchemaVersion(context.Background(), storage.db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)
}

func TestApplyMigrations_Idempotent(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	require.NoError(t, ApplyMigrations(ctx, storage.db))

	var count int
	require.NoError(t, storage.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_version").Scan(&count))
	assert.Equal(t, len(AllMigrations), count)
}

func TestCreateAndGetJob(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	job := newTestJob("job-1")
	require.NoError(t, storage.CreateJob(ctx, job))
	assert.False(t, job.CreatedAt.IsZero())

	got, err := storage.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, job.SourcePath, got.SourcePath)
	assert.Equal(t, job.SourceHash, got.SourceHash)
	assert.Equal(t, "Pending", got.State)
	assert.Equal(t, -1, got.ChunkIndex)
	assert.Equal(t, "echo", got.Provider)
	assert.Nil(t, got.Error)
	assert.True(t, got.CompletedAt.IsZero())

	// Duplicate ID
	err = storage.CreateJob(ctx, newTestJob("job-1"))
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestGetJob_NotFound(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	_, err := storage.GetJob(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateJob(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	job := newTestJob("job-2")
	require.NoError(t, storage.CreateJob(ctx, job))

	msg := "model call failed"
	job.State = "Aborted"
	job.ChunkIndex = 2
	job.TotalChunks = 3
	job.Error = &msg
	job.DurationMs = 1500
	job.CompletedAt = time.Now()
	require.NoError(t, storage.UpdateJob(ctx, job))

	got, err := storage.GetJob(ctx, "job-2")
	require.NoError(t, err)
	assert.Equal(t, "Aborted", got.State)
	assert.Equal(t, 2, got.ChunkIndex)
	assert.Equal(t, 3, got.TotalChunks)
	require.NotNil(t, got.Error)
	assert.Equal(t, msg, *got.Error)
	assert.Equal(t, int64(1500), got.DurationMs)
	assert.False(t, got.CompletedAt.IsZero())

	err = storage.UpdateJob(ctx, newTestJob("unknown"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListJobs(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	for i, state := range []string{"Completed", "Aborted", "Completed"} {
		job := newTestJob(string(rune('a' + i)))
		job.State = state
		require.NoError(t, storage.CreateJob(ctx, job))
	}

	all, err := storage.ListJobs(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID, "newest first")

	completed, err := storage.ListJobs(ctx, &JobFilter{State: "Completed"})
	require.NoError(t, err)
	assert.Len(t, completed, 2)

	limited, err := storage.ListJobs(ctx, &JobFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := storage.ListJobs(ctx, &JobFilter{SourcePath: "/other.py"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSaveAndListJobFiles(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	require.NoError(t, storage.CreateJob(ctx, newTestJob("job-3")))

	files := []*JobFile{
		{Path: "app.py", Content: "from flask import Flask"},
		{Path: "routes/__init__.py", Content: ""},
	}
	require.NoError(t, storage.SaveJobFiles(ctx, "job-3", files))
	assert.Greater(t, files[0].ID, int64(0))

	got, err := storage.ListJobFiles(ctx, "job-3")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "app.py", got[0].Path)
	assert.Equal(t, sha256.Sum256([]byte("from flask import Flask")), got[0].ContentHash)
	assert.Equal(t, int64(len("from flask import Flask")), got[0].SizeBytes)
	assert.Equal(t, "", got[1].Content)

	// Saving again replaces the previous set
	require.NoError(t, storage.SaveJobFiles(ctx, "job-3", []*JobFile{{Path: "main.py", Content: "x"}}))
	got, err = storage.ListJobFiles(ctx, "job-3")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "main.py", got[0].Path)
}

func TestSaveJobFiles_UnknownJob(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	err := storage.SaveJobFiles(context.Background(), "nope", []*JobFile{{Path: "a.py", Content: "x"}})
	assert.Error(t, err, "foreign key must reject files without a job")
}

func TestDeleteJob_CascadesFiles(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	require.NoError(t, storage.CreateJob(ctx, newTestJob("job-4")))
	require.NoError(t, storage.SaveJobFiles(ctx, "job-4", []*JobFile{{Path: "a.py", Content: "x"}}))

	require.NoError(t, storage.DeleteJob(ctx, "job-4"))
	files, err := storage.ListJobFiles(ctx, "job-4")
	require.NoError(t, err)
	assert.Empty(t, files)

	assert.ErrorIs(t, storage.DeleteJob(ctx, "job-4"), ErrNotFound)
}

func TestPruneJobs(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	for _, tc := range []struct{ id, state string }{
		{"p1", "Completed"},
		{"p2", "Aborted"},
		{"p3", "Aborted"},
	} {
		job := newTestJob(tc.id)
		job.State = tc.state
		require.NoError(t, storage.CreateJob(ctx, job))
		require.NoError(t, storage.SaveJobFiles(ctx, tc.id, []*JobFile{{Path: "a.py", Content: "x"}}))
	}

	// Nothing was created before an hour ago
	n, err := PruneJobs(ctx, storage, PruneFilter{Before: time.Now().Add(-time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = PruneJobs(ctx, storage, PruneFilter{State: "Aborted"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = storage.GetJob(ctx, "p2")
	assert.ErrorIs(t, err, ErrNotFound)
	files, err := storage.ListJobFiles(ctx, "p3")
	require.NoError(t, err)
	assert.Empty(t, files)

	n, err = PruneJobs(ctx, storage, PruneFilter{Before: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stats, err := storage.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalJobs)
}

func TestGetStats(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	stats, err := storage.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalJobs)
	assert.True(t, stats.LastJobAt.IsZero())

	done := newTestJob("s1")
	done.State = "Completed"
	require.NoError(t, storage.CreateJob(ctx, done))
	require.NoError(t, storage.SaveJobFiles(ctx, "s1", []*JobFile{{Path: "a.py"}, {Path: "b.py"}}))
	failed := newTestJob("s2")
	failed.State = "Aborted"
	require.NoError(t, storage.CreateJob(ctx, failed))

	stats, err = storage.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalJobs)
	assert.Equal(t, 1, stats.JobsByState["Completed"])
	assert.Equal(t, 1, stats.JobsByState["Aborted"])
	assert.Equal(t, 2, stats.TotalFiles)
	assert.False(t, stats.LastJobAt.IsZero())
}

func TestTransaction_Rollback(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	tx, err := storage.BeginTx(ctx)
	require.NoError(t, err)

	require.NoError(t, tx.CreateJob(ctx, newTestJob("tx-1")))
	require.NoError(t, tx.Rollback())

	_, err = storage.GetJob(ctx, "tx-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransaction_Commit(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	tx, err := storage.BeginTx(ctx)
	require.NoError(t, err)

	require.NoError(t, tx.CreateJob(ctx, newTestJob("tx-2")))
	require.NoError(t, tx.SaveJobFiles(ctx, "tx-2", []*JobFile{{Path: "a.py", Content: "x"}}))
	require.NoError(t, tx.Commit())

	files, err := storage.ListJobFiles(ctx, "tx-2")
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	storage, err := NewSQLiteStorage(path)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, storage.CreateJob(ctx, newTestJob("persisted")))
	require.NoError(t, storage.Close())

	reopened, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	defer reopened.Close()

	job, err := reopened.GetJob(ctx, "persisted")
	require.NoError(t, err)
	assert.Equal(t, "/src/app.py", job.SourcePath)

	stats, err := reopened.GetStats(ctx)
	require.NoError(t, err)
	assert.Greater(t, stats.DatabaseSizeMB, 0.0)
}
