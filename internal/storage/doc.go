// Package storage provides SQLite-based persistence for refactor job history.
//
// The storage layer manages:
//   - Jobs: one row per refactor run, updated on every state transition
//   - Job files: the produced files of completed jobs
//
// # Database Schema
//
// Tables:
//   - jobs: id (UUID), source path and hash, language, state, chunk progress,
//     provider, model, counts, error message, timing
//   - job_files: path, content and SHA-256 hash per produced file
//   - schema_version: applied migrations
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("/home/me/.monosplit/history.db")
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	job := &storage.Job{ID: id, SourcePath: "app.py", Language: "python", State: "Pending"}
//	if err := db.CreateJob(ctx, job); err != nil {
//	    return err
//	}
//
//	jobs, err := db.ListJobs(ctx, &storage.JobFilter{Limit: 10})
//
// # Transactions
//
// SaveJobFiles replaces a job's files atomically. For wider units of work:
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	_ = tx.UpdateJob(ctx, job)
//	_ = tx.SaveJobFiles(ctx, job.ID, files)
//	return tx.Commit()
//
// PruneJobs deletes old jobs this way.
//
// # Migrations
//
// Schema versions are semantic versions (github.com/Masterminds/semver/v3).
// ApplyMigrations runs every migration newer than the recorded version, in
// order. Migrations are forward-only.
//
// # Build Modes
//
// The default build uses the pure Go driver modernc.org/sqlite. Building with
// the sqlite_cgo tag switches to github.com/mattn/go-sqlite3:
//
//	CGO_ENABLED=1 go build -tags sqlite_cgo ./...
//
// # Concurrency
//
// The pool is limited to one open connection and WAL journaling is enabled.
// All methods are safe for concurrent use; writes are serialized.
package storage
