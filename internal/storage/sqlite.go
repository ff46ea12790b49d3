package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

const defaultListLimit = 20

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// Job operations

const jobColumns = `
	id, source_path, source_hash, language, state, chunk_index, total_chunks,
	provider, model, files_produced, duplicate_warnings, error, duration_ms,
	created_at, updated_at, completed_at`

// createJobWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) createJobWithQuerier(ctx context.Context, q querier, job *Job) error {
	if job.ID == "" {
		return fmt.Errorf("job id is required")
	}

	query := `
		INSERT INTO jobs (` + jobColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	_, err := q.ExecContext(ctx, query,
		job.ID, job.SourcePath, job.SourceHash[:], job.Language, job.State,
		job.ChunkIndex, job.TotalChunks, job.Provider, job.Model,
		job.FilesProduced, job.DuplicateWarnings, job.Error, job.DurationMs,
		now, now, nullTime(job.CompletedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: job %s", ErrAlreadyExists, job.ID)
		}
		return fmt.Errorf("failed to create job: %w", err)
	}

	job.CreatedAt = now
	job.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateJob(ctx context.Context, job *Job) error {
	return s.createJobWithQuerier(ctx, s.querier(), job)
}

// updateJobWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) updateJobWithQuerier(ctx context.Context, q querier, job *Job) error {
	query := `
		UPDATE jobs
		SET state = ?, chunk_index = ?, total_chunks = ?, provider = ?, model = ?,
		    files_produced = ?, duplicate_warnings = ?, error = ?, duration_ms = ?,
		    updated_at = ?, completed_at = ?
		WHERE id = ?
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		job.State, job.ChunkIndex, job.TotalChunks, job.Provider, job.Model,
		job.FilesProduced, job.DuplicateWarnings, job.Error, job.DurationMs,
		now, nullTime(job.CompletedAt), job.ID)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	job.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpdateJob(ctx context.Context, job *Job) error {
	return s.updateJobWithQuerier(ctx, s.querier(), job)
}

// getJobWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getJobWithQuerier(ctx context.Context, q querier, id string) (*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = ?`

	job, err := scanJob(q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (s *SQLiteStorage) GetJob(ctx context.Context, id string) (*Job, error) {
	return s.getJobWithQuerier(ctx, s.querier(), id)
}

// listJobsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listJobsWithQuerier(ctx context.Context, q querier, filter *JobFilter) ([]*Job, error) {
	if filter == nil {
		filter = &JobFilter{}
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var (
		conditions []string
		args       []interface{}
	)
	if filter.State != "" {
		conditions = append(conditions, "state = ?")
		args = append(args, filter.State)
	}
	if filter.SourcePath != "" {
		conditions = append(conditions, "source_path = ?")
		args = append(args, filter.SourcePath)
	}

	query := `SELECT ` + jobColumns + ` FROM jobs`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	jobs := make([]*Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

func (s *SQLiteStorage) ListJobs(ctx context.Context, filter *JobFilter) ([]*Job, error) {
	return s.listJobsWithQuerier(ctx, s.querier(), filter)
}

// deleteJobWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) deleteJobWithQuerier(ctx context.Context, q querier, id string) error {
	result, err := q.ExecContext(ctx, "DELETE FROM jobs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) DeleteJob(ctx context.Context, id string) error {
	return s.deleteJobWithQuerier(ctx, s.querier(), id)
}

// Job file operations

// saveJobFilesWithQuerier replaces the stored files of a job
func (s *SQLiteStorage) saveJobFilesWithQuerier(ctx context.Context, q querier, jobID string, files []*JobFile) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM job_files WHERE job_id = ?", jobID); err != nil {
		return fmt.Errorf("failed to clear job files: %w", err)
	}

	query := `
		INSERT INTO job_files (job_id, path, content, content_hash, size_bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	for _, f := range files {
		f.JobID = jobID
		f.ContentHash = sha256.Sum256([]byte(f.Content))
		f.SizeBytes = int64(len(f.Content))

		result, err := q.ExecContext(ctx, query, jobID, f.Path, f.Content, f.ContentHash[:], f.SizeBytes, now)
		if err != nil {
			return fmt.Errorf("failed to save job file %s: %w", f.Path, err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		f.ID = id
		f.CreatedAt = now
	}

	return nil
}

// SaveJobFiles stores the files of a job in one transaction
func (s *SQLiteStorage) SaveJobFiles(ctx context.Context, jobID string, files []*JobFile) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := s.saveJobFilesWithQuerier(ctx, tx, jobID, files); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// listJobFilesWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) listJobFilesWithQuerier(ctx context.Context, q querier, jobID string) ([]*JobFile, error) {
	query := `
		SELECT id, job_id, path, content, content_hash, size_bytes, created_at
		FROM job_files
		WHERE job_id = ?
		ORDER BY id
	`
	rows, err := q.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list job files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	files := make([]*JobFile, 0)
	for rows.Next() {
		var (
			f    JobFile
			hash []byte
			size sql.NullInt64
		)
		if err := rows.Scan(&f.ID, &f.JobID, &f.Path, &f.Content, &hash, &size, &f.CreatedAt); err != nil {
			return nil, err
		}
		copy(f.ContentHash[:], hash)
		f.SizeBytes = size.Int64
		files = append(files, &f)
	}

	return files, rows.Err()
}

func (s *SQLiteStorage) ListJobFiles(ctx context.Context, jobID string) ([]*JobFile, error) {
	return s.listJobFilesWithQuerier(ctx, s.querier(), jobID)
}

// Status operations

// getStatsWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getStatsWithQuerier(ctx context.Context, q querier) (*HistoryStats, error) {
	stats := &HistoryStats{JobsByState: make(map[string]int)}

	rows, err := q.QueryContext(ctx, "SELECT state, COUNT(*) FROM jobs GROUP BY state")
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}
	for rows.Next() {
		var (
			state string
			count int
		)
		if err := rows.Scan(&state, &count); err != nil {
			_ = rows.Close()
			return nil, err
		}
		stats.JobsByState[state] = count
		stats.TotalJobs += count
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM job_files").Scan(&stats.TotalFiles); err != nil {
		return nil, fmt.Errorf("failed to count job files: %w", err)
	}

	var last sql.NullTime
	err = q.QueryRowContext(ctx, "SELECT created_at FROM jobs ORDER BY created_at DESC LIMIT 1").Scan(&last)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to read last job: %w", err)
	}
	if last.Valid {
		stats.LastJobAt = last.Time
	}

	if s.dbPath != "" && s.dbPath != ":memory:" {
		if info, err := os.Stat(s.dbPath); err == nil {
			stats.DatabaseSizeMB = float64(info.Size()) / (1024 * 1024)
		}
	}

	return stats, nil
}

func (s *SQLiteStorage) GetStats(ctx context.Context) (*HistoryStats, error) {
	return s.getStatsWithQuerier(ctx, s.querier())
}

// Transaction operations

func (t *sqliteTx) CreateJob(ctx context.Context, job *Job) error {
	return t.storage.createJobWithQuerier(ctx, t.querier(), job)
}

func (t *sqliteTx) UpdateJob(ctx context.Context, job *Job) error {
	return t.storage.updateJobWithQuerier(ctx, t.querier(), job)
}

func (t *sqliteTx) GetJob(ctx context.Context, id string) (*Job, error) {
	return t.storage.getJobWithQuerier(ctx, t.querier(), id)
}

func (t *sqliteTx) ListJobs(ctx context.Context, filter *JobFilter) ([]*Job, error) {
	return t.storage.listJobsWithQuerier(ctx, t.querier(), filter)
}

func (t *sqliteTx) DeleteJob(ctx context.Context, id string) error {
	return t.storage.deleteJobWithQuerier(ctx, t.querier(), id)
}

func (t *sqliteTx) SaveJobFiles(ctx context.Context, jobID string, files []*JobFile) error {
	return t.storage.saveJobFilesWithQuerier(ctx, t.querier(), jobID, files)
}

func (t *sqliteTx) ListJobFiles(ctx context.Context, jobID string) ([]*JobFile, error) {
	return t.storage.listJobFilesWithQuerier(ctx, t.querier(), jobID)
}

func (t *sqliteTx) GetStats(ctx context.Context) (*HistoryStats, error) {
	return t.storage.getStatsWithQuerier(ctx, t.querier())
}

func (t *sqliteTx) Close() error {
	return errors.New("cannot close transaction, use Commit or Rollback")
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	return nil, errors.New("nested transactions not supported")
}

// Helpers

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		job         Job
		hash        []byte
		provider    sql.NullString
		model       sql.NullString
		errMsg      sql.NullString
		completedAt sql.NullTime
	)
	err := row.Scan(
		&job.ID, &job.SourcePath, &hash, &job.Language, &job.State,
		&job.ChunkIndex, &job.TotalChunks, &provider, &model,
		&job.FilesProduced, &job.DuplicateWarnings, &errMsg, &job.DurationMs,
		&job.CreatedAt, &job.UpdatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	copy(job.SourceHash[:], hash)
	job.Provider = provider.String
	job.Model = model.String
	if errMsg.Valid {
		msg := errMsg.String
		job.Error = &msg
	}
	if completedAt.Valid {
		job.CompletedAt = completedAt.Time
	}
	return &job, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}
