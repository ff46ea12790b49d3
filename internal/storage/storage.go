package storage

import (
	"context"
	"time"
)

// Storage defines the interface for persisting refactor job history
type Storage interface {
	// Job operations
	CreateJob(ctx context.Context, job *Job) error
	UpdateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, filter *JobFilter) ([]*Job, error)
	DeleteJob(ctx context.Context, id string) error

	// Job file operations
	SaveJobFiles(ctx context.Context, jobID string, files []*JobFile) error
	ListJobFiles(ctx context.Context, jobID string) ([]*JobFile, error)

	// Status operations
	GetStats(ctx context.Context) (*HistoryStats, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// Job is one refactor run over a single source file
type Job struct {
	ID                string // UUID
	SourcePath        string
	SourceHash        [32]byte
	Language          string
	State             string
	ChunkIndex        int // chunk being processed, -1 before the chunk loop
	TotalChunks       int
	Provider          string
	Model             string
	FilesProduced     int
	DuplicateWarnings int
	Error             *string // Nullable
	DurationMs        int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
	CompletedAt       time.Time // zero until the job reaches a terminal state
}

// JobFile is one produced file of a completed job
type JobFile struct {
	ID          int64
	JobID       string
	Path        string
	Content     string
	ContentHash [32]byte
	SizeBytes   int64
	CreatedAt   time.Time
}

// JobFilter narrows ListJobs results
type JobFilter struct {
	State      string // exact match when set
	SourcePath string // exact match when set
	Limit      int    // default 20
}

// HistoryStats summarizes the job history
type HistoryStats struct {
	TotalJobs      int
	JobsByState    map[string]int
	TotalFiles     int
	LastJobAt      time.Time
	DatabaseSizeMB float64
}
