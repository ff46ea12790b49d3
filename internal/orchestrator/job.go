package orchestrator

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/monosplit/pkg/types"
)

// Job is one refactor run over a single source file
type Job struct {
	ID          string
	SourcePath  string
	SourceHash  [32]byte
	Language    types.Language
	BackupPath  string // empty when backups are disabled
	Provider    string
	Model       string
	State       State
	ChunkIndex  int // chunk being processed, -1 outside the chunk loop
	TotalChunks int

	// Result is set only when the job completes. An aborted job has no result.
	Result *types.Result
	Err    error

	Stats      Statistics
	StartedAt  time.Time
	FinishedAt time.Time
}

// Statistics contains statistics about one job
type Statistics struct {
	NodesVisited      int
	DuplicateNodes    int
	DroppedNodes      int
	Lines             int
	Chunks            int
	OversizedChunks   int
	Tokenizer         string // tokenizer that sized the chunks
	ModelCalls        int
	FilesProduced     int
	DuplicateWarnings int
	BytesIn           int64 // source bytes
	BytesOut          int64 // reply bytes
	Duration          time.Duration
}

// newJob creates a job in the Pending state with a fresh UUID
func newJob(path string) *Job {
	return &Job{
		ID:         uuid.NewString(),
		SourcePath: path,
		State:      StatePending,
		ChunkIndex: -1,
		StartedAt:  timeNow(),
	}
}

// transition moves the job forward, rejecting anything the state machine forbids
func (j *Job) transition(to State, chunkIndex int) error {
	if !j.State.CanTransition(to) {
		return &TransitionError{From: j.State, To: to}
	}
	if to == StateProcessingChunk && j.State == StateProcessingChunk && chunkIndex != j.ChunkIndex+1 {
		return &TransitionError{From: j.State, To: to}
	}
	j.State = to
	j.ChunkIndex = chunkIndex
	if to.Terminal() {
		j.FinishedAt = timeNow()
		j.Stats.Duration = j.FinishedAt.Sub(j.StartedAt)
	}
	return nil
}

// JobError reports the state in which a job aborted and the underlying cause
type JobError struct {
	JobID      string
	State      State // state the job was in when it failed
	ChunkIndex int   // -1 when the failure happened outside the chunk loop
	Err        error
}

func (e *JobError) Error() string {
	if e.ChunkIndex >= 0 {
		return fmt.Sprintf("job %s aborted in %s (chunk %d): %v", e.JobID, e.State, e.ChunkIndex+1, e.Err)
	}
	return fmt.Sprintf("job %s aborted in %s: %v", e.JobID, e.State, e.Err)
}

func (e *JobError) Unwrap() error { return e.Err }

// Observer receives every state change of a job
type Observer interface {
	OnStateChange(state State, chunkIndex, total int)
}

// ObserverFunc adapts a function to the Observer interface
type ObserverFunc func(state State, chunkIndex, total int)

// OnStateChange implements Observer
func (f ObserverFunc) OnStateChange(state State, chunkIndex, total int) {
	f(state, chunkIndex, total)
}
