package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/monosplit/internal/orchestrator"
	"github.com/dshills/monosplit/internal/storage"
	"github.com/dshills/monosplit/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams   = -32602 // Invalid method parameters
	ErrorCodeInternalError   = -32603 // Internal JSON-RPC error
	ErrorCodeParseFailed     = -32001 // Source file does not parse
	ErrorCodeJobInProgress   = -32002 // Another refactor job is already running
	ErrorCodeJobNotFound     = -32003 // Unknown job ID
	ErrorCodeModelFailed     = -32004 // Model call failed or returned an unreadable payload
	ErrorCodeMalformedReply  = -32005 // Model reply violates the file header format
	ErrorCodeHistoryDisabled = -32006 // No job history store configured
)

// handleRefactorFile handles the refactor_file tool invocation
func (s *Server) handleRefactorFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract and validate parameters
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	if err := validatePath(path); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	dryRun := getBoolDefault(args, "dry_run", false)
	maxTokens := getIntDefault(args, "max_tokens", 0)
	if maxTokens < 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "max_tokens must be positive", map[string]interface{}{
			"param": "max_tokens",
			"value": maxTokens,
		})
	}

	// Acquire lock to prevent concurrent jobs
	if !s.lock.TryAcquire() {
		return nil, newMCPError(ErrorCodeJobInProgress, "a refactor job is already in progress", map[string]interface{}{
			"path": path,
		})
	}
	defer s.lock.Release()

	job, err := s.orch.Run(ctx, path, &orchestrator.RunOptions{MaxTokens: maxTokens})
	if err != nil {
		return nil, jobError(job, err)
	}

	response := map[string]interface{}{
		"job_id":             job.ID,
		"state":              string(job.State),
		"language":           string(job.Language),
		"chunks":             job.Stats.Chunks,
		"model_calls":        job.Stats.ModelCalls,
		"duplicate_warnings": len(job.Result.Warnings),
		"duration_ms":        job.Stats.Duration.Milliseconds(),
		"dry_run":            dryRun || s.sink == nil,
	}
	if job.BackupPath != "" {
		response["backup"] = job.BackupPath
	}

	files := make([]map[string]interface{}, 0, job.Result.Len())
	for _, f := range job.Result.Files() {
		entry := map[string]interface{}{"path": f.Path, "bytes": len(f.Content)}
		if dryRun || s.sink == nil {
			entry["content"] = f.Content
		}
		files = append(files, entry)
	}
	response["files"] = files

	if !dryRun && s.sink != nil {
		summary, err := s.sink.Write(ctx, job.ID, job.Result)
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to write files", map[string]interface{}{
				"job_id": job.ID,
				"error":  err.Error(),
			})
		}
		response["output"] = summary.Location
		response["entrypoints"] = summary.Entrypoints
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetJob handles the get_job tool invocation
func (s *Server) handleGetJob(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	jobID, ok := args["job_id"].(string)
	if !ok || jobID == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "job_id parameter is required", map[string]interface{}{
			"param":  "job_id",
			"reason": "missing or empty",
		})
	}

	if s.storage == nil {
		return nil, newMCPError(ErrorCodeHistoryDisabled, "job history is disabled", nil)
	}

	job, err := s.storage.GetJob(ctx, jobID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeJobNotFound, "job not found", map[string]interface{}{
			"job_id": jobID,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get job", map[string]interface{}{
			"error": err.Error(),
		})
	}

	files, err := s.storage.ListJobFiles(ctx, jobID)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list job files", map[string]interface{}{
			"error": err.Error(),
		})
	}

	fileList := make([]map[string]interface{}, 0, len(files))
	for _, f := range files {
		fileList = append(fileList, map[string]interface{}{
			"path":  f.Path,
			"bytes": f.SizeBytes,
		})
	}

	response := jobSummary(job)
	response["files"] = fileList

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListJobs handles the list_jobs tool invocation
func (s *Server) handleListJobs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}

	limit := getIntDefault(args, "limit", 20)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}
	state := getStringDefault(args, "state", "")

	if s.storage == nil {
		return nil, newMCPError(ErrorCodeHistoryDisabled, "job history is disabled", nil)
	}

	jobs, err := s.storage.ListJobs(ctx, &storage.JobFilter{State: state, Limit: limit})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list jobs", map[string]interface{}{
			"error": err.Error(),
		})
	}

	stats, err := s.storage.GetStats(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get history statistics", map[string]interface{}{
			"error": err.Error(),
		})
	}

	list := make([]map[string]interface{}, 0, len(jobs))
	for _, job := range jobs {
		list = append(list, jobSummary(job))
	}

	response := map[string]interface{}{
		"jobs": list,
		"statistics": map[string]interface{}{
			"total_jobs":  stats.TotalJobs,
			"total_files": stats.TotalFiles,
			"by_state":    stats.JobsByState,
			"db_size_mb":  fmt.Sprintf("%.2f", stats.DatabaseSizeMB),
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// jobError maps an orchestrator failure onto an MCP error code
func jobError(job *orchestrator.Job, err error) error {
	data := map[string]interface{}{"error": err.Error()}
	if job != nil {
		data["job_id"] = job.ID
	}

	var jobErr *orchestrator.JobError
	if errors.As(err, &jobErr) {
		data["state"] = string(jobErr.State)
		if jobErr.ChunkIndex >= 0 {
			data["chunk"] = jobErr.ChunkIndex + 1
		}
	}

	switch {
	case errors.Is(err, types.ErrValidation):
		return newMCPError(ErrorCodeInvalidParams, "invalid input", data)
	case errors.Is(err, types.ErrParse):
		return newMCPError(ErrorCodeParseFailed, "source file does not parse", data)
	case errors.Is(err, types.ErrModelInvocation), errors.Is(err, types.ErrModelResponse):
		return newMCPError(ErrorCodeModelFailed, "model call failed", data)
	case errors.Is(err, types.ErrMissingFileHeader), errors.Is(err, types.ErrMalformedReply):
		return newMCPError(ErrorCodeMalformedReply, "model reply is malformed", data)
	default:
		return newMCPError(ErrorCodeInternalError, "refactor failed", data)
	}
}

// jobSummary renders a history row
func jobSummary(job *storage.Job) map[string]interface{} {
	summary := map[string]interface{}{
		"job_id":             job.ID,
		"source_path":        job.SourcePath,
		"language":           job.Language,
		"state":              job.State,
		"total_chunks":       job.TotalChunks,
		"provider":           job.Provider,
		"model":              job.Model,
		"files_produced":     job.FilesProduced,
		"duplicate_warnings": job.DuplicateWarnings,
		"duration_ms":        job.DurationMs,
		"created_at":         job.CreatedAt.Format(time.RFC3339),
	}
	if job.ChunkIndex >= 0 {
		summary["chunk"] = job.ChunkIndex + 1
	}
	if job.Error != nil {
		summary["error"] = *job.Error
	}
	if !job.CompletedAt.IsZero() {
		summary["completed_at"] = job.CompletedAt.Format(time.RFC3339)
	}
	return summary
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks that path is an absolute, readable regular file
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	if info.IsDir() {
		return ErrIsDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	if _, ok := types.LanguageFromPath(path); !ok {
		return ErrUnsupportedFile
	}

	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		slog.Default().Warn("failed to encode tool response", slog.String("error", err.Error()))
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrIsDirectory     = errors.New("path is a directory")
	ErrUnsupportedFile = errors.New("only .py and .js files are supported")
)
