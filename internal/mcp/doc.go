// Package mcp implements the Model Context Protocol (MCP) server for monosplit.
//
// The MCP server exposes three tools to AI coding assistants:
//   - refactor_file: Split a monolithic Python or JavaScript file into a modular project
//   - get_job: Inspect one refactor job from the history
//   - list_jobs: List recent refactor jobs
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// # Basic Usage
//
// The MCP server is typically started via the serve command:
//
//	monosplit serve
//
// # Tool: refactor_file
//
//	Request:
//	{
//	  "name": "refactor_file",
//	  "arguments": {
//	    "path": "/path/to/app.py",
//	    "dry_run": false,
//	    "max_tokens": 32000
//	  }
//	}
//
//	Response:
//	{
//	  "job_id": "5b0c...",
//	  "state": "Completed",
//	  "chunks": 2,
//	  "files": [{"path": "app.py", "bytes": 312}, ...],
//	  "output": "/home/me/Desktop/refactored_code",
//	  "entrypoints": ["app.py"]
//	}
//
// With dry_run set, or when no output sink is configured, nothing is written
// and every file entry carries its content.
//
// # Tool: get_job
//
//	Request:  {"name": "get_job", "arguments": {"job_id": "5b0c..."}}
//	Response: {"job_id": "5b0c...", "state": "Aborted", "chunk": 2, "error": "...", "files": []}
//
// # Tool: list_jobs
//
//	Request:  {"name": "list_jobs", "arguments": {"limit": 20, "state": "Completed"}}
//	Response: {"jobs": [...], "statistics": {"total_jobs": 12, ...}}
//
// # Error Codes
//
//	-32602  Invalid params (bad path, unsupported file, invalid budget)
//	-32603  Internal error
//	-32001  Source file does not parse
//	-32002  Another refactor job is in progress
//	-32003  Job not found
//	-32004  Model call failed
//	-32005  Model reply is malformed
//	-32006  Job history is disabled
//
// # Concurrency
//
// Only one refactor job runs at a time. A second refactor_file call while a
// job is in flight fails immediately with -32002 instead of queueing.
package mcp
