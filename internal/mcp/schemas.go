package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// refactorFileTool returns the tool definition for refactor_file
func refactorFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        "refactor_file",
		Description: "Split a monolithic Python (Flask) or JavaScript (Express) file into a modular project using a language model",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to a .py or .js source file",
				},
				"dry_run": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, return the produced files without writing them",
					"default":     false,
				},
				"max_tokens": map[string]interface{}{
					"type":        "integer",
					"description": "Chunk token ceiling before prompt headroom",
					"default":     32000,
					"minimum":     1,
				},
			},
			Required: []string{"path"},
		},
	}
}

// getJobTool returns the tool definition for get_job
func getJobTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_job",
		Description: "Get the state, statistics and produced files of a refactor job",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"job_id": map[string]interface{}{
					"type":        "string",
					"description": "Job ID returned by refactor_file",
				},
			},
			Required: []string{"job_id"},
		},
	}
}

// listJobsTool returns the tool definition for list_jobs
func listJobsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_jobs",
		Description: "List recent refactor jobs, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of jobs to return (1-100)",
					"default":     20,
					"minimum":     1,
					"maximum":     100,
				},
				"state": map[string]interface{}{
					"type":        "string",
					"description": "Only return jobs in this state",
					"enum":        []string{"Pending", "AnalyzingSource", "Packing", "ProcessingChunk", "Completed", "Aborted"},
				},
			},
		},
	}
}
