// Package types provides shared type definitions for monosplit.
//
// This package defines the domain types passed between the analyzer, the chunk
// packer, the orchestrator and the reply parser, plus the error taxonomy of a
// refactor job.
//
// # Categories
//
// Category is a closed enumeration of the seven buckets a top-level construct
// can be assigned to. AllCategories fixes the packing order:
//
//	for _, c := range types.AllCategories {
//	    fmt.Println(c, len(buckets.Get(c)))
//	}
//
// # Chunks and Results
//
// Chunk is a token-bounded run of non-blank lines. Result maps output paths to
// content; Put overwrites and reports whether it replaced an earlier entry:
//
//	result := types.NewResult()
//	if result.Put("app.py", content) {
//	    // duplicate path, later chunk wins
//	}
//
// # Errors
//
// Every failure of a job is one of the typed errors in errors.go. Each type
// matches a sentinel through errors.Is:
//
//	if errors.Is(err, types.ErrMissingFileHeader) { ... }
//
//	var respErr *types.ModelResponseError
//	if errors.As(err, &respErr) {
//	    log.Println(respErr.Raw)
//	}
package types
