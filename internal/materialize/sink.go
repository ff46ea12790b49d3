package materialize

import (
	"context"
	"regexp"

	"github.com/dshills/monosplit/pkg/types"
)

// Sink persists the final result of a completed job
type Sink interface {
	// Write stores every file of result. Writes are not transactional: on error
	// some files may already have been written.
	Write(ctx context.Context, jobID string, result *types.Result) (*Summary, error)

	// Location describes where files are written
	Location() string
}

// Summary describes one materialization
type Summary struct {
	Location    string
	Files       int
	Bytes       int64
	Entrypoints []string // paths that contain a module-entry guard
}

// entryGuard matches the module-entry sentinel of both supported languages
var entryGuard = regexp.MustCompile(`(?m)^if\s*\(?\s*(__name__\s*==\s*['"]__main__['"]|['"]__main__['"]\s*==\s*__name__|require\.main\s*===?\s*module)`)

// IsEntrypoint reports whether content contains a top-level entry guard
func IsEntrypoint(content string) bool {
	return entryGuard.MatchString(content)
}

// summarize computes the summary fields shared by all sinks
func summarize(location string, result *types.Result) *Summary {
	s := &Summary{Location: location}
	for _, f := range result.Files() {
		s.Files++
		s.Bytes += int64(len(f.Content))
		if IsEntrypoint(f.Content) {
			s.Entrypoints = append(s.Entrypoints, f.Path)
		}
	}
	return s
}
