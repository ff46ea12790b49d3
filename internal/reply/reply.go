package reply

import (
	"log/slog"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dshills/monosplit/pkg/types"
)

// MarkerPrefix introduces each file block in a model reply
const MarkerPrefix = "# File: "

// excerptLen bounds the reply excerpt kept in MissingFileHeaderError, in bytes
const excerptLen = 120

// fileMarker matches a header marker at the start of a line
var fileMarker = regexp.MustCompile(`(?m)^# File: (.+)$`)

// Options configures reply parsing
type Options struct {
	// UnwrapFences replaces a record's content with the body of its fenced
	// code block when the content is exactly one such block
	UnwrapFences bool
}

// Parser extracts file records from raw model replies
type Parser struct {
	opts   Options
	logger *slog.Logger
}

// New creates a new Parser instance
func New(opts Options, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Parser{opts: opts, logger: logger}
}

// Parse splits one chunk's reply into (path, content) records in reply order.
// A reply without any marker fails with MissingFileHeaderError; an unusable
// path fails with MalformedReplyError. No partial records are returned on error.
func (p *Parser) Parse(chunkIndex int, reply string) ([]types.FileRecord, error) {
	reply = strings.ReplaceAll(reply, "\r\n", "\n")

	matches := fileMarker.FindAllStringSubmatchIndex(reply, -1)
	if len(matches) == 0 {
		return nil, &types.MissingFileHeaderError{
			ChunkIndex: chunkIndex,
			Excerpt:    excerpt(reply),
		}
	}

	if preamble := strings.TrimSpace(reply[:matches[0][0]]); preamble != "" {
		p.logger.Debug("discarding reply preamble",
			slog.Int("chunk", chunkIndex),
			slog.Int("bytes", len(preamble)),
		)
	}

	records := make([]types.FileRecord, 0, len(matches))
	for i, m := range matches {
		rawPath := strings.TrimSpace(reply[m[2]:m[3]])
		cleaned, err := cleanPath(chunkIndex, rawPath)
		if err != nil {
			return nil, err
		}

		end := len(reply)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		content := strings.TrimSpace(reply[m[1]:end])
		if p.opts.UnwrapFences {
			content = UnwrapFence(content)
		}

		records = append(records, types.FileRecord{Path: cleaned, Content: content})
	}

	return records, nil
}

// Merge inserts records into the result in order. An existing path is
// overwritten and reported as a duplicate warning.
func (p *Parser) Merge(result *types.Result, chunkIndex int, records []types.FileRecord) []types.DuplicateWarning {
	var warnings []types.DuplicateWarning
	for _, rec := range records {
		if replaced := result.Put(rec.Path, rec.Content); replaced {
			w := types.DuplicateWarning{Path: rec.Path, ChunkIndex: chunkIndex}
			warnings = append(warnings, w)
			result.Warnings = append(result.Warnings, w)
			p.logger.Warn("duplicate file path, overwriting previous content",
				slog.String("path", rec.Path),
				slog.Int("chunk", chunkIndex),
			)
		}
	}
	return warnings
}

// Format renders records in the reply wire format
func Format(records []types.FileRecord) string {
	var sb strings.Builder
	for i, rec := range records {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(MarkerPrefix)
		sb.WriteString(rec.Path)
		sb.WriteString("\n")
		if rec.Content != "" {
			sb.WriteString(rec.Content)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// cleanPath validates a header path and normalizes it to slash form
func cleanPath(chunkIndex int, raw string) (string, error) {
	malformed := func(reason string) error {
		return &types.MalformedReplyError{ChunkIndex: chunkIndex, Path: raw, Reason: reason}
	}

	if raw == "" {
		return "", malformed("empty path")
	}

	slashed := strings.ReplaceAll(raw, "\\", "/")
	if strings.HasPrefix(slashed, "/") || hasDriveLetter(slashed) {
		return "", malformed("absolute path")
	}

	cleaned := path.Clean(slashed)
	if cleaned == "." {
		return "", malformed("empty path")
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", malformed("path escapes the output root")
	}

	return cleaned, nil
}

func hasDriveLetter(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func excerpt(reply string) string {
	reply = strings.TrimSpace(reply)
	if len(reply) <= excerptLen {
		return reply
	}
	n := excerptLen
	for n > 0 && !utf8.RuneStart(reply[n]) {
		n--
	}
	return reply[:n] + "..."
}
