package chunker

import (
	"fmt"
	"strings"

	"github.com/dshills/monosplit/pkg/types"
)

// SerializeOptions controls how buckets are rendered into lines
type SerializeOptions struct {
	// SectionHeaders emits "# --- Imports ---" style comment lines before each
	// non-empty bucket
	SectionHeaders bool
}

// Serialize renders the buckets one fragment line per line in category order.
// Blank lines are skipped and trailing whitespace trimmed; indentation is kept.
func Serialize(buckets *types.Buckets, lang types.Language, opts SerializeOptions) []string {
	lines := make([]string, 0)

	buckets.Each(func(c types.Category, fragments []string) {
		if len(fragments) == 0 {
			return
		}

		if opts.SectionHeaders {
			lines = append(lines, sectionHeader(lang, c))
		}

		for _, fragment := range fragments {
			for _, line := range strings.Split(fragment, "\n") {
				line = strings.TrimRight(line, " \t\r")
				if strings.TrimSpace(line) == "" {
					continue
				}
				lines = append(lines, line)
			}
		}
	})

	return lines
}

// sectionHeader builds the comment line that introduces a bucket
func sectionHeader(lang types.Language, c types.Category) string {
	return fmt.Sprintf("%s --- %s ---", lang.CommentPrefix(), c)
}
