package reply

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/monosplit/pkg/types"
)

func TestParse_TwoFiles(t *testing.T) {
	p := New(Options{}, nil)
	reply := "Here you go:\n\n# File: app.py\nfrom flask import Flask\napp = Flask(__name__)\n\n# File: routes/__init__.py\n"

	records, err := p.Parse(0, reply)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, types.FileRecord{Path: "app.py", Content: "from flask import Flask\napp = Flask(__name__)"}, records[0])
	assert.Equal(t, types.FileRecord{Path: "routes/__init__.py", Content: ""}, records[1])
}

func TestParse_NoMarkers(t *testing.T) {
	p := New(Options{}, nil)
	records, err := p.Parse(3, "no markers here")

	assert.Nil(t, records)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrMissingFileHeader))

	var mfh *types.MissingFileHeaderError
	require.True(t, errors.As(err, &mfh))
	assert.Equal(t, 3, mfh.ChunkIndex)
	assert.Equal(t, "no markers here", mfh.Excerpt)
}

func TestParse_NoMarkersExcerptKeepsRunes(t *testing.T) {
	p := New(Options{}, nil)
	reply := strings.Repeat("a", excerptLen-1) + "日本語のテキスト"

	_, err := p.Parse(0, reply)
	var mfh *types.MissingFileHeaderError
	require.True(t, errors.As(err, &mfh))
	assert.True(t, utf8.ValidString(mfh.Excerpt))
	assert.Equal(t, strings.Repeat("a", excerptLen-1)+"...", mfh.Excerpt)

	reply = strings.Repeat("é", excerptLen)
	_, err = p.Parse(0, reply)
	require.True(t, errors.As(err, &mfh))
	assert.True(t, utf8.ValidString(mfh.Excerpt))
	assert.Equal(t, strings.Repeat("é", excerptLen/2)+"...", mfh.Excerpt)
}

func TestParse_MarkerMustStartLine(t *testing.T) {
	p := New(Options{}, nil)
	_, err := p.Parse(0, "see the output below  # File: app.py\nprint(1)")
	assert.ErrorIs(t, err, types.ErrMissingFileHeader)
}

func TestParse_CRLF(t *testing.T) {
	p := New(Options{}, nil)
	records, err := p.Parse(0, "# File: app.py\r\nprint(1)\r\n")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "app.py", records[0].Path)
	assert.Equal(t, "print(1)", records[0].Content)
}

func TestParse_PathValidation(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "relative", header: "utils/helpers.py", want: "utils/helpers.py"},
		{name: "dot segments cleaned", header: "./routes/../routes/routes.py", want: "routes/routes.py"},
		{name: "backslashes", header: "models\\user.py", want: "models/user.py"},
		{name: "blank", header: "   ", wantErr: true},
		{name: "absolute", header: "/etc/passwd", wantErr: true},
		{name: "drive letter", header: "C:\\app.py", wantErr: true},
		{name: "parent escape", header: "../app.py", wantErr: true},
		{name: "nested escape", header: "a/../../app.py", wantErr: true},
		{name: "dot only", header: ".", wantErr: true},
	}

	p := New(Options{}, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := p.Parse(1, "# File: "+tt.header+"\nx = 1\n")
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrMalformedReply)
				assert.Nil(t, records)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, records[0].Path)
		})
	}
}

func TestParse_UnwrapFences(t *testing.T) {
	reply := "# File: app.py\n```python\nprint(1)\n```\n# File: notes.md\nSome text\n```\ncode\n```\n"

	records, err := New(Options{UnwrapFences: true}, nil).Parse(0, reply)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "print(1)", records[0].Content)
	assert.Equal(t, "Some text\n```\ncode\n```", records[1].Content)

	records, err = New(Options{}, nil).Parse(0, reply)
	require.NoError(t, err)
	assert.Equal(t, "```python\nprint(1)\n```", records[0].Content)
}

func TestMerge_DuplicateAcrossChunks(t *testing.T) {
	p := New(Options{}, nil)
	result := types.NewResult()

	warnings := p.Merge(result, 0, []types.FileRecord{{Path: "app.py", Content: "X"}})
	assert.Empty(t, warnings)

	warnings = p.Merge(result, 1, []types.FileRecord{{Path: "app.py", Content: "Y"}})
	require.Len(t, warnings, 1)
	assert.Equal(t, types.DuplicateWarning{Path: "app.py", ChunkIndex: 1}, warnings[0])

	content, ok := result.Get("app.py")
	require.True(t, ok)
	assert.Equal(t, "Y", content)
	assert.Equal(t, 1, result.Len())
	assert.Len(t, result.Warnings, 1)
}

func TestMerge_DuplicateWithinReply(t *testing.T) {
	p := New(Options{}, nil)
	records, err := p.Parse(0, "# File: a.py\n1\n# File: b.py\n2\n# File: a.py\n3\n")
	require.NoError(t, err)

	result := types.NewResult()
	warnings := p.Merge(result, 0, records)

	assert.Len(t, warnings, 1)
	assert.Equal(t, []string{"a.py", "b.py"}, result.Paths())
	content, _ := result.Get("a.py")
	assert.Equal(t, "3", content)
}

func TestFormat_RoundTripsRandomReplies(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	dirs := []string{"", "routes/", "models/", "utils/"}
	words := []string{"def", "return", "import", "app", "x", "=", "1", "(", ")", "#", "File"}
	p := New(Options{}, nil)

	for round := 0; round < 100; round++ {
		records := make([]types.FileRecord, rng.Intn(5)+1)
		for i := range records {
			lines := make([]string, rng.Intn(6))
			for j := range lines {
				indent := strings.Repeat(" ", 4*rng.Intn(2))
				lines[j] = indent + words[rng.Intn(len(words))] + " " + words[rng.Intn(len(words))]
			}
			records[i] = types.FileRecord{
				Path:    fmt.Sprintf("%sfile_%d_%d.py", dirs[rng.Intn(len(dirs))], round, i),
				Content: strings.TrimSpace(strings.Join(lines, "\n")),
			}
		}

		preamble := ""
		if rng.Intn(2) == 0 {
			preamble = "Sure, here is the refactored code.\n\n"
		}

		parsed, err := p.Parse(round, preamble+Format(records))
		require.NoError(t, err)
		assert.Equal(t, records, parsed, "round %d", round)
	}
}

func TestUnwrapFence_LeavesPlainContent(t *testing.T) {
	assert.Equal(t, "x = 1", UnwrapFence("x = 1"))
	assert.Equal(t, "", UnwrapFence(""))
	assert.Equal(t, "a\nb", UnwrapFence("```\na\nb\n```"))
}
