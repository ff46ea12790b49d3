package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/dshills/monosplit/pkg/types"
)

// Analysis is the output of one analysis pass
type Analysis struct {
	Buckets *types.Buckets

	// Statistics
	Nodes      int // top-level nodes visited
	Duplicates int // nodes skipped by the dedup set
	Dropped    int // nodes no rule classified
}

// classifier assigns a kind and a category to a top-level node.
// ok is false when no rule matches and the node must be dropped.
type classifier interface {
	language() *sitter.Language
	classify(node *sitter.Node, src []byte) (kind types.NodeKind, category types.Category, ok bool)
	// invalid returns the first node the grammar accepts but the language
	// does not, with a message for the parse error
	invalid(root *sitter.Node) (*sitter.Node, string)
}

// Analyzer walks a syntax tree and partitions top-level constructs into buckets
type Analyzer struct {
	logger      *slog.Logger
	classifiers map[types.Language]classifier
}

// New creates a new Analyzer instance
func New(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Analyzer{
		logger: logger,
		classifiers: map[types.Language]classifier{
			types.LanguagePython:     pythonClassifier{},
			types.LanguageJavaScript: javascriptClassifier{},
		},
	}
}

// LoadSource reads and validates an input file. It fails with a ValidationError
// for a missing file or an unsupported extension, before any parsing happens.
func LoadSource(path string) (*types.Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, types.NewValidationError("file", path, "file not found")
	}
	if info.IsDir() {
		return nil, types.NewValidationError("file", path, "path is a directory")
	}

	lang, ok := types.LanguageFromPath(path)
	if !ok {
		return nil, types.NewValidationError("file", path, "only .py and .js files are supported")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return &types.Source{Path: path, Language: lang, Content: content}, nil
}

// Analyze parses the source and classifies every top-level construct
func (a *Analyzer) Analyze(ctx context.Context, src *types.Source) (*Analysis, error) {
	cls, ok := a.classifiers[src.Language]
	if !ok {
		return nil, types.NewValidationError("language", string(src.Language), "unsupported language")
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(cls.language())

	tree, err := parser.ParseCtx(ctx, nil, src.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", src.Path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, newParseError(src, root)
	}
	if bad, msg := cls.invalid(root); bad != nil {
		start := bad.StartPoint()
		return nil, &types.ParseError{
			File:     src.Path,
			Language: src.Language,
			Line:     int(start.Row) + 1,
			Column:   int(start.Column) + 1,
			Message:  msg,
		}
	}

	walker := &bucketWalker{
		classifier: cls,
		src:        src.Content,
		seen:       make(map[string]struct{}),
		analysis:   &Analysis{Buckets: types.NewBuckets()},
		logger:     a.logger,
	}

	// Only direct children of the module are visited; nested scopes never
	// reach the dedup set.
	count := int(root.NamedChildCount())
	for i := 0; i < count; i++ {
		if err := walker.visit(root.NamedChild(i)); err != nil {
			return nil, err
		}
	}

	a.logger.Debug("source analyzed",
		slog.String("file", src.Path),
		slog.String("language", string(src.Language)),
		slog.Int("nodes", walker.analysis.Nodes),
		slog.Int("duplicates", walker.analysis.Duplicates),
		slog.Int("dropped", walker.analysis.Dropped),
	)

	return walker.analysis, nil
}

// bucketWalker holds the per-pass state: the dedup set and the buckets
type bucketWalker struct {
	classifier classifier
	src        []byte
	seen       map[string]struct{}
	analysis   *Analysis
	logger     *slog.Logger
}

// visit is called once for each top-level node
func (w *bucketWalker) visit(node *sitter.Node) error {
	if node == nil {
		return nil
	}
	w.analysis.Nodes++

	rendering := canonicalize(node.Content(w.src))
	if rendering == "" {
		w.analysis.Dropped++
		return nil
	}

	if _, dup := w.seen[rendering]; dup {
		w.analysis.Duplicates++
		return nil
	}

	kind, category, ok := w.classifier.classify(node, w.src)
	if !ok {
		w.analysis.Dropped++
		w.logger.Debug("node dropped",
			slog.String("type", node.Type()),
			slog.String("kind", string(kind)),
			slog.Int("line", int(node.StartPoint().Row)+1),
		)
		return nil
	}

	w.seen[rendering] = struct{}{}
	return w.analysis.Buckets.Add(category, rendering)
}

// newParseError locates the first error node to report a position
func newParseError(src *types.Source, root *sitter.Node) *types.ParseError {
	perr := &types.ParseError{
		File:     src.Path,
		Language: src.Language,
		Message:  "syntax error",
	}

	if bad := firstErrorNode(root); bad != nil {
		start := bad.StartPoint()
		perr.Line = int(start.Row) + 1
		perr.Column = int(start.Column) + 1
		if bad.IsMissing() {
			perr.Message = fmt.Sprintf("missing %s", bad.Type())
		} else {
			perr.Message = "unexpected input"
		}
	}

	return perr
}

// firstErrorNode returns the first ERROR or MISSING node in tree order
func firstErrorNode(node *sitter.Node) *sitter.Node {
	if node == nil || !node.HasError() && !node.IsMissing() {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}

	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		if bad := firstErrorNode(node.Child(i)); bad != nil {
			return bad
		}
	}
	return node
}

// findNode returns the first node in tree order whose type is in kinds
func findNode(node *sitter.Node, kinds ...string) *sitter.Node {
	if node == nil {
		return nil
	}
	for _, k := range kinds {
		if node.Type() == k {
			return node
		}
	}

	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		if hit := findNode(node.NamedChild(i), kinds...); hit != nil {
			return hit
		}
	}
	return nil
}
