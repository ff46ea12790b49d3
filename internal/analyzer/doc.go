// Package analyzer partitions a monolithic Python or JavaScript file into
// seven ordered category buckets.
//
// Source text is parsed with tree-sitter grammars for both languages. Every
// top-level statement is visited once, rendered canonically, and either
// skipped as a duplicate, classified into a bucket, or dropped.
//
// # Basic Usage
//
//	src, err := analyzer.LoadSource("monolith.py")
//	if err != nil {
//	    return err // *types.ValidationError
//	}
//
//	a := analyzer.New(logger)
//	analysis, err := a.Analyze(ctx, src)
//	if err != nil {
//	    return err // *types.ParseError for invalid syntax
//	}
//
//	analysis.Buckets.Each(func(c types.Category, fragments []string) {
//	    fmt.Printf("%s: %d\n", c, len(fragments))
//	})
//
// # Classification Rules
//
// The first matching rule wins:
//
//  1. Imports (import, from ... import, require calls)
//  2. Initialization (binding of app, server or application)
//  3. Models (class definitions)
//  4. Routes (functions decorated with x.route, Express route registrations)
//     or Utils (every other function)
//  5. Main (if __name__ == "__main__", if (require.main === module))
//  6. Others (remaining expression statements)
//
// Anything else, including plain assignments and comments, is dropped.
//
// # Deduplication
//
// A fragment whose canonical rendering was already placed in any bucket is
// never placed again. Canonical rendering trims trailing whitespace from each
// line and blank space around the fragment; indentation is kept.
//
// # Error Handling
//
// Unlike a recovering parser, any syntax error in the tree fails the analysis
// with a *types.ParseError carrying the first error position. Nothing is
// chunked or sent to a model for a file that does not parse.
package analyzer
