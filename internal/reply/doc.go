// Package reply parses a model's free-form reply into validated file records.
//
// The wire format is a sequence of blocks, each introduced by a header marker
// on its own line:
//
//	# File: app.py
//	from flask import Flask
//	...
//	# File: routes/routes.py
//	...
//
// Text before the first marker is discarded. Content runs until the next
// marker or the end of the reply and is trimmed of surrounding whitespace.
//
// # Errors
//
//   - *types.MissingFileHeaderError when no marker is present
//   - *types.MalformedReplyError for an empty, absolute, or escaping path
//
// Both abort the job; Parse never returns partial records.
//
// # Merging
//
// Merge inserts records into a *types.Result in order. A path already present
// is overwritten and a duplicate warning is recorded, so the last chunk to
// produce a path wins.
package reply
