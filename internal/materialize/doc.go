// Package materialize writes a completed job's result to its destination.
//
// Two sinks are provided: DirSink writes under a local directory (default
// ~/Desktop/refactored_code) and S3Sink uploads to an S3-compatible bucket via
// github.com/minio/minio-go/v7. Neither is transactional; a failure part way
// through can leave some files written.
//
// Backup copies the input file to <file>.backup before any model cost is paid.
package materialize
