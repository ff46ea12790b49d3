// Package orchestrator runs one refactor job end to end.
//
// A job reads a monolithic source file, partitions it with the analyzer,
// packs the serialized buckets into token-bounded chunks, sends every chunk
// to a language model exactly once, and merges the file blocks of every reply
// into a single path to content mapping.
//
// # Basic Usage
//
//	gen, err := llm.NewFromEnv(ctx)
//	if err != nil {
//	    return err
//	}
//	defer gen.Close()
//
//	orch := orchestrator.New(gen, nil, orchestrator.DefaultConfig(), logger)
//	job, err := orch.Run(ctx, "monolith.py", &orchestrator.RunOptions{
//	    Observer: orchestrator.ObserverFunc(func(s orchestrator.State, chunk, total int) {
//	        fmt.Println(s, chunk, total)
//	    }),
//	})
//	if err != nil {
//	    return err // *orchestrator.JobError
//	}
//	for _, f := range job.Result.Files() {
//	    fmt.Println(f.Path)
//	}
//
// # Job States
//
//	Pending -> AnalyzingSource -> Packing -> ProcessingChunk(0..n-1) -> Completed
//
// Any failure moves the job to Aborted and discards the partial result.
// Chunks are processed strictly in order and a failed model call is never
// retried. A job whose source classifies to nothing completes from Packing
// with an empty result and no model calls.
//
// # History
//
// When a storage.Storage is supplied, every state change is written to the
// jobs table and the files of a completed job to job_files. Storage errors
// are logged and never change the outcome of a job.
//
// # Concurrency
//
// An Orchestrator may be shared, but long running servers should guard it
// with a JobLock so that only one job is in flight at a time.
package orchestrator
