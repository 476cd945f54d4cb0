// Package tempo implements a priority-aware interval rate limiter for
// asynchronous jobs.
//
// Callers submit jobs tagged with an integer priority. tempo admits them at a
// minimum pacing interval (a fixed delay between the start of one job and the
// start of the next), bounded by a maximum queue depth and a maximum number
// of concurrently running jobs, and delivers each job's result back to its
// submitter exactly once.
//
// # Architecture
//
//   - Handle (handle.go): couples one submitted job to its waiting caller.
//   - Queue (queue.go): a bounded, priority-ordered store of pending work.
//   - executor loop (executor.go): dequeues one job per interval, under a
//     concurrency bound.
//   - Limiter (limiter.go): the public surface, composing the above.
//
// See also [Every], for converting "N events every duration" into a
// MinInterval, and [NoopLimiter], a pass-through implementation for tests
// that should not be rate limited at all.
package tempo
