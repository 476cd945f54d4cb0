package tempo

import "context"

// NoopLimiter is a pass-through stand-in for Limiter: Submit runs the job
// inline, with no queueing, pacing, or concurrency bound. It exists for
// tests of code that depends on a limiter but does not want to exercise
// pacing in that test.
type NoopLimiter[T any] struct{}

// NewNoopLimiter returns a NoopLimiter.
func NewNoopLimiter[T any]() *NoopLimiter[T] {
	return &NoopLimiter[T]{}
}

// Submit runs job immediately and returns its result. priority is accepted
// and ignored.
func (*NoopLimiter[T]) Submit(ctx context.Context, priority int, job func(context.Context) (T, error)) (T, error) {
	return job(ctx)
}

// Pending always reports zero: nothing is ever queued.
func (*NoopLimiter[T]) Pending() int {
	return 0
}
