package tempo

import (
	"context"
	"sync/atomic"
)

// Handle couples one submitted job to its waiting submitter: it carries the
// job's executable, a one-shot result slot, a cancel signal, and a
// completion event.
type Handle[T any] struct {
	job      func(context.Context) (T, error)
	ctx      context.Context
	cancel   context.CancelCauseFunc
	done     chan struct{}
	invoked  atomic.Bool
	discard  atomic.Bool
	value    T
	err      error
}

func newHandle[T any](job func(context.Context) (T, error)) *Handle[T] {
	ctx, cancel := context.WithCancelCause(context.Background())
	return &Handle[T]{
		job:    job,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// executable is the Task Handle's executable: a no-argument effect that runs
// the job, captures its outcome into the result slot, and signals done. It
// must be invoked at most once; a second invocation is a ProgrammerError. An
// invocation after cancelQueued has already resolved the handle does nothing.
func (h *Handle[T]) executable() func() {
	return func() {
		if !h.invoked.CompareAndSwap(false, true) {
			if h.discard.Load() {
				return
			}
			panic(programmerError("handle executable invoked more than once"))
		}
		defer close(h.done)

		if err := h.ctx.Err(); err != nil {
			h.err = cancelledError(context.Cause(h.ctx))
			return
		}

		value, err := h.job(h.ctx)
		if err != nil {
			if h.ctx.Err() != nil {
				h.err = cancelledError(context.Cause(h.ctx))
				return
			}
			h.err = err
			return
		}
		h.value = value
	}
}

// Await waits for the job's completion, then surfaces its outcome: success
// yields the value, failure re-raises the original error, and cancellation
// surfaces as ErrCancelled. If ctx is cancelled first, ctx.Err() is returned
// and the job (if already running) is left to observe its own cancel signal
// independently — callers drive that via Cancel, not via Await's ctx.
func (h *Handle[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-h.done:
		return h.value, h.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Cancel raises the cancel signal. If the executable has not yet run, it
// will observe the signal immediately upon invocation and exit with
// ErrCancelled without calling the job. If the executable is already
// running, its context is cancelled so the job can interrupt itself
// promptly. Cancel is safe to call multiple times and from any goroutine.
func (h *Handle[T]) Cancel() {
	h.cancel(ErrCancelled)
}

// cancelQueued resolves the handle as cancelled without ever running the
// job, for the case where the queue entry was deleted before the executor
// reached it. It shares invoked's CAS with executable, so exactly one of
// {the job ran, the job was discarded unrun} wins even if a delete races
// against the executor dequeuing the same entry.
func (h *Handle[T]) cancelQueued() {
	h.discard.Store(true)
	if !h.invoked.CompareAndSwap(false, true) {
		return
	}
	h.cancel(ErrCancelled)
	h.err = cancelledError(context.Cause(h.ctx))
	close(h.done)
}

func cancelledError(cause error) error {
	if cause == nil || cause == context.Canceled {
		return ErrCancelled
	}
	return cause
}
