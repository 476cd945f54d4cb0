package tempo

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/billie-coop/tempo/internal/clock"
	"github.com/billie-coop/tempo/internal/csync"
)

// Config is the Limiter's configuration: the pacing floor, the queue's
// capacity, and the concurrency bound.
type Config struct {
	MinInterval   time.Duration
	MaxQueued     int
	MaxConcurrent int
}

// Option configures a Limiter at Start time.
type Option func(*options)

type options struct {
	logger *slog.Logger
	clock  clock.Clock
}

// WithLogger attaches a structured logger. Without one, the Limiter logs
// nothing.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// withClock overrides the time source, for deterministic tests. Unexported:
// internal/clock.Clock is not part of the public surface.
func withClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// cancelable is the common surface of a tracked Handle[T], independent of T.
type cancelable interface {
	Cancel()
}

// Limiter is the public entry point: it composes the task Handle, the
// Queue, and the executor loop into Submit/Pending.
type Limiter struct {
	queue   *Queue
	exec    *executor
	logger  *logger
	handles *csync.Map[uint64, cancelable]

	stopOnce sync.Once
}

// Start constructs and runs a Limiter. cfg is validated with a panic
// (ProgrammerError) on violation rather than a construction-time error. The
// returned context.CancelFunc tears the
// Limiter down: it stops admitting, resolves every still-queued submission
// with ErrCancelled, cancels every in-flight one, and waits for all of them
// to return before it itself returns.
func Start(cfg Config, opts ...Option) (*Limiter, context.CancelFunc) {
	if cfg.MinInterval < 0 {
		panic(programmerError("MinInterval must be non-negative, got %s", cfg.MinInterval))
	}
	if cfg.MaxQueued <= 0 {
		panic(programmerError("MaxQueued must be positive, got %d", cfg.MaxQueued))
	}
	if cfg.MaxConcurrent <= 0 {
		panic(programmerError("MaxConcurrent must be positive, got %d", cfg.MaxConcurrent))
	}

	o := &options{clock: clock.Real}
	for _, opt := range opts {
		opt(o)
	}

	lg := newLogger(o.logger)
	q := newQueue(cfg.MaxQueued)
	exec := newExecutor(q, cfg.MinInterval, cfg.MaxConcurrent, o.clock, lg)

	ctx, cancel := context.WithCancel(context.Background())
	lim := &Limiter{
		queue:   q,
		exec:    exec,
		logger:  lg,
		handles: csync.NewMap[uint64, cancelable](),
	}

	go exec.run(ctx)

	teardown := func() {
		lim.stopOnce.Do(func() {
			cancel()
			lim.handles.Range(func(_ uint64, h cancelable) bool {
				h.Cancel()
				return true
			})
			q.drain(func(run func()) { run() })
			exec.wait()
			lg.info("limiter stopped")
		})
	}

	return lim, teardown
}

// Pending reports the number of jobs currently queued (not yet admitted).
// It does not count in-flight jobs.
func (l *Limiter) Pending() int {
	return l.queue.Len()
}

// Submit enqueues job at priority and blocks until it completes, is
// rejected, or ctx is cancelled. It is a package-level function rather than
// a method because Go methods cannot introduce a type parameter beyond
// their receiver's.
//
// If ctx is cancelled before the job completes, Submit first tries to
// delete the entry from the queue (cheap: the job never ran, never spent a
// pacing slot); if that fails because the job already started running, it
// falls back to cancelling the job's own context so it can interrupt
// itself. Either way Submit then returns ctx.Err().
func Submit[T any](l *Limiter, ctx context.Context, priority int, job func(context.Context) (T, error)) (T, error) {
	var zero T

	h := newHandle(job)
	id, err := l.queue.Enqueue(h.executable(), priority)
	if err != nil {
		h.cancel(nil)
		l.logger.debug("rejected", "priority", priority)
		return zero, err
	}
	l.handles.Set(id, h)
	defer l.handles.Delete(id)

	watchDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			if l.queue.Delete(id) {
				h.cancelQueued()
			} else {
				h.Cancel()
			}
		case <-watchDone:
		}
	}()
	defer close(watchDone)

	return h.Await(ctx)
}
