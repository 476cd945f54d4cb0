package tempo

import (
	"container/heap"
	"context"
	"iter"
	"sync"
)

// qEntry is a Queue Entry: priority, sequence (breaks priority ties in
// submission order), id (for deletion), and the executable itself.
type qEntry struct {
	priority int
	sequence uint64
	id       uint64
	run      func()
}

// queueHeap implements container/heap.Interface over qEntry, ordered by
// (-priority, sequence) ascending, and maintains an id->index side map as
// entries move, so Queue.Delete can locate an entry in O(1) and remove it in
// O(log n) via heap.Remove instead of an O(n) linear scan.
type queueHeap struct {
	entries []*qEntry
	index   map[uint64]int
}

func (h *queueHeap) Len() int { return len(h.entries) }

func (h *queueHeap) Less(i, j int) bool {
	a, b := h.entries[i], h.entries[j]
	if a.priority != b.priority {
		return a.priority > b.priority
	}
	return a.sequence < b.sequence
}

func (h *queueHeap) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
	h.index[h.entries[i].id] = i
	h.index[h.entries[j].id] = j
}

func (h *queueHeap) Push(x any) {
	e := x.(*qEntry)
	h.index[e.id] = len(h.entries)
	h.entries = append(h.entries, e)
}

func (h *queueHeap) Pop() any {
	old := h.entries
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	h.entries = old[:n-1]
	delete(h.index, e.id)
	return e
}

// Queue is the bounded, priority-ordered store of pending work. All
// mutations are atomic with respect to size, ordering, and waiter wake-up:
// exactly one waiter is woken per item-availability transition, and a woken
// waiter that loses a race re-suspends rather than failing.
//
// It enforces a capacity and rejects enqueue-on-full with ErrLimitReached,
// and uses explicit per-waiter channels rather than sync.Cond so that a
// blocked dequeue can honor context cancellation (a sync.Cond wait cannot be
// interrupted once blocked).
type Queue struct {
	mu sync.Mutex

	heap     queueHeap
	capacity int
	nextSeq  uint64
	nextID   uint64

	dequeueWaiters []chan struct{}
	enqueueWaiters []chan struct{}
}

// newQueue creates a Queue with the given capacity, which must be positive.
func newQueue(capacity int) *Queue {
	if capacity <= 0 {
		panic(programmerError("queue capacity must be positive, got %d", capacity))
	}
	return &Queue{
		heap:     queueHeap{index: make(map[uint64]int)},
		capacity: capacity,
	}
}

func wakeOne(waiters *[]chan struct{}) {
	if len(*waiters) == 0 {
		return
	}
	w := (*waiters)[0]
	*waiters = (*waiters)[1:]
	close(w)
}

// Enqueue inserts run at priority, returning its id. If the queue is at
// capacity, it fails immediately with ErrLimitReached; it never blocks.
func (q *Queue) Enqueue(run func(), priority int) (uint64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.heap.Len() >= q.capacity {
		return 0, ErrLimitReached
	}
	return q.pushLocked(run, priority), nil
}

func (q *Queue) pushLocked(run func(), priority int) uint64 {
	id := q.nextID
	q.nextID++
	seq := q.nextSeq
	q.nextSeq++

	heap.Push(&q.heap, &qEntry{priority: priority, sequence: seq, id: id, run: run})
	wakeOne(&q.dequeueWaiters)
	return id
}

// enqueueWait inserts run at priority, blocking until space is available or
// ctx is done. Nothing in tempo calls it: Limiter.Submit uses the
// reject-on-full Enqueue, and Limiter teardown empties the queue with drain.
func (q *Queue) enqueueWait(ctx context.Context, run func(), priority int) (uint64, error) {
	q.mu.Lock()
	for q.heap.Len() >= q.capacity {
		w := make(chan struct{})
		q.enqueueWaiters = append(q.enqueueWaiters, w)
		q.mu.Unlock()

		select {
		case <-w:
		case <-ctx.Done():
			return 0, ctx.Err()
		}

		q.mu.Lock()
	}
	defer q.mu.Unlock()
	return q.pushLocked(run, priority), nil
}

// Dequeue removes and returns the highest-priority, earliest-sequenced
// pending executable, blocking until one is available or ctx is done.
func (q *Queue) Dequeue(ctx context.Context) (func(), bool) {
	q.mu.Lock()
	for q.heap.Len() == 0 {
		w := make(chan struct{})
		q.dequeueWaiters = append(q.dequeueWaiters, w)
		q.mu.Unlock()

		select {
		case <-w:
		case <-ctx.Done():
			return nil, false
		}

		q.mu.Lock()
	}

	e := heap.Pop(&q.heap).(*qEntry)
	wakeOne(&q.enqueueWaiters)
	q.mu.Unlock()
	return e.run, true
}

// Delete removes the entry with the given id, if still present (i.e. still
// queued rather than already dequeued or running), and reports whether it
// did. This is the single correctness pivot for cancellation: the caller
// that successfully deletes an entry knows its pacing slot was never spent.
func (q *Queue) Delete(id uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	idx, ok := q.heap.index[id]
	if !ok {
		return false
	}
	heap.Remove(&q.heap, idx)
	wakeOne(&q.enqueueWaiters)
	return true
}

// Len returns the current queue size. This is a snapshot; it may be stale
// the instant after the read.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Len()
}

// drain removes every pending entry, invoking discard on each (in priority
// order) with the lock released, and wakes any enqueue waiters. Used by
// Limiter teardown to resolve queued submissions as cancelled.
func (q *Queue) drain(discard func(run func())) {
	q.mu.Lock()
	var entries []*qEntry
	for q.heap.Len() > 0 {
		entries = append(entries, heap.Pop(&q.heap).(*qEntry))
	}
	for _, w := range q.enqueueWaiters {
		close(w)
	}
	q.enqueueWaiters = nil
	q.mu.Unlock()

	for _, e := range entries {
		discard(e.run)
	}
}

// DequeueAll returns an unending iterator over dequeued executables. It stops
// only when ctx is done. The executor loop does not use it; it calls Dequeue
// directly so that it can pace and bound concurrency before each dequeue.
func (q *Queue) DequeueAll(ctx context.Context) iter.Seq[func()] {
	return func(yield func(func()) bool) {
		for {
			run, ok := q.Dequeue(ctx)
			if !ok {
				return
			}
			if !yield(run) {
				return
			}
		}
	}
}
