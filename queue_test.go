package tempo

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestQueueDequeueOrdersByPriorityThenSequence(t *testing.T) {
	q := newQueue(10)

	var got []string
	record := func(name string) func() { return func() { got = append(got, name) } }

	mustEnqueue(t, q, record("low-1"), 0)
	mustEnqueue(t, q, record("high"), 10)
	mustEnqueue(t, q, record("low-2"), 0)

	for i := 0; i < 3; i++ {
		run, ok := q.Dequeue(context.Background())
		if !ok {
			t.Fatalf("Dequeue %d: ok = false", i)
		}
		run()
	}

	want := []string{"high", "low-1", "low-2"}
	for i, w := range want {
		if got[i] != w {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestQueueEnqueueRejectsOverCapacity(t *testing.T) {
	q := newQueue(1)
	mustEnqueue(t, q, func() {}, 0)

	if _, err := q.Enqueue(func() {}, 0); err != ErrLimitReached {
		t.Fatalf("Enqueue over capacity err = %v, want ErrLimitReached", err)
	}
}

func TestQueueDequeueBlocksUntilEnqueue(t *testing.T) {
	q := newQueue(1)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		run, ok := q.Dequeue(ctx)
		if !ok || run == nil {
			t.Error("Dequeue did not return an entry")
		}
	}()

	select {
	case <-done:
		t.Fatal("Dequeue returned before anything was enqueued")
	case <-time.After(20 * time.Millisecond):
	}

	mustEnqueue(t, q, func() {}, 0)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not wake after Enqueue")
	}
}

func TestQueueDequeueRespectsContextCancellation(t *testing.T) {
	q := newQueue(1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Dequeue(ctx)
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case ok := <-done:
		if ok {
			t.Fatal("Dequeue should have reported ok=false on cancellation")
		}
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not honor context cancellation")
	}
}

func TestQueueDeleteRemovesBeforeDequeue(t *testing.T) {
	q := newQueue(2)
	id := mustEnqueue(t, q, func() { t.Fatal("deleted entry must never run") }, 0)

	if !q.Delete(id) {
		t.Fatal("Delete returned false for a present entry")
	}
	if q.Delete(id) {
		t.Fatal("second Delete of the same id should return false")
	}
	if n := q.Len(); n != 0 {
		t.Fatalf("Len = %d, want 0", n)
	}
}

func TestQueueDrainDiscardsAllPending(t *testing.T) {
	q := newQueue(4)
	mustEnqueue(t, q, func() {}, 0)
	mustEnqueue(t, q, func() {}, 1)
	mustEnqueue(t, q, func() {}, 2)

	var mu sync.Mutex
	discarded := 0
	q.drain(func(run func()) {
		mu.Lock()
		discarded++
		mu.Unlock()
	})

	if discarded != 3 {
		t.Fatalf("drain discarded %d entries, want 3", discarded)
	}
	if n := q.Len(); n != 0 {
		t.Fatalf("Len after drain = %d, want 0", n)
	}
}

func TestQueueDequeueAllStopsWithContext(t *testing.T) {
	q := newQueue(2)
	mustEnqueue(t, q, func() {}, 0)
	mustEnqueue(t, q, func() {}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	count := 0
	for range q.DequeueAll(ctx) {
		count++
		if count == 2 {
			cancel()
		}
	}
	if count != 2 {
		t.Fatalf("DequeueAll yielded %d items, want 2", count)
	}
}

func mustEnqueue(t *testing.T, q *Queue, run func(), priority int) uint64 {
	t.Helper()
	id, err := q.Enqueue(run, priority)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	return id
}
