package tempo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/billie-coop/tempo/internal/clock"
)

func TestExecutorPacesAdmissions(t *testing.T) {
	q := newQueue(10)
	const minInterval = 30 * time.Millisecond
	exec := newExecutor(q, minInterval, 3, clock.Real, newLogger(nil))

	var mu sync.Mutex
	var admissions []time.Time
	record := func() { mu.Lock(); admissions = append(admissions, time.Now()); mu.Unlock() }

	for i := 0; i < 4; i++ {
		mustEnqueue(t, q, record, 0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go exec.run(ctx)

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(admissions)
		mu.Unlock()
		if n >= 4 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for admissions")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	exec.wait()

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(admissions); i++ {
		gap := admissions[i].Sub(admissions[i-1])
		if gap < minInterval-5*time.Millisecond {
			t.Fatalf("admission gap %d = %s, want >= ~%s", i, gap, minInterval)
		}
	}
}

func TestExecutorConcurrencyBoundDefersDequeue(t *testing.T) {
	q := newQueue(10)
	exec := newExecutor(q, 0, 1, clock.Real, newLogger(nil))

	release := make(chan struct{})
	firstStarted := make(chan struct{})

	var mu sync.Mutex
	secondRan := false

	mustEnqueue(t, q, func() {
		close(firstStarted)
		<-release
	}, 0)
	mustEnqueue(t, q, func() {
		mu.Lock()
		secondRan = true
		mu.Unlock()
	}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go exec.run(ctx)

	select {
	case <-firstStarted:
	case <-time.After(time.Second):
		t.Fatal("first job never started")
	}

	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	ran := secondRan
	mu.Unlock()
	if ran {
		t.Fatal("second job ran before the concurrency slot freed")
	}

	close(release)

	deadline := time.After(time.Second)
	for {
		mu.Lock()
		ran = secondRan
		mu.Unlock()
		if ran {
			break
		}
		select {
		case <-deadline:
			t.Fatal("second job never ran after the slot freed")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
