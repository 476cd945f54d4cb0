package tempo

import (
	"context"
	"sync"
	"time"

	"github.com/billie-coop/tempo/internal/clock"
)

// executor repeatedly admits one task per minInterval, under a concurrency
// bound, and tolerates job failures (they are routed into the job's own
// Handle, never observed here).
//
// The admission order is: acquire a concurrency slot, then wait out the
// remainder of minInterval since the last admission, and only then dequeue.
// Deferring the dequeue keeps a task in the queue (not "reserved" ahead of
// time) for as long as the loop is stalled on concurrency or pacing, so a
// higher-priority submission that arrives during the stall is still picked
// first: priority wins strictly at the moment of dequeue.
type executor struct {
	queue       *Queue
	minInterval time.Duration
	clock       clock.Clock
	sem         chan struct{}
	wg          sync.WaitGroup

	logger *logger
}

func newExecutor(queue *Queue, minInterval time.Duration, maxConcurrent int, clk clock.Clock, lg *logger) *executor {
	return &executor{
		queue:       queue,
		minInterval: minInterval,
		clock:       clk,
		sem:         make(chan struct{}, maxConcurrent),
		logger:      lg,
	}
}

// run drives admissions until ctx is done. It returns only after ctx is
// done and every goroutine it launched has been handed off (it does not
// itself wait for in-flight jobs to finish — callers use wait for that).
func (e *executor) run(ctx context.Context) {
	var lastAdmission time.Time
	haveLast := false

	for {
		select {
		case e.sem <- struct{}{}:
		case <-ctx.Done():
			return
		}

		if haveLast {
			if remaining := e.minInterval - e.clock.Now().Sub(lastAdmission); remaining > 0 {
				timer := e.clock.NewTimer(remaining)
				select {
				case <-timer.C():
				case <-ctx.Done():
					timer.Stop()
					<-e.sem
					return
				}
			}
		}

		run, ok := e.queue.Dequeue(ctx)
		if !ok {
			<-e.sem
			return
		}

		lastAdmission = e.clock.Now()
		haveLast = true
		e.logger.debug("admit")

		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			defer func() { <-e.sem }()
			run()
		}()
	}
}

// wait blocks until every launched job has returned. Call after ctx passed
// to run has been cancelled.
func (e *executor) wait() {
	e.wg.Wait()
}
