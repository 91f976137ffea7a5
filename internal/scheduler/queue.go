package scheduler

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"
	"time"
)

// Clock abstracts time so delayed tasks can be driven by virtual time in
// tests.
type Clock interface {
	Now() time.Time
	// After fires once d has elapsed.
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

type task struct {
	key string
	at  time.Time
	fn  func(context.Context)
}

type taskHeap []*task

func (h taskHeap) Len() int            { return len(h) }
func (h taskHeap) Less(i, j int) bool  { return h[i].at.Before(h[j].at) }
func (h taskHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x interface{}) { *h = append(*h, x.(*task)) }
func (h *taskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}

// DelayedQueue runs scheduled tasks from a single goroutine, ordered by fire
// time. Tasks are never cancelled once scheduled; deduplication lives with
// the caller's pending-id sets, not here. One min-heap plus one timer
// replaces a per-id OS timer.
type DelayedQueue struct {
	clock Clock

	mu    sync.Mutex
	tasks taskHeap
	wake  chan struct{}
}

func NewDelayedQueue(clock Clock) *DelayedQueue {
	if clock == nil {
		clock = RealClock()
	}
	return &DelayedQueue{
		clock: clock,
		wake:  make(chan struct{}, 1),
	}
}

// Schedule enqueues fn to run after delay. The key is only used for logging.
func (q *DelayedQueue) Schedule(key string, delay time.Duration, fn func(context.Context)) {
	q.mu.Lock()
	heap.Push(&q.tasks, &task{key: key, at: q.clock.Now().Add(delay), fn: fn})
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Len returns the number of scheduled-but-unexecuted tasks.
func (q *DelayedQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Run executes due tasks until ctx is cancelled. Each task runs on the queue
// goroutine; a panicking task is recovered and logged so one bad callback
// cannot lose the loop.
func (q *DelayedQueue) Run(ctx context.Context) {
	for {
		q.mu.Lock()
		var next *task
		if len(q.tasks) > 0 {
			next = q.tasks[0]
		}
		q.mu.Unlock()

		if next == nil {
			select {
			case <-ctx.Done():
				return
			case <-q.wake:
			}
			continue
		}

		wait := next.at.Sub(q.clock.Now())
		if wait > 0 {
			select {
			case <-ctx.Done():
				return
			case <-q.wake:
				// an earlier task may have arrived; re-evaluate
			case <-q.clock.After(wait):
			}
			continue
		}

		q.mu.Lock()
		due := heap.Pop(&q.tasks).(*task)
		q.mu.Unlock()
		q.execute(ctx, due)
	}
}

func (q *DelayedQueue) execute(ctx context.Context, t *task) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "Scheduled task panicked",
				"key", t.key,
				"panic", r)
		}
	}()
	t.fn(ctx)
}
