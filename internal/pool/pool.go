// Package pool implements a priority-partitioned worker pool: one FIFO
// queue per distinct priority value, submitted units run in submission
// order within a queue, and overall parallelism is capped across all
// queues by a configured concurrency. The per-priority-queue shape is
// grounded on the teacher's dispatcher/worker-channel split in
// internal/worker.Worker.Start; the cross-queue concurrency cap uses
// golang.org/x/sync/semaphore, the same weighted-semaphore pattern used
// elsewhere in this pack for bounding fan-out (bufbuild/protocompile's
// incremental executor).
package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// Unit is a single submitted piece of work. It must observe ctx
// cancellation cooperatively; the pool never forcibly terminates a
// running unit.
type Unit func(ctx context.Context) error

type submission struct {
	ctx    context.Context
	cancel context.CancelFunc
	unit   Unit
	result chan error
}

// priorityQueue owns its own close: a dedicated mutex serializes send
// against close so Submit can never send on a channel that close is
// concurrently closing, and so a send that loses the race observes
// closed==true instead of panicking.
type priorityQueue struct {
	mu     sync.Mutex
	ch     chan submission
	closed bool
}

// send enqueues sub, returning false if the queue is already closed or
// ctx is done before the send completes. The buffered channel means this
// only blocks when the queue is backed up; a concurrent close always
// wins the race cleanly because both run under mu.
func (q *priorityQueue) send(ctx context.Context, sub submission) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	select {
	case q.ch <- sub:
		return true
	case <-ctx.Done():
		return false
	}
}

// close marks the queue closed and closes its channel, idempotently.
func (q *priorityQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}

// Pool is a priority-partitioned worker pool with a global concurrency
// cap.
type Pool struct {
	sem *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc

	queuesMu sync.Mutex
	queues   map[int]*priorityQueue

	wg     sync.WaitGroup
	closed atomic.Bool
}

// New returns a Pool admitting up to concurrency units at a time across
// all priority queues.
func New(parent context.Context, concurrency int) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	ctx, cancel := context.WithCancel(parent)
	return &Pool{
		sem:    semaphore.NewWeighted(int64(concurrency)),
		ctx:    ctx,
		cancel: cancel,
		queues: make(map[int]*priorityQueue),
	}
}

// queueFor returns the queue for priority, lazily creating it on first
// use. Only one creation wins under concurrent first-use; the rest reuse
// it. If the pool is already stopped, the new queue is created already
// closed and no runQueue goroutine is started for it — otherwise that
// goroutine would range forever over a channel Stop never gets a chance
// to close, and p.wg.Wait() would hang. queuesMu is the same lock Stop
// holds while closing every existing queue, so the two can never
// disagree about whether the pool is stopped.
func (p *Pool) queueFor(priority int) *priorityQueue {
	p.queuesMu.Lock()
	defer p.queuesMu.Unlock()

	if q, ok := p.queues[priority]; ok {
		return q
	}

	q := &priorityQueue{ch: make(chan submission, 64)}
	p.queues[priority] = q

	if p.closed.Load() {
		q.close()
		return q
	}

	p.wg.Add(1)
	go p.runQueue(q)
	return q
}

// runQueue serializes execution of one priority's submissions: units
// within a queue run in submission order, but the semaphore means a
// queue's worker can still be interleaved with other queues' workers at
// the pool level; no ordering is promised across priorities.
func (p *Pool) runQueue(q *priorityQueue) {
	defer p.wg.Done()
	for sub := range q.ch {
		p.run(sub)
	}
}

func (p *Pool) run(sub submission) {
	defer sub.cancel()

	if err := p.sem.Acquire(sub.ctx, 1); err != nil {
		sub.result <- err
		close(sub.result)
		return
	}
	defer p.sem.Release(1)

	err := sub.unit(sub.ctx)
	sub.result <- err
	close(sub.result)
}

// Submit enqueues unit onto priority's queue and returns a future for its
// result. deadline <= 0 means no per-task timeout; the unit still
// inherits the pool's root cancellation. The returned channel receives
// exactly one value when the unit finishes, is cancelled, or times out.
func (p *Pool) Submit(priority int, unit Unit, deadline time.Duration) <-chan error {
	result := make(chan error, 1)

	if p.closed.Load() {
		result <- context.Canceled
		close(result)
		return result
	}

	var taskCtx context.Context
	var cancel context.CancelFunc
	if deadline > 0 {
		taskCtx, cancel = context.WithTimeout(p.ctx, deadline)
	} else {
		taskCtx, cancel = context.WithCancel(p.ctx)
	}

	sub := submission{ctx: taskCtx, cancel: cancel, unit: unit, result: result}
	q := p.queueFor(priority)

	if !q.send(p.ctx, sub) {
		cancel()
		// Either the queue was already closed or p.ctx fired while
		// waiting to enqueue; both only happen once Stop has begun, so
		// this is always a cancellation regardless of which one raced.
		result <- context.Canceled
		close(result)
	}
	return result
}

// Stop cancels every outstanding and future unit's token and waits for
// all queue workers to drain. After Stop, Submit always returns an
// already-cancelled future. Closing happens under queuesMu, the same
// lock queueFor takes to decide whether to start a new runQueue
// goroutine, so a queue created concurrently with Stop is either closed
// here or created already-closed — never left running with nobody left
// to close it.
func (p *Pool) Stop() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	p.cancel()

	p.queuesMu.Lock()
	for _, q := range p.queues {
		q.close()
	}
	p.queuesMu.Unlock()

	p.wg.Wait()
}
