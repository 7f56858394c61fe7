// Package engine implements Control and its poller loop: the top-level
// lifecycle that ties the Store, priority worker pool and Executor
// together into a running poll-dispatch loop. Grounded on the teacher's
// internal/worker.Worker.Start/dispatcherLoop, generalized from a single
// fixed-size worker channel to the priority-partitioned pool and from
// "claim one row" to "claim a batch."
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/amitbasuri/taskrunner/internal/executor"
	"github.com/amitbasuri/taskrunner/internal/hooks"
	"github.com/amitbasuri/taskrunner/internal/models"
	"github.com/amitbasuri/taskrunner/internal/pool"
	"github.com/amitbasuri/taskrunner/internal/registry"
	"github.com/amitbasuri/taskrunner/internal/storage"
)

// Settings configures Control.
type Settings struct {
	Concurrency   int
	SleepInterval time.Duration
	ReadAhead     int
	WorkerID      string
	Logger        *slog.Logger
}

// Control is the top-level engine lifecycle: lazily starts the worker
// pool and poller loop, and on Stop invokes every held handler's Halt
// hook in parallel before tearing down.
type Control struct {
	store    storage.Store
	exec     *executor.Executor
	hooks    *hooks.Dispatcher
	settings Settings
	logger   *slog.Logger

	mu      sync.Mutex
	pool    *pool.Pool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool

	pendingMu sync.Mutex
	pending   map[int64]pendingAttempt
}

type pendingAttempt struct {
	handler registry.Handler
	methods hooks.Methods
}

// New returns a Control wired to store and exec. exec must already be
// holding a HookDispatcher-aware resolve/attempt path; engine only needs
// the dispatcher separately to invoke Halt on shutdown against whichever
// handler currently occupies a pending slot, which it tracks itself.
func New(store storage.Store, exec *executor.Executor, dispatcher *hooks.Dispatcher, settings Settings) *Control {
	if settings.Logger == nil {
		settings.Logger = slog.Default()
	}
	if settings.Concurrency < 1 {
		settings.Concurrency = 1
	}
	if settings.ReadAhead < 1 {
		settings.ReadAhead = 1
	}
	if settings.SleepInterval <= 0 {
		settings.SleepInterval = time.Second
	}
	c := &Control{
		store:    store,
		exec:     exec,
		hooks:    dispatcher,
		settings: settings,
		logger:   settings.Logger,
		pending:  make(map[int64]pendingAttempt),
	}
	exec.SetTracker(c)
	return c
}

// Start lazily instantiates the pool and begins poller cycles. If
// immediate is true, one tick runs synchronously before Start returns.
func (c *Control) Start(ctx context.Context, immediate bool) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	rootCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.pool = pool.New(rootCtx, c.settings.Concurrency)
	c.started = true
	c.mu.Unlock()

	if immediate {
		c.tick(rootCtx)
	}

	c.wg.Add(1)
	go c.run(rootCtx)
}

// run is the poller loop: on SleepInterval ticks, claim a batch and
// dispatch it until the context is cancelled.
func (c *Control) run(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.settings.SleepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

// tick claims one batch and dispatches it. The pool's Submit never
// refuses a submission outright (it only blocks until the pool accepts
// it or the context is done), so there is no separate overflow path: a
// batch returned from a cancelled Submit is simply dropped, since root
// cancellation means the engine is stopping.
func (c *Control) tick(ctx context.Context) {
	tasks, err := c.store.GetAndLockNextAvailable(ctx, c.settings.ReadAhead, c.settings.WorkerID)
	if err != nil {
		c.logger.Error("poller: claim batch", "error", err)
		return
	}
	if len(tasks) == 0 {
		return
	}
	c.dispatch(ctx, tasks)
}

// dispatch submits every task in the batch to the pool and waits for the
// whole batch to complete.
func (c *Control) dispatch(ctx context.Context, tasks []*models.ScheduledTask) {
	results := make([]<-chan error, len(tasks))
	for i, task := range tasks {
		task := task
		var deadline time.Duration
		if task.MaximumRuntime != nil {
			deadline = *task.MaximumRuntime
		}
		results[i] = c.pool.Submit(task.Priority, func(unitCtx context.Context) error {
			return c.exec.Run(unitCtx, task)
		}, deadline)
	}

	for i, result := range results {
		if err := <-result; err != nil {
			c.logger.Warn("attempt ended with error", "task_id", tasks[i].ID, "error", err)
		}
	}
}

// Stop invokes Halt in parallel for every handler currently occupying a
// slot, disposes the pool, stops the poller and waits for outstanding
// work to unwind.
func (c *Control) Stop(immediate bool) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = false
	p := c.pool
	cancel := c.cancel
	c.mu.Unlock()

	haltErr := c.haltPending(immediate)

	cancel()
	if p != nil {
		p.Stop()
	}
	c.wg.Wait()

	return haltErr
}

// Dispose is equivalent to Stop(immediate=true) plus release of internal
// maps.
func (c *Control) Dispose() error {
	err := c.Stop(true)
	c.pendingMu.Lock()
	c.pending = make(map[int64]pendingAttempt)
	c.pendingMu.Unlock()
	return err
}

// Track implements executor.Tracker: it registers handler as occupying
// taskID's slot. The Executor calls Untrack on every exit path, including
// panics.
func (c *Control) Track(taskID int64, handler registry.Handler, methods hooks.Methods) {
	c.pendingMu.Lock()
	c.pending[taskID] = pendingAttempt{handler: handler, methods: methods}
	c.pendingMu.Unlock()
}

// Untrack implements executor.Tracker.
func (c *Control) Untrack(taskID int64) {
	c.pendingMu.Lock()
	delete(c.pending, taskID)
	c.pendingMu.Unlock()
}

// haltPending invokes Halt(immediate) in parallel for every pending
// handler, aggregating failures with go-multierror so no failure is lost
// even though every Halt still runs, and clears the pending set.
func (c *Control) haltPending(immediate bool) error {
	c.pendingMu.Lock()
	snapshot := make([]pendingAttempt, 0, len(c.pending))
	for _, p := range c.pending {
		snapshot = append(snapshot, p)
	}
	c.pending = make(map[int64]pendingAttempt)
	c.pendingMu.Unlock()

	if len(snapshot) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(snapshot))
	for _, p := range snapshot {
		if !p.methods.Halt {
			continue
		}
		wg.Add(1)
		go func(p pendingAttempt) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs <- fmt.Errorf("halt hook panicked: %v", r)
				}
			}()
			c.hooks.InvokeHalt(p.handler, p.methods, immediate)
		}(p)
	}
	wg.Wait()
	close(errs)

	var result *multierror.Error
	for err := range errs {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
