// Package executor runs one attempt of a locked ScheduledTask, enforces
// the terminal failure and recurrence rules, and persists the outcome.
// Grounded on the teacher's internal/worker.Worker.processTask/
// executeTask/handleTaskSuccess/handleTaskFailure, generalized from a
// fixed success/fail dichotomy to a full hook-driven attempt lifecycle.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amitbasuri/taskrunner/internal/hooks"
	"github.com/amitbasuri/taskrunner/internal/models"
	"github.com/amitbasuri/taskrunner/internal/recurrence"
	"github.com/amitbasuri/taskrunner/internal/registry"
	"github.com/amitbasuri/taskrunner/internal/storage"
)

// IntervalFunction is a monotone, non-negative function of attempt
// count, called only after a failed attempt to compute the delay added
// to now for the next RunAt.
type IntervalFunction func(attempts int) time.Duration

// Resolver is the subset of registry.Registry the Executor needs.
type Resolver interface {
	Resolve(ref models.HandlerReference) (registry.Handler, bool)
}

// Tracker is notified when a handler starts and stops occupying a task's
// attempt slot. Control implements this to know which handlers to invoke
// Halt against on Stop.
type Tracker interface {
	Track(taskID int64, handler registry.Handler, methods hooks.Methods)
	Untrack(taskID int64)
}

// Executor runs one attempt of one ScheduledTask at a time. It holds no
// per-task state; every method call is independent and safe to invoke
// concurrently for distinct tasks (coordination across tasks is the
// Store's job — there is no cross-task locking here).
type Executor struct {
	store      storage.Store
	resolver   Resolver
	hooks      *hooks.Dispatcher
	interval   IntervalFunction
	recurrence *recurrence.Recurrence
	logger     *slog.Logger
	tracker    Tracker
}

// New returns an Executor. logger defaults to slog.Default() if nil.
func New(store storage.Store, resolver Resolver, dispatcher *hooks.Dispatcher, interval IntervalFunction, rec *recurrence.Recurrence, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		store:      store,
		resolver:   resolver,
		hooks:      dispatcher,
		interval:   interval,
		recurrence: rec,
		logger:     logger,
	}
}

// SetTracker installs t as the Executor's pending-slot tracker. Optional;
// a nil tracker (the default) means Halt? hooks are never invoked on
// shutdown, which is fine for callers that never run Control.Stop against
// this Executor (e.g. tests, or DelayTasks-style synchronous execution).
func (e *Executor) SetTracker(t Tracker) {
	e.tracker = t
}

// Run executes a full attempt for task, then applies the save rules and
// recurrence clone-forward. ctx carries the per-attempt deadline derived
// by the caller (the priority worker pool) from task.MaximumRuntime; Run
// itself never imposes a timeout.
func (e *Executor) Run(ctx context.Context, task *models.ScheduledTask) error {
	task.Attempts++

	handler, ok := e.resolver.Resolve(task.Handler)
	if !ok {
		msg := "Missing or invalid handler"
		task.LastError = &msg
		e.recordEvent(ctx, task, models.EventHandlerUnresolved, nil)
		return e.finish(ctx, task, false, false)
	}

	methods := e.hooks.MethodsFor(handler)

	if e.tracker != nil {
		e.tracker.Track(task.ID, handler, methods)
		defer e.tracker.Untrack(task.ID)
	}

	success, hadError := e.attempt(ctx, task, handler, methods)
	return e.finish(ctx, task, success, hadError)
}

// attempt runs the Before/Perform/Success/Failure/After hook sequence and
// its exception paths. It never panics out: a raised error from Perform
// or a hook is captured, not propagated, except that ctx cancellation is
// recorded as LastError="Cancelled".
func (e *Executor) attempt(ctx context.Context, task *models.ScheduledTask, handler registry.Handler, methods hooks.Methods) (success, hadError bool) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("handler panicked: %v", r)
			e.recordFailure(task, err)
			e.hooks.InvokeError(handler, methods, err)
			e.hooks.InvokeAfter(handler, methods)
			success = false
			hadError = true
		}
	}()

	proceed, _ := e.hooks.InvokeBefore(handler, methods)
	if proceed {
		success = handler.Perform()
	}

	// The handler interface has no ctx parameter, so the engine cannot
	// interrupt a running Perform call; it can only observe that the
	// token fired concurrently (deadline or root Stop) once Perform
	// returns.
	if ctx.Err() != nil {
		msg := "Cancelled"
		task.LastError = &msg
		e.hooks.InvokeAfter(handler, methods)
		return false, true
	}

	if success {
		e.hooks.InvokeSuccess(handler, methods)
	}

	// Failure fires whenever JobWillFail holds, independent of success —
	// the two hooks are not mutually exclusive on the terminal attempt.
	if task.JobWillFail() {
		e.hooks.InvokeFailure(handler, methods)
	}

	e.hooks.InvokeAfter(handler, methods)
	return success, hadError
}

func (e *Executor) recordFailure(task *models.ScheduledTask, err error) {
	msg := err.Error()
	task.LastError = &msg
}

// finish applies backoff on failure, the save-rules deletion or timestamp
// update, and recurrence clone-forward.
func (e *Executor) finish(ctx context.Context, task *models.ScheduledTask, success, hadError bool) error {
	now := time.Now().UTC()

	if !success && e.interval != nil {
		task.RunAt = now.Add(e.interval(task.Attempts))
	}

	deleted := false

	if !success && task.JobWillFail() {
		if task.DeleteOnFailure {
			if err := e.store.Delete(ctx, task.ID); err != nil && !errors.Is(err, storage.ErrTaskNotFound) {
				return fmt.Errorf("executor: delete on terminal failure: %w", err)
			}
			deleted = true
		} else {
			task.FailedAt = &now
		}
	} else if success {
		if task.DeleteOnSuccess {
			if err := e.store.Delete(ctx, task.ID); err != nil && !errors.Is(err, storage.ErrTaskNotFound) {
				return fmt.Errorf("executor: delete on success: %w", err)
			}
			deleted = true
		} else {
			task.SucceededAt = &now
		}
	}

	if deleted {
		return nil
	}

	task.LockedAt = nil
	task.LockedBy = nil

	if err := e.store.Save(ctx, task); err != nil {
		return fmt.Errorf("executor: save attempt outcome: %w", err)
	}

	if e.recurrence != nil {
		clone, err := e.recurrence.CloneForward(task, success, hadError)
		if err != nil {
			e.logger.Error("computing next occurrence", "task_id", task.ID, "error", err)
			return nil
		}
		if clone != nil {
			if err := e.store.Save(ctx, clone); err != nil {
				e.logger.Error("inserting recurrence clone", "task_id", task.ID, "error", err)
			}
		}
	}

	return ctx.Err()
}

func (e *Executor) recordEvent(ctx context.Context, task *models.ScheduledTask, eventType models.EventType, message *string) {
	attempts := task.Attempts
	if err := e.store.RecordEvent(ctx, models.Event{
		TaskID:   task.ID,
		Type:     eventType,
		Attempts: &attempts,
		Message:  message,
	}); err != nil {
		e.logger.Warn("recording event", "task_id", task.ID, "event", eventType, "error", err)
	}
}
