// Package recurrence implements recurring-task rescheduling: on terminal
// persistence of a recurring task's attempt, decide whether to clone it
// forward to its next occurrence. The teacher has no recurrence concept
// at all (its tasks never reschedule themselves beyond backoff), so this
// package is new code written in the teacher's idiom rather than an
// adaptation of an existing file.
package recurrence

import (
	"time"

	"github.com/amitbasuri/taskrunner/internal/models"
)

// Oracle is the subset of cronx.Oracle the Recurrence component needs.
type Oracle interface {
	Next(expression string, after time.Time) (t time.Time, ok bool, err error)
}

// Recurrence computes NextOccurrence and builds clone-forward rows.
type Recurrence struct {
	oracle Oracle
}

// New returns a Recurrence backed by oracle. Pass cronx.New() in
// production; tests may supply a fake Oracle.
func New(oracle Oracle) *Recurrence {
	return &Recurrence{oracle: oracle}
}

// NextOccurrence returns nil if the task has no Expression; otherwise the
// next occurrence strictly after RunAt, or nil if that occurrence would
// fall after End. Never materializes more than one occurrence.
func (r *Recurrence) NextOccurrence(task *models.ScheduledTask) (*time.Time, error) {
	if !task.Recurring() {
		return nil, nil
	}
	next, ok, err := r.oracle.Next(task.Expression, task.RunAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if task.End != nil && next.After(*task.End) {
		return nil, nil
	}
	return &next, nil
}

// CloneForward decides whether a just-finished attempt should produce a
// new row scheduled at the next occurrence, and builds that row if so.
// success and hadError describe the just-finished attempt; the hadError
// and !success cases are not mutually exclusive (a raised exception is
// also an unsuccessful attempt), so either ContinueOnFailure or
// ContinueOnError alone suffices to repeat. Returns nil, nil when no
// clone should be inserted.
func (r *Recurrence) CloneForward(task *models.ScheduledTask, success, hadError bool) (*models.ScheduledTask, error) {
	shouldRepeat := (success && task.ContinueOnSuccess) ||
		(!success && task.ContinueOnFailure) ||
		(hadError && task.ContinueOnError)
	if !shouldRepeat {
		return nil, nil
	}

	// Advance the window anchor to the just-finished occurrence before
	// computing the next one.
	advanced := *task
	advanced.Start = task.RunAt

	next, err := r.NextOccurrence(&advanced)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, nil
	}

	clone := advanced.Clone()
	clone.RunAt = *next
	return clone, nil
}
