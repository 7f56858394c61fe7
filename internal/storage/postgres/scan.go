package postgres

import (
	"time"

	"github.com/amitbasuri/taskrunner/internal/models"
	"github.com/jackc/pgx/v5"
)

// taskColumns lists every column selected/scanned for a ScheduledTask row,
// kept as one constant so every query stays in sync with scanTask.
const taskColumns = `
	id, priority, attempts,
	handler_namespace, handler_entrypoint, handler_payload,
	run_at, maximum_runtime_seconds, maximum_attempts,
	delete_on_success, delete_on_failure, delete_on_error,
	created_at, failed_at, succeeded_at, last_error,
	locked_at, locked_by, tags,
	expression, start_at, end_at,
	continue_on_success, continue_on_failure, continue_on_error
`

func scanTask(row pgx.Row) (*models.ScheduledTask, error) {
	var t models.ScheduledTask
	var maxRuntimeSeconds *int64
	var startAt *time.Time

	err := row.Scan(
		&t.ID, &t.Priority, &t.Attempts,
		&t.Handler.Namespace, &t.Handler.Entrypoint, &t.Handler.InstancePayload,
		&t.RunAt, &maxRuntimeSeconds, &t.MaximumAttempts,
		&t.DeleteOnSuccess, &t.DeleteOnFailure, &t.DeleteOnError,
		&t.CreatedAt, &t.FailedAt, &t.SucceededAt, &t.LastError,
		&t.LockedAt, &t.LockedBy, &t.Tags,
		&t.Expression, &startAt, &t.End,
		&t.ContinueOnSuccess, &t.ContinueOnFailure, &t.ContinueOnError,
	)
	if err != nil {
		return nil, err
	}

	if maxRuntimeSeconds != nil {
		d := time.Duration(*maxRuntimeSeconds) * time.Second
		t.MaximumRuntime = &d
	}
	if startAt != nil {
		t.Start = *startAt
	}

	return &t, nil
}

func maxRuntimeSecondsOf(t *models.ScheduledTask) *int64 {
	if t.MaximumRuntime == nil {
		return nil
	}
	s := int64(t.MaximumRuntime.Seconds())
	return &s
}

// nullableTime converts a zero time.Time to nil so recurrence-less tasks
// store a genuine SQL NULL in start_at rather than Go's zero time
// (0001-01-01).
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
