package postgres

import (
	"context"

	"github.com/amitbasuri/taskrunner/internal/models"
	"github.com/amitbasuri/taskrunner/internal/storage"
)

// Save implements storage.Store.Save: insert when ID is zero (new tasks
// and recurrence clones), update in place otherwise. Grounded on the
// teacher's CreateTask (insert) and ScheduleRetry/CompleteTask/
// MarkTaskFailed (update) combined into a single upsert.
func (s *Store) Save(ctx context.Context, task *models.ScheduledTask) error {
	if task.ID == 0 {
		return s.insert(ctx, task)
	}
	return s.update(ctx, task)
}

func (s *Store) insert(ctx context.Context, task *models.ScheduledTask) error {
	query := `
		INSERT INTO scheduled_tasks (
			priority, attempts,
			handler_namespace, handler_entrypoint, handler_payload,
			run_at, maximum_runtime_seconds, maximum_attempts,
			delete_on_success, delete_on_failure, delete_on_error,
			last_error, locked_at, locked_by, tags,
			expression, start_at, end_at,
			continue_on_success, continue_on_failure, continue_on_error
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING ` + taskColumns

	row := s.pool.QueryRow(ctx, query,
		task.Priority, task.Attempts,
		task.Handler.Namespace, task.Handler.Entrypoint, task.Handler.InstancePayload,
		task.RunAt, maxRuntimeSecondsOf(task), task.MaximumAttempts,
		task.DeleteOnSuccess, task.DeleteOnFailure, task.DeleteOnError,
		task.LastError, task.LockedAt, task.LockedBy, task.Tags,
		task.Expression, nullableTime(task.Start), task.End,
		task.ContinueOnSuccess, task.ContinueOnFailure, task.ContinueOnError,
	)

	saved, err := scanTask(row)
	if err != nil {
		return err
	}
	*task = *saved
	return nil
}

func (s *Store) update(ctx context.Context, task *models.ScheduledTask) error {
	query := `
		UPDATE scheduled_tasks
		SET
			priority = $1, attempts = $2,
			handler_namespace = $3, handler_entrypoint = $4, handler_payload = $5,
			run_at = $6, maximum_runtime_seconds = $7, maximum_attempts = $8,
			delete_on_success = $9, delete_on_failure = $10, delete_on_error = $11,
			failed_at = $12, succeeded_at = $13, last_error = $14,
			locked_at = $15, locked_by = $16, tags = $17,
			expression = $18, start_at = $19, end_at = $20,
			continue_on_success = $21, continue_on_failure = $22, continue_on_error = $23
		WHERE id = $24
	`

	result, err := s.pool.Exec(ctx, query,
		task.Priority, task.Attempts,
		task.Handler.Namespace, task.Handler.Entrypoint, task.Handler.InstancePayload,
		task.RunAt, maxRuntimeSecondsOf(task), task.MaximumAttempts,
		task.DeleteOnSuccess, task.DeleteOnFailure, task.DeleteOnError,
		task.FailedAt, task.SucceededAt, task.LastError,
		task.LockedAt, task.LockedBy, task.Tags,
		task.Expression, nullableTime(task.Start), task.End,
		task.ContinueOnSuccess, task.ContinueOnFailure, task.ContinueOnError,
		task.ID,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return storage.ErrTaskNotFound
	}
	return nil
}
