package postgres

import (
	"context"
	"time"

	"github.com/amitbasuri/taskrunner/internal/models"
)

// GetAndLockNextAvailable implements storage.Store.GetAndLockNextAvailable.
// Grounded on the teacher's ClaimNextTask: a single UPDATE ... FOR UPDATE
// SKIP LOCKED statement, generalized from "claim one row" to "claim up to
// n rows across all priorities," leaving priority-aware ordering to the
// PriorityWorkerPool once the batch is in hand.
//
// A row also counts as due if it's locked but its lock has aged out: the
// same 1.25x threshold models.ScheduledTask.RunningOvertime formalizes.
// Without this, a worker that crashes or is killed mid-attempt leaves its
// row locked forever, since nothing else ever clears locked_at — the
// store is the only place the crash-recovery half of the at-least-once
// contract (spec: "interrupted tasks become re-claimable when their lock
// ages out") can live, and this is that reclaim. Rows with no
// maximum_runtime_seconds never age out, matching RunningOvertime's own
// "no MaximumRuntime means no overtime" rule.
func (s *Store) GetAndLockNextAvailable(ctx context.Context, n int, workerID string) ([]*models.ScheduledTask, error) {
	now := time.Now().UTC()

	query := `
		UPDATE scheduled_tasks
		SET locked_at = $1, locked_by = $2
		WHERE id IN (
			SELECT id
			FROM scheduled_tasks
			WHERE run_at <= $1
			  AND succeeded_at IS NULL
			  AND failed_at IS NULL
			  AND (
			        locked_at IS NULL
			        OR (
			              maximum_runtime_seconds IS NOT NULL
			              AND locked_at <= $1 - (maximum_runtime_seconds * 1.25 * INTERVAL '1 second')
			            )
			      )
			ORDER BY priority DESC, created_at ASC
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + taskColumns

	rows, err := s.pool.Query(ctx, query, now, workerID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.ScheduledTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}
