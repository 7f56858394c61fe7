package postgres

import (
	"context"

	"github.com/amitbasuri/taskrunner/internal/models"
)

// GetStats implements storage.Store.GetStats, grounded on the teacher's
// GetStats query, generalized to this schema's status predicates (a
// ScheduledTask's status is derived from its timestamps rather than
// stored as an enum column).
func (s *Store) GetStats(ctx context.Context) (*models.StatsResponse, error) {
	query := `
		SELECT
			COUNT(*) AS total_tasks,
			COUNT(*) FILTER (WHERE locked_at IS NULL AND succeeded_at IS NULL AND failed_at IS NULL) AS queued_tasks,
			COUNT(*) FILTER (WHERE locked_at IS NOT NULL AND succeeded_at IS NULL AND failed_at IS NULL) AS running_tasks,
			COUNT(*) FILTER (WHERE succeeded_at IS NOT NULL) AS succeeded_tasks,
			COUNT(*) FILTER (WHERE failed_at IS NOT NULL) AS failed_tasks,
			COALESCE(AVG(attempts), 0) AS avg_attempts
		FROM scheduled_tasks
	`
	var stats models.StatsResponse
	err := s.pool.QueryRow(ctx, query).Scan(
		&stats.TotalTasks,
		&stats.QueuedTasks,
		&stats.RunningTasks,
		&stats.SucceededTasks,
		&stats.FailedTasks,
		&stats.AvgAttempts,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
