package postgres

import (
	"context"

	"github.com/amitbasuri/taskrunner/internal/models"
)

// RecordEvent implements storage.Store.RecordEvent. Grounded on the
// teacher's InsertHistory: a plain append-only insert, called best-effort
// by every caller so a logging failure never fails the operation it
// describes.
func (s *Store) RecordEvent(ctx context.Context, event models.Event) error {
	query := `
		INSERT INTO scheduled_task_events (
			task_id, type, attempts, next_run_at, message, worker_id, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	_, err := s.pool.Exec(ctx, query,
		event.TaskID, event.Type, event.Attempts, event.NextRunAt, event.Message, event.WorkerID,
	)
	return err
}

// GetEvents implements storage.Store.GetEvents.
func (s *Store) GetEvents(ctx context.Context, taskID int64) ([]models.Event, error) {
	query := `
		SELECT id, task_id, type, attempts, next_run_at, message, worker_id, created_at
		FROM scheduled_task_events
		WHERE task_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.pool.Query(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.TaskID, &e.Type, &e.Attempts, &e.NextRunAt, &e.Message, &e.WorkerID, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
