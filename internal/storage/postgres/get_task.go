package postgres

import (
	"context"
	"errors"

	"github.com/amitbasuri/taskrunner/internal/models"
	"github.com/amitbasuri/taskrunner/internal/storage"
	"github.com/jackc/pgx/v5"
)

// GetTask implements storage.Store.GetTask.
func (s *Store) GetTask(ctx context.Context, id int64) (*models.ScheduledTask, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM scheduled_tasks WHERE id = $1`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}
