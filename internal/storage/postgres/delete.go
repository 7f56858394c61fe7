package postgres

import (
	"context"

	"github.com/amitbasuri/taskrunner/internal/storage"
)

// Delete implements storage.Store.Delete.
func (s *Store) Delete(ctx context.Context, id int64) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM scheduled_tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return storage.ErrTaskNotFound
	}
	return nil
}
