// Package storage defines the Store interface: the external, durable
// collaborator the engine polls, locks rows on, and saves to. The engine
// depends only on this interface; internal/storage/postgres is one
// concrete binding.
package storage

import (
	"context"
	"errors"

	"github.com/amitbasuri/taskrunner/internal/models"
)

// ErrTaskNotFound is returned when an operation targets a task ID that no
// longer exists (e.g. concurrently deleted).
var ErrTaskNotFound = errors.New("storage: task not found")

// Store is the durable backend the engine polls, locks, and saves to. Any
// transactional row-store can satisfy it: the engine never assumes
// anything about the backend beyond these operations' contracts.
type Store interface {
	// GetAndLockNextAvailable atomically selects up to n due-and-unlocked
	// rows (RunAt <= now, not locked or lock expired per Store policy),
	// marks them locked by workerID, and returns them. The same row must
	// never be returned to two concurrent callers.
	GetAndLockNextAvailable(ctx context.Context, n int, workerID string) ([]*models.ScheduledTask, error)

	// Save upserts by ID. A task with a zero ID is inserted (used both for
	// inserting recurrence clones and for producer-created tasks);
	// non-zero IDs are updated in place.
	Save(ctx context.Context, task *models.ScheduledTask) error

	// Delete removes the row by ID.
	Delete(ctx context.Context, id int64) error

	// GetTask retrieves a single task by ID.
	GetTask(ctx context.Context, id int64) (*models.ScheduledTask, error)

	// RecordEvent appends a best-effort lifecycle event. Failure to
	// record an event must never fail the operation it describes.
	RecordEvent(ctx context.Context, event models.Event) error

	// GetEvents retrieves the event history for a task, oldest first.
	GetEvents(ctx context.Context, taskID int64) ([]models.Event, error)

	// GetStats retrieves aggregate queue statistics for the dashboard.
	GetStats(ctx context.Context) (*models.StatsResponse, error)
}
