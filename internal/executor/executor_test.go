package executor

import (
	"context"
	"testing"
	"time"

	"github.com/amitbasuri/taskrunner/internal/hooks"
	"github.com/amitbasuri/taskrunner/internal/models"
	"github.com/amitbasuri/taskrunner/internal/recurrence"
	"github.com/amitbasuri/taskrunner/internal/registry"
	"github.com/amitbasuri/taskrunner/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	saved   []*models.ScheduledTask
	deleted []int64
	events  []models.Event
	nextID  int64
}

func (m *memStore) GetAndLockNextAvailable(ctx context.Context, n int, workerID string) ([]*models.ScheduledTask, error) {
	return nil, nil
}

func (m *memStore) Save(ctx context.Context, task *models.ScheduledTask) error {
	if task.ID == 0 {
		m.nextID++
		task.ID = m.nextID
	}
	m.saved = append(m.saved, task)
	return nil
}

func (m *memStore) Delete(ctx context.Context, id int64) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memStore) GetTask(ctx context.Context, id int64) (*models.ScheduledTask, error) {
	return nil, storage.ErrTaskNotFound
}

func (m *memStore) RecordEvent(ctx context.Context, event models.Event) error {
	m.events = append(m.events, event)
	return nil
}

func (m *memStore) GetEvents(ctx context.Context, taskID int64) ([]models.Event, error) {
	return nil, nil
}

func (m *memStore) GetStats(ctx context.Context) (*models.StatsResponse, error) {
	return nil, nil
}

type fakeResolver struct {
	handler registry.Handler
	ok      bool
}

func (f fakeResolver) Resolve(ref models.HandlerReference) (registry.Handler, bool) {
	return f.handler, f.ok
}

type succeedingHandler struct {
	successCalled, failureCalled, afterCalled bool
}

func (h *succeedingHandler) Perform() bool { return true }
func (h *succeedingHandler) Success()      { h.successCalled = true }
func (h *succeedingHandler) Failure()      { h.failureCalled = true }
func (h *succeedingHandler) After()        { h.afterCalled = true }

type failingHandler struct{}

func (h *failingHandler) Perform() bool { return false }

func noBackoff(attempts int) time.Duration { return 0 }

func TestExecutor_MissingHandler(t *testing.T) {
	store := &memStore{}
	exec := New(store, fakeResolver{ok: false}, hooks.New(), noBackoff, nil, nil)

	task := &models.ScheduledTask{ID: 1, MaximumAttempts: 3}
	err := exec.Run(context.Background(), task)
	require.NoError(t, err)

	require.NotNil(t, task.LastError)
	assert.Equal(t, "Missing or invalid handler", *task.LastError)
	assert.Equal(t, 1, task.Attempts)
	require.Len(t, store.saved, 1)
}

func TestExecutor_SuccessWithoutTerminalFailure(t *testing.T) {
	store := &memStore{}
	h := &succeedingHandler{}
	exec := New(store, fakeResolver{handler: h, ok: true}, hooks.New(), noBackoff, nil, nil)

	task := &models.ScheduledTask{ID: 1, MaximumAttempts: 5}
	err := exec.Run(context.Background(), task)
	require.NoError(t, err)

	assert.True(t, h.successCalled)
	assert.False(t, h.failureCalled)
	assert.True(t, h.afterCalled)
	require.NotNil(t, task.SucceededAt)
	assert.Nil(t, task.FailedAt)
}

func TestExecutor_LiteralFailureAlongsideSuccess(t *testing.T) {
	store := &memStore{}
	h := &succeedingHandler{}
	exec := New(store, fakeResolver{handler: h, ok: true}, hooks.New(), noBackoff, nil, nil)

	task := &models.ScheduledTask{ID: 1, Attempts: 2, MaximumAttempts: 3}
	err := exec.Run(context.Background(), task)
	require.NoError(t, err)

	assert.True(t, h.successCalled)
	assert.True(t, h.failureCalled, "Failure? must fire once Attempts reaches MaximumAttempts even on success")
}

func TestExecutor_TerminalFailureWithDeletion(t *testing.T) {
	store := &memStore{}
	h := &failingHandler{}
	exec := New(store, fakeResolver{handler: h, ok: true}, hooks.New(), noBackoff, nil, nil)

	task := &models.ScheduledTask{ID: 1, Attempts: 1, MaximumAttempts: 2, DeleteOnFailure: true}
	err := exec.Run(context.Background(), task)
	require.NoError(t, err)

	require.Len(t, store.deleted, 1)
	assert.Equal(t, int64(1), store.deleted[0])
	assert.Empty(t, store.saved)
}

func TestExecutor_BackoffAdvancesRunAt(t *testing.T) {
	store := &memStore{}
	h := &failingHandler{}
	interval := func(attempts int) time.Duration { return time.Duration(attempts) * 10 * time.Second }
	exec := New(store, fakeResolver{handler: h, ok: true}, hooks.New(), interval, nil, nil)

	before := time.Now().UTC()
	task := &models.ScheduledTask{ID: 1, RunAt: before, MaximumAttempts: 5}
	err := exec.Run(context.Background(), task)
	require.NoError(t, err)

	assert.True(t, task.RunAt.After(before))
}

func TestExecutor_RecurrenceClonesOnSuccess(t *testing.T) {
	store := &memStore{}
	h := &succeedingHandler{}
	runAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	oracle := fakeOracle{next: runAt.Add(time.Hour), ok: true}
	rec := recurrence.New(oracle)
	exec := New(store, fakeResolver{handler: h, ok: true}, hooks.New(), noBackoff, rec, nil)

	task := &models.ScheduledTask{
		ID:                1,
		RunAt:             runAt,
		Expression:        "0 * * * *",
		ContinueOnSuccess: true,
	}
	err := exec.Run(context.Background(), task)
	require.NoError(t, err)

	require.Len(t, store.saved, 2)
	clone := store.saved[1]
	assert.Equal(t, 0, clone.Attempts)
	assert.True(t, clone.RunAt.After(task.RunAt) || clone.RunAt.Equal(runAt.Add(time.Hour)))
}

type fakeOracle struct {
	next time.Time
	ok   bool
}

func (f fakeOracle) Next(expression string, after time.Time) (time.Time, bool, error) {
	return f.next, f.ok, nil
}
