package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/amitbasuri/taskrunner/internal/executor"
	"github.com/amitbasuri/taskrunner/internal/hooks"
	"github.com/amitbasuri/taskrunner/internal/models"
	"github.com/amitbasuri/taskrunner/internal/registry"
	"github.com/amitbasuri/taskrunner/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu      sync.Mutex
	batches [][]*models.ScheduledTask
	saved   []*models.ScheduledTask
}

func (f *fakeStore) GetAndLockNextAvailable(ctx context.Context, n int, workerID string) ([]*models.ScheduledTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.batches) == 0 {
		return nil, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

func (f *fakeStore) Save(ctx context.Context, task *models.ScheduledTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, task)
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, id int64) error { return nil }

func (f *fakeStore) GetTask(ctx context.Context, id int64) (*models.ScheduledTask, error) {
	return nil, storage.ErrTaskNotFound
}

func (f *fakeStore) RecordEvent(ctx context.Context, event models.Event) error { return nil }

func (f *fakeStore) GetEvents(ctx context.Context, taskID int64) ([]models.Event, error) {
	return nil, nil
}

func (f *fakeStore) GetStats(ctx context.Context) (*models.StatsResponse, error) { return nil, nil }

type holdingHandler struct {
	started    chan struct{}
	release    chan struct{}
	haltCalled bool
}

func (h *holdingHandler) Perform() bool {
	close(h.started)
	<-h.release
	return true
}

func (h *holdingHandler) Halt(immediate bool) { h.haltCalled = true }

type fakeResolver struct {
	handler registry.Handler
}

func (f fakeResolver) Resolve(ref models.HandlerReference) (registry.Handler, bool) {
	return f.handler, true
}

func TestControl_DispatchesClaimedBatch(t *testing.T) {
	h := &succeedHandler{}
	store := &fakeStore{batches: [][]*models.ScheduledTask{
		{{ID: 1, Priority: 0}},
	}}
	exec := executor.New(store, fakeResolver{handler: h}, hooks.New(), nil, nil, nil)
	ctrl := New(store, exec, hooks.New(), Settings{Concurrency: 1, SleepInterval: 10 * time.Millisecond, ReadAhead: 5})

	ctrl.Start(context.Background(), true)
	defer ctrl.Stop(true)

	require.Eventually(t, func() bool { return h.called }, time.Second, 5*time.Millisecond)
}

func TestControl_StopHaltsPendingHandlers(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	h := &holdingHandler{started: started, release: release}
	store := &fakeStore{batches: [][]*models.ScheduledTask{
		{{ID: 1, Priority: 0}},
	}}
	exec := executor.New(store, fakeResolver{handler: h}, hooks.New(), nil, nil, nil)
	ctrl := New(store, exec, hooks.New(), Settings{Concurrency: 1, SleepInterval: 10 * time.Millisecond, ReadAhead: 5})

	ctrl.Start(context.Background(), false)

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("handler never started")
	}

	stopDone := make(chan error, 1)
	go func() { stopDone <- ctrl.Stop(true) }()

	require.Eventually(t, func() bool { return h.haltCalled }, time.Second, 5*time.Millisecond)

	close(release)
	select {
	case err := <-stopDone:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Stop never returned")
	}
}

type succeedHandler struct {
	called bool
}

func (h *succeedHandler) Perform() bool {
	h.called = true
	return true
}
