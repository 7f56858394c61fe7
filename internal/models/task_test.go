package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJobWillFail_NoMaximumMeansNeverTerminal(t *testing.T) {
	task := &ScheduledTask{Attempts: 100}
	assert.False(t, task.JobWillFail())
}

func TestJobWillFail_BelowThreshold(t *testing.T) {
	task := &ScheduledTask{Attempts: 2, MaximumAttempts: 3}
	assert.False(t, task.JobWillFail())
}

func TestJobWillFail_AtThreshold(t *testing.T) {
	task := &ScheduledTask{Attempts: 3, MaximumAttempts: 3}
	assert.True(t, task.JobWillFail())
}

func TestRunningOvertime_NotLocked(t *testing.T) {
	runtime := time.Second
	task := &ScheduledTask{MaximumRuntime: &runtime}
	assert.False(t, task.RunningOvertime(time.Now()))
}

func TestRunningOvertime_NoMaximumRuntime(t *testing.T) {
	locked := time.Now().Add(-time.Hour)
	task := &ScheduledTask{LockedAt: &locked}
	assert.False(t, task.RunningOvertime(time.Now()))
}

func TestRunningOvertime_BelowThreshold(t *testing.T) {
	runtime := 10 * time.Second
	locked := time.Now().Add(-11 * time.Second)
	task := &ScheduledTask{LockedAt: &locked, MaximumRuntime: &runtime}
	assert.False(t, task.RunningOvertime(time.Now()))
}

func TestRunningOvertime_AtThreshold(t *testing.T) {
	runtime := 10 * time.Second
	locked := time.Now().Add(-12500 * time.Millisecond)
	task := &ScheduledTask{LockedAt: &locked, MaximumRuntime: &runtime}
	assert.True(t, task.RunningOvertime(time.Now()))
}

func TestClone_ResetsLifecycleFields(t *testing.T) {
	now := time.Now().UTC()
	errMsg := "boom"
	locked := now
	lockedBy := "worker-1"
	runtime := 5 * time.Second

	original := &ScheduledTask{
		ID:                1,
		Priority:          9,
		Attempts:          3,
		Handler:           HandlerReference{Namespace: "ns", Entrypoint: "ep"},
		RunAt:             now,
		MaximumRuntime:    &runtime,
		MaximumAttempts:   5,
		DeleteOnSuccess:   true,
		CreatedAt:         now,
		FailedAt:          &now,
		LastError:         &errMsg,
		LockedAt:          &locked,
		LockedBy:          &lockedBy,
		Tags:              []string{"a", "b"},
		Expression:        "0 * * * *",
		Start:             now,
		ContinueOnSuccess: true,
		ContinueOnFailure: true,
		ContinueOnError:   true,
	}

	clone := original.Clone()

	assert.Equal(t, int64(0), clone.ID)
	assert.Equal(t, 0, clone.Attempts)
	assert.Nil(t, clone.LockedAt)
	assert.Nil(t, clone.LockedBy)
	assert.Nil(t, clone.FailedAt)
	assert.Nil(t, clone.SucceededAt)
	assert.Nil(t, clone.LastError)
	assert.Equal(t, original.Priority, clone.Priority)
	assert.Equal(t, original.Handler, clone.Handler)
	assert.Equal(t, original.Tags, clone.Tags)
	assert.Equal(t, original.Expression, clone.Expression)

	// Mutating the clone's tags must never alias the original's slice.
	clone.Tags[0] = "mutated"
	assert.Equal(t, "a", original.Tags[0])
}

func TestHandlerReference_CacheKeyDistinguishesPayload(t *testing.T) {
	a := HandlerReference{Namespace: "ns", Entrypoint: "ep", InstancePayload: `{"x":1}`}
	b := HandlerReference{Namespace: "ns", Entrypoint: "ep", InstancePayload: `{"x":2}`}
	assert.NotEqual(t, a.CacheKey(), b.CacheKey())
	assert.Equal(t, "ns.ep", a.QualifiedName())
}

func TestScheduledTask_Recurring(t *testing.T) {
	assert.False(t, (&ScheduledTask{}).Recurring())
	assert.True(t, (&ScheduledTask{Expression: "0 * * * *"}).Recurring())
}
