package task

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreAssignsMonotonicIDs(t *testing.T) {
	store := NewStore()

	first := store.Register(New(OpRemoteStartTransaction, OriginExternal, "api", nil, []string{"CB-1"}))
	second := store.Register(New(OpRemoteStopTransaction, OriginExternal, "api", nil, []string{"CB-1"}))

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)

	got, err := store.Get(first)
	require.NoError(t, err)
	assert.Equal(t, first, got.ID())

	_, err = store.Get(99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskRecordsOutcomePerTarget(t *testing.T) {
	task := New(OpSetChargingProfile, OriginExternal, "api", nil, []string{"CB-1", "CB-2"})

	assert.Equal(t, 2, task.RequestCount())
	assert.Equal(t, 0, task.ResponseCount())
	assert.False(t, task.Completed())
	assert.Nil(t, task.EndedAt())

	recorded, completed := task.RecordResponse("CB-1", "Accepted")
	assert.True(t, recorded)
	assert.False(t, completed)
	assert.False(t, task.Completed())

	recorded, completed = task.RecordFailure("CB-2", "timeout")
	assert.True(t, recorded)
	assert.True(t, completed)
	assert.True(t, task.Completed())
	assert.NotNil(t, task.EndedAt())

	results := task.Results()
	require.Len(t, results, 2)
	assert.Equal(t, "Accepted", *results["CB-1"].Response)
	assert.Equal(t, "timeout", *results["CB-2"].ErrorMessage)
}

func TestTaskIgnoresDuplicateAndUnknownOutcomes(t *testing.T) {
	task := New(OpRemoteStartTransaction, OriginExternal, "api", nil, []string{"CB-1"})

	recorded, completed := task.RecordResponse("CB-1", "Accepted")
	assert.True(t, recorded)
	assert.True(t, completed)

	// A late duplicate must not flip the outcome or re-complete the task.
	recorded, completed = task.RecordFailure("CB-1", "late timeout")
	assert.False(t, recorded)
	assert.False(t, completed)
	assert.Equal(t, "Accepted", *task.Results()["CB-1"].Response)

	recorded, _ = task.RecordResponse("CB-unknown", "Accepted")
	assert.False(t, recorded)
	assert.Equal(t, 1, task.RequestCount())
}

func TestTaskConcurrentCallbacksCompleteExactlyOnce(t *testing.T) {
	const targets = 64

	ids := make([]string, 0, targets)
	for i := 0; i < targets; i++ {
		ids = append(ids, fmt.Sprintf("CB-%d", i))
	}
	task := New(OpRemoteStopTransaction, OriginInternal, "reaper", nil, ids)

	var completions int32
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(chargeBoxID string) {
			defer wg.Done()
			// Each target races a success against a failure; only one may land.
			_, c1 := task.RecordResponse(chargeBoxID, "Accepted")
			_, c2 := task.RecordFailure(chargeBoxID, "timeout")
			if c1 || c2 {
				mu.Lock()
				completions++
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	assert.True(t, task.Completed())
	assert.Equal(t, targets, task.ResponseCount())
	assert.Equal(t, int32(1), completions)
}

func TestStoreOverviewOrderedByID(t *testing.T) {
	store := NewStore()
	for i := 0; i < 5; i++ {
		store.Register(New(OpGetCompositeSchedule, OriginExternal, "api", nil, []string{"CB-1"}))
	}

	overview := store.Overview()
	require.Len(t, overview, 5)
	for i, o := range overview {
		assert.Equal(t, i+1, o.TaskID)
	}
}

func TestStoreClearFinishedKeepsInFlightTasks(t *testing.T) {
	store := NewStore()

	done := New(OpRemoteStartTransaction, OriginExternal, "api", nil, []string{"CB-1"})
	doneID := store.Register(done)
	done.RecordResponse("CB-1", "Accepted")

	inFlight := New(OpRemoteStartTransaction, OriginExternal, "api", nil, []string{"CB-2"})
	inFlightID := store.Register(inFlight)

	store.ClearFinished()

	_, err := store.Get(doneID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get(inFlightID)
	assert.NoError(t, err)

	// Running it again with nothing to remove is fine.
	store.ClearFinished()
	_, err = store.Get(inFlightID)
	assert.NoError(t, err)
}
