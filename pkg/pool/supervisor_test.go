package pool

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hodei/pipelines/pkg/driver"
	"github.com/hodei/pipelines/pkg/storage"
	"github.com/hodei/pipelines/pkg/types"
)

func newSupervisorRig(t *testing.T, cfg SupervisorConfig) (*Supervisor, *Manager, *fakeDriver, storage.Store) {
	t.Helper()

	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	manager := NewManager(time.Minute)
	drv := &fakeDriver{instances: map[string][]*driver.Instance{}}
	sup := NewSupervisor(NewAutoscaler(manager, drv), manager, store, cfg)
	return sup, manager, drv, store
}

func queueJobs(t *testing.T, store storage.Store, n int, waitedFor time.Duration) {
	t.Helper()
	for i := 0; i < n; i++ {
		job := &types.Job{ID: "j" + strconv.Itoa(i)}
		require.NoError(t, store.CreateQueuedJob(&types.QueuedJob{
			Job:      job,
			QueueID:  "default",
			QueuedAt: time.Now().Add(-waitedFor),
		}))
	}
}

func TestSupervisorScalesUpOnBacklog(t *testing.T) {
	var gotPool string
	var gotAction *types.ScaleAction
	sup, manager, drv, store := newSupervisorRig(t, SupervisorConfig{
		OnAction: func(poolID string, action *types.ScaleAction) {
			gotPool = poolID
			gotAction = action
		},
	})

	require.NoError(t, manager.AddPool(&types.WorkerPool{
		ID:             "pool-1",
		Name:           "build",
		ResourcePoolID: "pool-1",
		Template:       &types.WorkerTemplate{Image: "hodei/worker:latest", CPUMillis: 1000, MemoryBytes: 2 << 30},
		ScalingPolicy:  reactivePolicy(),
	}))
	queueJobs(t, store, 5, 90*time.Second)

	sup.evaluate(context.Background())

	require.Len(t, drv.scaleCalls, 1)
	assert.Equal(t, "pool-1", drv.scaleCalls[0].poolID)
	assert.Equal(t, 2, drv.scaleCalls[0].target)
	assert.Equal(t, "pool-1", gotPool)
	require.NotNil(t, gotAction)
	assert.Equal(t, types.ScaleUp, gotAction.Direction)
}

func TestSupervisorSkipsPoolsWithoutPolicy(t *testing.T) {
	sup, manager, drv, store := newSupervisorRig(t, SupervisorConfig{})

	require.NoError(t, manager.AddPool(&types.WorkerPool{ID: "pool-1", Name: "build", ResourcePoolID: "pool-1"}))
	queueJobs(t, store, 10, time.Minute)

	sup.evaluate(context.Background())
	assert.Empty(t, drv.scaleCalls)
}

func TestSupervisorSnapshotUsesUtilization(t *testing.T) {
	sup, _, _, _ := newSupervisorRig(t, SupervisorConfig{})

	sup.observe(&types.PoolUtilization{
		PoolID:           "pool-1",
		TotalCPUCores:    8,
		UsedCPUCores:     6,
		TotalMemoryBytes: 16 << 30,
		UsedMemoryBytes:  4 << 30,
	})

	wp := &types.WorkerPool{
		ResourcePoolID: "pool-1",
		CurrentSize:    3,
		Template:       &types.WorkerTemplate{CPUMillis: 2000, MemoryBytes: 2 << 30},
	}
	snap := sup.snapshot(wp, 4, 10*time.Second)

	assert.Equal(t, 4, snap.QueueLength)
	assert.Equal(t, 10*time.Second, snap.AvgWaitTime)
	assert.Equal(t, 3, snap.AvailableWorkers)
	assert.InDelta(t, 75.0, snap.WorkerUtilization, 0.01)
	assert.Equal(t, int64(2000), snap.AvailableCPU)
	assert.Equal(t, int64(12<<30), snap.AvailableMemory)
	assert.Equal(t, int64(2000), snap.WorkerCPU)
}

func TestSupervisorQueueBacklogAveragesWait(t *testing.T) {
	sup, _, _, store := newSupervisorRig(t, SupervisorConfig{})

	length, wait := sup.queueBacklog()
	assert.Zero(t, length)
	assert.Zero(t, wait)

	queueJobs(t, store, 4, time.Minute)
	length, wait = sup.queueBacklog()
	assert.Equal(t, 4, length)
	assert.InDelta(t, time.Minute.Seconds(), wait.Seconds(), 1.0)
}

func TestSupervisorConsumesUtilizationFeed(t *testing.T) {
	util := make(chan *types.PoolUtilization, 1)
	sup, _, _, _ := newSupervisorRig(t, SupervisorConfig{Interval: time.Hour, Utilization: util})

	sup.Start(context.Background())
	util <- &types.PoolUtilization{PoolID: "pool-1", TotalCPUCores: 4}

	require.Eventually(t, func() bool {
		sup.mu.Lock()
		defer sup.mu.Unlock()
		return sup.latest["pool-1"] != nil
	}, time.Second, 5*time.Millisecond)

	sup.Stop()
}
