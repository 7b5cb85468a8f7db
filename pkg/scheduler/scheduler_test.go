package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hodei/pipelines/pkg/pool"
	"github.com/hodei/pipelines/pkg/quota"
	"github.com/hodei/pipelines/pkg/storage"
	"github.com/hodei/pipelines/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) (*Scheduler, storage.Store, *pool.Manager) {
	t.Helper()
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	quotaEngine := quota.NewEngine(store, quota.Config{MonitorInterval: time.Hour})
	t.Cleanup(quotaEngine.Shutdown)

	pools := pool.NewManager(time.Minute)
	return NewScheduler(store, quotaEngine, pools), store, pools
}

func activePool(id string, availCPU, totalCPU float64) *types.ResourcePool {
	return &types.ResourcePool{
		ID:     id,
		Name:   id,
		Status: types.PoolStatusActive,
		Capacity: &types.PoolCapacity{
			TotalCPUCores:  totalCPU,
			AvailableCPU:   availCPU,
			TotalMemoryGB:  64,
			AvailableMemGB: 32,
		},
	}
}

func simpleJob(id string) *types.Job {
	return &types.Job{
		ID:        id,
		Name:      "build",
		Namespace: "default",
		Status:    types.JobStatusQueued,
		Definition: &types.JobDefinition{
			Inline: &types.InlineSpec{ScriptContent: "echo hi"},
		},
	}
}

func TestFindPlacementPrefersLowestUtilization(t *testing.T) {
	sched, store, _ := newTestScheduler(t)

	require.NoError(t, store.CreatePool(activePool("pool-a", 2, 8))) // 75% used
	require.NoError(t, store.CreatePool(activePool("pool-b", 6, 8))) // 25% used

	placed, err := sched.FindPlacement(context.Background(), simpleJob("j1"))
	require.NoError(t, err)
	assert.Equal(t, "pool-b", placed.ID)
}

func TestFindPlacementSkipsInactivePools(t *testing.T) {
	sched, store, _ := newTestScheduler(t)

	draining := activePool("pool-a", 8, 8)
	draining.Status = types.PoolStatusDraining
	require.NoError(t, store.CreatePool(draining))

	_, err := sched.FindPlacement(context.Background(), simpleJob("j1"))
	require.Error(t, err)

	var pe *types.ProvisioningError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, types.ReasonResourceUnavailable, pe.Reason)
}

func TestFindPlacementHonorsHardQuota(t *testing.T) {
	sched, store, _ := newTestScheduler(t)

	require.NoError(t, store.CreatePool(activePool("pool-a", 8, 8)))
	require.NoError(t, store.CreateQuota(&types.ResourceQuota{
		ID:      "q1",
		PoolID:  "pool-a",
		Policy:  types.QuotaPolicyHard,
		Enabled: true,
		Limits:  types.QuotaLimits{MaxConcurrentJobs: 1},
	}))

	// First admission fits; simulate it being in flight
	quotaEngine := sched.quota
	require.NoError(t, quotaEngine.AddJob("pool-a", 0, 0, 0))

	_, err := sched.FindPlacement(context.Background(), simpleJob("j2"))
	require.Error(t, err)

	// Dry-run checks must not persist violations
	violations, err := store.ListViolations()
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestFindPlacementTiebreaksByIDAndCost(t *testing.T) {
	sched, store, _ := newTestScheduler(t)

	a := activePool("pool-a", 4, 8)
	b := activePool("pool-b", 4, 8)
	require.NoError(t, store.CreatePool(a))
	require.NoError(t, store.CreatePool(b))

	placed, err := sched.FindPlacement(context.Background(), simpleJob("j1"))
	require.NoError(t, err)
	assert.Equal(t, "pool-a", placed.ID)

	// Cheaper pool wins over the lexicographic tiebreak
	b.CostWeight = 0
	a.CostWeight = 2
	require.NoError(t, store.UpdatePool(a))
	require.NoError(t, store.UpdatePool(b))

	placed, err = sched.FindPlacement(context.Background(), simpleJob("j1"))
	require.NoError(t, err)
	assert.Equal(t, "pool-b", placed.ID)
}

func TestFindPlacementMatchesCapabilities(t *testing.T) {
	sched, store, pools := newTestScheduler(t)

	require.NoError(t, store.CreatePool(activePool("pool-a", 8, 8)))
	require.NoError(t, store.CreatePool(activePool("pool-b", 8, 8)))
	require.NoError(t, pools.AddPool(&types.WorkerPool{
		ID:   "pool-b",
		Name: "go-workers",
		Template: &types.WorkerTemplate{
			Image:        "hodei/worker:go",
			Capabilities: &types.WorkerCapabilities{Languages: []string{"go"}, Tools: []string{"make"}},
		},
	}))

	job := simpleJob("j1")
	job.Definition.Inline.Requirements = &types.WorkerRequirements{Languages: []string{"go"}}

	placed, err := sched.FindPlacement(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "pool-b", placed.ID)

	job.Definition.Inline.Requirements.Tools = []string{"bazel"}
	_, err = sched.FindPlacement(context.Background(), job)
	assert.Error(t, err)
}

func TestFindPlacementRejectsOversizedRequest(t *testing.T) {
	sched, store, _ := newTestScheduler(t)

	require.NoError(t, store.CreatePool(activePool("pool-a", 2, 8)))

	job := simpleJob("j1")
	job.Definition.Inline.Requirements = &types.WorkerRequirements{CPUMillis: 4000}

	_, err := sched.FindPlacement(context.Background(), job)
	assert.Error(t, err)
}
