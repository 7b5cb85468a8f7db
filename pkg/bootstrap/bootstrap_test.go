package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hodei/pipelines/pkg/pool"
	"github.com/hodei/pipelines/pkg/storage"
	"github.com/hodei/pipelines/pkg/types"
)

const manifestYAML = `
resource_pools:
  - id: pool-a
    name: pool-a
    cpu_cores: 16
    memory_gb: 64
    disk_gb: 500
    nodes: 2

queues:
  - id: default
    name: default
    resource_pool_id: pool-a
    type: priority
    base_priority: normal
    max_concurrent_jobs: 4

worker_pools:
  - id: wp-build
    name: build
    resource_pool_id: pool-a
    image: hodei/worker:latest
    cpu_millis: 2000
    memory_bytes: 4294967296
    max_size: 8
    scaling:
      min_workers: 1
      max_workers: 8
      strategy: reactive
      scale_up_threshold: 3
      scale_up_wait_time: 30s
      scale_up_cooldown: 1m
      scale_down_cooldown: 5m

quotas:
  - pool_id: pool-a
    policy: hard
    max_cpu_cores: 12
    max_memory_gb: 48
    max_concurrent_jobs: 10
`

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bootstrap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newStore(t *testing.T) storage.Store {
	t.Helper()
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestApplySeedsAllEntities(t *testing.T) {
	m, err := Load(writeManifest(t, manifestYAML))
	require.NoError(t, err)

	store := newStore(t)
	pools := pool.NewManager(time.Minute)
	require.NoError(t, Apply(store, pools, m))

	rp, err := store.GetPool("pool-a")
	require.NoError(t, err)
	assert.Equal(t, types.PoolStatusActive, rp.Status)
	assert.Equal(t, 16.0, rp.Capacity.TotalCPUCores)
	assert.Equal(t, 16.0, rp.Capacity.AvailableCPU)

	q, err := store.GetQueue("default")
	require.NoError(t, err)
	assert.Equal(t, types.QueueTypePriority, q.QueueType)
	assert.Equal(t, types.PriorityNormal, q.BasePriority)
	assert.True(t, q.IsActive)
	assert.Equal(t, 4, q.MaxConcurrentJobs)

	wp, err := pools.GetPool("wp-build")
	require.NoError(t, err)
	assert.Equal(t, "pool-a", wp.ResourcePoolID)
	assert.Equal(t, "hodei/worker:latest", wp.Template.Image)
	require.NotNil(t, wp.ScalingPolicy)
	assert.True(t, wp.ScalingPolicy.Enabled)
	assert.Equal(t, types.StrategyReactive, wp.ScalingPolicy.Strategy)
	assert.Equal(t, 30*time.Second, wp.ScalingPolicy.ScaleUpWaitTime)

	quota, err := store.GetQuotaByPool("pool-a")
	require.NoError(t, err)
	assert.Equal(t, types.QuotaPolicyHard, quota.Policy)
	assert.True(t, quota.Enabled)
	assert.Equal(t, 12.0, quota.Limits.MaxCPUCores)
}

func TestApplyIsIdempotent(t *testing.T) {
	m, err := Load(writeManifest(t, manifestYAML))
	require.NoError(t, err)

	store := newStore(t)
	pools := pool.NewManager(time.Minute)
	require.NoError(t, Apply(store, pools, m))

	// Mutate a seeded queue, then re-apply: the change survives
	q, err := store.GetQueue("default")
	require.NoError(t, err)
	q.MaxConcurrentJobs = 99
	require.NoError(t, store.UpdateQueue(q))

	require.NoError(t, Apply(store, pools, m))

	q, err = store.GetQueue("default")
	require.NoError(t, err)
	assert.Equal(t, 99, q.MaxConcurrentJobs)

	quotas, err := store.ListQuotas()
	require.NoError(t, err)
	assert.Len(t, quotas, 1)
}

func TestApplyRejectsUnknownEnums(t *testing.T) {
	store := newStore(t)
	pools := pool.NewManager(time.Minute)

	err := Apply(store, pools, &Manifest{
		Queues: []QueueSpec{{ID: "q1", Name: "q1", Type: "round-robin"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown queue type")

	err = Apply(store, pools, &Manifest{
		Quotas: []QuotaSpec{{PoolID: "pool-a", Policy: "strict"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown quota policy")
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
