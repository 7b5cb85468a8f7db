package pool

import (
	"context"
	"testing"
	"time"

	"github.com/hodei/pipelines/pkg/driver"
	"github.com/hodei/pipelines/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDriver records ScaleTo calls without touching a daemon
type fakeDriver struct {
	scaleCalls []scaleCall
	instances  map[string][]*driver.Instance
}

type scaleCall struct {
	poolID string
	target int
	spec   *driver.InstanceSpec
}

func (f *fakeDriver) Provision(ctx context.Context, poolID string, spec *driver.InstanceSpec) (string, error) {
	return spec.WorkerID, nil
}
func (f *fakeDriver) Terminate(ctx context.Context, instanceID string) error { return nil }
func (f *fakeDriver) Inspect(ctx context.Context, instanceID string) (driver.InstanceStatus, error) {
	return driver.InstanceRunning, nil
}
func (f *fakeDriver) List(ctx context.Context, poolID string) ([]*driver.Instance, error) {
	return f.instances[poolID], nil
}
func (f *fakeDriver) ListAll(ctx context.Context) ([]*driver.Instance, error) { return nil, nil }
func (f *fakeDriver) ScaleTo(ctx context.Context, poolID string, target int, spec *driver.InstanceSpec) (*driver.ScaleResult, error) {
	f.scaleCalls = append(f.scaleCalls, scaleCall{poolID: poolID, target: target, spec: spec})
	return &driver.ScaleResult{Requested: target, Actual: target}, nil
}
func (f *fakeDriver) AvailableInstanceTypes(poolID string) []driver.InstanceType { return nil }
func (f *fakeDriver) HealthCheck(ctx context.Context) (*driver.Health, error) {
	return &driver.Health{Healthy: true}, nil
}
func (f *fakeDriver) Stats(ctx context.Context, instanceID string) (*driver.Stats, error) {
	return &driver.Stats{InstanceID: instanceID}, nil
}
func (f *fakeDriver) Close() error { return nil }

func reactivePolicy() *types.ScalingPolicy {
	return &types.ScalingPolicy{
		MinWorkers:       0,
		MaxWorkers:       5,
		ScaleUpThreshold: 3,
		ScaleUpWaitTime:  30 * time.Second,
		ScaleUpCooldown:  60 * time.Second,
		Strategy:         types.StrategyReactive,
		Enabled:          true,
	}
}

func TestReactiveEmptyQueueCollapsesToMin(t *testing.T) {
	policy := reactivePolicy()
	policy.MinWorkers = 1

	snap := &Snapshot{QueueLength: 0, AvailableWorkers: 4}
	assert.Equal(t, 1, CalculateOptimal(policy, snap))
}

func TestReactiveSmallBacklogHoldsSteady(t *testing.T) {
	snap := &Snapshot{QueueLength: 2, AvailableWorkers: 3}
	assert.Equal(t, 3, CalculateOptimal(reactivePolicy(), snap))
}

func TestReactiveScaleUpUnderBacklog(t *testing.T) {
	// 0 ready workers, 5 queued jobs, 90s average wait: backlog adds one,
	// wait over 30s adds one more
	snap := &Snapshot{QueueLength: 5, AvgWaitTime: 90 * time.Second, AvailableWorkers: 0}
	assert.Equal(t, 2, CalculateOptimal(reactivePolicy(), snap))
}

func TestReactiveLongWaitAddsTwo(t *testing.T) {
	snap := &Snapshot{QueueLength: 5, AvgWaitTime: 3 * time.Minute, AvailableWorkers: 1}
	assert.Equal(t, 4, CalculateOptimal(reactivePolicy(), snap))
}

func TestPredictiveFormula(t *testing.T) {
	policy := reactivePolicy()
	policy.Strategy = types.StrategyPredictive

	// 2 + floor(6*0.5 + 20*0.1) = 2 + 5 = 7, clamped to max 5
	snap := &Snapshot{QueueLength: 6, AvgWaitTime: 20 * time.Second, AvailableWorkers: 2}
	assert.Equal(t, 5, CalculateOptimal(policy, snap))

	// 1 + floor(2*0.5 + 10*0.1) = 1 + 2 = 3
	snap = &Snapshot{QueueLength: 2, AvgWaitTime: 10 * time.Second, AvailableWorkers: 1}
	assert.Equal(t, 3, CalculateOptimal(policy, snap))
}

func TestResourceBasedClampsToCapacity(t *testing.T) {
	policy := reactivePolicy()
	policy.Strategy = types.StrategyResourceBased
	policy.MaxWorkers = 10

	snap := &Snapshot{
		QueueLength:      10, // ceil(10*1.2) = 12
		AvailableWorkers: 0,
		AvailableCPU:     8000,
		AvailableMemory:  16 << 30,
		WorkerCPU:        2000,    // cpu permits 4
		WorkerMemory:     2 << 30, // memory permits 8
		AvailableNodes:   2,       // node cap 10
	}
	assert.Equal(t, 4, CalculateOptimal(policy, snap))
}

func TestShouldScaleUpRespectsCooldown(t *testing.T) {
	policy := reactivePolicy()
	now := time.Now()
	snap := &Snapshot{QueueLength: 5, AvgWaitTime: time.Minute, AvailableWorkers: 1}

	assert.True(t, ShouldScaleUp(policy, snap, now))

	policy.LastScaleAction = &types.ScaleAction{Direction: types.ScaleUp, Timestamp: now.Add(-10 * time.Second)}
	assert.False(t, ShouldScaleUp(policy, snap, now))

	// Cooldown window elapsed
	policy.LastScaleAction.Timestamp = now.Add(-2 * time.Minute)
	assert.True(t, ShouldScaleUp(policy, snap, now))
}

func TestShouldScaleUpAtMaxIsSuppressed(t *testing.T) {
	policy := reactivePolicy()
	snap := &Snapshot{QueueLength: 10, AvgWaitTime: time.Minute, AvailableWorkers: 5}
	assert.False(t, ShouldScaleUp(policy, snap, time.Now()))
}

func TestShouldScaleDown(t *testing.T) {
	policy := reactivePolicy()
	policy.MinWorkers = 1
	policy.ScaleDownThreshold = 20
	policy.ScaleDownCooldown = time.Minute
	now := time.Now()

	idle := &Snapshot{QueueLength: 0, WorkerUtilization: 5, AvailableWorkers: 3}
	assert.True(t, ShouldScaleDown(policy, idle, now))

	// Never below min
	atMin := &Snapshot{QueueLength: 0, WorkerUtilization: 5, AvailableWorkers: 1}
	assert.False(t, ShouldScaleDown(policy, atMin, now))

	busy := &Snapshot{QueueLength: 0, WorkerUtilization: 80, AvailableWorkers: 3}
	assert.False(t, ShouldScaleDown(policy, busy, now))

	policy.LastScaleAction = &types.ScaleAction{Direction: types.ScaleDown, Timestamp: now.Add(-10 * time.Second)}
	assert.False(t, ShouldScaleDown(policy, idle, now))
}

func TestEvaluateScalesThroughDriver(t *testing.T) {
	manager := NewManager(time.Minute)
	drv := &fakeDriver{instances: map[string][]*driver.Instance{}}
	scaler := NewAutoscaler(manager, drv)

	wp := &types.WorkerPool{
		ID:             "wp-1",
		Name:           "build",
		ResourcePoolID: "pool-1",
		Template:       &types.WorkerTemplate{Image: "hodei/worker:latest", CPUMillis: 1000, MemoryBytes: 2 << 30},
		ScalingPolicy:  reactivePolicy(),
	}

	snap := &Snapshot{QueueLength: 5, AvgWaitTime: 90 * time.Second, AvailableWorkers: 0}
	action, err := scaler.Evaluate(context.Background(), wp, snap)
	require.NoError(t, err)
	require.NotNil(t, action)

	assert.Equal(t, types.ScaleUp, action.Direction)
	assert.Equal(t, 0, action.FromSize)
	assert.Equal(t, 2, action.ToSize)
	require.Len(t, drv.scaleCalls, 1)
	assert.Equal(t, "pool-1", drv.scaleCalls[0].poolID)
	assert.Equal(t, 2, drv.scaleCalls[0].target)

	// The recorded action starts the cooldown: an immediate second tick
	// does nothing
	action2, err := scaler.Evaluate(context.Background(), wp, snap)
	require.NoError(t, err)
	assert.Nil(t, action2)
	assert.Len(t, drv.scaleCalls, 1)
}

func TestEvaluateInjectsWorkerEnv(t *testing.T) {
	manager := NewManager(time.Minute)
	drv := &fakeDriver{instances: map[string][]*driver.Instance{}}
	scaler := NewAutoscaler(manager, drv)
	scaler.SetAdvertise("orc.internal", "9090")

	wp := &types.WorkerPool{
		ID:             "wp-1",
		Name:           "build",
		ResourcePoolID: "pool-1",
		Template: &types.WorkerTemplate{
			Image:  "hodei/worker:latest",
			Env:    map[string]string{"CUSTOM": "1"},
			Labels: map[string]string{"zone": "eu-1", "arch": "amd64"},
		},
		ScalingPolicy: reactivePolicy(),
	}

	snap := &Snapshot{QueueLength: 5, AvgWaitTime: 90 * time.Second, AvailableWorkers: 0}
	_, err := scaler.Evaluate(context.Background(), wp, snap)
	require.NoError(t, err)

	require.Len(t, drv.scaleCalls, 1)
	env := drv.scaleCalls[0].spec.Env
	assert.Equal(t, "wp-1", env["HODEI_WORKER_POOL_ID"])
	assert.Equal(t, "orc.internal", env["HODEI_ORCHESTRATOR_HOST"])
	assert.Equal(t, "9090", env["HODEI_ORCHESTRATOR_PORT"])
	assert.Equal(t, "arch=amd64,zone=eu-1", env["WORKER_LABELS"])
	assert.Equal(t, "1", env["CUSTOM"])

	// The template's own env map is never mutated
	assert.Equal(t, map[string]string{"CUSTOM": "1"}, wp.Template.Env)
}

func TestScaleDownDrainsReadyWorkersOnly(t *testing.T) {
	manager := NewManager(time.Minute)
	drv := &fakeDriver{instances: map[string][]*driver.Instance{}}
	scaler := NewAutoscaler(manager, drv)

	require.NoError(t, manager.AddPool(&types.WorkerPool{ID: "pool-1", Name: "build"}))
	require.NoError(t, manager.RegisterWorker(&types.Worker{ID: "w1", PoolID: "pool-1"}))
	require.NoError(t, manager.RegisterWorker(&types.Worker{ID: "w2", PoolID: "pool-1"}))
	require.NoError(t, manager.RegisterWorker(&types.Worker{ID: "w3", PoolID: "pool-1"}))
	require.NoError(t, manager.SetWorkerStatus("w1", types.WorkerStatusBusy))

	policy := reactivePolicy()
	policy.MinWorkers = 1
	policy.ScaleDownThreshold = 50
	policy.ScaleDownCooldown = time.Minute

	wp := &types.WorkerPool{
		ID:             "wp-1",
		Name:           "build",
		ResourcePoolID: "pool-1",
		Template:       &types.WorkerTemplate{Image: "hodei/worker:latest"},
		ScalingPolicy:  policy,
	}

	snap := &Snapshot{QueueLength: 0, WorkerUtilization: 10, AvailableWorkers: 3}
	action, err := scaler.Evaluate(context.Background(), wp, snap)
	require.NoError(t, err)
	require.NotNil(t, action)
	assert.Equal(t, types.ScaleDown, action.Direction)
	assert.Equal(t, 1, action.ToSize)

	// BUSY worker w1 must be untouched
	w1, err := manager.GetWorker("w1")
	require.NoError(t, err)
	assert.Equal(t, types.WorkerStatusBusy, w1.Status)

	// Two of the READY workers are draining
	draining := 0
	for _, id := range []string{"w2", "w3"} {
		w, err := manager.GetWorker(id)
		require.NoError(t, err)
		if w.Status == types.WorkerStatusDraining {
			draining++
		}
	}
	assert.Equal(t, 2, draining)
}
