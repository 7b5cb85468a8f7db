package reconciler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hodei/pipelines/pkg/driver"
	"github.com/hodei/pipelines/pkg/pool"
	"github.com/hodei/pipelines/pkg/types"
)

// fakeDriver serves a canned instance list and records terminations
type fakeDriver struct {
	instances  []*driver.Instance
	terminated []string
}

func (f *fakeDriver) Provision(ctx context.Context, poolID string, spec *driver.InstanceSpec) (string, error) {
	return spec.WorkerID, nil
}
func (f *fakeDriver) Terminate(ctx context.Context, instanceID string) error {
	f.terminated = append(f.terminated, instanceID)
	return nil
}
func (f *fakeDriver) Inspect(ctx context.Context, instanceID string) (driver.InstanceStatus, error) {
	return driver.InstanceRunning, nil
}
func (f *fakeDriver) List(ctx context.Context, poolID string) ([]*driver.Instance, error) {
	return f.instances, nil
}
func (f *fakeDriver) ListAll(ctx context.Context) ([]*driver.Instance, error) {
	return f.instances, nil
}
func (f *fakeDriver) ScaleTo(ctx context.Context, poolID string, target int, spec *driver.InstanceSpec) (*driver.ScaleResult, error) {
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

type lostRecorder struct {
	lost []string
}

func (l *lostRecorder) OnWorkerLost(workerID string) {
	l.lost = append(l.lost, workerID)
}

func TestSweepStaleWorkers(t *testing.T) {
	pools := pool.NewManager(50 * time.Millisecond)
	require.NoError(t, pools.AddPool(&types.WorkerPool{ID: "pool-a", Name: "build"}))
	require.NoError(t, pools.RegisterWorker(&types.Worker{ID: "w1", PoolID: "pool-a"}))
	require.NoError(t, pools.RegisterWorker(&types.Worker{ID: "w2", PoolID: "pool-a"}))

	lost := &lostRecorder{}
	r := New(pools, &fakeDriver{}, lost, Config{})

	// Both workers fresh: nothing happens
	r.sweepStaleWorkers()
	assert.Empty(t, lost.lost)

	time.Sleep(60 * time.Millisecond)
	require.NoError(t, pools.Heartbeat("w2", ""))

	r.sweepStaleWorkers()
	assert.Equal(t, []string{"w1"}, lost.lost)

	_, err := pools.GetWorker("w1")
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = pools.GetWorker("w2")
	assert.NoError(t, err)
}

func TestSweepOrphanInstances(t *testing.T) {
	pools := pool.NewManager(time.Minute)
	require.NoError(t, pools.AddPool(&types.WorkerPool{ID: "pool-a", Name: "build"}))
	require.NoError(t, pools.RegisterWorker(&types.Worker{ID: "w1", PoolID: "pool-a"}))

	old := time.Now().Add(-10 * time.Minute)
	drv := &fakeDriver{instances: []*driver.Instance{
		{ID: "i-registered", PoolID: "pool-a", WorkerID: "w1", CreatedAt: old},
		{ID: "i-orphan", PoolID: "pool-a", WorkerID: "w-gone", CreatedAt: old},
		{ID: "i-anonymous", PoolID: "pool-a", CreatedAt: old},
		{ID: "i-fresh", PoolID: "pool-a", WorkerID: "w-new", CreatedAt: time.Now()},
	}}

	r := New(pools, drv, nil, Config{})
	r.sweepOrphanInstances(context.Background())

	assert.ElementsMatch(t, []string{"i-orphan", "i-anonymous"}, drv.terminated)
}

func TestProbePoolsReflectsVerdict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	pools := pool.NewManager(time.Minute)
	require.NoError(t, pools.AddPool(&types.WorkerPool{
		ID:   "pool-ok",
		Name: "healthy",
		Template: &types.WorkerTemplate{
			Probes: []*types.Probe{{Type: "http", Endpoint: srv.URL, Retries: 1}},
		},
	}))
	require.NoError(t, pools.AddPool(&types.WorkerPool{
		ID:   "pool-bad",
		Name: "failing",
		Template: &types.WorkerTemplate{
			Probes: []*types.Probe{{Type: "tcp", Endpoint: "127.0.0.1:1", Retries: 1, Timeout: 100 * time.Millisecond}},
		},
	}))

	r := New(pools, &fakeDriver{}, nil, Config{})
	r.probePools(context.Background())

	ok, err := pools.GetPool("pool-ok")
	require.NoError(t, err)
	assert.Equal(t, types.WorkerPoolStatusActive, ok.Status)

	bad, err := pools.GetPool("pool-bad")
	require.NoError(t, err)
	assert.Equal(t, types.WorkerPoolStatusError, bad.Status)

	// Checker state is cached across cycles
	r.probePools(context.Background())
	assert.Len(t, r.probes["pool-bad"], 1)
	assert.Equal(t, 2, r.probes["pool-bad"][0].status.ConsecutiveFailures)
}

func TestProbePoolsSkipsInvalidConfig(t *testing.T) {
	pools := pool.NewManager(time.Minute)
	require.NoError(t, pools.AddPool(&types.WorkerPool{
		ID:   "pool-a",
		Name: "build",
		Template: &types.WorkerTemplate{
			Probes: []*types.Probe{{Type: "icmp"}},
		},
	}))

	r := New(pools, &fakeDriver{}, nil, Config{})
	r.probePools(context.Background())

	wp, err := pools.GetPool("pool-a")
	require.NoError(t, err)
	assert.Equal(t, types.WorkerPoolStatusActive, wp.Status)
}

func TestStartStop(t *testing.T) {
	pools := pool.NewManager(time.Minute)
	r := New(pools, &fakeDriver{}, nil, Config{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r.Start(ctx)
	time.Sleep(30 * time.Millisecond)
	r.Stop()
}
