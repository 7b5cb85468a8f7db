package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pb "github.com/hodei/pipelines/api/proto"
	"github.com/hodei/pipelines/pkg/artifact"
	"github.com/hodei/pipelines/pkg/driver"
	"github.com/hodei/pipelines/pkg/events"
	"github.com/hodei/pipelines/pkg/executor"
	"github.com/hodei/pipelines/pkg/listener"
	"github.com/hodei/pipelines/pkg/pool"
	"github.com/hodei/pipelines/pkg/quota"
	"github.com/hodei/pipelines/pkg/scheduler"
	"github.com/hodei/pipelines/pkg/storage"
	"github.com/hodei/pipelines/pkg/types"
)

type stubSession struct {
	workerID string
	jobs     []*pb.JobRequest
}

func (s *stubSession) WorkerID() string { return s.workerID }
func (s *stubSession) SendJob(req *pb.JobRequest) error {
	s.jobs = append(s.jobs, req)
	return nil
}
func (s *stubSession) SendSignal(sig *pb.ControlSignal) error { return nil }
func (s *stubSession) IsCached(ctx context.Context, artifactID, checksum string) (bool, error) {
	return false, nil
}
func (s *stubSession) TransferArtifact(ctx context.Context, artifactID string, payload []byte, compression types.CompressionType) error {
	return nil
}

type stubHub struct {
	sessions map[string]*stubSession
}

func (h *stubHub) Session(workerID string) (executor.Session, bool) {
	s, ok := h.sessions[workerID]
	return s, ok
}

type noopDriver struct{}

func (noopDriver) Provision(ctx context.Context, poolID string, spec *driver.InstanceSpec) (string, error) {
	return spec.WorkerID, nil
}
func (noopDriver) Terminate(ctx context.Context, instanceID string) error { return nil }
func (noopDriver) Inspect(ctx context.Context, instanceID string) (driver.InstanceStatus, error) {
	return driver.InstanceRunning, nil
}
func (noopDriver) List(ctx context.Context, poolID string) ([]*driver.Instance, error) {
	return nil, nil
}
func (noopDriver) ListAll(ctx context.Context) ([]*driver.Instance, error) { return nil, nil }
func (noopDriver) ScaleTo(ctx context.Context, poolID string, target int, spec *driver.InstanceSpec) (*driver.ScaleResult, error) {
	return &driver.ScaleResult{}, nil
}
func (noopDriver) AvailableInstanceTypes(poolID string) []driver.InstanceType { return nil }
func (noopDriver) HealthCheck(ctx context.Context) (*driver.Health, error) {
	return &driver.Health{Healthy: true}, nil
}
func (noopDriver) Stats(ctx context.Context, instanceID string) (*driver.Stats, error) {
	return &driver.Stats{InstanceID: instanceID}, nil
}
func (noopDriver) Close() error { return nil }

type rig struct {
	orch    *Orchestrator
	store   storage.Store
	pools   *pool.Manager
	session *stubSession
	exec    *executor.Engine
}

func newRig(t *testing.T) *rig {
	t.Helper()

	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	quotaEngine := quota.NewEngine(store, quota.Config{MonitorInterval: time.Hour})
	t.Cleanup(quotaEngine.Shutdown)

	pools := pool.NewManager(time.Minute)
	sched := scheduler.NewScheduler(store, quotaEngine, pools)

	require.NoError(t, store.CreatePool(&types.ResourcePool{
		ID:     "pool-a",
		Name:   "pool-a",
		Status: types.PoolStatusActive,
		Capacity: &types.PoolCapacity{
			TotalCPUCores:  8,
			AvailableCPU:   8,
			TotalMemoryGB:  32,
			AvailableMemGB: 32,
		},
	}))
	require.NoError(t, pools.AddPool(&types.WorkerPool{ID: "pool-a", Name: "pool-a"}))
	require.NoError(t, pools.RegisterWorker(&types.Worker{
		ID:         "worker-1",
		PoolID:     "pool-a",
		InstanceID: "i-1",
		Status:     types.WorkerStatusReady,
	}))

	session := &stubSession{workerID: "worker-1"}

	registry := listener.NewRegistry()
	t.Cleanup(registry.Shutdown)

	library, err := artifact.NewLibrary(t.TempDir(), store)
	require.NoError(t, err)

	exec := executor.NewEngine(executor.Config{
		Store:     store,
		Quota:     quotaEngine,
		Pools:     pools,
		Driver:    noopDriver{},
		Hub:       &stubHub{sessions: map[string]*stubSession{"worker-1": session}},
		Listeners: registry,
		Artifacts: library,
		Events:    events.NewEventBroker(),
	})

	orch := New(store, sched, exec, events.NewEventBroker(), Config{})
	return &rig{orch: orch, store: store, pools: pools, session: session, exec: exec}
}

func addQueue(t *testing.T, r *rig, q *types.JobQueue) {
	t.Helper()
	if q.QueueType == "" {
		q.QueueType = types.QueueTypeFIFO
	}
	if q.BasePriority == "" {
		q.BasePriority = types.PriorityNormal
	}
	q.IsActive = true
	require.NoError(t, r.store.CreateQueue(q))
}

func newJob(id string) *types.Job {
	return &types.Job{
		ID:        id,
		Name:      "job-" + id,
		Namespace: "default",
		Definition: &types.JobDefinition{
			Inline: &types.InlineSpec{ScriptContent: "make"},
		},
	}
}

func TestSubmitQueuesJob(t *testing.T) {
	r := newRig(t)
	addQueue(t, r, &types.JobQueue{ID: "q1", Name: "default", ResourcePoolID: "pool-a"})

	qj, err := r.orch.Submit(newJob("j1"), "q1", SubmitOptions{})
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusQueued, qj.Job.Status)
	assert.Equal(t, 1, qj.MaxAttempts)

	stored, err := r.store.GetJob("j1")
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusQueued, stored.Status)
}

func TestSubmitRejectsUnknownQueue(t *testing.T) {
	r := newRig(t)
	_, err := r.orch.Submit(newJob("j1"), "missing", SubmitOptions{})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestSubmitRejectsInactiveQueue(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.store.CreateQueue(&types.JobQueue{
		ID: "q1", Name: "paused", QueueType: types.QueueTypeFIFO, IsActive: false,
	}))

	_, err := r.orch.Submit(newJob("j1"), "q1", SubmitOptions{})
	assert.True(t, types.IsValidation(err))
}

func TestSubmitRejectsDuplicate(t *testing.T) {
	r := newRig(t)
	addQueue(t, r, &types.JobQueue{ID: "q1", Name: "default"})

	_, err := r.orch.Submit(newJob("j1"), "q1", SubmitOptions{})
	require.NoError(t, err)

	_, err = r.orch.Submit(newJob("j1"), "q1", SubmitOptions{})
	assert.ErrorIs(t, err, types.ErrAlreadyQueued)
}

func TestSubmitRejectsFullQueue(t *testing.T) {
	r := newRig(t)
	addQueue(t, r, &types.JobQueue{ID: "q1", Name: "small", MaxQueuedJobs: 1})

	_, err := r.orch.Submit(newJob("j1"), "q1", SubmitOptions{})
	require.NoError(t, err)

	_, err = r.orch.Submit(newJob("j2"), "q1", SubmitOptions{})
	assert.ErrorIs(t, err, types.ErrQueueFull)
}

func TestProcessDispatchesFIFO(t *testing.T) {
	r := newRig(t)
	addQueue(t, r, &types.JobQueue{ID: "q1", Name: "default", MaxConcurrentJobs: 1})

	_, err := r.orch.Submit(newJob("j1"), "q1", SubmitOptions{})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = r.orch.Submit(newJob("j2"), "q1", SubmitOptions{})
	require.NoError(t, err)

	r.orch.processQueues(context.Background())

	require.Len(t, r.session.jobs, 1)
	assert.Equal(t, "j1", r.session.jobs[0].GetJobId())

	stored, err := r.store.GetJob("j1")
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusRunning, stored.Status)

	// Second pass has no slot until the first job finishes
	r.orch.processQueues(context.Background())
	assert.Len(t, r.session.jobs, 1)
}

func TestPriorityQueueOrdering(t *testing.T) {
	r := newRig(t)
	addQueue(t, r, &types.JobQueue{
		ID: "q1", Name: "prio", QueueType: types.QueueTypePriority, MaxConcurrentJobs: 1,
	})

	now := time.Now()

	submit := func(id string, prio types.JobPriority, queuedAgo time.Duration, deadline time.Time) {
		job := newJob(id)
		job.Priority = prio
		qj, err := r.orch.Submit(job, "q1", SubmitOptions{Deadline: deadline})
		require.NoError(t, err)
		qj.QueuedAt = now.Add(-queuedAgo)
		require.NoError(t, r.store.UpdateQueuedJob(qj))
	}

	// normal, 2h wait: 512. high, 1h wait: 806.
	// normal, 2h wait, deadline passed: 1012.
	submit("j-normal", types.PriorityNormal, 2*time.Hour, time.Time{})
	submit("j-high", types.PriorityHigh, time.Hour, time.Time{})
	submit("j-deadline", types.PriorityNormal, 2*time.Hour, now.Add(-time.Minute))

	r.orch.processQueues(context.Background())

	require.Len(t, r.session.jobs, 1)
	assert.Equal(t, "j-deadline", r.session.jobs[0].GetJobId())
}

func TestLIFODispatchesNewestFirst(t *testing.T) {
	r := newRig(t)
	addQueue(t, r, &types.JobQueue{
		ID: "q1", Name: "lifo", QueueType: types.QueueTypeLIFO, MaxConcurrentJobs: 1,
	})

	_, err := r.orch.Submit(newJob("j1"), "q1", SubmitOptions{})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = r.orch.Submit(newJob("j2"), "q1", SubmitOptions{})
	require.NoError(t, err)

	r.orch.processQueues(context.Background())

	require.Len(t, r.session.jobs, 1)
	assert.Equal(t, "j2", r.session.jobs[0].GetJobId())
}

// finishExecution completes the most recently dispatched job through the
// executor and feeds the result back into the orchestrator.
func finishExecution(t *testing.T, r *rig, status pb.JobStatusProto, exitCode int32, message string) {
	t.Helper()
	require.NotEmpty(t, r.session.jobs)
	execID := r.session.jobs[len(r.session.jobs)-1].GetExecutionId()

	r.exec.OnStatus(&pb.JobStatusUpdate{
		ExecutionId: execID,
		Status:      status,
		ExitCode:    exitCode,
		Message:     message,
	})

	select {
	case res := <-r.exec.Results():
		r.orch.handleResult(res)
	case <-time.After(time.Second):
		t.Fatal("executor emitted no result")
	}
}

func TestFailedJobRetriesUntilBudgetExhausted(t *testing.T) {
	r := newRig(t)
	addQueue(t, r, &types.JobQueue{ID: "q1", Name: "default", MaxConcurrentJobs: 1})

	_, err := r.orch.Submit(newJob("j1"), "q1", SubmitOptions{MaxAttempts: 2})
	require.NoError(t, err)

	// First attempt fails: back in the queue
	r.orch.processQueues(context.Background())
	require.Len(t, r.session.jobs, 1)
	finishExecution(t, r, pb.JobStatusProto_JOB_STATUS_FAILED, 1, "boom")

	stored, err := r.store.GetJob("j1")
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusQueued, stored.Status)

	// Second attempt fails: budget exhausted, terminal failure
	r.orch.processQueues(context.Background())
	require.Len(t, r.session.jobs, 2)
	finishExecution(t, r, pb.JobStatusProto_JOB_STATUS_FAILED, 1, "boom again")

	stored, err = r.store.GetJob("j1")
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusFailed, stored.Status)
	assert.Equal(t, "boom again", stored.FailureReason)

	_, err = r.store.GetQueuedJob("j1")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestSuccessfulJobCompletes(t *testing.T) {
	r := newRig(t)
	addQueue(t, r, &types.JobQueue{ID: "q1", Name: "default", MaxConcurrentJobs: 1})

	_, err := r.orch.Submit(newJob("j1"), "q1", SubmitOptions{})
	require.NoError(t, err)

	r.orch.processQueues(context.Background())
	finishExecution(t, r, pb.JobStatusProto_JOB_STATUS_SUCCESS, 0, "")

	stored, err := r.store.GetJob("j1")
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusCompleted, stored.Status)

	_, err = r.store.GetQueuedJob("j1")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestCancelQueuedJob(t *testing.T) {
	r := newRig(t)
	addQueue(t, r, &types.JobQueue{ID: "q1", Name: "default"})

	_, err := r.orch.Submit(newJob("j1"), "q1", SubmitOptions{})
	require.NoError(t, err)

	require.NoError(t, r.orch.Cancel(context.Background(), "j1"))

	stored, err := r.store.GetJob("j1")
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusCancelled, stored.Status)

	// Cancelled job never dispatches
	r.orch.processQueues(context.Background())
	assert.Empty(t, r.session.jobs)
}

func TestRequeueOnNoPlacement(t *testing.T) {
	r := newRig(t)
	addQueue(t, r, &types.JobQueue{ID: "q1", Name: "default", MaxConcurrentJobs: 1})

	// Drain the only pool so placement fails
	pools, err := r.store.ListPools()
	require.NoError(t, err)
	pools[0].Status = types.PoolStatusDraining
	require.NoError(t, r.store.UpdatePool(pools[0]))

	_, err = r.orch.Submit(newJob("j1"), "q1", SubmitOptions{MaxAttempts: 3})
	require.NoError(t, err)

	r.orch.processQueues(context.Background())

	assert.Empty(t, r.session.jobs)
	stored, err := r.store.GetJob("j1")
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusQueued, stored.Status)

	qj, err := r.store.GetQueuedJob("j1")
	require.NoError(t, err)
	assert.Equal(t, 1, qj.Attempts)
}

func TestPlacementFailureConsumesRetryBudget(t *testing.T) {
	r := newRig(t)
	addQueue(t, r, &types.JobQueue{ID: "q1", Name: "default", MaxConcurrentJobs: 1})

	// Drain the only pool so every placement attempt fails
	pools, err := r.store.ListPools()
	require.NoError(t, err)
	pools[0].Status = types.PoolStatusDraining
	require.NoError(t, r.store.UpdatePool(pools[0]))

	_, err = r.orch.Submit(newJob("j1"), "q1", SubmitOptions{MaxAttempts: 2})
	require.NoError(t, err)

	r.orch.processQueues(context.Background())
	qj, err := r.store.GetQueuedJob("j1")
	require.NoError(t, err)
	assert.Equal(t, 1, qj.Attempts)
	assert.Equal(t, types.JobStatusQueued, qj.Job.Status)

	r.orch.processQueues(context.Background())

	stored, err := r.store.GetJob("j1")
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusFailed, stored.Status)
	assert.Equal(t, 2, stored.RetryCount)
	assert.Contains(t, stored.FailureReason, "no placement")

	_, err = r.store.GetQueuedJob("j1")
	assert.ErrorIs(t, err, types.ErrNotFound)

	// Further passes have nothing left to dispatch
	r.orch.processQueues(context.Background())
	assert.Empty(t, r.session.jobs)
}
