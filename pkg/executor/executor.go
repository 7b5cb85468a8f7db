package executor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	pb "github.com/hodei/pipelines/api/proto"
	"github.com/hodei/pipelines/pkg/driver"
	"github.com/hodei/pipelines/pkg/events"
	"github.com/hodei/pipelines/pkg/listener"
	"github.com/hodei/pipelines/pkg/log"
	"github.com/hodei/pipelines/pkg/pool"
	"github.com/hodei/pipelines/pkg/quota"
	"github.com/hodei/pipelines/pkg/resource"
	"github.com/hodei/pipelines/pkg/storage"
	"github.com/hodei/pipelines/pkg/types"
)

// DefaultCancelGrace is how long a cancelled job may run before its
// instance is killed.
const DefaultCancelGrace = 10 * time.Second

// outputTailLines bounds the tail kept on the execution record.
const outputTailLines = 100

// Session is the server side of one worker's stream.
type Session interface {
	WorkerID() string
	SendJob(req *pb.JobRequest) error
	SendSignal(sig *pb.ControlSignal) error

	// IsCached asks the worker whether it already holds the artifact.
	IsCached(ctx context.Context, artifactID, checksum string) (bool, error)
	// TransferArtifact streams the payload chunk by chunk.
	TransferArtifact(ctx context.Context, artifactID string, payload []byte, compression types.CompressionType) error
}

// SessionHub resolves a connected worker's session.
type SessionHub interface {
	Session(workerID string) (Session, bool)
}

// ArtifactSource loads artifact payloads on the orchestrator side.
type ArtifactSource interface {
	Load(artifactID string) ([]byte, *types.Artifact, error)
}

// Result is the terminal outcome of one execution.
type Result struct {
	JobID       string
	ExecutionID string
	State       types.ExecutionState
	ExitCode    int
	Message     string
}

// Engine runs jobs on claimed workers and tracks their executions until a
// terminal state. Completion results surface on Results for the
// orchestrator's retry logic.
type Engine struct {
	store     storage.Store
	quota     *quota.Engine
	pools     *pool.Manager
	driver    driver.Driver
	hub       SessionHub
	listeners *listener.Registry
	artifacts ArtifactSource
	events    events.Publisher
	grace     time.Duration
	logger    zerolog.Logger

	mu      sync.Mutex
	active  map[string]*activeExecution // execution ID -> state
	results chan Result
}

type activeExecution struct {
	job        *types.Job
	exec       *types.Execution
	cpuCores   float64
	memGB      float64
	storageGB  float64
	tail       []string
	killTimer  *time.Timer
	cancelling bool
}

// Config carries the engine's collaborators.
type Config struct {
	Store     storage.Store
	Quota     *quota.Engine
	Pools     *pool.Manager
	Driver    driver.Driver
	Hub       SessionHub
	Listeners *listener.Registry
	Artifacts ArtifactSource
	Events    events.Publisher
	Grace     time.Duration
}

// NewEngine creates an execution engine.
func NewEngine(cfg Config) *Engine {
	grace := cfg.Grace
	if grace <= 0 {
		grace = DefaultCancelGrace
	}
	return &Engine{
		store:     cfg.Store,
		quota:     cfg.Quota,
		pools:     cfg.Pools,
		driver:    cfg.Driver,
		hub:       cfg.Hub,
		listeners: cfg.Listeners,
		artifacts: cfg.Artifacts,
		events:    cfg.Events,
		grace:     grace,
		logger:    log.WithComponent("executor"),
		active:    make(map[string]*activeExecution),
		results:   make(chan Result, 64),
	}
}

// Results delivers terminal execution outcomes.
func (e *Engine) Results() <-chan Result {
	return e.results
}

// StartExecution claims a worker in the pool and dispatches the job to it.
// With no claimable worker it returns a provisioning error so the caller
// can requeue while the autoscaler catches up.
func (e *Engine) StartExecution(ctx context.Context, job *types.Job, poolID string) (*types.Execution, error) {
	worker := e.pools.ClaimWorker(poolID)
	if worker == nil {
		return nil, &types.ProvisioningError{
			Reason: types.ReasonResourceUnavailable,
			PoolID: poolID,
			Err:    fmt.Errorf("no ready worker in pool %s", poolID),
		}
	}

	session, ok := e.hub.Session(worker.ID)
	if !ok {
		e.pools.ReleaseWorker(worker.ID)
		return nil, &types.ProvisioningError{
			Reason: types.ReasonResourceUnavailable,
			PoolID: poolID,
			Err:    fmt.Errorf("worker %s has no active session", worker.ID),
		}
	}

	exec := &types.Execution{
		ID:         resource.NewID(),
		JobID:      job.ID,
		WorkerID:   worker.ID,
		PoolID:     poolID,
		InstanceID: worker.InstanceID,
		Token:      resource.NewToken(),
		State:      types.ExecutionPending,
		StartedAt:  time.Now(),
	}
	if err := e.store.CreateExecution(exec); err != nil {
		e.pools.ReleaseWorker(worker.ID)
		return nil, fmt.Errorf("failed to persist execution: %w", err)
	}

	cpu, mem, stg := jobResources(job)
	if err := e.quota.AddJob(poolID, cpu, mem, stg); err != nil {
		e.logger.Warn().Err(err).Str("pool_id", poolID).Msg("failed to record job usage")
	}

	e.mu.Lock()
	e.active[exec.ID] = &activeExecution{
		job:       job,
		exec:      exec,
		cpuCores:  cpu,
		memGB:     mem,
		storageGB: stg,
	}
	e.mu.Unlock()

	if err := e.stageArtifacts(ctx, session, job); err != nil {
		e.fail(exec.ID, fmt.Sprintf("artifact staging failed: %v", err))
		return exec, err
	}

	req := jobRequest(job, exec)
	if err := session.SendJob(req); err != nil {
		e.fail(exec.ID, fmt.Sprintf("dispatch failed: %v", err))
		return exec, fmt.Errorf("failed to dispatch job %s: %w", job.ID, err)
	}

	job.LatestExecutionID = exec.ID
	if err := e.store.UpdateJob(job); err != nil {
		e.logger.Warn().Err(err).Str("job_id", job.ID).Msg("failed to record execution id")
	}

	e.notifyEvent(exec.ID, types.EventExecutionStarted, "dispatched to worker "+worker.ID, 0)
	e.logger.Info().
		Str("job_id", job.ID).
		Str("execution_id", exec.ID).
		Str("worker_id", worker.ID).
		Msg("execution started")
	return exec, nil
}

// stageArtifacts ships the job's input artifacts, skipping content the
// worker already caches.
func (e *Engine) stageArtifacts(ctx context.Context, session Session, job *types.Job) error {
	if job.Definition == nil || job.Definition.Inline == nil {
		return nil
	}
	for _, id := range job.Definition.Inline.ArtifactIDs {
		payload, meta, err := e.artifacts.Load(id)
		if err != nil {
			return fmt.Errorf("failed to load artifact %s: %w", id, err)
		}

		cached, err := session.IsCached(ctx, id, meta.Checksum)
		if err != nil {
			return fmt.Errorf("cache query for artifact %s: %w", id, err)
		}
		if cached {
			e.logger.Debug().Str("artifact_id", id).Str("worker_id", session.WorkerID()).Msg("artifact cache hit")
			continue
		}

		if err := session.TransferArtifact(ctx, id, payload, meta.Compression); err != nil {
			return fmt.Errorf("failed to transfer artifact %s: %w", id, err)
		}
	}
	return nil
}

// Cancel signals the worker to stop the execution, then force-terminates
// the instance if it does not wind down within the grace period.
func (e *Engine) Cancel(ctx context.Context, executionID string) error {
	e.mu.Lock()
	a, ok := e.active[executionID]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("execution %s: %w", executionID, types.ErrNotFound)
	}
	if a.cancelling {
		e.mu.Unlock()
		return nil
	}
	a.cancelling = true
	workerID := a.exec.WorkerID
	instanceID := a.exec.InstanceID
	e.mu.Unlock()

	if session, ok := e.hub.Session(workerID); ok {
		sig := &pb.ControlSignal{
			Type:          pb.SignalType_SIGNAL_CANCEL,
			ExecutionId:   executionID,
			GracePeriodMs: e.grace.Milliseconds(),
		}
		if err := session.SendSignal(sig); err != nil {
			e.logger.Warn().Err(err).Str("execution_id", executionID).Msg("cancel signal failed")
		}
	}

	timer := time.AfterFunc(e.grace, func() {
		e.forceKill(executionID, instanceID)
	})

	e.mu.Lock()
	if a, ok := e.active[executionID]; ok {
		a.killTimer = timer
	} else {
		timer.Stop()
	}
	e.mu.Unlock()
	return nil
}

// forceKill terminates the instance of an execution that ignored its
// cancel signal.
func (e *Engine) forceKill(executionID, instanceID string) {
	e.mu.Lock()
	_, stillActive := e.active[executionID]
	e.mu.Unlock()
	if !stillActive {
		return
	}

	e.logger.Warn().Str("execution_id", executionID).Msg("grace period expired, terminating instance")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.driver.Terminate(ctx, instanceID); err != nil {
		e.logger.Error().Err(err).Str("instance_id", instanceID).Msg("force terminate failed")
	}
	e.finish(executionID, types.ExecutionCancelled, -1, "killed after grace period")
}

// OnStatus ingests a status update from a worker session.
func (e *Engine) OnStatus(update *pb.JobStatusUpdate) {
	switch update.GetStatus() {
	case pb.JobStatusProto_JOB_STATUS_RUNNING:
		e.markRunning(update.GetExecutionId())
	case pb.JobStatusProto_JOB_STATUS_SUCCESS:
		e.finish(update.GetExecutionId(), types.ExecutionSucceeded, int(update.GetExitCode()), update.GetMessage())
	case pb.JobStatusProto_JOB_STATUS_FAILED:
		e.finish(update.GetExecutionId(), types.ExecutionFailed, int(update.GetExitCode()), update.GetMessage())
	case pb.JobStatusProto_JOB_STATUS_CANCELLED:
		e.finish(update.GetExecutionId(), types.ExecutionCancelled, int(update.GetExitCode()), update.GetMessage())
	}
}

// OnOutput ingests an output chunk from a worker session.
func (e *Engine) OnOutput(out *pb.JobOutput) {
	chunk := &types.LogChunk{
		ExecutionID: out.GetExecutionId(),
		Data:        out.GetData(),
		IsStderr:    out.GetStream() == pb.OutputStream_STDERR,
		Timestamp:   time.UnixMilli(out.GetTimestampMs()),
	}

	e.mu.Lock()
	if a, ok := e.active[chunk.ExecutionID]; ok {
		for _, line := range strings.Split(strings.TrimRight(string(chunk.Data), "\n"), "\n") {
			a.tail = append(a.tail, line)
		}
		if over := len(a.tail) - outputTailLines; over > 0 {
			a.tail = a.tail[over:]
		}
	}
	e.mu.Unlock()

	e.listeners.NotifyOutput(chunk)
	e.notifyEvent(chunk.ExecutionID, types.EventOutputReceived, "", 0)
}

// OnWorkerLost fails every active execution of a disconnected worker.
func (e *Engine) OnWorkerLost(workerID string) {
	e.mu.Lock()
	var lost []string
	for id, a := range e.active {
		if a.exec.WorkerID == workerID {
			lost = append(lost, id)
		}
	}
	e.mu.Unlock()

	for _, id := range lost {
		e.finish(id, types.ExecutionFailed, -1, "worker connection lost")
	}
}

func (e *Engine) markRunning(executionID string) {
	e.mu.Lock()
	a, ok := e.active[executionID]
	if ok && a.exec.State == types.ExecutionPending {
		a.exec.State = types.ExecutionRunning
	}
	e.mu.Unlock()
	if !ok {
		return
	}

	if err := e.store.UpdateExecution(a.exec); err != nil {
		e.logger.Warn().Err(err).Str("execution_id", executionID).Msg("failed to persist running state")
	}
	e.notifyEvent(executionID, types.EventStatusChanged, "running", 0)
}

func (e *Engine) fail(executionID, reason string) {
	e.finish(executionID, types.ExecutionFailed, -1, reason)
}

// finish settles one execution: persists the terminal state, releases the
// worker and quota, notifies listeners and emits the result.
func (e *Engine) finish(executionID string, state types.ExecutionState, exitCode int, message string) {
	e.mu.Lock()
	a, ok := e.active[executionID]
	if !ok {
		e.mu.Unlock()
		return
	}
	delete(e.active, executionID)
	if a.killTimer != nil {
		a.killTimer.Stop()
	}
	e.mu.Unlock()

	a.exec.State = state
	a.exec.EndedAt = time.Now()
	a.exec.ExitCode = exitCode
	a.exec.FailureReason = message
	a.exec.OutputTail = a.tail
	if err := e.store.UpdateExecution(a.exec); err != nil {
		e.logger.Error().Err(err).Str("execution_id", executionID).Msg("failed to persist terminal state")
	}

	if err := e.quota.RemoveJob(a.exec.PoolID, a.cpuCores, a.memGB, a.storageGB); err != nil {
		e.logger.Warn().Err(err).Str("pool_id", a.exec.PoolID).Msg("failed to release job usage")
	}
	e.pools.ReleaseWorker(a.exec.WorkerID)

	eventType := types.EventExecutionDone
	switch state {
	case types.ExecutionFailed:
		eventType = types.EventExecutionFailed
	case types.ExecutionCancelled:
		eventType = types.EventExecutionAborted
	}
	e.notifyEvent(executionID, eventType, message, exitCode)
	e.listeners.CleanupExecution(executionID)

	e.logger.Info().
		Str("execution_id", executionID).
		Str("job_id", a.exec.JobID).
		Str("state", string(state)).
		Int("exit_code", exitCode).
		Msg("execution finished")

	e.results <- Result{
		JobID:       a.exec.JobID,
		ExecutionID: executionID,
		State:       state,
		ExitCode:    exitCode,
		Message:     message,
	}
}

func (e *Engine) notifyEvent(executionID string, t types.ExecutionEventType, message string, exitCode int) {
	e.listeners.NotifyEvent(&types.ExecutionEvent{
		ExecutionID: executionID,
		Type:        t,
		Message:     message,
		ExitCode:    exitCode,
		Timestamp:   time.Now(),
	})
}

// jobResources projects the job's declared requirements for quota math.
func jobResources(job *types.Job) (cpu, memGB, storageGB float64) {
	if job.Definition == nil || job.Definition.Inline == nil || job.Definition.Inline.Requirements == nil {
		return 0, 0, 0
	}
	r := job.Definition.Inline.Requirements
	return float64(r.CPUMillis) / 1000, float64(r.MemoryBytes) / (1 << 30), r.StorageGB
}

// jobRequest builds the wire request for a job. The session token rides
// the stream rather than the instance environment.
func jobRequest(job *types.Job, exec *types.Execution) *pb.JobRequest {
	req := &pb.JobRequest{
		JobId:        job.ID,
		ExecutionId:  exec.ID,
		SessionToken: exec.Token,
	}
	if job.Definition == nil || job.Definition.Inline == nil {
		return req
	}
	inline := job.Definition.Inline

	def := &pb.JobDefinitionProto{Env: inline.Env}
	if len(inline.Command) > 0 {
		def.Spec = &pb.JobDefinitionProto_Command{Command: &pb.CommandSpec{Args: inline.Command}}
	} else {
		def.Spec = &pb.JobDefinitionProto_ScriptContent{ScriptContent: inline.ScriptContent}
	}
	req.Definition = def
	req.TimeoutMs = inline.Timeout.Milliseconds()
	req.ArtifactIds = inline.ArtifactIDs
	return req
}
