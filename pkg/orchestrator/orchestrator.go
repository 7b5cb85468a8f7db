package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/hodei/pipelines/pkg/events"
	"github.com/hodei/pipelines/pkg/executor"
	"github.com/hodei/pipelines/pkg/log"
	"github.com/hodei/pipelines/pkg/resource"
	"github.com/hodei/pipelines/pkg/scheduler"
	"github.com/hodei/pipelines/pkg/storage"
	"github.com/hodei/pipelines/pkg/types"
)

// DefaultProcessInterval is the queue processing cadence.
const DefaultProcessInterval = time.Second

// guardStuckAfter re-arms the processing guard if a pass never returned,
// so one wedged pass cannot stall scheduling forever.
const guardStuckAfter = 5 * time.Minute

// Config tunes the orchestrator.
type Config struct {
	ProcessInterval time.Duration
}

// Orchestrator owns the job lifecycle: admission into queues, ordered
// dispatch through the scheduler and executor, and retry on failure.
type Orchestrator struct {
	store     storage.Store
	scheduler *scheduler.Scheduler
	executor  *executor.Engine
	events    events.Publisher
	interval  time.Duration
	logger    zerolog.Logger

	// processing guards a single in-flight pass per instance
	processing  atomic.Bool
	passStarted atomic.Int64
	cancel      context.CancelFunc
	done        chan struct{}
	resultsDone chan struct{}
	stopOnce    sync.Once
}

// New creates an orchestrator.
func New(store storage.Store, sched *scheduler.Scheduler, exec *executor.Engine, pub events.Publisher, cfg Config) *Orchestrator {
	interval := cfg.ProcessInterval
	if interval <= 0 {
		interval = DefaultProcessInterval
	}
	return &Orchestrator{
		store:       store,
		scheduler:   sched,
		executor:    exec,
		events:      pub,
		interval:    interval,
		logger:      log.WithComponent("orchestrator"),
		done:        make(chan struct{}),
		resultsDone: make(chan struct{}),
	}
}

// Submit admits a job into a queue. The job must be new; it transitions
// PENDING -> QUEUED on success.
func (o *Orchestrator) Submit(job *types.Job, queueID string, opts SubmitOptions) (*types.QueuedJob, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}

	queue, err := o.store.GetQueue(queueID)
	if err != nil {
		return nil, fmt.Errorf("queue %s: %w", queueID, err)
	}
	if !queue.IsActive {
		return nil, &types.ValidationError{Field: "queue_id", Reason: "queue " + queueID + " is not active"}
	}

	if _, err := o.store.GetQueuedJob(job.ID); err == nil {
		return nil, fmt.Errorf("job %s: %w", job.ID, types.ErrAlreadyQueued)
	}

	if queue.MaxQueuedJobs > 0 {
		queued, err := o.store.ListQueuedJobsByQueue(queueID)
		if err != nil {
			return nil, fmt.Errorf("failed to list queue %s: %w", queueID, err)
		}
		if len(queued) >= queue.MaxQueuedJobs {
			return nil, fmt.Errorf("queue %s: %w", queueID, types.ErrQueueFull)
		}
	}

	if job.ID == "" {
		job.ID = resource.NewID()
	}
	if job.Status == "" {
		job.Status = types.JobStatusPending
	}
	if job.Priority == "" {
		job.Priority = queue.BasePriority
	}
	if err := job.TransitionTo(types.JobStatusQueued); err != nil {
		return nil, err
	}
	job.CreatedAt = time.Now()

	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = job.MaxRetries + 1
	}
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	qj := &types.QueuedJob{
		Job:               job,
		QueueID:           queueID,
		Priority:          job.Priority,
		QueuedAt:          time.Now(),
		Deadline:          opts.Deadline,
		EstimatedDuration: opts.EstimatedDuration,
		UserID:            opts.UserID,
		ProjectID:         opts.ProjectID,
		Attempts:          0,
		MaxAttempts:       maxAttempts,
	}

	if err := o.store.CreateJob(job); err != nil {
		return nil, fmt.Errorf("failed to persist job: %w", err)
	}
	if err := o.store.CreateQueuedJob(qj); err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	o.publish(events.EventJobSubmitted, job.ID, "job submitted to queue "+queueID)
	o.logger.Info().Str("job_id", job.ID).Str("queue_id", queueID).Msg("job submitted")
	return qj, nil
}

// SubmitOptions carries queueing metadata for a submission.
type SubmitOptions struct {
	Deadline          time.Time
	EstimatedDuration time.Duration
	UserID            string
	ProjectID         string
	MaxAttempts       int
}

// Cancel cancels a job wherever it is in its lifecycle.
func (o *Orchestrator) Cancel(ctx context.Context, jobID string) error {
	job, err := o.store.GetJob(jobID)
	if err != nil {
		return err
	}

	switch job.Status {
	case types.JobStatusQueued, types.JobStatusScheduled:
		if err := job.TransitionTo(types.JobStatusCancelled); err != nil {
			return err
		}
		if err := o.store.UpdateJob(job); err != nil {
			return fmt.Errorf("failed to persist cancellation: %w", err)
		}
		if err := o.store.DeleteQueuedJob(jobID); err != nil && !errors.Is(err, types.ErrNotFound) {
			o.logger.Warn().Err(err).Str("job_id", jobID).Msg("failed to dequeue cancelled job")
		}
		o.publish(events.EventJobCancelled, jobID, "cancelled while queued")
		return nil
	case types.JobStatusRunning:
		if job.LatestExecutionID == "" {
			return fmt.Errorf("job %s is running without an execution id", jobID)
		}
		return o.executor.Cancel(ctx, job.LatestExecutionID)
	case types.JobStatusCompleted, types.JobStatusFailed, types.JobStatusCancelled:
		return &types.ValidationError{Field: "status", Reason: "job already " + string(job.Status)}
	default:
		return &types.ValidationError{Field: "status", Reason: "job not cancellable in state " + string(job.Status)}
	}
}

// Start launches the processing and result loops.
func (o *Orchestrator) Start(ctx context.Context) {
	ctx, o.cancel = context.WithCancel(ctx)
	go o.processLoop(ctx)
	go o.resultLoop(ctx)
}

// Stop terminates the loops.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		if o.cancel != nil {
			o.cancel()
			<-o.done
			<-o.resultsDone
		}
	})
}

func (o *Orchestrator) processLoop(ctx context.Context) {
	defer close(o.done)

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.tick(ctx)
		}
	}
}

// tick runs one processing pass, guarded so overlapping passes cannot
// double-dispatch. A guard held past guardStuckAfter is forcibly re-armed.
func (o *Orchestrator) tick(ctx context.Context) {
	if !o.processing.CompareAndSwap(false, true) {
		started := o.passStarted.Load()
		if started > 0 && time.Since(time.UnixMilli(started)) > guardStuckAfter {
			o.logger.Error().Msg("processing pass stuck, re-arming guard")
			o.passStarted.Store(time.Now().UnixMilli())
		}
		return
	}
	o.passStarted.Store(time.Now().UnixMilli())
	defer o.processing.Store(false)

	o.processQueues(ctx)
}

// processQueues dispatches queued jobs up to each queue's concurrency limit.
func (o *Orchestrator) processQueues(ctx context.Context) {
	queues, err := o.store.ListQueues()
	if err != nil {
		o.logger.Error().Err(err).Msg("failed to list queues")
		return
	}

	for _, queue := range queues {
		if !queue.IsActive {
			continue
		}
		if err := o.processQueue(ctx, queue); err != nil {
			o.logger.Error().Err(err).Str("queue_id", queue.ID).Msg("queue pass failed")
		}
	}
}

func (o *Orchestrator) processQueue(ctx context.Context, queue *types.JobQueue) error {
	queued, err := o.store.ListQueuedJobsByQueue(queue.ID)
	if err != nil {
		return fmt.Errorf("failed to list queued jobs: %w", err)
	}

	var waiting []*types.QueuedJob
	running := 0
	for _, qj := range queued {
		switch qj.Job.Status {
		case types.JobStatusQueued:
			waiting = append(waiting, qj)
		case types.JobStatusScheduled, types.JobStatusRunning:
			running++
		}
	}

	slots := queue.MaxConcurrentJobs - running
	if queue.MaxConcurrentJobs <= 0 {
		slots = len(waiting)
	}
	if slots <= 0 || len(waiting) == 0 {
		return nil
	}

	orderQueue(queue.QueueType, waiting, time.Now())

	for _, qj := range waiting {
		if slots == 0 {
			break
		}
		if o.dispatch(ctx, qj) {
			slots--
		}
	}
	return nil
}

// orderQueue sorts waiting jobs by the queue discipline.
func orderQueue(qt types.QueueType, jobs []*types.QueuedJob, now time.Time) {
	switch qt {
	case types.QueueTypeLIFO:
		sort.Slice(jobs, func(i, j int) bool {
			if !jobs[i].QueuedAt.Equal(jobs[j].QueuedAt) {
				return jobs[i].QueuedAt.After(jobs[j].QueuedAt)
			}
			return jobs[i].Job.ID < jobs[j].Job.ID
		})
	case types.QueueTypePriority:
		sort.Slice(jobs, func(i, j int) bool {
			pi, pj := jobs[i].EffectivePriority(now), jobs[j].EffectivePriority(now)
			if pi != pj {
				return pi > pj
			}
			if !jobs[i].QueuedAt.Equal(jobs[j].QueuedAt) {
				return jobs[i].QueuedAt.Before(jobs[j].QueuedAt)
			}
			return jobs[i].Job.ID < jobs[j].Job.ID
		})
	default: // FIFO
		sort.Slice(jobs, func(i, j int) bool {
			if !jobs[i].QueuedAt.Equal(jobs[j].QueuedAt) {
				return jobs[i].QueuedAt.Before(jobs[j].QueuedAt)
			}
			return jobs[i].Job.ID < jobs[j].Job.ID
		})
	}
}

// dispatch places one job and hands it to the executor. Returns true when
// the job consumed a concurrency slot.
func (o *Orchestrator) dispatch(ctx context.Context, qj *types.QueuedJob) bool {
	job := qj.Job

	if err := job.TransitionTo(types.JobStatusScheduled); err != nil {
		o.logger.Error().Err(err).Str("job_id", job.ID).Msg("cannot schedule job")
		return false
	}

	placed, err := o.scheduler.FindPlacement(ctx, job)
	if err != nil {
		o.requeue(qj, "no placement: "+err.Error())
		return false
	}

	if _, err := o.executor.StartExecution(ctx, job, placed.ID); err != nil {
		var pe *types.ProvisioningError
		if errors.As(err, &pe) {
			o.requeue(qj, "start failed: "+err.Error())
			return false
		}
		o.failJob(qj, "dispatch failed: "+err.Error())
		return false
	}

	qj.Attempts++
	if err := job.TransitionTo(types.JobStatusRunning); err != nil {
		o.logger.Error().Err(err).Str("job_id", job.ID).Msg("invalid running transition")
	}
	if err := o.store.UpdateJob(job); err != nil {
		o.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to persist running job")
	}
	if err := o.store.UpdateQueuedJob(qj); err != nil {
		o.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to persist dispatched entry")
	}

	o.publish(events.EventJobScheduled, job.ID, "placed on pool "+placed.ID)
	return true
}

// requeue puts a scheduled job back in its queue with a fresh enqueue time.
// Each failed placement consumes one attempt; an exhausted budget fails the
// job instead.
func (o *Orchestrator) requeue(qj *types.QueuedJob, reason string) {
	job := qj.Job
	qj.Attempts++
	job.RetryCount = qj.Attempts
	if !qj.CanRetry() {
		o.failJob(qj, reason)
		return
	}

	if err := job.TransitionTo(types.JobStatusQueued); err != nil {
		o.logger.Error().Err(err).Str("job_id", job.ID).Msg("cannot requeue job")
		return
	}
	qj.QueuedAt = time.Now()
	if err := o.store.UpdateJob(job); err != nil {
		o.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to persist requeued job")
	}
	if err := o.store.UpdateQueuedJob(qj); err != nil {
		o.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to persist requeued entry")
	}
	o.publish(events.EventJobRequeued, job.ID, reason)
	o.logger.Debug().
		Str("job_id", job.ID).
		Str("reason", reason).
		Int("attempt", qj.Attempts).
		Int("max_attempts", qj.MaxAttempts).
		Msg("job requeued")
}

func (o *Orchestrator) resultLoop(ctx context.Context) {
	defer close(o.resultsDone)

	for {
		select {
		case <-ctx.Done():
			return
		case res := <-o.executor.Results():
			o.handleResult(res)
		}
	}
}

// handleResult settles a terminal execution against the job's retry budget.
func (o *Orchestrator) handleResult(res executor.Result) {
	qj, err := o.store.GetQueuedJob(res.JobID)
	if err != nil {
		o.logger.Error().Err(err).Str("job_id", res.JobID).Msg("result for unknown job")
		return
	}
	job := qj.Job

	switch res.State {
	case types.ExecutionSucceeded:
		o.settle(qj, types.JobStatusCompleted, "", events.EventJobCompleted)
	case types.ExecutionCancelled:
		o.settle(qj, types.JobStatusCancelled, res.Message, events.EventJobCancelled)
	case types.ExecutionFailed:
		if err := job.TransitionTo(types.JobStatusFailed); err != nil {
			o.logger.Error().Err(err).Str("job_id", job.ID).Msg("invalid failed transition")
			return
		}
		job.FailureReason = res.Message
		job.RetryCount = qj.Attempts

		if qj.CanRetry() {
			if err := job.TransitionTo(types.JobStatusQueued); err != nil {
				o.logger.Error().Err(err).Str("job_id", job.ID).Msg("cannot requeue for retry")
				return
			}
			qj.QueuedAt = time.Now()
			if err := o.store.UpdateJob(job); err != nil {
				o.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to persist retry")
			}
			if err := o.store.UpdateQueuedJob(qj); err != nil {
				o.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to persist retry entry")
			}
			o.publish(events.EventJobRequeued, job.ID, fmt.Sprintf("retry %d/%d: %s", qj.Attempts, qj.MaxAttempts, res.Message))
			o.logger.Info().
				Str("job_id", job.ID).
				Int("attempt", qj.Attempts).
				Int("max_attempts", qj.MaxAttempts).
				Msg("job requeued for retry")
			return
		}

		if err := o.store.UpdateJob(job); err != nil {
			o.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to persist failed job")
		}
		if err := o.store.DeleteQueuedJob(job.ID); err != nil && !errors.Is(err, types.ErrNotFound) {
			o.logger.Warn().Err(err).Str("job_id", job.ID).Msg("failed to dequeue failed job")
		}
		o.publish(events.EventJobFailed, job.ID, res.Message)
		o.logger.Info().Str("job_id", job.ID).Str("reason", res.Message).Msg("job failed permanently")
	}
}

// settle moves a job to a terminal state and drops its queue entry.
func (o *Orchestrator) settle(qj *types.QueuedJob, status types.JobStatus, reason string, event events.EventType) {
	job := qj.Job
	if job.Status != status {
		if err := job.TransitionTo(status); err != nil {
			o.logger.Error().Err(err).Str("job_id", job.ID).Msg("invalid terminal transition")
			return
		}
	}
	job.FailureReason = reason
	if err := o.store.UpdateJob(job); err != nil {
		o.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to persist terminal job")
	}
	if err := o.store.DeleteQueuedJob(job.ID); err != nil && !errors.Is(err, types.ErrNotFound) {
		o.logger.Warn().Err(err).Str("job_id", job.ID).Msg("failed to dequeue settled job")
	}
	o.publish(event, job.ID, reason)
}

// failJob marks a job failed before it ran: non-transient dispatch errors
// and placement failures that exhausted the retry budget land here.
func (o *Orchestrator) failJob(qj *types.QueuedJob, reason string) {
	job := qj.Job
	if err := job.TransitionTo(types.JobStatusFailed); err != nil {
		o.logger.Error().Err(err).Str("job_id", job.ID).Msg("invalid failed transition")
		return
	}
	job.FailureReason = reason
	if err := o.store.UpdateJob(job); err != nil {
		o.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to persist failed job")
	}
	if err := o.store.DeleteQueuedJob(job.ID); err != nil && !errors.Is(err, types.ErrNotFound) {
		o.logger.Warn().Err(err).Str("job_id", job.ID).Msg("failed to dequeue failed job")
	}
	o.publish(events.EventJobFailed, job.ID, reason)
}

func (o *Orchestrator) publish(t events.EventType, jobID, message string) {
	if o.events == nil {
		return
	}
	o.events.Publish(&events.Event{
		ID:       resource.NewID(),
		Type:     t,
		Message:  message,
		Metadata: map[string]string{"job_id": jobID},
	})
}
