package storage

import (
	"github.com/hodei/pipelines/pkg/types"
)

// Store defines the interface for orchestrator state storage.
// Implemented by the BoltDB-backed store.
type Store interface {
	// Jobs
	CreateJob(job *types.Job) error
	GetJob(id string) (*types.Job, error)
	ListJobs() ([]*types.Job, error)
	ListJobsByStatus(status types.JobStatus) ([]*types.Job, error)
	UpdateJob(job *types.Job) error
	DeleteJob(id string) error

	// Job queues
	CreateQueue(queue *types.JobQueue) error
	GetQueue(id string) (*types.JobQueue, error)
	ListQueues() ([]*types.JobQueue, error)
	UpdateQueue(queue *types.JobQueue) error
	DeleteQueue(id string) error

	// Queued jobs (keyed by job ID)
	CreateQueuedJob(qj *types.QueuedJob) error
	GetQueuedJob(jobID string) (*types.QueuedJob, error)
	ListQueuedJobs() ([]*types.QueuedJob, error)
	ListQueuedJobsByQueue(queueID string) ([]*types.QueuedJob, error)
	UpdateQueuedJob(qj *types.QueuedJob) error
	DeleteQueuedJob(jobID string) error

	// Resource pools
	CreatePool(pool *types.ResourcePool) error
	GetPool(id string) (*types.ResourcePool, error)
	ListPools() ([]*types.ResourcePool, error)
	UpdatePool(pool *types.ResourcePool) error
	DeletePool(id string) error

	// Quotas
	CreateQuota(quota *types.ResourceQuota) error
	GetQuota(id string) (*types.ResourceQuota, error)
	GetQuotaByPool(poolID string) (*types.ResourceQuota, error)
	ListQuotas() ([]*types.ResourceQuota, error)
	UpdateQuota(quota *types.ResourceQuota) error
	DeleteQuota(id string) error

	// Usage rows (keyed by pool ID)
	GetUsage(poolID string) (*types.ResourceUsage, error)
	PutUsage(usage *types.ResourceUsage) error

	// Quota violations
	CreateViolation(v *types.QuotaViolation) error
	GetViolation(id string) (*types.QuotaViolation, error)
	ListViolations() ([]*types.QuotaViolation, error)
	ListUnresolvedViolations() ([]*types.QuotaViolation, error)
	UpdateViolation(v *types.QuotaViolation) error

	// Executions
	CreateExecution(e *types.Execution) error
	GetExecution(id string) (*types.Execution, error)
	ListExecutionsByJob(jobID string) ([]*types.Execution, error)
	UpdateExecution(e *types.Execution) error

	// Artifacts (transport metadata)
	CreateArtifact(a *types.Artifact) error
	GetArtifact(id string) (*types.Artifact, error)
	ListArtifacts() ([]*types.Artifact, error)

	// Utility
	Close() error
}
