package types

import (
	"time"
)

// Job represents a pipeline job submitted to the orchestrator
type Job struct {
	ID                string
	Name              string
	Namespace         string
	Status            JobStatus
	Priority          JobPriority
	Definition        *JobDefinition
	RetryCount        int
	MaxRetries        int
	CreatedAt         time.Time
	UpdatedAt         time.Time
	CompletedAt       time.Time
	CreatedBy         string
	LatestExecutionID string
	FailureReason     string
}

// JobStatus represents the lifecycle state of a job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusQueued    JobStatus = "queued"
	JobStatusScheduled JobStatus = "scheduled"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// allowedTransitions encodes the job status DAG. FAILED -> QUEUED is the
// retry edge; SCHEDULED -> FAILED covers dispatch errors that exhaust the
// retry budget before the job ever runs.
var allowedTransitions = map[JobStatus][]JobStatus{
	JobStatusPending:   {JobStatusQueued},
	JobStatusQueued:    {JobStatusScheduled, JobStatusCancelled},
	JobStatusScheduled: {JobStatusRunning, JobStatusQueued, JobStatusFailed, JobStatusCancelled},
	JobStatusRunning:   {JobStatusCompleted, JobStatusFailed, JobStatusCancelled},
	JobStatusFailed:    {JobStatusQueued},
}

// CanTransition reports whether a status change is allowed by the DAG.
func (s JobStatus) CanTransition(to JobStatus) bool {
	for _, next := range allowedTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions
// other than retry.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// TransitionTo moves the job to a new status, rejecting edges outside the DAG.
func (j *Job) TransitionTo(to JobStatus) error {
	if !j.Status.CanTransition(to) {
		return &ValidationError{Field: "status", Reason: "invalid transition " + string(j.Status) + " -> " + string(to)}
	}
	j.Status = to
	j.UpdatedAt = time.Now()
	if to.IsTerminal() {
		j.CompletedAt = j.UpdatedAt
	}
	return nil
}

// Validate checks job invariants before persistence
func (j *Job) Validate() error {
	if j.Name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if j.Namespace == "" {
		return &ValidationError{Field: "namespace", Reason: "must not be empty"}
	}
	if j.RetryCount < 0 || j.MaxRetries < 0 {
		return &ValidationError{Field: "retries", Reason: "must be non-negative"}
	}
	if j.Definition == nil {
		return &ValidationError{Field: "definition", Reason: "must be set"}
	}
	return j.Definition.Validate()
}

// JobPriority is a priority class with a numeric weight
type JobPriority string

const (
	PriorityCritical   JobPriority = "critical"
	PriorityHigh       JobPriority = "high"
	PriorityNormal     JobPriority = "normal"
	PriorityLow        JobPriority = "low"
	PriorityBackground JobPriority = "background"
)

// Value returns the numeric weight used for effective-priority math
func (p JobPriority) Value() float64 {
	switch p {
	case PriorityCritical:
		return 1000
	case PriorityHigh:
		return 800
	case PriorityNormal:
		return 500
	case PriorityLow:
		return 200
	case PriorityBackground:
		return 100
	default:
		return 500
	}
}

// JobDefinition is either a template reference with parameter overrides or an
// inline spec. Exactly one of the two must be present.
type JobDefinition struct {
	TemplateID      string
	TemplateVersion string
	Parameters      map[string]string

	Inline *InlineSpec
}

// InlineSpec carries the job payload directly
type InlineSpec struct {
	ScriptContent string
	Command       []string
	Env           map[string]string
	Requirements  *WorkerRequirements
	Timeout       time.Duration
	ArtifactIDs   []string
}

// Validate enforces the template-xor-inline invariant
func (d *JobDefinition) Validate() error {
	hasTemplate := d.TemplateID != ""
	hasInline := d.Inline != nil
	if hasTemplate == hasInline {
		return &ValidationError{Field: "definition", Reason: "exactly one of template reference or inline spec required"}
	}
	return nil
}

// WorkerRequirements describes what a job needs from a worker
type WorkerRequirements struct {
	Languages   []string
	Tools       []string
	Features    []string
	Labels      map[string]string
	CPUMillis   int64
	MemoryBytes int64
	StorageGB   float64
}

// QueuedJob wraps a Job with queueing metadata
type QueuedJob struct {
	Job               *Job
	QueueID           string
	Priority          JobPriority
	QueuedAt          time.Time
	Deadline          time.Time
	EstimatedDuration time.Duration
	UserID            string
	ProjectID         string
	Dependencies      []string
	Attempts          int
	MaxAttempts       int
}

// CanRetry reports whether the job may be requeued after a failure
func (q *QueuedJob) CanRetry() bool {
	return q.Attempts < q.MaxAttempts
}

// EffectivePriority computes the queue-ordering scalar: base priority plus an
// aging bonus capped at 100 plus a deadline bonus.
func (q *QueuedJob) EffectivePriority(now time.Time) float64 {
	base := q.Priority.Value()

	waitMinutes := now.Sub(q.QueuedAt).Minutes()
	if waitMinutes < 0 {
		waitMinutes = 0
	}
	aging := waitMinutes * 0.1
	if aging > 100 {
		aging = 100
	}

	var deadlineBonus float64
	if !q.Deadline.IsZero() {
		if now.After(q.Deadline) {
			deadlineBonus = 500
		} else if q.EstimatedDuration > 0 && q.Deadline.Sub(now) < 2*q.EstimatedDuration {
			deadlineBonus = 200
		}
	}

	return base + aging + deadlineBonus
}

// JobQueue is a named queue bound to a resource pool
type JobQueue struct {
	ID                string
	Name              string
	ResourcePoolID    string
	QueueType         QueueType
	BasePriority      JobPriority
	MaxConcurrentJobs int
	MaxQueuedJobs     int
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// QueueType defines the queue discipline
type QueueType string

const (
	QueueTypeFIFO     QueueType = "fifo"
	QueueTypeLIFO     QueueType = "lifo"
	QueueTypePriority QueueType = "priority"
)

// Validate checks queue invariants
func (q *JobQueue) Validate() error {
	if q.Name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if q.MaxConcurrentJobs < 0 || q.MaxQueuedJobs < 0 {
		return &ValidationError{Field: "limits", Reason: "must be positive"}
	}
	return nil
}

// ResourcePool is an administrative grouping of compute instances sharing
// capacity, quota, and scaling policy
type ResourcePool struct {
	ID           string
	Name         string // DNS-1123, max 63 chars
	ProviderType string
	DisplayName  string
	Description  string
	Labels       map[string]string
	Annotations  map[string]string
	QuotaID      string
	Capacity     *PoolCapacity
	CostWeight   float64
	Status       PoolStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PoolStatus represents the state of a resource pool
type PoolStatus string

const (
	PoolStatusActive      PoolStatus = "active"
	PoolStatusDraining    PoolStatus = "draining"
	PoolStatusTerminating PoolStatus = "terminating"
	PoolStatusError       PoolStatus = "error"
)

// PoolCapacity tracks total and available capacity for a pool
type PoolCapacity struct {
	TotalCPUCores    float64
	TotalMemoryGB    float64
	TotalDiskGB      float64
	AvailableCPU     float64
	AvailableMemGB   float64
	AvailableDiskGB  float64
	AvailableWorkers int
	AvailableNodes   int
}

// WorkerTemplate describes how worker instances are created
type WorkerTemplate struct {
	Image        string
	CPUMillis    int64
	MemoryBytes  int64
	StorageGB    float64
	GPUCount     int
	Capabilities *WorkerCapabilities
	Labels       map[string]string
	Env          map[string]string
	NodeSelector map[string]string
	Tolerations  []string
	Volumes      []string
	Probes       []*Probe
}

// WorkerCapabilities advertises what a worker can run
type WorkerCapabilities struct {
	Languages []string
	Tools     []string
	Features  []string
}

// Probe is a liveness/readiness probe definition for a worker container
type Probe struct {
	Type     string // "http", "tcp", "exec"
	Endpoint string
	Command  []string
	Interval time.Duration
	Timeout  time.Duration
	Retries  int
}

// WorkerPool is the set of workers materialised from one template
type WorkerPool struct {
	ID             string
	Name           string
	ResourcePoolID string
	Template       *WorkerTemplate
	CurrentSize    int
	DesiredSize    int
	MaxSize        int
	ScalingPolicy  *ScalingPolicy
	Workers        []*Worker
	Status         WorkerPoolStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// WorkerPoolStatus represents the state of a worker pool
type WorkerPoolStatus string

const (
	WorkerPoolStatusInactive    WorkerPoolStatus = "inactive"
	WorkerPoolStatusActive      WorkerPoolStatus = "active"
	WorkerPoolStatusScalingUp   WorkerPoolStatus = "scaling_up"
	WorkerPoolStatusScalingDown WorkerPoolStatus = "scaling_down"
	WorkerPoolStatusError       WorkerPoolStatus = "error"
)

// Worker is one running compute instance
type Worker struct {
	ID            string
	PoolID        string
	InstanceID    string
	Status        WorkerStatus
	Capabilities  *WorkerCapabilities
	CPUMillis     int64
	MemoryBytes   int64
	LastHeartbeat time.Time
	CreatedAt     time.Time
}

// WorkerStatus represents the state of a worker
type WorkerStatus string

const (
	WorkerStatusProvisioning WorkerStatus = "provisioning"
	WorkerStatusReady        WorkerStatus = "ready"
	WorkerStatusBusy         WorkerStatus = "busy"
	WorkerStatusDraining     WorkerStatus = "draining"
	WorkerStatusError        WorkerStatus = "error"
	WorkerStatusTerminated   WorkerStatus = "terminated"
)

// IsHealthy reports whether the last heartbeat arrived within timeout
func (w *Worker) IsHealthy(timeout time.Duration, now time.Time) bool {
	return !w.LastHeartbeat.IsZero() && now.Sub(w.LastHeartbeat) <= timeout
}

// ResourceQuota limits resource consumption for a pool
type ResourceQuota struct {
	ID              string
	PoolID          string
	Limits          QuotaLimits
	Policy          QuotaPolicy
	Enabled         bool
	AlertThresholds map[string]float64 // resource -> percent
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// QuotaLimits holds per-resource ceilings. Zero means unlimited.
type QuotaLimits struct {
	MaxCPUCores          float64
	MaxMemoryGB          float64
	MaxStorageGB         float64
	MaxConcurrentJobs    int
	MaxConcurrentWorkers int
	Custom               map[string]float64
}

// QuotaPolicy defines enforcement behaviour
type QuotaPolicy string

const (
	QuotaPolicyHard     QuotaPolicy = "hard"
	QuotaPolicySoft     QuotaPolicy = "soft"
	QuotaPolicyAdvisory QuotaPolicy = "advisory"
)

// ResourceUsage is the current consumption row for a pool
type ResourceUsage struct {
	PoolID        string
	UsedCPUCores  float64
	UsedMemoryGB  float64
	UsedStorageGB float64
	ActiveJobs    int
	ActiveWorkers int
	UpdatedAt     time.Time
}

// ResourceRequest is the projected consumption of one admission
type ResourceRequest struct {
	CPUCores  float64
	MemoryGB  float64
	StorageGB float64
	Jobs      int
	Workers   int
}

// QuotaViolation records a quota breach
type QuotaViolation struct {
	ID         string
	PoolID     string
	QuotaID    string
	Resource   string
	Limit      float64
	Attempted  float64
	Current    float64
	Severity   ViolationSeverity
	Action     ViolationAction
	Context    string
	Timestamp  time.Time
	Resolved   bool
	ResolvedBy string
	ResolvedAt time.Time
}

// ViolationSeverity buckets a violation by excess percentage
type ViolationSeverity string

const (
	SeverityLow      ViolationSeverity = "low"
	SeverityMedium   ViolationSeverity = "medium"
	SeverityHigh     ViolationSeverity = "high"
	SeverityCritical ViolationSeverity = "critical"
)

// ViolationAction records what enforcement did
type ViolationAction string

const (
	ActionBlocked            ViolationAction = "blocked"
	ActionAllowedWithWarning ViolationAction = "allowed_with_warning"
	ActionNotificationSent   ViolationAction = "notification_sent"
)

// ResourceAlert is published when usage crosses an alert threshold
type ResourceAlert struct {
	PoolID    string
	Resource  string
	Current   float64
	Limit     float64
	Percent   float64
	Threshold float64
	Timestamp time.Time
}

// ScalingPolicy controls autoscaling for one worker pool
type ScalingPolicy struct {
	MinWorkers         int
	MaxWorkers         int
	ScaleUpThreshold   int           // queue length
	ScaleUpWaitTime    time.Duration // average wait threshold
	ScaleDownThreshold float64       // worker utilization below which to shrink
	ScaleUpCooldown    time.Duration
	ScaleDownCooldown  time.Duration
	Strategy           ScalingStrategy
	LastScaleAction    *ScaleAction
	Enabled            bool
}

// ScalingStrategy selects the sizing algorithm
type ScalingStrategy string

const (
	StrategyReactive      ScalingStrategy = "reactive"
	StrategyPredictive    ScalingStrategy = "predictive"
	StrategyResourceBased ScalingStrategy = "resource_based"
)

// ScaleAction records one scaling decision; it starts the cooldown window
type ScaleAction struct {
	Direction ScaleDirection
	FromSize  int
	ToSize    int
	Timestamp time.Time
}

// ScaleDirection is up or down
type ScaleDirection string

const (
	ScaleUp   ScaleDirection = "up"
	ScaleDown ScaleDirection = "down"
)

// Execution is one run of a job on a worker
type Execution struct {
	ID            string
	JobID         string
	WorkerID      string
	PoolID        string
	InstanceID    string
	Token         string
	State         ExecutionState
	StartedAt     time.Time
	EndedAt       time.Time
	ExitCode      int
	FailureReason string
	OutputTail    []string
}

// ExecutionState represents the state of an execution
type ExecutionState string

const (
	ExecutionPending   ExecutionState = "pending"
	ExecutionRunning   ExecutionState = "running"
	ExecutionSucceeded ExecutionState = "succeeded"
	ExecutionFailed    ExecutionState = "failed"
	ExecutionCancelled ExecutionState = "cancelled"
)

// ExecutionEventType enumerates execution lifecycle events
type ExecutionEventType string

const (
	EventExecutionStarted ExecutionEventType = "execution.started"
	EventOutputReceived   ExecutionEventType = "execution.output"
	EventStatusChanged    ExecutionEventType = "execution.status"
	EventExecutionDone    ExecutionEventType = "execution.completed"
	EventExecutionFailed  ExecutionEventType = "execution.failed"
	EventExecutionAborted ExecutionEventType = "execution.cancelled"
)

// ExecutionEvent is one item on an execution's event stream
type ExecutionEvent struct {
	ExecutionID string
	Type        ExecutionEventType
	Message     string
	ExitCode    int
	Timestamp   time.Time
}

// LogChunk is one piece of captured job output
type LogChunk struct {
	ExecutionID string
	Data        []byte
	IsStderr    bool
	Timestamp   time.Time
}

// CompressionType identifies the artifact chunk codec
type CompressionType string

const (
	CompressionNone CompressionType = "none"
	CompressionGzip CompressionType = "gzip"
	CompressionZstd CompressionType = "zstd"
)

// Artifact is the transport metadata for one artifact blob
type Artifact struct {
	ID          string
	TotalSize   int64
	Chunks      int
	Compression CompressionType
	Checksum    string // sha-256 of the decompressed payload
	CreatedAt   time.Time
}

// PoolUtilization is a point-in-time utilization snapshot for a pool
type PoolUtilization struct {
	PoolID           string
	TotalCPUCores    float64
	UsedCPUCores     float64
	TotalMemoryBytes int64
	UsedMemoryBytes  int64
	TotalDiskBytes   int64
	UsedDiskBytes    int64
	NetworkRxBytes   int64
	NetworkTxBytes   int64
	RunningJobs      int
	QueuedJobs       int
	Timestamp        time.Time
}

// CPUPercent returns used CPU as a percentage of total, zero-safe
func (u *PoolUtilization) CPUPercent() float64 {
	if u.TotalCPUCores <= 0 {
		return 0
	}
	return u.UsedCPUCores / u.TotalCPUCores * 100
}
