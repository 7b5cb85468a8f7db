package driver

import (
	"context"
	"time"
)

// Label keys applied to every managed instance
const (
	LabelManaged  = "hodei.managed"
	LabelPoolID   = "hodei.pool"
	LabelWorkerID = "hodei.worker-id"
)

// InstanceStatus represents the state of a compute instance
type InstanceStatus string

const (
	InstanceProvisioning InstanceStatus = "provisioning"
	InstanceRunning      InstanceStatus = "running"
	InstanceStopped      InstanceStatus = "stopped"
	InstanceFailed       InstanceStatus = "failed"
	InstanceTerminated   InstanceStatus = "terminated"
)

// InstanceSpec describes the instance to provision. WorkerID doubles as the
// idempotency key: provisioning the same WorkerID twice returns the existing
// instance.
type InstanceSpec struct {
	WorkerID    string
	Image       string
	Env         map[string]string
	Labels      map[string]string
	CPUMillis   int64
	MemoryBytes int64
	GracePeriod time.Duration
}

// Instance is one compute instance known to the driver
type Instance struct {
	ID        string
	PoolID    string
	WorkerID  string
	Image     string
	Status    InstanceStatus
	Labels    map[string]string
	CreatedAt time.Time
}

// ScaleResult reports the outcome of a ScaleTo call. Partial failures
// accumulate in Failed rather than aborting the operation.
type ScaleResult struct {
	Requested   int
	Actual      int
	Provisioned []string
	Terminated  []string
	Failed      []error
}

// InstanceType is a fixed provisioning tier
type InstanceType struct {
	Name        string
	CPUMillis   int64
	MemoryBytes int64
}

// Fixed tiers offered by every driver
var (
	TypeSmall  = InstanceType{Name: "small", CPUMillis: 1000, MemoryBytes: 2 << 30}
	TypeMedium = InstanceType{Name: "medium", CPUMillis: 2000, MemoryBytes: 4 << 30}
	TypeLarge  = InstanceType{Name: "large", CPUMillis: 4000, MemoryBytes: 8 << 30}
	TypeXLarge = InstanceType{Name: "xlarge", CPUMillis: 8000, MemoryBytes: 16 << 30}
	TypeCustom = InstanceType{Name: "custom"}
)

// Health reports daemon reachability and aggregate state
type Health struct {
	Healthy          bool
	Version          string
	Instances        int
	RunningInstances int
	MemoryUsedBytes  int64
}

// Stats is one cumulative resource sample for an instance. CPUUsageNanos is
// monotonically increasing; callers compute utilization from deltas.
type Stats struct {
	InstanceID       string
	CPUUsageNanos    uint64
	MemoryUsageBytes int64
	MemoryLimitBytes int64
	DiskUsageBytes   int64
	NetworkRxBytes   int64
	NetworkTxBytes   int64
	OnlineCPUs       int
	Timestamp        time.Time
}

// Driver is the compute driver port. Every operation is cancellable through
// its context.
type Driver interface {
	// Provision creates an instance from the spec, pulling the image first
	// if it is not present locally. Idempotent under spec.WorkerID.
	Provision(ctx context.Context, poolID string, spec *InstanceSpec) (string, error)

	// Terminate gracefully stops and removes an instance. Tolerates
	// instances that are already gone.
	Terminate(ctx context.Context, instanceID string) error

	// Inspect returns the current status of an instance
	Inspect(ctx context.Context, instanceID string) (InstanceStatus, error)

	// List returns the instances belonging to a pool
	List(ctx context.Context, poolID string) ([]*Instance, error)

	// ListAll returns every managed instance
	ListAll(ctx context.Context) ([]*Instance, error)

	// ScaleTo provisions or terminates instances until the pool holds
	// target instances. Partial failures accumulate in the result.
	ScaleTo(ctx context.Context, poolID string, target int, spec *InstanceSpec) (*ScaleResult, error)

	// AvailableInstanceTypes returns the provisioning tiers for a pool
	AvailableInstanceTypes(poolID string) []InstanceType

	// HealthCheck pings the daemon
	HealthCheck(ctx context.Context) (*Health, error)

	// Stats returns a cumulative resource sample for an instance
	Stats(ctx context.Context, instanceID string) (*Stats, error)

	// Close releases the daemon connection
	Close() error
}
