package driver

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"syscall"
	"time"

	"github.com/containerd/containerd"
	"github.com/containerd/containerd/cio"
	"github.com/containerd/containerd/containers"
	"github.com/containerd/containerd/namespaces"
	"github.com/containerd/containerd/oci"
	v1 "github.com/containerd/cgroups/v3/cgroup1/stats"
	v2 "github.com/containerd/cgroups/v3/cgroup2/stats"
	"github.com/containerd/typeurl/v2"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	specs "github.com/opencontainers/runtime-spec/specs-go"
	"github.com/rs/zerolog"

	"github.com/hodei/pipelines/pkg/log"
	"github.com/hodei/pipelines/pkg/types"
)

const (
	// DefaultNamespace is the containerd namespace for Hodei workers
	DefaultNamespace = "hodei"

	// DefaultSocketPath is the default containerd socket
	DefaultSocketPath = "/run/containerd/containerd.sock"

	// defaultGracePeriod bounds graceful instance shutdown
	defaultGracePeriod = 10 * time.Second

	// cfsPeriod is the CFS scheduler period used for CPU limits
	cfsPeriod = 100000
)

// ContainerdDriver implements Driver against a containerd daemon
type ContainerdDriver struct {
	client    *containerd.Client
	namespace string
	logger    zerolog.Logger
}

// NewContainerdDriver connects to containerd at socketPath
func NewContainerdDriver(socketPath string) (*ContainerdDriver, error) {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}

	client, err := containerd.New(socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to containerd: %w", err)
	}

	return &ContainerdDriver{
		client:    client,
		namespace: DefaultNamespace,
		logger:    log.WithComponent("driver"),
	}, nil
}

// Close closes the containerd client connection
func (d *ContainerdDriver) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}

// ensureImage pulls the image if it is not present locally. Pull errors are
// reported as provisioning failures; there is no retry inside the driver.
func (d *ContainerdDriver) ensureImage(ctx context.Context, poolID, imageRef string) (containerd.Image, error) {
	image, err := d.client.GetImage(ctx, imageRef)
	if err == nil {
		return image, nil
	}

	d.logger.Info().Str("image", imageRef).Msg("image not present locally, pulling")
	image, err = d.client.Pull(ctx, imageRef, containerd.WithPullUnpack)
	if err != nil {
		return nil, &types.ProvisioningError{
			Reason: types.ReasonImagePullFailure,
			PoolID: poolID,
			Err:    fmt.Errorf("failed to pull image %s: %w", imageRef, err),
		}
	}
	return image, nil
}

// Provision creates an instance from the spec. The container ID is the
// worker ID, which makes the call idempotent.
func (d *ContainerdDriver) Provision(ctx context.Context, poolID string, spec *InstanceSpec) (string, error) {
	ctx = namespaces.WithNamespace(ctx, d.namespace)

	if spec == nil || spec.Image == "" || spec.WorkerID == "" {
		return "", &types.ProvisioningError{
			Reason: types.ReasonInvalidSpec,
			PoolID: poolID,
			Err:    fmt.Errorf("image and worker id are required"),
		}
	}

	// Idempotency: a container under this worker ID already exists
	if existing, err := d.client.LoadContainer(ctx, spec.WorkerID); err == nil {
		return existing.ID(), nil
	}

	image, err := d.ensureImage(ctx, poolID, spec.Image)
	if err != nil {
		return "", err
	}

	opts := []oci.SpecOpts{
		oci.WithImageConfig(image),
		oci.WithEnv(envList(spec.Env)),
		withNoNewPrivileges,
	}
	if spec.MemoryBytes > 0 {
		opts = append(opts, oci.WithMemoryLimit(uint64(spec.MemoryBytes)))
	}
	if spec.CPUMillis > 0 {
		opts = append(opts, oci.WithCPUCFS(spec.CPUMillis*cfsPeriod/1000, cfsPeriod))
	}

	labels := map[string]string{
		LabelManaged:  "true",
		LabelPoolID:   poolID,
		LabelWorkerID: spec.WorkerID,
	}
	for k, v := range spec.Labels {
		labels[k] = v
	}

	container, err := d.client.NewContainer(
		ctx,
		spec.WorkerID,
		containerd.WithImage(image),
		containerd.WithNewSnapshot(spec.WorkerID+"-snapshot", image),
		containerd.WithNewSpec(opts...),
		containerd.WithContainerLabels(labels),
	)
	if err != nil {
		return "", &types.ProvisioningError{
			Reason: types.ReasonProvisioningFailed,
			PoolID: poolID,
			Err:    fmt.Errorf("failed to create container: %w", err),
		}
	}

	task, err := container.NewTask(ctx, cio.NullIO)
	if err != nil {
		// Roll back the container so a retry does not hit the idempotency path
		_ = container.Delete(ctx, containerd.WithSnapshotCleanup)
		return "", &types.ProvisioningError{
			Reason: types.ReasonProvisioningFailed,
			PoolID: poolID,
			Err:    fmt.Errorf("failed to create task: %w", err),
		}
	}

	if err := task.Start(ctx); err != nil {
		_, _ = task.Delete(ctx)
		_ = container.Delete(ctx, containerd.WithSnapshotCleanup)
		return "", &types.ProvisioningError{
			Reason: types.ReasonProvisioningFailed,
			PoolID: poolID,
			Err:    fmt.Errorf("failed to start task: %w", err),
		}
	}

	d.logger.Info().Str("instance_id", container.ID()).Str("pool_id", poolID).Msg("instance provisioned")
	return container.ID(), nil
}

// Terminate stops an instance with SIGTERM, escalating to SIGKILL after the
// grace period, then removes the container and its snapshot. Instances that
// are already gone are not an error.
func (d *ContainerdDriver) Terminate(ctx context.Context, instanceID string) error {
	ctx = namespaces.WithNamespace(ctx, d.namespace)

	container, err := d.client.LoadContainer(ctx, instanceID)
	if err != nil {
		// Already gone
		return nil
	}

	if task, err := container.Task(ctx, nil); err == nil {
		stopCtx, cancel := context.WithTimeout(ctx, defaultGracePeriod)
		if err := task.Kill(stopCtx, syscall.SIGTERM); err == nil {
			if statusC, err := task.Wait(stopCtx); err == nil {
				select {
				case <-statusC:
				case <-stopCtx.Done():
					_ = task.Kill(ctx, syscall.SIGKILL)
				}
			}
		}
		cancel()

		if _, err := task.Delete(ctx, containerd.WithProcessKill); err != nil {
			d.logger.Warn().Err(err).Str("instance_id", instanceID).Msg("failed to delete task")
		}
	}

	if err := container.Delete(ctx, containerd.WithSnapshotCleanup); err != nil {
		return fmt.Errorf("failed to delete container %s: %w", instanceID, err)
	}

	d.logger.Info().Str("instance_id", instanceID).Msg("instance terminated")
	return nil
}

// Inspect returns the current instance status
func (d *ContainerdDriver) Inspect(ctx context.Context, instanceID string) (InstanceStatus, error) {
	ctx = namespaces.WithNamespace(ctx, d.namespace)

	container, err := d.client.LoadContainer(ctx, instanceID)
	if err != nil {
		return InstanceTerminated, nil
	}

	task, err := container.Task(ctx, nil)
	if err != nil {
		// Container exists but has no task yet
		return InstanceProvisioning, nil
	}

	status, err := task.Status(ctx)
	if err != nil {
		return InstanceFailed, fmt.Errorf("failed to get task status: %w", err)
	}

	return mapStatus(status.Status, status.ExitStatus), nil
}

// mapStatus maps a containerd process status onto the driver status table
func mapStatus(st containerd.ProcessStatus, exitCode uint32) InstanceStatus {
	switch st {
	case containerd.Running:
		return InstanceRunning
	case containerd.Paused, containerd.Pausing:
		return InstanceStopped
	case containerd.Stopped:
		if exitCode == 0 {
			return InstanceTerminated
		}
		return InstanceFailed
	case containerd.Created:
		return InstanceProvisioning
	case containerd.Unknown:
		return InstanceFailed
	default:
		return InstanceProvisioning
	}
}

// List returns the managed instances belonging to a pool
func (d *ContainerdDriver) List(ctx context.Context, poolID string) ([]*Instance, error) {
	return d.list(ctx, poolID)
}

// ListAll returns every managed instance
func (d *ContainerdDriver) ListAll(ctx context.Context) ([]*Instance, error) {
	return d.list(ctx, "")
}

func (d *ContainerdDriver) list(ctx context.Context, poolID string) ([]*Instance, error) {
	ctx = namespaces.WithNamespace(ctx, d.namespace)

	containers, err := d.client.Containers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	var instances []*Instance
	for _, c := range containers {
		info, err := c.Info(ctx)
		if err != nil {
			continue
		}
		if info.Labels[LabelManaged] != "true" {
			continue
		}
		if poolID != "" && info.Labels[LabelPoolID] != poolID {
			continue
		}

		status, err := d.Inspect(ctx, c.ID())
		if err != nil {
			status = InstanceFailed
		}

		instances = append(instances, &Instance{
			ID:        c.ID(),
			PoolID:    info.Labels[LabelPoolID],
			WorkerID:  info.Labels[LabelWorkerID],
			Image:     info.Image,
			Status:    status,
			Labels:    info.Labels,
			CreatedAt: info.CreatedAt,
		})
	}

	return instances, nil
}

// ScaleTo provisions or terminates instances until the pool holds target
// live instances. Failures accumulate; one bad instance does not abort the
// whole operation.
func (d *ContainerdDriver) ScaleTo(ctx context.Context, poolID string, target int, spec *InstanceSpec) (*ScaleResult, error) {
	instances, err := d.List(ctx, poolID)
	if err != nil {
		return nil, err
	}

	var live []*Instance
	for _, inst := range instances {
		if inst.Status == InstanceRunning || inst.Status == InstanceProvisioning {
			live = append(live, inst)
		}
	}

	result := &ScaleResult{Requested: target, Actual: len(live)}
	var errs *multierror.Error

	for result.Actual < target {
		if ctx.Err() != nil {
			errs = multierror.Append(errs, ctx.Err())
			break
		}
		instSpec := *spec
		instSpec.WorkerID = "hodei-worker-" + uuid.New().String()[:8]
		// Each instance gets its own env map; the caller's spec is shared
		// across the whole scale-up.
		env := make(map[string]string, len(spec.Env)+1)
		for k, v := range spec.Env {
			env[k] = v
		}
		env["WORKER_ID"] = instSpec.WorkerID
		instSpec.Env = env

		id, err := d.Provision(ctx, poolID, &instSpec)
		if err != nil {
			errs = multierror.Append(errs, err)
			break
		}
		result.Provisioned = append(result.Provisioned, id)
		result.Actual++
	}

	// Terminate newest-first; the pool manager drains READY workers before
	// asking for a smaller target.
	sort.Slice(live, func(i, j int) bool { return live[i].CreatedAt.After(live[j].CreatedAt) })
	for i := 0; result.Actual > target && i < len(live); i++ {
		if err := d.Terminate(ctx, live[i].ID); err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		result.Terminated = append(result.Terminated, live[i].ID)
		result.Actual--
	}

	if errs != nil {
		result.Failed = errs.Errors
	}
	return result, nil
}

// AvailableInstanceTypes returns the fixed provisioning tiers
func (d *ContainerdDriver) AvailableInstanceTypes(poolID string) []InstanceType {
	return []InstanceType{TypeSmall, TypeMedium, TypeLarge, TypeXLarge, TypeCustom}
}

// HealthCheck pings the containerd daemon
func (d *ContainerdDriver) HealthCheck(ctx context.Context) (*Health, error) {
	ctx = namespaces.WithNamespace(ctx, d.namespace)

	version, err := d.client.Version(ctx)
	if err != nil {
		return &Health{Healthy: false}, fmt.Errorf("daemon unreachable: %w", err)
	}

	instances, err := d.ListAll(ctx)
	if err != nil {
		return &Health{Healthy: false, Version: version.Version}, err
	}

	health := &Health{Healthy: true, Version: version.Version, Instances: len(instances)}
	for _, inst := range instances {
		if inst.Status != InstanceRunning {
			continue
		}
		health.RunningInstances++
		if stats, err := d.Stats(ctx, inst.ID); err == nil {
			health.MemoryUsedBytes += stats.MemoryUsageBytes
		}
	}
	return health, nil
}

// Stats returns a cumulative cgroup resource sample for an instance
func (d *ContainerdDriver) Stats(ctx context.Context, instanceID string) (*Stats, error) {
	ctx = namespaces.WithNamespace(ctx, d.namespace)

	container, err := d.client.LoadContainer(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load container %s: %w", instanceID, err)
	}

	task, err := container.Task(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	metric, err := task.Metrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read metrics: %w", err)
	}

	data, err := typeurl.UnmarshalAny(metric.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode metrics: %w", err)
	}

	stats := &Stats{
		InstanceID: instanceID,
		OnlineCPUs: runtime.NumCPU(),
		Timestamp:  time.Now(),
	}

	switch m := data.(type) {
	case *v1.Metrics:
		if m.CPU != nil && m.CPU.Usage != nil {
			stats.CPUUsageNanos = m.CPU.Usage.Total
		}
		if m.Memory != nil && m.Memory.Usage != nil {
			stats.MemoryUsageBytes = int64(m.Memory.Usage.Usage)
			stats.MemoryLimitBytes = int64(m.Memory.Usage.Limit)
		}
	case *v2.Metrics:
		if m.CPU != nil {
			stats.CPUUsageNanos = m.CPU.UsageUsec * 1000
		}
		if m.Memory != nil {
			stats.MemoryUsageBytes = int64(m.Memory.Usage)
			stats.MemoryLimitBytes = int64(m.Memory.UsageLimit)
		}
	default:
		return nil, fmt.Errorf("unsupported metrics type %T", data)
	}

	// Disk is estimated from the writable snapshot layer; base image layers
	// are shared and not charged to the instance.
	if info, err := container.Info(ctx); err == nil && info.SnapshotKey != "" {
		if usage, err := d.client.SnapshotService(info.Snapshotter).Usage(ctx, info.SnapshotKey); err == nil {
			stats.DiskUsageBytes = usage.Size
		}
	}

	return stats, nil
}

// withNoNewPrivileges stops job processes from gaining privileges via
// setuid binaries.
func withNoNewPrivileges(_ context.Context, _ oci.Client, _ *containers.Container, s *specs.Spec) error {
	if s.Process == nil {
		s.Process = &specs.Process{}
	}
	s.Process.NoNewPrivileges = true
	return nil
}

// envList renders an env map as sorted KEY=VALUE strings
func envList(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	list := make([]string, 0, len(keys))
	for _, k := range keys {
		list = append(list, k+"="+env[k])
	}
	return list
}
