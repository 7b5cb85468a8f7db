package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/hodei/pipelines/pkg/config"
	"github.com/hodei/pipelines/pkg/log"
	"github.com/hodei/pipelines/pkg/pool"
	"github.com/hodei/pipelines/pkg/resource"
	"github.com/hodei/pipelines/pkg/storage"
	"github.com/hodei/pipelines/pkg/types"
)

// Manifest declares the entities the orchestrator needs before it can
// admit jobs: resource pools, queues, worker pools and quotas.
type Manifest struct {
	ResourcePools []ResourcePoolSpec `yaml:"resource_pools"`
	Queues        []QueueSpec        `yaml:"queues"`
	WorkerPools   []WorkerPoolSpec   `yaml:"worker_pools"`
	Quotas        []QuotaSpec        `yaml:"quotas"`
}

// ResourcePoolSpec seeds one resource pool with its capacity.
type ResourcePoolSpec struct {
	ID         string            `yaml:"id"`
	Name       string            `yaml:"name"`
	Labels     map[string]string `yaml:"labels"`
	CostWeight float64           `yaml:"cost_weight"`
	CPUCores   float64           `yaml:"cpu_cores"`
	MemoryGB   float64           `yaml:"memory_gb"`
	DiskGB     float64           `yaml:"disk_gb"`
	Nodes      int               `yaml:"nodes"`
}

// QueueSpec seeds one job queue.
type QueueSpec struct {
	ID                string `yaml:"id"`
	Name              string `yaml:"name"`
	ResourcePoolID    string `yaml:"resource_pool_id"`
	Type              string `yaml:"type"`
	BasePriority      string `yaml:"base_priority"`
	MaxConcurrentJobs int    `yaml:"max_concurrent_jobs"`
	MaxQueuedJobs     int    `yaml:"max_queued_jobs"`
}

// WorkerPoolSpec seeds one worker pool with its instance template and
// optional scaling policy.
type WorkerPoolSpec struct {
	ID             string            `yaml:"id"`
	Name           string            `yaml:"name"`
	ResourcePoolID string            `yaml:"resource_pool_id"`
	Image          string            `yaml:"image"`
	CPUMillis      int64             `yaml:"cpu_millis"`
	MemoryBytes    int64             `yaml:"memory_bytes"`
	Env            map[string]string `yaml:"env"`
	Labels         map[string]string `yaml:"labels"`
	MaxSize        int               `yaml:"max_size"`
	Scaling        *ScalingSpec      `yaml:"scaling"`
}

// ScalingSpec seeds an autoscaling policy. A present block is enabled.
type ScalingSpec struct {
	MinWorkers         int             `yaml:"min_workers"`
	MaxWorkers         int             `yaml:"max_workers"`
	Strategy           string          `yaml:"strategy"`
	ScaleUpThreshold   int             `yaml:"scale_up_threshold"`
	ScaleUpWaitTime    config.Duration `yaml:"scale_up_wait_time"`
	ScaleDownThreshold float64         `yaml:"scale_down_threshold"`
	ScaleUpCooldown    config.Duration `yaml:"scale_up_cooldown"`
	ScaleDownCooldown  config.Duration `yaml:"scale_down_cooldown"`
}

// QuotaSpec seeds one resource quota for a pool.
type QuotaSpec struct {
	ID                string             `yaml:"id"`
	PoolID            string             `yaml:"pool_id"`
	Policy            string             `yaml:"policy"`
	MaxCPUCores       float64            `yaml:"max_cpu_cores"`
	MaxMemoryGB       float64            `yaml:"max_memory_gb"`
	MaxStorageGB      float64            `yaml:"max_storage_gb"`
	MaxConcurrentJobs int                `yaml:"max_concurrent_jobs"`
	AlertThresholds   map[string]float64 `yaml:"alert_thresholds"`
}

// Load reads a manifest from a YAML file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// Apply seeds the store and pool manager from the manifest. Entities that
// already exist are left untouched, so applying the same manifest on every
// start is safe.
func Apply(store storage.Store, pools *pool.Manager, m *Manifest) error {
	logger := log.WithComponent("bootstrap")

	for _, spec := range m.ResourcePools {
		if err := applyResourcePool(store, logger, spec); err != nil {
			return err
		}
	}
	for _, spec := range m.Queues {
		if err := applyQueue(store, logger, spec); err != nil {
			return err
		}
	}
	for _, spec := range m.WorkerPools {
		if err := applyWorkerPool(pools, logger, spec); err != nil {
			return err
		}
	}
	for _, spec := range m.Quotas {
		if err := applyQuota(store, logger, spec); err != nil {
			return err
		}
	}
	return nil
}

func applyResourcePool(store storage.Store, logger zerolog.Logger, spec ResourcePoolSpec) error {
	if spec.ID == "" {
		return fmt.Errorf("resource pool without id")
	}
	if err := resource.ValidatePoolName(spec.Name); err != nil {
		return fmt.Errorf("resource pool %s: %w", spec.ID, err)
	}
	if _, err := store.GetPool(spec.ID); err == nil {
		logger.Debug().Str("pool_id", spec.ID).Msg("resource pool exists, skipping")
		return nil
	} else if !errors.Is(err, types.ErrNotFound) {
		return err
	}

	now := time.Now()
	rp := &types.ResourcePool{
		ID:         spec.ID,
		Name:       spec.Name,
		Labels:     spec.Labels,
		CostWeight: spec.CostWeight,
		Status:     types.PoolStatusActive,
		Capacity: &types.PoolCapacity{
			TotalCPUCores:   spec.CPUCores,
			TotalMemoryGB:   spec.MemoryGB,
			TotalDiskGB:     spec.DiskGB,
			AvailableCPU:    spec.CPUCores,
			AvailableMemGB:  spec.MemoryGB,
			AvailableDiskGB: spec.DiskGB,
			AvailableNodes:  spec.Nodes,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.CreatePool(rp); err != nil {
		return fmt.Errorf("failed to seed resource pool %s: %w", spec.ID, err)
	}
	logger.Info().Str("pool_id", spec.ID).Msg("resource pool seeded")
	return nil
}

func applyQueue(store storage.Store, logger zerolog.Logger, spec QueueSpec) error {
	if spec.ID == "" || spec.Name == "" {
		return fmt.Errorf("queue needs both id and name")
	}
	qt, err := queueType(spec.Type)
	if err != nil {
		return fmt.Errorf("queue %s: %w", spec.ID, err)
	}
	prio, err := basePriority(spec.BasePriority)
	if err != nil {
		return fmt.Errorf("queue %s: %w", spec.ID, err)
	}
	if _, err := store.GetQueue(spec.ID); err == nil {
		logger.Debug().Str("queue_id", spec.ID).Msg("queue exists, skipping")
		return nil
	} else if !errors.Is(err, types.ErrNotFound) {
		return err
	}

	now := time.Now()
	q := &types.JobQueue{
		ID:                spec.ID,
		Name:              spec.Name,
		ResourcePoolID:    spec.ResourcePoolID,
		QueueType:         qt,
		BasePriority:      prio,
		MaxConcurrentJobs: spec.MaxConcurrentJobs,
		MaxQueuedJobs:     spec.MaxQueuedJobs,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := store.CreateQueue(q); err != nil {
		return fmt.Errorf("failed to seed queue %s: %w", spec.ID, err)
	}
	logger.Info().Str("queue_id", spec.ID).Msg("queue seeded")
	return nil
}

func applyWorkerPool(pools *pool.Manager, logger zerolog.Logger, spec WorkerPoolSpec) error {
	if spec.ID == "" || spec.Name == "" {
		return fmt.Errorf("worker pool needs both id and name")
	}
	if _, err := pools.GetPool(spec.ID); err == nil {
		logger.Debug().Str("pool_id", spec.ID).Msg("worker pool exists, skipping")
		return nil
	}

	wp := &types.WorkerPool{
		ID:             spec.ID,
		Name:           spec.Name,
		ResourcePoolID: spec.ResourcePoolID,
		MaxSize:        spec.MaxSize,
		Template: &types.WorkerTemplate{
			Image:       spec.Image,
			CPUMillis:   spec.CPUMillis,
			MemoryBytes: spec.MemoryBytes,
			Env:         spec.Env,
			Labels:      spec.Labels,
		},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if spec.Scaling != nil {
		strat, err := scalingStrategy(spec.Scaling.Strategy)
		if err != nil {
			return fmt.Errorf("worker pool %s: %w", spec.ID, err)
		}
		wp.ScalingPolicy = &types.ScalingPolicy{
			MinWorkers:         spec.Scaling.MinWorkers,
			MaxWorkers:         spec.Scaling.MaxWorkers,
			Strategy:           strat,
			ScaleUpThreshold:   spec.Scaling.ScaleUpThreshold,
			ScaleUpWaitTime:    spec.Scaling.ScaleUpWaitTime.Std(),
			ScaleDownThreshold: spec.Scaling.ScaleDownThreshold,
			ScaleUpCooldown:    spec.Scaling.ScaleUpCooldown.Std(),
			ScaleDownCooldown:  spec.Scaling.ScaleDownCooldown.Std(),
			Enabled:            true,
		}
	}
	if err := pools.AddPool(wp); err != nil {
		return fmt.Errorf("failed to seed worker pool %s: %w", spec.ID, err)
	}
	logger.Info().Str("pool_id", spec.ID).Msg("worker pool seeded")
	return nil
}

func applyQuota(store storage.Store, logger zerolog.Logger, spec QuotaSpec) error {
	if spec.PoolID == "" {
		return fmt.Errorf("quota without pool_id")
	}
	policy, err := quotaPolicy(spec.Policy)
	if err != nil {
		return fmt.Errorf("quota for pool %s: %w", spec.PoolID, err)
	}
	if _, err := store.GetQuotaByPool(spec.PoolID); err == nil {
		logger.Debug().Str("pool_id", spec.PoolID).Msg("quota exists, skipping")
		return nil
	} else if !errors.Is(err, types.ErrNotFound) {
		return err
	}

	id := spec.ID
	if id == "" {
		id = resource.NewID()
	}
	now := time.Now()
	q := &types.ResourceQuota{
		ID:     id,
		PoolID: spec.PoolID,
		Limits: types.QuotaLimits{
			MaxCPUCores:       spec.MaxCPUCores,
			MaxMemoryGB:       spec.MaxMemoryGB,
			MaxStorageGB:      spec.MaxStorageGB,
			MaxConcurrentJobs: spec.MaxConcurrentJobs,
		},
		Policy:          policy,
		Enabled:         true,
		AlertThresholds: spec.AlertThresholds,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := store.CreateQuota(q); err != nil {
		return fmt.Errorf("failed to seed quota for pool %s: %w", spec.PoolID, err)
	}
	logger.Info().Str("pool_id", spec.PoolID).Msg("quota seeded")
	return nil
}

func queueType(s string) (types.QueueType, error) {
	switch qt := types.QueueType(s); qt {
	case "":
		return types.QueueTypeFIFO, nil
	case types.QueueTypeFIFO, types.QueueTypeLIFO, types.QueueTypePriority:
		return qt, nil
	default:
		return "", fmt.Errorf("unknown queue type %q", s)
	}
}

func basePriority(s string) (types.JobPriority, error) {
	switch p := types.JobPriority(s); p {
	case "":
		return types.PriorityNormal, nil
	case types.PriorityCritical, types.PriorityHigh, types.PriorityNormal,
		types.PriorityLow, types.PriorityBackground:
		return p, nil
	default:
		return "", fmt.Errorf("unknown priority %q", s)
	}
}

func scalingStrategy(s string) (types.ScalingStrategy, error) {
	switch st := types.ScalingStrategy(s); st {
	case "":
		return types.StrategyReactive, nil
	case types.StrategyReactive, types.StrategyPredictive, types.StrategyResourceBased:
		return st, nil
	default:
		return "", fmt.Errorf("unknown scaling strategy %q", s)
	}
}

func quotaPolicy(s string) (types.QuotaPolicy, error) {
	switch p := types.QuotaPolicy(s); p {
	case "":
		return types.QuotaPolicyHard, nil
	case types.QuotaPolicyHard, types.QuotaPolicySoft, types.QuotaPolicyAdvisory:
		return p, nil
	default:
		return "", fmt.Errorf("unknown quota policy %q", s)
	}
}
