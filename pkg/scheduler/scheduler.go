package scheduler

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/hodei/pipelines/pkg/log"
	"github.com/hodei/pipelines/pkg/pool"
	"github.com/hodei/pipelines/pkg/quota"
	"github.com/hodei/pipelines/pkg/storage"
	"github.com/hodei/pipelines/pkg/types"
)

// Scheduler chooses a resource pool for a ready job
type Scheduler struct {
	store  storage.Store
	quota  *quota.Engine
	pools  *pool.Manager
	logger zerolog.Logger
}

// NewScheduler creates a scheduler
func NewScheduler(store storage.Store, quotaEngine *quota.Engine, pools *pool.Manager) *Scheduler {
	return &Scheduler{
		store:  store,
		quota:  quotaEngine,
		pools:  pools,
		logger: log.WithComponent("scheduler"),
	}
}

// candidate is one admissible pool with its ranking keys
type candidate struct {
	pool        *types.ResourcePool
	utilization float64 // projected CPU utilization after admission
	freeCPU     float64
}

// FindPlacement selects a pool satisfying the job's worker requirements
// that passes a quota dry-run. Candidates are ranked by projected
// utilization, then free capacity, then cost weight, then pool ID.
func (s *Scheduler) FindPlacement(ctx context.Context, job *types.Job) (*types.ResourcePool, error) {
	pools, err := s.store.ListPools()
	if err != nil {
		return nil, fmt.Errorf("failed to list pools: %w", err)
	}

	req := requestFor(job)
	reqs := requirementsFor(job)

	var candidates []candidate
	for _, p := range pools {
		if p.Status != types.PoolStatusActive {
			continue
		}
		if !s.satisfiesRequirements(p, reqs) {
			continue
		}

		result, err := s.quota.CheckDryRun(ctx, p.ID, req)
		if err != nil || !result.Allowed() {
			continue
		}

		candidates = append(candidates, candidate{
			pool:        p,
			utilization: s.projectedUtilization(p, req),
			freeCPU:     freeCPU(p),
		})
	}

	if len(candidates) == 0 {
		return nil, &types.ProvisioningError{
			Reason: types.ReasonResourceUnavailable,
			Err:    fmt.Errorf("no pool satisfies job %s", job.ID),
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.utilization != b.utilization {
			return a.utilization < b.utilization
		}
		if a.freeCPU != b.freeCPU {
			return a.freeCPU > b.freeCPU
		}
		if a.pool.CostWeight != b.pool.CostWeight {
			return a.pool.CostWeight < b.pool.CostWeight
		}
		return a.pool.ID < b.pool.ID
	})

	chosen := candidates[0].pool
	s.logger.Debug().Str("job_id", job.ID).Str("pool_id", chosen.ID).Msg("placement found")
	return chosen, nil
}

// requestFor projects the job's resource consumption for the quota check
func requestFor(job *types.Job) *types.ResourceRequest {
	req := &types.ResourceRequest{Jobs: 1}
	if r := requirementsFor(job); r != nil {
		req.CPUCores = float64(r.CPUMillis) / 1000
		req.MemoryGB = float64(r.MemoryBytes) / (1 << 30)
		req.StorageGB = r.StorageGB
	}
	return req
}

func requirementsFor(job *types.Job) *types.WorkerRequirements {
	if job.Definition == nil || job.Definition.Inline == nil {
		return nil
	}
	return job.Definition.Inline.Requirements
}

// satisfiesRequirements checks capabilities, labels and raw capacity
func (s *Scheduler) satisfiesRequirements(p *types.ResourcePool, reqs *types.WorkerRequirements) bool {
	if reqs == nil {
		return true
	}

	for k, v := range reqs.Labels {
		if p.Labels[k] != v {
			return false
		}
	}

	if p.Capacity != nil {
		if reqs.CPUMillis > 0 && float64(reqs.CPUMillis)/1000 > p.Capacity.AvailableCPU {
			return false
		}
		if reqs.MemoryBytes > 0 && float64(reqs.MemoryBytes)/(1<<30) > p.Capacity.AvailableMemGB {
			return false
		}
	}

	if len(reqs.Languages) == 0 && len(reqs.Tools) == 0 && len(reqs.Features) == 0 {
		return true
	}

	wp, err := s.pools.GetPool(p.ID)
	if err != nil || wp.Template == nil || wp.Template.Capabilities == nil {
		return false
	}
	caps := wp.Template.Capabilities
	return containsAll(caps.Languages, reqs.Languages) &&
		containsAll(caps.Tools, reqs.Tools) &&
		containsAll(caps.Features, reqs.Features)
}

func containsAll(have, want []string) bool {
	set := make(map[string]bool, len(have))
	for _, h := range have {
		set[h] = true
	}
	for _, w := range want {
		if !set[w] {
			return false
		}
	}
	return true
}

// projectedUtilization estimates pool CPU utilization after admission
func (s *Scheduler) projectedUtilization(p *types.ResourcePool, req *types.ResourceRequest) float64 {
	if p.Capacity == nil || p.Capacity.TotalCPUCores <= 0 {
		return 0
	}

	used := p.Capacity.TotalCPUCores - p.Capacity.AvailableCPU
	if usage, err := s.quota.Usage(p.ID); err == nil && usage.UsedCPUCores > used {
		used = usage.UsedCPUCores
	}
	return (used + req.CPUCores) / p.Capacity.TotalCPUCores
}

func freeCPU(p *types.ResourcePool) float64 {
	if p.Capacity == nil {
		return 0
	}
	return p.Capacity.AvailableCPU
}
