package quota

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hodei/pipelines/pkg/events"
	"github.com/hodei/pipelines/pkg/log"
	"github.com/hodei/pipelines/pkg/resource"
	"github.com/hodei/pipelines/pkg/storage"
	"github.com/hodei/pipelines/pkg/types"
)

// Decision is the outcome of an admission check
type Decision string

const (
	DecisionAllow            Decision = "allow"
	DecisionAllowWithWarning Decision = "allow_with_warning"
	DecisionBlock            Decision = "block"
)

// CheckResult carries the decision plus any violations and warnings
type CheckResult struct {
	Decision   Decision
	Violations []*types.QuotaViolation
	Warnings   []*types.ResourceAlert
}

// Allowed reports whether the request may proceed
func (r *CheckResult) Allowed() bool {
	return r.Decision != DecisionBlock
}

// Engine enforces per-pool resource quotas and runs the background
// monitoring loop.
type Engine struct {
	store  storage.Store
	logger zerolog.Logger

	// Usage rows are read-modify-write; serialize per pool
	poolMu   map[string]*sync.Mutex
	poolMuMu sync.Mutex

	alerts     *events.Broker[*types.ResourceAlert]
	violations *events.Broker[*types.QuotaViolation]

	monitorInterval time.Duration
	cancel          context.CancelFunc
	done            chan struct{}
	stopOnce        sync.Once
}

// Config holds quota engine configuration
type Config struct {
	MonitorInterval time.Duration
}

// NewEngine creates a quota engine backed by the given store
func NewEngine(store storage.Store, cfg Config) *Engine {
	interval := cfg.MonitorInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	e := &Engine{
		store:           store,
		logger:          log.WithComponent("quota"),
		poolMu:          make(map[string]*sync.Mutex),
		alerts:          events.NewBroker[*types.ResourceAlert](),
		violations:      events.NewBroker[*types.QuotaViolation](),
		monitorInterval: interval,
		done:            make(chan struct{}),
	}
	e.alerts.Start()
	e.violations.Start()
	return e
}

// SubscribeAlerts returns a channel receiving threshold-crossing alerts
func (e *Engine) SubscribeAlerts() chan *types.ResourceAlert {
	return e.alerts.Subscribe()
}

// SubscribeViolations returns a channel receiving quota violations
func (e *Engine) SubscribeViolations() chan *types.QuotaViolation {
	return e.violations.Subscribe()
}

func (e *Engine) lockPool(poolID string) *sync.Mutex {
	e.poolMuMu.Lock()
	defer e.poolMuMu.Unlock()

	mu, ok := e.poolMu[poolID]
	if !ok {
		mu = &sync.Mutex{}
		e.poolMu[poolID] = mu
	}
	return mu
}

// usage returns the current usage row for a pool, zero-valued if absent
func (e *Engine) usage(poolID string) (*types.ResourceUsage, error) {
	u, err := e.store.GetUsage(poolID)
	if err != nil {
		return &types.ResourceUsage{PoolID: poolID}, nil
	}
	return u, nil
}

// projected holds one resource dimension of a projected admission
type projected struct {
	resource  string
	limit     float64
	current   float64
	attempted float64
	threshold float64
}

func (e *Engine) project(quota *types.ResourceQuota, usage *types.ResourceUsage, req *types.ResourceRequest) []projected {
	threshold := func(name string) float64 {
		if t, ok := quota.AlertThresholds[name]; ok {
			return t
		}
		return 0
	}

	dims := []projected{
		{"cpu", quota.Limits.MaxCPUCores, usage.UsedCPUCores, usage.UsedCPUCores + req.CPUCores, threshold("cpu")},
		{"memory", quota.Limits.MaxMemoryGB, usage.UsedMemoryGB, usage.UsedMemoryGB + req.MemoryGB, threshold("memory")},
		{"storage", quota.Limits.MaxStorageGB, usage.UsedStorageGB, usage.UsedStorageGB + req.StorageGB, threshold("storage")},
		{"jobs", float64(quota.Limits.MaxConcurrentJobs), float64(usage.ActiveJobs), float64(usage.ActiveJobs + req.Jobs), threshold("jobs")},
		{"workers", float64(quota.Limits.MaxConcurrentWorkers), float64(usage.ActiveWorkers), float64(usage.ActiveWorkers + req.Workers), threshold("workers")},
	}

	// Zero limit means the dimension is unconstrained
	var constrained []projected
	for _, d := range dims {
		if d.limit > 0 {
			constrained = append(constrained, d)
		}
	}
	return constrained
}

// severityFor buckets a violation by excess percentage over the limit
func severityFor(limit, attempted float64) types.ViolationSeverity {
	if limit <= 0 {
		return types.SeverityLow
	}
	excess := (attempted - limit) / limit * 100
	switch {
	case excess >= 50:
		return types.SeverityCritical
	case excess >= 25:
		return types.SeverityHigh
	case excess >= 10:
		return types.SeverityMedium
	default:
		return types.SeverityLow
	}
}

// Check evaluates an admission request against the pool's quota. HARD
// violations block, SOFT violations allow with warning, ADVISORY never
// blocks. Violations are persisted and broadcast.
func (e *Engine) Check(ctx context.Context, poolID string, req *types.ResourceRequest, checkContext string) (*CheckResult, error) {
	return e.check(ctx, poolID, req, checkContext, true)
}

// CheckDryRun evaluates an admission without persisting or broadcasting
// violations. The scheduler uses it while ranking candidate pools.
func (e *Engine) CheckDryRun(ctx context.Context, poolID string, req *types.ResourceRequest) (*CheckResult, error) {
	return e.check(ctx, poolID, req, "dry-run", false)
}

func (e *Engine) check(ctx context.Context, poolID string, req *types.ResourceRequest, checkContext string, persist bool) (*CheckResult, error) {
	quota, err := e.store.GetQuotaByPool(poolID)
	if err != nil || !quota.Enabled {
		return &CheckResult{Decision: DecisionAllow}, nil
	}

	mu := e.lockPool(poolID)
	mu.Lock()
	defer mu.Unlock()

	usage, err := e.usage(poolID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var violations []*types.QuotaViolation
	var warnings []*types.ResourceAlert

	for _, d := range e.project(quota, usage, req) {
		if d.attempted > d.limit {
			violations = append(violations, &types.QuotaViolation{
				ID:        resource.NewID(),
				PoolID:    poolID,
				QuotaID:   quota.ID,
				Resource:  d.resource,
				Limit:     d.limit,
				Attempted: d.attempted,
				Current:   d.current,
				Severity:  severityFor(d.limit, d.attempted),
				Context:   checkContext,
				Timestamp: now,
			})
			continue
		}
		if d.threshold > 0 && d.attempted/d.limit*100 >= d.threshold {
			warnings = append(warnings, &types.ResourceAlert{
				PoolID:    poolID,
				Resource:  d.resource,
				Current:   d.attempted,
				Limit:     d.limit,
				Percent:   d.attempted / d.limit * 100,
				Threshold: d.threshold,
				Timestamp: now,
			})
		}
	}

	result := &CheckResult{Violations: violations, Warnings: warnings}
	switch {
	case len(violations) > 0 && quota.Policy == types.QuotaPolicyHard:
		result.Decision = DecisionBlock
		if persist {
			e.recordViolations(violations, types.ActionBlocked)
		}
	case len(violations) > 0 && quota.Policy == types.QuotaPolicySoft:
		result.Decision = DecisionAllowWithWarning
		if persist {
			e.recordViolations(violations, types.ActionAllowedWithWarning)
		}
	case len(violations) > 0:
		// ADVISORY: surface but never block
		result.Decision = DecisionAllow
		if persist {
			e.recordViolations(violations, types.ActionNotificationSent)
		}
	case len(warnings) > 0:
		result.Decision = DecisionAllowWithWarning
		if persist {
			e.publishWarnings(warnings)
		}
	default:
		result.Decision = DecisionAllow
	}

	return result, nil
}

func (e *Engine) recordViolations(violations []*types.QuotaViolation, action types.ViolationAction) {
	for _, v := range violations {
		v.Action = action
		if err := e.store.CreateViolation(v); err != nil {
			e.logger.Error().Err(err).Str("pool_id", v.PoolID).Msg("failed to persist violation")
		}
		e.violations.Publish(v)
	}
}

func (e *Engine) publishWarnings(warnings []*types.ResourceAlert) {
	for _, w := range warnings {
		e.alerts.Publish(w)
	}
}

// applyUsage mutates the usage row for a pool under its mutex
func (e *Engine) applyUsage(poolID string, mutate func(*types.ResourceUsage)) error {
	mu := e.lockPool(poolID)
	mu.Lock()
	defer mu.Unlock()

	usage, err := e.usage(poolID)
	if err != nil {
		return err
	}

	mutate(usage)

	// Usage never goes negative even if remove outpaces add
	if usage.UsedCPUCores < 0 {
		usage.UsedCPUCores = 0
	}
	if usage.UsedMemoryGB < 0 {
		usage.UsedMemoryGB = 0
	}
	if usage.UsedStorageGB < 0 {
		usage.UsedStorageGB = 0
	}
	if usage.ActiveJobs < 0 {
		usage.ActiveJobs = 0
	}
	if usage.ActiveWorkers < 0 {
		usage.ActiveWorkers = 0
	}

	usage.UpdatedAt = time.Now()
	return e.store.PutUsage(usage)
}

// AddJob records a job's resource consumption against a pool
func (e *Engine) AddJob(poolID string, cpu, memGB, storageGB float64) error {
	return e.applyUsage(poolID, func(u *types.ResourceUsage) {
		u.UsedCPUCores += cpu
		u.UsedMemoryGB += memGB
		u.UsedStorageGB += storageGB
		u.ActiveJobs++
	})
}

// RemoveJob releases a job's resource consumption
func (e *Engine) RemoveJob(poolID string, cpu, memGB, storageGB float64) error {
	return e.applyUsage(poolID, func(u *types.ResourceUsage) {
		u.UsedCPUCores -= cpu
		u.UsedMemoryGB -= memGB
		u.UsedStorageGB -= storageGB
		u.ActiveJobs--
	})
}

// AddWorker records one worker against a pool
func (e *Engine) AddWorker(poolID string) error {
	return e.applyUsage(poolID, func(u *types.ResourceUsage) {
		u.ActiveWorkers++
	})
}

// RemoveWorker releases one worker
func (e *Engine) RemoveWorker(poolID string) error {
	return e.applyUsage(poolID, func(u *types.ResourceUsage) {
		u.ActiveWorkers--
	})
}

// Usage returns the current usage row for a pool
func (e *Engine) Usage(poolID string) (*types.ResourceUsage, error) {
	mu := e.lockPool(poolID)
	mu.Lock()
	defer mu.Unlock()
	return e.usage(poolID)
}

// ResolveViolation marks a violation resolved
func (e *Engine) ResolveViolation(id, resolvedBy string) error {
	v, err := e.store.GetViolation(id)
	if err != nil {
		return fmt.Errorf("violation %s: %w", id, err)
	}

	v.Resolved = true
	v.ResolvedBy = resolvedBy
	v.ResolvedAt = time.Now()
	return e.store.UpdateViolation(v)
}

// Start launches the background monitoring loop
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	go e.monitorLoop(ctx)
}

// Shutdown cancels the monitoring loop and closes the broadcast streams
func (e *Engine) Shutdown() {
	e.stopOnce.Do(func() {
		if e.cancel != nil {
			e.cancel()
			<-e.done
		} else {
			close(e.done)
		}
		e.alerts.Stop()
		e.violations.Stop()
	})
}

// monitorLoop periodically checks every enabled quota against current
// usage (not projected) and publishes alerts and violations.
func (e *Engine) monitorLoop(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.scan()
		case <-ctx.Done():
			return
		}
	}
}

func (e *Engine) scan() {
	quotas, err := e.store.ListQuotas()
	if err != nil {
		e.logger.Error().Err(err).Msg("quota scan failed to list quotas")
		return
	}

	now := time.Now()
	for _, quota := range quotas {
		if !quota.Enabled {
			continue
		}

		usage, err := e.usage(quota.PoolID)
		if err != nil {
			continue
		}

		for _, d := range e.project(quota, usage, &types.ResourceRequest{}) {
			if d.current > d.limit {
				v := &types.QuotaViolation{
					ID:        resource.NewID(),
					PoolID:    quota.PoolID,
					QuotaID:   quota.ID,
					Resource:  d.resource,
					Limit:     d.limit,
					Attempted: d.current,
					Current:   d.current,
					Severity:  severityFor(d.limit, d.current),
					Action:    types.ActionNotificationSent,
					Context:   "monitoring",
					Timestamp: now,
				}
				if err := e.store.CreateViolation(v); err != nil {
					e.logger.Error().Err(err).Msg("failed to persist monitoring violation")
				}
				e.violations.Publish(v)
				continue
			}
			if d.threshold > 0 && d.current/d.limit*100 >= d.threshold {
				e.alerts.Publish(&types.ResourceAlert{
					PoolID:    quota.PoolID,
					Resource:  d.resource,
					Current:   d.current,
					Limit:     d.limit,
					Percent:   d.current / d.limit * 100,
					Threshold: d.threshold,
					Timestamp: now,
				})
			}
		}
	}
}
