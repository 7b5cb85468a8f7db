package pool

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hodei/pipelines/pkg/driver"
	"github.com/hodei/pipelines/pkg/log"
	"github.com/hodei/pipelines/pkg/types"
)

// Snapshot is the pool state an autoscaling decision is made from
type Snapshot struct {
	QueueLength       int
	AvgWaitTime       time.Duration
	WorkerUtilization float64 // percent
	AvailableWorkers  int
	AvailableCPU      int64 // millicores free in the pool
	AvailableMemory   int64 // bytes free in the pool
	WorkerCPU         int64 // millicores per worker
	WorkerMemory      int64 // bytes per worker
	AvailableNodes    int
}

// Autoscaler evaluates scaling policies and materialises decisions through
// the compute driver.
type Autoscaler struct {
	manager       *Manager
	driver        driver.Driver
	advertiseHost string
	advertisePort string
	logger        zerolog.Logger
}

// NewAutoscaler creates an autoscaler over a pool manager and driver
func NewAutoscaler(manager *Manager, drv driver.Driver) *Autoscaler {
	return &Autoscaler{
		manager: manager,
		driver:  drv,
		logger:  log.WithComponent("autoscaler"),
	}
}

// SetAdvertise records the orchestrator endpoint injected into provisioned
// worker instances.
func (a *Autoscaler) SetAdvertise(host, port string) {
	a.advertiseHost = host
	a.advertisePort = port
}

// inCooldown reports whether the last scale action in the same direction is
// still within its cooldown window
func inCooldown(policy *types.ScalingPolicy, direction types.ScaleDirection, now time.Time) bool {
	last := policy.LastScaleAction
	if last == nil || last.Direction != direction {
		return false
	}

	cooldown := policy.ScaleUpCooldown
	if direction == types.ScaleDown {
		cooldown = policy.ScaleDownCooldown
	}
	return now.Sub(last.Timestamp) < cooldown
}

// ShouldScaleUp reports whether the pool should grow
func ShouldScaleUp(policy *types.ScalingPolicy, snap *Snapshot, now time.Time) bool {
	if !policy.Enabled {
		return false
	}
	if snap.AvailableWorkers >= policy.MaxWorkers {
		return false
	}
	if inCooldown(policy, types.ScaleUp, now) {
		return false
	}

	queuePressure := policy.ScaleUpThreshold > 0 && snap.QueueLength >= policy.ScaleUpThreshold
	waitPressure := policy.ScaleUpWaitTime > 0 && snap.AvgWaitTime >= policy.ScaleUpWaitTime
	return queuePressure || waitPressure
}

// ShouldScaleDown reports whether the pool should shrink
func ShouldScaleDown(policy *types.ScalingPolicy, snap *Snapshot, now time.Time) bool {
	if !policy.Enabled {
		return false
	}
	if snap.AvailableWorkers <= policy.MinWorkers {
		return false
	}
	if inCooldown(policy, types.ScaleDown, now) {
		return false
	}

	return snap.QueueLength == 0 && snap.WorkerUtilization <= policy.ScaleDownThreshold
}

// CalculateOptimal computes the target pool size per the policy's strategy,
// clamped to [MinWorkers, MaxWorkers].
func CalculateOptimal(policy *types.ScalingPolicy, snap *Snapshot) int {
	current := snap.AvailableWorkers

	var desired int
	switch policy.Strategy {
	case types.StrategyReactive:
		desired = reactiveSize(current, policy.MinWorkers, snap)
	case types.StrategyPredictive:
		desired = predictiveSize(current, snap)
	case types.StrategyResourceBased:
		desired = resourceBasedSize(policy, snap)
	default:
		desired = current
	}

	if desired < policy.MinWorkers {
		desired = policy.MinWorkers
	}
	if desired > policy.MaxWorkers {
		desired = policy.MaxWorkers
	}
	return desired
}

// reactiveSize is a step function on backlog and wait time: an empty queue
// collapses to the minimum, a small backlog holds steady, a real backlog
// adds one worker plus one or two more as wait time grows.
func reactiveSize(current, min int, snap *Snapshot) int {
	switch {
	case snap.QueueLength == 0:
		return min
	case snap.QueueLength <= 2:
		return current
	}

	step := 1
	switch {
	case snap.AvgWaitTime > 2*time.Minute:
		step += 2
	case snap.AvgWaitTime > 30*time.Second:
		step++
	}
	return current + step
}

// predictiveSize extrapolates from backlog and wait: the documented
// arithmetic is the contract.
func predictiveSize(current int, snap *Snapshot) int {
	return current + int(math.Floor(float64(snap.QueueLength)*0.5+snap.AvgWaitTime.Seconds()*0.1))
}

// resourceBasedSize sizes against free capacity
func resourceBasedSize(policy *types.ScalingPolicy, snap *Snapshot) int {
	desired := int(math.Ceil(float64(snap.QueueLength) * 1.2))

	maxByResources := math.MaxInt
	if snap.WorkerCPU > 0 {
		maxByResources = minInt(maxByResources, int(snap.AvailableCPU/snap.WorkerCPU))
	}
	if snap.WorkerMemory > 0 {
		maxByResources = minInt(maxByResources, int(snap.AvailableMemory/snap.WorkerMemory))
	}
	if snap.AvailableNodes > 0 {
		maxByResources = minInt(maxByResources, snap.AvailableNodes*5)
	}

	return minInt(minInt(desired, maxByResources), policy.MaxWorkers)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// workerEnv merges the template's environment with the variables a
// provisioned worker needs to find its way back: the pool it belongs to,
// the orchestrator endpoint and its registration labels. The driver adds
// WORKER_ID per instance.
func (a *Autoscaler) workerEnv(wp *types.WorkerPool) map[string]string {
	env := make(map[string]string, len(wp.Template.Env)+4)
	for k, v := range wp.Template.Env {
		env[k] = v
	}
	env["HODEI_WORKER_POOL_ID"] = wp.ID
	if a.advertiseHost != "" {
		env["HODEI_ORCHESTRATOR_HOST"] = a.advertiseHost
	}
	if a.advertisePort != "" {
		env["HODEI_ORCHESTRATOR_PORT"] = a.advertisePort
	}
	if len(wp.Template.Labels) > 0 {
		env["WORKER_LABELS"] = renderLabels(wp.Template.Labels)
	}
	return env
}

// renderLabels serialises a label map as "k=v,k2=v2" in key order.
func renderLabels(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+labels[k])
	}
	return strings.Join(pairs, ",")
}

// Evaluate runs one scaling evaluation for a pool and, when a resize is
// warranted, materialises it through the driver. The recorded ScaleAction
// starts the cooldown window.
func (a *Autoscaler) Evaluate(ctx context.Context, wp *types.WorkerPool, snap *Snapshot) (*types.ScaleAction, error) {
	policy := wp.ScalingPolicy
	if policy == nil || !policy.Enabled {
		return nil, nil
	}

	now := time.Now()
	up := ShouldScaleUp(policy, snap, now)
	down := ShouldScaleDown(policy, snap, now)
	if !up && !down {
		return nil, nil
	}

	target := CalculateOptimal(policy, snap)
	if target == snap.AvailableWorkers {
		return nil, nil
	}

	direction := types.ScaleUp
	if target < snap.AvailableWorkers {
		direction = types.ScaleDown

		// Drain READY workers before shrinking the instance count; BUSY
		// workers are never picked.
		for _, w := range a.manager.DrainCandidates(wp.ResourcePoolID, snap.AvailableWorkers-target) {
			if err := a.manager.SetWorkerStatus(w.ID, types.WorkerStatusDraining); err != nil {
				a.logger.Warn().Err(err).Str("worker_id", w.ID).Msg("failed to drain worker")
			}
		}
	}

	spec := &driver.InstanceSpec{
		Image:       wp.Template.Image,
		Env:         a.workerEnv(wp),
		Labels:      wp.Template.Labels,
		CPUMillis:   wp.Template.CPUMillis,
		MemoryBytes: wp.Template.MemoryBytes,
	}

	result, err := a.driver.ScaleTo(ctx, wp.ResourcePoolID, target, spec)
	if err != nil {
		return nil, err
	}
	for _, ferr := range result.Failed {
		a.logger.Warn().Err(ferr).Str("pool_id", wp.ResourcePoolID).Msg("partial scaling failure")
	}

	action := &types.ScaleAction{
		Direction: direction,
		FromSize:  snap.AvailableWorkers,
		ToSize:    target,
		Timestamp: now,
	}
	policy.LastScaleAction = action
	wp.DesiredSize = target

	a.logger.Info().
		Str("pool_id", wp.ResourcePoolID).
		Str("direction", string(direction)).
		Int("from", action.FromSize).
		Int("to", action.ToSize).
		Msg("pool scaled")

	return action, nil
}
