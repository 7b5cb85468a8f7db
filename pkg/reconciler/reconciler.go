package reconciler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hodei/pipelines/pkg/driver"
	"github.com/hodei/pipelines/pkg/health"
	"github.com/hodei/pipelines/pkg/log"
	"github.com/hodei/pipelines/pkg/metrics"
	"github.com/hodei/pipelines/pkg/pool"
	"github.com/hodei/pipelines/pkg/types"
)

const (
	// DefaultInterval is the reconciliation cycle period.
	DefaultInterval = 30 * time.Second

	// DefaultOrphanGrace is how old an unregistered instance must be before
	// it is considered orphaned. Fresh instances get time to register.
	DefaultOrphanGrace = 2 * time.Minute
)

// WorkerLostHandler is notified when a worker is dropped for missed
// heartbeats, typically the execution engine.
type WorkerLostHandler interface {
	OnWorkerLost(workerID string)
}

// Config tunes the reconciler
type Config struct {
	Interval    time.Duration
	OrphanGrace time.Duration
}

// Reconciler keeps observed state converging: stale workers are dropped and
// their executions failed over, instances with no registered worker are
// terminated, and pool template probes feed pool status.
type Reconciler struct {
	pools   *pool.Manager
	drv     driver.Driver
	lost    WorkerLostHandler
	logger  zerolog.Logger
	probes  map[string][]*probeState // pool ID -> one state per template probe
	cfg     Config
	stopCh  chan struct{}
	done    chan struct{}
	started bool
}

type probeState struct {
	probe   *types.Probe
	checker health.Checker
	status  *health.Status
}

// New creates a reconciler
func New(pools *pool.Manager, drv driver.Driver, lost WorkerLostHandler, cfg Config) *Reconciler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.OrphanGrace <= 0 {
		cfg.OrphanGrace = DefaultOrphanGrace
	}
	return &Reconciler{
		pools:  pools,
		drv:    drv,
		lost:   lost,
		logger: log.WithComponent("reconciler"),
		probes: make(map[string][]*probeState),
		cfg:    cfg,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start begins the reconciliation loop
func (r *Reconciler) Start(ctx context.Context) {
	if r.started {
		return
	}
	r.started = true
	go r.run(ctx)
}

// Stop halts the loop and waits for the current cycle to finish
func (r *Reconciler) Stop() {
	if !r.started {
		return
	}
	close(r.stopCh)
	<-r.done
}

func (r *Reconciler) run(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.reconcile(ctx)
		}
	}
}

// reconcile performs one cycle
func (r *Reconciler) reconcile(ctx context.Context) {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.ReconcileDuration)
		metrics.ReconcileCycles.Inc()
	}()

	r.sweepStaleWorkers()
	r.sweepOrphanInstances(ctx)
	r.probePools(ctx)
}

// sweepStaleWorkers drops workers whose heartbeats stopped and fails over
// whatever they were running.
func (r *Reconciler) sweepStaleWorkers() {
	for _, w := range r.pools.StaleWorkers() {
		r.logger.Warn().
			Str("worker_id", w.ID).
			Str("pool_id", w.PoolID).
			Time("last_heartbeat", w.LastHeartbeat).
			Msg("worker heartbeat expired")

		if r.lost != nil {
			r.lost.OnWorkerLost(w.ID)
		}
		r.pools.RemoveWorker(w.ID)
		metrics.WorkersLost.Inc()
	}
}

// sweepOrphanInstances terminates instances that never registered a worker,
// or whose worker is gone, once they are past the grace window.
func (r *Reconciler) sweepOrphanInstances(ctx context.Context) {
	instances, err := r.drv.ListAll(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("failed to list instances")
		return
	}

	now := time.Now()
	for _, inst := range instances {
		if now.Sub(inst.CreatedAt) < r.cfg.OrphanGrace {
			continue
		}
		if inst.WorkerID != "" {
			if _, err := r.pools.GetWorker(inst.WorkerID); err == nil {
				continue
			}
		}

		r.logger.Info().
			Str("instance_id", inst.ID).
			Str("pool_id", inst.PoolID).
			Msg("terminating orphaned instance")
		if err := r.drv.Terminate(ctx, inst.ID); err != nil {
			r.logger.Warn().Err(err).Str("instance_id", inst.ID).Msg("failed to terminate orphan")
			continue
		}
		metrics.OrphansTerminated.Inc()
	}
}

// probePools runs each pool's template probes and reflects the verdict in
// the pool status.
func (r *Reconciler) probePools(ctx context.Context) {
	for _, wp := range r.pools.ListPools() {
		if wp.Template == nil || len(wp.Template.Probes) == 0 {
			continue
		}

		states, err := r.probeStates(wp)
		if err != nil {
			r.logger.Warn().Err(err).Str("pool_id", wp.ID).Msg("invalid probe configuration")
			continue
		}

		healthy := true
		for _, ps := range states {
			res := ps.checker.Check(ctx)
			ps.status.Update(res, ps.probe.Retries)
			if !ps.status.Healthy {
				healthy = false
				r.logger.Warn().
					Str("pool_id", wp.ID).
					Str("probe", string(ps.checker.Type())).
					Str("message", res.Message).
					Int("consecutive_failures", ps.status.ConsecutiveFailures).
					Msg("pool probe failing")
			}
		}

		status := types.WorkerPoolStatusActive
		if !healthy {
			status = types.WorkerPoolStatusError
		}
		if err := r.pools.SetPoolStatus(wp.ID, status); err != nil {
			r.logger.Warn().Err(err).Str("pool_id", wp.ID).Msg("failed to set pool status")
		}
	}
}

// probeStates lazily builds the checker set for a pool
func (r *Reconciler) probeStates(wp *types.WorkerPool) ([]*probeState, error) {
	if states, ok := r.probes[wp.ID]; ok {
		return states, nil
	}

	states := make([]*probeState, 0, len(wp.Template.Probes))
	for i, p := range wp.Template.Probes {
		checker, err := health.FromProbe(p)
		if err != nil {
			return nil, fmt.Errorf("probe %d: %w", i, err)
		}
		states = append(states, &probeState{probe: p, checker: checker, status: health.NewStatus()})
	}
	r.probes[wp.ID] = states
	return states, nil
}
