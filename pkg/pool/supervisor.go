package pool

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hodei/pipelines/pkg/log"
	"github.com/hodei/pipelines/pkg/storage"
	"github.com/hodei/pipelines/pkg/types"
)

// DefaultEvaluateInterval is how often the supervisor re-evaluates pools.
const DefaultEvaluateInterval = 30 * time.Second

// SupervisorConfig tunes the autoscaling supervisor.
type SupervisorConfig struct {
	Interval time.Duration

	// Utilization feeds pool utilization samples into scaling decisions,
	// typically the monitor's broadcast channel.
	Utilization <-chan *types.PoolUtilization

	// OnAction is invoked after every materialised scale action.
	OnAction func(poolID string, action *types.ScaleAction)
}

// Supervisor periodically evaluates every managed pool against its scaling
// policy and materialises the resulting actions through the autoscaler.
type Supervisor struct {
	scaler   *Autoscaler
	manager  *Manager
	store    storage.Store
	util     <-chan *types.PoolUtilization
	interval time.Duration
	onAction func(poolID string, action *types.ScaleAction)
	logger   zerolog.Logger

	mu     sync.Mutex
	latest map[string]*types.PoolUtilization

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewSupervisor creates an autoscaling supervisor.
func NewSupervisor(scaler *Autoscaler, manager *Manager, store storage.Store, cfg SupervisorConfig) *Supervisor {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultEvaluateInterval
	}
	return &Supervisor{
		scaler:   scaler,
		manager:  manager,
		store:    store,
		util:     cfg.Utilization,
		interval: interval,
		onAction: cfg.OnAction,
		logger:   log.WithComponent("autoscaler"),
		latest:   make(map[string]*types.PoolUtilization),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the evaluation loop
func (s *Supervisor) Start(ctx context.Context) {
	go s.loop(ctx)
}

// Stop halts the loop and waits for it to exit
func (s *Supervisor) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.done
}

func (s *Supervisor) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case u, ok := <-s.util:
			if !ok {
				s.util = nil
				continue
			}
			s.observe(u)
		case <-ticker.C:
			s.evaluate(ctx)
		}
	}
}

func (s *Supervisor) observe(u *types.PoolUtilization) {
	if u == nil {
		return
	}
	s.mu.Lock()
	s.latest[u.PoolID] = u
	s.mu.Unlock()
}

func (s *Supervisor) evaluate(ctx context.Context) {
	backlog, wait := s.queueBacklog()

	for _, wp := range s.manager.ListPools() {
		if wp.ScalingPolicy == nil || !wp.ScalingPolicy.Enabled {
			continue
		}

		snap := s.snapshot(wp, backlog, wait)
		action, err := s.scaler.Evaluate(ctx, wp, snap)
		if err != nil {
			s.logger.Warn().Err(err).Str("pool_id", wp.ResourcePoolID).Msg("scaling evaluation failed")
			continue
		}
		if action != nil && s.onAction != nil {
			s.onAction(wp.ResourcePoolID, action)
		}
	}
}

// queueBacklog reports the total queued job count and average wait time
// across all queues.
func (s *Supervisor) queueBacklog() (int, time.Duration) {
	queued, err := s.store.ListQueuedJobs()
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to list queued jobs")
		return 0, 0
	}
	if len(queued) == 0 {
		return 0, 0
	}

	now := time.Now()
	var total time.Duration
	for _, qj := range queued {
		total += now.Sub(qj.QueuedAt)
	}
	return len(queued), total / time.Duration(len(queued))
}

func (s *Supervisor) snapshot(wp *types.WorkerPool, backlog int, wait time.Duration) *Snapshot {
	snap := &Snapshot{
		QueueLength:      backlog,
		AvgWaitTime:      wait,
		AvailableWorkers: wp.CurrentSize,
	}
	if wp.Template != nil {
		snap.WorkerCPU = wp.Template.CPUMillis
		snap.WorkerMemory = wp.Template.MemoryBytes
	}

	s.mu.Lock()
	u := s.latest[wp.ResourcePoolID]
	s.mu.Unlock()
	if u != nil {
		if u.TotalCPUCores > 0 {
			snap.WorkerUtilization = u.UsedCPUCores / u.TotalCPUCores * 100
		}
		snap.AvailableCPU = int64((u.TotalCPUCores - u.UsedCPUCores) * 1000)
		snap.AvailableMemory = u.TotalMemoryBytes - u.UsedMemoryBytes
	}
	return snap
}
