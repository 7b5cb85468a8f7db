package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hodei/pipelines/pkg/driver"
	"github.com/hodei/pipelines/pkg/events"
	"github.com/hodei/pipelines/pkg/log"
	"github.com/hodei/pipelines/pkg/storage"
	"github.com/hodei/pipelines/pkg/types"
)

// DefaultInterval is the sampling period.
const DefaultInterval = 15 * time.Second

// sampleTTL bounds how long a previous CPU sample stays valid for delta
// computation. Instances gone longer than this are dropped from the cache.
const sampleTTL = 5 * time.Minute

// Config tunes the monitor.
type Config struct {
	Interval time.Duration
}

// Monitor periodically samples instance stats from the compute driver,
// derives per-pool utilization and broadcasts the snapshots.
type Monitor struct {
	store    storage.Store
	driver   driver.Driver
	interval time.Duration
	logger   zerolog.Logger

	mu      sync.Mutex
	samples map[string]cpuSample

	utilization *events.Broker[*types.PoolUtilization]

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

type cpuSample struct {
	usageNanos uint64
	takenAt    time.Time
}

// New creates a monitor over the given driver.
func New(store storage.Store, drv driver.Driver, cfg Config) *Monitor {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		store:       store,
		driver:      drv,
		interval:    interval,
		logger:      log.WithComponent("monitor"),
		samples:     make(map[string]cpuSample),
		utilization: events.NewBroker[*types.PoolUtilization](),
		done:        make(chan struct{}),
	}
}

// Subscribe returns a channel of utilization snapshots.
func (m *Monitor) Subscribe() chan *types.PoolUtilization {
	return m.utilization.Subscribe()
}

// Unsubscribe removes a subscriber.
func (m *Monitor) Unsubscribe(sub chan *types.PoolUtilization) {
	m.utilization.Unsubscribe(sub)
}

// Start launches the sampling loop.
func (m *Monitor) Start(ctx context.Context) {
	m.utilization.Start()
	ctx, m.cancel = context.WithCancel(ctx)
	go m.loop(ctx)
}

// Stop terminates the sampling loop and closes subscriber channels.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		if m.cancel != nil {
			m.cancel()
			<-m.done
		}
		m.utilization.Stop()
	})
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sample(ctx)
		}
	}
}

// sample collects stats for every managed instance and folds them into
// per-pool snapshots.
func (m *Monitor) sample(ctx context.Context) {
	instances, err := m.driver.ListAll(ctx)
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to list instances")
		return
	}

	now := time.Now()
	byPool := make(map[string]*types.PoolUtilization)

	for _, inst := range instances {
		if inst.Status != driver.InstanceRunning {
			continue
		}

		stats, err := m.driver.Stats(ctx, inst.ID)
		if err != nil {
			m.logger.Debug().Err(err).Str("instance_id", inst.ID).Msg("stats unavailable")
			continue
		}

		u := byPool[inst.PoolID]
		if u == nil {
			u = &types.PoolUtilization{PoolID: inst.PoolID, Timestamp: now}
			byPool[inst.PoolID] = u
		}

		u.UsedCPUCores += m.cpuCores(inst.ID, stats)
		u.UsedMemoryBytes += stats.MemoryUsageBytes
		u.UsedDiskBytes += stats.DiskUsageBytes
		u.NetworkRxBytes += stats.NetworkRxBytes
		u.NetworkTxBytes += stats.NetworkTxBytes
	}

	m.expireSamples(now)
	m.countJobs(byPool)

	for poolID, u := range byPool {
		if p, err := m.store.GetPool(poolID); err == nil && p.Capacity != nil {
			u.TotalCPUCores = p.Capacity.TotalCPUCores
			u.TotalMemoryBytes = int64(p.Capacity.TotalMemoryGB * (1 << 30))
			u.TotalDiskBytes = int64(p.Capacity.TotalDiskGB * (1 << 30))
		}
		m.utilization.Publish(u)
	}
}

// countJobs folds store-side queue state into the snapshots so consumers
// see backlog alongside resource usage.
func (m *Monitor) countJobs(byPool map[string]*types.PoolUtilization) {
	queues, err := m.store.ListQueues()
	if err != nil {
		m.logger.Debug().Err(err).Msg("queues unavailable for job counts")
		return
	}
	poolOf := make(map[string]string, len(queues))
	for _, q := range queues {
		poolOf[q.ID] = q.ResourcePoolID
	}

	queued, err := m.store.ListQueuedJobs()
	if err != nil {
		m.logger.Debug().Err(err).Msg("queued jobs unavailable for job counts")
		return
	}
	for _, qj := range queued {
		u := byPool[poolOf[qj.QueueID]]
		if u == nil {
			continue
		}
		switch qj.Job.Status {
		case types.JobStatusQueued:
			u.QueuedJobs++
		case types.JobStatusScheduled, types.JobStatusRunning:
			u.RunningJobs++
		}
	}
}

// cpuCores converts the cumulative usage counter into cores consumed since
// the previous sample. The first observation of an instance yields zero.
func (m *Monitor) cpuCores(instanceID string, stats *driver.Stats) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, ok := m.samples[instanceID]
	m.samples[instanceID] = cpuSample{usageNanos: stats.CPUUsageNanos, takenAt: stats.Timestamp}
	if !ok || stats.CPUUsageNanos < prev.usageNanos {
		return 0
	}

	wall := stats.Timestamp.Sub(prev.takenAt)
	if wall <= 0 {
		return 0
	}

	used := float64(stats.CPUUsageNanos - prev.usageNanos)
	return used / float64(wall.Nanoseconds())
}

func (m *Monitor) expireSamples(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.samples {
		if now.Sub(s.takenAt) > sampleTTL {
			delete(m.samples, id)
		}
	}
}
