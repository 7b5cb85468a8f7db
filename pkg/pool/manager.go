package pool

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hodei/pipelines/pkg/log"
	"github.com/hodei/pipelines/pkg/types"
)

// Manager tracks worker pool membership. The driver remains the source of
// truth for instances; the manager layers worker status and heartbeats on
// top.
type Manager struct {
	mu               sync.RWMutex
	pools            map[string]*types.WorkerPool
	workers          map[string]*types.Worker // worker ID -> worker
	heartbeatTimeout time.Duration
	logger           zerolog.Logger
}

// NewManager creates a pool manager
func NewManager(heartbeatTimeout time.Duration) *Manager {
	if heartbeatTimeout <= 0 {
		heartbeatTimeout = 60 * time.Second
	}
	return &Manager{
		pools:            make(map[string]*types.WorkerPool),
		workers:          make(map[string]*types.Worker),
		heartbeatTimeout: heartbeatTimeout,
		logger:           log.WithComponent("pool"),
	}
}

// AddPool registers a worker pool
func (m *Manager) AddPool(pool *types.WorkerPool) error {
	if pool.ID == "" || pool.Name == "" {
		return &types.ValidationError{Field: "pool", Reason: "id and name required"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.pools[pool.ID]; exists {
		return fmt.Errorf("pool %s: %w", pool.ID, types.ErrConflict)
	}
	if pool.Status == "" {
		pool.Status = types.WorkerPoolStatusActive
	}
	m.pools[pool.ID] = pool
	return nil
}

// GetPool returns a pool by ID
func (m *Manager) GetPool(id string) (*types.WorkerPool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pool, ok := m.pools[id]
	if !ok {
		return nil, fmt.Errorf("pool %s: %w", id, types.ErrNotFound)
	}
	return pool, nil
}

// SetPoolStatus transitions a pool's status
func (m *Manager) SetPoolStatus(id string, status types.WorkerPoolStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pool, ok := m.pools[id]
	if !ok {
		return fmt.Errorf("pool %s: %w", id, types.ErrNotFound)
	}
	if pool.Status != status {
		pool.Status = status
		pool.UpdatedAt = time.Now()
	}
	return nil
}

// ListPools returns all registered pools
func (m *Manager) ListPools() []*types.WorkerPool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pools := make([]*types.WorkerPool, 0, len(m.pools))
	for _, p := range m.pools {
		pools = append(pools, p)
	}
	return pools
}

// RegisterWorker records a worker joining its pool
func (m *Manager) RegisterWorker(worker *types.Worker) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pool, ok := m.pools[worker.PoolID]
	if !ok {
		return fmt.Errorf("pool %s: %w", worker.PoolID, types.ErrNotFound)
	}

	if worker.Status == "" {
		worker.Status = types.WorkerStatusReady
	}
	worker.LastHeartbeat = time.Now()

	if _, known := m.workers[worker.ID]; !known {
		pool.Workers = append(pool.Workers, worker)
		pool.CurrentSize = len(pool.Workers)
	}
	m.workers[worker.ID] = worker

	m.logger.Info().Str("worker_id", worker.ID).Str("pool_id", worker.PoolID).Msg("worker registered")
	return nil
}

// RemoveWorker drops a worker from its pool
func (m *Manager) RemoveWorker(workerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	worker, ok := m.workers[workerID]
	if !ok {
		return
	}
	delete(m.workers, workerID)

	if pool, ok := m.pools[worker.PoolID]; ok {
		kept := pool.Workers[:0]
		for _, w := range pool.Workers {
			if w.ID != workerID {
				kept = append(kept, w)
			}
		}
		pool.Workers = kept
		pool.CurrentSize = len(pool.Workers)
	}
}

// Heartbeat refreshes a worker's liveness and optionally its status
func (m *Manager) Heartbeat(workerID string, status types.WorkerStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	worker, ok := m.workers[workerID]
	if !ok {
		return fmt.Errorf("worker %s: %w", workerID, types.ErrNotFound)
	}

	worker.LastHeartbeat = time.Now()
	if status != "" {
		worker.Status = status
	}
	return nil
}

// StaleWorkers returns workers whose last heartbeat is older than the
// manager's timeout
func (m *Manager) StaleWorkers() []*types.Worker {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	var stale []*types.Worker
	for _, w := range m.workers {
		if !w.IsHealthy(m.heartbeatTimeout, now) {
			stale = append(stale, w)
		}
	}
	return stale
}

// GetWorker returns a worker by ID
func (m *Manager) GetWorker(workerID string) (*types.Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	worker, ok := m.workers[workerID]
	if !ok {
		return nil, fmt.Errorf("worker %s: %w", workerID, types.ErrNotFound)
	}
	return worker, nil
}

// SetWorkerStatus transitions a worker's status
func (m *Manager) SetWorkerStatus(workerID string, status types.WorkerStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	worker, ok := m.workers[workerID]
	if !ok {
		return fmt.Errorf("worker %s: %w", workerID, types.ErrNotFound)
	}
	worker.Status = status
	return nil
}

// ReadyWorkers returns the healthy READY workers of a pool
func (m *Manager) ReadyWorkers(poolID string) []*types.Worker {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pool, ok := m.pools[poolID]
	if !ok {
		return nil
	}

	now := time.Now()
	var ready []*types.Worker
	for _, w := range pool.Workers {
		if w.Status == types.WorkerStatusReady && w.IsHealthy(m.heartbeatTimeout, now) {
			ready = append(ready, w)
		}
	}
	return ready
}

// DrainCandidates returns the first n READY workers of a pool. BUSY workers
// are never drained.
func (m *Manager) DrainCandidates(poolID string, n int) []*types.Worker {
	ready := m.ReadyWorkers(poolID)
	if n > len(ready) {
		n = len(ready)
	}
	return ready[:n]
}

// ClaimWorker atomically moves a READY worker to BUSY and returns it.
// Returns nil when no worker is available.
func (m *Manager) ClaimWorker(poolID string) *types.Worker {
	m.mu.Lock()
	defer m.mu.Unlock()

	pool, ok := m.pools[poolID]
	if !ok {
		return nil
	}

	now := time.Now()
	for _, w := range pool.Workers {
		if w.Status == types.WorkerStatusReady && w.IsHealthy(m.heartbeatTimeout, now) {
			w.Status = types.WorkerStatusBusy
			return w
		}
	}
	return nil
}

// ReleaseWorker moves a BUSY worker back to READY
func (m *Manager) ReleaseWorker(workerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if w, ok := m.workers[workerID]; ok && w.Status == types.WorkerStatusBusy {
		w.Status = types.WorkerStatusReady
	}
}
