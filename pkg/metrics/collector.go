package metrics

import (
	"time"

	"github.com/hodei/pipelines/pkg/monitor"
	"github.com/hodei/pipelines/pkg/pool"
	"github.com/hodei/pipelines/pkg/storage"
	"github.com/hodei/pipelines/pkg/types"
)

// Collector samples orchestrator state into the exported gauges.
type Collector struct {
	store   storage.Store
	pools   *pool.Manager
	monitor *monitor.Monitor
	stopCh  chan struct{}
}

// NewCollector creates a metrics collector. The monitor may be nil when
// resource sampling is disabled.
func NewCollector(store storage.Store, pools *pool.Manager, mon *monitor.Monitor) *Collector {
	return &Collector{
		store:   store,
		pools:   pools,
		monitor: mon,
		stopCh:  make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		// Collect immediately on start
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()

	if c.monitor != nil {
		go c.watchUtilization()
	}
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectJobMetrics()
	c.collectQueueMetrics()
	c.collectWorkerMetrics()
	c.collectQuotaMetrics()
}

func (c *Collector) collectJobMetrics() {
	jobs, err := c.store.ListJobs()
	if err != nil {
		return
	}

	counts := make(map[types.JobStatus]int)
	for _, job := range jobs {
		counts[job.Status]++
	}
	for status, count := range counts {
		JobsTotal.WithLabelValues(string(status)).Set(float64(count))
	}
}

func (c *Collector) collectQueueMetrics() {
	queues, err := c.store.ListQueues()
	if err != nil {
		return
	}

	for _, queue := range queues {
		queued, err := c.store.ListQueuedJobsByQueue(queue.ID)
		if err != nil {
			continue
		}
		QueueDepth.WithLabelValues(queue.ID).Set(float64(len(queued)))
	}
}

func (c *Collector) collectWorkerMetrics() {
	counts := make(map[string]map[types.WorkerStatus]int)

	for _, p := range c.pools.ListPools() {
		for _, w := range p.Workers {
			if counts[p.ID] == nil {
				counts[p.ID] = make(map[types.WorkerStatus]int)
			}
			counts[p.ID][w.Status]++
		}
	}

	for poolID, statuses := range counts {
		for status, count := range statuses {
			WorkersTotal.WithLabelValues(poolID, string(status)).Set(float64(count))
		}
	}
}

func (c *Collector) collectQuotaMetrics() {
	unresolved, err := c.store.ListUnresolvedViolations()
	if err != nil {
		return
	}
	UnresolvedViolations.Set(float64(len(unresolved)))
}

// watchUtilization feeds monitor samples into the pool gauges until Stop.
func (c *Collector) watchUtilization() {
	sub := c.monitor.Subscribe()
	defer c.monitor.Unsubscribe(sub)

	for {
		select {
		case util, ok := <-sub:
			if !ok {
				return
			}
			PoolCPUCoresUsed.WithLabelValues(util.PoolID).Set(util.UsedCPUCores)
			PoolMemoryBytesUsed.WithLabelValues(util.PoolID).Set(float64(util.UsedMemoryBytes))
		case <-c.stopCh:
			return
		}
	}
}
