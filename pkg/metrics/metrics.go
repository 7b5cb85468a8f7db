package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Job metrics
	JobsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hodei_jobs_total",
			Help: "Total number of jobs by status",
		},
		[]string{"status"},
	)

	QueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hodei_queue_depth",
			Help: "Number of queued jobs per queue",
		},
		[]string{"queue"},
	)

	JobsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hodei_jobs_submitted_total",
			Help: "Total number of jobs admitted into queues",
		},
	)

	JobsDispatched = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hodei_jobs_dispatched_total",
			Help: "Total number of jobs dispatched to workers",
		},
	)

	JobsRetried = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hodei_jobs_retried_total",
			Help: "Total number of failed jobs requeued for retry",
		},
	)

	JobsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hodei_jobs_failed_total",
			Help: "Total number of jobs that exhausted their attempt budget",
		},
	)

	// Scheduler metrics
	SchedulingLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hodei_scheduling_latency_seconds",
			Help:    "Time taken to place jobs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Worker and pool metrics
	WorkersTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hodei_workers_total",
			Help: "Total number of workers by pool and status",
		},
		[]string{"pool", "status"},
	)

	PoolCPUCoresUsed = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hodei_pool_cpu_cores_used",
			Help: "CPU cores currently consumed per resource pool",
		},
		[]string{"pool"},
	)

	PoolMemoryBytesUsed = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hodei_pool_memory_bytes_used",
			Help: "Memory bytes currently consumed per resource pool",
		},
		[]string{"pool"},
	)

	ScaleActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hodei_pool_scale_actions_total",
			Help: "Total number of autoscaler actions by pool and direction",
		},
		[]string{"pool", "direction"},
	)

	// Quota metrics
	QuotaViolationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hodei_quota_violations_total",
			Help: "Total number of quota violations by enforcement policy",
		},
		[]string{"policy"},
	)

	UnresolvedViolations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hodei_quota_violations_unresolved",
			Help: "Number of quota violations not yet resolved",
		},
	)

	// Artifact metrics
	ArtifactCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hodei_artifact_cache_hits_total",
			Help: "Total number of artifact transfers skipped because the worker cache held the content",
		},
	)

	ArtifactCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hodei_artifact_cache_misses_total",
			Help: "Total number of artifact transfers that had to ship content",
		},
	)

	ArtifactBytesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hodei_artifact_bytes_sent_total",
			Help: "Total compressed artifact bytes sent to workers",
		},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hodei_api_requests_total",
			Help: "Total number of API requests by method and status",
		},
		[]string{"method", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hodei_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	ReconcileCycles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hodei_reconcile_cycles_total",
			Help: "Total number of reconciliation cycles",
		},
	)

	ReconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hodei_reconcile_duration_seconds",
			Help:    "Reconciliation cycle duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	WorkersLost = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hodei_workers_lost_total",
			Help: "Total number of workers removed after missed heartbeats",
		},
	)

	OrphansTerminated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hodei_orphan_instances_terminated_total",
			Help: "Total number of orphaned instances terminated",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(JobsTotal)
	prometheus.MustRegister(QueueDepth)
	prometheus.MustRegister(JobsSubmitted)
	prometheus.MustRegister(JobsDispatched)
	prometheus.MustRegister(JobsRetried)
	prometheus.MustRegister(JobsFailed)
	prometheus.MustRegister(SchedulingLatency)
	prometheus.MustRegister(WorkersTotal)
	prometheus.MustRegister(PoolCPUCoresUsed)
	prometheus.MustRegister(PoolMemoryBytesUsed)
	prometheus.MustRegister(ScaleActions)
	prometheus.MustRegister(QuotaViolationsTotal)
	prometheus.MustRegister(UnresolvedViolations)
	prometheus.MustRegister(ArtifactCacheHits)
	prometheus.MustRegister(ArtifactCacheMisses)
	prometheus.MustRegister(ArtifactBytesSent)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(ReconcileCycles)
	prometheus.MustRegister(ReconcileDuration)
	prometheus.MustRegister(WorkersLost)
	prometheus.MustRegister(OrphansTerminated)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
