/*
Package metrics provides Prometheus metrics collection and exposition for Hodei.

All metrics are registered on the default registry at package init and exposed
through Handler for scraping. The package covers four concerns:

  - Domain metrics: jobs by status, queue depth, scheduling latency, worker
    counts, pool resource consumption, quota violations and artifact cache
    behaviour. Counters are incremented inline by the owning components;
    gauges are refreshed by the Collector.

  - Collector: a 15 second sampling loop over the store and the pool manager,
    plus a subscription on the resource monitor feeding the per-pool
    utilization gauges.

  - Component health: a process-wide health checker with HTTP handlers for
    /health, /ready and /live. Readiness requires the storage, containerd and
    api components to have reported healthy.

  - Timer: a small helper for observing operation durations into histograms.

Example:

	timer := metrics.NewTimer()
	placement, err := sched.FindPlacement(job)
	timer.ObserveDuration(metrics.SchedulingLatency)
*/
package metrics
