/*
Package pool tracks worker pool membership and implements the autoscaler.

The Manager layers worker status and heartbeat liveness over the compute
driver's instance list. The Autoscaler evaluates REACTIVE, PREDICTIVE and
RESOURCE_BASED sizing strategies with per-direction cooldown windows and
materialises resize decisions through driver.ScaleTo. Scale-down drains
READY workers only; BUSY workers are never picked.

The Supervisor drives the autoscaler: it tracks queue backlog from the
store and pool utilization from the monitor feed, and re-evaluates every
managed pool on an interval.
*/
package pool
