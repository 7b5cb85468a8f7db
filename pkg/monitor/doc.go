/*
Package monitor samples per-instance resource stats from the compute driver
and aggregates them into pool utilization snapshots.

CPU usage is derived from the driver's cumulative nanosecond counters: the
consumed cores between two samples is the counter delta divided by wall
time. Counter resets (restarted instances) read as zero rather than a
negative spike. Snapshots fan out through an events.Broker to the
autoscaler, the quota monitor and the metrics exporter.
*/
package monitor
