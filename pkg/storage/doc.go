/*
Package storage persists orchestrator state in BoltDB.

The Store interface covers the repository ports consumed by the core:
jobs, queues, queued jobs, resource pools, quotas, usage rows, violations,
executions and artifact metadata. Entities are JSON-marshalled into one
bucket per type. Missing keys return an error wrapping types.ErrNotFound.
*/
package storage
