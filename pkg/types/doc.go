/*
Package types defines the core data structures used throughout Hodei Pipelines.

This package contains the domain model shared by the orchestrator, the
scheduler, the quota engine, and the worker agent:

  - Jobs, queues and queued jobs (submission and ordering)
  - Resource pools, worker pools, workers and templates
  - Quotas, usage rows, violations and alerts
  - Scaling policies and scale actions
  - Executions, execution events and log chunks
  - Artifact transport metadata

Status enums are string-typed constants so they serialize cleanly to JSON
and the wire protocol. The job status DAG is enforced by Job.TransitionTo;
all other transitions are rejected with a ValidationError.

The error taxonomy lives in errors.go: sentinel errors for lookups and
queueing, ValidationError for contract-violating input, ProvisioningError
with a reason enum for compute-driver failures, and QuotaExceededError for
blocked admissions. RetryableError classifies failures for the
orchestrator's retry policy.
*/
package types
