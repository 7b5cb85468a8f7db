/*
Package bootstrap seeds the orchestrator's declarative state at startup.

A YAML manifest names the resource pools, job queues, worker pools and
quotas a deployment needs before it can admit work. Apply is idempotent:
entities already present in the store or pool manager are skipped, so the
same manifest can be applied on every start.
*/
package bootstrap
