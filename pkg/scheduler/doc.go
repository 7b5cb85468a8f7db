/*
Package scheduler decides where a job runs.

FindPlacement filters ACTIVE resource pools on capability, label and
resource fit plus a quota dry-run, then ranks the survivors by projected
utilization (ascending), free capacity (descending), cost weight and
finally pool ID for a stable order. The first ranked pool wins; an empty
survivor set is a placement failure the orchestrator retries later.
*/
package scheduler
