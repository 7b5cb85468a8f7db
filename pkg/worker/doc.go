/*
Package worker implements the agent that runs inside provisioned instances.

The agent opens one session stream to the orchestrator, registers itself into
its pool and then serves that stream for its whole life: heartbeats go up,
jobs and control signals come down. Jobs run as local subprocesses with their
stdout and stderr forwarded upstream in chunks. Incoming artifacts are
reassembled, verified and kept in a local content cache so repeated inputs
are not transferred twice.

Configuration comes from the environment (HODEI_ORCHESTRATOR_HOST,
HODEI_WORKER_ID, HODEI_WORKER_POOL_ID and friends), which is how the compute
driver parameterises the instances it provisions.
*/
package worker
