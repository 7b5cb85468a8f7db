/*
Package reconciler converges observed state in the background.

Each cycle drops workers whose heartbeats expired (failing over their
executions through the execution engine), terminates instances that have no
registered worker once past a grace window, and runs pool template probes,
demoting pools with failing probes to ERROR until they recover.
*/
package reconciler
