/*
Package executor runs scheduled jobs on connected workers.

The engine claims a READY worker, stages input artifacts (skipping content
the worker's cache already holds), dispatches the job over the worker's
session and follows the execution to a terminal state. Cancellation is
cooperative first: the worker gets a cancel signal and a grace period
before its instance is force-terminated. Terminal outcomes release the
worker and its quota usage and surface on the Results channel for the
orchestrator's retry handling.
*/
package executor
