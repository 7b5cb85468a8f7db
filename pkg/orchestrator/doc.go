/*
Package orchestrator owns the job lifecycle.

Submit admits jobs into named queues with capacity and duplicate checks. A
one-second processing loop orders each queue's backlog (FIFO, LIFO or
effective-priority), respects per-queue concurrency limits and dispatches
through the scheduler and executor. Failed executions are requeued with a
fresh enqueue time while the attempt budget lasts; placement misses requeue
without consuming an attempt.
*/
package orchestrator
