/*
Package api exposes Hodei's gRPC surface.

Two services share one server. WorkerService carries the long-lived
bidirectional session each worker holds open: registration, heartbeats, job
dispatch, control signals, output, status updates and chunked artifact
transfer all flow over that single stream. ControlService is the client-facing
plane for submitting, inspecting and cancelling jobs and for following an
execution's event stream.

The Hub tracks connected worker sessions and is the execution engine's view of
the fleet; a worker with no session cannot be dispatched to. When a session
drops, its in-flight executions are failed and the worker leaves its pool.

Authentication is a shared bearer token checked by unary and stream
interceptors when configured.
*/
package api
