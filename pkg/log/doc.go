/*
Package log provides structured logging for Hodei Pipelines built on zerolog.

Call Init once at process start, then derive component or entity scoped
child loggers with WithComponent, WithExecutionID and WithWorkerID.
Console output is the default; JSON output is intended
for production deployments.
*/
package log
