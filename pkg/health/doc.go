// Package health implements the probe checkers behind pool template
// probes: HTTP status-window checks, TCP connect checks and host exec
// checks, plus the consecutive-failure Status accounting the reconciler
// uses to flag degraded pools.
package health
