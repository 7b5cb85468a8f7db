// Package client wraps the control-plane gRPC API for CLI commands: job
// submission, inspection, cancellation and execution streaming, with
// optional bearer-token auth.
package client
