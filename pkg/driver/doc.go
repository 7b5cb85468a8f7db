/*
Package driver defines the compute driver port and its containerd
reference implementation.

The Driver interface covers provisioning, termination, inspection, listing,
scaling, health checking and resource sampling of worker instances. The
containerd driver keeps all managed containers in a dedicated namespace and
tags them with hodei labels; the worker ID doubles as the container ID,
which makes Provision idempotent. ScaleTo accumulates partial failures
instead of aborting.
*/
package driver
