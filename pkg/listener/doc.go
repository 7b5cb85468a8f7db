/*
Package listener fans execution events and output out to registered
listeners.

Two delivery modes exist: push streams hand the caller an ordered, bounded
channel and disconnect slow consumers with types.ErrOverflow; webhooks POST
each item as JSON to a URL, retried with exponential backoff, drained
sequentially per subscription so per-execution ordering holds in both
modes.
*/
package listener
