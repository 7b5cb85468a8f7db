/*
Package artifact implements chunked artifact transfer between the
orchestrator and workers.

The sender compresses a payload (gzip or zstd), splits it into fixed-size
chunks and streams them with a one-chunk acknowledgement window. The
receiver reassembles chunks in any order, verifies the sha-256 checksum of
the decompressed payload and hands the result to the worker-side Cache,
which keeps artifacts content-addressed on disk across restarts. A cached
artifact is skipped entirely via the cache query handshake before any chunk
is sent.
*/
package artifact
