// Package snap implements a lock-free multi-version concurrency control
// primitive for a single writer and many readers.
//
// A Writer owns a private copy of some user type T. Readers obtain
// immutable, timestamped Snapshot[T] handles through a Reader without
// ever blocking on the writer or on each other. The writer accumulates
// changes as a sequence of deterministic Patch[T] values, commits them
// locally, and publishes new snapshots by pushing them into a single
// atomic publication slot.
//
// On every push the writer tries to reclaim the memory of the snapshot
// it is retiring instead of allocating a fresh buffer: this succeeds
// whenever no reader is still holding that snapshot at the moment of
// the attempt. When it fails, the writer clones instead and replays the
// patches committed since the last push against the clone so both
// buffers stay logically convergent. Readers are never waited on; the
// writer is never blocked by reader activity.
//
// See Writer and Reader for the full operation set.
package snap
