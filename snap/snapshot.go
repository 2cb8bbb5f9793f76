package snap

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// snapshot is the private, heap-allocated backing for a published value.
// Once stored into a slot it is immutable; its refCount tracks every
// strong reference still outstanding (the writer's own cached remote
// ownership plus one per live reader Snapshot handle). A refCount of
// exactly one means only the writer's own ownership remains, which is
// the precondition for reclaiming its memory in place on the next push.
type snapshot[T Value[T]] struct {
	data      T
	timestamp uint64
	id        uuid.UUID
	refCount  atomic.Int64
}

// newSnapshot allocates a snapshot with an implicit strong count of one,
// representing the ownership the writer takes on immediately by caching
// it as remote.
func newSnapshot[T Value[T]](data T, timestamp uint64) *snapshot[T] {
	s := &snapshot[T]{data: data, timestamp: timestamp, id: uuid.New()}
	s.refCount.Store(1)
	return s
}

// Snapshot is an immutable, timestamped, shareable view of T. Any number
// of holders may read it concurrently; none may mutate it. Release must
// be called exactly once per Snapshot obtained from Reader.Head, or the
// writer will never be able to reclaim the buffer in place.
type Snapshot[T Value[T]] struct {
	snap *snapshot[T]
}

// Data returns the value held by this snapshot.
func (s Snapshot[T]) Data() T {
	return s.snap.data
}

// Timestamp returns the timestamp this snapshot was published with.
func (s Snapshot[T]) Timestamp() uint64 {
	return s.snap.timestamp
}

// Release drops this holder's strong reference. Safe to call exactly
// once; calling it twice double-releases and will corrupt the reclaim
// probe for whoever is consulting the strong count next.
func (s Snapshot[T]) Release() {
	s.snap.refCount.Add(-1)
}

// StrongCount returns the approximate number of outstanding holders of
// this snapshot's underlying buffer, including the writer's own cached
// reference. Diagnostic only; never used by the core for correctness
// beyond the writer's own internal reclaim probe.
func (s Snapshot[T]) StrongCount() int64 {
	return s.snap.refCount.Load()
}

// Equal reports whether this snapshot's data equals other, using the
// caller-supplied equality function (T carries no equality constraint).
func (s Snapshot[T]) Equal(other T, eq func(a, b T) bool) bool {
	return eq(s.snap.data, other)
}

// EqualSnapshot reports whether s and o are the same published version:
// equal timestamps and equal identity. Two snapshots published from the
// same slot can never share a timestamp without sharing data (invariant
// 2 in the data model), so this is stricter than comparing timestamps
// alone only in that it also rejects cross-slot coincidences.
func (s Snapshot[T]) EqualSnapshot(o Snapshot[T]) bool {
	return s.snap.timestamp == o.snap.timestamp && s.snap.id == o.snap.id
}
