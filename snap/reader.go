package snap

import "sync/atomic"

// readerGroup is the state shared by a Reader and every handle produced
// by cloning it. count tracks how many live handles reference the
// group: it starts at one, is incremented by Clone, and is decremented
// by every IntoInner call that does not yield the data. IntoInner only
// yields the underlying data to a handle that finds count at exactly
// one — i.e. the last handle of the group not yet consumed.
type readerGroup[T Value[T]] struct {
	slot  *slot[T]
	count atomic.Int64
}

// Reader is a cheap, cloneable front end onto a Writer's publication
// slot. Readers never mutate and never wait on the writer. Head does
// not block, but it retries its load when a push replaces the snapshot
// between its load and its reference-count increment.
type Reader[T Value[T]] struct {
	group *readerGroup[T]
}

func newReader[T Value[T]](s *slot[T]) *Reader[T] {
	g := &readerGroup[T]{slot: s}
	g.count.Store(1)
	return &Reader[T]{group: g}
}

// Head loads the current snapshot from the publication slot. Wait-free
// in the common case: one atomic load, one reference-count increment
// and one re-load, no allocation. If a push replaced the snapshot in
// between, the increment is undone and the load is repeated.
func (r *Reader[T]) Head() Snapshot[T] {
	return r.group.slot.load()
}

// HeadCount returns an approximate count of outstanding holders of the
// currently published snapshot, including the writer's own cached
// reference. Diagnostic only; never used for correctness.
func (r *Reader[T]) HeadCount() int64 {
	return r.group.slot.peek().refCount.Load()
}

// Clone produces another Reader handle onto the same publication slot.
// O(1), no allocation beyond the returned handle itself.
func (r *Reader[T]) Clone() *Reader[T] {
	r.group.count.Add(1)
	return &Reader[T]{group: r.group}
}

// IntoInner consumes this reader handle. If it was the last live handle
// in its clone group, it returns the currently published data and true.
// Otherwise it returns the zero value and false — the "misuse" case of
// calling IntoInner on a still-shared reader leaves the reader with the
// caller rather than handing out the inner data. The handle still
// serves Head, but it no longer counts as live in its group, so a later
// IntoInner on another handle of the group can succeed.
func (r *Reader[T]) IntoInner() (T, bool) {
	if r.group.count.CompareAndSwap(1, 0) {
		snap := r.group.slot.load()
		defer snap.Release()
		return snap.Data(), true
	}
	r.group.count.Add(-1)
	var zero T
	return zero, false
}
