package snap

import (
	"fmt"
	"log/slog"
	"sync"
)

// Writer owns a private mutable copy of T and the publication slot it
// shares with a Reader. It is exclusive to whichever goroutine drives
// it: every exported method guards against being entered twice at once
// and panics with messageConcurrentWriterAccess if it is, the same
// TryLock-based trip-wire used for the writer-exclusivity check in
// readerwriter.Writer.Get/Set.
type Writer[T Value[T]] struct {
	guard sync.Mutex

	slot *slot[T]

	local          T
	remote         *snapshot[T] // strong reference, owns exactly one count
	localTimestamp uint64

	staged    patchLog[T]
	committed patchLog[T]

	forceClone bool // set by Tag; consumed by the next push
	seed       *T   // retained buffer from the last reclaim/clone, diagnostic only

	logger     *slog.Logger
	debugEqual func(a, b T) bool
}

func (w *Writer[T]) lock() func() {
	if !w.guard.TryLock() {
		panic(messageConcurrentWriterAccess)
	}
	return w.guard.Unlock
}

// Add appends patch to the staged log. It takes effect on the next Commit.
func (w *Writer[T]) Add(patch Patch[T]) {
	defer w.lock()()
	w.staged.add(patch)
}

// Staged returns the patches added since the last Commit, in insertion order.
func (w *Writer[T]) Staged() []Patch[T] {
	defer w.lock()()
	return w.staged
}

// CommittedPatches returns the patches committed locally since the last
// successful Push, in commit order.
func (w *Writer[T]) CommittedPatches() []Patch[T] {
	defer w.lock()()
	return w.committed
}

// Data returns the writer's private local copy.
func (w *Writer[T]) Data() *T {
	defer w.lock()()
	return &w.local
}

// Head returns the writer's cached view of the most recently published snapshot.
func (w *Writer[T]) Head() *T {
	defer w.lock()()
	return &w.remote.data
}

// Timestamp returns the writer's local timestamp.
func (w *Writer[T]) Timestamp() uint64 {
	defer w.lock()()
	return w.localTimestamp
}

// RemoteTimestamp returns the timestamp of the last snapshot this writer published.
func (w *Writer[T]) RemoteTimestamp() uint64 {
	defer w.lock()()
	return w.remote.timestamp
}

// Tag forces the next Push to clone rather than attempt reclamation,
// regardless of the retired snapshot's strong count.
func (w *Writer[T]) Tag() {
	defer w.lock()()
	w.forceClone = true
}

// Commit drains the staged log in insertion order, applying each patch
// to local with the current remote data frozen as the baseline for the
// whole commit. Every drained patch moves into the committed log. The
// local timestamp advances by exactly one if at least one patch was
// drained, and is left unchanged otherwise.
func (w *Writer[T]) Commit() CommitInfo {
	defer w.lock()()
	return w.commitLocked()
}

func (w *Writer[T]) commitLocked() CommitInfo {
	drained := w.staged.drain()
	baseline := w.remote.data
	for _, p := range drained {
		p(&w.local, &baseline)
	}
	w.committed = append(w.committed, drained...)

	if len(drained) > 0 {
		w.localTimestamp++
	}
	return CommitInfo{PatchesApplied: len(drained), Timestamp: w.localTimestamp}
}

// Push publishes a new snapshot built from local, then attempts to
// reclaim the retired snapshot's memory in place; it clones instead
// when the retired snapshot's strong count is not exactly one, or when
// Tag requested a clone. See pushLocked for the full algorithm.
func (w *Writer[T]) Push() (PushInfo, error) {
	defer w.lock()()
	return w.pushLocked(false)
}

// PushClone is like Push but never attempts reclamation.
func (w *Writer[T]) PushClone() (PushInfo, error) {
	defer w.lock()()
	return w.pushLocked(true)
}

// CommitAndPush runs Commit then Push as a single writer-perspective step.
func (w *Writer[T]) CommitAndPush() (CommitAndPushInfo, error) {
	defer w.lock()()
	commitInfo := w.commitLocked()
	pushInfo, err := w.pushLocked(false)
	return CommitAndPushInfo{CommitInfo: commitInfo, PushInfo: pushInfo}, err
}

func (w *Writer[T]) pushLocked(forceClone bool) (PushInfo, error) {
	prev := w.remote

	// No-op guard: nothing committed since the last push and no divergence
	// (e.g. via Overwrite) to publish.
	if w.localTimestamp == prev.timestamp && w.committed.len() == 0 {
		return PushInfo{CommitsPublished: 0, Reclaimed: true, Timestamp: prev.timestamp}, nil
	}

	next := newSnapshot(w.local.Clone(), w.localTimestamp)
	retired := w.slot.store(next)
	// Cache next as remote together with the store, so a patch panicking
	// during the replay below leaves remote consistent with the slot.
	w.remote = next

	reclaim := !forceClone && !w.forceClone && retired.refCount.Load() == 1

	var buf T
	if reclaim {
		// Sole remaining owner is our own former "remote" reference:
		// safe to mutate retired.data in place.
		buf = retired.data
	} else {
		buf = retired.data.Clone()
		// Release the writer's own implicit ownership of retired; any
		// reader still holding it will release its own share in its
		// own time.
		retired.refCount.Add(-1)
	}

	committed := []Patch[T](w.committed)
	if len(committed) == 0 {
		if w.localTimestamp != prev.timestamp {
			// Divergence with no patch history to replay (e.g. Overwrite):
			// the only faithful replay is the value itself.
			buf = w.local.Clone()
		}
	} else {
		for _, p := range committed {
			p(&buf, &next.data)
		}
	}

	// next is already visible to readers (the store above cannot be
	// undone), so a detected divergence cannot block the publish — it
	// can only be reported. Finalize exactly as the clean path would,
	// then surface the error alongside the otherwise-valid info.
	var diverged error
	if w.debugEqual != nil && !w.debugEqual(buf, w.local) {
		w.logger.Warn("replay diverged from local copy", "timestamp", next.timestamp)
		diverged = fmt.Errorf("%w: at timestamp %d", ErrReplayDiverged, next.timestamp)
	}

	commitsPublished := next.timestamp - prev.timestamp

	w.committed.clear()
	w.forceClone = false
	w.seed = &buf

	if reclaim {
		w.logger.Debug("push reclaimed retired buffer", "timestamp", next.timestamp)
	} else {
		w.logger.Debug("push cloned retired buffer", "timestamp", next.timestamp)
	}

	return PushInfo{CommitsPublished: commitsPublished, Reclaimed: reclaim, Timestamp: next.timestamp}, diverged
}

// Pull discards all local divergence: local is reset to the currently
// published remote data, both logs are cleared, and the local timestamp
// is reset to the remote's.
func (w *Writer[T]) Pull() PullInfo {
	defer w.lock()()

	stagedN := w.staged.len()
	committedN := w.committed.len()
	oldTimestamp := w.localTimestamp

	w.local = w.remote.data.Clone()
	w.staged.clear()
	w.committed.clear()
	w.localTimestamp = w.remote.timestamp

	return PullInfo{
		StagedDiscarded:    stagedN,
		CommittedDiscarded: committedN,
		OldTimestamp:       oldTimestamp,
		NewTimestamp:       w.localTimestamp,
	}
}

// Overwrite replaces local wholesale. Since no patch sequence can
// deterministically describe an arbitrary replacement from the old
// baseline, the committed log is cleared instead: the next Push sees
// an empty committed log but a local timestamp past remote's, so it
// replays local.Clone() directly into whichever buffer it ends up
// with rather than replaying patches. Whether that buffer was reclaimed
// or cloned still depends only on the retired snapshot's strong count,
// same as any other push.
func (w *Writer[T]) Overwrite(v T) OverwriteInfo {
	defer w.lock()()

	w.local = v
	w.committed.clear()
	w.localTimestamp++

	return OverwriteInfo{Timestamp: w.localTimestamp}
}

// Seeded reports whether a retired buffer from the last push is being
// held for diagnostic purposes. Collapsed to a boolean rather than a
// reusable handle: reusing that buffer's memory to build the next
// snapshot without a fresh allocation would need a pointer-receiver
// CopyFrom(T) in the Value constraint, which forces every caller's T
// to be threaded as *T throughout the public API — too large a surface
// change for an allocation saved only on the publish side.
func (w *Writer[T]) Seeded() bool {
	defer w.lock()()
	return w.seed != nil
}

// IntoInner consumes the writer, returning its local copy and staged
// (not yet committed) patch log. The writer must not be used afterward.
func (w *Writer[T]) IntoInner() (T, []Patch[T]) {
	defer w.lock()()
	w.remote.refCount.Add(-1)
	return w.local, w.staged
}
