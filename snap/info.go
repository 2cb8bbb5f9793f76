package snap

// CommitInfo describes the outcome of a Writer.Commit call.
type CommitInfo struct {
	// PatchesApplied is the number of staged patches drained and applied.
	PatchesApplied int
	// Timestamp is the writer's local timestamp after the commit.
	Timestamp uint64
}

// PushInfo describes the outcome of a Writer.Push or Writer.PushClone call.
type PushInfo struct {
	// CommitsPublished is the number of local timestamp increments this
	// push made visible to readers (next.timestamp - prev.timestamp).
	CommitsPublished uint64
	// Reclaimed reports whether the retired snapshot's buffer was reused
	// in place rather than cloned. Diagnostic only: both paths leave the
	// writer in an equivalent state.
	Reclaimed bool
	// Timestamp is the timestamp of the snapshot just published.
	Timestamp uint64
}

// CommitAndPushInfo is the union of a commit and the push it triggered.
type CommitAndPushInfo struct {
	CommitInfo
	PushInfo
}

// PullInfo describes the outcome of a Writer.Pull call.
type PullInfo struct {
	StagedDiscarded    int
	CommittedDiscarded int
	OldTimestamp       uint64
	NewTimestamp       uint64
}

// OverwriteInfo describes the outcome of a Writer.Overwrite call.
type OverwriteInfo struct {
	Timestamp uint64
}
