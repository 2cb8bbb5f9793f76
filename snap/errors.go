package snap

import "errors"

// Sentinel errors for typed handling on the caller side, mirroring the
// sentinel-error style used throughout this codebase's transactional
// ancestor: small, wrapped with context via fmt.Errorf("%w: ...") at
// the call site rather than carrying their own payload.
var (
	// ErrReplayDiverged is returned by Push/PushClone/CommitAndPush when
	// WithDebugReplayCheck is enabled and the replayed buffer does not
	// equal the writer's local copy after replay. It signals a patch
	// that read or wrote something outside its own local/baseline
	// arguments, so replaying it against the retired buffer produced a
	// different result than applying it once did against local.
	// Disabled by default.
	ErrReplayDiverged = errors.New("snap: replayed buffer diverged from local copy")
)

const messageConcurrentWriterAccess = "snap: concurrent writer access detected"
