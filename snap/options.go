package snap

import (
	"log/slog"
	"os"
)

type config[T any] struct {
	logger          *slog.Logger
	readerCountHint int
	debugEqual      func(a, b T) bool
}

func defaultConfig[T any]() config[T] {
	return config[T]{
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
	}
}

// Option configures a Writer/Reader pair at construction time.
type Option[T any] func(*config[T])

// WithLogger sets a custom *slog.Logger. The writer logs opportunistically
// at Debug on reclaim/clone decisions and at Warn on a detected replay
// divergence; it never logs on the reader hot path.
func WithLogger[T any](l *slog.Logger) Option[T] {
	return func(c *config[T]) { c.logger = l }
}

// WithDebugReplayCheck enables an invariant check, off by default, that
// compares the replayed buffer against the writer's local copy after
// every push and makes the push return ErrReplayDiverged on mismatch.
// The new snapshot is published either way; it is built from the local
// copy, not from the replayed buffer. Intended for debug builds
// and tests; eq is typically reflect.DeepEqual or a cheaper hand-written
// comparison.
func WithDebugReplayCheck[T any](eq func(a, b T) bool) Option[T] {
	return func(c *config[T]) { c.debugEqual = eq }
}

// withReaderCountHint preallocates writer-side capacity (staged/committed
// logs) for an expected number of concurrent readers' worth of churn.
// Unexported: surfaced only through NewWithHint.
func withReaderCountHint[T any](hint int) Option[T] {
	return func(c *config[T]) { c.readerCountHint = hint }
}
