package snap

// Value is the contract a user type T must satisfy to live inside a
// Writer/Reader pair: it must be deeply cloneable. Clone is called
// whenever the writer hands an independent copy of its local state to
// a new snapshot, and whenever a reclaim attempt fails and the retired
// buffer must be rebuilt from scratch.
//
// Equality is not part of this constraint: it is only needed by the
// optional debug replay check (WithDebugReplayCheck), which takes its
// own equality function rather than requiring one on T.
type Value[T any] interface {
	Clone() T
}
