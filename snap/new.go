package snap

// New creates a paired Reader/Writer sharing a publication slot
// initialized with snapshot {initial, 0}.
func New[T Value[T]](initial T, opts ...Option[T]) (*Reader[T], *Writer[T]) {
	return NewAt(initial, 0, opts...)
}

// NewAt is New but seeds the initial snapshot's timestamp explicitly
// instead of always starting at zero. Exists primarily for
// serialization adapters, whose decode contract is to construct a
// fresh pair at the timestamp that was originally serialized.
func NewAt[T Value[T]](initial T, timestamp uint64, opts ...Option[T]) (*Reader[T], *Writer[T]) {
	cfg := defaultConfig[T]()
	for _, o := range opts {
		o(&cfg)
	}

	// Cloned independently for the genesis snapshot and the writer's
	// local copy so neither aliases the caller's own initial value nor
	// each other; a shared backing array here would let an external
	// mutation of the caller's variable corrupt a published snapshot.
	first := newSnapshot(initial.Clone(), timestamp)
	// The initial snapshot starts with an implicit strong count of one,
	// representing the writer's own remote ownership; taking it as
	// remote below does not need a further increment.
	s := newSlot(first)

	w := &Writer[T]{
		slot:           s,
		local:          initial.Clone(),
		remote:         first,
		localTimestamp: timestamp,
		logger:         cfg.logger,
		debugEqual:     cfg.debugEqual,
	}
	if cfg.readerCountHint > 0 {
		w.staged = make(patchLog[T], 0, cfg.readerCountHint)
		w.committed = make(patchLog[T], 0, cfg.readerCountHint)
	}

	return newReader(s), w
}

// NewWithHint is New, but preallocates writer-side log capacity sized
// for readerCountHint's worth of expected churn between pushes.
func NewWithHint[T Value[T]](readerCountHint int, initial T, opts ...Option[T]) (*Reader[T], *Writer[T]) {
	opts = append([]Option[T]{withReaderCountHint[T](readerCountHint)}, opts...)
	return New(initial, opts...)
}
