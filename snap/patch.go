package snap

// Patch is a deterministic mutation of T. local is the writer's mutable
// working copy; baseline is the most recently published snapshot's data
// at the moment the patch runs, exposed read-only so a patch can depend
// on "what readers currently see" (e.g. "append the size of the current
// head"). A patch must not read or write anything outside these two
// arguments: the same patch applied twice to equal inputs must produce
// equal outputs, since patches committed between two pushes are replayed
// verbatim against the retired buffer to keep it convergent with local.
type Patch[T Value[T]] func(local *T, baseline *T)

// patchLog is an ordered, append-only sequence of patches. No stability
// guarantee beyond insertion order is required or provided.
type patchLog[T Value[T]] []Patch[T]

func (p *patchLog[T]) add(patch Patch[T]) {
	*p = append(*p, patch)
}

// drain returns the current contents and empties the log.
func (p *patchLog[T]) drain() []Patch[T] {
	drained := *p
	*p = make(patchLog[T], 0, cap(*p))
	return drained
}

func (p patchLog[T]) len() int {
	return len(p)
}

func (p *patchLog[T]) clear() {
	*p = (*p)[:0]
}
