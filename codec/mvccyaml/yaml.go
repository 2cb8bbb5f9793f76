// Package mvccyaml bridges a Writer/Reader/Snapshot to YAML via
// gopkg.in/yaml.v3. It is a convenience collaborator, not part of the
// core: the core only needs T to support cloning, and this package
// only needs T to be itself YAML-(un)marshalable.
package mvccyaml

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"vsnap/snap"
)

// ErrDecodeIntoReader is returned by DecodeReader: a reader without a
// writer has no meaningful relationship, so decoding directly into one
// is refused rather than silently fabricating an orphan writer.
var ErrDecodeIntoReader = errors.New("mvccyaml: cannot decode directly into a reader")

type wireWriter[T any] struct {
	Data      T      `yaml:"data"`
	Timestamp uint64 `yaml:"timestamp"`
}

// EncodeWriter serializes a writer's local copy and local timestamp.
// Logs are never serialized.
func EncodeWriter[T snap.Value[T]](w *snap.Writer[T]) ([]byte, error) {
	payload := wireWriter[T]{Data: *w.Data(), Timestamp: w.Timestamp()}
	b, err := yaml.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("mvccyaml: encode writer: %w", err)
	}
	return b, nil
}

// DecodeWriter constructs a fresh Reader/Writer pair whose initial
// snapshot is the decoded (data, timestamp).
func DecodeWriter[T snap.Value[T]](b []byte, opts ...snap.Option[T]) (*snap.Reader[T], *snap.Writer[T], error) {
	var payload wireWriter[T]
	if err := yaml.Unmarshal(b, &payload); err != nil {
		return nil, nil, fmt.Errorf("mvccyaml: decode writer: %w", err)
	}
	r, w := snap.NewAt(payload.Data, payload.Timestamp, opts...)
	return r, w, nil
}

// EncodeReader serializes the currently published data and timestamp.
func EncodeReader[T snap.Value[T]](r *snap.Reader[T]) ([]byte, error) {
	head := r.Head()
	defer head.Release()
	payload := wireWriter[T]{Data: head.Data(), Timestamp: head.Timestamp()}
	b, err := yaml.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("mvccyaml: encode reader: %w", err)
	}
	return b, nil
}

// DecodeReader always fails: a reader without a writer has no
// meaningful relationship. Use DecodeWriter and take its Reader.
func DecodeReader[T any](_ []byte) (*snap.Reader[T], error) {
	return nil, ErrDecodeIntoReader
}

// EncodeSnapshot serializes a snapshot's data and timestamp.
func EncodeSnapshot[T snap.Value[T]](s snap.Snapshot[T]) ([]byte, error) {
	payload := wireWriter[T]{Data: s.Data(), Timestamp: s.Timestamp()}
	b, err := yaml.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("mvccyaml: encode snapshot: %w", err)
	}
	return b, nil
}
