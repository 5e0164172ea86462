// Package kvdb provides the key/value storage abstraction the consensus
// engine commits epoch state through: a sorted byte-keyed store (KV), and
// a staged, rollback-capable Batch/BatchTx pair that the pipeline uses to
// accumulate one epoch's mutations before committing them atomically.
package kvdb

import "errors"

// ErrNotFound is returned by KV implementations that distinguish a missing
// key from an empty value. Most call sites in this codebase instead treat a
// nil, nil return as "not present", matching the teacher's KVAdapter.
var ErrNotFound = errors.New("kvdb: key not found")

// KV is the minimal persistent store the engine depends on. Implementations
// must be safe for concurrent reads; writes are always serialized by the
// single-writer pipeline (see pkg/consensus).
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Has(key []byte) (bool, error)
}
