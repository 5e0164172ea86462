package kvdb

// entry is one staged mutation: either an insert of Value under Key, or a
// delete of Key (Deleted == true, Value ignored).
type entry struct {
	Key     []byte
	Value   []byte
	Deleted bool
}

// Batch is an ordered list of staged key/value mutations. It starts empty,
// accumulates entries exclusively through a BatchTx cursor, and is either
// committed atomically via ApplyBatch or dropped, discarding everything
// staged. Grounded on other_examples' LICODX-Route-N-Root atomic_state.go
// StateTransaction, which stages writes into a leveldb.Batch and only
// touches the durable store on Commit.
type Batch struct {
	entries []entry
}

// NewBatch creates an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Len reports the number of staged entries.
func (b *Batch) Len() int {
	return len(b.entries)
}

// Truncate discards every entry appended after position mark, realizing the
// savepoint/rollback idiom as a length-mark on the entry slice.
func (b *Batch) Truncate(mark int) {
	b.entries = b.entries[:mark]
}

// Tx opens a BatchTx cursor into this batch, reading through to kv for keys
// not yet staged.
func (b *Batch) Tx(kv KV) *BatchTx {
	return &BatchTx{batch: b, kv: kv}
}

// ApplyBatch commits every staged entry to kv in order. Entries are applied
// sequentially; a crash partway through can, for the in-memory and
// CometBFT-backed stores used here, leave a prefix of the batch durable --
// callers that need single-flush atomicity across a process crash should
// back kv with a store offering an atomic WriteBatch and swap ApplyBatch's
// body for a single call into it (the underlying CometBFT backend,
// goleveldb, supports exactly that; KV does not expose it).
func ApplyBatch(kv KV, b *Batch) error {
	for _, e := range b.entries {
		if e.Deleted {
			if err := kv.Delete(e.Key); err != nil {
				return err
			}
			continue
		}
		if err := kv.Set(e.Key, e.Value); err != nil {
			return err
		}
	}
	return nil
}

// BatchTx is an append-only cursor into an enclosing Batch. Reads consult
// the batch's own staged entries first (most recent write wins), then fall
// through to the underlying committed KV -- so within one epoch a
// transaction's apply_output can be observed by a later transaction's
// apply_input in the same epoch, while validation (which never touches a
// BatchTx) only ever sees pre-epoch committed state.
type BatchTx struct {
	batch *Batch
	kv    KV
}

// Get returns the most recently staged value for key, or the underlying
// KV's committed value if nothing has been staged for it.
func (tx *BatchTx) Get(key []byte) ([]byte, error) {
	for i := len(tx.batch.entries) - 1; i >= 0; i-- {
		e := tx.batch.entries[i]
		if string(e.Key) != string(key) {
			continue
		}
		if e.Deleted {
			return nil, nil
		}
		return e.Value, nil
	}
	if tx.kv == nil {
		return nil, nil
	}
	return tx.kv.Get(key)
}

// Has reports whether key resolves to a present value, staged or committed.
func (tx *BatchTx) Has(key []byte) (bool, error) {
	v, err := tx.Get(key)
	if err != nil {
		return false, err
	}
	return v != nil, nil
}

// Set appends an insert record.
func (tx *BatchTx) Set(key, value []byte) {
	tx.batch.entries = append(tx.batch.entries, entry{Key: key, Value: value})
}

// Delete appends a delete record.
func (tx *BatchTx) Delete(key []byte) {
	tx.batch.entries = append(tx.batch.entries, entry{Key: key, Deleted: true})
}

// Savepoint marks the batch's current length so a failed operation can
// rewind its own partial effects without discarding the rest of the epoch's
// batch.
func (tx *BatchTx) Savepoint() int {
	return tx.batch.Len()
}

// Rollback truncates the batch back to a prior savepoint.
func (tx *BatchTx) Rollback(mark int) {
	tx.batch.Truncate(mark)
}
