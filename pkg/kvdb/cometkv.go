// Copyright 2025 Certen Protocol
//
// CometKV wraps CometBFT's dbm.DB interface to implement the KV contract
// the consensus engine commits epoch batches through.
//
// CONCURRENCY: CometKV assumes single-writer access and is designed to be
// called from the consensus commit thread only (see pkg/consensus.Engine).
// This optimizes for the primary use case where all state updates happen
// during epoch commit in a single thread; concurrent readers (e.g. the HTTP
// server answering output_status queries) only ever call Get/Has.
package kvdb

import (
	dbm "github.com/cometbft/cometbft-db"
)

// CometKV wraps a CometBFT dbm.DB and exposes the KV interface, so the
// engine's Batch/BatchTx machinery can commit onto CometBFT's own storage
// backend (goleveldb by default) without depending on dbm.DB directly.
type CometKV struct {
	db dbm.DB
}

// NewCometKV creates a CometKV for the given underlying CometBFT database.
func NewCometKV(db dbm.DB) *CometKV {
	return &CometKV{db: db}
}

func (a *CometKV) Get(key []byte) ([]byte, error) {
	if a.db == nil {
		return nil, nil
	}
	v, err := a.db.Get(key)
	if err != nil {
		return nil, err
	}
	// v may be nil if the key isn't present -- treated as "not present".
	return v, nil
}

// Set writes durably using SetSync: every epoch commit must be
// crash-safe, so ordinary Set is never used for epoch state.
func (a *CometKV) Set(key, value []byte) error {
	if a.db == nil {
		return nil
	}
	return a.db.SetSync(key, value)
}

func (a *CometKV) Delete(key []byte) error {
	if a.db == nil {
		return nil
	}
	return a.db.DeleteSync(key)
}

func (a *CometKV) Has(key []byte) (bool, error) {
	if a.db == nil {
		return false, nil
	}
	return a.db.Has(key)
}
