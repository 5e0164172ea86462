// Copyright 2025 Certen Protocol
//
// Package kvdb errors.

package kvdb

import "errors"

var (
	ErrNilKV    = errors.New("kvdb: nil underlying store")
	ErrNilBatch = errors.New("kvdb: nil batch")
)
