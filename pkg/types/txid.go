package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// TransactionId is the double-SHA256 digest (chainhash, Bitcoin-flavored)
// of a transaction's canonical input/output encoding, excluding its
// signature. Two transactions with the same inputs and outputs but
// different signatures share a TransactionId, matching the federation's
// replay-detection semantics (same spend attempted twice is the same
// TransactionId regardless of which signature accompanies it).
type TransactionId chainhash.Hash

// HashTransactionId computes the TransactionId of the given canonical byte
// encoding (see Transaction.TxId's canonicalJSON for how callers build
// that encoding).
func HashTransactionId(canonical []byte) TransactionId {
	return TransactionId(chainhash.HashH(canonical))
}

func (t TransactionId) String() string {
	return hex.EncodeToString(t[:])
}

func (t TransactionId) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TransactionId) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("types: invalid TransactionId hex: %w", err)
	}
	if len(b) != len(t) {
		return fmt.Errorf("types: TransactionId must be %d bytes, got %d", len(t), len(b))
	}
	copy(t[:], b)
	return nil
}

// OutPoint addresses a single output of a transaction.
type OutPoint struct {
	TxId   TransactionId `json:"tx_id"`
	OutIdx uint32        `json:"out_idx"`
}

func (o OutPoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxId, o.OutIdx)
}
