package consensus

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/mintfed/federation/pkg/kvdb"
	"github.com/mintfed/federation/pkg/module"
	"github.com/mintfed/federation/pkg/types"
)

// sigLen is the per-key signature width this engine expects in
// Transaction.Signature: a 64-byte (r||s) secp256k1 signature per
// declared signing key, concatenated in key order. Aggregate
// threshold-signature schemes are out of scope (spec.md §1); this is the
// concrete, generic verification the pipeline itself is responsible for.
const sigLen = 64

// applyTransaction runs steps 3a-3f of spec.md §4.3 for one transaction.
// It returns a non-empty rejection reason (and no error) for ordinary
// validation failures, and a non-nil error only for unexpected storage
// failures that should abort the whole epoch.
func (e *Engine) applyTransaction(tx *kvdb.BatchTx, t types.Transaction, caches map[string]module.VerificationCache, seen map[types.TransactionId]bool) (string, error) {
	txid, err := t.TxId()
	if err != nil {
		return "", err
	}

	if seen[txid] {
		return "already-applied", nil
	}
	seen[txid] = true

	if len(t.Inputs) == 0 && len(t.Outputs) == 0 {
		return "empty-transaction", nil
	}

	savepoint := tx.Savepoint()

	var inputSum, outputSum types.Amount
	var keys [][]byte

	fail := func(reason string) (string, error) {
		tx.Rollback(savepoint)
		if err := e.recordFailure(tx, txid, len(t.Outputs), reason); err != nil {
			return "", err
		}
		return reason, nil
	}

	for _, in := range t.Inputs {
		mod, err := e.registry.Get(in.Module)
		if err != nil {
			return fail("invalid-input")
		}
		meta, err := mod.ApplyInput(tx, in, caches[in.Module])
		if err != nil {
			return fail(validationKind(err, "invalid-input"))
		}
		inputSum = inputSum.Add(meta.Amount)
		keys = append(keys, meta.Keys...)
	}

	for idx, out := range t.Outputs {
		outPoint := types.OutPoint{TxId: txid, OutIdx: uint32(idx)}
		mod, err := e.registry.Get(out.Module)
		if err != nil {
			return fail("invalid-output")
		}
		amt, err := mod.ApplyOutput(tx, out, outPoint)
		if err != nil {
			return fail(validationKind(err, "invalid-output"))
		}
		outputSum = outputSum.Add(amt)
	}

	if inputSum < outputSum {
		return fail("insufficient-funds")
	}

	if !verifyAggregate(keys, txid, t.Signature) {
		return fail("bad-signature")
	}

	return "", nil
}

// verifyAggregate checks the zero-signer rule and, when keys is
// non-empty, that sig carries one valid 64-byte secp256k1 signature per
// key (in order) over txid's raw bytes.
func verifyAggregate(keys [][]byte, txid types.TransactionId, sig []byte) bool {
	if len(keys) == 0 {
		return len(sig) == 0
	}
	if len(sig) != sigLen*len(keys) {
		return false
	}
	digest := txid[:]
	for i, key := range keys {
		part := sig[i*sigLen : (i+1)*sigLen]
		if !crypto.VerifySignature(key, digest, part) {
			return false
		}
	}
	return true
}

// recordFailure writes a pipeline-level error outcome at every output
// point of a rejected transaction, since the module-level apply was
// rolled back and never got to record anything itself.
func (e *Engine) recordFailure(tx *kvdb.BatchTx, txid types.TransactionId, numOutputs int, reason string) error {
	outcome := types.Error(reason)
	raw, err := encodeOutcome(outcome)
	if err != nil {
		return err
	}
	for idx := 0; idx < numOutputs; idx++ {
		outPoint := types.OutPoint{TxId: txid, OutIdx: uint32(idx)}
		tx.Set(sysErrKey(outPoint), raw)
	}
	return nil
}

func encodeOutcome(o types.Outcome) ([]byte, error) {
	return json.Marshal(o)
}

func decodeOutcome(raw []byte) (types.Outcome, error) {
	var o types.Outcome
	err := json.Unmarshal(raw, &o)
	return o, err
}
