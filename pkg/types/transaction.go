package types

import (
	"bytes"
	"encoding/json"
)

// Input is a tagged-variant spend request: Module names the owning module
// (e.g. "wallet", "mint", "ln") and Payload carries that module's own
// concrete input encoding. Keeping Input generic here, rather than an
// interface type, lets this package stay free of import-cycle dependencies
// on pkg/modules/*; each module package supplies its own DecodeInput to get
// back its concrete type.
type Input struct {
	Module  string          `json:"module"`
	Payload json.RawMessage `json:"payload"`
}

// Output is the tagged-variant counterpart of Input.
type Output struct {
	Module  string          `json:"module"`
	Payload json.RawMessage `json:"payload"`
}

// Transaction is the client-submitted unit of atomic state change: it must
// be accepted or rejected as a whole, never partially applied (S4).
// Signature covers the canonical encoding of Inputs and Outputs only --
// never itself -- so TxId is stable across re-signing the same spend.
type Transaction struct {
	Inputs    []Input `json:"inputs"`
	Outputs   []Output `json:"outputs"`
	Signature []byte   `json:"signature"`
}

// txIdPayload is the subset of Transaction that feeds TxId, keeping the
// signature out of the hashed bytes.
type txIdPayload struct {
	Inputs  []Input  `json:"inputs"`
	Outputs []Output `json:"outputs"`
}

// TxId computes the transaction's identifier over its canonical
// inputs/outputs encoding. Two submissions with identical inputs and
// outputs collide on TxId even if resubmitted with a different signature,
// which is what lets the pipeline recognize and reject a replay (S2).
func (t Transaction) TxId() (TransactionId, error) {
	canonical, err := canonicalJSON(txIdPayload{Inputs: t.Inputs, Outputs: t.Outputs})
	if err != nil {
		return TransactionId{}, err
	}
	return HashTransactionId(canonical), nil
}

// canonicalJSON marshals v with map keys and struct fields already ordered
// by encoding/json's default behavior (struct fields in declaration order,
// map keys sorted), and strips insignificant whitespace so the same
// logical value always serializes to the same bytes across peers.
func canonicalJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
