// Package ln implements the lightning-funding module: an escrow-style
// bridge that holds value against an invoice hash until the payee
// presents the matching preimage. HTLC script semantics are out of scope
// (spec.md §1); this package only implements the escrow bookkeeping and
// status machine spec.md §4.2 assigns to a module, reduced from the
// originally-surveyed initiated/quorum_met/completed three-stage process
// to the spec's unknown/pending/ready outcome.
package ln

import (
	"encoding/json"

	"github.com/mintfed/federation/pkg/types"
)

const Kind = "ln"

// FundingOutput escrows Amount against InvoiceHash (sha256 of the
// Lightning-like payment preimage) until ClaimInput reveals the preimage.
type FundingOutput struct {
	InvoiceHash []byte       `json:"invoice_hash"`
	Amount      types.Amount `json:"amount"`
	PayeePubKey []byte       `json:"payee_pub_key"`
}

// ClaimInput spends a previously funded escrow by revealing Preimage.
// PubKey must match the escrow's PayeePubKey and is reported back as a
// required signer, so the enclosing transaction's aggregate signature
// must cover it (Authorization invariant, S4).
type ClaimInput struct {
	InvoiceHash []byte `json:"invoice_hash"`
	Preimage    []byte `json:"preimage"`
	PubKey      []byte `json:"pub_key"`
}

func DecodeInput(raw json.RawMessage) (ClaimInput, error) {
	var in ClaimInput
	err := json.Unmarshal(raw, &in)
	return in, err
}

func DecodeOutput(raw json.RawMessage) (FundingOutput, error) {
	var out FundingOutput
	err := json.Unmarshal(raw, &out)
	return out, err
}

func EncodeInput(in ClaimInput) types.Input {
	raw, _ := json.Marshal(in)
	return types.Input{Module: Kind, Payload: raw}
}

func EncodeOutput(out FundingOutput) types.Output {
	raw, _ := json.Marshal(out)
	return types.Output{Module: Kind, Payload: raw}
}
