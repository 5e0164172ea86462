// Package mint implements the blind-signature issuance/reissue module:
// clients present blinded messages to be signed (issuance) and later
// redeem the resulting tokens by presenting the nonce and signature
// (spend). The blind-signature cryptography itself is out of scope
// (spec.md §1) and lives behind the bls.Signer collaborator; this package
// only implements the consensus bookkeeping spec.md §4.2 assigns to a
// module: nonce spend-tracking, tier validation, and the pending-to-ready
// issuance lifecycle.
package mint

import (
	"encoding/json"

	"github.com/mintfed/federation/pkg/types"
)

const Kind = "mint"

// BlindedOutput requests issuance of a new coin of the given tier. In a
// real blind-signature scheme Nonce would be blinded before submission
// and unblinded by the client after signing; this implementation's
// bls.NoopSigner performs no blinding, so Nonce must be presented
// unchanged at spend time (see SpendInput).
type BlindedOutput struct {
	Tier  types.Amount `json:"tier"`
	Nonce []byte       `json:"nonce"`
}

// SpendInput redeems a previously issued coin: Nonce identifies it and
// Signature is the federation's signature over Nonce, as produced for the
// matching BlindedOutput.
type SpendInput struct {
	Tier      types.Amount `json:"tier"`
	Nonce     []byte       `json:"nonce"`
	Signature []byte       `json:"signature"`
}

func DecodeInput(raw json.RawMessage) (SpendInput, error) {
	var in SpendInput
	err := json.Unmarshal(raw, &in)
	return in, err
}

func DecodeOutput(raw json.RawMessage) (BlindedOutput, error) {
	var out BlindedOutput
	err := json.Unmarshal(raw, &out)
	return out, err
}

func EncodeInput(in SpendInput) types.Input {
	raw, _ := json.Marshal(in)
	return types.Input{Module: Kind, Payload: raw}
}

func EncodeOutput(out BlindedOutput) types.Output {
	raw, _ := json.Marshal(out)
	return types.Output{Module: Kind, Payload: raw}
}

// isValidTier restricts denominations to powers of two, matching the
// standard Chaumian-mint note ladder (1, 2, 4, 8, ... msat) so a target
// amount can always be composed from a bounded number of tiers.
func isValidTier(tier types.Amount) bool {
	v := uint64(tier)
	return v > 0 && v&(v-1) == 0
}
