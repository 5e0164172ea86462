// Package wallet implements the on-chain peg-in/peg-out module: the
// bridge between a Bitcoin-like chain and the federation's internal value.
// SPV proof verification is an external collaborator (PegInVerifier); this
// package only does the bookkeeping spec.md assigns to the module
// contract. Grounded on pkg/anchor/anchor_manager.go's per-output target
// state record and pkg/execution/external_chain_observer.go's
// observe-then-stage shape.
package wallet

import (
	"encoding/json"

	"github.com/mintfed/federation/pkg/types"
)

const Kind = "wallet"

// PegInInput claims that bitcoinTxid paid value (in sats) to the
// federation's peg-in address, proven by proof. Verification of proof
// itself is delegated to a PegInVerifier collaborator.
type PegInInput struct {
	BitcoinTxid string `json:"bitcoin_txid"`
	Proof       []byte `json:"proof"`
	ValueSats   uint64 `json:"value_sats"`
}

// PegOutOutput withdraws Value to a destination address on the underlying
// chain. Settlement is asynchronous: apply_output stages a withdrawal
// request and the outcome starts pending until the broadcast is observed.
type PegOutOutput struct {
	DestinationAddress string       `json:"destination_address"`
	Value              types.Amount `json:"value"`
}

func DecodeInput(raw json.RawMessage) (PegInInput, error) {
	var in PegInInput
	err := json.Unmarshal(raw, &in)
	return in, err
}

func DecodeOutput(raw json.RawMessage) (PegOutOutput, error) {
	var out PegOutOutput
	err := json.Unmarshal(raw, &out)
	return out, err
}

func EncodeInput(in PegInInput) types.Input {
	raw, _ := json.Marshal(in)
	return types.Input{Module: Kind, Payload: raw}
}

func EncodeOutput(out PegOutOutput) types.Output {
	raw, _ := json.Marshal(out)
	return types.Output{Module: Kind, Payload: raw}
}
