// Package wallet is the client-side half of the peg-in/peg-out module
// (spec.md §4.4): it builds the Input/Output payloads pkg/modules/wallet
// expects, leaving proof-gathering against the underlying chain itself
// (an external collaborator everywhere in this codebase) to the caller.
package wallet

import (
	modwallet "github.com/mintfed/federation/pkg/modules/wallet"
	"github.com/mintfed/federation/pkg/types"
)

// PegIn builds the Input half of a peg-in transaction. The caller has
// already obtained bitcoinTxid, proof and valueSats from the underlying
// chain (step 1 of spec.md §4.4's transaction construction); this just
// wraps them in the module's wire shape.
func PegIn(bitcoinTxid string, proof []byte, valueSats uint64) types.Input {
	return modwallet.EncodeInput(modwallet.PegInInput{
		BitcoinTxid: bitcoinTxid,
		Proof:       proof,
		ValueSats:   valueSats,
	})
}

// PegOut builds the Output half of a peg-out transaction, redeeming value
// held by the federation for a payment to destinationAddress on the
// underlying chain. The payout itself settles asynchronously; the
// resulting OutPoint's outcome starts pending until the broadcast is
// observed (see modwallet.MarkSettled on the server side).
func PegOut(destinationAddress string, value types.Amount) types.Output {
	return modwallet.EncodeOutput(modwallet.PegOutOutput{
		DestinationAddress: destinationAddress,
		Value:              value,
	})
}
