// Package ln is the client-side half of the lightning-funding module
// (spec.md §4.4): it builds FundingOutput/ClaimInput payloads and derives
// the invoice hash a funding output escrows against.
package ln

import (
	"crypto/sha256"

	modln "github.com/mintfed/federation/pkg/modules/ln"
	"github.com/mintfed/federation/pkg/types"
)

// InvoiceHash derives the hash a FundingOutput escrows against from a
// payment preimage, matching how pkg/modules/ln's ClaimInput is checked
// (sha256(preimage) == escrow.InvoiceHash).
func InvoiceHash(preimage []byte) []byte {
	h := sha256.Sum256(preimage)
	return h[:]
}

// Fund builds the Output half of a lightning-funding transaction: escrow
// amount against the invoice identified by preimage until payeePubKey
// later reveals it via Claim.
func Fund(preimage []byte, amount types.Amount, payeePubKey []byte) types.Output {
	return modln.EncodeOutput(modln.FundingOutput{
		InvoiceHash: InvoiceHash(preimage),
		Amount:      amount,
		PayeePubKey: payeePubKey,
	})
}

// Claim builds the Input half that settles a previously funded escrow by
// revealing preimage. claimantPubKey must match the escrow's PayeePubKey;
// it is also what the federation's aggregate-signature check requires the
// enclosing transaction to sign over (Authorization invariant, S4).
func Claim(preimage []byte, claimantPubKey []byte) types.Input {
	return modln.EncodeInput(modln.ClaimInput{
		InvoiceHash: InvoiceHash(preimage),
		Preimage:    preimage,
		PubKey:      claimantPubKey,
	})
}
