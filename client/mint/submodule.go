package mint

import (
	"crypto/rand"
	"fmt"

	modmint "github.com/mintfed/federation/pkg/modules/mint"
	"github.com/mintfed/federation/pkg/types"
)

const nonceLen = 32

// RequestIssuance builds the Output half of a new-coin request at the
// given tier, along with the Coin the caller should stash locally once
// the federation signs it (its Signature starts empty and must be filled
// in from the federation's issuance signature once the output's outcome
// goes ready -- see pkg/modules/mint.Module.Signature on the server side
// and Client.awaitIssuance in package client).
func RequestIssuance(tier types.Amount) (types.Output, Coin, error) {
	nonce := make([]byte, nonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return types.Output{}, Coin{}, fmt.Errorf("mint: generate nonce: %w", err)
	}
	out := modmint.EncodeOutput(modmint.BlindedOutput{Tier: tier, Nonce: nonce})
	return out, Coin{Tier: tier, Nonce: nonce}, nil
}

// Spend builds the Input half that redeems a previously issued coin.
func Spend(c Coin) types.Input {
	return modmint.EncodeInput(modmint.SpendInput{
		Tier:      c.Tier,
		Nonce:     c.Nonce,
		Signature: c.Signature,
	})
}
