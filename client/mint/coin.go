// Package mint is the client-side half of the blind-signature issuance
// module (spec.md §4.4): it holds the wallet's notion of a spendable
// "coin", the opaque token encoding used by /spend and reissue, and the
// deterministic coin-selection rule a spend builds its inputs from.
package mint

import (
	"encoding/base64"
	"encoding/json"

	"github.com/mintfed/federation/pkg/types"
)

// Coin is the client's local record of one signed, spendable note: the
// tier it was issued at, the nonce it was issued against, and the
// federation's signature over that nonce (see pkg/modules/mint/bls for
// what the signature actually covers, given blinding is out of scope).
// Coins live only in the client's own store; the federation never sees
// this type, only the SpendInput/BlindedOutput wire shapes it unwraps
// into.
type Coin struct {
	Tier      types.Amount `json:"tier"`
	Nonce     []byte       `json:"nonce"`
	Signature []byte       `json:"signature"`
}

// tokenEnvelope is the JSON shape a set of coins serializes to, kept
// distinct from []Coin so the wire encoding can evolve independently of
// the in-memory slice type.
type tokenEnvelope struct {
	Coins []Coin `json:"coins"`
}

// Serialize encodes a coin set as the opaque TOKEN string spec.md §4.5
// uses for /spend's response and reissue_validate's request: JSON,
// base64-wrapped so it survives a single form field or QR code.
func Serialize(coins []Coin) (string, error) {
	raw, err := json.Marshal(tokenEnvelope{Coins: coins})
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// ParseToken reverses Serialize.
func ParseToken(token string) ([]Coin, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, err
	}
	var env tokenEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	return env.Coins, nil
}

// Value sums the face value of a coin set.
func Value(coins []Coin) types.Amount {
	var total types.Amount
	for _, c := range coins {
		total += c.Tier
	}
	return total
}
