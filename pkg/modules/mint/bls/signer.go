// Package bls provides the blind-signature collaborator the mint module
// signs and verifies coins through. The real threshold BLS/zk scheme
// Fedimint uses for blind signatures is out of scope for this
// specification (spec.md §1); this package is a single-key, non-blind
// stand-in exercising the same secp256k1 primitives the rest of the
// dependency tree already uses (github.com/ethereum/go-ethereum/crypto),
// so a production threshold implementation has a concrete seam
// (the Signer interface) to be swapped in behind.
package bls

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/mintfed/federation/pkg/types"
)

// Signer issues and verifies coin signatures keyed by denomination tier.
type Signer interface {
	SignBlinded(tier types.Amount, blindedMessage []byte) ([]byte, error)
	VerifyUnblinded(tier types.Amount, nonce []byte, signature []byte) bool
}

// NoopSigner signs every tier with the same secp256k1 key. It is named for
// what it isn't: it performs no blinding and no threshold aggregation,
// both out of scope here; it exists purely so EndConsensusEpoch and
// ValidateInput/ApplyInput have a real signature to produce and check
// instead of a stub boolean.
type NoopSigner struct {
	priv *ecdsa.PrivateKey
}

// NewNoopSigner derives a signing key deterministically from seed, so
// tests and dry runs reproduce the same federation key across restarts.
func NewNoopSigner(seed []byte) (*NoopSigner, error) {
	h := crypto.Keccak256(seed)
	priv, err := crypto.ToECDSA(h)
	if err != nil {
		return nil, fmt.Errorf("bls: derive key: %w", err)
	}
	return &NoopSigner{priv: priv}, nil
}

func (s *NoopSigner) SignBlinded(_ types.Amount, blindedMessage []byte) ([]byte, error) {
	digest := crypto.Keccak256(blindedMessage)
	sig, err := crypto.Sign(digest, s.priv)
	if err != nil {
		return nil, fmt.Errorf("bls: sign: %w", err)
	}
	return sig, nil
}

func (s *NoopSigner) VerifyUnblinded(_ types.Amount, nonce []byte, signature []byte) bool {
	if len(signature) < 64 {
		return false
	}
	digest := crypto.Keccak256(nonce)
	pub := crypto.FromECDSAPub(&s.priv.PublicKey)
	return crypto.VerifySignature(pub, digest, signature[:64])
}
