package client

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// Keypair is the client-held secp256k1 identity used to authorize inputs a
// module reports as requiring a signer (pkg/modules/ln.ClaimInput today --
// the only module whose InputMeta.Keys is non-empty, see DESIGN.md). The
// federation never sees the private key, only PubKeyBytes and the 64-byte
// signatures Sign produces.
type Keypair struct {
	priv *ecdsa.PrivateKey
}

// NewKeypair generates a fresh identity.
func NewKeypair() (*Keypair, error) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("client: generate keypair: %w", err)
	}
	return &Keypair{priv: priv}, nil
}

// LoadKeypair reconstructs a Keypair from raw bytes previously returned by
// Bytes, so a CLI session can persist one identity across invocations
// instead of minting a fresh one every time.
func LoadKeypair(raw []byte) (*Keypair, error) {
	priv, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, fmt.Errorf("client: load keypair: %w", err)
	}
	return &Keypair{priv: priv}, nil
}

// Bytes returns the raw private key, for LoadKeypair to reconstruct later.
// Callers are responsible for storing it somewhere only they can read.
func (k *Keypair) Bytes() []byte {
	return crypto.FromECDSA(k.priv)
}

// PubKeyBytes returns the compressed public key, the exact byte form the
// engine's verifyAggregate (pkg/consensus/apply.go) checks a signature
// against.
func (k *Keypair) PubKeyBytes() []byte {
	return crypto.CompressPubkey(&k.priv.PublicKey)
}

// Sign produces a 64-byte (r||s) signature over digest, dropping
// go-ethereum's trailing recovery byte -- the engine only ever verifies
// with the public key already known from the input, so recovery is
// unneeded (matches pkg/consensus/apply.go's sigLen=64 convention).
func (k *Keypair) Sign(digest []byte) ([]byte, error) {
	sig, err := crypto.Sign(digest, k.priv)
	if err != nil {
		return nil, fmt.Errorf("client: sign: %w", err)
	}
	return sig[:64], nil
}
