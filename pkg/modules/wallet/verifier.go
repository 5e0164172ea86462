package wallet

// PegInVerifier checks a caller-supplied SPV proof against the underlying
// chain. The actual cryptography (merkle-branch verification against a
// block header the federation trusts) is out of scope for this module --
// it is an injected collaborator so the module stays pure and testable.
type PegInVerifier interface {
	// VerifyTxOutProof reports whether proof demonstrates that txid was
	// confirmed on the underlying chain, and the value (in sats) it paid
	// to the federation's peg-in address.
	VerifyTxOutProof(txid string, proof []byte) (valueSats uint64, err error)
}

// FixedVerifier is a test/dry-run PegInVerifier that reports a
// predetermined value for every txid regardless of the proof bytes. Never
// use it against a real chain.
type FixedVerifier struct {
	Value uint64
}

func (f FixedVerifier) VerifyTxOutProof(_ string, _ []byte) (uint64, error) {
	return f.Value, nil
}
