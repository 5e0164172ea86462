package wallet

import "errors"

var (
	// ErrInvalidProof is returned when a PegInVerifier rejects the
	// supplied TxOutProof.
	ErrInvalidProof = errors.New("wallet: invalid peg-in proof")
	// ErrPegInTooSmall is returned when a peg-in's value does not cover
	// the absolute peg-in fee (S2).
	ErrPegInTooSmall = errors.New("wallet: PegInAmountTooSmall")
	// ErrAlreadyPegged is returned when the same bitcoin txid is claimed
	// by a second peg-in input.
	ErrAlreadyPegged = errors.New("wallet: bitcoin transaction already pegged in")
	// ErrInvalidDestination is returned when a peg-out names an empty or
	// malformed destination address.
	ErrInvalidDestination = errors.New("wallet: invalid peg-out destination")
	// ErrUnknownOutPoint is returned by OutputStatus for an out-point the
	// module has no record of.
	ErrUnknownOutPoint = errors.New("wallet: unknown out-point")
)
