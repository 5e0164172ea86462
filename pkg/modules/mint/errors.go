package mint

import "errors"

var (
	// ErrInvalidTier is returned when an output names a denomination
	// outside the valid tier ladder.
	ErrInvalidTier = errors.New("mint: invalid denomination tier")
	// ErrEmptyNonce is returned when an input or output carries no nonce.
	ErrEmptyNonce = errors.New("mint: empty nonce")
	// ErrNonceSpent is returned when a coin's nonce has already been
	// consumed by an earlier input (at-most-once spend, S3).
	ErrNonceSpent = errors.New("mint: nonce already spent")
	// ErrBadSignature is returned when a spend's signature does not
	// verify against the claimed tier and nonce.
	ErrBadSignature = errors.New("mint: bad coin signature")
	// ErrUnknownOutPoint is returned by OutputStatus for an out-point the
	// module has no record of.
	ErrUnknownOutPoint = errors.New("mint: unknown out-point")
)
