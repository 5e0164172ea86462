package ln

import "errors"

var (
	// ErrInvalidInvoiceHash is returned when an invoice hash is the wrong
	// length or empty.
	ErrInvalidInvoiceHash = errors.New("ln: invalid invoice hash")
	// ErrUnknownInvoice is returned when a claim names an invoice hash
	// with no matching funded escrow.
	ErrUnknownInvoice = errors.New("ln: unknown invoice")
	// ErrPreimageMismatch is returned when a claim's preimage does not
	// hash to the escrow's invoice hash.
	ErrPreimageMismatch = errors.New("ln: preimage does not match invoice hash")
	// ErrPubKeyMismatch is returned when a claim's public key does not
	// match the escrow's payee key.
	ErrPubKeyMismatch = errors.New("ln: claimant public key mismatch")
	// ErrAlreadyClaimed is returned when an escrow has already been spent.
	ErrAlreadyClaimed = errors.New("ln: escrow already claimed")
	// ErrUnknownOutPoint is returned by OutputStatus for an out-point the
	// module has no record of.
	ErrUnknownOutPoint = errors.New("ln: unknown out-point")
)
