package consensus

import "errors"

var (
	// ErrEmptyTransaction is returned for a transaction with no inputs
	// and no outputs.
	ErrEmptyTransaction = errors.New("consensus: empty transaction")
	// ErrAlreadyApplied is returned for a transaction whose TxId repeats
	// an earlier one in the same epoch.
	ErrAlreadyApplied = errors.New("consensus: already-applied")
	// ErrInsufficientFunds is returned when a transaction's accumulated
	// input amount is less than its accumulated output amount.
	ErrInsufficientFunds = errors.New("consensus: insufficient-funds")
	// ErrBadSignature is returned when a transaction's aggregate
	// signature fails to verify against the accumulated key set.
	ErrBadSignature = errors.New("consensus: bad-signature")
	// ErrZeroSignerViolation is returned when a transaction carries a
	// non-empty signature but declares no signing keys, or vice versa in
	// a way the zero-signer rule forbids.
	ErrZeroSignerViolation = errors.New("consensus: zero-signer rule violated")
)

// validationKind normalizes module-specific and pipeline errors to the
// validation-error family named in spec.md §7: invalid-input,
// invalid-output, insufficient-funds, bad-signature. Modules return their
// own sentinel errors; this is the one place that collapses them into the
// kind recorded at an output point. defaultKind distinguishes an
// input-stage failure ("invalid-input") from an output-stage one
// ("invalid-output") for errors that carry no more specific sentinel
// (e.g. mint.ErrInvalidTier, wallet.ErrInvalidDestination).
func validationKind(err error, defaultKind string) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient-funds"
	case errors.Is(err, ErrBadSignature), errors.Is(err, ErrZeroSignerViolation):
		return "bad-signature"
	default:
		return defaultKind
	}
}
