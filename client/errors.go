package client

import "errors"

var (
	// ErrTxIdMismatch is fatal: the federation's returned TransactionId
	// differs from the one the client computed locally (S5). No retry;
	// the caller must halt the operation.
	ErrTxIdMismatch = errors.New("client: federation returned a different TransactionId, aborting without commit")
	// ErrQuorumDisagreement signals peers disagreeing on an outcome
	// enough that the client cannot trust the response.
	ErrQuorumDisagreement = errors.New("client: quorum disagreement")
	// ErrNotYetAvailable is a transient, retryable poll result.
	ErrNotYetAvailable = errors.New("client: outcome not yet available")
)

// IsRetryableFetchError reports whether err should cause fetchOutcome
// to sleep and retry (true) or surface immediately (false). Transient
// fetch errors (not-yet-available, network) are retryable; fatal
// federation errors (wrong-txid, quorum-disagreement) are not. Any other
// error is treated as a transport error and is retryable; a local
// persistence error is not told apart from one.
func IsRetryableFetchError(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrNotYetAvailable):
		return true
	case errors.Is(err, ErrTxIdMismatch), errors.Is(err, ErrQuorumDisagreement):
		return false
	default:
		// Network-shaped errors from the HTTP transport: retryable.
		return true
	}
}
