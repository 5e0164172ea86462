// Package fedapi defines the client-facing contract a federation exposes
// over the wire (spec.md §4.5): the set of calls a FederationAPI
// implementation (e.g. client/httpapi, or an in-process test double) must
// satisfy. It is kept separate from package client so the three client
// submodules (client/wallet, client/mint, client/ln) can depend on the
// contract without importing package client itself and creating a cycle.
package fedapi

import (
	"context"

	"github.com/mintfed/federation/pkg/api"
	"github.com/mintfed/federation/pkg/types"
)

// FederationAPI is the client's view of a federation: either a single peer
// in a dev/test setup, or (in production) a handle that has already
// reconciled a quorum of peer responses behind the scenes. Submodules never
// reach past this interface back into the federation's own packages.
type FederationAPI interface {
	Info(ctx context.Context) (api.ResBody, error)
	Pending(ctx context.Context) (api.ResBody, error)
	Events(ctx context.Context) (api.ResBody, error)

	// SubmitTransaction proposes tx for inclusion in a future epoch. The
	// returned TransactionId is whatever the federation computed; the
	// caller must compare it against its own locally-computed TxId and
	// treat a mismatch as fatal (client.ErrTxIdMismatch), never trusting
	// the federation's id blindly.
	SubmitTransaction(ctx context.Context, tx types.Transaction) (types.TransactionId, error)

	// OutputStatus reports the current outcome of one output. Callers
	// poll this until it leaves types.OutcomeUnknown/OutcomePending.
	OutputStatus(ctx context.Context, module string, out types.OutPoint) (types.Outcome, error)

	// IssuanceSignature fetches the mint module's signature over a
	// ready issuance output, the last piece a client needs to turn a
	// pending BlindedOutput request into a spendable client/mint.Coin.
	// Only meaningful once OutputStatus reports types.OutcomeReady for
	// the same OutPoint.
	IssuanceSignature(ctx context.Context, out types.OutPoint) ([]byte, error)
}
