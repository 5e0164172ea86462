// Package module defines the FederationModule contract every domain module
// (wallet, mint, ln) implements, and the small set of supporting types the
// consensus engine passes across that boundary. Grounded on the teacher's
// pkg/consensus abci_validator.go phase split (Info/CheckTx/PrepareProposal/
// ProcessProposal/FinalizeBlock/Commit), generalized here from one ABCI
// application into N pluggable modules driven by a shared engine.
package module

import (
	"encoding/json"
	"math/rand"

	"github.com/mintfed/federation/pkg/kvdb"
	"github.com/mintfed/federation/pkg/types"
)

// ConsensusItem is a module's own contribution to one epoch's ordered
// proposal -- configuration changes, randomness beacons, or other
// module-internal consensus state that isn't itself a spend.
type ConsensusItem struct {
	Module  string          `json:"module"`
	Payload json.RawMessage `json:"payload"`
}

// InputMeta is what ValidateInput and ApplyInput report back about one
// spent input: its value and the public keys that must have signed the
// enclosing transaction for the spend to be authorized.
type InputMeta struct {
	Amount types.Amount
	Keys   [][]byte
}

// VerificationCache is an opaque, module-built artifact that pre-computes
// whatever per-epoch verification work can be parallelized across inputs
// (signature precomputation, nonce checks) before the single-threaded apply
// phase begins. Modules type-assert their own concrete cache back out of
// this marker.
type VerificationCache interface {
	isVerificationCache()
}

// Module is the contract every domain module satisfies. The engine drives
// every module through the same five-phase epoch: begin, cache, apply
// (validate+apply per transaction), end, with Commit folded into the
// engine's own batch commit.
type Module interface {
	// Kind returns the module's tag, matching the Module field of the
	// Input/Output/ConsensusItem values it owns.
	Kind() string

	// ConsensusProposal returns this module's consensus items for the next
	// epoch. rng is seeded identically across peers so proposals that
	// depend on shared randomness stay deterministic.
	ConsensusProposal(rng *rand.Rand) ([]ConsensusItem, error)

	// BuildVerificationCache does the parallelizable part of validating a
	// batch of inputs before the epoch's single-threaded apply phase.
	// Pure: it must not read or write consensus state.
	BuildVerificationCache(inputs []types.Input) (VerificationCache, error)

	// ValidateInput checks an input against pre-epoch committed state
	// only (it receives the raw KV, never a BatchTx), returning the
	// amount and authorizing keys on success.
	ValidateInput(kv kvdb.KV, input types.Input, cache VerificationCache) (*InputMeta, error)

	// BeginConsensusEpoch lets a module apply its own ConsensusItems for
	// the epoch before any transaction inputs/outputs are processed.
	BeginConsensusEpoch(tx *kvdb.BatchTx, items []ConsensusItem, rng *rand.Rand) error

	// ApplyInput marks an input spent and returns its meta. Called within
	// the epoch's BatchTx, so it observes any same-epoch writes staged by
	// earlier transactions in this epoch.
	ApplyInput(tx *kvdb.BatchTx, input types.Input, cache VerificationCache) (*InputMeta, error)

	// ValidateOutput checks an output's well-formedness and returns its
	// amount, without persisting anything.
	ValidateOutput(output types.Output) (types.Amount, error)

	// ApplyOutput persists a new output at outPoint and returns its
	// amount.
	ApplyOutput(tx *kvdb.BatchTx, output types.Output, outPoint types.OutPoint) (types.Amount, error)

	// EndConsensusEpoch runs once per epoch after every transaction has
	// been applied, for module bookkeeping (e.g. UTXO set maintenance).
	EndConsensusEpoch(tx *kvdb.BatchTx, rng *rand.Rand) error

	// OutputStatus reports the outcome of a previously applied output:
	// unknown if the module has no record of it, otherwise pending or
	// ready from this module's perspective.
	OutputStatus(kv kvdb.KV, outPoint types.OutPoint) (*types.Outcome, error)
}
